package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/oakline/lettermill/internal/model"
)

// openAIClient scores matches with an LLM when no internal scoring service
// is deployed. The model is asked for the same JSON analysis array the REST
// service returns.
type openAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	return &openAIClient{
		client:      openai.NewClient(cfg.APIKey),
		model:       modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

const scoringSystemPrompt = "You are a bank compliance analyst scoring customers flagged by business rules. " +
	"You MUST respond with ONLY a valid JSON object. Do not include any explanatory text or markdown. " +
	"Start your response directly with { and end with }."

// Score asks the LLM to assess each flagged customer.
func (c *openAIClient) Score(ctx context.Context, customers []model.CustomerRecord, issueType model.IssueType) (*model.ScoreReport, error) {
	prompt, err := buildPrompt(customers, issueType)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scoringSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	return parseScoreContent(resp.Choices[0].Message.Content)
}

func buildPrompt(customers []model.CustomerRecord, issueType model.IssueType) (string, error) {
	rows, err := json.Marshal(customers)
	if err != nil {
		return "", fmt.Errorf("failed to marshal customers: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Issue type: %s (%s)\n\n", issueType, issueType.Title())
	b.WriteString("For each customer below, assess how confidently the flag applies and assign a follow-up priority.\n")
	b.WriteString("Respond with JSON of the form:\n")
	b.WriteString(`{"analysis":[{"account_no":"...","confidence":0.0,"priority":"high|medium|low","reason":"..."}],"summary":{}}`)
	b.WriteString("\n\nCustomers:\n")
	b.Write(rows)
	return b.String(), nil
}

// parseScoreContent extracts the analysis array from the model's reply,
// stripping any markdown fence the model wrapped around the JSON.
func parseScoreContent(content string) (*model.ScoreReport, error) {
	content = cleanMarkdownWrapper(content)

	var parsed scoreResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(parsed.Analysis) == 0 {
		return nil, fmt.Errorf("no analysis entries in response")
	}

	return toReport(parsed), nil
}

func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
