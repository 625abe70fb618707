package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oakline/lettermill/internal/model"
)

// restClient talks to the bank-internal scoring service over JSON HTTP.
type restClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// newRESTClient creates a client for the internal scoring service.
func newRESTClient(cfg Config) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("scoring endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &restClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// scoreRequest is the wire format the scoring service accepts.
type scoreRequest struct {
	IssueType string                 `json:"issueType"`
	Customers []model.CustomerRecord `json:"customers"`
}

// scoreResponse is the scoring service's wire format.
type scoreResponse struct {
	Analysis []struct {
		AccountNo  string  `json:"account_no"`
		Priority   string  `json:"priority"`
		Reason     string  `json:"reason"`
		Confidence float64 `json:"confidence"`
	} `json:"analysis"`
	Summary map[string]string `json:"summary"`
}

// Score submits matched customers for confidence scoring.
func (c *restClient) Score(ctx context.Context, customers []model.CustomerRecord, issueType model.IssueType) (*model.ScoreReport, error) {
	body, err := json.Marshal(scoreRequest{
		Customers: customers,
		IssueType: string(issueType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service error (status %d): %s", resp.StatusCode, string(raw))
	}

	var parsed scoreResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return toReport(parsed), nil
}

func toReport(parsed scoreResponse) *model.ScoreReport {
	report := &model.ScoreReport{
		Entries: make([]model.ScoreEntry, 0, len(parsed.Analysis)),
		Summary: parsed.Summary,
	}
	for _, a := range parsed.Analysis {
		report.Entries = append(report.Entries, model.ScoreEntry{
			AccountNo:  a.AccountNo,
			Confidence: a.Confidence,
			Priority:   parsePriority(a.Priority),
			Reason:     a.Reason,
		})
	}
	return report
}

// parsePriority tolerates any casing from the service; unrecognized values
// fall back to medium rather than failing the whole response.
func parsePriority(s string) model.Priority {
	switch model.Priority(s) {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return model.Priority(s)
	}
	switch s {
	case "High", "HIGH":
		return model.PriorityHigh
	case "Low", "LOW":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
