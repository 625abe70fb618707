package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/service"
)

// Config holds configuration for the scoring collaborator.
type Config struct {
	Provider    string // "rest" or "openai"
	Endpoint    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Scorer wraps a provider client with caching, rate limiting and retry. It
// satisfies the engine's Scorer contract.
type Scorer struct {
	client      Client
	cache       *reportCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   service.RetryOptions
}

// NewScorer creates a scoring collaborator for the configured provider.
func NewScorer(cfg Config, logger *slog.Logger) (*Scorer, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "rest", "":
		client, err = newRESTClient(cfg)
	case "openai":
		client, err = newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported scoring provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create scoring client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Scorer{
		client:      client,
		cache:       newReportCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
	}, nil
}

// Score submits matched customers to the scoring provider. Responses are
// cached by request contents; failures surface as errors and the caller
// falls back to rule-based results.
func (s *Scorer) Score(ctx context.Context, customers []model.CustomerRecord, issueType model.IssueType) (*model.ScoreReport, error) {
	key := cacheKey(customers, issueType)
	if report, found := s.cache.get(key); found {
		s.logger.Debug("scoring cache hit",
			"issue_type", issueType,
			"customers", len(customers))
		return report, nil
	}

	if err := s.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	var report *model.ScoreReport
	err := common.WithRetry(ctx, func() error {
		var scoreErr error
		report, scoreErr = s.client.Score(ctx, customers, issueType)
		return scoreErr
	}, s.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrScoringUnavailable, err)
	}

	s.cache.set(key, report)

	s.logger.Info("scoring completed",
		"issue_type", issueType,
		"customers", len(customers),
		"entries", len(report.Entries))

	return report, nil
}

// Close releases the cache and rate limiter goroutines.
func (s *Scorer) Close() {
	s.cache.Close()
	s.rateLimiter.Close()
}
