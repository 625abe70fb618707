// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/oakline/lettermill/internal/model"
)

// AnalysisRun is a persisted classification run.
type AnalysisRun struct {
	CreatedAt      time.Time
	ID             string
	IssueType      model.IssueType
	Insights       map[string]int
	TotalCustomers int
	MatchCount     int
	QualifiedCount int
	ScoringUsed    bool
}

// BatchReport is a persisted summary of one letter or email pipeline run.
type BatchReport struct {
	CreatedAt time.Time
	RunID     string
	Kind      string // "letters" or "email"
	Elapsed   time.Duration
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Storage defines the contract for our persistence layer. The classification
// core never sees it; the CLI owns the store and passes plain slices in.
type Storage interface {
	// Customer operations
	SaveCustomers(ctx context.Context, customers []model.CustomerRecord) (int, error)
	GetCustomers(ctx context.Context) ([]model.CustomerRecord, error)
	CountCustomers(ctx context.Context) (int, error)
	ReplaceCustomers(ctx context.Context, customers []model.CustomerRecord) (int, error)

	// Analysis run operations
	SaveAnalysis(ctx context.Context, result *model.AnalysisResult) (string, error)
	GetLatestRun(ctx context.Context, issueType model.IssueType) (*AnalysisRun, error)
	GetRunMatches(ctx context.Context, runID string) ([]model.MatchResult, error)
	ListRuns(ctx context.Context, limit int) ([]AnalysisRun, error)

	// Pipeline report operations
	SaveBatchReport(ctx context.Context, report *BatchReport) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
