// Package scoring implements the external confidence-scoring collaborator
// used to re-rank rule-based matches. The service is treated as unreliable:
// every failure here is recoverable and the engine falls back to the pure
// rule-based result.
package scoring

import (
	"context"

	"github.com/oakline/lettermill/internal/model"
)

// Client defines the interface for scoring providers.
type Client interface {
	Score(ctx context.Context, customers []model.CustomerRecord, issueType model.IssueType) (*model.ScoreReport, error)
}
