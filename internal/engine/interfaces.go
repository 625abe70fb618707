package engine

import (
	"context"

	"github.com/oakline/lettermill/internal/model"
)

// Scorer defines the contract for the external confidence-scoring
// collaborator. Implementations are expected to be unreliable; any error is
// recoverable and classification falls back to rule-based results.
type Scorer interface {
	Score(ctx context.Context, customers []model.CustomerRecord, issueType model.IssueType) (*model.ScoreReport, error)
}
