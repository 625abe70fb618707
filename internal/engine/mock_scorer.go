package engine

import (
	"context"
	"sync"

	"github.com/oakline/lettermill/internal/model"
)

// MockScorer is a scripted Scorer for tests.
type MockScorer struct {
	Report *model.ScoreReport
	Err    error

	mu        sync.Mutex
	submitted [][]model.CustomerRecord
}

// Score records the submitted customers and returns the scripted response.
func (m *MockScorer) Score(_ context.Context, customers []model.CustomerRecord, _ model.IssueType) (*model.ScoreReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, customers)

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Report, nil
}

// Submitted returns the customer batches sent to the scorer.
func (m *MockScorer) Submitted() [][]model.CustomerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitted
}
