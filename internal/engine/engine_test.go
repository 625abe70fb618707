package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
)

func fixedEngine(scorer Scorer) *Engine {
	e := New(scorer, nil)
	e.now = func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return e
}

func closureCustomers() []model.CustomerRecord {
	return []model.CustomerRecord{
		{"ACCOUNT_NO": "A1", "BALANCE": 0.0},
		{"ACCOUNT_NO": "A2", "BALANCE": 500.0, "LAST_TRANSACTION": "2024-01-01"},
		{"ACCOUNT_NO": "A3", "BALANCE": 9000.0, "LAST_TRANSACTION": "2024-12-28"},
	}
}

func TestClassifyRuleBased(t *testing.T) {
	e := fixedEngine(nil)

	result, err := e.Classify(context.Background(), closureCustomers(), model.IssueAccountClosure, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCustomers)
	require.Len(t, result.Matches, 2)
	assert.False(t, result.ScoringUsed)
	assert.Equal(t, 2, result.QualifiedCount)

	// Matches preserve input order.
	assert.Equal(t, "A1", result.Matches[0].AccountNo())
	assert.Equal(t, model.PriorityHigh, result.Matches[0].Priority)
	assert.Equal(t, "A2", result.Matches[1].AccountNo())
	assert.Equal(t, model.PriorityLow, result.Matches[1].Priority)

	for _, m := range result.Matches {
		assert.InDelta(t, 0.8, m.Confidence, 0.001)
	}

	assert.Equal(t, 1, result.Insights["zero_balance"])
	assert.Equal(t, 2, result.Insights["dormant"])
}

func TestClassifyIsDeterministic(t *testing.T) {
	e := fixedEngine(nil)
	customers := closureCustomers()

	first, err := e.Classify(context.Background(), customers, model.IssueAccountClosure, Options{})
	require.NoError(t, err)
	second, err := e.Classify(context.Background(), customers, model.IssueAccountClosure, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.Insights, second.Insights)
	assert.Equal(t, first.QualifiedCount, second.QualifiedCount)
}

func TestClassifyEmptyInput(t *testing.T) {
	e := fixedEngine(nil)

	_, err := e.Classify(context.Background(), nil, model.IssueAccountClosure, Options{})
	assert.ErrorIs(t, err, common.ErrNoCustomers)
}

func TestClassifyUnknownIssueMatchesNothing(t *testing.T) {
	e := fixedEngine(nil)

	result, err := e.Classify(context.Background(), closureCustomers(), model.IssueType("tax_audit"), Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Equal(t, 3, result.TotalCustomers)
}

func TestClassifyNormalizesAccountKey(t *testing.T) {
	e := fixedEngine(nil)
	customers := []model.CustomerRecord{
		{"accountNo": "B1", "BALANCE": 0.0},
		{"Account No": "B2", "BALANCE": 0.0},
		{"accno": "B3", "BALANCE": 0.0},
	}

	result, err := e.Classify(context.Background(), customers, model.IssueAccountClosure, Options{})
	require.NoError(t, err)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, "B1", result.Matches[0].AccountNo())
	assert.Equal(t, "B2", result.Matches[1].AccountNo())
	assert.Equal(t, "B3", result.Matches[2].AccountNo())

	// Input records are never mutated in place.
	_, hasCanonical := customers[0]["ACCOUNT_NO"]
	assert.False(t, hasCanonical)
}

func TestClassifyWithScoring(t *testing.T) {
	scorer := &MockScorer{Report: &model.ScoreReport{
		Entries: []model.ScoreEntry{
			{AccountNo: "a1", Confidence: 0.95, Priority: model.PriorityHigh, Reason: "Confirmed closure candidate"},
			// A2 deliberately absent: falls back to rule defaults.
		},
	}}
	e := fixedEngine(scorer)

	result, err := e.Classify(context.Background(), closureCustomers(), model.IssueAccountClosure, Options{
		UseScoring: true,
	})
	require.NoError(t, err)

	assert.True(t, result.ScoringUsed)
	require.Len(t, result.Matches, 2, "non-qualifying matches are not discarded")

	// Account merge is case-insensitive.
	assert.InDelta(t, 0.95, result.Matches[0].Confidence, 0.001)
	assert.Equal(t, "Confirmed closure candidate", result.Matches[0].Reason)

	// Uncovered match keeps rule defaults.
	assert.InDelta(t, 0.8, result.Matches[1].Confidence, 0.001)
	assert.Equal(t, model.PriorityLow, result.Matches[1].Priority)
	assert.Equal(t, "Rule-based match", result.Matches[1].Reason)

	// Both are at or above the default 0.7 threshold.
	assert.Equal(t, 2, result.QualifiedCount)
}

func TestClassifyScoringThreshold(t *testing.T) {
	scorer := &MockScorer{Report: &model.ScoreReport{
		Entries: []model.ScoreEntry{
			{AccountNo: "A1", Confidence: 0.9},
			{AccountNo: "A2", Confidence: 0.3},
		},
	}}
	e := fixedEngine(scorer)

	result, err := e.Classify(context.Background(), closureCustomers(), model.IssueAccountClosure, Options{
		UseScoring:    true,
		MinConfidence: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.QualifiedCount)
	require.Len(t, result.Matches, 2, "low-confidence match stays in the returned set")
	assert.InDelta(t, 0.3, result.Matches[1].Confidence, 0.001)
}

func TestClassifyScoringCap(t *testing.T) {
	customers := make([]model.CustomerRecord, 8)
	for i := range customers {
		customers[i] = model.CustomerRecord{
			"ACCOUNT_NO": string(rune('A'+i)) + "1",
			"BALANCE":    0.0,
		}
	}

	scorer := &MockScorer{Report: &model.ScoreReport{}}
	e := fixedEngine(scorer)

	_, err := e.Classify(context.Background(), customers, model.IssueAccountClosure, Options{
		UseScoring: true,
		ScoringCap: 5,
	})
	require.NoError(t, err)

	submitted := scorer.Submitted()
	require.Len(t, submitted, 1)
	assert.Len(t, submitted[0], 5)
}

func TestClassifyScoringFailureFallsBack(t *testing.T) {
	scorer := &MockScorer{Err: errors.New("scoring service timeout")}
	e := fixedEngine(scorer)

	result, err := e.Classify(context.Background(), closureCustomers(), model.IssueAccountClosure, Options{
		UseScoring: true,
	})
	require.NoError(t, err, "scoring failure must never abort classification")

	assert.False(t, result.ScoringUsed)
	require.Len(t, result.Matches, 2)
	for _, m := range result.Matches {
		assert.InDelta(t, 0.8, m.Confidence, 0.001)
	}
	assert.Equal(t, 2, result.QualifiedCount)
}

func TestComputeInsightsKYC(t *testing.T) {
	customers := []model.CustomerRecord{
		{"ACCOUNT_NO": "K1", "MOBILE": "555", "KYC_STATUS": "Expired"},
		{"ACCOUNT_NO": "K2", "EMAIL": "a@b.com", "MOBILE": "555", "KYC_STATUS": "Complete"},
		{"ACCOUNT_NO": "K3"},
	}

	insights := computeInsights(customers, model.IssueKYCUpdate, time.Now())
	assert.Equal(t, 2, insights["missing_email"])
	assert.Equal(t, 1, insights["missing_mobile"])
	assert.Equal(t, 1, insights["expired_status"])
}
