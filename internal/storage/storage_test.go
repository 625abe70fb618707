package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/service"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "lettermill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func sampleCustomers() []model.CustomerRecord {
	return []model.CustomerRecord{
		{"ACCOUNT_NO": "A1", "NAME": "Asha Rao", "BALANCE": "0", "EMAIL": "asha@example.com"},
		{"ACCOUNT_NO": "A2", "NAME": "Ben Cooper", "BALANCE": "1200.50"},
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndGetCustomers(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	saved, err := store.SaveCustomers(ctx, sampleCustomers())
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	customers, err := store.GetCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "A1", customers[0].AccountNo())
	assert.Equal(t, "Ben Cooper", customers[1].Get(model.FieldName))
	assert.InDelta(t, 1200.50, customers[1].Float(model.FieldBalance), 0.001)

	count, err := store.CountCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSaveCustomersUpsertsByAccountNumber(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveCustomers(ctx, sampleCustomers())
	require.NoError(t, err)

	updated := []model.CustomerRecord{
		{"ACCOUNT_NO": "A1", "NAME": "Asha Rao", "BALANCE": "75"},
	}
	_, err = store.SaveCustomers(ctx, updated)
	require.NoError(t, err)

	count, err := store.CountCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	customers, err := store.GetCustomers(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 75, customers[0].Float(model.FieldBalance), 0.001)
}

func TestReplaceCustomers(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveCustomers(ctx, sampleCustomers())
	require.NoError(t, err)

	saved, err := store.ReplaceCustomers(ctx, []model.CustomerRecord{
		{"ACCOUNT_NO": "B1", "NAME": "New Import"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	count, err := store.CountCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveCustomersValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveCustomers(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	_, err = store.SaveCustomers(ctx, []model.CustomerRecord{})
	assert.ErrorIs(t, err, ErrEmptySlice)

	_, err = store.SaveCustomers(ctx, []model.CustomerRecord{{"NAME": "No Account"}})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		GeneratedAt:    time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		IssueType:      model.IssueAccountClosure,
		TotalCustomers: 3,
		QualifiedCount: 2,
		ScoringUsed:    true,
		Insights:       map[string]int{"zero_balance": 1, "dormant": 1},
		Matches: []model.MatchResult{
			{
				Customer:   model.CustomerRecord{"ACCOUNT_NO": "A1", "NAME": "Asha Rao"},
				Reason:     "Zero balance account",
				Priority:   model.PriorityHigh,
				Confidence: 0.9,
			},
			{
				Customer:   model.CustomerRecord{"ACCOUNT_NO": "A2", "NAME": "Ben Cooper"},
				Reason:     "Dormant account",
				Priority:   model.PriorityLow,
				Confidence: 0.8,
			},
		},
	}
}

func TestSaveAnalysisRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	runID, err := store.SaveAnalysis(ctx, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := store.GetLatestRun(ctx, model.IssueAccountClosure)
	require.NoError(t, err)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, model.IssueAccountClosure, run.IssueType)
	assert.Equal(t, 3, run.TotalCustomers)
	assert.Equal(t, 2, run.MatchCount)
	assert.Equal(t, 2, run.QualifiedCount)
	assert.True(t, run.ScoringUsed)
	assert.Equal(t, map[string]int{"zero_balance": 1, "dormant": 1}, run.Insights)

	matches, err := store.GetRunMatches(ctx, runID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "A1", matches[0].AccountNo())
	assert.Equal(t, "Zero balance account", matches[0].Reason)
	assert.Equal(t, model.PriorityHigh, matches[0].Priority)
	assert.InDelta(t, 0.9, matches[0].Confidence, 0.001)
	assert.Equal(t, "A2", matches[1].AccountNo())
}

func TestGetLatestRunPicksNewest(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := sampleResult()
	_, err := store.SaveAnalysis(ctx, first)
	require.NoError(t, err)

	second := sampleResult()
	second.GeneratedAt = first.GeneratedAt.Add(time.Hour)
	second.QualifiedCount = 1
	secondID, err := store.SaveAnalysis(ctx, second)
	require.NoError(t, err)

	run, err := store.GetLatestRun(ctx, model.IssueAccountClosure)
	require.NoError(t, err)
	assert.Equal(t, secondID, run.ID)
	assert.Equal(t, 1, run.QualifiedCount)
}

func TestGetLatestRunNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetLatestRun(context.Background(), model.IssueFeeWaiver)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetRunMatchesUnknownRun(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRunMatches(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	closure := sampleResult()
	_, err := store.SaveAnalysis(ctx, closure)
	require.NoError(t, err)

	kyc := sampleResult()
	kyc.IssueType = model.IssueKYCUpdate
	kyc.GeneratedAt = closure.GeneratedAt.Add(time.Hour)
	_, err = store.SaveAnalysis(ctx, kyc)
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.IssueKYCUpdate, runs[0].IssueType)
	assert.Equal(t, model.IssueAccountClosure, runs[1].IssueType)

	runs, err = store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = store.ListRuns(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestSaveAnalysisValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveAnalysis(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	bad := sampleResult()
	bad.IssueType = "unknown"
	_, err = store.SaveAnalysis(ctx, bad)
	assert.ErrorIs(t, err, ErrUnknownIssue)

	bad = sampleResult()
	bad.Matches[0].Confidence = 1.5
	_, err = store.SaveAnalysis(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestSaveBatchReport(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	runID, err := store.SaveAnalysis(ctx, sampleResult())
	require.NoError(t, err)

	err = store.SaveBatchReport(ctx, &service.BatchReport{
		RunID:     runID,
		Kind:      "email",
		Total:     3,
		Succeeded: 2,
		Failed:    1,
		Elapsed:   1500 * time.Millisecond,
	})
	require.NoError(t, err)

	err = store.SaveBatchReport(ctx, &service.BatchReport{Kind: "fax"})
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestNewSQLiteStorageValidation(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}
