package model

import "time"

// Priority indicates how urgently a matched customer needs follow-up.
type Priority string

// Priority levels.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// MatchResult is a customer that matched an issue rule, enriched with the
// derived classification attributes. Immutable once produced within a run.
type MatchResult struct {
	Customer   CustomerRecord
	Reason     string
	Priority   Priority
	Confidence float64
}

// AccountNo returns the matched customer's account number.
func (m MatchResult) AccountNo() string {
	return m.Customer.AccountNo()
}

// AnalysisResult is the outcome of one classification run.
//
// Matches always holds the full rule-matched set in input order. When
// external scoring is applied, QualifiedCount is the subset at or above the
// confidence threshold; the non-qualifying matches are still returned.
type AnalysisResult struct {
	GeneratedAt    time.Time
	Insights       map[string]int
	IssueType      IssueType
	Matches        []MatchResult
	TotalCustomers int
	QualifiedCount int
	ScoringUsed    bool
}

// ScoreEntry is one customer's verdict from the external scoring service,
// keyed by account number.
type ScoreEntry struct {
	AccountNo  string
	Reason     string
	Priority   Priority
	Confidence float64
}

// ScoreReport is the external scoring collaborator's response for a batch of
// matched customers.
type ScoreReport struct {
	Summary map[string]string
	Entries []ScoreEntry
}
