// Package engine implements the core classification engine that screens
// customer records against issue rules and optionally overlays external
// confidence scoring.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/rules"
)

// Defaults applied when Options fields are zero.
const (
	DefaultScoringCap    = 100
	DefaultMinConfidence = 0.7

	// Confidence assigned to matches the scoring collaborator did not cover.
	ruleConfidence = 0.8
	ruleReason     = "Rule-based match"
)

// Options configures one classification run.
type Options struct {
	// UseScoring submits matches to the external scoring collaborator.
	UseScoring bool
	// ScoringCap bounds how many matches are submitted for scoring.
	ScoringCap int
	// MinConfidence is the threshold for the qualified match count.
	MinConfidence float64
}

// Engine orchestrates rule evaluation and score merging over a customer
// collection. With scoring disabled it is fully deterministic and
// side-effect-free.
type Engine struct {
	scorer Scorer
	logger *slog.Logger
	now    func() time.Time
}

// New creates a classification engine. scorer may be nil when external
// scoring is not configured.
func New(scorer Scorer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scorer: scorer,
		logger: logger,
		now:    time.Now,
	}
}

// Classify screens customers against the rule for issueType and returns the
// full analysis. Matches preserve input order. Scoring failures are logged
// and degrade to the rule-based result; they never abort classification.
func (e *Engine) Classify(ctx context.Context, customers []model.CustomerRecord, issueType model.IssueType, opts Options) (*model.AnalysisResult, error) {
	if len(customers) == 0 {
		return nil, common.ErrNoCustomers
	}

	if opts.ScoringCap <= 0 {
		opts.ScoringCap = DefaultScoringCap
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}

	now := e.now()
	matches := make([]model.MatchResult, 0, len(customers))

	for _, customer := range customers {
		normalized := model.NormalizeAccountKey(customer)
		eval := rules.Evaluate(normalized, issueType, now)
		if !eval.Matches {
			continue
		}
		matches = append(matches, model.MatchResult{
			Customer:   normalized,
			Confidence: ruleConfidence,
			Priority:   eval.Priority,
			Reason:     eval.Reason,
		})
	}

	result := &model.AnalysisResult{
		IssueType:      issueType,
		TotalCustomers: len(customers),
		Matches:        matches,
		QualifiedCount: countQualified(matches, opts.MinConfidence),
		GeneratedAt:    now,
		Insights:       computeInsights(customers, issueType, now),
	}

	e.logger.Info("rule evaluation complete",
		"issue_type", issueType,
		"customers", len(customers),
		"matches", len(matches))

	if opts.UseScoring && len(matches) > 0 && e.scorer != nil {
		e.applyScoring(ctx, result, opts)
	}

	return result, nil
}

// applyScoring submits up to ScoringCap matches to the external scorer and
// merges the returned verdicts by account number. Matches the scorer did not
// cover keep their rule-based defaults. The qualified count becomes the
// subset at or above MinConfidence; the full match set is kept as-is.
func (e *Engine) applyScoring(ctx context.Context, result *model.AnalysisResult, opts Options) {
	submitted := result.Matches
	if len(submitted) > opts.ScoringCap {
		submitted = submitted[:opts.ScoringCap]
	}

	customers := make([]model.CustomerRecord, len(submitted))
	for i, m := range submitted {
		customers[i] = m.Customer
	}

	report, err := e.scorer.Score(ctx, customers, result.IssueType)
	if err != nil {
		// Scoring is best-effort: keep the rule-based result.
		e.logger.Warn("external scoring failed, using rule-based results",
			"issue_type", result.IssueType,
			"error", err)
		return
	}

	byAccount := make(map[string]model.ScoreEntry, len(report.Entries))
	for _, entry := range report.Entries {
		byAccount[strings.ToLower(entry.AccountNo)] = entry
	}

	merged := make([]model.MatchResult, len(result.Matches))
	copy(merged, result.Matches)

	scored := 0
	for i := range merged {
		entry, ok := byAccount[strings.ToLower(merged[i].AccountNo())]
		if !ok {
			merged[i].Reason = ruleReason
			continue
		}
		scored++
		merged[i].Confidence = entry.Confidence
		if entry.Priority != "" {
			merged[i].Priority = entry.Priority
		}
		if entry.Reason != "" {
			merged[i].Reason = entry.Reason
		}
	}

	qualified := countQualified(merged, opts.MinConfidence)

	result.Matches = merged
	result.QualifiedCount = qualified
	result.ScoringUsed = true

	e.logger.Info("scoring merge complete",
		"issue_type", result.IssueType,
		"scored", scored,
		"qualified", qualified,
		"threshold", fmt.Sprintf("%.2f", opts.MinConfidence))
}

// countQualified counts matches at or above the confidence threshold. The
// match list itself is never filtered.
func countQualified(matches []model.MatchResult, minConfidence float64) int {
	qualified := 0
	for _, m := range matches {
		if m.Confidence >= minConfidence {
			qualified++
		}
	}
	return qualified
}
