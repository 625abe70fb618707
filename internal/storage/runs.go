package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/service"
)

// SaveAnalysis persists a classification run and its matches, returning the
// generated run ID.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, result *model.AnalysisResult) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateAnalysisResult(result); err != nil {
		return "", err
	}

	runID := uuid.NewString()

	insights, err := json.Marshal(result.Insights)
	if err != nil {
		return "", fmt.Errorf("failed to marshal insights: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := result.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, issue_type, total_customers, match_count, qualified_count, scoring_used, insights, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, string(result.IssueType), result.TotalCustomers, len(result.Matches),
		result.QualifiedCount, result.ScoringUsed, string(insights), createdAt)
	if err != nil {
		return "", fmt.Errorf("failed to save analysis run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_matches (run_id, position, account_no, reason, priority, confidence, customer)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, match := range result.Matches {
		customer, marshalErr := json.Marshal(match.Customer)
		if marshalErr != nil {
			return "", fmt.Errorf("failed to marshal match customer %s: %w", match.AccountNo(), marshalErr)
		}
		_, execErr := stmt.ExecContext(ctx, runID, i, match.AccountNo(),
			match.Reason, string(match.Priority), match.Confidence, string(customer))
		if execErr != nil {
			return "", fmt.Errorf("failed to save match %s: %w", match.AccountNo(), execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit analysis run: %w", err)
	}
	return runID, nil
}

// GetLatestRun returns the most recent run for an issue type, or
// ErrRunNotFound when none exists.
func (s *SQLiteStorage) GetLatestRun(ctx context.Context, issueType model.IssueType) (*service.AnalysisRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !issueType.Known() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIssue, issueType)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, issue_type, total_customers, match_count, qualified_count, scoring_used, insights, created_at
		FROM analysis_runs
		WHERE issue_type = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, string(issueType))

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no runs for issue type %s", ErrRunNotFound, issueType)
		}
		return nil, err
	}
	return run, nil
}

// GetRunMatches returns the matches of a run in their original input order.
func (s *SQLiteStorage) GetRunMatches(ctx context.Context, runID string) ([]model.MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_runs WHERE id = ?", runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT reason, priority, confidence, customer
		FROM analysis_matches
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []model.MatchResult
	for rows.Next() {
		var (
			reason     string
			priority   string
			confidence float64
			customer   string
		)
		if err := rows.Scan(&reason, &priority, &confidence, &customer); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		var record model.CustomerRecord
		if err := json.Unmarshal([]byte(customer), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match customer: %w", err)
		}
		matches = append(matches, model.MatchResult{
			Customer:   record,
			Reason:     reason,
			Priority:   model.Priority(priority),
			Confidence: confidence,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}

// ListRuns returns the most recent runs across all issue types.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]service.AnalysisRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, issue_type, total_customers, match_count, qualified_count, scoring_used, insights, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []service.AnalysisRun
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// SaveBatchReport persists a letter or email pipeline summary.
func (s *SQLiteStorage) SaveBatchReport(ctx context.Context, report *service.BatchReport) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatchReport(report); err != nil {
		return err
	}

	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_reports (run_id, kind, total, succeeded, failed, skipped, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, report.RunID, report.Kind, report.Total, report.Succeeded,
		report.Failed, report.Skipped, report.Elapsed.Milliseconds(), createdAt)
	if err != nil {
		return fmt.Errorf("failed to save batch report: %w", err)
	}
	return nil
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*service.AnalysisRun, error) {
	var (
		run       service.AnalysisRun
		issueType string
		insights  sql.NullString
	)
	err := row.Scan(&run.ID, &issueType, &run.TotalCustomers, &run.MatchCount,
		&run.QualifiedCount, &run.ScoringUsed, &insights, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.IssueType = model.IssueType(issueType)

	if insights.Valid && insights.String != "" {
		if err := json.Unmarshal([]byte(insights.String), &run.Insights); err != nil {
			return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
		}
	}
	return &run, nil
}
