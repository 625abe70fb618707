// Package storage provides the data persistence layer for lettermill.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/service"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidRecord  = errors.New("invalid customer record")
	ErrInvalidResult  = errors.New("invalid analysis result")
	ErrInvalidReport  = errors.New("invalid batch report")
	ErrRunNotFound    = fmt.Errorf("%w: analysis run", common.ErrNotFound)
	ErrInvalidLimit   = errors.New("limit must be positive")
	ErrUnknownIssue   = errors.New("unknown issue type")
	ErrInvalidElapsed = errors.New("elapsed duration cannot be negative")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCustomers validates a slice of customer records.
func validateCustomers(customers []model.CustomerRecord) error {
	if customers == nil {
		return fmt.Errorf("%w: customers", ErrNilParameter)
	}
	if len(customers) == 0 {
		return fmt.Errorf("%w: customers", ErrEmptySlice)
	}
	for i, c := range customers {
		if c.AccountNo() == "" {
			return fmt.Errorf("%w: record at index %d has no account number", ErrInvalidRecord, i)
		}
	}
	return nil
}

// validateAnalysisResult validates an analysis result before persisting.
func validateAnalysisResult(result *model.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if !result.IssueType.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownIssue, result.IssueType)
	}
	for i, m := range result.Matches {
		if m.AccountNo() == "" {
			return fmt.Errorf("%w: match at index %d has no account number", ErrInvalidResult, i)
		}
		if m.Confidence < 0 || m.Confidence > 1 {
			return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidResult)
		}
	}
	return nil
}

// validateBatchReport validates a pipeline report before persisting.
func validateBatchReport(report *service.BatchReport) error {
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if report.Kind != "letters" && report.Kind != "email" {
		return fmt.Errorf("%w: kind must be letters or email, got %q", ErrInvalidReport, report.Kind)
	}
	if report.Elapsed < 0 {
		return ErrInvalidElapsed
	}
	return nil
}
