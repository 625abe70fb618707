// Package ingest reads customer records out of branch spreadsheets. CSV and
// XLSX sources are supported; both normalize headers onto the canonical
// UPPER_SNAKE field names before a record enters the pipeline.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
)

// Result is the outcome of reading one source file.
type Result struct {
	Customers []model.CustomerRecord
	// Dropped counts rows discarded for missing an account number.
	Dropped int
}

// Reader parses one spreadsheet format into customer records.
type Reader interface {
	Read(ctx context.Context, path string) (*Result, error)
}

// ReaderFor picks a reader by file extension.
func ReaderFor(path string, logger *slog.Logger) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVReader(logger), nil
	case ".xlsx", ".xlsm":
		return NewXLSXReader(logger), nil
	default:
		return nil, common.NewUserError(
			fmt.Sprintf("unsupported file format %q (expected .csv or .xlsx)", filepath.Ext(path)), nil)
	}
}

// buildRecords converts header+rows tables into customer records. Headers are
// canonicalized, account-number key variants are collapsed, and rows without
// an account number are dropped with a warning.
func buildRecords(headers []string, rows [][]string, logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = model.CanonicalKey(h)
	}

	result := &Result{Customers: make([]model.CustomerRecord, 0, len(rows))}
	for rowNum, row := range rows {
		record := make(model.CustomerRecord, len(keys))
		empty := true
		for i, cell := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			record[keys[i]] = cell
			empty = false
		}
		if empty {
			continue
		}

		record = model.NormalizeAccountKey(record)
		if record.AccountNo() == "" {
			result.Dropped++
			logger.Warn("dropping row without account number", "row", rowNum+2)
			continue
		}
		result.Customers = append(result.Customers, record)
	}

	return result
}
