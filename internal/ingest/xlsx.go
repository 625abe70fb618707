package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// xlsxReader parses Excel workbooks. Only the first sheet is read; branch
// exports put everything on sheet one.
type xlsxReader struct {
	logger *slog.Logger
}

// NewXLSXReader creates a reader for .xlsx files.
func NewXLSXReader(logger *slog.Logger) Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &xlsxReader{logger: logger}
}

func (r *xlsxReader) Read(ctx context.Context, path string) (*Result, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer wb.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	return buildRecords(rows[0], rows[1:], r.logger), nil
}
