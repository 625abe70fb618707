package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
)

// csvReader parses comma-separated branch exports.
type csvReader struct {
	logger *slog.Logger
}

// NewCSVReader creates a reader for .csv files.
func NewCSVReader(logger *slog.Logger) Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &csvReader{logger: logger}
}

func (r *csvReader) Read(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(f)
	// Branch exports sometimes have ragged rows; tolerate them.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	return buildRecords(records[0], records[1:], r.logger), nil
}
