package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVReaderNormalizesHeaders(t *testing.T) {
	path := writeCSV(t, "Account No,Name,balance,kycStatus\nA1,Asha Rao,0,Verified\nA2,Ben Cooper,\"1,200.50\",Pending\n")

	result, err := NewCSVReader(nil).Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Customers, 2)
	assert.Equal(t, 0, result.Dropped)

	first := result.Customers[0]
	assert.Equal(t, "A1", first.AccountNo())
	assert.Equal(t, "Asha Rao", first.Get(model.FieldName))
	assert.Equal(t, "Verified", first.Get(model.FieldKYCStatus))

	assert.InDelta(t, 1200.50, result.Customers[1].Float(model.FieldBalance), 0.001)
}

func TestCSVReaderDropsRowsWithoutAccountNumber(t *testing.T) {
	path := writeCSV(t, "ACCOUNT_NO,NAME\nA1,Asha\n,Nameless\nA3,Carla\n")

	result, err := NewCSVReader(nil).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, result.Customers, 2)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, "A3", result.Customers[1].AccountNo())
}

func TestCSVReaderToleratesRaggedRows(t *testing.T) {
	path := writeCSV(t, "ACCOUNT_NO,NAME,EMAIL\nA1,Asha\nA2,Ben,ben@example.com,extra\n")

	result, err := NewCSVReader(nil).Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Customers, 2)
	assert.Empty(t, result.Customers[0].Email())
	assert.Equal(t, "ben@example.com", result.Customers[1].Email())
}

func TestCSVReaderAccountVariantHeader(t *testing.T) {
	path := writeCSV(t, "Acc No,Name\nA9,Dana\n")

	result, err := NewCSVReader(nil).Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, "A9", result.Customers[0].AccountNo())
}

func TestCSVReaderEmptyFile(t *testing.T) {
	path := writeCSV(t, "")

	_, err := NewCSVReader(nil).Read(context.Background(), path)
	require.Error(t, err)
}

func TestCSVReaderMissingFile(t *testing.T) {
	_, err := NewCSVReader(nil).Read(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestXLSXReader(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]any{
		{"Account No", "Name", "Balance"},
		{"A1", "Asha Rao", 0},
		{"", "Nameless", 50},
		{"A3", "Carla Diaz", 120},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "customers.xlsx")
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	result, err := NewXLSXReader(nil).Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Customers, 2)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, "A1", result.Customers[0].AccountNo())
	assert.InDelta(t, 120, result.Customers[1].Float(model.FieldBalance), 0.001)
}

func TestReaderFor(t *testing.T) {
	r, err := ReaderFor("branch.csv", nil)
	require.NoError(t, err)
	assert.IsType(t, &csvReader{}, r)

	r, err = ReaderFor("Branch.XLSX", nil)
	require.NoError(t, err)
	assert.IsType(t, &xlsxReader{}, r)

	_, err = ReaderFor("branch.pdf", nil)
	require.Error(t, err)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}
