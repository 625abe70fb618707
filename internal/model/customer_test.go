package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetToleratesValueTypes(t *testing.T) {
	record := CustomerRecord{
		"NAME":    "  Asha Rao  ",
		"BALANCE": 1200.5,
		"AGE":     62,
		"COUNT":   int64(7),
		"NIL":     nil,
	}

	assert.Equal(t, "Asha Rao", record.Get("NAME"))
	assert.Equal(t, "1200.5", record.Get("BALANCE"))
	assert.Equal(t, "62", record.Get("AGE"))
	assert.Equal(t, "7", record.Get("COUNT"))
	assert.Empty(t, record.Get("NIL"))
	assert.Empty(t, record.Get("MISSING"))
}

func TestFloatAbsorbsDirtyValues(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"plain number", "1200.50", 1200.50},
		{"thousands separator", "1,200.50", 1200.50},
		{"currency prefix", "$500", 500},
		{"rupee prefix", "₹1,000", 1000},
		{"native float", 42.5, 42.5},
		{"native int", 42, 42},
		{"garbage", "N/A", 0},
		{"empty", "", 0},
		{"missing", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := CustomerRecord{"BALANCE": tt.value}
			assert.InDelta(t, tt.want, record.Float("BALANCE"), 0.001)
		})
	}
}

func TestIntOr(t *testing.T) {
	record := CustomerRecord{"AGE": "62", "DAYS": 30.0, "BAD": "old"}

	assert.Equal(t, 62, record.IntOr("AGE", 0))
	assert.Equal(t, 30, record.IntOr("DAYS", 0))
	assert.Equal(t, 99, record.IntOr("BAD", 99))
	assert.Equal(t, 99, record.IntOr("MISSING", 99))
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"iso date", "2024-10-03", 90},
		{"iso datetime", "2024-12-02 10:30:00", 29},
		{"slash format", "03/10/2024", 90},
		{"dash format", "03-10-2024", 90},
		{"future date", "2025-06-01", 0},
		{"unparsable", "last week", 9999},
		{"missing", "", 9999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := CustomerRecord{}
			if tt.value != "" {
				record["LAST_TRANSACTION"] = tt.value
			}
			assert.Equal(t, tt.want, record.DaysSince("LAST_TRANSACTION", now))
		})
	}
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Account No", "ACCOUNT_NO"},
		{"ACCOUNT_NO", "ACCOUNT_NO"},
		{"kycStatus", "KYC_STATUS"},
		{"last-transaction", "LAST_TRANSACTION"},
		{"Outstanding  Amount", "OUTSTANDING_AMOUNT"},
		{"  Balance  ", "BALANCE"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalKey(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeAccountKey(t *testing.T) {
	variants := []string{"ACCOUNTNO", "ACCOUNT_NUMBER", "ACC_NO", "AC_NO"}
	for _, variant := range variants {
		record := CustomerRecord{variant: "A1", "NAME": "Asha"}
		normalized := NormalizeAccountKey(record)

		assert.Equal(t, "A1", normalized.AccountNo(), "variant %s", variant)
		// The source record is never mutated.
		assert.Equal(t, "A1", record.Get(variant))
		_, hasCanonical := record[FieldAccountNo]
		assert.False(t, hasCanonical)
	}
}

func TestNormalizeAccountKeyCanonicalPassthrough(t *testing.T) {
	record := CustomerRecord{FieldAccountNo: "A1"}
	normalized := NormalizeAccountKey(record)
	assert.Equal(t, "A1", normalized.AccountNo())
}

func TestClone(t *testing.T) {
	record := CustomerRecord{"ACCOUNT_NO": "A1"}
	clone := record.Clone()
	clone["ACCOUNT_NO"] = "B2"

	assert.Equal(t, "A1", record.AccountNo())
	assert.Equal(t, "B2", clone.AccountNo())
}

func TestParseIssueType(t *testing.T) {
	issue, err := ParseIssueType("  Account_Closure ")
	assert.NoError(t, err)
	assert.Equal(t, IssueAccountClosure, issue)

	_, err = ParseIssueType("loan_shark")
	assert.Error(t, err)
}
