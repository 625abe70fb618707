// Package model defines the core domain models used throughout the application.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Canonical field keys for customer records. Ingestion normalizes all header
// variants onto these before a record enters the pipeline.
const (
	FieldAccountNo         = "ACCOUNT_NO"
	FieldName              = "NAME"
	FieldEmail             = "EMAIL"
	FieldMobile            = "MOBILE"
	FieldBalance           = "BALANCE"
	FieldLastTransaction   = "LAST_TRANSACTION"
	FieldKYCStatus         = "KYC_STATUS"
	FieldOutstandingAmount = "OUTSTANDING_AMOUNT"
	FieldAge               = "AGE"
	FieldAccountType       = "ACCOUNT_TYPE"
	FieldCustomerCategory  = "CUSTOMER_CATEGORY"
	FieldDocStatus         = "DOC_STATUS"
	FieldDaysToExpiry      = "DAYS_TO_EXPIRY"
	FieldBranch            = "BRANCH"
	FieldAddress           = "ADDRESS"
)

// CustomerRecord is a flat customer row keyed by canonical UPPER_SNAKE field
// names. Unknown fields are preserved opaquely. Values are strings or numbers
// depending on the source parser; the accessors absorb either representation.
type CustomerRecord map[string]any

// Get returns the trimmed string form of a field, or "" when absent or nil.
func (c CustomerRecord) Get(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// Float parses a field as a float64. Dirty spreadsheet values (thousands
// separators, currency prefixes) are tolerated; anything unparsable is 0.
func (c CustomerRecord) Float(key string) float64 {
	v, ok := c[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.TrimSpace(n)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimLeft(s, "$₹€£ ")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// IntOr parses a field as an integer, returning def when the field is missing
// or unparsable.
func (c CustomerRecord) IntOr(key string, def int) int {
	v, ok := c[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		i, err := strconv.Atoi(s)
		if err != nil {
			return def
		}
		return i
	default:
		return def
	}
}

// AccountNo returns the canonical account number for the record.
func (c CustomerRecord) AccountNo() string {
	return c.Get(FieldAccountNo)
}

// Email returns the customer's email address, if any.
func (c CustomerRecord) Email() string {
	return c.Get(FieldEmail)
}

// DaysSince returns the number of whole days between the date stored in key
// and now. Missing or unparsable dates report 9999 days, so dormancy rules
// treat dirty data as stale rather than failing.
func (c CustomerRecord) DaysSince(key string, now time.Time) int {
	raw := c.Get(key)
	if raw == "" {
		return 9999
	}
	layouts := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"02/01/2006",
		"02-01-2006",
		time.RFC3339,
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			days := int(now.Sub(t).Hours() / 24)
			if days < 0 {
				return 0
			}
			return days
		}
	}
	return 9999
}

// Clone returns a shallow copy of the record. Enrichment always works on
// copies so the ingested records stay immutable.
func (c CustomerRecord) Clone() CustomerRecord {
	out := make(CustomerRecord, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// accountKeyVariants are the header spellings seen in branch spreadsheets
// that must collapse onto FieldAccountNo.
var accountKeyVariants = []string{
	"ACCOUNTNO", "ACCOUNT_NUMBER", "ACCOUNTNUMBER", "ACC_NO", "ACCNO", "AC_NO",
}

// NormalizeAccountKey rewrites any known account-number key variant onto the
// canonical FieldAccountNo key, returning a new record. Records that already
// carry the canonical key are returned unchanged.
func NormalizeAccountKey(c CustomerRecord) CustomerRecord {
	if _, ok := c[FieldAccountNo]; ok {
		return c
	}
	for k, v := range c {
		canon := CanonicalKey(k)
		if canon == FieldAccountNo {
			out := c.Clone()
			delete(out, k)
			out[FieldAccountNo] = v
			return out
		}
		for _, variant := range accountKeyVariants {
			if canon == variant {
				out := c.Clone()
				delete(out, k)
				out[FieldAccountNo] = v
				return out
			}
		}
	}
	return c
}

// CanonicalKey maps a raw spreadsheet header onto the canonical UPPER_SNAKE
// naming convention: "Account No" -> "ACCOUNT_NO", "kycStatus" -> "KYC_STATUS".
func CanonicalKey(header string) string {
	h := strings.TrimSpace(header)
	if h == "" {
		return ""
	}

	// Break camelCase boundaries before uppercasing.
	var b strings.Builder
	for i, r := range h {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(h[i-1])
			if prev >= 'a' && prev <= 'z' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}

	key := strings.ToUpper(b.String())
	key = strings.NewReplacer(" ", "_", "-", "_", ".", "_", "/", "_").Replace(key)
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	return strings.Trim(key, "_")
}
