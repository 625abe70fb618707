package engine

import (
	"strings"
	"time"

	"github.com/oakline/lettermill/internal/model"
)

// computeInsights derives per-issue summary counts over the whole customer
// set. They are observability output only; nothing filters on them.
func computeInsights(customers []model.CustomerRecord, issueType model.IssueType, now time.Time) map[string]int {
	insights := make(map[string]int)

	switch issueType {
	case model.IssueAccountClosure:
		for _, c := range customers {
			if c.Float(model.FieldBalance) == 0 {
				insights["zero_balance"]++
			}
			if c.DaysSince(model.FieldLastTransaction, now) > 90 {
				insights["dormant"]++
			}
		}
	case model.IssueKYCUpdate:
		for _, c := range customers {
			if c.Get(model.FieldEmail) == "" {
				insights["missing_email"]++
			}
			if c.Get(model.FieldMobile) == "" {
				insights["missing_mobile"]++
			}
			if strings.Contains(strings.ToLower(c.Get(model.FieldKYCStatus)), "expired") {
				insights["expired_status"]++
			}
		}
	case model.IssueLoanDefault:
		for _, c := range customers {
			outstanding := c.Float(model.FieldOutstandingAmount)
			if outstanding > 0 {
				insights["defaulters"]++
			}
			if outstanding > 100000 {
				insights["high_value"]++
			}
		}
	case model.IssueFeeWaiver:
		for _, c := range customers {
			if c.Float(model.FieldAge) > 60 {
				insights["seniors"]++
			}
			if strings.EqualFold(c.Get(model.FieldAccountType), "student") {
				insights["students"]++
			}
		}
	case model.IssueDocumentExpiry:
		for _, c := range customers {
			status := strings.ToLower(c.Get(model.FieldDocStatus))
			if status == "expired" {
				insights["expired"]++
			}
			if c.IntOr(model.FieldDaysToExpiry, 9999) <= 60 {
				insights["expiring_soon"]++
			}
		}
	}

	return insights
}
