// Package rules implements the deterministic business rules that decide
// whether a customer is affected by a given issue type.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oakline/lettermill/internal/model"
)

// Evaluation is the verdict of a single rule check against one customer.
type Evaluation struct {
	Reason   string
	Priority model.Priority
	Matches  bool
}

// Thresholds used by the rules. Values come from branch operating procedure.
const (
	closureBalanceCeiling = 100.0
	closureLowBalance     = 50.0
	dormantDays           = 90
	defaultHighAmount     = 100000.0
	defaultMediumAmount   = 10000.0
	seniorAge             = 60
	expiryWindowDays      = 60
)

var kycExpiredRe = regexp.MustCompile(`(?i)expired|pending`)

// Evaluate applies the rule for issueType to one customer record. It is pure:
// the same inputs always produce the same verdict, and dirty data never
// causes an error (unparsable numerics read as 0, unparsable dates as 9999
// days old).
func Evaluate(customer model.CustomerRecord, issueType model.IssueType, now time.Time) Evaluation {
	switch issueType {
	case model.IssueAccountClosure:
		return evaluateAccountClosure(customer, now)
	case model.IssueKYCUpdate:
		return evaluateKYCUpdate(customer)
	case model.IssueLoanDefault:
		return evaluateLoanDefault(customer)
	case model.IssueFeeWaiver:
		return evaluateFeeWaiver(customer)
	case model.IssueDocumentExpiry:
		return evaluateDocumentExpiry(customer)
	default:
		// Unknown issue types match nothing.
		return Evaluation{}
	}
}

func evaluateAccountClosure(c model.CustomerRecord, now time.Time) Evaluation {
	balance := c.Float(model.FieldBalance)
	idleDays := c.DaysSince(model.FieldLastTransaction, now)

	if balance > closureBalanceCeiling && idleDays <= dormantDays {
		return Evaluation{}
	}

	eval := Evaluation{Matches: true, Priority: model.PriorityLow}
	switch {
	case balance == 0:
		eval.Priority = model.PriorityHigh
		eval.Reason = "Zero balance account"
	case balance > 0 && balance < closureLowBalance:
		eval.Priority = model.PriorityMedium
		eval.Reason = fmt.Sprintf("Low balance (%.2f)", balance)
	case idleDays > dormantDays:
		eval.Reason = fmt.Sprintf("Dormant account: %d days since last transaction", idleDays)
	default:
		eval.Reason = fmt.Sprintf("Balance %.2f below closure threshold", balance)
	}
	return eval
}

func evaluateKYCUpdate(c model.CustomerRecord) Evaluation {
	email := c.Get(model.FieldEmail)
	mobile := c.Get(model.FieldMobile)
	status := c.Get(model.FieldKYCStatus)

	statusStale := status == "" || kycExpiredRe.MatchString(status)
	if email != "" && mobile != "" && !statusStale {
		return Evaluation{}
	}

	eval := Evaluation{Matches: true, Priority: model.PriorityLow}
	switch {
	case email == "" && mobile == "":
		eval.Priority = model.PriorityHigh
		eval.Reason = "No contact details on file"
	case strings.Contains(strings.ToLower(status), "expired"):
		eval.Priority = model.PriorityMedium
		eval.Reason = "KYC status expired"
	case email == "":
		eval.Reason = "Missing email address"
	case mobile == "":
		eval.Reason = "Missing mobile number"
	default:
		eval.Reason = "KYC verification pending"
	}
	return eval
}

func evaluateLoanDefault(c model.CustomerRecord) Evaluation {
	outstanding := c.Float(model.FieldOutstandingAmount)
	if outstanding <= 0 {
		return Evaluation{}
	}

	eval := Evaluation{
		Matches: true,
		Reason:  fmt.Sprintf("Outstanding loan amount %.2f", outstanding),
	}
	switch {
	case outstanding > defaultHighAmount:
		eval.Priority = model.PriorityHigh
	case outstanding > defaultMediumAmount:
		eval.Priority = model.PriorityMedium
	default:
		eval.Priority = model.PriorityLow
	}
	return eval
}

func evaluateFeeWaiver(c model.CustomerRecord) Evaluation {
	age := c.Float(model.FieldAge)
	accountType := c.Get(model.FieldAccountType)
	category := c.Get(model.FieldCustomerCategory)

	isSenior := age > seniorAge || strings.Contains(strings.ToLower(category), "senior")
	isStudent := strings.EqualFold(accountType, "student")

	switch {
	case isSenior:
		return Evaluation{
			Matches:  true,
			Priority: model.PriorityMedium,
			Reason:   "Senior citizen fee waiver eligibility",
		}
	case isStudent:
		return Evaluation{
			Matches:  true,
			Priority: model.PriorityLow,
			Reason:   "Student account fee waiver eligibility",
		}
	default:
		return Evaluation{}
	}
}

func evaluateDocumentExpiry(c model.CustomerRecord) Evaluation {
	status := strings.ToLower(c.Get(model.FieldDocStatus))
	daysToExpiry := c.IntOr(model.FieldDaysToExpiry, 9999)

	switch {
	case status == "expired":
		return Evaluation{
			Matches:  true,
			Priority: model.PriorityHigh,
			Reason:   "Document already expired",
		}
	case status == "expiring":
		return Evaluation{
			Matches:  true,
			Priority: model.PriorityMedium,
			Reason:   "Document marked as expiring",
		}
	case daysToExpiry <= expiryWindowDays:
		return Evaluation{
			Matches:  true,
			Priority: model.PriorityMedium,
			Reason:   fmt.Sprintf("Document expires in %d days", daysToExpiry),
		}
	default:
		return Evaluation{}
	}
}
