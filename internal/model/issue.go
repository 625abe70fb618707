package model

import (
	"fmt"
	"strings"
)

// IssueType identifies one of the business rules customers are screened
// against.
type IssueType string

// The closed set of supported issue types.
const (
	IssueAccountClosure IssueType = "account_closure"
	IssueKYCUpdate      IssueType = "kyc_update"
	IssueLoanDefault    IssueType = "loan_default"
	IssueFeeWaiver      IssueType = "fee_waiver"
	IssueDocumentExpiry IssueType = "document_expiry"
)

// AllIssueTypes lists every supported issue type in display order.
func AllIssueTypes() []IssueType {
	return []IssueType{
		IssueAccountClosure,
		IssueKYCUpdate,
		IssueLoanDefault,
		IssueFeeWaiver,
		IssueDocumentExpiry,
	}
}

// Known reports whether the issue type is one of the supported values.
// Unknown issue types are not an error for classification; they simply match
// no customers.
func (i IssueType) Known() bool {
	switch i {
	case IssueAccountClosure, IssueKYCUpdate, IssueLoanDefault, IssueFeeWaiver, IssueDocumentExpiry:
		return true
	default:
		return false
	}
}

// Title returns a human-readable name for the issue type.
func (i IssueType) Title() string {
	switch i {
	case IssueAccountClosure:
		return "Account Closure"
	case IssueKYCUpdate:
		return "KYC Update"
	case IssueLoanDefault:
		return "Loan Default"
	case IssueFeeWaiver:
		return "Fee Waiver"
	case IssueDocumentExpiry:
		return "Document Expiry"
	default:
		return string(i)
	}
}

// ParseIssueType resolves user input (flag values, config) to an IssueType.
func ParseIssueType(s string) (IssueType, error) {
	issue := IssueType(strings.ToLower(strings.TrimSpace(s)))
	if !issue.Known() {
		return "", fmt.Errorf("unknown issue type %q (expected one of: %s)", s, issueTypeList())
	}
	return issue, nil
}

func issueTypeList() string {
	all := AllIssueTypes()
	names := make([]string, len(all))
	for i, issue := range all {
		names[i] = string(issue)
	}
	return strings.Join(names, ", ")
}
