package letters

import "github.com/oakline/lettermill/internal/model"

// issueProfile carries the non-body attributes of each letter type.
type issueProfile struct {
	subject      string
	urgency      model.Priority
	followUpDays int
}

var issueProfiles = map[model.IssueType]issueProfile{
	model.IssueAccountClosure: {
		subject:      "Important Notice Regarding Your Account",
		urgency:      model.PriorityHigh,
		followUpDays: 30,
	},
	model.IssueKYCUpdate: {
		subject:      "KYC Verification Required",
		urgency:      model.PriorityMedium,
		followUpDays: 15,
	},
	model.IssueLoanDefault: {
		subject:      "Urgent: Outstanding Loan Payment",
		urgency:      model.PriorityHigh,
		followUpDays: 7,
	},
	model.IssueFeeWaiver: {
		subject:      "You May Be Eligible for a Fee Waiver",
		urgency:      model.PriorityLow,
		followUpDays: 45,
	},
	model.IssueDocumentExpiry: {
		subject:      "Document Renewal Required",
		urgency:      model.PriorityMedium,
		followUpDays: 30,
	},
}

var letterBodies = map[model.IssueType]string{
	model.IssueAccountClosure: `Dear {{.Name}},

We are writing to inform you that your account {{.AccountNo}} has been identified for potential closure due to prolonged inactivity or a balance below the minimum requirement.

To keep your account active, please visit your{{if .Branch}} {{.Branch}}{{end}} branch or complete a transaction within 30 days of this notice. If no action is taken, the account closure process will begin as per our account maintenance policy.
{{if .CustomMessage}}
{{.CustomMessage}}
{{end}}
If you have already addressed this matter, please disregard this letter.

Sincerely,
{{.BankName}}`,

	model.IssueKYCUpdate: `Dear {{.Name}},

Our records indicate that the Know Your Customer (KYC) details for account {{.AccountNo}} are incomplete or have expired.

Regulatory guidelines require us to hold current identification and contact details for every customer. Please visit your{{if .Branch}} {{.Branch}}{{end}} branch with a valid photo ID and proof of address within 15 days to update your records.
{{if .CustomMessage}}
{{.CustomMessage}}
{{end}}
Accounts with incomplete KYC may face transaction restrictions until verification is complete.

Sincerely,
{{.BankName}}`,

	model.IssueLoanDefault: `Dear {{.Name}},

This is a reminder that the loan linked to account {{.AccountNo}} has an outstanding amount that is past due.

Please arrange payment at the earliest or contact your{{if .Branch}} {{.Branch}}{{end}} branch to discuss a repayment plan. Continued non-payment may affect your credit standing and incur additional charges.
{{if .CustomMessage}}
{{.CustomMessage}}
{{end}}
If payment has already been made, please accept our thanks and disregard this notice.

Sincerely,
{{.BankName}}`,

	model.IssueFeeWaiver: `Dear {{.Name}},

Good news: based on your profile, account {{.AccountNo}} may be eligible for a waiver of monthly maintenance fees.

To confirm your eligibility and apply the waiver, please visit your{{if .Branch}} {{.Branch}}{{end}} branch or contact our support line at your convenience.
{{if .CustomMessage}}
{{.CustomMessage}}
{{end}}
We appreciate your continued relationship with us.

Sincerely,
{{.BankName}}`,

	model.IssueDocumentExpiry: `Dear {{.Name}},

One or more documents on file for account {{.AccountNo}} are expired or will expire shortly.

To avoid any interruption to your banking services, please submit renewed documents at your{{if .Branch}} {{.Branch}}{{end}} branch within the next 60 days.
{{if .CustomMessage}}
{{.CustomMessage}}
{{end}}
Thank you for your prompt attention.

Sincerely,
{{.BankName}}`,
}
