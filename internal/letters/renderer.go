// Package letters renders branch correspondence for matched customers:
// per-issue letter content and the optional PDF artifact.
package letters

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/oakline/lettermill/internal/model"
)

// Letter is the rendered correspondence for one customer.
type Letter struct {
	Subject      string
	Body         string
	Urgency      model.Priority
	FollowUpDays int
}

// Renderer produces letters from the per-issue templates. It is pure and
// synchronous; the same inputs always render the same letter.
type Renderer struct {
	templates map[model.IssueType]*template.Template
	bankName  string
}

// templateData is what the letter templates see.
type templateData struct {
	Name          string
	AccountNo     string
	Branch        string
	BankName      string
	CustomMessage string
}

// NewRenderer compiles the letter templates for every issue type.
func NewRenderer(bankName string) (*Renderer, error) {
	if bankName == "" {
		bankName = "Oakline Bank"
	}

	compiled := make(map[model.IssueType]*template.Template, len(letterBodies))
	for issue, body := range letterBodies {
		tmpl, err := template.New(string(issue)).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s template: %w", issue, err)
		}
		compiled[issue] = tmpl
	}

	return &Renderer{templates: compiled, bankName: bankName}, nil
}

// Render produces the letter for one customer and issue type. customMessage,
// when non-empty, is inserted as an extra paragraph before the sign-off.
func (r *Renderer) Render(customer model.CustomerRecord, issueType model.IssueType, customMessage string) (*Letter, error) {
	tmpl, ok := r.templates[issueType]
	if !ok {
		return nil, fmt.Errorf("no letter template for issue type %q", issueType)
	}

	name := customer.Get(model.FieldName)
	if name == "" {
		name = "Valued Customer"
	}

	data := templateData{
		Name:          name,
		AccountNo:     customer.AccountNo(),
		Branch:        customer.Get(model.FieldBranch),
		BankName:      r.bankName,
		CustomMessage: strings.TrimSpace(customMessage),
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render %s letter: %w", issueType, err)
	}

	profile := issueProfiles[issueType]
	return &Letter{
		Subject:      fmt.Sprintf("%s - Account %s", profile.subject, data.AccountNo),
		Body:         body.String(),
		Urgency:      profile.urgency,
		FollowUpDays: profile.followUpDays,
	}, nil
}
