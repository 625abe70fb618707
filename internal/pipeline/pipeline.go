// Package pipeline turns matched customers into generated artifacts: letter
// content with optional PDFs, and outbound notification emails. Both
// workloads run through the batch driver with per-item failure isolation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oakline/lettermill/internal/batch"
	"github.com/oakline/lettermill/internal/letters"
	"github.com/oakline/lettermill/internal/mailer"
	"github.com/oakline/lettermill/internal/model"
)

// Pipeline fans matched customers out to the content and transport
// collaborators.
type Pipeline struct {
	renderer *letters.Renderer
	pdf      letters.PDFRenderer
	mailer   mailer.Mailer
	logger   *slog.Logger
}

// New creates an artifact pipeline. pdf may be nil when PDF generation is
// not configured; mailer may be nil when only letters are generated.
func New(renderer *letters.Renderer, pdf letters.PDFRenderer, m mailer.Mailer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		renderer: renderer,
		pdf:      pdf,
		mailer:   m,
		logger:   logger,
	}
}

// LetterArtifact is the per-customer output of letter generation. When PDF
// rendering fails but the text rendered, PDFError is set and the artifact
// still counts as a success.
type LetterArtifact struct {
	AccountNo string
	PDFError  string
	Letter    *letters.Letter
	PDF       []byte
}

// LetterOptions configures a letter generation run.
type LetterOptions struct {
	CustomMessage string
	Batch         batch.Config
	Scheduler     batch.Scheduler
	GeneratePDF   bool
	// RequirePDF turns a PDF failure into a full item failure instead of a
	// text-only downgrade.
	RequirePDF bool
}

// GenerateLetters renders correspondence for every matched customer.
func (p *Pipeline) GenerateLetters(ctx context.Context, matches []model.MatchResult, issueType model.IssueType, opts LetterOptions) (*batch.Report[LetterArtifact], error) {
	job := batch.Job[model.MatchResult, LetterArtifact]{
		Key:       model.MatchResult.AccountNo,
		Scheduler: opts.Scheduler,
		Run: func(_ context.Context, match model.MatchResult) (LetterArtifact, error) {
			letter, err := p.renderer.Render(match.Customer, issueType, opts.CustomMessage)
			if err != nil {
				return LetterArtifact{}, fmt.Errorf("template render: %w", err)
			}

			artifact := LetterArtifact{
				AccountNo: match.AccountNo(),
				Letter:    letter,
			}

			if opts.GeneratePDF && p.pdf != nil {
				pdfBytes, pdfErr := p.pdf.Render(letter, match.Customer)
				if pdfErr != nil {
					if opts.RequirePDF {
						return LetterArtifact{}, fmt.Errorf("pdf render: %w", pdfErr)
					}
					// Keep the text content; record the PDF failure on the item.
					artifact.PDFError = pdfErr.Error()
					p.logger.Warn("PDF generation failed, keeping text content",
						"account_no", artifact.AccountNo,
						"error", pdfErr)
				} else {
					artifact.PDF = pdfBytes
				}
			}

			return artifact, nil
		},
	}

	report, err := batch.Process(ctx, matches, job, opts.Batch)
	if err != nil {
		return nil, err
	}

	p.logger.Info("letter generation complete",
		"issue_type", issueType,
		"total", report.Stats.Total,
		"succeeded", report.Stats.Succeeded,
		"failed", report.Stats.Failed,
		"elapsed", report.Stats.Elapsed)

	return report, nil
}

// EmailReceipt is the per-customer output of email dispatch.
type EmailReceipt struct {
	AccountNo string
	Email     string
	MessageID string
}

// EmailOptions configures an email dispatch run.
type EmailOptions struct {
	CustomMessage string
	Batch         batch.Config
	Scheduler     batch.Scheduler
}

// SendNotifications emails every matched customer that has an address on
// file. Customers without one are recorded as skipped before the operation
// runs. A mailer failure marks that one item failed; there are no retries.
func (p *Pipeline) SendNotifications(ctx context.Context, matches []model.MatchResult, issueType model.IssueType, opts EmailOptions) (*batch.Report[EmailReceipt], error) {
	if p.mailer == nil {
		return nil, fmt.Errorf("no mailer configured")
	}

	job := batch.Job[model.MatchResult, EmailReceipt]{
		Key:       model.MatchResult.AccountNo,
		Scheduler: opts.Scheduler,
		Skip: func(match model.MatchResult) (string, bool) {
			if match.Customer.Email() == "" {
				return "no email address on file", true
			}
			return "", false
		},
		Run: func(ctx context.Context, match model.MatchResult) (EmailReceipt, error) {
			letter, err := p.renderer.Render(match.Customer, issueType, opts.CustomMessage)
			if err != nil {
				return EmailReceipt{}, fmt.Errorf("template render: %w", err)
			}

			to := match.Customer.Email()
			receipt, err := p.mailer.Send(ctx, mailer.Message{
				To:        to,
				Subject:   letter.Subject,
				Body:      letter.Body,
				IssueType: issueType,
			})
			if err != nil {
				return EmailReceipt{}, err
			}

			return EmailReceipt{
				AccountNo: match.AccountNo(),
				Email:     to,
				MessageID: receipt.MessageID,
			}, nil
		},
	}

	report, err := batch.Process(ctx, matches, job, opts.Batch)
	if err != nil {
		return nil, err
	}

	p.logger.Info("email dispatch complete",
		"issue_type", issueType,
		"total", report.Stats.Total,
		"sent", report.Stats.Succeeded,
		"failed", report.Stats.Failed,
		"skipped", report.Stats.Skipped,
		"elapsed", report.Stats.Elapsed)

	return report, nil
}
