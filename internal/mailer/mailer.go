// Package mailer implements the outbound email collaborator.
package mailer

import (
	"context"
	"fmt"

	"github.com/oakline/lettermill/internal/model"
)

// Message is one outbound notification email.
type Message struct {
	To        string
	Subject   string
	Body      string
	IssueType model.IssueType
}

// Receipt confirms a sent message.
type Receipt struct {
	MessageID string
}

// SendError carries the transport's failure message and optional code so
// per-item batch results can record both.
type SendError struct {
	Err  error
	Code string
}

func (e *SendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %v", e.Code, e.Err)
	}
	return e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Mailer defines the contract for sending notification emails. Failures are
// expected and handled per-item by the dispatch pipeline; implementations
// must not retry internally.
type Mailer interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
