package email

import (
	"context"
)

// Message is one outgoing email with plain text and HTML bodies
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers emails. Callers treat delivery as best-effort.
//
//go:generate mockgen -source=sender.go -destination=../mocks/email.go -package=mocks -mock_names=Sender=MockEmailSender
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
