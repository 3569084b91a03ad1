package domain

import "context"

// Email is one outgoing message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
}

// EmailSender delivers emails, e.g. the password reset link.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}
