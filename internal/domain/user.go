package domain

import (
	"context"
	"time"
)

// User is an account known to the authentication backend.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"password,omitempty"`
	ResetToken        string     `json:"resetToken,omitempty"`
	ResetTokenExpires *time.Time `json:"resetTokenExpires,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// UserRepository is what the in-process auth backend needs from storage.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	// SignUp creates the account and returns a session token.
	SignUp(ctx context.Context, user *User, password string) (string, error)
	// SignIn checks the credentials and returns a session token.
	SignIn(ctx context.Context, user *User, password string) (string, error)
	// FindUserByEmail returns (nil, nil) when no account matches.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// GenerateResetToken stores a fresh password reset token for email.
	GenerateResetToken(ctx context.Context, email string) (string, error)
}
