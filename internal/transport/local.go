package transport

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nfrund/yauth/internal/authflow"
	"github.com/nfrund/yauth/internal/domain"
)

// Messages returned by the in-process backend.
const (
	MsgLoggedIn       = "Logged in successfully!"
	MsgAccountCreated = "Account created successfully! You can now log in."
	MsgResetLinkSent  = "If an account with that email exists, a password reset link has been sent."
)

// UserError is an error whose text is shown to the user as is.
type UserError string

func (e UserError) Error() string { return string(e) }

// Errors surfaced to the widget.
const (
	ErrBadCredentials = UserError("Invalid email or password.")
	ErrAccountExists  = UserError("A user with this email already exists.")
	ErrSignupFailed   = UserError("Could not create your account.")
	ErrLoginFailed    = UserError("Could not log you in. Please try again.")
)

// Local is an in-process auth backend. It serves the widget's operations
// directly from a user repository instead of a remote service.
type Local struct {
	users   domain.UserRepository
	emailer domain.EmailSender
	baseURL string
	logger  *slog.Logger
}

// NewLocal creates a Local backend. emailer may be nil, in which case reset
// links are only logged.
func NewLocal(users domain.UserRepository, emailer domain.EmailSender, baseURL string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		users:   users,
		emailer: emailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Execute implements authflow.Transport.
func (l *Local) Execute(ctx context.Context, operation string, params map[string]string) (*authflow.Payload, error) {
	email := strings.TrimSpace(params[authflow.FieldEmail])
	switch operation {
	case authflow.OpLogin:
		return l.login(ctx, email, params[authflow.FieldPassword])
	case authflow.OpSignup:
		return l.signup(ctx, email, params[authflow.FieldPassword])
	case authflow.OpForgotPassword:
		return l.forgotPassword(ctx, email)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
}

func (l *Local) login(ctx context.Context, email, password string) (*authflow.Payload, error) {
	_, err := l.users.SignIn(ctx, &domain.User{Email: email}, password)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		l.logger.WarnContext(ctx, "Failed login attempt", "email", email)
		return nil, fmt.Errorf("login: %w", ErrBadCredentials)
	case err != nil:
		l.logger.ErrorContext(ctx, "Error signing in user", "email", email, "error", err)
		return nil, fmt.Errorf("login: %w", ErrLoginFailed)
	}
	return &authflow.Payload{Message: MsgLoggedIn}, nil
}

func (l *Local) signup(ctx context.Context, email, password string) (*authflow.Payload, error) {
	_, err := l.users.SignUp(ctx, &domain.User{Email: email}, password)
	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return nil, fmt.Errorf("signup: %w", ErrAccountExists)
	case err != nil:
		l.logger.ErrorContext(ctx, "Error creating user", "email", email, "error", err)
		return nil, fmt.Errorf("signup: %w", ErrSignupFailed)
	}
	return &authflow.Payload{Message: MsgAccountCreated}, nil
}

// forgotPassword always answers with the same message so the response does
// not reveal whether the account exists.
func (l *Local) forgotPassword(ctx context.Context, email string) (*authflow.Payload, error) {
	token, err := l.users.GenerateResetToken(ctx, email)
	if err != nil {
		l.logger.InfoContext(ctx, "Error generating reset token, hiding from user", "email", email, "error", err)
		return &authflow.Payload{Message: MsgResetLinkSent}, nil
	}

	link := l.baseURL + "/auth/reset-password?token=" + url.QueryEscape(token)
	if l.emailer == nil {
		l.logger.InfoContext(ctx, "No email sender configured; reset link not delivered", "email", email)
		return &authflow.Payload{Message: MsgResetLinkSent}, nil
	}

	msg := domain.Email{
		To:       email,
		Subject:  "Reset Your Password",
		HTMLBody: fmt.Sprintf(`<p>Click the link below to reset your password:</p><a href="%s">Reset Password</a>`, html.EscapeString(link)),
	}
	if err := l.emailer.Send(ctx, msg); err != nil {
		l.logger.ErrorContext(ctx, "Failed to send password reset email", "email", email, "error", err)
	}
	return &authflow.Payload{Message: MsgResetLinkSent}, nil
}
