package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/yauth/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// resetTokenTTL is how long a password reset token stays valid.
const resetTokenTTL = 24 * time.Hour

// surrealUser is the shape of a record in the user table.
type surrealUser struct {
	ID                *models.RecordID `json:"id,omitempty"`
	Email             string           `json:"email"`
	ResetToken        *string          `json:"resetToken,omitempty"`
	ResetTokenExpires *string          `json:"resetTokenExpires,omitempty"`
}

func (u *surrealUser) toDomain() *domain.User {
	user := &domain.User{Email: u.Email}
	if u.ID != nil {
		user.ID = fmt.Sprintf("%s:%v", u.ID.Table, u.ID.ID)
	}
	if u.ResetToken != nil {
		user.ResetToken = *u.ResetToken
	}
	if u.ResetTokenExpires != nil {
		if t, err := time.Parse(time.RFC3339, *u.ResetTokenExpires); err == nil {
			user.ResetTokenExpires = &t
		}
	}
	return user
}

// SurrealUserStore keeps accounts in SurrealDB and signs users in through
// the database's record access method named "account".
type SurrealUserStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
	logger *slog.Logger
}

// NewSurrealUserStore creates a new SurrealUserStore.
func NewSurrealUserStore(db *surrealdb.DB, ns, dbName string) *SurrealUserStore {
	return &SurrealUserStore{db: db, ns: ns, dbName: dbName, logger: slog.Default()}
}

func (s *SurrealUserStore) accessParams(email, password string) map[string]any {
	return map[string]any{
		"ns":       s.ns,
		"db":       s.dbName,
		"ac":       "account",
		"email":    email,
		"password": password,
	}
}

// FindUserByEmail queries for a single user by their email address.
func (s *SurrealUserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	user, err := QueryOne[surrealUser](ctx, s.db,
		"SELECT * FROM user WHERE email = $email", map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return user.toDomain(), nil
}

// SignUp creates the account through record access and returns its token.
func (s *SurrealUserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	token, err := s.db.SignUp(ctx, s.accessParams(user.Email, password))
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return "", domain.ErrUserAlreadyExists
		}
		return "", fmt.Errorf("surreal signup: %w", err)
	}
	s.logger.InfoContext(ctx, "Successfully signed up user", "email", user.Email)
	return token, nil
}

// SignIn verifies the credentials through record access.
func (s *SurrealUserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	token, err := s.db.SignIn(ctx, s.accessParams(user.Email, password))
	if err != nil {
		s.logger.DebugContext(ctx, "Surreal signin rejected", "email", user.Email, "error", err)
		return "", domain.ErrInvalidCredentials
	}
	s.logger.InfoContext(ctx, "Successfully signed in user", "email", user.Email)
	return token, nil
}

// GenerateResetToken stores a new reset token on the user record. The
// expiration is written as an RFC3339 string computed in Go.
func (s *SurrealUserStore) GenerateResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("error finding user: %w", err)
	}
	if user == nil {
		return "", domain.ErrNotFound
	}

	token := uuid.NewString()
	expires := time.Now().UTC().Add(resetTokenTTL).Format(time.RFC3339)

	err = Execute(ctx, s.db, `
		UPDATE type::thing($id) SET
			resetToken = $reset_token,
			resetTokenExpires = $expires
	`, map[string]any{
		"id":          user.ID,
		"reset_token": token,
		"expires":     expires,
	})
	if err != nil {
		return "", fmt.Errorf("failed to update user with reset token: %w", err)
	}
	return token, nil
}
