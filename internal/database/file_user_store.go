package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/yauth/internal/domain"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"
)

// FileUserStore keeps accounts in a single JSON file. It is meant for local
// development and tests; use an afero.MemMapFs to keep it off disk.
type FileUserStore struct {
	fs   afero.Fs
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewFileUserStore creates a store backed by path on fs.
func NewFileUserStore(fs afero.Fs, path string) *FileUserStore {
	return &FileUserStore{fs: fs, path: path, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// load reads every user; a missing file is an empty store.
func (s *FileUserStore) load() (map[string]*domain.User, error) {
	users := make(map[string]*domain.User)
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return users, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	if len(data) == 0 {
		return users, nil
	}
	var list []*domain.User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}
	for _, u := range list {
		users[normalizeEmail(u.Email)] = u
	}
	return users, nil
}

func (s *FileUserStore) save(users map[string]*domain.User) error {
	list := make([]*domain.User, 0, len(users))
	for _, u := range users {
		list = append(list, u)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create users dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return s.fs.Rename(tmp, s.path)
}

// FindUserByEmail returns the user or nil, nil.
func (s *FileUserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	u, ok := users[normalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone, nil
}

// SignUp stores a new user with a bcrypt hash of password.
func (s *FileUserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return "", err
	}
	key := normalizeEmail(user.Email)
	if _, exists := users[key]; exists {
		return "", domain.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	users[key] = &domain.User{
		ID:           "user:" + uuid.NewString(),
		Email:        strings.TrimSpace(user.Email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.save(users); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

// SignIn compares password with the stored hash.
func (s *FileUserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return "", err
	}
	u, ok := users[normalizeEmail(user.Email)]
	if !ok {
		return "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return uuid.NewString(), nil
}

// GenerateResetToken sets a new reset token valid for resetTokenTTL.
func (s *FileUserStore) GenerateResetToken(ctx context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return "", err
	}
	u, ok := users[normalizeEmail(email)]
	if !ok {
		return "", domain.ErrNotFound
	}
	expires := s.now().UTC().Add(resetTokenTTL)
	u.ResetToken = uuid.NewString()
	u.ResetTokenExpires = &expires
	if err := s.save(users); err != nil {
		return "", err
	}
	return u.ResetToken, nil
}
