package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"example/waxroom/internal/auth"
	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"
	"example/waxroom/internal/repository"
)

// bcrypt ignores input past 72 bytes and newer versions reject it outright.
const maxPasswordBytes = 72

// Session is what register and login hand back to the client.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// AuthService registers users, checks credentials and manages profiles.
type AuthService struct {
	repo   *repository.Repository
	tokens *auth.Tokens

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(repo *repository.Repository, tokens *auth.Tokens) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Session{}, invalid("All fields required")
	}
	if len(password) > maxPasswordBytes {
		return Session{}, invalid("Password must be at most 72 bytes")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	user, err := s.repo.CreateUser(ctx, name, email, hash)
	if errors.Is(err, repository.ErrDuplicate) {
		return Session{}, ErrDuplicateEmail
	}
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// Login checks the password. Unknown emails and wrong passwords produce the
// same error and take roughly the same time.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, invalid("Email and password required")
	}

	creds, err := s.repo.GetCredentialsByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		auth.CheckPassword(s.dummy(), password)
		logger.Log.Infow("Login failed", "reason", "unknown email")
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !auth.CheckPassword(creds.PasswordHash, password) {
		logger.Log.Infow("Login failed", "reason", "wrong password", "user_id", creds.ID)
		return Session{}, ErrInvalidCredentials
	}

	logger.Log.Infow("User logged in", "user_id", creds.ID)
	user := creds.User
	user.CreatedAt = nil
	return s.session(user)
}

// Authenticate resolves a bearer token to the caller's user id.
func (s *AuthService) Authenticate(token string) (int64, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, ErrNotFound
	}
	return user, err
}

// UpdateProfile changes name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name, email string) (models.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return models.User{}, invalid("Name and email required")
	}
	user, err := s.repo.UpdateUser(ctx, userID, name, email)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return models.User{}, ErrDuplicateEmail
	case errors.Is(err, repository.ErrNotFound):
		return models.User{}, ErrNotFound
	case err != nil:
		return models.User{}, err
	}
	return user, nil
}

func (s *AuthService) session(user models.User) (Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	user.CreatedAt = nil
	return Session{User: user, Token: token}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("waxroom-timing-equalizer")
	})
	return s.dummyHash
}
