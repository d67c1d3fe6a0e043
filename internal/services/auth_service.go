package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contabile/internal/auth"
	"contabile/internal/core"
	"contabile/internal/storage"
)

// AuthService handles registration and login against the user directory.
type AuthService struct {
	storage *storage.SQLiteRepository
	tokens  *auth.TokenManager
}

func NewAuthService(storage *storage.SQLiteRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{storage: storage, tokens: tokens}
}

// Register validates the input, stores the user with a hashed credential
// and returns the user together with a signed access token. The role
// defaults to "user" when omitted; a duplicate email fails with
// core.ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (core.User, string, error) {
	if err := core.ValidateRegistration(name, email, password); err != nil {
		return core.User{}, "", err
	}

	parsedRole, err := core.ParseRole(role)
	if err != nil {
		return core.User{}, "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash credential: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, name, email, hash, parsedRole)
	if err != nil {
		return core.User{}, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// Login authenticates a credential pair. Unknown email and wrong password
// both fail with core.ErrInvalidCredentials; the caller never learns which.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, "", core.ErrInvalidCredentials
		}
		return core.User{}, "", err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return core.User{}, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return user, token, nil
}

// Authorize resolves a raw token into an identity.
func (s *AuthService) Authorize(token string) (auth.Identity, error) {
	return s.tokens.Verify(token)
}
