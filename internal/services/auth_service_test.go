package services

import (
	"context"
	"testing"
	"time"

	"contabile/internal/auth"
	"contabile/internal/core"
	"contabile/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeps(t *testing.T) (*storage.SQLiteRepository, *auth.TokenManager) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, auth.NewTokenManager("0123456789abcdef0123456789abcdef", 7*24*time.Hour)
}

func TestRegisterThenLogin(t *testing.T) {
	repo, tokens := newTestDeps(t)
	svc := NewAuthService(repo, tokens)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Mario", "mario@example.com", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, user.Role, "role defaults to user")
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret1", user.PasswordHash, "credential is stored hashed")

	loggedIn, loginToken, err := svc.Login(ctx, "mario@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	id, err := svc.Authorize(loginToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, user.Role, id.Role, "token role matches stored role")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo, tokens := newTestDeps(t)
	svc := NewAuthService(repo, tokens)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Mario", "mario@example.com", "secret1", "")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Impostor", "mario@example.com", "other-secret", "")
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	// The first user is still the only one and can still log in.
	_, _, err = svc.Login(ctx, "mario@example.com", "secret1")
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	repo, tokens := newTestDeps(t)
	svc := NewAuthService(repo, tokens)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "", "mario@example.com", "secret1", "")
	assert.ErrorIs(t, err, core.ErrEmptyName)

	_, _, err = svc.Register(ctx, "Mario", "nope", "secret1", "")
	assert.ErrorIs(t, err, core.ErrInvalidEmail)

	_, _, err = svc.Register(ctx, "Mario", "mario@example.com", "12345", "")
	assert.ErrorIs(t, err, core.ErrShortPassword)

	_, _, err = svc.Register(ctx, "Mario", "mario@example.com", "secret1", "superuser")
	assert.ErrorIs(t, err, core.ErrInvalidRole)
}

func TestLoginNeverRevealsWhichCredentialFailed(t *testing.T) {
	repo, tokens := newTestDeps(t)
	svc := NewAuthService(repo, tokens)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Mario", "mario@example.com", "secret1", "")
	require.NoError(t, err)

	_, _, unknownEmail := svc.Login(ctx, "nobody@example.com", "secret1")
	_, _, wrongPassword := svc.Login(ctx, "mario@example.com", "wrong-secret")

	assert.ErrorIs(t, unknownEmail, core.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassword, core.ErrInvalidCredentials)
	assert.Equal(t, unknownEmail.Error(), wrongPassword.Error())
}

func TestRegisterAdminRoleEmbeddedInToken(t *testing.T) {
	repo, tokens := newTestDeps(t)
	svc := NewAuthService(repo, tokens)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "Root", "root@example.com", "secret1", "admin")
	require.NoError(t, err)

	id, err := svc.Authorize(token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
}
