package services

import (
	"context"
	"testing"
	"time"

	"facegram/internal/auth"
	"facegram/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(f *fixture) AuthService {
	return NewAuthService(f.users, config.Config{
		Auth: config.AuthConfig{
			JWTSecretKey: "test-secret-key",
			JWTExpiry:    time.Hour,
		},
	})
}

func TestRegister(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "alice1", "Alice Doe", "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice1", user.Username)
	assert.NotZero(t, user.ID)

	// The password is stored hashed, never verbatim.
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.True(t, auth.CheckPasswordHash("secret123", user.PasswordHash))
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice1", "Alice Doe", "alice@example.com", "secret123")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "alice1", "Other Alice", "other@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, _, err = svc.Register(ctx, "alice2", "Other Alice", "alice@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)
	ctx := context.Background()

	_, registered, err := svc.Register(ctx, "alice1", "Alice Doe", "alice@example.com", "secret123")
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "alice1", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, registered.ID, user.ID)
}

func TestLoginUniformFailure(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice1", "Alice Doe", "alice@example.com", "secret123")
	require.NoError(t, err)

	// Wrong password and unknown user fail with the same error.
	_, _, err = svc.Login(ctx, "alice1", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody99", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
