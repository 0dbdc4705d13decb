package auth

import (
	"context"
	"testing"
	"time"

	"facegram/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthConfig = config.AuthConfig{
	JWTSecretKey: "test-secret-key",
	JWTExpiry:    time.Hour,
}

// memBlacklist is an in-memory TokenBlacklist for tests.
type memBlacklist struct {
	revoked map[string]bool
}

func (b *memBlacklist) Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error {
	if b.revoked == nil {
		b.revoked = make(map[string]bool)
	}
	b.revoked[jti] = true
	return nil
}

func (b *memBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return b.revoked[jti], nil
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("secret124", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "alice1", testAuthConfig)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(context.Background(), token, testAuthConfig.JWTSecretKey, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice1", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, err := GenerateToken(42, "alice1", testAuthConfig)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, "another-secret-key", nil)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	expired := config.AuthConfig{
		JWTSecretKey: testAuthConfig.JWTSecretKey,
		JWTExpiry:    -time.Minute,
	}
	token, err := GenerateToken(42, "alice1", expired)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, testAuthConfig.JWTSecretKey, nil)
	assert.Error(t, err)
}

func TestValidateTokenRevoked(t *testing.T) {
	ctx := context.Background()
	blacklist := &memBlacklist{}

	token, err := GenerateToken(42, "alice1", testAuthConfig)
	require.NoError(t, err)

	claims, err := ValidateToken(ctx, token, testAuthConfig.JWTSecretKey, blacklist)
	require.NoError(t, err)

	require.NoError(t, blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time))

	_, err = ValidateToken(ctx, token, testAuthConfig.JWTSecretKey, blacklist)
	assert.Error(t, err)
}
