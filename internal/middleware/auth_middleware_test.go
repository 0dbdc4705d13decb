package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facegram/internal/auth"
	"facegram/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTKey = "test-secret-key"

func issueToken(t *testing.T, userID uint, username string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, username, config.AuthConfig{
		JWTSecretKey: testJWTKey,
		JWTExpiry:    time.Hour,
	})
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareInjectsIdentity(t *testing.T) {
	var gotUserID uint
	var gotClaims *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = id
		claims, ok := GetClaimsFromContext(r.Context())
		require.True(t, ok)
		gotClaims = claims
	})

	handler := AuthMiddleware(testJWTKey, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 42, "alice1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(42), gotUserID)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "alice1", gotClaims.Username)
}

func TestAuthMiddlewareRejectsBadRequests(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := AuthMiddleware(testJWTKey, nil)(next)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetUserIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetUserIDFromContext(req.Context())
	assert.False(t, ok)
}
