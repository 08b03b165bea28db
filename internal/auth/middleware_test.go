package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andretaki/simurgh/internal/config"
)

func testMiddleware() *Middleware {
	return NewMiddleware(config.AuthConfig{
		JWTSecret:    "test-secret",
		APIKeyHeader: "X-API-Key",
		APIKeys:      []string{"sk-worker-key"},
	})
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedHandler(m *Middleware, sawActor *string) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sawActor != nil {
			*sawActor = ActorFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthenticateValidToken(t *testing.T) {
	m := testMiddleware()
	token := signToken(t, "test-secret", Claims{
		Sub:   "user-1",
		Email: "ops@simurgh.example",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	var actor string
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(m, &actor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@simurgh.example", actor)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	m := testMiddleware()
	token := signToken(t, "test-secret", Claims{
		Sub: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(m, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	m := testMiddleware()
	token := signToken(t, "other-secret", Claims{Sub: "user-1"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(m, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	m := testMiddleware()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs", nil)
	rec := httptest.NewRecorder()
	protectedHandler(m, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error": "missing authorization token"}`, rec.Body.String())
}

func TestAuthenticateAPIKey(t *testing.T) {
	m := testMiddleware()

	var actor string
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs", nil)
	req.Header.Set("X-API-Key", "sk-worker-key")
	rec := httptest.NewRecorder()
	protectedHandler(m, &actor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "api-key", actor)
}

func TestAuthenticateUnknownAPIKey(t *testing.T) {
	m := testMiddleware()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs", nil)
	req.Header.Set("X-API-Key", "sk-wrong")
	rec := httptest.NewRecorder()
	protectedHandler(m, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
