// Package auth guards the HTTP API with JWT bearer tokens and static API keys.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andretaki/simurgh/internal/config"
)

type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Middleware struct {
	secret     []byte
	headerName string
	keyHashes  map[string]struct{}
}

func NewMiddleware(cfg config.AuthConfig) *Middleware {
	hashes := make(map[string]struct{}, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if key == "" {
			continue
		}
		hashes[HashAPIKey(key)] = struct{}{}
	}
	return &Middleware{
		secret:     []byte(cfg.JWTSecret),
		headerName: cfg.APIKeyHeader,
		keyHashes:  hashes,
	}
}

// Authenticate accepts either a configured API key or a signed bearer token.
// API keys are checked first since worker-to-worker callers use them.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(m.headerName); key != "" {
			if !m.validAPIKey(key) {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) validAPIKey(key string) bool {
	hash := HashAPIKey(key)
	for stored := range m.keyHashes {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(hash)) == 1 {
			return true
		}
	}
	return false
}

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// ActorFromContext names the caller for audit rows. API-key callers have no
// claims and show up as "api-key".
func ActorFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		if c.Email != "" {
			return c.Email
		}
		return c.Sub
	}
	return "api-key"
}

func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
