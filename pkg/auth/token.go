package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshFunc fetches a fresh bearer token, typically from an identity
// provider or a platform-specific credential store.
type RefreshFunc func(ctx context.Context) (string, error)

// TokenSource is a concurrency-safe caching token provider for Bearer
// strategies. It returns the cached token until it expires and then calls
// the refresh function for a new one.
//
// Expiry is read from the token's JWT exp claim when present. Opaque
// (non-JWT) tokens are cached for the configured fallback TTL. Signature
// validation is deliberately not performed; that is the server's job.
type TokenSource struct {
	refresh RefreshFunc

	// ExpirySkew is subtracted from the token expiry so a token is
	// refreshed shortly before it actually expires.
	ExpirySkew time.Duration

	// FallbackTTL caches tokens without a readable exp claim.
	// Zero disables caching for such tokens.
	FallbackTTL time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source with a 30 second expiry skew and a
// 5 minute fallback TTL.
func NewTokenSource(refresh RefreshFunc) *TokenSource {
	return &TokenSource{
		refresh:     refresh,
		ExpirySkew:  30 * time.Second,
		FallbackTTL: 5 * time.Minute,
	}
}

// Token returns a valid bearer token, refreshing if the cached one has
// expired. It satisfies TokenProvider.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiresAt) {
		return s.token, nil
	}

	token, err := s.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}

	s.token = token
	s.expiresAt = s.expiryOf(token)

	return token, nil
}

// Invalidate discards the cached token so the next Token call refreshes.
// Use after a 401 response.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// expiryOf reads the exp claim of a JWT without validating its signature.
func (s *TokenSource) expiryOf(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Now().Add(s.FallbackTTL)
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(s.FallbackTTL)
	}

	return exp.Time.Add(-s.ExpirySkew)
}
