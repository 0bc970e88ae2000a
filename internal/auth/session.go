// Package auth holds the client-side auth session: the bearer token,
// the identity claims decoded from it, and the lazily fetched profile.
package auth

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// TokenStore persists the bearer token across restarts. The cart
// package's SQLiteRepository satisfies it.
type TokenStore interface {
	SaveToken(token string) error
	LoadToken() (string, error)
}

// Session is the single mutable auth state of the process. Token and
// claims are set and cleared atomically; the profile trails them and
// may be absent while claims are present (in-flight fetch or fetch
// failure).
type Session struct {
	mu      sync.RWMutex
	token   string
	claims  *domain.Claims
	profile *domain.Profile
	store   TokenStore
}

// NewSession restores a previously persisted token, if any. A token
// that no longer decodes is dropped rather than surfaced.
func NewSession(store TokenStore) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}

	token, err := store.LoadToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return s, nil
	}
	if err := s.SetUser(token); err != nil {
		log.Printf("auth: dropping persisted token: %v", err)
	}
	return s, nil
}

// SetUser decodes the token's claims and stores token and claims
// atomically. Used on login, registration, and refresh.
func (s *Session) SetUser(token string) error {
	claims, err := decodeClaims(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	s.persist(token)
	return nil
}

// SetToken swaps the bearer token while keeping the existing decoded
// claims. The refresh protocol uses it: claims update on the next
// natural profile fetch, not on every refresh.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.persist(token)
}

func (s *Session) SetProfile(p *domain.Profile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

// Clear drops token, claims and profile atomically. Used on logout and
// on refresh failure.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.claims = nil
	s.profile = nil
	s.mu.Unlock()

	s.persist("")
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Claims() *domain.Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

func (s *Session) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// OwnerID is the cart-scoping identity: the authenticated user id, or
// "" for an anonymous session.
func (s *Session) OwnerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return ""
	}
	return s.claims.UserID
}

func (s *Session) persist(token string) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveToken(token); err != nil {
		log.Printf("auth: persist token failed: %v", err)
	}
}

type tokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// decodeClaims parses the token without signature verification; the
// client holds no signing key. Shape and expiry are still checked.
func decodeClaims(token string) (*domain.Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, ErrInvalidToken
	}
	if tc.UserID == "" {
		return nil, ErrInvalidToken
	}

	c := &domain.Claims{
		UserID: tc.UserID,
		Email:  tc.Email,
		Role:   tc.Role,
	}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
		if c.ExpiresAt.Before(time.Now()) {
			return nil, ErrInvalidToken
		}
	}
	return c, nil
}
