package auth

import (
	"testing"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileFixture = domain.Profile{
	Name:     domain.Name{FirstName: "Test", LastName: "Reader"},
	FullName: "Test Reader",
}

func mintToken(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"email":  userID + "@example.com",
		"role":   "customer",
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type fakeTokenStore struct {
	token string
	saves int
}

func (f *fakeTokenStore) SaveToken(token string) error {
	f.token = token
	f.saves++
	return nil
}

func (f *fakeTokenStore) LoadToken() (string, error) {
	return f.token, nil
}

func TestSetUser_DecodesClaims(t *testing.T) {
	s, err := NewSession(nil)
	require.NoError(t, err)

	require.NoError(t, s.SetUser(mintToken(t, "u1", time.Hour)))

	claims := s.Claims()
	require.NotNil(t, claims)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, "u1", s.OwnerID())
	assert.NotEmpty(t, s.Token())
}

func TestSetUser_RejectsGarbage(t *testing.T) {
	s, err := NewSession(nil)
	require.NoError(t, err)

	require.ErrorIs(t, s.SetUser("not-a-jwt"), ErrInvalidToken)
	assert.Nil(t, s.Claims())
	assert.Empty(t, s.Token())
}

func TestSetUser_RejectsExpired(t *testing.T) {
	s, err := NewSession(nil)
	require.NoError(t, err)

	require.ErrorIs(t, s.SetUser(mintToken(t, "u1", -time.Minute)), ErrInvalidToken)
	assert.Nil(t, s.Claims())
}

func TestSetToken_KeepsClaims(t *testing.T) {
	s, err := NewSession(nil)
	require.NoError(t, err)
	require.NoError(t, s.SetUser(mintToken(t, "u1", time.Hour)))

	s.SetToken("opaque-refreshed-token")

	assert.Equal(t, "opaque-refreshed-token", s.Token())
	require.NotNil(t, s.Claims())
	assert.Equal(t, "u1", s.Claims().UserID)
}

func TestClear_DropsEverythingAtomically(t *testing.T) {
	s, err := NewSession(nil)
	require.NoError(t, err)
	require.NoError(t, s.SetUser(mintToken(t, "u1", time.Hour)))
	s.SetProfile(&profileFixture)

	s.Clear()

	assert.Empty(t, s.Token())
	assert.Nil(t, s.Claims())
	assert.Nil(t, s.Profile())
	assert.Empty(t, s.OwnerID())
}

func TestProfile_TrailsClaims(t *testing.T) {
	s, err := NewSession(nil)
	require.NoError(t, err)
	require.NoError(t, s.SetUser(mintToken(t, "u1", time.Hour)))

	// The window where identity is known but the profile fetch has not
	// landed yet.
	assert.NotNil(t, s.Claims())
	assert.Nil(t, s.Profile())

	s.SetProfile(&profileFixture)
	assert.NotNil(t, s.Profile())
}

func TestNewSession_RestoresPersistedToken(t *testing.T) {
	store := &fakeTokenStore{token: ""}
	token := mintToken(t, "u1", time.Hour)

	first, err := NewSession(store)
	require.NoError(t, err)
	require.NoError(t, first.SetUser(token))
	assert.Equal(t, token, store.token)

	second, err := NewSession(store)
	require.NoError(t, err)
	require.NotNil(t, second.Claims())
	assert.Equal(t, "u1", second.Claims().UserID)
}

func TestNewSession_DropsExpiredPersistedToken(t *testing.T) {
	store := &fakeTokenStore{token: mintToken(t, "u1", -time.Minute)}

	s, err := NewSession(store)
	require.NoError(t, err)
	assert.Nil(t, s.Claims())
	assert.Empty(t, s.Token())
}
