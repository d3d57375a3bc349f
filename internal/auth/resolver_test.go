package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *JWTResolver {
	return NewJWTResolver(NewVerifier(testSecret))
}

func TestResolveValidToken(t *testing.T) {
	token := signToken(t, testSecret, aliceClaims(time.Now().Add(time.Hour)))
	r := httptest.NewRequest("GET", "/handler?token="+token, nil)

	principal, err := newTestResolver().Resolve(r)
	require.NoError(t, err)
	require.NotNil(t, principal)

	assert.Equal(t, int64(42), principal.ID)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, "USER", principal.Role)
	assert.Equal(t, "alice", principal.Name)
	assert.Equal(t, "alice@example.com", principal.Email)
}

func TestResolveTokenAfterOtherParams(t *testing.T) {
	token := signToken(t, testSecret, aliceClaims(time.Now().Add(time.Hour)))
	r := httptest.NewRequest("GET", "/handler?version=2&token="+token, nil)

	principal, err := newTestResolver().Resolve(r)
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, "alice", principal.Username)
}

func TestResolveMissingTokenIsAnonymous(t *testing.T) {
	r := httptest.NewRequest("GET", "/handler", nil)

	principal, err := newTestResolver().Resolve(r)
	require.NoError(t, err)
	assert.Nil(t, principal)
}

func TestResolveExpiredTokenFails(t *testing.T) {
	token := signToken(t, testSecret, aliceClaims(time.Now().Add(-time.Hour)))
	r := httptest.NewRequest("GET", "/handler?token="+token, nil)

	principal, err := newTestResolver().Resolve(r)
	require.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, principal)
}

func TestResolveTamperedTokenFails(t *testing.T) {
	token := signToken(t, "some-other-secret", aliceClaims(time.Now().Add(time.Hour)))
	r := httptest.NewRequest("GET", "/handler?token="+token, nil)

	_, err := newTestResolver().Resolve(r)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestResolveRejectsBadClaims(t *testing.T) {
	cases := map[string]jwt.MapClaims{
		"non-integer userId": {"sub": "alice", "userId": "not-a-number", "role": "USER"},
		"missing role":       {"sub": "alice", "userId": 42},
		"missing sub":        {"userId": 42, "role": "USER"},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			claims["exp"] = time.Now().Add(time.Hour).Unix()
			token := signToken(t, testSecret, claims)
			r := httptest.NewRequest("GET", "/handler?token="+token, nil)

			_, err := newTestResolver().Resolve(r)
			require.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestPrincipalAuthorities(t *testing.T) {
	p := &Principal{Role: "ADMIN, USER"}
	assert.Equal(t, []string{"ADMIN", "USER"}, p.Authorities())

	p = &Principal{Role: "USER"}
	assert.Equal(t, []string{"USER"}, p.Authorities())
}
