package handshake

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notify-service/internal/auth"
)

// stubResolver returns a canned principal/error and records whether it was
// consulted at all.
type stubResolver struct {
	principal *auth.Principal
	err       error
	called    bool
}

func (s *stubResolver) Resolve(*http.Request) (*auth.Principal, error) {
	s.called = true
	return s.principal, s.err
}

func alicePrincipal() *auth.Principal {
	return &auth.Principal{ID: 42, Username: "alice", Name: "alice", Email: "alice@example.com", Role: "USER"}
}

func upgradeRequest(method string) *http.Request {
	r := httptest.NewRequest(method, "/handler", nil)
	r.Header.Set("Upgrade", "websocket")
	r.Header.Set("Connection", "Upgrade")
	r.Header.Set("Sec-WebSocket-Version", "13")
	r.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return r
}

func TestAuthorizeSuccess(t *testing.T) {
	resolver := &stubResolver{principal: alicePrincipal()}
	g := NewGatekeeper(resolver)
	w := httptest.NewRecorder()

	result, ok := g.Authorize(w, upgradeRequest(http.MethodGet))
	require.True(t, ok)
	require.NotNil(t, result)
	assert.Equal(t, "alice", result.Principal.Username)
	// nothing written on success
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAuthorizeRejectsWrongMethod(t *testing.T) {
	resolver := &stubResolver{principal: alicePrincipal()}
	g := NewGatekeeper(resolver)
	w := httptest.NewRecorder()

	_, ok := g.Authorize(w, upgradeRequest(http.MethodPost))
	require.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET", w.Header().Get("Allow"))
	// the token is never examined when the method is wrong
	assert.False(t, resolver.called)
}

func TestAuthorizeRejectsBadUpgradeHeader(t *testing.T) {
	g := NewGatekeeper(&stubResolver{})
	w := httptest.NewRecorder()

	r := upgradeRequest(http.MethodGet)
	r.Header.Set("Upgrade", "h2c")

	_, ok := g.Authorize(w, r)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Upgrade")
}

func TestAuthorizeRejectsBadConnectionHeader(t *testing.T) {
	g := NewGatekeeper(&stubResolver{})
	w := httptest.NewRecorder()

	r := upgradeRequest(http.MethodGet)
	r.Header.Set("Connection", "keep-alive")

	_, ok := g.Authorize(w, r)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorizeAcceptsConnectionHeaderList(t *testing.T) {
	g := NewGatekeeper(&stubResolver{principal: alicePrincipal()})
	w := httptest.NewRecorder()

	r := upgradeRequest(http.MethodGet)
	r.Header.Set("Connection", "keep-alive, Upgrade")

	_, ok := g.Authorize(w, r)
	require.True(t, ok)
}

func TestAuthorizeRejectsUnsupportedVersion(t *testing.T) {
	g := NewGatekeeper(&stubResolver{})
	w := httptest.NewRecorder()

	r := upgradeRequest(http.MethodGet)
	r.Header.Set("Sec-WebSocket-Version", "8")

	_, ok := g.Authorize(w, r)
	require.False(t, ok)
	assert.Equal(t, http.StatusUpgradeRequired, w.Code)
	assert.Equal(t, "13", w.Header().Get("Sec-WebSocket-Version"))
}

func TestAuthorizeRejectsOrigin(t *testing.T) {
	g := NewGatekeeper(&stubResolver{},
		WithOriginChecker(func(r *http.Request) bool { return false }),
	)
	w := httptest.NewRecorder()

	_, ok := g.Authorize(w, upgradeRequest(http.MethodGet))
	require.False(t, ok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOriginAllowList(t *testing.T) {
	check := OriginAllowList([]string{"https://app.example.com"})

	r := upgradeRequest(http.MethodGet)
	assert.True(t, check(r), "requests without an Origin header pass")

	r.Header.Set("Origin", "https://App.Example.Com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))
}

func TestAuthorizeRejectsMissingKey(t *testing.T) {
	g := NewGatekeeper(&stubResolver{})
	w := httptest.NewRecorder()

	r := upgradeRequest(http.MethodGet)
	r.Header.Del("Sec-WebSocket-Key")

	_, ok := g.Authorize(w, r)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorizeRejectsFailedAuthentication(t *testing.T) {
	for _, cause := range []error{auth.ErrTokenExpired, auth.ErrInvalidSignature, auth.ErrTokenMalformed} {
		resolver := &stubResolver{err: cause}
		g := NewGatekeeper(resolver, WithAllowAnonymous(true))
		w := httptest.NewRecorder()

		_, ok := g.Authorize(w, upgradeRequest(http.MethodGet))
		require.False(t, ok, "cause %v", cause)
		// a bad token is never downgraded to anonymous, even when anonymous
		// connections are allowed
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestAuthorizeMissingTokenRejectedByDefault(t *testing.T) {
	g := NewGatekeeper(&stubResolver{})
	w := httptest.NewRecorder()

	_, ok := g.Authorize(w, upgradeRequest(http.MethodGet))
	require.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorizeMissingTokenAllowedByPolicy(t *testing.T) {
	g := NewGatekeeper(&stubResolver{}, WithAllowAnonymous(true))
	w := httptest.NewRecorder()

	result, ok := g.Authorize(w, upgradeRequest(http.MethodGet))
	require.True(t, ok)
	assert.Nil(t, result.Principal)
}

func TestAuthorizeSelectsSubprotocol(t *testing.T) {
	g := NewGatekeeper(&stubResolver{principal: alicePrincipal()},
		WithSubprotocols("notify.v1", "notify.v0"),
	)
	w := httptest.NewRecorder()

	r := upgradeRequest(http.MethodGet)
	r.Header.Set("Sec-WebSocket-Protocol", "notify.v0, notify.v1")

	result, ok := g.Authorize(w, r)
	require.True(t, ok)
	// client preference order wins
	assert.Equal(t, "notify.v0", result.Subprotocol)
}

func TestHeaderContainsToken(t *testing.T) {
	h := http.Header{}
	h.Add("Connection", "keep-alive")
	h.Add("Connection", "UPGRADE")
	assert.True(t, headerContainsToken(h, "Connection", "upgrade"))

	h = http.Header{}
	h.Set("Connection", "close")
	assert.False(t, headerContainsToken(h, "Connection", "upgrade"))
}
