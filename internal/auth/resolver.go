package auth

import (
	"fmt"
	"net/http"
	"regexp"
)

// PrincipalResolver derives an authenticated identity from an upgrade
// request. A nil Principal with a nil error means no credentials were
// presented at all; a non-nil error means credentials were presented and
// failed verification. The two cases are deliberately distinct so the caller
// can never downgrade a bad token to anonymous access.
type PrincipalResolver interface {
	Resolve(r *http.Request) (*Principal, error)
}

// First token=... pair in the URL wins, whether it leads the query string or
// follows another parameter.
var tokenPattern = regexp.MustCompile(`[&?]token=([^&\r\n]*)`)

// JWTResolver resolves principals from a bearer token carried in the
// "token" query parameter.
type JWTResolver struct {
	verifier *Verifier
}

func NewJWTResolver(verifier *Verifier) *JWTResolver {
	return &JWTResolver{verifier: verifier}
}

func (j *JWTResolver) Resolve(r *http.Request) (*Principal, error) {
	m := tokenPattern.FindStringSubmatch(r.URL.String())
	if m == nil {
		return nil, nil
	}

	claims, err := j.verifier.Verify(m[1])
	if err != nil {
		return nil, err
	}
	return PrincipalFromClaims(claims)
}

// PrincipalFromClaims maps a verified claim set onto a Principal. Display
// fields are synthesized from the username.
func PrincipalFromClaims(claims *Claims) (*Principal, error) {
	id, err := claims.UserID.Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: userId claim %q is not an integer", ErrTokenMalformed, claims.UserID)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role claim", ErrTokenMalformed)
	}
	username := claims.Subject
	if username == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenMalformed)
	}

	return &Principal{
		ID:       id,
		Username: username,
		Name:     username,
		Email:    username + "@example.com",
		Role:     claims.Role,
	}, nil
}
