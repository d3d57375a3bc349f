package auth

import (
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set carried by an access token. On top of the
// registered claims the service requires "userId" (integer) and "role"
// (comma-separable authority list).
type Claims struct {
	jwt.RegisteredClaims
	UserID UserID `json:"userId"`
	Role   string `json:"role"`
}

// UserID tolerates issuers that encode the claim as a JSON number or as a
// string; either way it must parse as an integer.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	*u = UserID(strings.Trim(string(data), `"`))
	return nil
}

func (u UserID) Int64() (int64, error) {
	return strconv.ParseInt(string(u), 10, 64)
}

// Principal is the authenticated identity attached to a connection after a
// successful handshake. It is never mutated once constructed.
//
// Name and Email are synthesized from the username for display purposes only;
// they carry no authorization weight.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Authorities splits the role claim into individual authority names.
func (p *Principal) Authorities() []string {
	parts := strings.Split(p.Role, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
