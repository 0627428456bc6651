// Package session defines the session record exchanged between the dashboard
// origin and the extension context, and the codec for its cookie wire form.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is an authenticated identity-provider session. Sessions are only
// ever handed between contexts by copy, never by reference.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Restorable reports whether the session can be installed into a new
// context. A session missing either token must not be restored; a partial
// session is worse than no session.
func (s Session) Restorable() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// Identity is the subset of access-token claims the bridge cares about.
type Identity struct {
	UserID string
	Email  string
}

// claims mirrors the provider's access-token JWT payload. The token is
// verified server-side by the identity service; here it is only decoded to
// read public claims, so the parse is deliberately unverified.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ExpiryOf extracts the expiry from the access token's exp claim. Returns
// false when the token is not a decodable JWT or carries no expiry.
func ExpiryOf(accessToken string) (time.Time, bool) {
	c, ok := parseClaims(accessToken)
	if !ok || c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// IdentityOf extracts the subject and email from the access token's claims.
func IdentityOf(accessToken string) (Identity, bool) {
	c, ok := parseClaims(accessToken)
	if !ok || c.Subject == "" {
		return Identity{}, false
	}
	return Identity{UserID: c.Subject, Email: c.Email}, true
}

func parseClaims(accessToken string) (*claims, bool) {
	var c claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &c); err != nil {
		return nil, false
	}
	return &c, true
}
