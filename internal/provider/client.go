// Package provider wraps the hosted identity service's token and
// verification endpoints. The bridge only ever uses the five operations on
// Client and interprets their success/error shape; everything else about the
// identity service is out of scope.
package provider

import (
	"context"
	"time"

	"github.com/squareft/authbridge/internal/session"
	"golang.org/x/oauth2"
)

// User is the identity record attached to a grant, including the signup
// metadata first-run provisioning reads.
type User struct {
	ID       string
	Email    string
	FullName string
	OrgName  string
}

// Grant is the outcome of a successful token acquisition.
type Grant struct {
	Token *oauth2.Token
	User  *User
}

// Session converts the grant's token into the bridge's session record.
func (g *Grant) Session() session.Session {
	s := session.Session{
		AccessToken:  g.Token.AccessToken,
		RefreshToken: g.Token.RefreshToken,
		ExpiresAt:    g.Token.Expiry,
	}
	if s.ExpiresAt.IsZero() {
		if exp, ok := session.ExpiryOf(s.AccessToken); ok {
			s.ExpiresAt = exp
		}
	}
	return s
}

// Client is the identity-provider collaborator interface.
type Client interface {
	// ExchangeCodeForSession redeems a PKCE authorization code. Fails with
	// CodeMissingVerifier when the verifier for the code is not held locally.
	ExchangeCodeForSession(ctx context.Context, code string) (*Grant, error)

	// VerifyOTP redeems a one-time token_hash for the declared purpose.
	VerifyOTP(ctx context.Context, tokenHash, otpType string) (*Grant, error)

	// SetSession installs a raw access/refresh token pair as the current
	// session, refreshing it with the provider to validate the pair.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Grant, error)

	// SignOut drops the current session, best-effort revoking it remotely.
	SignOut(ctx context.Context) error

	// GetSession returns the currently installed session, if any.
	GetSession(ctx context.Context) (session.Session, bool)
}

// VerifierStore holds PKCE verifiers keyed by the authorization code's
// pairing key. The dashboard stores a verifier when it requests a link; a
// callback opened in a context without that verifier cannot complete a PKCE
// exchange.
type VerifierStore interface {
	// Take removes and returns the verifier, reporting whether one existed.
	Take(code string) (string, bool)

	// Put stores a verifier for a pending code.
	Put(code, verifier string)
}

// expiryOrDefault fills a token expiry when the provider response omitted
// expires_in.
func expiryOrDefault(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}
