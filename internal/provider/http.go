package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/session"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// HTTPClient talks to a GoTrue-style identity service over its REST surface:
// /auth/v1/token, /auth/v1/verify and /auth/v1/logout. It also owns the
// locally installed session the way the browser client does.
type HTTPClient struct {
	baseURL   string
	anonKey   string
	client    *http.Client
	verifiers VerifierStore

	mu      sync.Mutex
	current *session.Session
}

func NewHTTPClient(cfg *config.Config, verifiers VerifierStore) *HTTPClient {
	return &HTTPClient{
		baseURL:   cfg.Provider.BaseURL,
		anonKey:   cfg.Provider.AnonKey,
		verifiers: verifiers,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// tokenResponse is the provider's token/verify success payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	User         struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			FullName string `json:"full_name"`
			OrgName  string `json:"org_name"`
		} `json:"user_metadata"`
	} `json:"user"`
}

// errorResponse covers the error shapes the provider emits across versions.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *errorResponse) text() string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	default:
		return e.Error
	}
}

func (c *HTTPClient) ExchangeCodeForSession(ctx context.Context, code string) (*Grant, error) {
	verifier, ok := c.verifiers.Take(code)
	if !ok {
		// The provider would reject the exchange anyway; failing locally
		// keeps the error shape identical to the browser client's.
		return nil, &Error{Code: CodeMissingVerifier, Message: "code verifier not found for this context"}
	}

	grant, err := c.requestToken(ctx, "pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, err
	}
	c.install(grant)
	return grant, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*Grant, error) {
	body, err := json.Marshal(map[string]string{
		"token_hash": tokenHash,
		"type":       otpType,
	})
	if err != nil {
		return nil, err
	}

	grant, err := c.post(ctx, c.baseURL+"/auth/v1/verify", body, CodeVerifyFailed)
	if err != nil {
		return nil, err
	}
	c.install(grant)
	return grant, nil
}

func (c *HTTPClient) SetSession(ctx context.Context, accessToken, refreshToken string) (*Grant, error) {
	if refreshToken == "" {
		return nil, &Error{Code: CodeExchangeFailed, Message: "refresh token is required to install a session"}
	}

	grant, err := c.requestToken(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	c.install(grant)
	return grant, nil
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.current
	c.current = nil
	c.mu.Unlock()

	if current == nil {
		return nil
	}

	// Remote revocation is best-effort; the local session is already gone.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+current.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Debug("remote sign-out failed", zap.Error(err))
		return nil
	}
	_ = resp.Body.Close()
	return nil
}

func (c *HTTPClient) GetSession(_ context.Context) (session.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return session.Session{}, false
	}
	return *c.current, true
}

func (c *HTTPClient) install(grant *Grant) {
	sess := grant.Session()
	c.mu.Lock()
	c.current = &sess
	c.mu.Unlock()
}

func (c *HTTPClient) requestToken(ctx context.Context, grantType string, fields map[string]string) (*Grant, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/auth/v1/token?grant_type=%s", c.baseURL, grantType)
	return c.post(ctx, url, body, CodeExchangeFailed)
}

// post performs a provider POST and decodes the token payload. Error bodies
// are classified into a discriminated *Error exactly once, here.
func (c *HTTPClient) post(ctx context.Context, url string, body []byte, failCode ErrorCode) (*Grant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: CodeUnavailable, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeUnavailable, Message: err.Error()}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("failed to close provider response body", zap.Error(closeErr))
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Code: CodeUnavailable, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		_ = json.Unmarshal(raw, &errResp)
		message := errResp.text()
		if message == "" {
			message = fmt.Sprintf("provider returned status %d", resp.StatusCode)
		}
		if failCode == CodeExchangeFailed {
			return nil, classifyExchange(message)
		}
		return nil, &Error{Code: failCode, Message: message}
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, &Error{Code: failCode, Message: "undecodable provider response"}
	}
	if tok.AccessToken == "" {
		return nil, &Error{Code: failCode, Message: "provider response missing access token"}
	}

	grant := &Grant{
		Token: &oauth2.Token{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			TokenType:    tok.TokenType,
			Expiry:       expiryOrDefault(tok.ExpiresIn),
		},
	}
	if tok.User.ID != "" {
		grant.User = &User{
			ID:       tok.User.ID,
			Email:    tok.User.Email,
			FullName: tok.User.UserMetadata.FullName,
			OrgName:  tok.User.UserMetadata.OrgName,
		}
	}
	return grant, nil
}
