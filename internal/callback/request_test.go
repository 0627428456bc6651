package callback

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestClassification(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		expected Request
	}{
		{
			name:   "provider rejection",
			rawURL: "https://app.squareft.ai/auth/callback?error=access_denied&error_description=Link+expired",
			expected: Request{
				Flow:                     FlowNone,
				Purpose:                  PurposeUnspecified,
				ProviderError:            "access_denied",
				ProviderErrorDescription: "Link expired",
			},
		},
		{
			name:   "pkce recovery",
			rawURL: "https://app.squareft.ai/auth/callback?code=abc&type=recovery",
			expected: Request{
				Flow:    FlowPKCE,
				Purpose: PurposeRecovery,
				Code:    "abc",
			},
		},
		{
			name:   "otp signup",
			rawURL: "https://app.squareft.ai/auth/callback?token_hash=h1&type=signup",
			expected: Request{
				Flow:      FlowOTP,
				Purpose:   PurposeSignup,
				TokenHash: "h1",
			},
		},
		{
			name:   "otp email alias",
			rawURL: "https://app.squareft.ai/auth/callback?token_hash=h2&type=email",
			expected: Request{
				Flow:      FlowOTP,
				Purpose:   PurposeSignup,
				TokenHash: "h2",
			},
		},
		{
			name:   "token_hash without type is not otp",
			rawURL: "https://app.squareft.ai/auth/callback?token_hash=h3",
			expected: Request{
				Flow:      FlowNone,
				Purpose:   PurposeUnspecified,
				TokenHash: "h3",
			},
		},
		{
			name:   "implicit magiclink from fragment",
			rawURL: "https://app.squareft.ai/auth/callback#access_token=at&refresh_token=rt&type=magiclink",
			expected: Request{
				Flow:         FlowImplicit,
				Purpose:      PurposeMagicLink,
				AccessToken:  "at",
				RefreshToken: "rt",
			},
		},
		{
			name:   "fragment purpose wins over query purpose",
			rawURL: "https://app.squareft.ai/auth/callback?code=abc&type=signup#type=recovery",
			expected: Request{
				Flow:    FlowPKCE,
				Purpose: PurposeRecovery,
				Code:    "abc",
			},
		},
		{
			name:   "bare callback",
			rawURL: "https://app.squareft.ai/auth/callback",
			expected: Request{
				Flow:    FlowNone,
				Purpose: PurposeUnspecified,
			},
		},
		{
			name:   "unknown type maps to unspecified",
			rawURL: "https://app.squareft.ai/auth/callback?code=abc&type=mystery",
			expected: Request{
				Flow:    FlowPKCE,
				Purpose: PurposeUnspecified,
				Code:    "abc",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequestURL(tt.rawURL)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRequestOTPPrecedesPKCE(t *testing.T) {
	// A link carrying both token_hash and code verifies the hash; it never
	// attempts an exchange it has no verifier for.
	query := url.Values{"token_hash": {"h"}, "type": {"signup"}, "code": {"c"}}
	req := ParseRequest(query, url.Values{})
	assert.Equal(t, FlowOTP, req.Flow)
}

func TestParseRequestURLMalformedFragment(t *testing.T) {
	// A mangled fragment must degrade to an empty set, not reject a link
	// whose query side still carries usable credentials.
	req, err := ParseRequestURL("https://app.squareft.ai/auth/callback?code=abc#%zz")
	require.NoError(t, err)
	assert.Equal(t, FlowPKCE, req.Flow)
	assert.Equal(t, "abc", req.Code)

	req, err = ParseRequestURL("https://app.squareft.ai/auth/callback?token_hash=h1&type=recovery#%%bad")
	require.NoError(t, err)
	assert.Equal(t, FlowOTP, req.Flow)
	assert.Equal(t, PurposeRecovery, req.Purpose)
}
