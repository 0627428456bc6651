// Package callback interprets an inbound authentication redirect and drives
// it through to a concluded session state: classify the link, acquire tokens,
// provision a first-run profile, decide where to send the user.
package callback

import (
	"net/url"
	"strings"
)

// FlowType is the shape of the auth link: which token-acquisition step it
// requires.
type FlowType string

const (
	// FlowPKCE is an authorization-code exchange requiring a locally held
	// verifier generated at link-request time.
	FlowPKCE FlowType = "pkce"

	// FlowImplicit is the legacy shape with tokens delivered directly in the
	// URL fragment.
	FlowImplicit FlowType = "implicit"

	// FlowOTP is a one-time verification token exchanged directly for
	// confirmation of an action.
	FlowOTP FlowType = "otp"

	// FlowNone means the link carries no recognizable credentials.
	FlowNone FlowType = "none"
)

// Purpose is why the auth link was issued.
type Purpose string

const (
	PurposeSignup      Purpose = "signup"
	PurposeRecovery    Purpose = "recovery"
	PurposeMagicLink   Purpose = "magiclink"
	PurposeInvite      Purpose = "invite"
	PurposeEmailChange Purpose = "email_change"
	PurposeUnspecified Purpose = "unspecified"
)

// Request is the parsed redirect. It is derived once per callback invocation
// and never mutated afterward; the machine treats it as an immutable input
// record.
type Request struct {
	Flow    FlowType
	Purpose Purpose

	Code         string
	TokenHash    string
	AccessToken  string
	RefreshToken string

	ProviderError            string
	ProviderErrorDescription string
}

// ParseRequest classifies a redirect from its query and fragment parameters.
// Different flows deliver the purpose in different places, so both are
// checked, with the fragment taking precedence when both carry one.
func ParseRequest(query, fragment url.Values) Request {
	req := Request{
		Code:                     query.Get("code"),
		TokenHash:                query.Get("token_hash"),
		AccessToken:              fragment.Get("access_token"),
		RefreshToken:             fragment.Get("refresh_token"),
		ProviderError:            query.Get("error"),
		ProviderErrorDescription: query.Get("error_description"),
	}

	rawType := fragment.Get("type")
	if rawType == "" {
		rawType = query.Get("type")
	}
	req.Purpose = normalizePurpose(rawType)

	switch {
	case req.TokenHash != "" && rawType != "":
		req.Flow = FlowOTP
	case req.Code != "":
		req.Flow = FlowPKCE
	case req.AccessToken != "":
		req.Flow = FlowImplicit
	default:
		req.Flow = FlowNone
	}

	return req
}

// ParseRequestURL parses a full redirect URL, fragment included. Malformed
// fragments degrade to an empty set rather than failing the callback, so the
// fragment is split off before the URL parse gets a chance to reject it.
func ParseRequestURL(raw string) (Request, error) {
	base, rawFragment, _ := strings.Cut(raw, "#")
	u, err := url.Parse(base)
	if err != nil {
		return Request{}, err
	}
	fragment, err := url.ParseQuery(rawFragment)
	if err != nil {
		fragment = url.Values{}
	}
	return ParseRequest(u.Query(), fragment), nil
}

func normalizePurpose(rawType string) Purpose {
	switch rawType {
	case "signup", "email":
		// Older confirmation links use type=email for the same flow.
		return PurposeSignup
	case "recovery":
		return PurposeRecovery
	case "magiclink":
		return PurposeMagicLink
	case "invite":
		return PurposeInvite
	case "email_change":
		return PurposeEmailChange
	default:
		return PurposeUnspecified
	}
}

// otpType maps the normalized purpose back to the provider's verification
// type parameter.
func (r Request) otpType() string {
	return string(r.Purpose)
}
