package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode discriminates provider failures. The classification happens once
// here, at the client boundary; callers branch on the code and never re-match
// message strings.
type ErrorCode string

const (
	// CodeRejected is an explicit rejection the provider attached to the
	// redirect (error/error_description query parameters).
	CodeRejected ErrorCode = "provider_rejected"

	// CodeMissingVerifier means a code exchange failed because the PKCE
	// verifier is not present in this context, e.g. the link was opened in a
	// different browser than where it was requested.
	CodeMissingVerifier ErrorCode = "missing_verifier"

	// CodeExchangeFailed is any other rejected code or token exchange.
	CodeExchangeFailed ErrorCode = "exchange_failed"

	// CodeVerifyFailed is a rejected one-time token verification.
	CodeVerifyFailed ErrorCode = "verify_failed"

	// CodeUnavailable is a transport-level failure reaching the provider.
	CodeUnavailable ErrorCode = "unavailable"
)

// Error is a provider failure with its boundary-decided code.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the ErrorCode carried by err, or empty when err is not a
// provider error.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// classifyExchange turns a raw exchange rejection into a discriminated
// error. The verifier heuristic lives here and nowhere else.
func classifyExchange(message string) *Error {
	if strings.Contains(message, "code verifier") || strings.Contains(message, "PKCE") {
		return &Error{Code: CodeMissingVerifier, Message: message}
	}
	return &Error{Code: CodeExchangeFailed, Message: message}
}
