package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
	}{
		{name: "plain tokens", access: "at-123", refresh: "rt-456"},
		{name: "jwt-shaped tokens", access: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1In0.sig", refresh: "v2.refresh"},
		{name: "tokens with separators", access: "a.b.c|d", refresh: "x/y+z="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(Session{AccessToken: tt.access, RefreshToken: tt.refresh})

			decoded, ok := Decode(encoded)
			require.True(t, ok)
			assert.Equal(t, tt.access, decoded.AccessToken)
			assert.Equal(t, tt.refresh, decoded.RefreshToken)
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	s := Session{AccessToken: "at", RefreshToken: "rt"}
	assert.Equal(t, Encode(s), Encode(s))
}

func TestEncodePreservesReservedSlots(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(Encode(Session{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","r",null,null,null]`, string(raw))
}

func TestDecodeMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not base64", value: "%%%not-base64%%%"},
		{name: "base64 but not json", value: base64.StdEncoding.EncodeToString([]byte("hello world"))},
		{name: "json but not an array", value: base64.StdEncoding.EncodeToString([]byte(`{"a":1}`))},
		{name: "array too short", value: base64.StdEncoding.EncodeToString([]byte(`["only-one"]`))},
		{name: "array with non-string slots", value: base64.StdEncoding.EncodeToString([]byte(`[1,2,null]`))},
		{name: "empty string", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Decode(tt.value)
			assert.False(t, ok)
		})
	}
}

func TestDecodeEmptyRefreshTokenIsAbsent(t *testing.T) {
	encoded := Encode(Session{AccessToken: "at", RefreshToken: ""})
	_, ok := Decode(encoded)
	assert.False(t, ok, "a session without a refresh token must not decode as present")
}

func TestDecodeAnyObjectForms(t *testing.T) {
	plain := `{"access_token":"at-1","refresh_token":"rt-1","expires_at":1757000000}`

	s, ok := DecodeAny(plain)
	require.True(t, ok)
	assert.Equal(t, "at-1", s.AccessToken)
	assert.Equal(t, "rt-1", s.RefreshToken)
	assert.Equal(t, time.Unix(1757000000, 0), s.ExpiresAt)

	urlEncoded := "%7B%22access_token%22%3A%22at-2%22%2C%22refresh_token%22%3A%22rt-2%22%7D"
	s, ok = DecodeAny(urlEncoded)
	require.True(t, ok)
	assert.Equal(t, "at-2", s.AccessToken)
	assert.Equal(t, "rt-2", s.RefreshToken)

	array := Encode(Session{AccessToken: "at-3", RefreshToken: "rt-3"})
	s, ok = DecodeAny(array)
	require.True(t, ok)
	assert.Equal(t, "at-3", s.AccessToken)

	_, ok = DecodeAny(`{"access_token":"at-only"}`)
	assert.False(t, ok)
}

func TestRestorable(t *testing.T) {
	assert.True(t, Session{AccessToken: "a", RefreshToken: "r"}.Restorable())
	assert.False(t, Session{AccessToken: "a"}.Restorable())
	assert.False(t, Session{RefreshToken: "r"}.Restorable())
	assert.False(t, Session{}.Restorable())
}
