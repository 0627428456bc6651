package session

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// The cookie value is a base64-encoded JSON array. Only the first two slots
// carry data; the trailing nulls are reserved slots of the provider's cookie
// format and are preserved for compatibility, not stripped.
const reservedSlots = 3

// Encode serializes a session into the provider's cookie wire form:
// base64(JSON [accessToken, refreshToken, null, null, null]). Deterministic:
// the same session always yields the same bytes.
func Encode(s Session) string {
	arr := make([]interface{}, 2+reservedSlots)
	arr[0] = s.AccessToken
	arr[1] = s.RefreshToken
	raw, _ := json.Marshal(arr) // strings and nils cannot fail to marshal
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode is the inverse of Encode. It never fails loudly: any value that is
// not valid base64, not valid JSON, or not an array of at least two strings
// decodes to absent (ok == false). A present-but-empty refresh token also
// decodes to absent, because a session without one cannot be restored.
func Decode(value string) (Session, bool) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return Session{}, false
	}

	var arr []interface{}
	if err := json.Unmarshal(raw, &arr); err != nil {
		return Session{}, false
	}
	if len(arr) < 2 {
		return Session{}, false
	}

	access, ok := arr[0].(string)
	if !ok {
		return Session{}, false
	}
	refresh, ok := arr[1].(string)
	if !ok {
		return Session{}, false
	}

	s := Session{AccessToken: access, RefreshToken: refresh}
	if !s.Restorable() {
		return Session{}, false
	}
	return s, true
}

// objectForm is the plain-JSON cookie shape some dashboard versions wrote.
type objectForm struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// DecodeAny probes every cookie format a dashboard has historically written:
// URL-encoded JSON object, plain JSON object, then the canonical base64
// array. Like Decode it returns absent rather than an error on junk input.
func DecodeAny(value string) (Session, bool) {
	if unescaped, err := url.QueryUnescape(value); err == nil && strings.HasPrefix(unescaped, "{") {
		if s, ok := decodeObject(unescaped); ok {
			return s, true
		}
	}
	if strings.HasPrefix(value, "{") {
		if s, ok := decodeObject(value); ok {
			return s, true
		}
	}
	return Decode(value)
}

func decodeObject(raw string) (Session, bool) {
	var obj objectForm
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return Session{}, false
	}
	s := Session{AccessToken: obj.AccessToken, RefreshToken: obj.RefreshToken}
	if !s.Restorable() {
		return Session{}, false
	}
	if obj.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(obj.ExpiresAt, 0)
	}
	return s, true
}
