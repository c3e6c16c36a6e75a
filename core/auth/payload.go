package auth

import (
	"bytes"
	"encoding/json"
	"strings"
)

var (
	passwordMarkers = []string{
		"incorrect password",
		"invalid password",
		"wrong password",
	}
	identifierMarkers = []string{
		"incorrect username",
		"incorrect email",
		"user not found",
		"no account",
		"invalid username",
		"invalid email",
	}
)

// decodeObject parses body as a JSON object. Anything else yields nil.
func decodeObject(body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	return m
}

// messages collects the error-ish strings a backend may embed in a body.
func messages(body []byte) []string {
	m := decodeObject(body)
	if m == nil {
		if s := strings.TrimSpace(string(body)); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	for _, k := range []string{"message", "error", "msg", "detail"} {
		if s := str(m, k); s != "" {
			out = append(out, s)
		}
	}
	if e := obj(m, "error"); e != nil {
		if s := str(e, "message"); s != "" {
			out = append(out, s)
		}
	}
	if list, ok := m["errors"].([]any); ok && len(list) > 0 {
		switch first := list[0].(type) {
		case map[string]any:
			if s := str(first, "message", "msg"); s != "" {
				out = append(out, s)
			}
		case string:
			out = append(out, first)
		}
	}
	return out
}

// credentialError turns an embedded "incorrect password" or "incorrect
// username/email" message into a typed error. nil means no such message.
func credentialError(body []byte) *CredentialError {
	for _, msg := range messages(body) {
		lower := strings.ToLower(msg)
		if containsAny(lower, passwordMarkers) {
			return &CredentialError{Kind: KindPassword, Message: MessageIncorrectPassword}
		}
		if containsAny(lower, identifierMarkers) {
			return &CredentialError{Kind: KindIdentifier, Message: MessageIncorrectIdentifier}
		}
	}
	return nil
}

// extractToken returns the issued bearer token, checking
// token, accessToken, access_token, jwt, then the same under data.
func extractToken(m map[string]any) string {
	keys := []string{"token", "accessToken", "access_token", "jwt"}
	if tok := str(m, keys...); tok != "" {
		return tok
	}
	if data := obj(m, "data"); data != nil {
		return str(data, keys[:3]...)
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
