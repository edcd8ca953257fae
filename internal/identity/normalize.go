// Package identity derives the identifiers the gateway lives on: the
// backend's base product id, the upstream-safe id sent over the wire, and
// the client-side composite id that keeps variant cart lines apart.
package identity

import "strings"

// fieldDelimiter separates the segments of a composite id.
const fieldDelimiter = '|'

// NormalizeBaseID reduces any raw identifier (including a composite id) to
// the backend's base product id. The result is empty when the input carries
// no usable identity, including the literal "undefined"/"null" strings that
// leak out of loosely-typed clients.
func NormalizeBaseID(value string) string {
	trimmed := strings.TrimSpace(value)
	if i := strings.IndexByte(trimmed, fieldDelimiter); i >= 0 {
		trimmed = strings.TrimSpace(trimmed[:i])
	}
	switch trimmed {
	case "", "undefined", "null":
		return ""
	}
	return trimmed
}

func isHex24(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
