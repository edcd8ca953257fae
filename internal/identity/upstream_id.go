package identity

import (
	"encoding/json"
	"strconv"
	"strings"
)

type upstreamKind int

const (
	kindNull upstreamKind = iota
	kindString
	kindNumber
)

// UpstreamID is the backend-meaningful form of a product identifier. The
// marketplace accepts either Mongo-style 24-hex document ids or legacy
// numeric ids; composite ids built on top of either must be reduced before
// they cross the wire. It marshals to a JSON string, number, or null.
type UpstreamID struct {
	kind upstreamKind
	str  string
	num  int64
}

// NullUpstreamID is the absent identifier; it must never be sent upstream.
var NullUpstreamID = UpstreamID{}

// StringID builds a string-form upstream id. Used by tests and fixtures.
func StringID(s string) UpstreamID {
	return UpstreamID{kind: kindString, str: s}
}

// NumberID builds a numeric-form upstream id.
func NumberID(n int64) UpstreamID {
	return UpstreamID{kind: kindNumber, num: n}
}

// NormalizeUpstreamID extracts the backend-meaningful id from a raw value,
// which may be a bare document id, a legacy numeric id, or a composite id
// built on either.
func NormalizeUpstreamID(value string) UpstreamID {
	trimmed := strings.TrimSpace(value)
	switch trimmed {
	case "", "undefined", "null":
		return NullUpstreamID
	}

	if isHex24(trimmed) {
		return UpstreamID{kind: kindString, str: trimmed}
	}
	if len(trimmed) > 24 && isHex24(trimmed[:24]) && trimmed[24] == fieldDelimiter {
		return UpstreamID{kind: kindString, str: trimmed[:24]}
	}

	if digitsOnly(trimmed) {
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return UpstreamID{kind: kindNumber, num: n}
		}
		return UpstreamID{kind: kindString, str: trimmed}
	}
	if i := strings.IndexByte(trimmed, fieldDelimiter); i > 0 && digitsOnly(trimmed[:i]) {
		if n, err := strconv.ParseInt(trimmed[:i], 10, 64); err == nil {
			return UpstreamID{kind: kindNumber, num: n}
		}
		return UpstreamID{kind: kindString, str: trimmed[:i]}
	}

	// Best-effort passthrough; the upstream decides whether it means anything.
	return UpstreamID{kind: kindString, str: trimmed}
}

// IsNull reports whether the id carries no usable identity.
func (id UpstreamID) IsNull() bool {
	return id.kind == kindNull
}

// String renders the id for URL paths and log fields. Null renders empty.
func (id UpstreamID) String() string {
	switch id.kind {
	case kindString:
		return id.str
	case kindNumber:
		return strconv.FormatInt(id.num, 10)
	}
	return ""
}

// MarshalJSON emits a string, a number, or null to match what the
// marketplace expects for each id form.
func (id UpstreamID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case kindString:
		return json.Marshal(id.str)
	case kindNumber:
		return json.Marshal(id.num)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts the string, number, or null forms the marketplace
// returns in snapshots. String forms are normalized on the way in.
func (id *UpstreamID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = NullUpstreamID
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NormalizeUpstreamID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = NumberID(i)
		return nil
	}
	*id = StringID(n.String())
	return nil
}
