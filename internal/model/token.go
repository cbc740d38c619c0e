package model

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidToken is returned when a version token cannot be parsed
var ErrInvalidToken = errors.New("invalid version token")

// VersionToken is an opaque value captured on read and handed back on write.
// Callers may only compare tokens.
type VersionToken struct {
	raw string
}

// RevisionToken builds a token from a backend revision number
func RevisionToken(rev uint64) VersionToken {
	return VersionToken{raw: strconv.FormatUint(rev, 10)}
}

// ParseVersionToken parses the string form produced by String.
// Surrounding quotes (as in an HTTP ETag) are accepted.
func ParseVersionToken(s string) (VersionToken, error) {
	s = strings.TrimPrefix(s, "W/")
	s = strings.Trim(s, `"`)
	if s == "" {
		return VersionToken{}, ErrInvalidToken
	}
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return VersionToken{}, ErrInvalidToken
	}
	return VersionToken{raw: s}, nil
}

// Revision returns the backend revision encoded in the token
func (t VersionToken) Revision() (uint64, error) {
	rev, err := strconv.ParseUint(t.raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return rev, nil
}

// String returns the token's portable form
func (t VersionToken) String() string {
	return t.raw
}

// IsZero reports whether the token is unset
func (t VersionToken) IsZero() bool {
	return t.raw == ""
}

// Equal reports whether two tokens identify the same stored version
func (t VersionToken) Equal(other VersionToken) bool {
	return t.raw == other.raw
}
