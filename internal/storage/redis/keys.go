package redis

import (
	"fmt"
	"strings"
)

// Hash fields of a stored document
const (
	docField = "doc"
	revField = "rev"
)

// revisionKey returns the Redis key of the counter that issues revisions
func revisionKey(namespace string) string {
	return fmt.Sprintf("%s::revision", namespace)
}

// globEscaper escapes SCAN MATCH metacharacters
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// prefixPattern returns a SCAN MATCH pattern for every key starting with prefix
func prefixPattern(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}
