// Package keypath converts between dotted configuration keys and their
// path segments.
//
// A key such as "database.primary.host" addresses the segments
// ["database", "primary", "host"]. There is no escape sequence for a
// literal "." inside a segment; a dot always separates two segments.
package keypath

import (
	"errors"
	"fmt"
	"strings"
)

// Separator delimits segments in a dotted key.
const Separator = "."

// ErrInvalidKey is returned for keys that are empty or contain an empty
// segment, such as "a..b" or ".a".
var ErrInvalidKey = errors.New("invalid key")

// Split splits key into its segments. It never fails; an empty key yields a
// single empty segment. Use Parse to reject malformed keys.
func Split(key string) []string {
	return strings.Split(key, Separator)
}

// Parse splits key into its segments and rejects keys with empty segments.
func Parse(key string) ([]string, error) {
	segments := Split(key)
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return segments, nil
}

// Valid reports whether key can be parsed.
func Valid(key string) bool {
	_, err := Parse(key)
	return err == nil
}

// Join joins segments into a dotted key. Empty segments are skipped, so an
// empty prefix can be joined without producing a leading separator.
func Join(segments ...string) string {
	var b strings.Builder
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(segment)
	}
	return b.String()
}
