// Package sanitize provides functions for sanitizing names for safe filesystem use.
package sanitize

import "strings"

// Name converts source names, container names and remote file names into a
// single safe path element. Characters outside [A-Za-z0-9._-] become "_",
// leading dots are dropped so the result is never hidden or a parent reference.
func Name(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	safe := strings.TrimLeft(b.String(), ".")
	if safe == "" {
		return "unnamed"
	}
	return safe
}
