package project

import (
	"strings"
)

// DefaultName is used when nothing of the directory name survives
// normalization.
const DefaultName = "default"

// NormalizeName converts a directory name to a compose-compatible project
// name, the way compose derives one when the file sets no `name:`.
func NormalizeName(name string) string {
	// Compose project names: [a-z0-9][a-z0-9_-]*
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}
	if b.Len() == 0 {
		return DefaultName
	}
	return b.String()
}
