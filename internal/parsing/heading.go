// Package parsing recovers a structured profile from free-form resume text.
//
// The primary path is a model-produced JSON document; everything in this package
// is deterministic and is used both to normalize that document and to rebuild a
// profile from the raw text when the primary output is unusable.
package parsing

import (
	"regexp"
	"strings"
)

var (
	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	toPattern   = regexp.MustCompile(`(?i)\bto\b`)
)

const (
	roleSeparator = " | "
	enDash        = "–"
)

// IsHeading reports whether a line looks like the head of an entry: a role,
// school or project line rather than a bullet underneath it.
//
// A line qualifies when it contains a year between 1900 and 2099 as a whole
// word, the " | " separator, the word "to" in any case, or an en-dash.
func IsHeading(line string) bool {
	return yearPattern.MatchString(line) ||
		strings.Contains(line, roleSeparator) ||
		toPattern.MatchString(line) ||
		strings.Contains(line, enDash)
}

// isBullet reports whether a trimmed line starts with a list marker.
func isBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•")
}

// stripBullet removes leading list markers and surrounding whitespace.
func stripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-• "))
}
