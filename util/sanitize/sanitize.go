// Package sanitize turns untrusted identifiers into safe file names.
package sanitize

import (
	"regexp"
	"strings"
)

const maxFilename = 200

var (
	separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

	// controlRegex matches NUL and other control characters.
	controlRegex = regexp.MustCompile(`[\x00-\x1f\x7f]+`)

	multiDotRegex = regexp.MustCompile(`\.{2,}`)
)

// ForFilename makes a session id usable as a single path element inside the
// sessions directory. Separators and dot runs become underscores so the
// result can never name a parent or sibling directory. Distinct well-formed
// ids (UUIDs) map to themselves.
func ForFilename(id string) string {
	s := separatorReplacer.Replace(id)
	s = controlRegex.ReplaceAllString(s, "_")
	s = multiDotRegex.ReplaceAllString(s, "_")
	if s == "." {
		s = "_"
	}
	if len(s) > maxFilename {
		s = s[:maxFilename]
	}
	return s
}
