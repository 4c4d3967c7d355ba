package text

import "strings"

// NewlinePlaceholder is the two-character sequence the sample text source uses
// in place of a line break.
const NewlinePlaceholder = `\n`

// Sanitize replaces every newline placeholder with a real newline.
// The output contains no placeholders, so Sanitize is idempotent.
func Sanitize(raw string) string {
	if !strings.Contains(raw, NewlinePlaceholder) {
		return raw
	}
	return strings.ReplaceAll(raw, NewlinePlaceholder, "\n")
}
