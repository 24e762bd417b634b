package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Free text in this portal is rendered back to admins; no markup is kept.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML tags from input and trims surrounding space. The result is
// plain text: entities the policy escapes are decoded again, so "O'Brien & Co"
// is stored as typed and escaping is left to whoever renders it.
func Sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}
