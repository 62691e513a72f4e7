package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var plainPolicy = bluemonday.StrictPolicy()

// SanitizePlain strips every tag and trims surrounding whitespace; used for titles and names.
// The result is plain text, so entities the policy escapes are decoded again.
func SanitizePlain(input string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(input)))
}
