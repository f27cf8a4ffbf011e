// internal/classifier/clean.go
package classifier

import (
	"regexp"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{.*?\}\}`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// CleanText normalizes a raw message the same way the classifier's
// training pipeline did: placeholders like {{Order Number}} are removed,
// the text is lowercased, and runs of whitespace collapse to one space.
// Sentiment analysis must see the raw message, not this output.
func CleanText(text string) string {
	cleaned := placeholderRe.ReplaceAllString(text, "")
	cleaned = strings.ToLower(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	return cleaned
}
