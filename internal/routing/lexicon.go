// internal/routing/lexicon.go
package routing

import "strings"

// angerKeywords are the frustration markers checked against the raw
// message text. Matching is substring-based on the lowercased message,
// so "!!" and multi-word entries like "fed up" both work.
var angerKeywords = []string{
	"terrible", "horrible", "worst", "useless", "garbage", "pathetic",
	"frustrated", "angry", "furious", "disappointed", "unacceptable",
	"ridiculous", "disgusted", "outraged", "demand", "immediately",
	"never", "always", "!!", "wtf", "damn", "awful", "disgusting",
	"incompetent", "idiots", "stupid", "hate", "fed up",
}

// HasAngerKeywords reports whether the raw message contains any anger
// or frustration keyword. The check runs on the original message, not
// the cleaned text, since placeholders and casing carry signal here.
func HasAngerKeywords(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range angerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
