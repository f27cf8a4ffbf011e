// internal/generation/clean.go
package generation

import (
	"regexp"
	"strings"
)

// Models occasionally leak chain-of-thought wrapped in pseudo-XML tags.
// Those blocks are stripped wholesale before the response reaches a
// customer.
var internalTagREs = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think>.*?</think>`),
	regexp.MustCompile(`(?is)<reasoning>.*?</reasoning>`),
	regexp.MustCompile(`(?is)<thought>.*?</thought>`),
	regexp.MustCompile(`(?is)<internal>.*?</internal>`),
}

var excessNewlinesRe = regexp.MustCompile(`\n\s*\n\s*\n+`)

// CleanResponse strips internal reasoning tags and collapses runs of
// blank lines to at most one.
func CleanResponse(response string) string {
	for _, re := range internalTagREs {
		response = re.ReplaceAllString(response, "")
	}
	response = excessNewlinesRe.ReplaceAllString(response, "\n\n")
	return strings.TrimSpace(response)
}
