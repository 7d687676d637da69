package dispatch

import (
	"regexp"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

// The body is greedy so a script may itself contain fences.
var codeBlockRe = regexp.MustCompile("(?is)```(?:js|javascript)\n(.*)\n```")

const (
	parseReason = "could not parse the code supplied."
	parseHint   = "you may have put a plain text instead of a javascript tagged code-block (see `/help`)."
)

// ExtractCodeBlock returns the body of the js or javascript fenced block in
// content.
func ExtractCodeBlock(content string) (string, error) {
	m := codeBlockRe.FindStringSubmatch(content)
	if m == nil {
		return "", &evalerr.ParseError{Reason: parseReason, Hint: parseHint}
	}
	return m[1], nil
}
