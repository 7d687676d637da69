package dispatch

import (
	"github.com/xilef-bot/evalbot/internal/pager"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

// Render paginates a result into the expression, stdout and stderr groups,
// in that order. The expression group is left out only when the value is
// undefined or null and something was written to either channel.
func Render(res *sandbox.Result, budget int) []pager.Page {
	var pages []pager.Page

	wrote := len(res.Stdout) > 0 || len(res.Stderr) > 0
	if !res.Undefined || !wrote {
		pages = append(pages, pager.Group(TitleExpression, pager.SplitLines(res.Text), budget)...)
	}
	if len(res.Stdout) > 0 {
		pages = append(pages, pager.Group(TitleStdout, pager.JoinChunks(res.Stdout), budget)...)
	}
	if len(res.Stderr) > 0 {
		pages = append(pages, pager.Group(TitleStderr, pager.JoinChunks(res.Stderr), budget)...)
	}
	return pages
}

// Fenced wraps a page body in a js code fence for markdown transports.
func Fenced(p pager.Page) string {
	return "```js\n" + p.Text() + "\n```"
}

// FencedFailure wraps a failure message in a plain code fence.
func FencedFailure(f *Failure) string {
	return "```\n" + f.Message + "\n```"
}
