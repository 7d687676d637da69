package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xilef-bot/evalbot/internal/evalerr"
	"github.com/xilef-bot/evalbot/internal/pager"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

func TestExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "js", content: "```js\n1 + 1\n```", want: "1 + 1"},
		{name: "upper case tag", content: "```JS\nx\n```", want: "x"},
		{name: "javascript", content: "run this ```javascript\na\nb\n``` please", want: "a\nb"},
		{name: "greedy", content: "```js\na\n```\ntext\n```js\nb\n```", want: "a\n```\ntext\n```js\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractCodeBlock(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractCodeBlockRejects(t *testing.T) {
	for _, content := range []string{"1 + 1", "```py\nx\n```", "```js x```"} {
		_, err := ExtractCodeBlock(content)
		assert.ErrorIs(t, err, evalerr.ErrParse, content)
	}
}

func TestRenderJoinsChunks(t *testing.T) {
	pages := Render(&sandbox.Result{
		Text:      "undefined",
		Undefined: true,
		Stdout:    []string{"a\n", "b\nc\n"},
	}, 0)

	require.Len(t, pages, 1)
	assert.Equal(t, TitleStdout, pages[0].Title)
	assert.Equal(t, []string{"a", "b", "c"}, pages[0].Lines)
}

func TestRenderMultilineExpression(t *testing.T) {
	pages := Render(&sandbox.Result{Text: "{\n  a: 1\n}"}, 0)

	require.Len(t, pages, 1)
	assert.Equal(t, []string{"{", "  a: 1", "}"}, pages[0].Lines)
}

func TestFenced(t *testing.T) {
	assert.Equal(t, "```js\n5\n\n```", Fenced(pager.Page{Lines: []string{"5"}}))
	assert.Equal(t, "```\nError: x\n```", FencedFailure(&Failure{Message: "Error: x"}))
}
