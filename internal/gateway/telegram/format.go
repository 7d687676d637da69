package telegram

import (
	"html"
	"sort"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/xilef-bot/evalbot/internal/dispatch"
	"github.com/xilef-bot/evalbot/internal/pager"
)

// messageLimit is the longest text the bot API accepts, in characters.
const messageLimit = 4096

// restoreFences turns pre entities back into fenced code blocks. Clients
// strip the fence and keep its language tag on the entity. Offsets count
// UTF-16 code units.
func restoreFences(text string, entities []tgbotapi.MessageEntity) string {
	var pres []tgbotapi.MessageEntity
	for _, e := range entities {
		if e.Type == "pre" {
			pres = append(pres, e)
		}
	}
	if len(pres) == 0 {
		return text
	}
	sort.Slice(pres, func(i, j int) bool { return pres[i].Offset < pres[j].Offset })

	units := utf16.Encode([]rune(text))
	var sb strings.Builder
	pos := 0
	for _, e := range pres {
		start, end := e.Offset, e.Offset+e.Length
		if start < pos || end > len(units) {
			continue
		}
		sb.WriteString(string(utf16.Decode(units[pos:start])))
		sb.WriteString("```" + e.Language + "\n")
		sb.WriteString(string(utf16.Decode(units[start:end])))
		sb.WriteString("\n```")
		pos = end
	}
	sb.WriteString(string(utf16.Decode(units[pos:])))
	return sb.String()
}

// pageHTML renders one report page as an HTML message, cutting a body
// too long for a single message.
func pageHTML(p pager.Page) string {
	var sb strings.Builder
	room := messageLimit - 1
	if p.Title != "" {
		sb.WriteString("<b>" + html.EscapeString(p.Title) + "</b>\n")
		room -= len(p.Title) + 1
	}
	sb.WriteString(`<pre><code class="language-js">`)
	sb.WriteString(html.EscapeString(truncate(strings.TrimSuffix(p.Text(), "\n"), room)))
	sb.WriteString("</code></pre>")
	return sb.String()
}

// failureHTML renders a failure report as a single HTML message. The limit
// applies to the text after entity parsing, so only the raw body counts.
func failureHTML(f *dispatch.Failure) string {
	body := truncate(f.Message, messageLimit-len(dispatch.FailureTitle)-2)
	return "<b>" + html.EscapeString(dispatch.FailureTitle) + "</b>\n<pre>" + html.EscapeString(body) + "</pre>"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func helpHTML() string {
	return "<pre>" + html.EscapeString(dispatch.Help) + "</pre>"
}
