// Package pager splits text into line-atomic pages that fit a transport unit.
package pager

import "strings"

// DefaultBudget keeps a page plus its code fence under a 4096 character
// message ceiling.
const DefaultBudget = 3950

// Page is a run of whole lines whose encoded size fits the budget, unless a
// single line alone is larger.
type Page struct {
	// Title is set on the first page of a group only.
	Title string   `json:"title,omitempty"`
	Lines []string `json:"lines"`
}

// Text renders the page, each line terminated by a newline.
func (p Page) Text() string {
	var sb strings.Builder
	sb.Grow(p.Size())
	for _, line := range p.Lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Size is the byte length of Text.
func (p Page) Size() int {
	n := 0
	for _, line := range p.Lines {
		n += lineSize(line)
	}
	return n
}

// Paginate packs lines into pages of at most budget bytes. The result always
// holds at least one page, so an empty input yields a single empty page.
// A non-positive budget selects DefaultBudget.
func Paginate(lines []string, budget int) []Page {
	if budget <= 0 {
		budget = DefaultBudget
	}

	var pages []Page
	var current []string
	size := 0
	for _, line := range lines {
		n := lineSize(line)
		if len(current) > 0 && size+n > budget {
			pages = append(pages, Page{Lines: current})
			current, size = nil, 0
		}
		current = append(current, line)
		size += n
	}
	if current == nil {
		current = []string{}
	}
	return append(pages, Page{Lines: current})
}

// Group paginates lines and titles the first page.
func Group(title string, lines []string, budget int) []Page {
	pages := Paginate(lines, budget)
	pages[0].Title = title
	return pages
}

// SplitLines breaks text on "\n". An empty string is one empty line.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// JoinChunks concatenates captured write chunks and splits the result into
// lines, dropping the newline that terminates the final write.
func JoinChunks(chunks []string) []string {
	text := strings.Join(chunks, "")
	text = strings.TrimSuffix(text, "\n")
	return SplitLines(text)
}

func lineSize(line string) int {
	return len(line) + 1
}
