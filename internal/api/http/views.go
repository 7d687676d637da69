package http

import (
	"github.com/xilef-bot/evalbot/internal/dispatch"
)

type pageView struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

type reportView struct {
	ID         string            `json:"id"`
	State      dispatch.State    `json:"state"`
	Pages      []pageView        `json:"pages,omitempty"`
	Error      *dispatch.Failure `json:"error,omitempty"`
	Sent       []string          `json:"sent,omitempty"`
	DurationMS float64           `json:"duration_ms"`
}

func newReportView(r *dispatch.Report) reportView {
	view := reportView{
		ID:         r.ID,
		State:      r.State,
		Error:      r.Failure,
		Sent:       r.Sent,
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
	}
	for _, p := range r.Pages {
		view.Pages = append(view.Pages, pageView{Title: p.Title, Body: dispatch.Fenced(p)})
	}
	return view
}
