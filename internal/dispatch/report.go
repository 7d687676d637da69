package dispatch

import (
	"time"

	"github.com/xilef-bot/evalbot/internal/evalerr"
	"github.com/xilef-bot/evalbot/internal/pager"
)

// Group titles and the failure title shown to the operator.
const (
	TitleExpression = "expression"
	TitleStdout     = "stdout"
	TitleStderr     = "stderr"
	FailureTitle    = "error - debug"
)

// State is a step of one invocation.
type State string

const (
	StateParsingDirectives State = "parsing_directives"
	StateEvaluating        State = "evaluating"
	StateCapturing         State = "capturing"
	StatePaginating        State = "paginating"
	StateReporting         State = "reporting"
	StateReportedSuccess   State = "reported_success"
	StateReportedFailure   State = "reported_failure"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateReportedSuccess || s == StateReportedFailure
}

// Message is the chat message that triggered an invocation.
type Message struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	ChannelID string `json:"channel"`
	Content   string `json:"content"`
}

// Request is one invocation of already extracted script text.
type Request struct {
	// ID identifies the invocation; a random one is assigned when empty.
	ID      string
	Source  string
	Message Message
}

// Failure describes why an invocation was aborted.
type Failure struct {
	Kind    evalerr.Kind `json:"kind"`
	Message string       `json:"message"`
}

// Report is the outcome of an invocation. Exactly one of Pages and Failure
// is populated.
type Report struct {
	ID       string        `json:"id"`
	State    State         `json:"state"`
	Pages    []pager.Page  `json:"pages,omitempty"`
	Failure  *Failure      `json:"error,omitempty"`
	Sent     []string      `json:"sent,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the invocation produced pages.
func (r *Report) Succeeded() bool {
	return r.State == StateReportedSuccess
}

// Outcome labels the report for metrics and logs.
func (r *Report) Outcome() string {
	if r.Succeeded() {
		return "success"
	}
	return "failure"
}

// Recorder observes dispatcher progress.
type Recorder interface {
	Started()
	Transition(state string)
	Finished(outcome, kind string, pages int, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Started()                                    {}
func (nopRecorder) Transition(string)                           {}
func (nopRecorder) Finished(string, string, int, time.Duration) {}
