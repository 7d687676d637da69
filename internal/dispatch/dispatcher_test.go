package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xilef-bot/evalbot/internal/evalerr"
	"github.com/xilef-bot/evalbot/internal/pager"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

func newDispatcher(opts Options) *Dispatcher {
	if opts.Pool == nil {
		opts.Pool = sandbox.NewPool(2, time.Second)
	}
	return New(opts)
}

func dispatch(t *testing.T, d *Dispatcher, source string) *Report {
	t.Helper()
	return d.Dispatch(context.Background(), Request{Source: source, Message: Message{Author: "op", ChannelID: "c1"}})
}

func titles(pages []pager.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Title
	}
	return out
}

func TestDispatchGroupsInOrder(t *testing.T) {
	report := dispatch(t, newDispatcher(Options{}), "console.error('err'); console.log('out'); 5")

	require.True(t, report.Succeeded(), "%+v", report.Failure)
	assert.Equal(t, []string{TitleExpression, TitleStdout, TitleStderr}, titles(report.Pages))
	assert.Equal(t, []string{"5"}, report.Pages[0].Lines)
	assert.Equal(t, []string{"out"}, report.Pages[1].Lines)
	assert.Equal(t, []string{"err"}, report.Pages[2].Lines)
	assert.Equal(t, StateReportedSuccess, report.State)
	assert.NotEmpty(t, report.ID)
}

func TestDispatchExpressionSelection(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{name: "undefined with output", source: "console.log('hi')", want: []string{TitleStdout}},
		{name: "null with output", source: "console.warn('w'); null", want: []string{TitleStderr}},
		{name: "undefined without output", source: "undefined", want: []string{TitleExpression}},
		{name: "value with output", source: "console.log('hi'); 0", want: []string{TitleExpression, TitleStdout}},
	}

	d := newDispatcher(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := dispatch(t, d, tt.source)
			require.True(t, report.Succeeded())
			assert.Equal(t, tt.want, titles(report.Pages))
		})
	}
}

func TestDispatchPaginatesWithinBudget(t *testing.T) {
	d := newDispatcher(Options{Budget: 20})
	report := dispatch(t, d, "console.log('x'.repeat(15)); console.log('y'.repeat(15))")

	require.True(t, report.Succeeded())
	require.Len(t, report.Pages, 2)
	assert.Equal(t, TitleStdout, report.Pages[0].Title)
	assert.Empty(t, report.Pages[1].Title)
	for _, p := range report.Pages {
		assert.LessOrEqual(t, p.Size(), 20)
	}
}

func TestDispatchFailures(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		kind    evalerr.Kind
		message string
	}{
		{
			name:    "unknown directive",
			source:  "// #nope\nmessage.channel.send('ran')",
			kind:    evalerr.KindUnknownDirective,
			message: "Error: unknown directive: '#nope'",
		},
		{
			name:    "directive timeout applies before run",
			source:  "// #vmconf timeout 50\nwhile (true) {}",
			kind:    evalerr.KindTimeout,
			message: "Error: Script execution timed out after 50ms",
		},
		{
			name:    "restricted module",
			source:  "require('fs')",
			kind:    evalerr.KindRestrictedModule,
			message: "Error: module 'fs' is restricted",
		},
		{
			name:    "missing module",
			source:  "require('left-pad')",
			kind:    evalerr.KindModuleNotFound,
			message: "Error: module 'left-pad' does not exist",
		},
		{
			name:    "thrown",
			source:  "console.log('partial'); throw new RangeError('no')",
			kind:    evalerr.KindRuntime,
			message: "RangeError: no",
		},
	}

	d := newDispatcher(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := dispatch(t, d, tt.source)

			assert.Equal(t, StateReportedFailure, report.State)
			assert.Empty(t, report.Pages)
			assert.Empty(t, report.Sent)
			require.NotNil(t, report.Failure)
			assert.Equal(t, tt.kind, report.Failure.Kind)
			assert.Equal(t, tt.message, report.Failure.Message)
		})
	}
}

func TestDispatchDebugGlobal(t *testing.T) {
	d := newDispatcher(Options{
		Catalog: func() sandbox.Catalog { return sandbox.Catalog{"ledger": map[string]any{"balance": 3}} },
	})

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "modules", source: "DEBUG.AVAILABLE_MODULES.length", want: "9"},
		{name: "features", source: "// #enable async\nreturn DEBUG.OPTIONAL_FEATURES.async", want: "true"},
		{name: "vm config", source: "// #vmconf timeout 2000\nDEBUG.VM_CONFIG.timeout[0]", want: "'2000'"},
		{name: "custom modules", source: "DEBUG.CUSTOM_MODULES[0]", want: "'ledger'"},
		{name: "capability", source: "require('debug:Ledger').balance", want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := dispatch(t, d, tt.source)
			require.True(t, report.Succeeded(), "%+v", report.Failure)
			assert.Equal(t, []string{tt.want}, report.Pages[0].Lines)
		})
	}
}

func TestDispatchMessageGlobal(t *testing.T) {
	report := dispatch(t, newDispatcher(Options{}), "message.channel.send('hello'); message.author + '@' + message.channelId")

	require.True(t, report.Succeeded())
	assert.Equal(t, []string{"hello"}, report.Sent)
	assert.Equal(t, []string{"'op@c1'"}, report.Pages[0].Lines)
}

func TestDispatchAwaitsDeferredResult(t *testing.T) {
	source := `const { setTimeout } = require('timers');

// #vmconf timeout 2000
// #enable async

return await new Promise((resolve) => {
  setTimeout(() => {
    message.channel.send('Hello, World!');
    resolve('done');
  }, 20);
})`

	report := dispatch(t, newDispatcher(Options{}), source)
	require.True(t, report.Succeeded(), "%+v", report.Failure)
	assert.Equal(t, []string{"'done'"}, report.Pages[0].Lines)
	assert.Equal(t, []string{"Hello, World!"}, report.Sent)
}

func TestDispatchBusy(t *testing.T) {
	pool := sandbox.NewPool(1, 20*time.Millisecond)
	require.NoError(t, pool.Acquire(context.Background()))
	defer pool.Release()

	report := dispatch(t, New(Options{Pool: pool}), "1")
	require.NotNil(t, report.Failure)
	assert.Equal(t, evalerr.KindBusy, report.Failure.Kind)
}

func TestDispatchMessage(t *testing.T) {
	d := newDispatcher(Options{})

	report := d.DispatchMessage(context.Background(), Message{Content: "/debug ```js\n1 + 1\n```"})
	require.True(t, report.Succeeded())
	assert.Equal(t, []string{"2"}, report.Pages[0].Lines)

	report = d.DispatchMessage(context.Background(), Message{Content: "/debug 1 + 1"})
	require.NotNil(t, report.Failure)
	assert.Equal(t, evalerr.KindParse, report.Failure.Kind)
	assert.Contains(t, report.Failure.Message, "hint:")
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Started()                { m.Called() }
func (m *mockRecorder) Transition(state string) { m.Called(state) }
func (m *mockRecorder) Finished(outcome, kind string, pages int, duration time.Duration) {
	m.Called(outcome, kind, pages, duration)
}

func TestDispatchRecordsTransitions(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("Started").Once()
	rec.On("Transition", mock.Anything)
	rec.On("Finished", "success", "", 1, mock.Anything).Once()

	report := dispatch(t, newDispatcher(Options{Recorder: rec}), "1")
	require.True(t, report.Succeeded())

	var states []string
	for _, call := range rec.Calls {
		if call.Method == "Transition" {
			states = append(states, call.Arguments.String(0))
		}
	}
	assert.Equal(t, []string{
		string(StateParsingDirectives),
		string(StateEvaluating),
		string(StateCapturing),
		string(StatePaginating),
		string(StateReporting),
		string(StateReportedSuccess),
	}, states)
	rec.AssertExpectations(t)
}

func TestDispatchRecordsFailureKind(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("Started").Once()
	rec.On("Transition", mock.Anything)
	rec.On("Finished", "failure", string(evalerr.KindUnknownDirective), 0, mock.Anything).Once()

	dispatch(t, newDispatcher(Options{Recorder: rec}), "// #bogus\n1")
	rec.AssertExpectations(t)
}

func TestDispatchInvocationIDFromContext(t *testing.T) {
	d := newDispatcher(Options{})

	ctx := WithInvocationID(context.Background(), "req-1")
	report := d.Dispatch(ctx, Request{Source: "1"})
	assert.Equal(t, "req-1", report.ID)

	report = d.Dispatch(ctx, Request{ID: "explicit", Source: "1"})
	assert.Equal(t, "explicit", report.ID)

	report = d.DispatchMessage(ctx, Message{Content: "no block"})
	assert.Equal(t, "req-1", report.ID)
}
