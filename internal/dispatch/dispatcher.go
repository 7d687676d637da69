package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xilef-bot/evalbot/internal/directive"
	"github.com/xilef-bot/evalbot/internal/evalerr"
	"github.com/xilef-bot/evalbot/internal/infrastructure/logging"
	"github.com/xilef-bot/evalbot/internal/pager"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

// Options wires a Dispatcher. Zero fields fall back to defaults.
type Options struct {
	Directives *directive.Registry
	Pool       *sandbox.Pool
	// Sandbox holds the base options; directives may override the timeout
	// and switch on the async wrapper per invocation.
	Sandbox sandbox.Options
	// Catalog is called once per invocation for a fresh capability snapshot.
	Catalog  func() sandbox.Catalog
	Budget   int
	Logger   *logging.Logger
	Recorder Recorder
}

// Dispatcher runs invocations through parsing, evaluation, capture and
// pagination, converting every failure into a single failure report.
type Dispatcher struct {
	opts Options
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Directives == nil {
		opts.Directives = directive.Default()
	}
	if opts.Pool == nil {
		opts.Pool = sandbox.NewPool(4, sandbox.DefaultAcquireTimeout)
	}
	if opts.Sandbox.AllowedModules == nil {
		opts.Sandbox.AllowedModules = append([]string{}, sandbox.DefaultModules...)
	}
	if opts.Catalog == nil {
		opts.Catalog = func() sandbox.Catalog { return sandbox.Catalog{} }
	}
	if opts.Budget <= 0 {
		opts.Budget = pager.DefaultBudget
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Dispatcher{opts: opts}
}

// DispatchMessage extracts the code block from a chat message and
// dispatches it. A message without one fails with a parse error.
func (d *Dispatcher) DispatchMessage(ctx context.Context, msg Message) *Report {
	source, err := ExtractCodeBlock(msg.Content)
	if err != nil {
		inv := d.begin(ctx, Request{Message: msg})
		return inv.fail(err)
	}
	return d.Dispatch(ctx, Request{Source: source, Message: msg})
}

// Dispatch runs one invocation to a terminal state.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Report {
	inv := d.begin(ctx, req)

	cfg, err := d.opts.Directives.Parse(req.Source)
	if err != nil {
		return inv.fail(err)
	}

	inv.to(StateEvaluating)
	opts := d.sandboxOptions(cfg)
	res, err := d.opts.Pool.Run(ctx, req.Source, globals(cfg, opts, req.Message, inv.outbox), opts)
	if err != nil {
		return inv.fail(err)
	}

	inv.to(StateCapturing)
	inv.log.Debug("captured output",
		zap.Int("stdout_chunks", len(res.Stdout)),
		zap.Int("stderr_chunks", len(res.Stderr)),
		zap.Bool("undefined", res.Undefined),
	)

	inv.to(StatePaginating)
	pages := Render(res, d.opts.Budget)

	inv.to(StateReporting)
	return inv.succeed(pages)
}

func (d *Dispatcher) sandboxOptions(cfg *directive.Config) sandbox.Options {
	opts := d.opts.Sandbox
	opts.AllowedModules = append([]string(nil), opts.AllowedModules...)
	opts.Catalog = d.opts.Catalog()
	opts.Timeout = cfg.Timeout(opts.Timeout)
	opts.Async = cfg.Enabled("async") || cfg.Enabled("await")
	return opts
}

// invocation tracks the state of one Dispatch call.
type invocation struct {
	report   *Report
	log      *logging.Logger
	recorder Recorder
	outbox   *outbox
	start    time.Time
}

func (d *Dispatcher) begin(ctx context.Context, req Request) *invocation {
	id := req.ID
	if id == "" {
		id = InvocationID(ctx)
	}
	if id == "" {
		id = uuid.NewString()
	}

	inv := &invocation{
		report:   &Report{ID: id, State: StateParsingDirectives},
		log:      d.opts.Logger.ForInvocation(id),
		recorder: d.opts.Recorder,
		outbox:   &outbox{},
		start:    time.Now(),
	}
	inv.recorder.Started()
	inv.recorder.Transition(string(StateParsingDirectives))
	inv.log.Debug("invocation started",
		zap.String("author", req.Message.Author),
		zap.String("channel", req.Message.ChannelID),
		zap.Int("source_bytes", len(req.Source)),
	)
	return inv
}

func (inv *invocation) to(state State) {
	inv.log.Debug("state transition",
		zap.String("from", string(inv.report.State)),
		zap.String("to", string(state)),
	)
	inv.report.State = state
	inv.recorder.Transition(string(state))
}

func (inv *invocation) fail(err error) *Report {
	kind := evalerr.KindOf(err)
	inv.report.Failure = &Failure{Kind: kind, Message: err.Error()}
	inv.report.Pages = nil
	inv.finish(StateReportedFailure, string(kind))
	inv.log.Warn("invocation failed",
		zap.String("kind", string(kind)),
		zap.Error(err),
		zap.Duration("duration", inv.report.Duration),
	)
	return inv.report
}

func (inv *invocation) succeed(pages []pager.Page) *Report {
	inv.report.Pages = pages
	inv.finish(StateReportedSuccess, "")
	inv.log.Info("invocation reported",
		zap.Int("pages", len(pages)),
		zap.Int("sent", len(inv.report.Sent)),
		zap.Duration("duration", inv.report.Duration),
	)
	return inv.report
}

func (inv *invocation) finish(state State, kind string) {
	inv.to(state)
	inv.report.Sent = inv.outbox.drain()
	inv.report.Duration = time.Since(inv.start)
	inv.recorder.Finished(inv.report.Outcome(), kind, len(inv.report.Pages), inv.report.Duration)
}
