package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

const (
	codeRestricted = "ERR_RESTRICTED_MODULE"
	codeNotFound   = "MODULE_NOT_FOUND"
)

// Sandbox is one isolated JS global scope. It is not safe for concurrent use
// and is meant to be discarded after a single evaluation.
type Sandbox struct {
	vm        *goja.Runtime
	opts      Options
	capture   *Capture
	timers    *timerQueue
	inspector *inspector
	started   time.Time
}

// New creates a sandbox with require, console and the given globals bound,
// in that order, so globals may shadow the built-ins.
func New(opts Options, globals Globals) (*Sandbox, error) {
	opts = opts.withDefaults()

	vm := goja.New()
	vm.SetMaxCallStackSize(opts.MaxCallStack)
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	s := &Sandbox{
		vm:      vm,
		opts:    opts,
		capture: &Capture{},
		timers:  newTimerQueue(),
		started: time.Now(),
	}
	s.inspector = newInspector(vm)

	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewResolver(opts.AllowedModules, opts.Catalog, newNodeLoader(s))
	}

	if err := vm.Set("require", bindRequire(vm, resolver)); err != nil {
		return nil, fmt.Errorf("failed to bind require: %w", err)
	}
	if err := vm.Set("console", s.capture.console(vm, s.inspector)); err != nil {
		return nil, fmt.Errorf("failed to bind console: %w", err)
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return nil, fmt.Errorf("failed to bind global %q: %w", name, err)
		}
	}
	return s, nil
}

// Evaluate compiles and runs code, returning its completion value.
func (s *Sandbox) Evaluate(ctx context.Context, code string) (goja.Value, error) {
	if s.opts.Async {
		code = "(async function main() {" + code + "\n})()"
	}

	prg, err := goja.Compile(scriptName, code, false)
	if err != nil {
		msg := err.Error()
		if !strings.HasPrefix(msg, "SyntaxError") {
			msg = "SyntaxError: " + msg
		}
		return nil, &evalerr.SandboxRuntimeError{Message: msg}
	}

	var v goja.Value
	err = s.guard(ctx, s.opts.Timeout, func() error {
		var runErr error
		v, runErr = s.vm.RunProgram(prg)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Await settles v when it is a promise, running scheduled timers until it
// does. A promise that stays pending once no timers remain is returned as is.
func (s *Sandbox) Await(ctx context.Context, v goja.Value) (goja.Value, error) {
	p := promiseOf(v)
	if p == nil {
		return v, nil
	}

	deadline := time.NewTimer(s.opts.AwaitLimit)
	defer deadline.Stop()

	for p.State() == goja.PromiseStatePending {
		t := s.timers.next()
		if t == nil {
			break
		}
		wait := time.NewTimer(max(time.Until(t.due), 0))
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, &evalerr.CanceledError{Cause: ctx.Err()}
		case <-deadline.C:
			wait.Stop()
			return nil, &evalerr.TimeoutError{Budget: s.opts.AwaitLimit, Awaiting: true}
		case <-wait.C:
		}

		s.timers.advance(t)
		err := s.guard(ctx, s.opts.Timeout, func() error {
			_, callErr := t.fn(goja.Undefined(), t.args...)
			return callErr
		})
		if err != nil {
			return nil, err
		}
	}

	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result(), nil
	case goja.PromiseStateRejected:
		return nil, s.thrown(p.Result(), "")
	}
	return v, nil
}

// Inspect renders v. Getters may run script code, so it is guarded too.
func (s *Sandbox) Inspect(ctx context.Context, v goja.Value) (string, error) {
	var out string
	err := s.guard(ctx, s.opts.Timeout, func() error {
		out = s.inspector.inspect(v)
		return nil
	})
	return out, err
}

// Stdout returns the chunks written to the standard channel.
func (s *Sandbox) Stdout() []string { return s.capture.Stdout.Chunks() }

// Stderr returns the chunks written to the error channel.
func (s *Sandbox) Stderr() []string { return s.capture.Stderr.Chunks() }

// PendingTimers reports how many timers are still scheduled.
func (s *Sandbox) PendingTimers() int { return s.timers.len() }

// Run evaluates code in a fresh sandbox, awaits a deferred result and
// renders it together with the captured output.
func Run(ctx context.Context, code string, globals Globals, opts Options) (*Result, error) {
	start := time.Now()

	s, err := New(opts, globals)
	if err != nil {
		return nil, err
	}
	v, err := s.Evaluate(ctx, code)
	if err != nil {
		return nil, err
	}
	v, err = s.Await(ctx, v)
	if err != nil {
		return nil, err
	}

	res := &Result{Undefined: v == nil || goja.IsUndefined(v) || goja.IsNull(v)}
	if res.Text, err = s.Inspect(ctx, v); err != nil {
		return nil, err
	}
	res.Stdout = s.Stdout()
	res.Stderr = s.Stderr()
	res.Duration = time.Since(start)
	return res, nil
}

// guard runs fn with the VM interrupted once budget elapses or ctx ends.
// Once the interrupt fires the run is reported as timed out or canceled,
// even if the script caught what was thrown.
func (s *Sandbox) guard(ctx context.Context, budget time.Duration, fn func() error) (err error) {
	if ctx.Err() != nil {
		return &evalerr.CanceledError{Cause: ctx.Err()}
	}

	timer := time.NewTimer(budget)
	defer timer.Stop()

	var fired error
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-timer.C:
			fired = &evalerr.TimeoutError{Budget: budget}
		case <-ctx.Done():
			fired = &evalerr.CanceledError{Cause: ctx.Err()}
		case <-stop:
			return
		}
		s.vm.Interrupt(fired)
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: sandbox panic: %v", evalerr.ErrInternal, r)
			}
		}()
		err = fn()
	}()

	close(stop)
	<-done
	s.vm.ClearInterrupt()

	if fired != nil {
		return fired
	}
	return s.translate(err)
}

func (s *Sandbox) translate(err error) error {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
		return &evalerr.CanceledError{}
	}

	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return &evalerr.SandboxRuntimeError{
			Message: "RangeError: Maximum call stack size exceeded",
			Stack:   strings.TrimSpace(overflow.Error()),
		}
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		return s.thrown(ex.Value(), ex.String())
	}

	if errors.Is(err, evalerr.ErrInternal) {
		return err
	}
	return &evalerr.SandboxRuntimeError{Message: err.Error()}
}

// thrown converts a thrown JS value. Module resolution failures that were
// never caught come back as their typed errors.
func (s *Sandbox) thrown(v goja.Value, stack string) error {
	if obj, ok := v.(*goja.Object); ok {
		module := ""
		if m := obj.Get("module"); m != nil && !goja.IsUndefined(m) {
			module = m.String()
		}
		if code := obj.Get("code"); code != nil && module != "" {
			switch code.String() {
			case codeRestricted:
				return &evalerr.RestrictedModuleError{Module: module}
			case codeNotFound:
				return &evalerr.ModuleNotFoundError{Module: module}
			}
		}
	}
	return &evalerr.SandboxRuntimeError{Message: s.stringify(v), Stack: stack}
}

// stringify is the JS string concatenation of v, tolerating a throwing
// toString.
func (s *Sandbox) stringify(v goja.Value) (out string) {
	if v == nil {
		return "undefined"
	}
	defer func() {
		if r := recover(); r != nil {
			out = "[object " + typeOf(v) + "]"
		}
	}()
	return v.String()
}

// throwable turns a resolution error into a catchable JS Error carrying the
// code and module properties that thrown reads back.
func throwable(vm *goja.Runtime, err error) goja.Value {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value()
	}

	msg := strings.TrimPrefix(err.Error(), "Error: ")
	obj, newErr := vm.New(vm.Get("Error"), vm.ToValue(msg))
	if newErr != nil {
		return vm.NewGoError(err)
	}

	var restricted *evalerr.RestrictedModuleError
	var missing *evalerr.ModuleNotFoundError
	switch {
	case errors.As(err, &restricted):
		obj.Set("code", codeRestricted)
		obj.Set("module", restricted.Module)
	case errors.As(err, &missing):
		obj.Set("code", codeNotFound)
		obj.Set("module", missing.Module)
	}
	return obj
}

func promiseOf(v goja.Value) *goja.Promise {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	p, _ := obj.Export().(*goja.Promise)
	return p
}
