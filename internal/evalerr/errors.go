// Package evalerr defines the failure taxonomy shared by the sandbox subsystem.
//
// Every failure that aborts an invocation is one of the typed errors below.
// Kind maps any error onto a stable label used in reports and metrics.
package evalerr

import (
	"errors"
	"fmt"
	"time"
)

// Kind labels a failure category.
type Kind string

const (
	KindParse            Kind = "parse"
	KindUnknownDirective Kind = "unknown_directive"
	KindRestrictedModule Kind = "restricted_module"
	KindModuleNotFound   Kind = "module_not_found"
	KindTimeout          Kind = "timeout"
	KindCanceled         Kind = "canceled"
	KindRuntime          Kind = "runtime"
	KindBusy             Kind = "busy"
	KindInternal         Kind = "internal"
)

var (
	ErrParse            = errors.New("parse error")
	ErrUnknownDirective = errors.New("unknown directive")
	ErrRestrictedModule = errors.New("restricted module")
	ErrModuleNotFound   = errors.New("module not found")
	ErrTimeout          = errors.New("execution timed out")
	ErrCanceled         = errors.New("execution canceled")
	ErrRuntime          = errors.New("sandbox runtime error")

	// ErrBusy is returned when no evaluation slot frees up in time.
	ErrBusy = errors.New("sandbox is busy")
	// ErrInternal marks host faults that are not caused by the script.
	ErrInternal = errors.New("internal error")
)

// ParseError reports malformed command input.
type ParseError struct {
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint == "" {
		return "error: " + e.Reason
	}
	return fmt.Sprintf("error: %s\nhint: %s", e.Reason, e.Hint)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// UnknownDirectiveError names a directive with no registered handler.
type UnknownDirectiveError struct {
	Name string
}

func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("Error: unknown directive: '#%s'", e.Name)
}

func (e *UnknownDirectiveError) Is(target error) bool { return target == ErrUnknownDirective }

// RestrictedModuleError names a known standard module missing from the allow-list.
type RestrictedModuleError struct {
	Module string
}

func (e *RestrictedModuleError) Error() string {
	return fmt.Sprintf("Error: module '%s' is restricted", e.Module)
}

func (e *RestrictedModuleError) Is(target error) bool { return target == ErrRestrictedModule }

// ModuleNotFoundError names a module that resolves to nothing.
type ModuleNotFoundError struct {
	Module string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("Error: module '%s' does not exist", e.Module)
}

func (e *ModuleNotFoundError) Is(target error) bool { return target == ErrModuleNotFound }

// TimeoutError reports an exhausted execution budget.
type TimeoutError struct {
	Budget time.Duration
	// Awaiting is set when the budget that ran out was the await limit of a
	// deferred result rather than a synchronous run.
	Awaiting bool
}

func (e *TimeoutError) Error() string {
	if e.Awaiting {
		return fmt.Sprintf("Error: deferred result did not settle within %s", e.Budget)
	}
	return fmt.Sprintf("Error: Script execution timed out after %dms", e.Budget.Milliseconds())
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// CanceledError reports an externally aborted execution.
type CanceledError struct {
	Cause error
}

func (e *CanceledError) Error() string {
	if e.Cause == nil {
		return "Error: Script execution was interrupted"
	}
	return "Error: Script execution was interrupted: " + e.Cause.Error()
}

func (e *CanceledError) Is(target error) bool { return target == ErrCanceled }

func (e *CanceledError) Unwrap() error { return e.Cause }

// SandboxRuntimeError carries an exception thrown by the running script.
type SandboxRuntimeError struct {
	// Message is the stringified thrown value, e.g. "TypeError: x is not a function".
	Message string
	Stack   string
}

func (e *SandboxRuntimeError) Error() string { return e.Message }

func (e *SandboxRuntimeError) Is(target error) bool { return target == ErrRuntime }

// KindOf classifies err. A nil error has an empty kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrUnknownDirective):
		return KindUnknownDirective
	case errors.Is(err, ErrRestrictedModule):
		return KindRestrictedModule
	case errors.Is(err, ErrModuleNotFound):
		return KindModuleNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	case errors.Is(err, ErrRuntime):
		return KindRuntime
	case errors.Is(err, ErrBusy):
		return KindBusy
	default:
		return KindInternal
	}
}
