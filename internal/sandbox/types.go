package sandbox

import "time"

const (
	// DefaultTimeout bounds each synchronous run when no budget is configured.
	DefaultTimeout = time.Second
	// DefaultAwaitLimit bounds the wait for a deferred result to settle.
	DefaultAwaitLimit = 30 * time.Second
	// DefaultMaxCallStack caps JS recursion depth.
	DefaultMaxCallStack = 1024

	scriptName = "evaluate"
)

// DefaultModules is the standard-module allow-list used when none is configured.
var DefaultModules = []string{
	"assert", "buffer",
	"crypto", "events",
	"path", "perf_hooks",
	"timers", "url", "util",
}

// Catalog maps a lower-case capability name to a host value exposed as
// require("debug:<name>").
type Catalog map[string]any

// Globals are bound into the fresh global scope of a sandbox. They may shadow
// the built-in require and console bindings.
type Globals map[string]any

// Options configures one sandbox.
type Options struct {
	// AllowedModules lists standard modules that scripts may require.
	AllowedModules []string
	// Catalog holds capability objects for the debug: namespace.
	Catalog Catalog
	// Timeout bounds every synchronous entry into the script: the main run and
	// each timer callback. Non-positive selects DefaultTimeout.
	Timeout time.Duration
	// AwaitLimit bounds Await. Non-positive selects DefaultAwaitLimit.
	AwaitLimit time.Duration
	// MaxCallStack caps the JS call stack. Non-positive selects DefaultMaxCallStack.
	MaxCallStack int
	// Async wraps the script in an immediately invoked async function so that
	// top-level await is available and the result is a promise.
	Async bool
	// Resolver overrides the module resolver built from AllowedModules and Catalog.
	Resolver Resolver
}

// DefaultOptions returns options with the default allow-list and budgets.
func DefaultOptions() Options {
	return Options{
		AllowedModules: append([]string{}, DefaultModules...),
		Catalog:        Catalog{},
		Timeout:        DefaultTimeout,
		AwaitLimit:     DefaultAwaitLimit,
		MaxCallStack:   DefaultMaxCallStack,
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.AwaitLimit <= 0 {
		o.AwaitLimit = DefaultAwaitLimit
	}
	if o.MaxCallStack <= 0 {
		o.MaxCallStack = DefaultMaxCallStack
	}
	if o.Catalog == nil {
		o.Catalog = Catalog{}
	}
	return o
}

// Result is the outcome of a successful Run.
type Result struct {
	// Text is the inspected result value.
	Text string
	// Undefined is set when the result was undefined or null.
	Undefined bool
	Stdout    []string
	Stderr    []string
	Duration  time.Duration
}
