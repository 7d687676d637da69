/*
Package sandbox runs untrusted JavaScript snippets in isolated goja runtimes.

# Overview

Every evaluation gets a brand new global scope. Nothing survives between
runs, and the host exposes only what the caller binds:

  - require, resolving an allow-list of standard modules and the debug:
    capability namespace
  - console, capturing output into a standard and an error channel
  - caller supplied globals, which may shadow the two above

# Module Resolution

A name that identifies a standard module must be on the allow-list or the
lookup fails with a restricted module error. A name starting with "debug:"
is looked up in the capability catalog, case-insensitively, and resolves to
undefined when absent. Any other name fails as not found. Reads of
require.cache and require.main yield the string "restricted".

The standard modules are served by a goja_nodejs require registry that never
reads from disk. buffer, url and util come from goja_nodejs; assert, crypto,
events, path, perf_hooks and timers are native to this package.

# Budgets

Each synchronous entry into the script (the main run and every timer
callback) is interrupted once Options.Timeout elapses. Awaiting a deferred
result is bounded separately by Options.AwaitLimit. Timers only fire while a
result is being awaited.

# Usage Example

	res, err := sandbox.Run(ctx, "1 + 1", nil, sandbox.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Println(res.Text) // 2

# Concurrency

A Sandbox must be used from one goroutine. Pool bounds how many Runs execute
at once across goroutines.
*/
package sandbox
