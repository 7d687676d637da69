package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

func run(t *testing.T, code string, opts Options) (*Result, error) {
	t.Helper()
	return Run(context.Background(), code, nil, opts)
}

func TestRunValues(t *testing.T) {
	tests := []struct {
		name      string
		script    string
		want      string
		undefined bool
	}{
		{name: "number", script: "1 + 1", want: "2"},
		{name: "string", script: "'hello'.toUpperCase()", want: "'HELLO'"},
		{name: "object", script: "({ a: 1, b: 'x' })", want: "{ a: 1, b: 'x' }"},
		{name: "array", script: "[1, 2, 3]", want: "[ 1, 2, 3 ]"},
		{name: "map", script: "new Map([[1, 'a']])", want: "Map(1) { 1 => 'a' }"},
		{name: "numeric map", script: "new Map([[1, 2]])", want: "Map(1) { 1 => 2 }"},
		{name: "empty map", script: "new Map()", want: "Map(0) {}"},
		{name: "set", script: "new Set(['a', 'b'])", want: "Set(2) { 'a', 'b' }"},
		{name: "nested map", script: "({ m: new Map([['k', 1]]) })", want: "{ m: Map(1) { 'k' => 1 } }"},
		{name: "symbol", script: "Symbol('s')", want: "Symbol(s)"},
		{name: "anonymous symbol", script: "Symbol()", want: "Symbol()"},
		{name: "negative zero", script: "-0", want: "-0"},
		{name: "zero", script: "0", want: "0"},
		{name: "function", script: "function foo() {}; foo", want: "[Function: foo]"},
		{name: "circular", script: "const a = {}; a.self = a; a", want: "{ self: [Circular] }"},
		{name: "resolved promise", script: "Promise.resolve(5)", want: "5"},
		{name: "undefined", script: "undefined", want: "undefined", undefined: true},
		{name: "null", script: "null", want: "null", undefined: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := run(t, tt.script, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Text)
			assert.Equal(t, tt.undefined, res.Undefined)
		})
	}
}

func TestRunErrorValue(t *testing.T) {
	res, err := run(t, "new Error('e')", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Text, "Error: e"), res.Text)
	assert.False(t, strings.HasSuffix(res.Text, "\n"), "%q", res.Text)
}

func TestRunFreshScope(t *testing.T) {
	_, err := run(t, "var leaked = 1", DefaultOptions())
	require.NoError(t, err)

	res, err := run(t, "typeof leaked", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "'undefined'", res.Text)
}

func TestRunConsoleCapture(t *testing.T) {
	res, err := run(t, `
		console.log('a', 1);
		console.info('%s is %d', 'x', 42);
		console.log('%j', { a: 1 });
		console.log('100%%');
		console.log({ a: 1 });
		console.error('oops');
		console.warn('careful');
		3
	`, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"a 1\n", "x is 42\n", "{\"a\":1}\n", "100%%\n", "{ a: 1 }\n"}, res.Stdout)
	assert.Equal(t, []string{"oops\n", "careful\n"}, res.Stderr)
	assert.Equal(t, "3", res.Text)
}

func TestRunTimeout(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := run(t, "let i = 0; while (true) { i++ }", opts)
	require.Error(t, err)

	assert.ErrorIs(t, err, evalerr.ErrTimeout)
	assert.Equal(t, "Error: Script execution timed out after 50ms", err.Error())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunTimeoutNotCatchable(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	_, err := run(t, "try { while (true) {} } catch (e) {} 'escaped'", opts)
	assert.ErrorIs(t, err, evalerr.ErrTimeout)
}

func TestRunCanceled(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = 5 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, "while (true) {}", nil, opts)
	assert.ErrorIs(t, err, evalerr.ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunThrown(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{name: "type error", script: "throw new TypeError('bad')", want: "TypeError: bad"},
		{name: "primitive", script: "throw 'boom'", want: "boom"},
		{name: "rejection", script: "Promise.reject(new Error('nope'))", want: "Error: nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.script, DefaultOptions())
			var rte *evalerr.SandboxRuntimeError
			require.ErrorAs(t, err, &rte)
			assert.Equal(t, tt.want, rte.Message)
		})
	}
}

func TestRunStackOverflow(t *testing.T) {
	_, err := run(t, "function f() { return f() } f()", DefaultOptions())
	var rte *evalerr.SandboxRuntimeError
	require.ErrorAs(t, err, &rte)
	assert.Equal(t, "RangeError: Maximum call stack size exceeded", rte.Message)
	assert.Contains(t, rte.Stack, "f (")
}

func TestRunSyntaxError(t *testing.T) {
	_, err := run(t, "let = ;", DefaultOptions())
	var rte *evalerr.SandboxRuntimeError
	require.ErrorAs(t, err, &rte)
	assert.Contains(t, rte.Message, "SyntaxError")
}

func TestRunGlobals(t *testing.T) {
	globals := Globals{
		"answer":  42,
		"require": func(string) string { return "mine" },
	}

	res, err := Run(context.Background(), "answer + ':' + require('fs')", globals, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "'42:mine'", res.Text)
}

func TestRunAsync(t *testing.T) {
	opts := DefaultOptions()
	opts.Async = true

	res, err := run(t, `
		const { setTimeout } = require('timers');
		const v = await new Promise((resolve) => setTimeout(() => resolve('done'), 10));
		return v;
	`, opts)
	require.NoError(t, err)
	assert.Equal(t, "'done'", res.Text)
}

func TestRunMissingReturnInAsync(t *testing.T) {
	opts := DefaultOptions()
	opts.Async = true

	res, err := run(t, "1 + 1", opts)
	require.NoError(t, err)
	assert.True(t, res.Undefined)
}
