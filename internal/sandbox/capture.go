package sandbox

import (
	"strings"

	"github.com/dop251/goja"
)

// Buffer records every write to one diagnostic channel as a separate chunk.
// It is owned by a single sandbox and is not safe for concurrent use.
type Buffer struct {
	chunks []string
	size   int
}

// Write appends p verbatim and always succeeds.
func (b *Buffer) Write(p []byte) (int, error) {
	b.chunks = append(b.chunks, string(p))
	b.size += len(p)
	return len(p), nil
}

// WriteString appends s verbatim.
func (b *Buffer) WriteString(s string) (int, error) {
	b.chunks = append(b.chunks, s)
	b.size += len(s)
	return len(s), nil
}

// Chunks returns a copy of the recorded chunks in write order.
func (b *Buffer) Chunks() []string {
	return append([]string(nil), b.chunks...)
}

// Len is the number of recorded chunks.
func (b *Buffer) Len() int { return len(b.chunks) }

// Size is the total number of bytes written.
func (b *Buffer) Size() int { return b.size }

// String concatenates all chunks.
func (b *Buffer) String() string { return strings.Join(b.chunks, "") }

// Capture holds the standard and error channels of one sandbox.
type Capture struct {
	Stdout Buffer
	Stderr Buffer
}

// console builds the script-visible console object writing into c.
func (c *Capture) console(vm *goja.Runtime, in *inspector) *goja.Object {
	console := vm.NewObject()

	line := func(w *Buffer, prefix string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			w.WriteString(prefix + in.format(call.Arguments) + "\n")
			return goja.Undefined()
		}
	}

	for _, name := range []string{"log", "info", "debug"} {
		console.Set(name, line(&c.Stdout, ""))
	}
	for _, name := range []string{"warn", "error"} {
		console.Set(name, line(&c.Stderr, ""))
	}

	console.Set("trace", func(call goja.FunctionCall) goja.Value {
		msg := "Trace"
		if len(call.Arguments) > 0 {
			msg += ": " + in.format(call.Arguments)
		}
		c.Stderr.WriteString(msg + "\n")
		return goja.Undefined()
	})

	console.Set("dir", func(call goja.FunctionCall) goja.Value {
		c.Stdout.WriteString(in.value(call.Argument(0), 0) + "\n")
		return goja.Undefined()
	})

	console.Set("assert", func(call goja.FunctionCall) goja.Value {
		if call.Argument(0).ToBoolean() {
			return goja.Undefined()
		}
		msg := "Assertion failed"
		if len(call.Arguments) > 1 {
			msg += ": " + in.format(call.Arguments[1:])
		}
		c.Stderr.WriteString(msg + "\n")
		return goja.Undefined()
	})

	return console
}
