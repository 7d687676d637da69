package capability

import (
	"os"
	"runtime"
	"time"
)

const (
	SourceStatic = "static"
	SourceFunc   = "func"
	SourceFile   = "file"
)

type staticProvider struct {
	def   Definition
	value any
}

// Static exposes a fixed value.
func Static(name, description string, value any) Provider {
	return &staticProvider{
		def:   Definition{Name: name, Description: description, Source: SourceStatic},
		value: value,
	}
}

func (p *staticProvider) Definition() Definition { return p.def }
func (p *staticProvider) Value() any             { return p.value }

type funcProvider struct {
	def Definition
	fn  func() any
}

// Func exposes a value computed fresh for every invocation.
func Func(name, description string, fn func() any) Provider {
	return &funcProvider{
		def: Definition{Name: name, Description: description, Source: SourceFunc},
		fn:  fn,
	}
}

func (p *funcProvider) Definition() Definition { return p.def }
func (p *funcProvider) Value() any             { return p.fn() }

// Host describes the running process. It never exposes the environment.
func Host(version string, started time.Time) Provider {
	return Func("host", "process information of the evaluating host", func() any {
		hostname, _ := os.Hostname()
		return map[string]any{
			"name":       "evalbot",
			"version":    version,
			"hostname":   hostname,
			"pid":        os.Getpid(),
			"goVersion":  runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"startedAt":  started.UTC().Format(time.RFC3339),
			"uptimeMs":   time.Since(started).Milliseconds(),
		}
	})
}
