package directive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

// Marker opens a directive line.
const Marker = "// #"

// Handler applies one directive to cfg. source is the full script text.
type Handler func(args []string, source string, cfg *Config) error

// Directive is a single parsed directive line.
type Directive struct {
	Name string
	Args []string
	Line int
}

// Registry maps directive names to handlers. It is built once and never
// mutated afterwards, so one Registry can serve concurrent invocations.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from handlers.
func NewRegistry(handlers map[string]Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for name, h := range handlers {
		r.handlers[name] = h
	}
	return r
}

// Default returns the registry with the built-in #enable and #vmconf
// directives.
func Default() *Registry {
	return NewRegistry(map[string]Handler{
		"enable": enable,
		"vmconf": vmconf,
	})
}

// Names lists registered directives.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Parse applies every directive found in source to a fresh Config, in
// source order. The source itself is left untouched: directive lines are
// ordinary comments to the evaluator.
func (r *Registry) Parse(source string) (*Config, error) {
	cfg := NewConfig()
	for _, d := range Extract(source) {
		h, ok := r.handlers[d.Name]
		if !ok {
			return nil, &evalerr.UnknownDirectiveError{Name: d.Name}
		}
		if err := h(d.Args, source, cfg); err != nil {
			return nil, fmt.Errorf("directive #%s on line %d: %w", d.Name, d.Line, err)
		}
	}
	return cfg, nil
}

// Extract returns the directive lines of source without applying them.
func Extract(source string) []Directive {
	var out []Directive
	for i, line := range strings.Split(source, "\n") {
		if !strings.HasPrefix(line, Marker) {
			continue
		}
		fields := strings.Fields(line[len(Marker):])
		d := Directive{Line: i + 1}
		if len(fields) > 0 {
			d.Name = fields[0]
			d.Args = fields[1:]
		}
		out = append(out, d)
	}
	return out
}

func enable(args []string, _ string, cfg *Config) error {
	if len(args) == 0 {
		return &evalerr.ParseError{Reason: "#enable needs a feature name", Hint: "try `// #enable async`"}
	}
	cfg.Features[args[0]] = true
	return nil
}

// vmconf records raw arguments under the setting name. Repeating a setting
// keeps the last line's arguments.
func vmconf(args []string, _ string, cfg *Config) error {
	if len(args) == 0 {
		return &evalerr.ParseError{Reason: "#vmconf needs a setting name", Hint: "try `// #vmconf timeout 2000`"}
	}
	cfg.VM[args[0]] = append([]string{}, args[1:]...)
	return nil
}
