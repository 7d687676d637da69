package sandbox

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

const (
	// CapabilityPrefix marks a module name as a host capability lookup.
	CapabilityPrefix = "debug:"
	// RestrictedSentinel replaces require.cache and require.main.
	RestrictedSentinel = "restricted"
)

// standardModules are the identifiers of the host standard library. Only
// names in this set are subject to the allow-list.
var standardModules = map[string]struct{}{}

func init() {
	for _, name := range []string{
		"assert", "assert/strict", "async_hooks", "buffer", "child_process",
		"cluster", "console", "constants", "crypto", "dgram",
		"diagnostics_channel", "dns", "dns/promises", "domain", "events",
		"fs", "fs/promises", "http", "http2", "https", "inspector", "module",
		"net", "os", "path", "path/posix", "path/win32", "perf_hooks",
		"process", "punycode", "querystring", "readline", "readline/promises",
		"repl", "stream", "stream/consumers", "stream/promises", "stream/web",
		"string_decoder", "sys", "timers", "timers/promises", "tls",
		"trace_events", "tty", "url", "util", "util/types", "v8", "vm",
		"wasi", "worker_threads", "zlib",
	} {
		standardModules[name] = struct{}{}
	}
}

// IsStandardModule reports whether name identifies a host standard module.
func IsStandardModule(name string) bool {
	_, ok := standardModules[name]
	return ok
}

// Resolver answers every module lookup made by sandboxed code.
type Resolver interface {
	Resolve(vm *goja.Runtime, name string) (goja.Value, error)
}

// ModuleLoader loads an allowed standard module into vm.
type ModuleLoader interface {
	Load(vm *goja.Runtime, name string) (goja.Value, error)
}

// CapabilityResolver enforces the standard-module allow-list and serves the
// debug: capability namespace.
type CapabilityResolver struct {
	allowed map[string]struct{}
	catalog Catalog
	loader  ModuleLoader
}

// NewResolver creates a resolver. Catalog keys are matched lower-case.
func NewResolver(allowed []string, catalog Catalog, loader ModuleLoader) *CapabilityResolver {
	r := &CapabilityResolver{
		allowed: make(map[string]struct{}, len(allowed)),
		catalog: make(Catalog, len(catalog)),
		loader:  loader,
	}
	for _, name := range allowed {
		r.allowed[name] = struct{}{}
	}
	for key, v := range catalog {
		r.catalog[strings.ToLower(key)] = v
	}
	return r
}

// Resolve implements Resolver. A capability miss yields undefined, not an
// error, while an unknown plain name fails.
func (r *CapabilityResolver) Resolve(vm *goja.Runtime, name string) (goja.Value, error) {
	if IsStandardModule(name) {
		if _, ok := r.allowed[name]; !ok {
			return nil, &evalerr.RestrictedModuleError{Module: name}
		}
		return r.loader.Load(vm, name)
	}

	if strings.HasPrefix(name, CapabilityPrefix) {
		v, ok := r.catalog[strings.ToLower(name[len(CapabilityPrefix):])]
		if !ok {
			return goja.Undefined(), nil
		}
		return vm.ToValue(v), nil
	}

	return nil, &evalerr.ModuleNotFoundError{Module: name}
}

// bindRequire builds the script-visible require function around resolver.
// Reads of its cache and main properties return RestrictedSentinel.
func bindRequire(vm *goja.Runtime, resolver Resolver) goja.Value {
	fn := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		arg := call.Argument(0)
		name, ok := arg.Export().(string)
		if !ok || !isStringPrimitive(arg) {
			panic(vm.NewTypeError("The \"id\" argument must be of type string. Received " + describeType(arg)))
		}
		v, err := resolver.Resolve(vm, name)
		if err != nil {
			panic(throwable(vm, err))
		}
		return v
	}).(*goja.Object)

	proxy := vm.NewProxy(fn, &goja.ProxyTrapConfig{
		Get: func(target *goja.Object, property string, receiver goja.Value) goja.Value {
			if property == "cache" || property == "main" {
				return vm.ToValue(RestrictedSentinel)
			}
			return target.Get(property)
		},
	})
	return vm.ToValue(proxy)
}

func isStringPrimitive(v goja.Value) bool {
	if v == nil {
		return false
	}
	_, isObj := v.(*goja.Object)
	return !isObj
}

func describeType(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}
	if _, ok := v.(*goja.Object); ok {
		return "an instance of Object"
	}
	return "type " + typeOf(v) + " (" + v.String() + ")"
}
