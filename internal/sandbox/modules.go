package sandbox

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"math/big"
	"path"
	"strings"
	"time"

	"github.com/dop251/goja"
	_ "github.com/dop251/goja_nodejs/buffer"
	noderequire "github.com/dop251/goja_nodejs/require"
	_ "github.com/dop251/goja_nodejs/url"
	_ "github.com/dop251/goja_nodejs/util"
	"github.com/google/uuid"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

// nodeLoader serves standard modules through a goja_nodejs require registry.
// buffer, url and util come from goja_nodejs; the rest are native here.
type nodeLoader struct {
	req *noderequire.RequireModule
}

// noSourceFiles keeps the registry from ever reading scripts off disk.
func noSourceFiles(string) ([]byte, error) {
	return nil, noderequire.ModuleFileDoesNotExistError
}

func newNodeLoader(s *Sandbox) *nodeLoader {
	reg := noderequire.NewRegistry(noderequire.WithLoader(noSourceFiles))
	reg.RegisterNativeModule("assert", s.jsModule(assertProgram))
	reg.RegisterNativeModule("crypto", cryptoModule)
	reg.RegisterNativeModule("events", s.jsModule(eventsProgram))
	reg.RegisterNativeModule("path", pathModule)
	reg.RegisterNativeModule("perf_hooks", s.perfModule)
	reg.RegisterNativeModule("timers", s.timersModule)
	return &nodeLoader{req: reg.Enable(s.vm)}
}

func (l *nodeLoader) Load(_ *goja.Runtime, name string) (goja.Value, error) {
	v, err := l.req.Require(name)
	if err != nil {
		if _, ok := err.(*goja.Exception); ok {
			return nil, err
		}
		return nil, &evalerr.ModuleNotFoundError{Module: name}
	}
	return v, nil
}

// jsModule runs a compiled factory taking (module, inspect).
func (s *Sandbox) jsModule(prg *goja.Program) noderequire.ModuleLoader {
	return func(vm *goja.Runtime, module *goja.Object) {
		v, err := vm.RunProgram(prg)
		if err != nil {
			panic(err)
		}
		factory, ok := goja.AssertFunction(v)
		if !ok {
			panic(vm.NewTypeError("module factory is not a function"))
		}
		inspect := func(v goja.Value) string { return s.inspector.value(v, 0) }
		if _, err := factory(goja.Undefined(), module, vm.ToValue(inspect)); err != nil {
			panic(err)
		}
	}
}

func (s *Sandbox) perfModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)
	perf := vm.NewObject()
	perf.Set("now", func() float64 {
		return float64(time.Since(s.started).Nanoseconds()) / 1e6
	})
	perf.Set("timeOrigin", float64(s.started.UnixNano())/1e6)
	exports.Set("performance", perf)
}

func cryptoModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	exports.Set("randomUUID", func() string { return uuid.NewString() })

	exports.Set("randomBytes", func(call goja.FunctionCall) goja.Value {
		n := call.Argument(0).ToInteger()
		if n < 0 || n > 1<<16 {
			panic(vm.NewTypeError("The value of \"size\" is out of range."))
		}
		b := make([]byte, n)
		if _, err := rand.Read(b); err != nil {
			panic(vm.NewGoError(err))
		}
		return bytesValue(vm, b)
	})

	exports.Set("randomInt", func(call goja.FunctionCall) goja.Value {
		lo, hi := int64(0), call.Argument(0).ToInteger()
		if len(call.Arguments) > 1 {
			lo, hi = hi, call.Argument(1).ToInteger()
		}
		if hi <= lo {
			panic(vm.NewTypeError("The value of \"max\" is out of range. It must be greater than the value of \"min\"."))
		}
		n, err := rand.Int(rand.Reader, big.NewInt(hi-lo))
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(lo + n.Int64())
	})

	exports.Set("getHashes", func() []string {
		return []string{"md5", "sha1", "sha256", "sha512"}
	})

	exports.Set("createHash", func(call goja.FunctionCall) goja.Value {
		alg := strings.ToLower(call.Argument(0).String())
		h := newHash(alg)
		if h == nil {
			panic(vm.NewTypeError("Digest method not supported: " + alg))
		}
		obj := vm.NewObject()
		obj.Set("update", func(c goja.FunctionCall) goja.Value {
			h.Write(bytesOf(c.Argument(0)))
			return obj
		})
		obj.Set("digest", func(c goja.FunctionCall) goja.Value {
			sum := h.Sum(nil)
			switch c.Argument(0).String() {
			case "hex":
				return vm.ToValue(hex.EncodeToString(sum))
			case "base64":
				return vm.ToValue(base64.StdEncoding.EncodeToString(sum))
			case "base64url":
				return vm.ToValue(base64.RawURLEncoding.EncodeToString(sum))
			}
			return bytesValue(vm, sum)
		})
		return obj
	})
}

func newHash(alg string) hash.Hash {
	switch alg {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	case "sha256":
		return sha256.New()
	case "sha512":
		return sha512.New()
	}
	return nil
}

func bytesOf(v goja.Value) []byte {
	switch x := v.Export().(type) {
	case []byte:
		return x
	case goja.ArrayBuffer:
		return x.Bytes()
	}
	return []byte(v.String())
}

// bytesValue wraps b in a Uint8Array.
func bytesValue(vm *goja.Runtime, b []byte) goja.Value {
	arr, err := vm.New(vm.Get("Uint8Array"), vm.ToValue(vm.NewArrayBuffer(b)))
	if err != nil {
		panic(err)
	}
	return arr
}

func pathModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)
	exports.Set("sep", "/")
	exports.Set("delimiter", ":")
	exports.Set("join", joinPath)
	exports.Set("normalize", normalizePath)
	exports.Set("resolve", resolvePath)
	exports.Set("relative", relativePath)
	exports.Set("basename", basename)
	exports.Set("dirname", dirname)
	exports.Set("extname", extname)
	exports.Set("isAbsolute", func(p string) bool { return strings.HasPrefix(p, "/") })
	exports.Set("parse", func(p string) map[string]any {
		root := ""
		if strings.HasPrefix(p, "/") {
			root = "/"
		}
		base := basename(p)
		ext := extname(p)
		dir := ""
		if p != "" {
			dir = dirname(p)
			if dir == "." && !strings.Contains(strings.TrimRight(p, "/"), "/") {
				dir = ""
			}
		}
		return map[string]any{
			"root": root,
			"dir":  dir,
			"base": base,
			"ext":  ext,
			"name": strings.TrimSuffix(base, ext),
		}
	})
	exports.Set("posix", exports)
}

func joinPath(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "."
	}
	return normalizePath(strings.Join(kept, "/"))
}

func normalizePath(p string) string {
	if p == "" {
		return "."
	}
	out := path.Clean(p)
	if strings.HasSuffix(p, "/") && out != "/" {
		out += "/"
	}
	return out
}

// resolvePath resolves against a virtual working directory of "/".
func resolvePath(parts ...string) string {
	resolved := ""
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == "" {
			continue
		}
		resolved = parts[i] + "/" + resolved
		if strings.HasPrefix(parts[i], "/") {
			break
		}
	}
	return path.Clean("/" + resolved)
}

func relativePath(from, to string) string {
	a := splitPath(resolvePath(from))
	b := splitPath(resolvePath(to))
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	var out []string
	for range a[i:] {
		out = append(out, "..")
	}
	out = append(out, b[i:]...)
	return strings.Join(out, "/")
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func basename(p string, ext ...string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return ""
	}
	base := path.Base(trimmed)
	if len(ext) > 0 && ext[0] != "" && base != ext[0] {
		base = strings.TrimSuffix(base, ext[0])
	}
	return base
}

func dirname(p string) string {
	if p == "" {
		return "."
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return path.Dir(trimmed)
}

func extname(p string) string {
	base := basename(p)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return ""
	}
	return base[i:]
}
