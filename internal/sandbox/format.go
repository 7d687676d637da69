package sandbox

import (
	"math"
	"strings"

	"github.com/dop251/goja"
)

// format implements util.format: printf-style directives in a leading string
// argument, remaining arguments appended with spaces.
func (in *inspector) format(args []goja.Value) string {
	if len(args) == 0 {
		return ""
	}

	var parts []string
	rest := args
	if f, ok := args[0].Export().(string); ok && isStringPrimitive(args[0]) {
		if len(args) == 1 {
			return f
		}
		var sb strings.Builder
		rest = args[1:]
		for i := 0; i < len(f); i++ {
			c := f[i]
			if c != '%' || i+1 == len(f) {
				sb.WriteByte(c)
				continue
			}
			verb := f[i+1]
			switch {
			case verb == '%':
				sb.WriteByte('%')
				i++
			case !strings.ContainsRune("sdifjoOc", rune(verb)):
				sb.WriteByte(c)
			case len(rest) == 0:
				sb.WriteByte(c)
				sb.WriteByte(verb)
				i++
			default:
				sb.WriteString(in.directive(verb, rest[0]))
				rest = rest[1:]
				i++
			}
		}
		parts = append(parts, sb.String())
	}

	for _, arg := range rest {
		parts = append(parts, in.plain(arg))
	}
	return strings.Join(parts, " ")
}

func (in *inspector) directive(verb byte, arg goja.Value) string {
	switch verb {
	case 's':
		return in.plain(arg)
	case 'd':
		if _, ok := arg.(*goja.Object); ok {
			return "NaN"
		}
		return arg.ToNumber().String()
	case 'i':
		if _, ok := arg.(*goja.Object); ok {
			return "NaN"
		}
		f := arg.ToFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "NaN"
		}
		return in.vm.ToValue(math.Trunc(f)).String()
	case 'f':
		return arg.ToNumber().String()
	case 'j':
		return in.json(arg)
	case 'o', 'O':
		return in.value(arg, 0)
	case 'c':
		return ""
	}
	return ""
}

// plain renders strings verbatim and everything else inspected.
func (in *inspector) plain(v goja.Value) string {
	if s, ok := v.Export().(string); ok && isStringPrimitive(v) {
		return s
	}
	return in.value(v, 0)
}

func (in *inspector) json(v goja.Value) (out string) {
	defer func() {
		if r := recover(); r != nil {
			if _, interrupted := r.(*goja.InterruptedError); interrupted {
				panic(r)
			}
			out = "[Circular]"
		}
	}()
	stringify, ok := goja.AssertFunction(in.vm.Get("JSON").ToObject(in.vm).Get("stringify"))
	if !ok {
		return "undefined"
	}
	res, err := stringify(goja.Undefined(), v)
	if err != nil {
		return "[Circular]"
	}
	if goja.IsUndefined(res) {
		return "undefined"
	}
	return res.String()
}
