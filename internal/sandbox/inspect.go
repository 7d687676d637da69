package sandbox

import (
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const (
	inspectDepth    = 2
	breakLength     = 72
	maxArrayItems   = 100
	maxStringLength = 10000
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Map and Set report class Object; their export types tell them apart.
var (
	mapExportType = reflect.TypeOf([][2]interface{}{})
	setExportType = reflect.TypeOf([]interface{}{})
)

// inspector renders values the way util.inspect does, close enough for a
// human reading a chat message.
type inspector struct {
	vm    *goja.Runtime
	seen  []*goja.Object
	items func(goja.Value) goja.Value
}

func newInspector(vm *goja.Runtime) *inspector {
	return &inspector{vm: vm}
}

// inspect renders v with quoted strings.
func (in *inspector) inspect(v goja.Value) string {
	return in.value(v, 0)
}

func (in *inspector) value(v goja.Value, depth int) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return in.primitive(v)
	}

	for _, s := range in.seen {
		if s == obj {
			return "[Circular]"
		}
	}

	if fn, ok := goja.AssertFunction(obj); ok && fn != nil {
		return in.function(obj)
	}

	switch obj.ClassName() {
	case "Error":
		return in.errorValue(obj, depth)
	case "Date":
		if t, ok := obj.Export().(time.Time); ok {
			return t.UTC().Format("2006-01-02T15:04:05.000Z")
		}
		return obj.String()
	case "RegExp":
		return obj.String()
	case "Promise":
		return in.promise(obj, depth)
	case "String", "Number", "Boolean":
		return "[" + obj.ClassName() + ": " + in.primitive(in.vm.ToValue(obj.Export())) + "]"
	}

	in.seen = append(in.seen, obj)
	defer func() { in.seen = in.seen[:len(in.seen)-1] }()

	if obj.ClassName() == "Array" {
		if depth > inspectDepth {
			return "[Array]"
		}
		return in.array(obj, depth)
	}
	if kind := collectionKind(obj); kind != "" {
		return in.collection(obj, kind, depth)
	}

	if depth > inspectDepth {
		return "[Object]"
	}
	return in.object(obj, depth)
}

func (in *inspector) primitive(v goja.Value) string {
	if sym, ok := v.(*goja.Symbol); ok {
		return "Symbol(" + sym.String() + ")"
	}
	switch x := v.Export().(type) {
	case string:
		return quote(x)
	case *big.Int:
		return x.String() + "n"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == 0 && math.Signbit(x) {
			return "-0"
		}
	}
	return v.String()
}

func (in *inspector) function(obj *goja.Object) string {
	name := ""
	if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
		name = n.String()
	}
	if name == "" {
		return "[Function (anonymous)]"
	}
	return "[Function: " + name + "]"
}

func (in *inspector) errorValue(obj *goja.Object, depth int) string {
	if depth == 0 {
		if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) && stack.String() != "" {
			return strings.TrimRight(stack.String(), "\n")
		}
		return obj.String()
	}
	return "[" + obj.String() + "]"
}

func (in *inspector) promise(obj *goja.Object, depth int) string {
	p, ok := obj.Export().(*goja.Promise)
	if !ok {
		return "Promise {}"
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return "Promise { " + in.value(p.Result(), depth+1) + " }"
	case goja.PromiseStateRejected:
		return "Promise { <rejected> " + in.value(p.Result(), depth+1) + " }"
	default:
		return "Promise { <pending> }"
	}
}

func (in *inspector) array(obj *goja.Object, depth int) string {
	length := int(obj.Get("length").ToInteger())
	entries := make([]string, 0, min(length, maxArrayItems)+1)
	for i := 0; i < length && i < maxArrayItems; i++ {
		entries = append(entries, in.value(obj.Get(strconv.Itoa(i)), depth+1))
	}
	if length > maxArrayItems {
		entries = append(entries, "... "+strconv.Itoa(length-maxArrayItems)+" more items")
	}
	return wrap("", "[", "]", entries, depth)
}

func collectionKind(obj *goja.Object) string {
	switch obj.ExportType() {
	case mapExportType:
		return "Map"
	case setExportType:
		return "Set"
	}
	return ""
}

func (in *inspector) collection(obj *goja.Object, kind string, depth int) string {
	size := obj.Get("size").ToInteger()
	prefix := kind + "(" + strconv.FormatInt(size, 10) + ") "
	if depth > inspectDepth {
		return "[" + kind + "]"
	}

	items, ok := in.toArray(obj).(*goja.Object)
	if !ok {
		return prefix + "{}"
	}
	n := int(items.Get("length").ToInteger())
	entries := make([]string, 0, n)
	for i := 0; i < n; i++ {
		item := items.Get(strconv.Itoa(i))
		if kind == "Map" {
			pair := item.ToObject(in.vm)
			entries = append(entries, in.value(pair.Get("0"), depth+1)+" => "+in.value(pair.Get("1"), depth+1))
			continue
		}
		entries = append(entries, in.value(item, depth+1))
	}
	return wrap(prefix, "{", "}", entries, depth)
}

// toArray converts an iterable via Array.from.
func (in *inspector) toArray(obj *goja.Object) goja.Value {
	if in.items == nil {
		from, ok := goja.AssertFunction(in.vm.Get("Array").ToObject(in.vm).Get("from"))
		if !ok {
			return goja.Undefined()
		}
		in.items = func(v goja.Value) goja.Value {
			out, err := from(goja.Undefined(), v)
			if err != nil {
				return goja.Undefined()
			}
			return out
		}
	}
	return in.items(obj)
}

func (in *inspector) object(obj *goja.Object, depth int) string {
	prefix := ""
	if ctor := obj.Get("constructor"); ctor != nil {
		if c, ok := ctor.(*goja.Object); ok {
			if name := c.Get("name"); name != nil && name.String() != "Object" && name.String() != "" {
				prefix = name.String() + " "
			}
		}
	}

	keys := obj.Keys()
	entries := make([]string, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, formatKey(key)+": "+in.property(obj, key, depth))
	}
	if len(entries) == 0 {
		return prefix + "{}"
	}
	return wrap(prefix, "{", "}", entries, depth)
}

// property reads key, reporting a throwing getter instead of propagating it.
func (in *inspector) property(obj *goja.Object, key string, depth int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case *goja.Exception, goja.Value:
				out = "[Getter: threw]"
			default:
				panic(r)
			}
		}
	}()
	return in.value(obj.Get(key), depth+1)
}

func wrap(prefix, open, close string, entries []string, depth int) string {
	if len(entries) == 0 {
		return prefix + open + close
	}
	single := prefix + open + " " + strings.Join(entries, ", ") + " " + close
	if len(single)+depth*2 <= breakLength && !strings.Contains(single, "\n") {
		return single
	}

	var sb strings.Builder
	sb.WriteString(prefix + open + "\n")
	for i, e := range entries {
		sb.WriteString("  " + strings.ReplaceAll(e, "\n", "\n  "))
		if i < len(entries)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(close)
	return sb.String()
}

func formatKey(key string) string {
	if identifierRe.MatchString(key) {
		return key
	}
	return quote(key)
}

func quote(s string) string {
	if len(s) > maxStringLength {
		s = s[:maxStringLength] + "... " + strconv.Itoa(len(s)-maxStringLength) + " more characters"
	}
	q := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		q = `"`
	}
	r := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, "\r", `\r`, q, `\`+q)
	return q + r.Replace(s) + q
}

// typeOf mirrors the JS typeof operator for primitives.
func typeOf(v goja.Value) string {
	if _, ok := v.(*goja.Symbol); ok {
		return "symbol"
	}
	switch v.Export().(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case *big.Int:
		return "bigint"
	}
	return "object"
}
