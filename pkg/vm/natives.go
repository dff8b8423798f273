package vm

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/saldlang/sald/pkg/value"
)

// nativeClasses is the minimal built-in instance-method surface: just
// enough Array/String/Dictionary/Number methods to drive the spec's
// end-to-end scenarios (length, push, map, and friends), not a full
// standard library.
type nativeClasses struct {
	array  map[string]*value.NativeFunction
	str    map[string]*value.NativeFunction
	dict   map[string]*value.NativeFunction
	number map[string]*value.NativeFunction
}

func newNativeClasses() *nativeClasses {
	return &nativeClasses{
		array:  buildArrayMethods(),
		str:    buildStringMethods(),
		dict:   buildDictMethods(),
		number: buildNumberMethods(),
	}
}

// lookup returns the native method named name bound to receiver's kind's
// table, wrapped as a BoundMethod ready to call.
func (n *nativeClasses) lookup(receiver value.Value, name string) (value.Value, error) {
	var table map[string]*value.NativeFunction
	switch receiver.Kind() {
	case value.KindArray:
		table = n.array
	case value.KindString:
		table = n.str
	case value.KindDict:
		table = n.dict
	case value.KindNumber:
		table = n.number
	default:
		return value.Null, vmError("TypeError", "%s has no methods", receiver.TypeName())
	}
	fn, ok := table[name]
	if !ok {
		return value.Null, vmError("AttributeError", "%s has no method %q", receiver.TypeName(), name)
	}
	nativeVal := value.Object(value.KindNativeFunction, fn)
	return value.Object(value.KindBoundMethod, value.NewBoundMethod(receiver, nativeVal)), nil
}

func buildArrayMethods() map[string]*value.NativeFunction {
	m := map[string]*value.NativeFunction{}
	m["length"] = value.NewNativeFunction("length", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Number(float64(recv.AsObject().(*value.Array).Len())), nil
	})
	m["push"] = value.NewNativeFunction("push", 1, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		recv.AsObject().(*value.Array).Push(args[0])
		return recv, nil
	})
	m["get"] = value.NewNativeFunction("get", 1, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		v, ok := recv.AsObject().(*value.Array).Get(int(args[0].AsInt()))
		if !ok {
			return value.Null, vmError("IndexError", "array index out of range")
		}
		return v, nil
	})
	// slice takes either one argument (from index to end, used by
	// destructuring's rest-target lowering) or two (from, to).
	m["slice"] = value.NewNativeFunction("slice", -1, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		elems := recv.AsObject().(*value.Array).Elements()
		end := len(elems)
		if len(args) > 1 {
			end = int(args[1].AsInt())
		}
		lo, hi := clampRange(int(args[0].AsInt()), end, len(elems))
		return value.Object(value.KindArray, value.NewArray(elems[lo:hi])), nil
	})
	m["map"] = value.NewNativeFunction("map", 1, func(c value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		elems := recv.AsObject().(*value.Array).Elements()
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			r, err := c.Call(args[0], []value.Value{e})
			if err != nil {
				return value.Null, err
			}
			out[i] = r
		}
		return value.Object(value.KindArray, value.NewArray(out)), nil
	})
	m["filter"] = value.NewNativeFunction("filter", 1, func(c value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		elems := recv.AsObject().(*value.Array).Elements()
		var out []value.Value
		for _, e := range elems {
			r, err := c.Call(args[0], []value.Value{e})
			if err != nil {
				return value.Null, err
			}
			if r.Truthy() {
				out = append(out, e)
			}
		}
		return value.Object(value.KindArray, value.NewArray(out)), nil
	})
	m["each"] = value.NewNativeFunction("each", 1, func(c value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		for _, e := range recv.AsObject().(*value.Array).Elements() {
			if _, err := c.Call(args[0], []value.Value{e}); err != nil {
				return value.Null, err
			}
		}
		return value.Null, nil
	})
	m["reduce"] = value.NewNativeFunction("reduce", 2, func(c value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		acc := args[0]
		var err error
		for _, e := range recv.AsObject().(*value.Array).Elements() {
			acc, err = c.Call(args[1], []value.Value{acc, e})
			if err != nil {
				return value.Null, err
			}
		}
		return acc, nil
	})
	m["join"] = value.NewNativeFunction("join", 1, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		sep := args[0].AsString()
		parts := make([]string, 0)
		for _, e := range recv.AsObject().(*value.Array).Elements() {
			parts = append(parts, e.AsString())
		}
		return value.String(strings.Join(parts, sep)), nil
	})
	return m
}

func buildStringMethods() map[string]*value.NativeFunction {
	m := map[string]*value.NativeFunction{}
	m["length"] = value.NewNativeFunction("length", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Number(float64(len([]rune(recv.AsString())))), nil
	})
	m["slice"] = value.NewNativeFunction("slice", 2, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		runes := []rune(recv.AsString())
		lo, hi := clampRange(int(args[0].AsInt()), int(args[1].AsInt()), len(runes))
		return value.String(string(runes[lo:hi])), nil
	})
	m["upper"] = value.NewNativeFunction("upper", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.String(strings.ToUpper(recv.AsString())), nil
	})
	m["lower"] = value.NewNativeFunction("lower", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.String(strings.ToLower(recv.AsString())), nil
	})
	m["split"] = value.NewNativeFunction("split", 1, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		parts := strings.Split(recv.AsString(), args[0].AsString())
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.Object(value.KindArray, value.NewArray(out)), nil
	})
	m["contains"] = value.NewNativeFunction("contains", 1, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(strings.Contains(recv.AsString(), args[0].AsString())), nil
	})
	m["trim"] = value.NewNativeFunction("trim", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.String(strings.TrimSpace(recv.AsString())), nil
	})
	return m
}

func buildDictMethods() map[string]*value.NativeFunction {
	m := map[string]*value.NativeFunction{}
	m["length"] = value.NewNativeFunction("length", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Number(float64(recv.AsObject().(*value.Dict).Len())), nil
	})
	m["has"] = value.NewNativeFunction("has", 1, func(_ value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(recv.AsObject().(*value.Dict).Has(args[0].AsString())), nil
	})
	m["keys"] = value.NewNativeFunction("keys", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		var keys []string
		recv.AsObject().(*value.Dict).Each(func(k string, _ value.Value) { keys = append(keys, k) })
		slices.Sort(keys)
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return value.Object(value.KindArray, value.NewArray(out)), nil
	})
	m["values"] = value.NewNativeFunction("values", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		var out []value.Value
		recv.AsObject().(*value.Dict).Each(func(_ string, v value.Value) { out = append(out, v) })
		return value.Object(value.KindArray, value.NewArray(out)), nil
	})
	m["each"] = value.NewNativeFunction("each", 1, func(c value.Caller, recv value.Value, args []value.Value) (value.Value, error) {
		var callErr error
		recv.AsObject().(*value.Dict).Each(func(k string, v value.Value) {
			if callErr != nil {
				return
			}
			_, callErr = c.Call(args[0], []value.Value{value.String(k), v})
		})
		return value.Null, callErr
	})
	return m
}

func buildNumberMethods() map[string]*value.NativeFunction {
	m := map[string]*value.NativeFunction{}
	m["floor"] = value.NewNativeFunction("floor", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Number(float64(int64(recv.AsNumber()))), nil
	})
	m["abs"] = value.NewNativeFunction("abs", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		n := recv.AsNumber()
		if n < 0 {
			n = -n
		}
		return value.Number(n), nil
	})
	m["to_s"] = value.NewNativeFunction("to_s", 0, func(_ value.Caller, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.String(formatNumber(recv.AsNumber())), nil
	})
	return m
}

func clampRange(lo, hi, length int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > length {
		hi = length
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// implementsInterface reports whether class (or one of its ancestors,
// already merged in by Inherit) defines every method name lists. Interface
// declarations compile to nothing, so conformance is only ever checked
// on demand by a native caller wanting to raise InterfaceError — there is
// no opcode for it.
func implementsInterface(class *value.Class, methodNames []string) error {
	for _, name := range methodNames {
		if _, ok := class.FindMethod(name); !ok {
			return vmError("InterfaceError", "%s does not implement method %q", class.Name, name)
		}
	}
	return nil
}
