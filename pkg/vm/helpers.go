package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/saldlang/sald/pkg/value"
)

// floatMod implements Sald's % on floats: truncated (C-style) remainder,
// matching the constant folder's own floatMod in pkg/compiler.
func floatMod(a, b float64) float64 {
	return math.Mod(a, b)
}

// displayString renders v the way string concatenation and the "to_s"-
// style native methods need: numbers without a trailing ".0" when they are
// integral, containers rendered structurally.
func (vm *VM) displayString(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindBoolean:
		return strconv.FormatBool(v.AsBool())
	case value.KindNumber:
		return formatNumber(v.AsNumber())
	case value.KindString:
		return v.AsString()
	case value.KindArray:
		arr := v.AsObject().(*value.Array)
		parts := make([]string, 0, arr.Len())
		for _, e := range arr.Elements() {
			parts = append(parts, vm.displayString(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindDict:
		d := v.AsObject().(*value.Dict)
		var parts []string
		d.Each(func(k string, val value.Value) {
			parts = append(parts, fmt.Sprintf("%q: %s", k, vm.displayString(val)))
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case value.KindInstance:
		inst := v.AsObject().(*value.Instance)
		return inst.Class.Name + " instance"
	case value.KindClass:
		return "class " + v.AsObject().(*value.Class).Name
	case value.KindFunction:
		return "<function " + v.AsObject().(*value.Function).Name() + ">"
	case value.KindEnum:
		switch e := v.AsObject().(type) {
		case *value.Enum:
			return "enum " + e.Name
		case *value.EnumVariant:
			return e.Enum.Name + "." + e.Name
		default:
			return "enum"
		}
	default:
		return v.TypeName()
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
