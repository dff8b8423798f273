package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saldlang/sald/pkg/value"
)

// formatValue renders v for REPL/run output. It is a CLI-only concern — the
// VM itself never needs to stringify a Value for program semantics — so it
// lives here rather than in pkg/value.
func formatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindBoolean:
		return strconv.FormatBool(v.AsBool())
	case value.KindNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case value.KindString:
		return strconv.Quote(v.AsString())
	case value.KindArray:
		arr := v.AsObject().(*value.Array)
		parts := make([]string, arr.Len())
		for i, e := range arr.Elements() {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindDict:
		d := v.AsObject().(*value.Dict)
		parts := make([]string, 0, d.Len())
		d.Each(func(key string, ev value.Value) {
			parts = append(parts, fmt.Sprintf("%s: %s", strconv.Quote(key), formatValue(ev)))
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case value.KindInstance:
		inst := v.AsObject().(*value.Instance)
		return fmt.Sprintf("<%s instance>", inst.Class.Name)
	case value.KindClass:
		return fmt.Sprintf("<class %s>", v.AsObject().(*value.Class).Name)
	case value.KindFunction:
		return "<function>"
	case value.KindNamespace:
		return fmt.Sprintf("<namespace %s>", v.AsObject().(*value.Namespace).Name)
	default:
		return fmt.Sprintf("<%s>", v.TypeName())
	}
}
