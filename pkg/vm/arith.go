package vm

import "github.com/saldlang/sald/pkg/value"

// add implements Add: Number + Number, or concatenation whenever either
// operand is a String (spec.md §4.2).
func (vm *VM) add(a, b value.Value) (value.Value, error) {
	if a.Kind() == value.KindString || b.Kind() == value.KindString {
		return value.String(vm.displayString(a) + vm.displayString(b)), nil
	}
	if a.Kind() == value.KindNumber && b.Kind() == value.KindNumber {
		return value.Number(a.AsNumber() + b.AsNumber()), nil
	}
	return value.Null, vmError("TypeError", "cannot add %s and %s", a.TypeName(), b.TypeName())
}

func (vm *VM) sub(a, b value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
		return value.Null, vmError("TypeError", "cannot subtract %s and %s", a.TypeName(), b.TypeName())
	}
	return value.Number(a.AsNumber() - b.AsNumber()), nil
}

func (vm *VM) mul(a, b value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
		return value.Null, vmError("TypeError", "cannot multiply %s and %s", a.TypeName(), b.TypeName())
	}
	return value.Number(a.AsNumber() * b.AsNumber()), nil
}

func (vm *VM) div(a, b value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
		return value.Null, vmError("TypeError", "cannot divide %s and %s", a.TypeName(), b.TypeName())
	}
	if b.AsNumber() == 0 {
		return value.Null, vmError("DivisionByZero", "division by zero")
	}
	return value.Number(a.AsNumber() / b.AsNumber()), nil
}

func (vm *VM) mod(a, b value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
		return value.Null, vmError("TypeError", "cannot take remainder of %s and %s", a.TypeName(), b.TypeName())
	}
	if b.AsNumber() == 0 {
		return value.Null, vmError("DivisionByZero", "division by zero")
	}
	return value.Number(floatMod(a.AsNumber(), b.AsNumber())), nil
}

// compare implements Less/LessEqual/Greater/GreaterEqual: Number×Number or
// String×String (lexicographic), per spec.md §4.2.
func (vm *VM) compare(op string, a, b value.Value) (value.Value, error) {
	switch {
	case a.Kind() == value.KindNumber && b.Kind() == value.KindNumber:
		x, y := a.AsNumber(), b.AsNumber()
		switch op {
		case "<":
			return value.Bool(x < y), nil
		case "<=":
			return value.Bool(x <= y), nil
		case ">":
			return value.Bool(x > y), nil
		case ">=":
			return value.Bool(x >= y), nil
		}
	case a.Kind() == value.KindString && b.Kind() == value.KindString:
		x, y := a.AsString(), b.AsString()
		switch op {
		case "<":
			return value.Bool(x < y), nil
		case "<=":
			return value.Bool(x <= y), nil
		case ">":
			return value.Bool(x > y), nil
		case ">=":
			return value.Bool(x >= y), nil
		}
	}
	return value.Null, vmError("TypeError", "cannot compare %s and %s", a.TypeName(), b.TypeName())
}

// bitwise implements BitAnd/BitOr/BitXor/LeftShift/RightShift: both
// operands truncate to i64 first (spec.md §4.2).
func (vm *VM) bitwise(op string, a, b value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
		return value.Null, vmError("TypeError", "bitwise operands must be numbers, got %s and %s", a.TypeName(), b.TypeName())
	}
	x, y := a.AsInt(), b.AsInt()
	var r int64
	switch op {
	case "&":
		r = x & y
	case "|":
		r = x | y
	case "^":
		r = x ^ y
	case "<<":
		r = x << uint64(y)
	case ">>":
		r = x >> uint64(y)
	}
	return value.Number(float64(r)), nil
}

func (vm *VM) negate(a value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber {
		return value.Null, vmError("TypeError", "cannot negate %s", a.TypeName())
	}
	return value.Number(-a.AsNumber()), nil
}

func (vm *VM) bitNot(a value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber {
		return value.Null, vmError("TypeError", "cannot bitwise-not %s", a.TypeName())
	}
	return value.Number(float64(^a.AsInt())), nil
}
