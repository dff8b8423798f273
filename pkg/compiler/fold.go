package compiler

import "github.com/saldlang/sald/pkg/ast"

// foldConstant evaluates e at compile time when every operand is itself a
// literal, per spec.md §4.1's constant-folding rule. It deliberately stays
// conservative: division and modulo by a literal zero are left unfolded so
// the runtime raises the same DivisionByZero error a non-constant
// expression would, and relational comparisons between strings are left
// unfolded: only == and != fold over strings, and the VM compares strings
// with <, <=, > and >= at run time.
func foldConstant(e ast.Expr) (ast.Literal, bool) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return n.Value, true
	case *ast.GroupingExpr:
		return foldConstant(n.Inner)
	case *ast.UnaryExpr:
		return foldUnary(n)
	case *ast.BinaryExpr:
		return foldBinary(n)
	default:
		return ast.Literal{}, false
	}
}

func foldUnary(n *ast.UnaryExpr) (ast.Literal, bool) {
	v, ok := foldConstant(n.Operand)
	if !ok {
		return ast.Literal{}, false
	}
	switch n.Op {
	case ast.Negate:
		if v.Kind != ast.LiteralNumber {
			return ast.Literal{}, false
		}
		return ast.Literal{Kind: ast.LiteralNumber, Num: -v.Num}, true
	case ast.Not:
		if v.Kind != ast.LiteralBoolean {
			return ast.Literal{}, false
		}
		return ast.Literal{Kind: ast.LiteralBoolean, Bool: !v.Bool}, true
	case ast.BitNot:
		if v.Kind != ast.LiteralNumber {
			return ast.Literal{}, false
		}
		return ast.Literal{Kind: ast.LiteralNumber, Num: float64(^int64(v.Num))}, true
	}
	return ast.Literal{}, false
}

func foldBinary(n *ast.BinaryExpr) (ast.Literal, bool) {
	// And/Or/NullCoalesce short-circuit and must see their right-hand side
	// evaluated lazily at runtime, so they are never folded here even when
	// both operands happen to be literals.
	switch n.Op {
	case ast.And, ast.Or, ast.NullCoalesce:
		return ast.Literal{}, false
	}

	l, lok := foldConstant(n.Left)
	r, rok := foldConstant(n.Right)
	if !lok || !rok {
		return ast.Literal{}, false
	}

	if n.Op == ast.Add && l.Kind == ast.LiteralString && r.Kind == ast.LiteralString {
		return ast.Literal{Kind: ast.LiteralString, Str: l.Str + r.Str}, true
	}
	if n.Op == ast.Equal || n.Op == ast.NotEqual {
		eq := literalsEqual(l, r)
		if n.Op == ast.NotEqual {
			eq = !eq
		}
		return ast.Literal{Kind: ast.LiteralBoolean, Bool: eq}, true
	}
	if l.Kind != ast.LiteralNumber || r.Kind != ast.LiteralNumber {
		return ast.Literal{}, false
	}

	switch n.Op {
	case ast.Add:
		return ast.Literal{Kind: ast.LiteralNumber, Num: l.Num + r.Num}, true
	case ast.Sub:
		return ast.Literal{Kind: ast.LiteralNumber, Num: l.Num - r.Num}, true
	case ast.Mul:
		return ast.Literal{Kind: ast.LiteralNumber, Num: l.Num * r.Num}, true
	case ast.Div:
		if r.Num == 0 {
			return ast.Literal{}, false
		}
		return ast.Literal{Kind: ast.LiteralNumber, Num: l.Num / r.Num}, true
	case ast.Mod:
		if r.Num == 0 {
			return ast.Literal{}, false
		}
		return ast.Literal{Kind: ast.LiteralNumber, Num: floatMod(l.Num, r.Num)}, true
	case ast.Less:
		return ast.Literal{Kind: ast.LiteralBoolean, Bool: l.Num < r.Num}, true
	case ast.LessEqual:
		return ast.Literal{Kind: ast.LiteralBoolean, Bool: l.Num <= r.Num}, true
	case ast.Greater:
		return ast.Literal{Kind: ast.LiteralBoolean, Bool: l.Num > r.Num}, true
	case ast.GreaterEqual:
		return ast.Literal{Kind: ast.LiteralBoolean, Bool: l.Num >= r.Num}, true
	case ast.BitAnd:
		return ast.Literal{Kind: ast.LiteralNumber, Num: float64(int64(l.Num) & int64(r.Num))}, true
	case ast.BitOr:
		return ast.Literal{Kind: ast.LiteralNumber, Num: float64(int64(l.Num) | int64(r.Num))}, true
	case ast.BitXor:
		return ast.Literal{Kind: ast.LiteralNumber, Num: float64(int64(l.Num) ^ int64(r.Num))}, true
	case ast.LeftShift:
		return ast.Literal{Kind: ast.LiteralNumber, Num: float64(int64(l.Num) << uint(int64(r.Num)))}, true
	case ast.RightShift:
		return ast.Literal{Kind: ast.LiteralNumber, Num: float64(int64(l.Num) >> uint(int64(r.Num)))}, true
	}
	return ast.Literal{}, false
}

func literalsEqual(l, r ast.Literal) bool {
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case ast.LiteralNumber:
		return l.Num == r.Num
	case ast.LiteralString:
		return l.Str == r.Str
	case ast.LiteralBoolean:
		return l.Bool == r.Bool
	case ast.LiteralNull:
		return true
	}
	return false
}

func floatMod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}
