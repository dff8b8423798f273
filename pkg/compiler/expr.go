package compiler

import (
	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/bytecode"
)

func (f *fc) compileExpr(e ast.Expr) {
	if folded, ok := foldConstant(e); ok {
		f.emitLiteralValue(folded, e.Span())
		return
	}
	switch n := e.(type) {
	case *ast.LiteralExpr:
		f.emitLiteralValue(n.Value, n.SpanVal)
	case *ast.IdentifierExpr:
		f.compileIdentifierGet(n.Name, n.SpanVal)
	case *ast.BinaryExpr:
		f.compileBinary(n)
	case *ast.UnaryExpr:
		f.compileUnary(n)
	case *ast.GroupingExpr:
		f.compileExpr(n.Inner)
	case *ast.AssignmentExpr:
		f.compileAssignment(n)
	case *ast.CallExpr:
		f.compileCall(n)
	case *ast.GetExpr:
		f.compileGet(n)
	case *ast.SetExpr:
		f.compileSet(n)
	case *ast.SelfExpr:
		f.emit(bytecode.OpGetSelf, n.SpanVal)
	case *ast.ArrayExpr:
		f.compileArray(n)
	case *ast.IndexExpr:
		f.compileIndex(n)
	case *ast.IndexSetExpr:
		f.compileIndexSet(n)
	case *ast.TernaryExpr:
		f.compileTernary(n)
	case *ast.LambdaExpr:
		f.compileLambda(n)
	case *ast.SuperExpr:
		nameIdx := f.addConstant(n.Method)
		f.emitOp1(bytecode.OpGetSuper, nameIdx, n.SpanVal)
	case *ast.SwitchExpr:
		f.compileSwitch(n)
	case *ast.BlockExpr:
		f.compileBlockExpr(n)
	case *ast.DictionaryExpr:
		f.compileDictionary(n)
	case *ast.AwaitExpr:
		f.compileExpr(n.Inner)
		f.emit(bytecode.OpAwait, n.SpanVal)
	case *ast.ReturnExpr:
		if n.Value != nil {
			f.compileExpr(n.Value)
		} else {
			f.emit(bytecode.OpNull, n.SpanVal)
		}
		f.emit(bytecode.OpReturn, n.SpanVal)
	case *ast.ThrowExpr:
		f.compileExpr(n.Value)
		f.emit(bytecode.OpThrow, n.SpanVal)
	case *ast.BreakExpr:
		f.compileBreak(n.SpanVal)
	case *ast.ContinueExpr:
		f.compileContinue(n.SpanVal)
	case *ast.SpreadExpr:
		f.compileExpr(n.Inner)
		f.emit(bytecode.OpSpreadArray, n.SpanVal)
	case *ast.RangeExpr:
		f.compileRange(n)
	default:
		f.fail(e.Span(), "compiler: unhandled expression type %T", e)
	}
}

func (f *fc) emitLiteralValue(v ast.Literal, span bytecode.Span) {
	switch v.Kind {
	case ast.LiteralNumber:
		f.emitConstantNumber(v.Num, span)
	case ast.LiteralString:
		idx := f.addConstant(v.Str)
		f.emitOp1(bytecode.OpConstant, idx, span)
	case ast.LiteralBoolean:
		if v.Bool {
			f.emit(bytecode.OpTrue, span)
		} else {
			f.emit(bytecode.OpFalse, span)
		}
	case ast.LiteralNull:
		f.emit(bytecode.OpNull, span)
	}
}

// compileIdentifierGet resolves name per spec.md §4.1's order: current-
// function locals, then enclosing-function locals/upvalues, then globals.
func (f *fc) compileIdentifierGet(name string, span bytecode.Span) {
	if slot, _, ok := f.resolveLocal(name); ok {
		f.emitOp1(bytecode.OpGetLocal, uint16(slot), span)
		return
	}
	if idx, ok := f.resolveUpvalue(name); ok {
		f.emitOp1(bytecode.OpGetUpvalue, uint16(idx), span)
		return
	}
	nameIdx := f.addConstant(name)
	f.emitOp1(bytecode.OpGetGlobal, nameIdx, span)
}

func (f *fc) compileBinary(n *ast.BinaryExpr) {
	if n.Op == ast.And {
		f.compileExpr(n.Left)
		skip := f.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
		f.emit(bytecode.OpPop, n.SpanVal)
		f.compileExpr(n.Right)
		f.patchJump(skip)
		return
	}
	if n.Op == ast.Or {
		f.compileExpr(n.Left)
		skip := f.emitJump(bytecode.OpJumpIfTrue, n.SpanVal)
		f.emit(bytecode.OpPop, n.SpanVal)
		f.compileExpr(n.Right)
		f.patchJump(skip)
		return
	}
	if n.Op == ast.NullCoalesce {
		f.compileExpr(n.Left)
		skip := f.emitJump(bytecode.OpJumpIfNotNull, n.SpanVal)
		f.emit(bytecode.OpPop, n.SpanVal)
		f.compileExpr(n.Right)
		f.patchJump(skip)
		return
	}
	f.compileExpr(n.Left)
	f.compileExpr(n.Right)
	f.emit(binaryOpcode(n.Op), n.SpanVal)
}

func binaryOpcode(op ast.BinaryOp) bytecode.Op {
	switch op {
	case ast.Add:
		return bytecode.OpAdd
	case ast.Sub:
		return bytecode.OpSub
	case ast.Mul:
		return bytecode.OpMul
	case ast.Div:
		return bytecode.OpDiv
	case ast.Mod:
		return bytecode.OpMod
	case ast.Equal:
		return bytecode.OpEqual
	case ast.NotEqual:
		return bytecode.OpNotEqual
	case ast.Less:
		return bytecode.OpLess
	case ast.LessEqual:
		return bytecode.OpLessEqual
	case ast.Greater:
		return bytecode.OpGreater
	case ast.GreaterEqual:
		return bytecode.OpGreaterEqual
	case ast.BitAnd:
		return bytecode.OpBitAnd
	case ast.BitOr:
		return bytecode.OpBitOr
	case ast.BitXor:
		return bytecode.OpBitXor
	case ast.LeftShift:
		return bytecode.OpLeftShift
	case ast.RightShift:
		return bytecode.OpRightShift
	default:
		panic("compiler: unhandled BinaryOp")
	}
}

func (f *fc) compileUnary(n *ast.UnaryExpr) {
	f.compileExpr(n.Operand)
	switch n.Op {
	case ast.Negate:
		f.emit(bytecode.OpNegate, n.SpanVal)
	case ast.Not:
		f.emit(bytecode.OpNot, n.SpanVal)
	case ast.BitNot:
		f.emit(bytecode.OpBitNot, n.SpanVal)
	}
}

// compileAssignment handles plain and compound assignment to an
// identifier, a property (Get), or an index (Index) target.
func (f *fc) compileAssignment(n *ast.AssignmentExpr) {
	rhs := func() {
		if n.Op.IsCompound() {
			f.compileExpr(n.Target)
			f.compileExpr(n.Value)
			f.emit(binaryOpcode(n.Op.BinaryOpFor()), n.SpanVal)
		} else {
			f.compileExpr(n.Value)
		}
	}

	switch target := n.Target.(type) {
	case *ast.IdentifierExpr:
		if slot, isConst, ok := f.resolveLocal(target.Name); ok {
			if isConst {
				f.fail(n.SpanVal, "cannot assign to const %q", target.Name)
			}
			rhs()
			f.emitOp1(bytecode.OpSetLocal, uint16(slot), n.SpanVal)
			return
		}
		if idx, ok := f.resolveUpvalue(target.Name); ok {
			rhs()
			f.emitOp1(bytecode.OpSetUpvalue, uint16(idx), n.SpanVal)
			return
		}
		rhs()
		nameIdx := f.addConstant(target.Name)
		f.emitOp1(bytecode.OpSetGlobal, nameIdx, n.SpanVal)

	case *ast.GetExpr:
		f.compileExpr(target.Object)
		rhs()
		nameIdx := f.addConstant(target.Property)
		f.emitOp1(bytecode.OpSetProperty, nameIdx, n.SpanVal)

	case *ast.IndexExpr:
		f.compileExpr(target.Object)
		f.compileExpr(target.Index)
		rhs()
		f.emit(bytecode.OpSetIndex, n.SpanVal)

	default:
		f.fail(n.SpanVal, "invalid assignment target")
	}
}

// compileCall lowers a call expression. When the callee is a plain
// identifier naming a function whose parameter order this compilation has
// already seen (registerParamNames), named arguments (`foo(n: 3)`) are
// reordered into their declared positional slot before emission; otherwise
// named arguments are passed through positionally, in the order written.
func (f *fc) compileCall(n *ast.CallExpr) {
	args := f.resolveArgs(n.Callee, n.Args)

	if getExpr, ok := n.Callee.(*ast.GetExpr); ok && !n.IsOptional {
		f.compileExpr(getExpr.Object)
		var after int
		if getExpr.IsOptional {
			skip := f.emitJump(bytecode.OpJumpIfNotNull, n.SpanVal)
			f.emit(bytecode.OpPop, n.SpanVal)
			f.emit(bytecode.OpNull, n.SpanVal)
			after = f.emitJump(bytecode.OpJump, n.SpanVal)
			f.patchJump(skip)
		}
		f.compileCallArgs(args, n.SpanVal)
		nameIdx := f.addConstant(getExpr.Property)
		f.emitOp1(bytecode.OpInvoke, nameIdx, n.SpanVal)
		f.chunk.EmitU16(uint16(len(args)), n.SpanVal)
		if getExpr.IsOptional {
			f.patchJump(after)
		}
		return
	}

	f.compileExpr(n.Callee)
	if n.IsOptional {
		skip := f.emitJump(bytecode.OpJumpIfNotNull, n.SpanVal)
		f.emit(bytecode.OpPop, n.SpanVal)
		f.emit(bytecode.OpNull, n.SpanVal)
		after := f.emitJump(bytecode.OpJump, n.SpanVal)
		f.patchJump(skip)
		f.compileCallArgs(args, n.SpanVal)
		f.emitOp1(bytecode.OpCall, uint16(len(args)), n.SpanVal)
		f.patchJump(after)
		return
	}
	f.compileCallArgs(args, n.SpanVal)
	f.emitOp1(bytecode.OpCall, uint16(len(args)), n.SpanVal)
}

// resolveArgs reorders args into the callee's declared parameter order when
// the callee is a known identifier and at least one argument is named;
// otherwise it returns args unchanged.
func (f *fc) resolveArgs(callee ast.Expr, args []ast.CallArg) []ast.CallArg {
	hasNamed := false
	for _, a := range args {
		if a.Name != "" {
			hasNamed = true
			break
		}
	}
	if !hasNamed {
		return args
	}
	ident, ok := callee.(*ast.IdentifierExpr)
	if !ok {
		return args
	}
	params, ok := f.knownParams[ident.Name]
	if !ok {
		return args
	}

	byName := map[string]ast.CallArg{}
	var positional []ast.CallArg
	for _, a := range args {
		if a.Name != "" {
			byName[a.Name] = a
		} else {
			positional = append(positional, a)
		}
	}

	ordered := make([]ast.CallArg, 0, len(args))
	posIdx := 0
	namedLeft := len(byName)
	for _, p := range params {
		if a, ok := byName[p]; ok {
			ordered = append(ordered, a)
			namedLeft--
			continue
		}
		if posIdx < len(positional) {
			ordered = append(ordered, positional[posIdx])
			posIdx++
			continue
		}
		if namedLeft == 0 {
			// Nothing later to place: stop here; the default-parameter
			// prologue (or an arity error at the call site) handles the rest.
			break
		}
		// A later parameter is supplied by name: pass Null in this slot,
		// which the default-parameter prologue treats as a missing argument.
		ordered = append(ordered, ast.CallArg{Value: &ast.LiteralExpr{Value: ast.Literal{Kind: ast.LiteralNull}, SpanVal: callee.Span()}})
	}
	return ordered
}

// compileCallArgs pushes every argument's value, in the order args is given
// in — by the time this runs, resolveArgs has already reordered named
// arguments into positional slots wherever it could, so there is nothing
// left for this pass to do but push values and tag spreads.
func (f *fc) compileCallArgs(args []ast.CallArg, span bytecode.Span) {
	for _, a := range args {
		if a.Name != "" {
			// Callee wasn't statically known (resolveArgs left this one
			// named): fall back to positional-by-write-order.
			f.compileExpr(a.Value)
			continue
		}
		if spread, ok := a.Value.(*ast.SpreadExpr); ok {
			f.compileExpr(spread.Inner)
			f.emit(bytecode.OpSpreadArray, a.SpanVal)
			continue
		}
		f.compileExpr(a.Value)
	}
}

func (f *fc) compileGet(n *ast.GetExpr) {
	f.compileExpr(n.Object)
	if n.IsOptional {
		skip := f.emitJump(bytecode.OpJumpIfNotNull, n.SpanVal)
		f.emit(bytecode.OpPop, n.SpanVal)
		f.emit(bytecode.OpNull, n.SpanVal)
		after := f.emitJump(bytecode.OpJump, n.SpanVal)
		f.patchJump(skip)
		nameIdx := f.addConstant(n.Property)
		f.emitOp1(bytecode.OpGetProperty, nameIdx, n.SpanVal)
		f.patchJump(after)
		return
	}
	nameIdx := f.addConstant(n.Property)
	f.emitOp1(bytecode.OpGetProperty, nameIdx, n.SpanVal)
}

func (f *fc) compileSet(n *ast.SetExpr) {
	f.compileExpr(n.Object)
	f.compileExpr(n.Value)
	nameIdx := f.addConstant(n.Property)
	f.emitOp1(bytecode.OpSetProperty, nameIdx, n.SpanVal)
}

func (f *fc) compileArray(n *ast.ArrayExpr) {
	for _, el := range n.Elements {
		if spread, ok := el.(*ast.SpreadExpr); ok {
			f.compileExpr(spread.Inner)
			f.emit(bytecode.OpSpreadArray, el.Span())
			continue
		}
		f.compileExpr(el)
	}
	f.emitOp1(bytecode.OpBuildArray, uint16(len(n.Elements)), n.SpanVal)
}

func (f *fc) compileIndex(n *ast.IndexExpr) {
	f.compileExpr(n.Object)
	if n.IsOptional {
		skip := f.emitJump(bytecode.OpJumpIfNotNull, n.SpanVal)
		f.emit(bytecode.OpPop, n.SpanVal)
		f.emit(bytecode.OpNull, n.SpanVal)
		after := f.emitJump(bytecode.OpJump, n.SpanVal)
		f.patchJump(skip)
		f.compileExpr(n.Index)
		f.emit(bytecode.OpGetIndex, n.SpanVal)
		f.patchJump(after)
		return
	}
	f.compileExpr(n.Index)
	f.emit(bytecode.OpGetIndex, n.SpanVal)
}

func (f *fc) compileIndexSet(n *ast.IndexSetExpr) {
	f.compileExpr(n.Object)
	f.compileExpr(n.Index)
	f.compileExpr(n.Value)
	f.emit(bytecode.OpSetIndex, n.SpanVal)
}

func (f *fc) compileTernary(n *ast.TernaryExpr) {
	f.compileExpr(n.Condition)
	elseJump := f.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
	f.emit(bytecode.OpPop, n.SpanVal)
	f.compileExpr(n.Then)
	endJump := f.emitJump(bytecode.OpJump, n.SpanVal)
	f.patchJump(elseJump)
	f.emit(bytecode.OpPop, n.SpanVal)
	f.compileExpr(n.Else)
	f.patchJump(endJump)
}

func (f *fc) compileLambda(n *ast.LambdaExpr) {
	var body []ast.Stmt
	var trailing ast.Expr
	if n.Body.Block != nil {
		body = n.Body.Block
	} else {
		trailing = n.Body.Expr
	}
	proto := f.compileFunction("", n.Params, body, trailing, n.IsAsync, f.namespaceContext, f.classContext, nil)
	f.emitClosure(proto, n.SpanVal)
}

func (f *fc) compileDictionary(n *ast.DictionaryExpr) {
	for i := range n.Keys {
		f.compileExpr(n.Keys[i])
		f.compileExpr(n.Values[i])
	}
	f.emitOp1(bytecode.OpBuildDict, uint16(len(n.Keys)), n.SpanVal)
}

func (f *fc) compileBlockExpr(n *ast.BlockExpr) {
	f.beginScope()
	for _, s := range n.Statements {
		f.compileStmt(s)
	}
	if n.Trailing != nil {
		f.compileExpr(n.Trailing)
	} else {
		f.emit(bytecode.OpNull, n.SpanVal)
	}
	f.endScopeKeepTop(n.SpanVal)
}

func (f *fc) compileRange(n *ast.RangeExpr) {
	f.compileExpr(n.Low)
	f.compileExpr(n.High)
	if n.Inclusive {
		f.emit(bytecode.OpBuildRangeInclusive, n.SpanVal)
	} else {
		f.emit(bytecode.OpBuildRangeExclusive, n.SpanVal)
	}
}
