package compiler

import (
	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/bytecode"
)

func (f *fc) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.LetStmt:
		f.compileLet(n)
	case *ast.LetDestructureStmt:
		f.compileLetDestructure(n)
	case *ast.ConstStmt:
		f.compileConst(n)
	case *ast.ExpressionStmt:
		f.compileExpr(n.Inner)
		f.emit(bytecode.OpPop, n.SpanVal)
	case *ast.BlockStmt:
		f.beginScope()
		for _, inner := range n.Statements {
			f.compileStmt(inner)
		}
		f.endScope(n.SpanVal)
	case *ast.IfStmt:
		f.compileIf(n)
	case *ast.WhileStmt:
		f.compileWhile(n)
	case *ast.DoWhileStmt:
		f.compileDoWhile(n)
	case *ast.ForStmt:
		f.compileFor(n)
	case *ast.FunctionStmt:
		f.compileFunctionStmt(n)
	case *ast.ReturnStmt:
		if n.Value != nil {
			f.compileExpr(n.Value)
		} else {
			f.emit(bytecode.OpNull, n.SpanVal)
		}
		f.emit(bytecode.OpReturn, n.SpanVal)
	case *ast.ClassStmt:
		f.compileClass(n)
	case *ast.InterfaceStmt:
		f.compileInterface(n)
	case *ast.BreakStmt:
		f.compileBreak(n.SpanVal)
	case *ast.ContinueStmt:
		f.compileContinue(n.SpanVal)
	case *ast.ImportStmt:
		f.compileImport(n)
	case *ast.TryCatchStmt:
		f.compileTryCatch(n)
	case *ast.ThrowStmt:
		f.compileExpr(n.Value)
		f.emit(bytecode.OpThrow, n.SpanVal)
	case *ast.NamespaceStmt:
		f.compileNamespace(n)
	case *ast.EnumStmt:
		f.compileEnum(n)
	default:
		f.fail(s.Span(), "compiler: unhandled statement type %T", s)
	}
}

func (f *fc) compileLet(n *ast.LetStmt) {
	if n.Initializer != nil {
		f.compileExpr(n.Initializer)
	} else {
		f.emit(bytecode.OpNull, n.SpanVal)
	}
	f.finishBinding(n.Name, false, n.SpanVal)
}

func (f *fc) compileConst(n *ast.ConstStmt) {
	f.compileExpr(n.Value)
	f.finishBinding(n.Name, true, n.SpanVal)
}

// finishBinding emits DefineGlobal at depth 0, or declares a local slot
// (the initializer value left on the stack by the caller becomes that
// slot) otherwise.
func (f *fc) finishBinding(name string, isConst bool, span bytecode.Span) {
	if f.scopeDepth == 0 {
		idx := f.addConstant(name)
		f.emitOp1(bytecode.OpDefineGlobal, idx, span)
		return
	}
	f.declareLocal(name, isConst, span)
}

// compileLetDestructure binds several names at once from one initializer,
// left on a synthesized local slot so each target can be extracted via
// GetIndex (array) or GetProperty (dict) without re-evaluating the
// initializer expression.
func (f *fc) compileLetDestructure(n *ast.LetDestructureStmt) {
	f.compileExpr(n.Initializer)
	f.finishBinding(syntheticName(n.SpanVal), false, n.SpanVal)
	srcSlot, _, _ := f.resolveLocal(syntheticName(n.SpanVal))
	usingGlobalSrc := f.scopeDepth == 0

	loadSrc := func() {
		if usingGlobalSrc {
			idx := f.addConstant(syntheticName(n.SpanVal))
			f.emitOp1(bytecode.OpGetGlobal, idx, n.SpanVal)
		} else {
			f.emitOp1(bytecode.OpGetLocal, uint16(srcSlot), n.SpanVal)
		}
	}

	switch n.Kind {
	case ast.DestructureArray:
		for i, t := range n.Targets {
			loadSrc()
			if t.IsRest {
				f.emitConstantNumber(float64(i), n.SpanVal)
				// slice(i) collects the rest starting at index i; arity
				// details live with the Array builtin's native method.
				nameIdx := f.addConstant("slice")
				f.emitOp1(bytecode.OpInvoke, nameIdx, n.SpanVal)
				f.chunk.EmitU16(1, n.SpanVal)
			} else {
				f.emitConstantNumber(float64(i), n.SpanVal)
				f.emit(bytecode.OpGetIndex, n.SpanVal)
			}
			f.finishBinding(t.Name, false, n.SpanVal)
		}
	case ast.DestructureDict:
		for _, t := range n.Targets {
			loadSrc()
			idx := f.addConstant(t.Key)
			f.emitOp1(bytecode.OpGetProperty, idx, n.SpanVal)
			f.finishBinding(t.Name, false, n.SpanVal)
		}
	}
}

// syntheticName returns a compiler-internal binding name that can never
// collide with a user identifier (user identifiers can't start with '@').
func syntheticName(span bytecode.Span) string {
	return "@destructure_" + itoa(span.Start.Line) + "_" + itoa(span.Start.Column)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (f *fc) emitConstantNumber(v float64, span bytecode.Span) {
	idx := f.addConstant(v)
	f.emitOp1(bytecode.OpConstant, idx, span)
}

func (f *fc) compileIf(n *ast.IfStmt) {
	f.compileExpr(n.Condition)
	thenJump := f.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
	f.emit(bytecode.OpPop, n.SpanVal)
	f.compileStmt(n.Then)
	elseJump := f.emitJump(bytecode.OpJump, n.SpanVal)
	f.patchJump(thenJump)
	f.emit(bytecode.OpPop, n.SpanVal)
	if n.Else != nil {
		f.compileStmt(n.Else)
	}
	f.patchJump(elseJump)
}

func (f *fc) compileWhile(n *ast.WhileStmt) {
	start := f.chunk.Len()
	f.loops = append(f.loops, loopCtx{depthAtEntry: f.scopeDepth, continueIsBackward: true, continueTarget: start})
	f.compileExpr(n.Condition)
	exitJump := f.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
	f.emit(bytecode.OpPop, n.SpanVal)
	f.compileStmt(n.Body)
	f.emitLoop(start, n.SpanVal)
	f.patchJump(exitJump)
	f.emit(bytecode.OpPop, n.SpanVal)
	f.patchBreaksAndPop()
}

func (f *fc) compileDoWhile(n *ast.DoWhileStmt) {
	start := f.chunk.Len()
	f.loops = append(f.loops, loopCtx{depthAtEntry: f.scopeDepth})
	f.compileStmt(n.Body)
	condStart := f.chunk.Len()
	f.patchContinues(condStart)
	f.compileExpr(n.Condition)
	f.patchJumpIfTrueLoop(start, n.SpanVal)
	f.patchBreaksAndPop()
}

// patchJumpIfTrueLoop emits the conditional backward jump a do-while loop
// needs: if the condition is truthy, go back to start.
func (f *fc) patchJumpIfTrueLoop(start int, span bytecode.Span) {
	skip := f.emitJump(bytecode.OpJumpIfFalse, span)
	f.emit(bytecode.OpPop, span)
	f.emitLoop(start, span)
	f.patchJump(skip)
	f.emit(bytecode.OpPop, span)
}

func (f *fc) compileFor(n *ast.ForStmt) {
	f.beginScope()
	f.compileExpr(n.Iterable)
	arrName := syntheticName(n.SpanVal) + "_arr"
	f.declareLocal(arrName, false, n.SpanVal)
	arrSlot, _, _ := f.resolveLocal(arrName)

	f.emitConstantNumber(0, n.SpanVal)
	idxName := syntheticName(n.SpanVal) + "_idx"
	f.declareLocal(idxName, false, n.SpanVal)
	idxSlot, _, _ := f.resolveLocal(idxName)

	start := f.chunk.Len()
	f.loops = append(f.loops, loopCtx{depthAtEntry: f.scopeDepth})

	f.emitOp1(bytecode.OpGetLocal, uint16(idxSlot), n.SpanVal)
	f.emitOp1(bytecode.OpGetLocal, uint16(arrSlot), n.SpanVal)
	lengthIdx := f.addConstant("length")
	f.emitOp1(bytecode.OpInvoke, lengthIdx, n.SpanVal)
	f.chunk.EmitU16(0, n.SpanVal)
	f.emit(bytecode.OpLess, n.SpanVal)
	exitJump := f.emitJump(bytecode.OpJumpIfFalse, n.SpanVal)
	f.emit(bytecode.OpPop, n.SpanVal)

	f.beginScope()
	f.emitOp1(bytecode.OpGetLocal, uint16(arrSlot), n.SpanVal)
	f.emitOp1(bytecode.OpGetLocal, uint16(idxSlot), n.SpanVal)
	f.emit(bytecode.OpGetIndex, n.SpanVal)
	f.declareLocal(n.Variable, false, n.SpanVal)
	f.compileStmt(n.Body)
	f.endScope(n.SpanVal)

	incrementStart := f.chunk.Len()
	f.patchContinues(incrementStart)
	f.emitOp1(bytecode.OpGetLocal, uint16(idxSlot), n.SpanVal)
	f.emitConstantNumber(1, n.SpanVal)
	f.emit(bytecode.OpAdd, n.SpanVal)
	f.emitOp1(bytecode.OpSetLocal, uint16(idxSlot), n.SpanVal)
	f.emit(bytecode.OpPop, n.SpanVal)
	f.emitLoop(start, n.SpanVal)

	f.patchJump(exitJump)
	f.emit(bytecode.OpPop, n.SpanVal)
	f.patchBreaksAndPop()
	f.endScope(n.SpanVal)
}

func (f *fc) compileFunctionStmt(n *ast.FunctionStmt) {
	f.registerParamNames(n.Def.Name, n.Def.Params)
	proto := f.compileFunction(n.Def.Name, n.Def.Params, n.Def.Body, nil, n.Def.IsAsync, f.namespaceContext, f.classContext, n.Def.Decorators)
	f.emitClosure(proto, n.Def.SpanVal)
	f.finishBinding(n.Def.Name, false, n.Def.SpanVal)
}

// registerParamNames records name's declared (non-variadic) parameter order
// so a later call site naming it directly can resolve named arguments
// against it.
func (f *fc) registerParamNames(name string, params []ast.FunctionParam) {
	ordered := make([]string, 0, len(params))
	for _, p := range params {
		if p.IsVariadic {
			continue
		}
		ordered = append(ordered, p.Name)
	}
	f.knownParams[name] = ordered
}

func (f *fc) compileBreak(span bytecode.Span) {
	if len(f.loops) == 0 {
		f.fail(span, "break used outside a loop")
		return
	}
	loop := &f.loops[len(f.loops)-1]
	f.popToDepth(loop.depthAtEntry, span)
	site := f.emitJump(bytecode.OpJump, span)
	loop.breakSites = append(loop.breakSites, site)
}

func (f *fc) compileContinue(span bytecode.Span) {
	if len(f.loops) == 0 {
		f.fail(span, "continue used outside a loop")
		return
	}
	loop := &f.loops[len(f.loops)-1]
	f.popToDepth(loop.depthAtEntry, span)
	if loop.continueIsBackward {
		f.emitLoop(loop.continueTarget, span)
		return
	}
	site := f.emitJump(bytecode.OpJump, span)
	loop.continueSites = append(loop.continueSites, site)
}

// popToDepth emits a Pop for every local declared deeper than targetDepth,
// the unwind break/continue need without running CloseUpvalue bookkeeping
// (that only happens on a normal endScope at loop exit).
func (f *fc) popToDepth(targetDepth int, span bytecode.Span) {
	for i := len(f.locals) - 1; i >= 0 && f.locals[i].depth > targetDepth; i-- {
		f.emit(bytecode.OpPop, span)
	}
}

// patchContinues patches every buffered forward continue-jump in the
// current loop to land at target, a byte offset reached after those jumps
// were emitted (the increment step of a for-loop, or the condition
// re-check of a do-while).
func (f *fc) patchContinues(target int) {
	loop := &f.loops[len(f.loops)-1]
	for _, site := range loop.continueSites {
		d := target - (site + 2)
		f.chunk.PatchU16(site, uint16(d))
	}
	loop.continueSites = nil
}

func (f *fc) patchBreaksAndPop() {
	loop := f.loops[len(f.loops)-1]
	for _, site := range loop.breakSites {
		f.patchJump(site)
	}
	f.loops = f.loops[:len(f.loops)-1]
}

func (f *fc) compileImport(n *ast.ImportStmt) {
	pathIdx := f.addConstant(n.Path)
	if n.Alias == "" {
		f.emitOp1(bytecode.OpImport, pathIdx, n.SpanVal)
		return
	}
	aliasIdx := f.addConstant(n.Alias)
	f.emitOp1(bytecode.OpImportAs, pathIdx, n.SpanVal)
	f.chunk.EmitU16(aliasIdx, n.SpanVal)
}

func (f *fc) compileTryCatch(n *ast.TryCatchStmt) {
	tryStartOffset := f.emitJump(bytecode.OpTryStart, n.SpanVal)
	f.compileStmt(n.TryBody)
	f.emit(bytecode.OpTryEnd, n.SpanVal)
	afterCatch := f.emitJump(bytecode.OpJump, n.SpanVal)

	f.patchJump(tryStartOffset)
	f.beginScope()
	f.declareLocal(n.CatchVar, false, n.SpanVal)
	f.compileStmt(n.CatchBody)
	f.endScope(n.SpanVal)

	f.patchJump(afterCatch)
}
