package compiler

import (
	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/bytecode"
)

// compileSwitch lowers a switch expression to a chain of pattern tests: the
// scrutinee is evaluated once into a synthetic binding, then each arm's
// patterns are tried in source order, first match wins. Arms sharing one
// body (`1, 2, 3 -> expr`) compile that body once per pattern rather than
// merging control flow, since patterns may bind different names.
func (f *fc) compileSwitch(n *ast.SwitchExpr) {
	f.compileExpr(n.Value)
	scrutineeName := syntheticName(n.SpanVal) + "_switch"
	f.finishBinding(scrutineeName, false, n.SpanVal)
	usingGlobal := f.scopeDepth == 0
	srcSlot, _, _ := f.resolveLocal(scrutineeName)

	loadScrutinee := func() {
		if usingGlobal {
			idx := f.addConstant(scrutineeName)
			f.emitOp1(bytecode.OpGetGlobal, idx, n.SpanVal)
		} else {
			f.emitOp1(bytecode.OpGetLocal, uint16(srcSlot), n.SpanVal)
		}
	}

	var endJumps []int
	for _, arm := range n.Arms {
		for _, pat := range arm.Patterns {
			f.beginScope()
			newDepth := f.scopeDepth - 1

			fails := f.compilePatternTest(pat, loadScrutinee)
			f.compileExpr(arm.Body)
			f.emitScopeCleanup(newDepth, arm.SpanVal, true)
			endJumps = append(endJumps, f.emitJump(bytecode.OpJump, arm.SpanVal))

			for _, site := range fails {
				f.patchJump(site)
			}
			if len(fails) > 0 {
				f.emit(bytecode.OpPop, arm.SpanVal) // discard the peeked guard/equality bool
			}
			f.emitScopeCleanup(newDepth, arm.SpanVal, false)
			f.popScopeBookkeeping(newDepth)
		}
	}

	if n.Default != nil {
		f.compileExpr(n.Default)
	} else {
		msgIdx := f.addConstant("no switch arm matched")
		f.emitOp1(bytecode.OpConstant, msgIdx, n.SpanVal)
		f.emit(bytecode.OpThrow, n.SpanVal)
	}
	for _, j := range endJumps {
		f.patchJump(j)
	}
}

// compilePatternTest emits the test for one pattern against whatever
// loadScrutinee pushes, returning the byte offsets of every JumpIfFalse
// placed along the way (each must be patched to the "try next pattern"
// point). Patterns that always match (a bare binding with no guard) return
// no fail sites.
func (f *fc) compilePatternTest(pat ast.Pattern, loadScrutinee func()) []int {
	switch p := pat.(type) {
	case *ast.LiteralPattern:
		loadScrutinee()
		f.emitLiteralValue(p.Value, p.SpanVal)
		f.emit(bytecode.OpEqual, p.SpanVal)
		fail := f.emitJump(bytecode.OpJumpIfFalse, p.SpanVal)
		f.emit(bytecode.OpPop, p.SpanVal)
		return []int{fail}

	case *ast.BindingPattern:
		loadScrutinee()
		f.declareLocal(p.Name, false, p.SpanVal)
		if p.Guard == nil {
			return nil
		}
		f.compileExpr(p.Guard)
		fail := f.emitJump(bytecode.OpJumpIfFalse, p.SpanVal)
		f.emit(bytecode.OpPop, p.SpanVal)
		return []int{fail}

	case *ast.ArrayPattern:
		return f.compileArrayPatternTest(p, loadScrutinee)

	case *ast.DictPattern:
		return f.compileDictPatternTest(p, loadScrutinee)

	default:
		f.fail(pat.Span(), "compiler: unhandled pattern type %T", pat)
		return nil
	}
}

func (f *fc) compileArrayPatternTest(p *ast.ArrayPattern, loadScrutinee func()) []int {
	hasRest := len(p.Elements) > 0 && p.Elements[len(p.Elements)-1].IsRest
	positional := p.Elements
	if hasRest {
		positional = p.Elements[:len(p.Elements)-1]
	}

	loadScrutinee()
	lengthIdx := f.addConstant("length")
	f.emitOp1(bytecode.OpInvoke, lengthIdx, p.SpanVal)
	f.chunk.EmitU16(0, p.SpanVal)
	f.emitConstantNumber(float64(len(positional)), p.SpanVal)
	if hasRest {
		f.emit(bytecode.OpGreaterEqual, p.SpanVal)
	} else {
		f.emit(bytecode.OpEqual, p.SpanVal)
	}
	fail := f.emitJump(bytecode.OpJumpIfFalse, p.SpanVal)
	f.emit(bytecode.OpPop, p.SpanVal)
	fails := []int{fail}

	for i, el := range positional {
		idx := i
		loadElement := func() {
			loadScrutinee()
			f.emitConstantNumber(float64(idx), p.SpanVal)
			f.emit(bytecode.OpGetIndex, p.SpanVal)
		}
		fails = append(fails, f.compilePatternTest(el.Sub, loadElement)...)
	}

	if hasRest {
		rest := p.Elements[len(p.Elements)-1]
		loadScrutinee()
		f.emitConstantNumber(float64(len(positional)), p.SpanVal)
		nameIdx := f.addConstant("slice")
		f.emitOp1(bytecode.OpInvoke, nameIdx, p.SpanVal)
		f.chunk.EmitU16(1, p.SpanVal)
		f.declareLocal(rest.RestName, false, p.SpanVal)
	}

	return fails
}

// compileDictPatternTest probes each named entry via GetProperty and tests
// its sub-pattern against the result; a missing key reads as Null, which
// only a Null literal pattern or an unguarded binding will accept.
func (f *fc) compileDictPatternTest(p *ast.DictPattern, loadScrutinee func()) []int {
	var fails []int
	for _, entry := range p.Entries {
		key := entry.Key
		loadEntry := func() {
			loadScrutinee()
			keyIdx := f.addConstant(key)
			f.emitOp1(bytecode.OpGetProperty, keyIdx, p.SpanVal)
		}
		fails = append(fails, f.compilePatternTest(entry.Sub, loadEntry)...)
	}
	return fails
}

// emitScopeCleanup emits the instructions that discard every local declared
// deeper than newDepth, without touching the compiler's own bookkeeping
// (f.locals, f.scopeDepth) — used when two different runtime paths
// (pattern matched vs. pattern failed) each need their own copy of the
// cleanup code from one shared compile-time scope. keepTop requests the
// Swap-before-Pop/CloseUpvalue sequence that preserves a value already on
// top of the stack (the match path's body result); otherwise it is plain
// Pop/CloseUpvalue (the fail path has nothing worth keeping).
func (f *fc) emitScopeCleanup(newDepth int, span bytecode.Span, keepTop bool) {
	for i := len(f.locals) - 1; i >= 0 && f.locals[i].depth > newDepth; i-- {
		if keepTop {
			f.emit(bytecode.OpSwap, span)
		}
		if f.locals[i].isCaptured {
			f.emit(bytecode.OpCloseUpvalue, span)
		} else {
			f.emit(bytecode.OpPop, span)
		}
	}
}

// popScopeBookkeeping performs the compile-time-only half of closing a
// scope whose cleanup instructions were already emitted (twice) by
// emitScopeCleanup: it drops the scope's locals from f.locals and restores
// f.scopeDepth, without emitting anything.
func (f *fc) popScopeBookkeeping(newDepth int) {
	f.scopeDepth = newDepth
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > newDepth {
		f.locals = f.locals[:len(f.locals)-1]
	}
}
