// Package compiler lowers an AST (pkg/ast) into bytecode (pkg/bytecode)
// executable by pkg/vm. It owns scope and upvalue resolution, constant
// folding, and the compile-time checks (duplicate declarations, const
// reassignment) spec.md §4.1 assigns to this layer; lexing and parsing are
// external collaborators and never appear here.
package compiler

import (
	"fmt"

	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/bytecode"
)

// CompileError reports a problem the compiler itself detected (as opposed
// to one raised by the running program): a duplicate declaration, a
// reassigned const, an unresolved break/continue outside a loop.
type CompileError struct {
	Message string
	Span    bytecode.Span
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Message, e.Span.Start.Line)
}

// local tracks one slot of the current function's operand-stack-resident
// variables.
type local struct {
	name        string
	depth       int
	initialized bool
	isCaptured  bool
	isConst     bool
}

type loopCtx struct {
	depthAtEntry int
	breakSites   []int

	// continueTarget is the byte offset a backward Loop to handle continue
	// should aim at, valid when continueIsBackward is true (set as soon as
	// the target is known — upfront for while-loops). Otherwise continue
	// sites are buffered in continueSites as forward Jump placeholders and
	// patched once the target (the increment step, or the condition re-
	// check in a do-while) is reached.
	continueIsBackward bool
	continueTarget      int
	continueSites       []int
}

// fc ("function compiler") holds all state needed to compile one function
// body: its own chunk, its locals, its upvalue list, and a link to the
// enclosing fc for upvalue resolution (spec.md §4.1's "walks outward").
type fc struct {
	enclosing *fc

	proto *bytecode.FunctionProto
	chunk *bytecode.Chunk

	locals     []local
	scopeDepth int
	upvalues   []bytecode.UpvalueDesc

	loops []loopCtx

	namespaceContext string
	classContext     string

	// knownParams records the declared parameter order of every named
	// function seen anywhere in this compilation (top-level functions and
	// class methods), shared across every fc via the root's map. It lets
	// compileCall reorder named arguments (`foo(n: 3)`) into positional
	// slots when the callee is a plain identifier naming one of them.
	knownParams map[string][]string

	errs []error
}

func newFC(enclosing *fc, name, file, namespaceCtx, classCtx string) *fc {
	chunk := bytecode.NewChunk(name, file)
	knownParams := map[string][]string{}
	if enclosing != nil {
		knownParams = enclosing.knownParams
	}
	f := &fc{
		enclosing: enclosing,
		chunk:     chunk,
		proto: &bytecode.FunctionProto{
			Name:             name,
			File:             file,
			Chunk:            chunk,
			NamespaceContext: namespaceCtx,
			ClassContext:     classCtx,
		},
		namespaceContext: namespaceCtx,
		classContext:     classCtx,
		knownParams:      knownParams,
	}
	// Slot 0 is always reserved (self in methods, unused otherwise),
	// matching the Call Frame layout spec.md §3.7 describes.
	f.locals = append(f.locals, local{name: "", depth: 0, initialized: true})
	return f
}

// Compile lowers a top-level program into the FunctionProto the VM runs as
// the outermost call frame.
func Compile(prog *ast.Program, file string) (*bytecode.FunctionProto, error) {
	top := newFC(nil, "<script>", file, "", "")
	for _, s := range prog.Statements {
		top.compileStmt(s)
	}
	top.emit(bytecode.OpNull, bytecode.Span{})
	top.emit(bytecode.OpReturn, bytecode.Span{})
	if len(top.errs) > 0 {
		return nil, top.errs[0]
	}
	return top.proto, nil
}

func (f *fc) fail(span bytecode.Span, format string, a ...any) {
	f.errs = append(f.errs, &CompileError{Message: fmt.Sprintf(format, a...), Span: span})
}

// --- emit helpers ---

func (f *fc) emit(op bytecode.Op, span bytecode.Span) int { return f.chunk.Emit(op, span) }

func (f *fc) emitOp1(op bytecode.Op, operand uint16, span bytecode.Span) int {
	return f.chunk.EmitOp1(op, operand, span)
}

func (f *fc) addConstant(v any) uint16 { return f.chunk.AddConstant(v) }

// emitJump emits op with a placeholder u16 offset and returns the byte
// offset of that operand, for a later patchJump call once the target is
// known.
func (f *fc) emitJump(op bytecode.Op, span bytecode.Span) int {
	opOffset := f.emit(op, span)
	f.chunk.EmitU16(0xFFFF, span)
	return opOffset + 1
}

// patchJump back-patches the jump operand at operandOffset to land at the
// chunk's current end.
func (f *fc) patchJump(operandOffset int) {
	target := f.chunk.Len()
	dist := target - (operandOffset + 2)
	if dist < 0 || dist > 0xFFFF {
		panic(fmt.Sprintf("compiler: jump distance %d out of range", dist))
	}
	f.chunk.PatchU16(operandOffset, uint16(dist))
}

// emitLoop emits Loop with the backward offset to startOffset.
func (f *fc) emitLoop(startOffset int, span bytecode.Span) {
	opOffset := f.emit(bytecode.OpLoop, span)
	afterOperand := opOffset + 3
	dist := afterOperand - startOffset
	if dist < 0 || dist > 0xFFFF {
		panic(fmt.Sprintf("compiler: loop distance %d out of range", dist))
	}
	f.chunk.EmitU16(uint16(dist), span)
}

// --- scope management ---

func (f *fc) beginScope() { f.scopeDepth++ }

// endScope pops locals declared in the scope being left, emitting
// CloseUpvalue for any that were captured (spec.md §4.6) and Pop otherwise.
func (f *fc) endScope(span bytecode.Span) {
	f.scopeDepth--
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > f.scopeDepth {
		last := f.locals[len(f.locals)-1]
		if last.isCaptured {
			f.emit(bytecode.OpCloseUpvalue, span)
		} else {
			f.emit(bytecode.OpPop, span)
		}
		f.locals = f.locals[:len(f.locals)-1]
	}
}

// endScopeKeepTop closes the current scope like endScope, but preserves the
// value on top of the stack (the result of a block used in expression
// position) by swapping each discarded local underneath it before popping,
// since Pop/CloseUpvalue only ever touch the very top of the stack.
func (f *fc) endScopeKeepTop(span bytecode.Span) {
	f.scopeDepth--
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > f.scopeDepth {
		last := f.locals[len(f.locals)-1]
		f.emit(bytecode.OpSwap, span)
		if last.isCaptured {
			f.emit(bytecode.OpCloseUpvalue, span)
		} else {
			f.emit(bytecode.OpPop, span)
		}
		f.locals = f.locals[:len(f.locals)-1]
	}
}

// declareLocal adds name as a new local in the current scope, failing if
// it duplicates another local already declared in this exact scope depth
// (spec.md: "declaring the same name twice in the same block is a compile
// error").
func (f *fc) declareLocal(name string, isConst bool, span bytecode.Span) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		l := f.locals[i]
		if l.depth < f.scopeDepth {
			break
		}
		if l.name == name {
			f.fail(span, "variable %q already declared in this scope", name)
			return
		}
	}
	f.locals = append(f.locals, local{name: name, depth: f.scopeDepth, initialized: true, isConst: isConst})
}

// resolveLocal searches this function's own locals, innermost first.
func (f *fc) resolveLocal(name string) (slot int, isConst bool, ok bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return i, f.locals[i].isConst, true
		}
	}
	return 0, false, false
}

// resolveUpvalue implements the recursive resolution spec.md §4.1
// describes: if name is a local of the enclosing function, capture it
// directly; otherwise recurse into the enclosing function's own upvalues.
func (f *fc) resolveUpvalue(name string) (int, bool) {
	if f.enclosing == nil {
		return 0, false
	}
	if slot, _, ok := f.enclosing.resolveLocal(name); ok {
		f.enclosing.locals[slot].isCaptured = true
		return f.addUpvalue(bytecode.UpvalueDesc{Index: slot, IsLocal: true}), true
	}
	if idx, ok := f.enclosing.resolveUpvalue(name); ok {
		return f.addUpvalue(bytecode.UpvalueDesc{Index: idx, IsLocal: false}), true
	}
	return 0, false
}

// addUpvalue appends desc unless an identical one is already registered,
// returning its index either way.
func (f *fc) addUpvalue(desc bytecode.UpvalueDesc) int {
	for i, existing := range f.upvalues {
		if existing == desc {
			return i
		}
	}
	f.upvalues = append(f.upvalues, desc)
	f.proto.Upvalues = f.upvalues
	return len(f.upvalues) - 1
}
