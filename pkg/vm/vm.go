// Package vm implements the Sald bytecode virtual machine: a stack-based
// interpreter that executes a *bytecode.FunctionProto produced by
// pkg/compiler (or assembled directly by pkg/chunkasm for tests).
//
// Execution pipeline:
//
//	Source -> (external lexer/parser) -> AST -> pkg/compiler -> Chunk -> VM -> Value | suspension
//
// The VM owns five pieces of state: the operand stack, the call-frame
// stack, the exception-handler stack, the open-upvalue registry, and the
// active globals table. Dispatch is a single switch over bytecode.Op,
// reading inline u16 operands directly out of the current frame's chunk —
// no separate decode pass, matching the teacher's straight-line
// instruction-pointer loop.
package vm

import (
	"fmt"

	"github.com/saldlang/sald/internal/errs"
	"github.com/saldlang/sald/pkg/bytecode"
	"github.com/saldlang/sald/pkg/heap"
	"github.com/saldlang/sald/pkg/value"
)

// stackMax is the nominal operand-stack size. push does not check it: the
// operand stack grows on demand without a limit.
const stackMax = 1 << 16

// frameMax bounds call-frame depth, catching runaway recursion the way
// spec.md §4.3 requires ("frame stack has a hard limit").
const frameMax = 1024

// VM is one Sald execution context. It is not safe for concurrent use by
// multiple goroutines (spec.md §5: "one VM executes cooperatively on one
// thread"); independent VMs share no mutable state of their own.
type VM struct {
	stack []value.Value
	sp    int

	frames []*Frame

	handlers []*ExceptionHandler

	globals *value.Globals
	heap    *heap.Heap

	openUpvalues []*value.Upvalue

	// classesByName records every class constructed during this run, keyed
	// by its own declared name, independent of whether that name was ever
	// bound to a global (a namespace-nested class never is). GetSuper uses
	// it to resolve the class a method body was compiled against back to
	// its live Superclass pointer.
	classesByName map[string]*value.Class

	natives *nativeClasses

	resolver ModuleResolver
	// moduleCache avoids re-executing a module already imported in this
	// VM's lifetime; keyed by the resolved module path.
	moduleCache map[string]*value.Globals
}

// Config tunes the knobs a host may want to set before running a program —
// stack size and GC pacing — without reaching into VM internals.
type Config struct {
	// InitialStackSize seeds the operand stack's capacity. Zero selects a
	// default of 256 slots; the stack still grows on demand past this.
	InitialStackSize int
	// SweepEvery overrides the heap's sweep pacing (spec.md §9's "after
	// every N operations" heuristic). Zero selects heap.New's default.
	SweepEvery int
}

// New returns a VM with an empty global scope, the minimal native class
// surface installed, and the default file-based module resolver.
func New() *VM {
	return NewWithConfig(Config{})
}

// NewWithConfig is like New but lets a host override stack size and GC
// pacing via its own run configuration (e.g. cmd/sald's sald.toml).
func NewWithConfig(cfg Config) *VM {
	stackSize := cfg.InitialStackSize
	if stackSize <= 0 {
		stackSize = 256
	}
	vm := &VM{
		stack:         make([]value.Value, stackSize),
		globals:       value.NewGlobals(),
		heap:          heap.New(cfg.SweepEvery),
		resolver:      FileResolver{},
		moduleCache:   make(map[string]*value.Globals),
		classesByName: make(map[string]*value.Class),
	}
	vm.natives = newNativeClasses()
	return vm
}

// SetResolver overrides the module resolver used by Import/ImportAs.
func (vm *VM) SetResolver(r ModuleResolver) { vm.resolver = r }

// Globals exposes the VM's active global table, mostly for tests and for a
// host that wants to install additional built-ins before Run.
func (vm *VM) Globals() *value.Globals { return vm.globals }

// Heap exposes the tracked-container registry, for tests asserting
// Property 6 (cycle collection).
func (vm *VM) Heap() *heap.Heap { return vm.heap }

// ExecutionStatus distinguishes the three outcomes Run can produce, per
// spec.md §4.8's suspend/resume protocol.
type ExecutionStatus int

const (
	Completed ExecutionStatus = iota
	Suspended
	Errored
)

// ExecutionResult is what Run (and Resume) return. A Suspended result
// carries the Future the dispatch loop is blocked on; the host driver
// resolves or rejects it and calls Resume to continue.
type ExecutionResult struct {
	Status ExecutionStatus
	Value  value.Value
	Future *value.Future
	Err    error
}

// Run executes proto as the outermost call frame and drives the dispatch
// loop until it returns, suspends on an unresolved Future, or errors.
func (vm *VM) Run(proto *bytecode.FunctionProto) ExecutionResult {
	fn := value.NewFunction(proto, nil)
	calleeSlot := vm.sp
	vm.push(value.Object(value.KindFunction, fn))
	if err := vm.callValue(calleeSlot, 0); err != nil {
		return vm.errorResult(err)
	}
	return vm.dispatch()
}

// Resume continues a suspended VM after the host has settled the Future
// returned in the prior Suspended result. The resolved value (or, on
// rejection, a thrown exception) is routed through the same Await site
// that suspended, and dispatch continues from there.
func (vm *VM) Resume(future *value.Future) ExecutionResult {
	state, v, err := future.Poll()
	if state == value.FuturePending {
		return ExecutionResult{Status: Suspended, Future: future}
	}
	if state == value.FutureRejected {
		message := "Future was cancelled"
		if err != nil {
			message = err.Error()
		}
		if unwErr := vm.unwindToHandler(errs.New(errs.RuntimeError, "%s", message)); unwErr != nil {
			return vm.errorResult(unwErr)
		}
		return vm.dispatch()
	}
	vm.push(v)
	return vm.dispatch()
}

// dispatch is the main instruction loop. It runs until the outermost frame
// returns (frame stack drained back to empty, its result left on the
// operand stack), an Await suspends on a pending
// Future, or an error escapes every installed handler.
func (vm *VM) dispatch() ExecutionResult {
	for {
		if len(vm.frames) == 0 {
			v := value.Null
			if vm.sp > 0 {
				v = vm.stack[vm.sp-1]
			}
			return ExecutionResult{Status: Completed, Value: v}
		}
		f := vm.frames[len(vm.frames)-1]
		chunk := f.Function.Proto.Chunk

		if f.IP >= len(chunk.Code) {
			return vm.errorResult(fmt.Errorf("vm: instruction pointer ran off the end of %s", f.Function.Proto.Name))
		}

		op := bytecode.Op(chunk.Code[f.IP])
		f.IP++

		vm.heap.MaybeSweep(vm.roots)

		suspend, err := vm.step(f, chunk, op)
		if err != nil {
			if unwErr := vm.unwindToHandler(err); unwErr != nil {
				return vm.errorResult(unwErr)
			}
			continue
		}
		if suspend != nil {
			return ExecutionResult{Status: Suspended, Future: suspend}
		}
	}
}

// roots returns every currently reachable VM-owned starting point for the
// heap sweep: the whole operand stack and every global (spec.md §4.7).
func (vm *VM) roots() []any {
	out := make([]any, 0, vm.sp+8)
	for i := 0; i < vm.sp; i++ {
		if r := vm.stack[i].Root(); r != nil {
			out = append(out, r)
		}
	}
	for _, name := range vm.globals.Names() {
		if v, ok := vm.globals.Get(name); ok {
			if r := v.Root(); r != nil {
				out = append(out, r)
			}
		}
	}
	return out
}

func (vm *VM) errorResult(err error) ExecutionResult {
	return ExecutionResult{Status: Errored, Err: err}
}

// --- operand-stack primitives ---

func (vm *VM) push(v value.Value) {
	if vm.sp == len(vm.stack) {
		vm.stack = append(vm.stack, v)
	} else {
		vm.stack[vm.sp] = v
	}
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.Value{}
	return v
}

func (vm *VM) peek(distFromTop int) value.Value {
	return vm.stack[vm.sp-1-distFromTop]
}

// StackAt and SetStackAt implement value.StackAccessor, letting an open
// Upvalue read/write through a live stack slot without pkg/value importing
// pkg/vm.
func (vm *VM) StackAt(index int) value.Value     { return vm.stack[index] }
func (vm *VM) SetStackAt(index int, v value.Value) { vm.stack[index] = v }

func (vm *VM) readU16(f *Frame, chunk *bytecode.Chunk) uint16 {
	v := chunk.ReadU16(f.IP)
	f.IP += 2
	return v
}

func (vm *VM) currentSpan(f *Frame, chunk *bytecode.Chunk) bytecode.Span {
	return chunk.Spans.Lookup(f.IP - 1)
}
