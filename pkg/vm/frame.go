package vm

import "github.com/saldlang/sald/pkg/value"

// Frame is one active call, mirroring spec.md §3.7's call-frame record.
// SlotsStart is the stack index the callee's slot 0 (self/receiver) lives
// at; every GetLocal/SetLocal operand is relative to it.
type Frame struct {
	Function *value.Function

	IP         int
	SlotsStart int

	// InitInstance is set when this frame is a class constructor call
	// (spec.md §4.3): Return substitutes this instance for whatever value
	// the init method actually computed.
	InitInstance value.Value
	IsInit       bool

	// ClassContext names the class this method was compiled against, for
	// the instance/class private-access check (spec.md §4.4).
	ClassContext string

	// NamespaceContext names the namespace this function was compiled in,
	// for the namespace private-access check (spec.md §4.4).
	NamespaceContext string

	// SavedGlobals holds the caller's globals handle when this frame was
	// entered via the module "globals swap" mechanism (spec.md §4.4/§9);
	// Return restores it.
	SavedGlobals *value.Globals
}

// pushFrame installs a new Frame for fn and returns it, failing with a
// RuntimeError if the frame stack's hard limit (spec.md §4.3) is exceeded.
func (vm *VM) pushFrame(fn *value.Function, slotsStart int) (*Frame, error) {
	if len(vm.frames) >= frameMax {
		return nil, vmError("RuntimeError", "stack overflow: call depth exceeded %d frames", frameMax)
	}
	f := &Frame{
		Function:         fn,
		SlotsStart:       slotsStart,
		ClassContext:     fn.Proto.ClassContext,
		NamespaceContext: fn.Proto.NamespaceContext,
	}
	vm.frames = append(vm.frames, f)
	return f, nil
}

// popFrame tears down the top frame per spec.md §4.3's Return contract:
// close every upvalue whose location is at or above slots_start, discard
// handlers installed within the returning frame, and restore saved globals
// if any. It leaves the stack pointer alone: doReturn and unwindToHandler
// reset vm.sp themselves.
func (vm *VM) popFrame() *Frame {
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]

	vm.closeUpvaluesFrom(f.SlotsStart)

	kept := vm.handlers[:0]
	for _, h := range vm.handlers {
		if h.FrameIndex < len(vm.frames) {
			kept = append(kept, h)
		}
	}
	vm.handlers = kept

	if f.SavedGlobals != nil {
		vm.globals = f.SavedGlobals
	}
	return f
}
