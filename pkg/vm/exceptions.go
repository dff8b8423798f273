package vm

import "github.com/saldlang/sald/pkg/value"

// ExceptionHandler is the runtime counterpart of spec.md §3.8: installed by
// TryStart, popped by TryEnd or consumed by a matching Throw. The handler
// stack is strictly LIFO.
type ExceptionHandler struct {
	FrameIndex int // len(vm.frames)-1 at install time
	StackSize  int // vm.sp at install time
	CatchIP    int
}

// unwindToHandler implements spec.md §4.5's Raise: pop the nearest handler,
// tear down frames until only frame_index+1 remain, truncate the operand
// stack to stack_size, push the exception value, and resume at catch_ip.
// If no handler remains, the exception escapes as an *errs.Error with a
// full stack trace attached: a VM-raised error keeps its own kind, and
// anything else (a thrown value, a plain Go error) becomes a RuntimeError.
func (vm *VM) unwindToHandler(err error) error {
	if len(vm.handlers) == 0 {
		e := vm.attachFrame(err, vm.frames[len(vm.frames)-1])
		return e.WithStack(vm.buildStackTrace())
	}
	h := vm.handlers[len(vm.handlers)-1]
	vm.handlers = vm.handlers[:len(vm.handlers)-1]

	for len(vm.frames)-1 > h.FrameIndex {
		vm.popFrame()
	}
	vm.sp = h.StackSize

	exc := toExceptionValue(err)
	vm.push(exc)

	f := vm.frames[len(vm.frames)-1]
	f.IP = h.CatchIP
	return nil
}

// toExceptionValue converts a Go error into the Value a catch clause binds:
// the thrown value itself for a Throw (*thrownValue), otherwise the error's
// formatted message as a String, per spec.md §4.5 ("the exception's string
// form").
func toExceptionValue(err error) value.Value {
	if thrown, ok := err.(*thrownValue); ok {
		return thrown.v
	}
	return value.String(err.Error())
}

// thrownValue lets Throw (which operates on an arbitrary user Value, not
// just a string) round-trip the exact thrown value through the Go error
// channel that unwindToHandler consumes.
type thrownValue struct {
	v value.Value
}

func (t *thrownValue) Error() string {
	if t.v.Kind() == value.KindString {
		return t.v.AsString()
	}
	return "uncaught exception"
}
