package vm

import (
	"github.com/saldlang/sald/internal/errs"
)

// vmError builds an *errs.Error of the named kind, looked up by its
// errs.Kind.String() spelling so call sites read naturally
// (vmError("TypeError", ...)) without importing the errs package's
// constants directly into every file that raises one.
func vmError(kind string, format string, a ...any) *errs.Error {
	return errs.New(kindFromName(kind), format, a...)
}

func kindFromName(name string) errs.Kind {
	switch name {
	case "SyntaxError":
		return errs.SyntaxError
	case "NameError":
		return errs.NameError
	case "TypeError":
		return errs.TypeError
	case "ArgumentError":
		return errs.ArgumentError
	case "IndexError":
		return errs.IndexError
	case "AttributeError":
		return errs.AttributeError
	case "DivisionByZero":
		return errs.DivisionByZero
	case "ImportError":
		return errs.ImportError
	case "AccessError":
		return errs.AccessError
	case "InterfaceError":
		return errs.InterfaceError
	default:
		return errs.RuntimeError
	}
}

// attachFrame wraps err (which may already be an *errs.Error from a deeper
// call, or a plain Go error from a native method) with the current frame's
// file/span context and, if it isn't already an *errs.Error, reclassifies
// it as a generic RuntimeError.
func (vm *VM) attachFrame(err error, f *Frame) *errs.Error {
	chunk := f.Function.Proto.Chunk
	span := vm.currentSpan(f, chunk)

	e, ok := err.(*errs.Error)
	if !ok {
		e = errs.New(errs.RuntimeError, "%s", err.Error())
	}
	if e.File == "" {
		e = e.WithSpan(f.Function.Proto.File, span, "")
	}
	return e
}

// buildStackTrace renders the currently active frames, innermost first,
// into the errs.Frame slice an uncaught exception is reported with
// (spec.md §4.5/§7).
func (vm *VM) buildStackTrace() []errs.Frame {
	out := make([]errs.Frame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		chunk := f.Function.Proto.Chunk
		span := chunk.Spans.Lookup(f.IP - 1)
		out = append(out, errs.Frame{
			FunctionName: frameName(f),
			File:         f.Function.Proto.File,
			Span:         span,
		})
	}
	return out
}

func frameName(f *Frame) string {
	if f.Function.Proto.Name == "" {
		return "<lambda>"
	}
	return f.Function.Proto.Name
}
