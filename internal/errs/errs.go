// Package errs implements Sald's error taxonomy (spec.md §7): a closed set
// of runtime error Kinds plus a single *Error type carrying the span, file,
// source excerpt, and stack trace an uncaught exception is reported with.
// Shaped after the Romualdo front-end's pkg/errs — one interface with an
// ExitCode, one constructor per case — generalized from that package's
// tool-level error variants to Sald's runtime exception kinds.
package errs

import (
	"fmt"
	"strings"

	"github.com/saldlang/sald/pkg/bytecode"
)

// Kind tags which case of the taxonomy an Error represents. These are the
// exception *kinds* raised at runtime; they are not Go types, so a `catch`
// clause pattern-matching on kind doesn't need a type switch.
type Kind int

const (
	SyntaxError Kind = iota
	NameError
	TypeError
	ArgumentError
	IndexError
	AttributeError
	DivisionByZero
	ImportError
	AccessError
	RuntimeError
	InterfaceError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case NameError:
		return "NameError"
	case TypeError:
		return "TypeError"
	case ArgumentError:
		return "ArgumentError"
	case IndexError:
		return "IndexError"
	case AttributeError:
		return "AttributeError"
	case DivisionByZero:
		return "DivisionByZero"
	case ImportError:
		return "ImportError"
	case AccessError:
		return "AccessError"
	case RuntimeError:
		return "RuntimeError"
	case InterfaceError:
		return "InterfaceError"
	default:
		return "UnknownError"
	}
}

// exit codes, one per kind family plus a catch-all, in the style of
// romualdo's status.go.
const (
	ExitCodeSuccess  = 0
	ExitCodeSyntax   = 1
	ExitCodeRuntime  = 70
	ExitCodeBadUsage = 64
)

// Frame describes one entry of an uncaught exception's stack trace,
// innermost frame first (spec.md §7's user-visible behavior).
type Frame struct {
	FunctionName string
	File         string
	Span         bytecode.Span
}

// Error is Sald's single runtime-exception type. Kind selects which case of
// the taxonomy applies; the remaining fields are all optional context a
// reporter can render as it sees fit.
type Error struct {
	Kind    Kind
	Message string

	File   string
	Span   bytecode.Span
	Source string // the offending line's source text, if available

	Stack []Frame
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// WithSpan returns a copy of e with file/span/source context attached,
// useful for annotating an error at the point the VM catches it without
// having had that context at construction time.
func (e *Error) WithSpan(file string, span bytecode.Span, source string) *Error {
	out := *e
	out.File = file
	out.Span = span
	out.Source = source
	return &out
}

// WithStack returns a copy of e with a stack trace attached.
func (e *Error) WithStack(frames []Frame) *Error {
	out := *e
	out.Stack = frames
	return &out
}

// Error fulfills the error interface. It renders the user-visible
// uncaught-exception format spec.md §7 requires: file, line/column, a
// span-underlined excerpt when available, and the innermost-first trace.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.File != "" {
		fmt.Fprintf(&b, "\n  at %s:%d:%d", e.File, e.Span.Start.Line, e.Span.Start.Column)
	}
	if e.Source != "" {
		b.WriteString("\n    " + e.Source)
		b.WriteString("\n    " + underline(e.Span))
	}
	for _, f := range e.Stack {
		fmt.Fprintf(&b, "\n  in %s (%s:%d)", f.FunctionName, f.File, f.Span.Start.Line)
	}
	return b.String()
}

// ExitCode reports the process exit status an uncaught Error of this kind
// should produce.
func (e *Error) ExitCode() int {
	if e.Kind == SyntaxError {
		return ExitCodeSyntax
	}
	return ExitCodeRuntime
}

// underline renders a caret line under the column range span covers on a
// single source line, for the span-underlined excerpt spec.md §7 names.
func underline(span bytecode.Span) string {
	col := span.Start.Column
	if col < 1 {
		col = 1
	}
	width := span.End.Column - span.Start.Column
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", col-1) + strings.Repeat("^", width)
}
