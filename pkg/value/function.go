package value

import "github.com/saldlang/sald/pkg/bytecode"

// Function is a runtime closure: an immutable FunctionProto paired with the
// Upvalue handles bound at the moment OpClosure materialized it. Two
// closures built from the same FunctionProto in different loop iterations
// each get their own Upvalues slice, which is what makes Property 3
// (upvalue sharing) hold — see spec.md §4.6 and §8.
type Function struct {
	Proto    *bytecode.FunctionProto
	Upvalues []*Upvalue
}

// NewFunction wraps proto with the given bound upvalues.
func NewFunction(proto *bytecode.FunctionProto, upvalues []*Upvalue) *Function {
	return &Function{Proto: proto, Upvalues: upvalues}
}

// Name returns the function's declared name (may be empty for lambdas).
func (f *Function) Name() string { return f.Proto.Name }

// Roots implements heap.Tracked: a closure keeps whatever its captured
// upvalues currently hold reachable, open or closed, so a container value
// that only survives inside a closed-over upvalue is still walked by the
// cycle collector's reachability pass (spec.md §4.7).
func (f *Function) Roots() []any {
	out := make([]any, 0, len(f.Upvalues))
	for _, uv := range f.Upvalues {
		if r := uv.Get().Root(); r != nil {
			out = append(out, r)
		}
	}
	return out
}
