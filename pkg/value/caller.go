package value

// Caller is implemented by the VM so that value-level types (NativeFunction
// bodies, string/array/dict builtin methods) can invoke back into Sald code
// without this package importing pkg/vm. Native methods that need to call a
// user-supplied callback (e.g. an array "map" or "filter")
// take a Caller and drive it synchronously.
type Caller interface {
	// Call invokes callee with args, returning its result or a Go error
	// wrapping whatever runtime error the VM produced.
	Call(callee Value, args []Value) (Value, error)
}

// NativeFn is the signature every native (builtin) function or method body
// implements. receiver is the bound instance for a method call, or Null for
// a free function. caller lets natives that accept callback arguments
// (array map/filter, and so on) invoke back into Sald code.
type NativeFn func(caller Caller, receiver Value, args []Value) (Value, error)
