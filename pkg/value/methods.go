package value

// NativeFunction wraps a Go-implemented builtin so it can flow through the
// value system like any user-defined function: pushed, bound, called via
// OpCall/OpInvoke. Name is used in stack traces and error messages.
type NativeFunction struct {
	Name string
	Fn   NativeFn
	// Arity is the declared parameter count, -1 if variadic/unchecked.
	Arity int
}

// NewNativeFunction returns a NativeFunction value wrapping fn.
func NewNativeFunction(name string, arity int, fn NativeFn) *NativeFunction {
	return &NativeFunction{Name: name, Fn: fn, Arity: arity}
}

// BoundMethod pairs a Class method (user-defined Function or NativeFunction,
// carried as an opaque Value so both cases share one representation) with
// the Instance it was looked up on. Calling a BoundMethod implicitly passes
// Receiver as the method's self.
type BoundMethod struct {
	Receiver Value
	Method   Value
}

// NewBoundMethod returns a BoundMethod value.
func NewBoundMethod(receiver, method Value) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: method}
}

// InstanceMethod is the unbound counterpart of BoundMethod: a method paired
// with the Class it was found on rather than with an Instance. Calling one
// passes Null as self. GetSuper does not use it: the VM's super lookup
// returns a BoundMethod.
type InstanceMethod struct {
	Owner  *Class
	Method Value
}

// NewInstanceMethod returns an InstanceMethod value.
func NewInstanceMethod(owner *Class, method Value) *InstanceMethod {
	return &InstanceMethod{Owner: owner, Method: method}
}
