package bytecode

// UpvalueDesc tells OpClosure how to populate one slot of a new closure's
// upvalue list: either by capturing one of the *enclosing* function's own
// locals (IsLocal true, Index is a stack-slot-relative local index) or by
// copying an upvalue the enclosing function already captured (IsLocal
// false, Index indexes the enclosing function's own Upvalues list). This is
// exactly the recursive resolution spec.md §4.1 describes: a chain of
// nested closures transparently sees a variable from any ancestor scope.
type UpvalueDesc struct {
	Index   int
	IsLocal bool
}

// FunctionProto is a function's immutable, compile-time descriptor — the
// thing that lives in a constant pool. It never changes after the compiler
// emits it; the mutable, per-closure-instance state (bound Upvalue objects)
// lives on value.Function, which wraps a *FunctionProto.
type FunctionProto struct {
	Name  string
	File  string
	Chunk *Chunk

	Arity        int
	DefaultCount int
	IsVariadic   bool
	IsAsync      bool

	ParamNames []string
	Decorators []string

	// NamespaceContext and ClassContext are lexical tags used by the VM's
	// private-access check (spec.md §4.4): a closure defined inside a
	// method or namespace body carries the name of its lexical owner so
	// that private members stay reachable from nested lambdas.
	NamespaceContext string
	ClassContext     string

	Upvalues []UpvalueDesc
}

// UpvalueCount reports how many upvalues a closure built from this
// descriptor must capture — callers use this to validate a Closure
// instruction's implied arity against the descriptor that produced it.
func (p *FunctionProto) UpvalueCount() int { return len(p.Upvalues) }

// ClassProto is the data-model counterpart to FunctionProto for classes:
// spec.md §3.2 lists Class(descriptor) as a constant-pool entry kind
// alongside Function(descriptor). No opcode in this instruction set
// actually indexes a ClassProto constant — OpClass takes a name constant
// and builds a fresh empty Class at runtime, with OpMethod/OpStaticMethod/
// OpInherit populating it incrementally — so ClassProto exists here purely
// for symmetry with the data model and as a home for any future embedding
// of a fully-formed class value as a literal constant.
type ClassProto struct {
	Name           string
	SuperclassName string
}
