package value

// Namespace is the runtime value produced by ImportAs: a snapshot of a
// module's exported bindings plus the Globals table that module executed
// against, so a later call into one of its functions can restore that
// module's own global scope for the duration of the call (the "globals
// swap" mechanism, spec.md §4.4/§9) before returning control — and the
// swapped-in table — to the caller.
type Namespace struct {
	Name    string
	Exports map[string]Value
	Globals *Globals
}

// NewNamespace returns a Namespace wrapping the given module globals.
func NewNamespace(name string, globals *Globals) *Namespace {
	exports := make(map[string]Value, len(globals.Names()))
	for _, n := range globals.Names() {
		v, _ := globals.Get(n)
		exports[n] = v
	}
	return &Namespace{Name: name, Exports: exports, Globals: globals}
}

// Get looks up an exported name.
func (n *Namespace) Get(name string) (Value, bool) {
	v, ok := n.Exports[name]
	return v, ok
}

// AccessAllowed implements the private-access rule for namespace members
// (spec.md §4.4): a private ("_"-prefixed) export is reachable only from
// code whose namespace_context is n's own namespace or a descendant of it —
// a function defined in "a.b.c" may reach private members of "a", "a.b", or
// "a.b.c", but not the reverse.
func (n *Namespace) AccessAllowed(name, accessorNamespace string) bool {
	if !IsPrivateName(name) {
		return true
	}
	return namespaceContains(n.Name, accessorNamespace)
}
