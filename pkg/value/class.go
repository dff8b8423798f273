package value

import "strings"

// Class is a runtime class object: a method table built up incrementally by
// OpMethod/OpStaticMethod, optionally linked to a superclass by OpInherit
// (spec.md §4.3). Method lookup reads only the class's own tables: OpInherit
// merges the superclass's tables into the subclass's at definition time
// rather than chaining lookups dynamically, matching the single point
// ("Inherit") spec.md names for table merging.
type Class struct {
	Name       string
	Superclass *Class

	Methods       map[string]Value
	StaticMethods map[string]Value

	// Namespace is the lexical namespace this class was declared in.
	// Private-member access for instances/classes is decided by class_context
	// equality (AccessAllowed below), not by this field — it's kept for
	// diagnostics and for namespace-qualified lookups.
	Namespace string
}

// NewClass returns an empty class with no methods and no superclass.
func NewClass(name, namespace string) *Class {
	return &Class{
		Name:          name,
		Namespace:     namespace,
		Methods:       make(map[string]Value),
		StaticMethods: make(map[string]Value),
	}
}

// DefineMethod records an instance method.
func (c *Class) DefineMethod(name string, fn Value) { c.Methods[name] = fn }

// DefineStaticMethod records a static (class-level) method.
func (c *Class) DefineStaticMethod(name string, fn Value) { c.StaticMethods[name] = fn }

// Inherit merges super's method tables into c: every entry of super.Methods
// and super.StaticMethods is copied into c's own tables unless c already
// defines that name (a subclass method declared before Inherit executes
// — which never happens from compiled source, but matters for
// hand-assembled chunks — takes precedence). c.Superclass is set to super
// regardless, so GetSuper can still walk to it directly.
func (c *Class) Inherit(super *Class) {
	c.Superclass = super
	for name, fn := range super.Methods {
		if _, exists := c.Methods[name]; !exists {
			c.Methods[name] = fn
		}
	}
	for name, fn := range super.StaticMethods {
		if _, exists := c.StaticMethods[name]; !exists {
			c.StaticMethods[name] = fn
		}
	}
}

// FindMethod looks up name in c's own (already-merged) method table.
func (c *Class) FindMethod(name string) (Value, bool) {
	fn, ok := c.Methods[name]
	return fn, ok
}

// FindStaticMethod looks up name in c's own static-method table.
func (c *Class) FindStaticMethod(name string) (Value, bool) {
	fn, ok := c.StaticMethods[name]
	return fn, ok
}

// SuperFindMethod looks up name starting from c's superclass, for GetSuper.
func (c *Class) SuperFindMethod(name string) (Value, bool) {
	if c.Superclass == nil {
		return Null, false
	}
	return c.Superclass.FindMethod(name)
}

// IsPrivateName reports whether name uses the "_"-prefix private-member
// convention (spec.md §4.4: a bare "_" is not private, only length > 1 names
// that start with it).
func IsPrivateName(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, "_")
}

// AccessAllowed implements the private-access rule for instance/class
// members (spec.md §4.4): a private ("_"-prefixed) member is reachable only
// from a method whose compiled class_context names the owning class or one
// of its ancestors. Ancestors matter because Inherit copies a superclass's
// method Values as-is — an inherited method's own class_context still names
// the class it was originally declared in, not c itself.
func (c *Class) AccessAllowed(name, classContext string) bool {
	if !IsPrivateName(name) {
		return true
	}
	for cls := c; cls != nil; cls = cls.Superclass {
		if cls.Name == classContext {
			return true
		}
	}
	return false
}

// namespaceContains reports whether accessor is declaring or a descendant
// of declaring in the dotted-namespace hierarchy.
func namespaceContains(declaring, accessor string) bool {
	if declaring == "" {
		return true
	}
	if accessor == declaring {
		return true
	}
	return strings.HasPrefix(accessor, declaring+".")
}
