package value

// Enum is a fixed, ordered set of named variants built by OpBuildEnum. Each
// variant is a distinct value so that equality between variants is a plain
// pointer comparison on the *EnumVariant, matching the reference-identity
// equality containers use elsewhere (spec.md §3's equality rules).
type Enum struct {
	Name     string
	Variants []*EnumVariant
	byName   map[string]*EnumVariant
}

// EnumVariant is one named member of an Enum, tagged with its declaration
// order so switch/match range-of-variant comparisons and iteration stay
// stable.
type EnumVariant struct {
	Enum  *Enum
	Name  string
	Index int
}

// NewEnum builds an Enum from an ordered list of variant names.
func NewEnum(name string, variantNames []string) *Enum {
	e := &Enum{Name: name, byName: make(map[string]*EnumVariant, len(variantNames))}
	for i, vn := range variantNames {
		variant := &EnumVariant{Enum: e, Name: vn, Index: i}
		e.Variants = append(e.Variants, variant)
		e.byName[vn] = variant
	}
	return e
}

// Variant looks up a member by name.
func (e *Enum) Variant(name string) (*EnumVariant, bool) {
	v, ok := e.byName[name]
	return v, ok
}
