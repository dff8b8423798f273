package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saldlang/sald/pkg/value"
)

func TestTruthiness(t *testing.T) {
	assert.False(t, value.Null.Truthy())
	assert.False(t, value.Bool(false).Truthy())
	assert.True(t, value.Bool(true).Truthy())
	assert.True(t, value.Number(0).Truthy())
	assert.True(t, value.String("").Truthy())
	assert.True(t, value.Object(value.KindArray, value.NewArray(nil)).Truthy())
}

func TestEqualStructural(t *testing.T) {
	assert.True(t, value.Equal(value.Null, value.Null))
	assert.True(t, value.Equal(value.Number(3), value.Number(3)))
	assert.False(t, value.Equal(value.Number(3), value.Number(4)))
	assert.True(t, value.Equal(value.String("a"), value.String("a")))
	assert.False(t, value.Equal(value.Number(1), value.String("1")))
}

// NaN follows plain float semantics: not equal to itself, per spec.md's
// equality rule.
func TestEqualNaN(t *testing.T) {
	nan := value.Number(math.NaN())
	assert.False(t, value.Equal(nan, nan))
	assert.True(t, nan.IsNaN())
}

func TestEqualReferenceIdentityForContainers(t *testing.T) {
	a1 := value.NewArray([]value.Value{value.Number(1)})
	a2 := value.NewArray([]value.Value{value.Number(1)})
	v1 := value.Object(value.KindArray, a1)
	v2 := value.Object(value.KindArray, a2)
	v1Again := value.Object(value.KindArray, a1)

	assert.False(t, value.Equal(v1, v2), "distinct arrays with equal contents are not Equal")
	assert.True(t, value.Equal(v1, v1Again), "the same array pointer is Equal to itself")
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "null", value.Null.TypeName())
	assert.Equal(t, "number", value.Number(1).TypeName())
	assert.Equal(t, "string", value.String("x").TypeName())
	assert.Equal(t, "array", value.Object(value.KindArray, value.NewArray(nil)).TypeName())
}

func TestRootOnlyForObjectKinds(t *testing.T) {
	assert.Nil(t, value.Null.Root())
	assert.Nil(t, value.Number(1).Root())
	arr := value.NewArray(nil)
	v := value.Object(value.KindArray, arr)
	assert.Same(t, arr, v.Root())
}

func TestClassAccessAllowedPublicNamesAlwaysAllowed(t *testing.T) {
	c := value.NewClass("C", "")
	assert.True(t, c.AccessAllowed("name", ""))
	assert.True(t, c.AccessAllowed("name", "SomeOtherClass"))
}

func TestClassAccessAllowedPrivateNameRequiresOwnContext(t *testing.T) {
	c := value.NewClass("C", "")
	assert.False(t, c.AccessAllowed("_secret", ""))
	assert.False(t, c.AccessAllowed("_secret", "OtherClass"))
	assert.True(t, c.AccessAllowed("_secret", "C"))
}

// An inherited method's class_context still names the class it was
// originally declared on, so AccessAllowed must walk the Superclass chain
// to admit access from a subclass instance's method table.
func TestClassAccessAllowedWalksSuperclassChain(t *testing.T) {
	base := value.NewClass("Base", "")
	derived := value.NewClass("Derived", "")
	derived.Inherit(base)

	assert.True(t, derived.AccessAllowed("_secret", "Base"))
	assert.False(t, derived.AccessAllowed("_secret", "Unrelated"))
}

func TestNamespaceAccessAllowedHierarchy(t *testing.T) {
	globals := value.NewGlobals()
	ns := value.NewNamespace("a.b", globals)

	assert.True(t, ns.AccessAllowed("_secret", "a.b"), "same namespace can access its own private export")
	assert.True(t, ns.AccessAllowed("_secret", "a.b.c"), "a descendant namespace can access an ancestor's private export")
	assert.False(t, ns.AccessAllowed("_secret", "a"), "an ancestor namespace cannot reach a descendant's private export")
	assert.False(t, ns.AccessAllowed("_secret", "x.y"), "an unrelated namespace is denied")
	assert.True(t, ns.AccessAllowed("public", "x.y"), "public exports are always reachable")
}
