package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/compiler"
	"github.com/saldlang/sald/pkg/vm"
)

// A namespace-local `let` is exported and readable via plain namespace
// member access: `namespace NS { let x = 9 } print(NS.x)`.
func TestNamespaceExportsLetAsMember(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.NamespaceStmt{
			Name: "NS",
			Body: []ast.Stmt{
				&ast.LetStmt{Name: "x", Initializer: numLit(9)},
			},
		},
		&ast.LetStmt{Name: "result", Initializer: &ast.GetExpr{
			Object: &ast.IdentifierExpr{Name: "NS"}, Property: "x",
		}},
	}}

	proto, err := compiler.Compile(prog, "<test>")
	require.NoError(t, err)

	m := vm.New()
	result := m.Run(proto)
	require.Equal(t, vm.Completed, result.Status)

	got, ok := m.Globals().Get("result")
	require.True(t, ok)
	assert.Equal(t, float64(9), got.AsNumber())
}

// spec.md §4.1: a function declared inside a namespace captures the
// namespace's own let-bound constant as an upvalue, the same mechanism a
// nested function uses to capture an enclosing function's local. Calling
// the exported function after the namespace has finished executing must
// still see that namespace-local value.
func TestNamespaceFunctionCapturesNamespaceLocalAsUpvalue(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.NamespaceStmt{
			Name: "NS",
			Body: []ast.Stmt{
				&ast.LetStmt{Name: "secret", Initializer: numLit(42)},
				&ast.FunctionStmt{Def: ast.FunctionDef{
					Name: "reveal",
					Body: []ast.Stmt{
						&ast.ReturnStmt{Value: &ast.IdentifierExpr{Name: "secret"}},
					},
				}},
			},
		},
		&ast.LetStmt{Name: "result", Initializer: &ast.CallExpr{
			Callee: &ast.GetExpr{Object: &ast.IdentifierExpr{Name: "NS"}, Property: "reveal"},
		}},
	}}

	proto, err := compiler.Compile(prog, "<test>")
	require.NoError(t, err)

	m := vm.New()
	result := m.Run(proto)
	require.Equal(t, vm.Completed, result.Status)

	got, ok := m.Globals().Get("result")
	require.True(t, ok)
	assert.Equal(t, float64(42), got.AsNumber())
}

// A namespace nested inside another namespace is itself exported as a
// member, and its own members are reachable through normal dotted access:
// `namespace A { namespace B { let y = 3 } } print(A.B.y)`.
func TestNestedNamespaceIsExportedAsMember(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.NamespaceStmt{
			Name: "A",
			Body: []ast.Stmt{
				&ast.NamespaceStmt{
					Name: "B",
					Body: []ast.Stmt{
						&ast.LetStmt{Name: "y", Initializer: numLit(3)},
					},
				},
			},
		},
		&ast.LetStmt{Name: "result", Initializer: &ast.GetExpr{
			Object:   &ast.GetExpr{Object: &ast.IdentifierExpr{Name: "A"}, Property: "B"},
			Property: "y",
		}},
	}}

	proto, err := compiler.Compile(prog, "<test>")
	require.NoError(t, err)

	m := vm.New()
	result := m.Run(proto)
	require.Equal(t, vm.Completed, result.Status)

	got, ok := m.Globals().Get("result")
	require.True(t, ok)
	assert.Equal(t, float64(3), got.AsNumber())
}
