package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldlang/sald/internal/errs"
	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/compiler"
	"github.com/saldlang/sald/pkg/vm"
)

// classC builds the ast.ClassDef spec.md's S3/S4 use: an init method that
// stores its argument into a private field, and a get method that reads it
// back from inside the class.
func classC() ast.ClassDef {
	return ast.ClassDef{
		Name: "C",
		Methods: []ast.FunctionDef{
			{
				Name:   "init",
				Params: []ast.FunctionParam{{Name: "n"}},
				Body: []ast.Stmt{
					&ast.ExpressionStmt{Inner: &ast.SetExpr{
						Object:   &ast.SelfExpr{},
						Property: "_n",
						Value:    &ast.IdentifierExpr{Name: "n"},
					}},
				},
			},
			{
				Name: "get",
				Body: []ast.Stmt{
					&ast.ReturnStmt{Value: &ast.GetExpr{
						Object:   &ast.SelfExpr{},
						Property: "_n",
					}},
				},
			},
		},
	}
}

// callC5Get builds `C(5).get()`.
func callC5Get() ast.Expr {
	return &ast.CallExpr{
		Callee: &ast.GetExpr{
			Object: &ast.CallExpr{
				Callee: &ast.IdentifierExpr{Name: "C"},
				Args:   []ast.CallArg{{Value: &ast.LiteralExpr{Value: ast.Literal{Kind: ast.LiteralNumber, Num: 5}}}},
			},
			Property: "get",
		},
	}
}

// S3: a private field set and read from inside the owning class's own
// methods succeeds.
func TestScenarioPrivateFieldAccessibleFromOwningClass(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.ClassStmt{Def: classC()},
		&ast.LetStmt{Name: "result", Initializer: callC5Get()},
	}}

	proto, err := compiler.Compile(prog, "<test>")
	require.NoError(t, err)

	m := vm.New()
	result := m.Run(proto)
	require.Equal(t, vm.Completed, result.Status)

	got, ok := m.Globals().Get("result")
	require.True(t, ok)
	assert.Equal(t, float64(5), got.AsNumber())
}

// S4/Property 4: reading the same private field from outside the class
// (top level, whose class_context is empty) raises AccessError.
func TestScenarioPrivateFieldDeniedOutsideOwningClass(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.ClassStmt{Def: classC()},
		&ast.ExpressionStmt{Inner: &ast.GetExpr{
			Object: &ast.CallExpr{
				Callee: &ast.IdentifierExpr{Name: "C"},
				Args:   []ast.CallArg{{Value: &ast.LiteralExpr{Value: ast.Literal{Kind: ast.LiteralNumber, Num: 5}}}},
			},
			Property: "_n",
		}},
	}}

	proto, err := compiler.Compile(prog, "<test>")
	require.NoError(t, err)

	result := vm.New().Run(proto)
	require.Equal(t, vm.Errored, result.Status)
	require.Error(t, result.Err)

	e, ok := result.Err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.AccessError, e.Kind)
}

// A subclass method can still reach a private field declared on its
// superclass, since class_context for an inherited method still names the
// class it was originally compiled against, and AccessAllowed walks the
// Superclass chain.
func TestPrivateFieldAccessibleThroughInheritedMethod(t *testing.T) {
	base := ast.ClassDef{
		Name: "Base",
		Methods: []ast.FunctionDef{
			{
				Name:   "init",
				Params: []ast.FunctionParam{{Name: "n"}},
				Body: []ast.Stmt{
					&ast.ExpressionStmt{Inner: &ast.SetExpr{
						Object:   &ast.SelfExpr{},
						Property: "_n",
						Value:    &ast.IdentifierExpr{Name: "n"},
					}},
				},
			},
			{
				Name: "get",
				Body: []ast.Stmt{
					&ast.ReturnStmt{Value: &ast.GetExpr{Object: &ast.SelfExpr{}, Property: "_n"}},
				},
			},
		},
	}
	derived := ast.ClassDef{Name: "Derived", Superclass: "Base"}

	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.ClassStmt{Def: base},
		&ast.ClassStmt{Def: derived},
		&ast.LetStmt{Name: "result", Initializer: &ast.CallExpr{
			Callee: &ast.GetExpr{
				Object: &ast.CallExpr{
					Callee: &ast.IdentifierExpr{Name: "Derived"},
					Args:   []ast.CallArg{{Value: &ast.LiteralExpr{Value: ast.Literal{Kind: ast.LiteralNumber, Num: 9}}}},
				},
				Property: "get",
			},
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
