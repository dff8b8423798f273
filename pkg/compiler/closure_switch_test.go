package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/compiler"
	"github.com/saldlang/sald/pkg/value"
	"github.com/saldlang/sald/pkg/vm"
)

func numLit(n float64) *ast.LiteralExpr {
	return &ast.LiteralExpr{Value: ast.Literal{Kind: ast.LiteralNumber, Num: n}}
}

// Property 3 + S5: a lambda built fresh on each loop iteration closes over
// that iteration's own binding of the loop variable, not a shared slot —
// each one must return its own creation-time value later.
func TestPropertyUpvalueSharingPerLoopIteration(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.LetStmt{Name: "xs", Initializer: &ast.ArrayExpr{}},
		&ast.ForStmt{
			Variable: "i",
			Iterable: &ast.RangeExpr{Low: numLit(0), High: numLit(3), Inclusive: false},
			Body: &ast.BlockStmt{Statements: []ast.Stmt{
				&ast.ExpressionStmt{Inner: &ast.CallExpr{
					Callee: &ast.GetExpr{Object: &ast.IdentifierExpr{Name: "xs"}, Property: "push"},
					Args: []ast.CallArg{{Value: &ast.LambdaExpr{
						Body: ast.LambdaBody{Expr: &ast.IdentifierExpr{Name: "i"}},
					}}},
				}},
			}},
		},
		&ast.LetStmt{Name: "result", Initializer: &ast.ArrayExpr{Elements: []ast.Expr{
			&ast.CallExpr{Callee: &ast.IndexExpr{Object: &ast.IdentifierExpr{Name: "xs"}, Index: numLit(0)}},
			&ast.CallExpr{Callee: &ast.IndexExpr{Object: &ast.IdentifierExpr{Name: "xs"}, Index: numLit(1)}},
			&ast.CallExpr{Callee: &ast.IndexExpr{Object: &ast.IdentifierExpr{Name: "xs"}, Index: numLit(2)}},
		}}},
	}}

	proto, err := compiler.Compile(prog, "<test>")
	require.NoError(t, err)

	m := vm.New()
	result := m.Run(proto)
	require.Equal(t, vm.Completed, result.Status)

	got, ok := m.Globals().Get("result")
	require.True(t, ok)
	arr := got.AsObject().(*value.Array)
	require.Equal(t, 3, arr.Len())
	for i := 0; i < 3; i++ {
		v, ok := arr.Get(i)
		require.True(t, ok)
		assert.Equal(t, float64(i), v.AsNumber())
	}
}

// S7: a switch expression with an array pattern and a rest binding.
func TestScenarioSwitchArrayPatternWithRest(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.LetStmt{Name: "result", Initializer: &ast.SwitchExpr{
			Value: &ast.ArrayExpr{Elements: []ast.Expr{numLit(1), numLit(2), numLit(3)}},
			Arms: []ast.SwitchArm{
				{
					Patterns: []ast.Pattern{&ast.ArrayPattern{Elements: []ast.ArrayPatternElement{
						{Sub: &ast.BindingPattern{Name: "a"}},
						{IsRest: true, RestName: "r"},
					}}},
					Body: &ast.BinaryExpr{
						Left: &ast.IdentifierExpr{Name: "a"},
						Op:   ast.Add,
						Right: &ast.CallExpr{
							Callee: &ast.GetExpr{Object: &ast.IdentifierExpr{Name: "r"}, Property: "length"},
						},
					},
				},
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
	assert.Equal(t, float64(3), got.AsNumber())
}

// A switch with no matching arm and no default raises rather than
// returning some sentinel value.
func TestSwitchNoMatchRaises(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.ExpressionStmt{Inner: &ast.SwitchExpr{
			Value: numLit(5),
			Arms: []ast.SwitchArm{
				{Patterns: []ast.Pattern{&ast.LiteralPattern{Value: ast.Literal{Kind: ast.LiteralNumber, Num: 1}}}, Body: numLit(1)},
			},
		}},
	}}

	proto, err := compiler.Compile(prog, "<test>")
	require.NoError(t, err)

	result := vm.New().Run(proto)
	assert.Equal(t, vm.Errored, result.Status)
}
