package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/compiler"
)

// buildDeterminismProgram exercises a cross-section of compiled constructs
// (arithmetic, a class with a private field, a closure-capturing function,
// and a switch expression) so the determinism check isn't limited to a
// trivial single-opcode program.
func buildDeterminismProgram() *ast.Program {
	return &ast.Program{Statements: []ast.Stmt{
		&ast.ClassStmt{Def: classC()},
		&ast.LetStmt{Name: "result", Initializer: callC5Get()},
		&ast.FunctionStmt{Def: ast.FunctionDef{
			Name:   "addOne",
			Params: []ast.FunctionParam{{Name: "n"}},
			Body: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{
					Left:  &ast.IdentifierExpr{Name: "n"},
					Op:    ast.Add,
					Right: numLit(1),
				}},
			},
		}},
		&ast.LetStmt{Name: "switched", Initializer: &ast.SwitchExpr{
			Value: numLit(2),
			Arms: []ast.SwitchArm{
				{Patterns: []ast.Pattern{&ast.LiteralPattern{Value: ast.Literal{Kind: ast.LiteralNumber, Num: 2}}}, Body: numLit(200)},
			},
			Default: numLit(-1),
		}},
	}}
}

// Property 1: compiling the same AST twice must produce byte-identical
// bytecode, constants, and spans — the compiler carries no hidden,
// run-to-run-varying state (map iteration order, pointer identity, etc.)
// into its output.
func TestPropertyCompileIsDeterministic(t *testing.T) {
	proto1, err := compiler.Compile(buildDeterminismProgram(), "<test>")
	require.NoError(t, err)
	proto2, err := compiler.Compile(buildDeterminismProgram(), "<test>")
	require.NoError(t, err)

	assert.Equal(t, proto1.Chunk.Code, proto2.Chunk.Code)
	assert.Equal(t, proto1.Chunk.Constants, proto2.Chunk.Constants)
	assert.Equal(t, proto1.Chunk.Spans, proto2.Chunk.Spans)
}
