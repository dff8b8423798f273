package chunkasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldlang/sald/pkg/bytecode"
	"github.com/saldlang/sald/pkg/chunkasm"
)

func TestAssembleMinimal(t *testing.T) {
	proto, err := chunkasm.Assemble([]byte(`
		function: main 0 0
			code:
				CONSTANT "hello"
				DEFINE_GLOBAL "greeting"
				NULL
				RETURN
	`))
	require.NoError(t, err)
	assert.Equal(t, "main", proto.Name)
	assert.Equal(t, 0, proto.Arity)
	assert.Equal(t, []any{"hello", "greeting"}, proto.Chunk.Constants)
}

func TestAssembleArityAndVariadic(t *testing.T) {
	proto, err := chunkasm.Assemble([]byte(`
		function: sum 1 0 +variadic
			code:
				GET_LOCAL 0
				RETURN
	`))
	require.NoError(t, err)
	assert.Equal(t, 1, proto.Arity)
	assert.True(t, proto.IsVariadic)
}

func TestAssembleJumpAndLoop(t *testing.T) {
	proto, err := chunkasm.Assemble([]byte(`
		function: loopy 0 0
			code:
				CONSTANT 0
				DEFINE_GLOBAL "i"
			top:
				GET_GLOBAL "i"
				CONSTANT 5
				LESS
				JUMP_IF_FALSE done
				GET_GLOBAL "i"
				CONSTANT 1
				ADD
				SET_GLOBAL "i"
				POP
				LOOP top
			done:
				NULL
				RETURN
	`))
	require.NoError(t, err)

	// Re-running the chunk's jump math by hand: JUMP_IF_FALSE must land past
	// the loop body, and LOOP must land back at the comparison.
	ip := 0
	var sawJump, sawLoop bool
	for ip < len(proto.Chunk.Code) {
		op := bytecode.Op(proto.Chunk.Code[ip])
		width := bytecode.OperandWidth(op)
		if op == bytecode.OpJumpIfFalse {
			off := proto.Chunk.ReadU16(ip + 1)
			target := ip + 3 + int(off)
			assert.Greater(t, target, ip)
			sawJump = true
		}
		if op == bytecode.OpLoop {
			off := proto.Chunk.ReadU16(ip + 1)
			target := ip + 3 - int(off)
			assert.Less(t, target, ip)
			sawLoop = true
		}
		ip += 1 + 2*width
	}
	assert.True(t, sawJump)
	assert.True(t, sawLoop)
}

func TestAssembleClosureReference(t *testing.T) {
	proto, err := chunkasm.Assemble([]byte(`
		function: outer 0 0
			code:
				CLOSURE @inner
				RETURN

		function: inner 0 0
			code:
				NULL
				RETURN
	`))
	require.NoError(t, err)
	require.Len(t, proto.Chunk.Constants, 1)
	inner, ok := proto.Chunk.Constants[0].(*bytecode.FunctionProto)
	require.True(t, ok)
	assert.Equal(t, "inner", inner.Name)
}

func TestAssembleInvokeAndImportAs(t *testing.T) {
	proto, err := chunkasm.Assemble([]byte(`
		function: main 0 0
			code:
				GET_GLOBAL "arr"
				INVOKE "length" 0
				IMPORT_AS "math" "m"
				RETURN
	`))
	require.NoError(t, err)
	assert.Contains(t, proto.Chunk.Constants, "length")
	assert.Contains(t, proto.Chunk.Constants, "math")
	assert.Contains(t, proto.Chunk.Constants, "m")
}

func TestAssembleUnknownOpcode(t *testing.T) {
	_, err := chunkasm.Assemble([]byte(`
		function: main 0 0
			code:
				FROBNICATE
	`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown opcode")
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, err := chunkasm.Assemble([]byte(`
		function: main 0 0
			code:
				JUMP nowhere
	`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined label")
}

func TestDisassembleRoundTrip(t *testing.T) {
	src := []byte(`
		function: main 1 0
			class: Widget
			upvalues:
				local 0
			code:
				GET_LOCAL 0
				CONSTANT "x"
				EQUAL
				JUMP_IF_TRUE skip
				NULL
				RETURN
			skip:
				TRUE
				RETURN
	`)
	proto, err := chunkasm.Assemble(src)
	require.NoError(t, err)

	text := chunkasm.Disassemble(proto)
	reassembled, err := chunkasm.Assemble([]byte(text))
	require.NoError(t, err)

	assert.Equal(t, proto.Chunk.Code, reassembled.Chunk.Code)
	assert.Equal(t, proto.Chunk.Constants, reassembled.Chunk.Constants)
	assert.Equal(t, proto.ClassContext, reassembled.ClassContext)
	assert.Equal(t, proto.Upvalues, reassembled.Upvalues)
}
