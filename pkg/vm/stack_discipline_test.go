package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldlang/sald/pkg/chunkasm"
	"github.com/saldlang/sald/pkg/vm"
)

// Property 2 (stack discipline): a function that returns normally leaves
// the operand stack exactly where it was before the call plus its return
// value — no leaked locals or temporaries. A recursive sum run deep enough
// to matter (sum(0..50)) only comes out correct if every one of those 51
// nested Call/Return pairs tore its frame down cleanly; a leak would either
// corrupt later GET_LOCAL reads (wrong slot arithmetic) or accumulate stack
// growth each level.
func TestPropertyStackDisciplineAcrossRecursion(t *testing.T) {
	proto, err := chunkasm.Assemble([]byte(`
		function: main 0 0
			code:
				CLOSURE @sum
				CONSTANT 50
				CALL 1
				DEFINE_GLOBAL "total"
				NULL
				RETURN

		function: sum 1 0
			code:
				GET_LOCAL 1
				CONSTANT 0
				LESS_EQUAL
				JUMP_IF_FALSE recurse
				POP
				CONSTANT 0
				RETURN
			recurse:
				POP
				GET_LOCAL 1
				CLOSURE @sum
				GET_LOCAL 1
				CONSTANT 1
				SUB
				CALL 1
				ADD
				RETURN
	`))
	require.NoError(t, err)

	m := vm.New()
	result := m.Run(proto)
	require.Equal(t, vm.Completed, result.Status)

	total, ok := m.Globals().Get("total")
	require.True(t, ok)
	assert.Equal(t, float64(50*51/2), total.AsNumber())
}

// After a burst of sequential (non-nested) calls, a local bound in the
// caller after all of them still reads back correctly — confirming doReturn
// restores the stack pointer to the callee's own SlotsStart rather than
// leaving stale values for a later push to land on top of by accident.
func TestPropertyStackRestoredAfterSequentialCalls(t *testing.T) {
	proto, err := chunkasm.Assemble([]byte(`
		function: main 0 0
			code:
				CLOSURE @addOne
				CONSTANT 1
				CALL 1
				POP
				CLOSURE @addOne
				CONSTANT 2
				CALL 1
				POP
				CLOSURE @addOne
				CONSTANT 3
				CALL 1
				DEFINE_GLOBAL "last"
				NULL
				RETURN

		function: addOne 1 0
			code:
				GET_LOCAL 1
				CONSTANT 1
				ADD
				RETURN
	`))
	require.NoError(t, err)

	m := vm.New()
	result := m.Run(proto)
	require.Equal(t, vm.Completed, result.Status)

	last, ok := m.Globals().Get("last")
	require.True(t, ok)
	assert.Equal(t, float64(4), last.AsNumber())
}
