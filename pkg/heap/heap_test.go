package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldlang/sald/pkg/heap"
	"github.com/saldlang/sald/pkg/value"
)

// Property 6: `let a = [0]; let b = {"x": a}; a[0] = b;` builds a reference
// cycle between an Array and a Dict. Once no root points at either, the
// next sweep must drop both from the registry — regardless of the exact
// operation count a real run would take to trigger it, per spec.md's open
// question on sweep pacing.
func TestPropertyCycleCollection(t *testing.T) {
	h := heap.New(1)

	a := value.NewArray([]value.Value{value.Number(0)})
	h.Track(a)
	b := value.NewDict(1)
	h.Track(b)

	b.Set("x", value.Object(value.KindArray, a))
	a.Set(0, value.Object(value.KindDict, b))

	require.Equal(t, 2, h.TrackedCount())

	noRoots := func() []any { return nil }
	h.Sweep(noRoots)

	assert.Equal(t, 0, h.TrackedCount())
	assert.Equal(t, 1, h.SweepCount())
}

// A container reachable from a root (even transitively, through the other
// half of a cycle) survives a sweep.
func TestSweepKeepsReachableCycle(t *testing.T) {
	h := heap.New(1)

	a := value.NewArray([]value.Value{value.Number(0)})
	h.Track(a)
	b := value.NewDict(1)
	h.Track(b)

	b.Set("x", value.Object(value.KindArray, a))
	a.Set(0, value.Object(value.KindDict, b))

	roots := func() []any { return []any{a} }
	h.Sweep(roots)

	assert.Equal(t, 2, h.TrackedCount())
}

// MaybeSweep only actually sweeps once the configured pacing threshold is
// crossed; below it, tracked objects are left alone.
func TestMaybeSweepRespectsThreshold(t *testing.T) {
	h := heap.New(3)

	var swept int
	roots := func() []any {
		swept++
		return nil
	}

	arr := value.NewArray(nil)
	h.Track(arr)
	h.MaybeSweep(roots)
	h.MaybeSweep(roots)
	assert.Equal(t, 0, swept, "sweep shouldn't fire before sweepEvery Track calls")

	h.Track(value.NewArray(nil))
	h.Track(value.NewArray(nil))
	h.MaybeSweep(roots)
	assert.Equal(t, 1, swept, "sweep should fire once the threshold is crossed")
}
