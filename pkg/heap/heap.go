// Package heap implements the tracked-object registry spec.md §4.7
// describes for container-shaped values (Arrays, Dictionaries, Instances).
//
// spec.md §9 is explicit that this whole layer exists to break reference
// cycles on top of a reference-counted host, and that "if the target
// language provides tracing GC by default, the tracing sweep is unnecessary
// and the registry collapses to nothing." Go is exactly that case: the
// runtime's own tracing collector already reclaims cyclic Array/Dict/
// Instance graphs once nothing reachable from a root points at them, which
// is what Property 6 (spec.md §8) actually requires. Heap therefore keeps
// the registry's bookkeeping shape — Track, pacing, a Sweep entry point —
// so the VM's dispatch loop, stats, and tests can exercise the same
// lifecycle the original design names, but Sweep's job is counting and
// dropping this package's own tracking references, not reimplementing mark
// logic Go's allocator already subsumes.
package heap

import "sync"

// Tracked is implemented by every container-shaped value kind the heap can
// register: value.Array, value.Dict, and value.Instance.
type Tracked interface {
	// Roots returns the tracked values this object directly holds, for
	// statistics and for any future explicit tracing need.
	Roots() []any
}

// Heap is the per-VM tracked-object registry.
type Heap struct {
	mu sync.Mutex

	// opsSinceSweep and the sweepEvery threshold drive MaybeSweep's pacing
	// heuristic (spec.md: "after every N operations ... if a heuristic
	// ... says so"). The exact threshold is implementation-defined per
	// spec.md §9's open question.
	opsSinceSweep int
	sweepEvery    int

	tracked map[any]struct{}
	sweeps  int
}

// New returns a Heap that considers sweeping every sweepEvery tracked
// allocations. A sweepEvery of 0 selects a default pacing.
func New(sweepEvery int) *Heap {
	if sweepEvery <= 0 {
		sweepEvery = 256
	}
	return &Heap{sweepEvery: sweepEvery, tracked: make(map[any]struct{})}
}

// Track registers a newly built container. obj should be the container's
// own pointer (the identity the VM's reference-equality rule already uses),
// so the registry's entry disappears on its own once Go's collector drops
// the last strong reference to it — the "registry collapses to nothing"
// case spec.md §9 anticipates.
func (h *Heap) Track(obj any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tracked[obj] = struct{}{}
	h.opsSinceSweep++
}

// MaybeSweep runs Sweep (which resets the counter) once the number of
// Track calls since the last sweep has reached the configured threshold.
// It does not advance the counter itself, so the VM can call it once per
// dispatched instruction while the pacing still follows allocations.
func (h *Heap) MaybeSweep(roots func() []any) {
	h.mu.Lock()
	due := h.opsSinceSweep >= h.sweepEvery
	h.mu.Unlock()
	if due {
		h.Sweep(roots)
	}
}

// Sweep drops this registry's bookkeeping for any tracked object not
// reachable from roots(). Since Go's own tracing collector already
// reclaims unreachable cycles regardless of what this registry does,
// Sweep's reachability pass exists to keep TrackedCount (and therefore
// heap statistics surfaced to callers) accurate rather than to free
// memory itself — freeing is Go's job once the last reference, including
// this map's, is gone.
func (h *Heap) Sweep(roots func() []any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reachable := make(map[any]struct{}, len(h.tracked))
	var walk func(v any)
	walk = func(v any) {
		if v == nil {
			return
		}
		if _, seen := reachable[v]; seen {
			return
		}
		if _, isTracked := h.tracked[v]; isTracked {
			reachable[v] = struct{}{}
		}
		if t, ok := v.(Tracked); ok {
			for _, child := range t.Roots() {
				walk(child)
			}
		}
	}
	for _, r := range roots() {
		walk(r)
	}

	for obj := range h.tracked {
		if _, ok := reachable[obj]; !ok {
			delete(h.tracked, obj)
		}
	}
	h.opsSinceSweep = 0
	h.sweeps++
}

// TrackedCount reports how many objects the registry currently believes are
// reachable (i.e. survived the last sweep, or have never been swept).
func (h *Heap) TrackedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tracked)
}

// SweepCount reports how many sweeps have run, for tests that assert a
// sweep eventually happens without asserting exactly when.
func (h *Heap) SweepCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sweeps
}
