package value

import (
	"sync"

	"github.com/dolthub/swiss"
)

// Dict is Sald's shared-mutable string-keyed map value. Keys are always
// strings (object/array/dict spreads merge by string key, per BuildDict's
// dict-spread rule); the spec leaves iteration order unspecified, which a
// swiss table gives us for free — there's no ordering to accidentally rely on.
type Dict struct {
	mu sync.Mutex
	m  *swiss.Map[string, Value]
}

// NewDict builds an empty Dict with room for size entries.
func NewDict(size int) *Dict {
	if size < 1 {
		size = 1
	}
	return &Dict{m: swiss.NewMap[string, Value](uint32(size))}
}

// Get looks up a key.
func (d *Dict) Get(key string) (Value, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.Get(key)
}

// Set inserts or overwrites a key.
func (d *Dict) Set(key string, v Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m.Put(key, v)
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.m.Get(key)
	return ok
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.Count()
}

// Each calls fn for every entry, in unspecified order. fn must not mutate d.
func (d *Dict) Each(fn func(key string, v Value)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m.Iter(func(k string, v Value) bool {
		fn(k, v)
		return false
	})
}

// Merge copies every entry of other into d, overwriting existing keys —
// this is the dict-spread semantics BuildDict needs.
func (d *Dict) Merge(other *Dict) {
	other.Each(func(k string, v Value) {
		d.Set(k, v)
	})
}

// Roots implements heap.Tracked: a Dict's reachable children are its values
// (spec.md §4.7 — "Dictionary → each value"; keys are plain strings).
func (d *Dict) Roots() []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]any, 0, d.m.Count())
	d.m.Iter(func(_ string, v Value) bool {
		if r := v.Root(); r != nil {
			out = append(out, r)
		}
		return false
	})
	return out
}
