package value

import "sync"

// Instance is an object created by calling a Class. Fields are resolved
// dynamically — there is no fixed layout — since spec.md's object model has
// no field declarations, only assignment-on-first-use inside constructors
// and methods.
type Instance struct {
	mu      sync.Mutex
	Class   *Class
	fields  map[string]Value
	Tracked any // heap registration token, nil until registered
}

// NewInstance returns a fresh, field-less instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, fields: make(map[string]Value)}
}

// GetField returns a field's value.
func (i *Instance) GetField(name string) (Value, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.fields[name]
	return v, ok
}

// SetField assigns a field, creating it if absent.
func (i *Instance) SetField(name string, v Value) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fields[name] = v
}

// Fields returns a snapshot of the field table, used by container
// traversal in the cycle collector and by debug formatting.
func (i *Instance) Fields() map[string]Value {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make(map[string]Value, len(i.fields))
	for k, v := range i.fields {
		out[k] = v
	}
	return out
}

// Roots implements heap.Tracked: an Instance's reachable children are each
// field (spec.md §4.7 — "Instance → each field + its Class"; the Class
// itself isn't tracked-heap registered since method functions are
// reachable as constants rather than through the heap, so only fields are
// walked here).
func (i *Instance) Roots() []any {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]any, 0, len(i.fields))
	for _, v := range i.fields {
		if r := v.Root(); r != nil {
			out = append(out, r)
		}
	}
	return out
}
