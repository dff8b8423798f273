package value

import "sync"

// StackAccessor lets an open Upvalue read and write through a live VM
// operand-stack slot without this package importing the vm package. The VM
// implements it directly against its own stack slice.
type StackAccessor interface {
	StackAt(index int) Value
	SetStackAt(index int, v Value)
}

// Upvalue is the indirection object spec.md §3.6 describes: a plain stack
// slot can't outlive its frame, so a captured local is modeled as an object
// with two states. Open, it reads and writes through a live stack slot
// (shared by every closure that captured the same local, so mutations are
// observed by all of them). Closed, it owns its value directly because the
// enclosing scope has ended and the stack slot is gone.
type Upvalue struct {
	mu       sync.Mutex
	open     bool
	location int
	stack    StackAccessor
	closed   Value
}

// NewOpenUpvalue returns an Upvalue reading through stack slot location.
func NewOpenUpvalue(stack StackAccessor, location int) *Upvalue {
	return &Upvalue{open: true, location: location, stack: stack}
}

// Get returns the current value, through the stack slot if open or from
// closed storage otherwise.
func (u *Upvalue) Get() Value {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.open {
		return u.stack.StackAt(u.location)
	}
	return u.closed
}

// Set writes a new value, through the stack slot if open or into closed
// storage otherwise.
func (u *Upvalue) Set(v Value) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.open {
		u.stack.SetStackAt(u.location, v)
		return
	}
	u.closed = v
}

// IsOpen reports whether this Upvalue still reads through a stack slot.
func (u *Upvalue) IsOpen() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.open
}

// Location returns the stack slot this Upvalue was opened against. Only
// meaningful while IsOpen is true; used by the VM's open-upvalue registry
// to find which Upvalues a CloseUpvalue at a given slot must close.
func (u *Upvalue) Location() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.location
}

// Close migrates the Upvalue's value off the stack and into its own
// storage, severing the link to the (about-to-be-invalid) stack slot.
// Closing an already-closed Upvalue is a no-op.
func (u *Upvalue) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.open {
		return
	}
	u.closed = u.stack.StackAt(u.location)
	u.open = false
	u.stack = nil
}
