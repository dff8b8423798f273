package value

import (
	"sync"

	"github.com/google/uuid"
)

// FutureState is the lifecycle of a Future: pending until the host driver
// resolves or rejects it out from under a suspended VM.
type FutureState int

const (
	FuturePending FutureState = iota
	FutureResolved
	FutureRejected
)

// Future is what OpAwait suspends on when its operand isn't already a
// finished value. The VM itself never blocks: Await pops the operand and,
// if it is a pending Future, the VM returns an ExecutionResult of Suspended
// to its host driver loop (spec.md §4.7) carrying this Future. The driver
// resolves or rejects it asynchronously (e.g. after an I/O callback) and
// resumes the VM, which then re-checks the Future and proceeds. ID exists
// so host-side driver code can correlate a suspended run with whichever
// external operation it is waiting on.
type Future struct {
	ID uuid.UUID

	mu     sync.Mutex
	state  FutureState
	result Value
	err    error
}

// NewFuture returns a fresh, pending Future with a random ID.
func NewFuture() *Future {
	return &Future{ID: uuid.New(), state: FuturePending}
}

// Resolve transitions a pending Future to resolved with the given value. A
// no-op if the Future is already settled.
func (f *Future) Resolve(v Value) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FuturePending {
		return
	}
	f.state = FutureResolved
	f.result = v
}

// Reject transitions a pending Future to rejected with err. A no-op if the
// Future is already settled.
func (f *Future) Reject(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FuturePending {
		return
	}
	f.state = FutureRejected
	f.err = err
}

// Poll reports the Future's current state and, once settled, its result or
// error.
func (f *Future) Poll() (FutureState, Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.result, f.err
}

// IsPending reports whether the Future has not yet settled.
func (f *Future) IsPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == FuturePending
}
