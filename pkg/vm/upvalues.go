package vm

import "github.com/saldlang/sald/pkg/value"

// captureUpvalue implements the VM-side registry spec.md §3.6 requires: at
// most one open Upvalue exists per stack location. Closures sharing a
// capture reuse the same *value.Upvalue so mutations are observed by all of
// them (Property 3).
func (vm *VM) captureUpvalue(location int) *value.Upvalue {
	for _, u := range vm.openUpvalues {
		if u.IsOpen() && u.Location() == location {
			return u
		}
	}
	u := value.NewOpenUpvalue(vm, location)
	vm.openUpvalues = append(vm.openUpvalues, u)
	return u
}

// closeUpvaluesFrom closes every open Upvalue whose location is at or above
// from, migrating its value off the stack (spec.md §4.6). Called on scope
// exit (CloseUpvalue) and on frame return (Return).
func (vm *VM) closeUpvaluesFrom(from int) {
	kept := vm.openUpvalues[:0]
	for _, u := range vm.openUpvalues {
		if u.IsOpen() && u.Location() >= from {
			u.Close()
			continue
		}
		kept = append(kept, u)
	}
	vm.openUpvalues = kept
}
