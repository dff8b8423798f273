package vm

import (
	"github.com/saldlang/sald/pkg/bytecode"
	"github.com/saldlang/sald/pkg/value"
)

// callValue implements spec.md §4.3's full Callee dispatch. calleeSlot is
// the stack index of the callee (with its argc arguments immediately above
// it); on return the callee's slot holds the eventual result only once its
// frame actually returns — for a Go-native call that happens immediately,
// for a Sald closure or constructor it happens later, when Return executes.
func (vm *VM) callValue(calleeSlot int, argc int) error {
	callee := vm.stack[calleeSlot]
	switch callee.Kind() {
	case value.KindFunction:
		return vm.callFunction(callee.AsObject().(*value.Function), calleeSlot, argc, value.Value{}, false)

	case value.KindClass:
		class := callee.AsObject().(*value.Class)
		inst := value.NewInstance(class)
		vm.heap.Track(inst)
		instVal := value.Object(value.KindInstance, inst)
		vm.stack[calleeSlot] = instVal

		initFn, hasInit := class.FindMethod("init")
		if !hasInit {
			vm.sp = calleeSlot + 1
			return nil
		}
		if initFn.Kind() != value.KindFunction {
			return vmError("TypeError", "init must be a function")
		}
		return vm.callFunction(initFn.AsObject().(*value.Function), calleeSlot, argc, instVal, true)

	case value.KindNativeFunction:
		nf := callee.AsObject().(*value.NativeFunction)
		args := vm.collectArgs(calleeSlot, argc)
		result, err := nf.Fn(vm, value.Null, args)
		if err != nil {
			return err
		}
		vm.sp = calleeSlot
		vm.push(result)
		return nil

	case value.KindBoundMethod:
		bm := callee.AsObject().(*value.BoundMethod)
		return vm.callBound(bm.Receiver, bm.Method, calleeSlot, argc)

	case value.KindInstanceMethod:
		im := callee.AsObject().(*value.InstanceMethod)
		return vm.callBound(value.Null, im.Method, calleeSlot, argc)

	default:
		return vmError("TypeError", "%s is not callable", callee.TypeName())
	}
}

// callBound splices receiver into argument slot 0 before dispatching to the
// underlying method Value (a Function or NativeFunction).
func (vm *VM) callBound(receiver value.Value, method value.Value, calleeSlot int, argc int) error {
	switch method.Kind() {
	case value.KindFunction:
		vm.stack[calleeSlot] = method
		return vm.callFunction(method.AsObject().(*value.Function), calleeSlot, argc, value.Value{}, false, receiver)
	case value.KindNativeFunction:
		nf := method.AsObject().(*value.NativeFunction)
		args := vm.collectArgs(calleeSlot, argc)
		result, err := nf.Fn(vm, receiver, args)
		if err != nil {
			return err
		}
		vm.sp = calleeSlot
		vm.push(result)
		return nil
	default:
		return vmError("TypeError", "%s is not callable", method.TypeName())
	}
}

// callFunction installs a new Frame for fn. selfOverride, if non-empty, is
// written into slot 0 ahead of the declared parameters (the BoundMethod
// receiver-splicing case); otherwise slot 0 is whatever the caller already
// pushed at calleeSlot (a constructor's fresh Instance, or the callee
// Function itself for a plain function call, where slot 0 is simply unused).
func (vm *VM) callFunction(fn *value.Function, calleeSlot int, argc int, initInstance value.Value, isInit bool, selfOverride ...value.Value) error {
	proto := fn.Proto
	// Expand SpreadMarker arguments in place, so argc counts the spread
	// elements rather than the markers.
	args := vm.collectArgs(calleeSlot, argc)
	vm.sp = calleeSlot + 1
	for _, a := range args {
		vm.push(a)
	}
	argc = len(args)
	// proto.Arity counts every declared parameter slot, including the rest
	// slot itself when the function is variadic (pkg/compiler's
	// compileFunction does proto.Arity++ for it) — namedArity is just the
	// fixed, non-rest parameters.
	namedArity := proto.Arity
	if proto.IsVariadic {
		namedArity--
	}
	if argc < namedArity-proto.DefaultCount || (!proto.IsVariadic && argc > namedArity) {
		name := proto.Name
		if name == "" {
			name = "<lambda>"
		}
		return vmError("ArgumentError", "%s expects %d argument(s), got %d", name, namedArity, argc)
	}

	slotsStart := calleeSlot
	// Pad missing default-valued trailing parameters with Null; the
	// compiler emits default-value-evaluation prologue code keyed off
	// which parameters were actually supplied, using this padding as its
	// "absent" sentinel (spec.md §4.1).
	for argc < namedArity {
		vm.push(value.Null)
		argc++
	}
	if proto.IsVariadic {
		extra := argc - namedArity
		rest := make([]value.Value, extra)
		copy(rest, vm.stack[vm.sp-extra:vm.sp])
		vm.sp -= extra
		arr := value.NewArray(rest)
		vm.heap.Track(arr)
		vm.push(value.Object(value.KindArray, arr))
	}

	if len(selfOverride) > 0 {
		vm.stack[slotsStart] = selfOverride[0]
	}

	f, err := vm.pushFrame(fn, slotsStart)
	if err != nil {
		return err
	}
	f.InitInstance = initInstance
	f.IsInit = isInit
	return nil
}

// collectArgs snapshots the argc values above calleeSlot, expanding any
// SpreadMarker operands in place (spec.md's call spread form). It leaves
// the stack itself unchanged; callers reset vm.sp.
func (vm *VM) collectArgs(calleeSlot int, argc int) []value.Value {
	raw := make([]value.Value, argc)
	copy(raw, vm.stack[calleeSlot+1:calleeSlot+1+argc])
	return expandSpreads(raw)
}

func expandSpreads(raw []value.Value) []value.Value {
	out := make([]value.Value, 0, len(raw))
	for _, v := range raw {
		if v.Kind() == value.KindSpreadMarker {
			out = append(out, v.AsObject().(*value.SpreadMarker).Elements...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

// doReturn implements Return's stack-unwind: pop the result, tear down the
// current frame, and push either the constructor's stored instance (if this
// was an init frame) or the computed result back at the caller's callee
// slot.
func (vm *VM) doReturn() {
	result := vm.pop()
	f := vm.popFrame()
	if f.IsInit {
		result = f.InitInstance
	}
	vm.sp = f.SlotsStart
	vm.push(result)
}

// getProperty implements GetProperty: field lookup on an Instance, method
// lookup (bound) on an Instance's class, static lookup on a Class, export
// lookup on a Namespace, variant lookup on an Enum. Private ("_"-prefixed)
// names are gated by the accessing frame's ClassContext for instances and
// classes, and by its NamespaceContext for namespaces (spec.md §4.4).
func (vm *VM) getProperty(obj value.Value, name string, f *Frame) (value.Value, error) {
	switch obj.Kind() {
	case value.KindInstance:
		inst := obj.AsObject().(*value.Instance)
		if !inst.Class.AccessAllowed(name, f.ClassContext) {
			return value.Null, vmError("AccessError", "%q is private to %s", name, inst.Class.Name)
		}
		if v, ok := inst.GetField(name); ok {
			return v, nil
		}
		if m, ok := inst.Class.FindMethod(name); ok {
			return value.Object(value.KindBoundMethod, value.NewBoundMethod(obj, m)), nil
		}
		return value.Null, vmError("AttributeError", "%s has no attribute %q", inst.Class.Name, name)

	case value.KindClass:
		class := obj.AsObject().(*value.Class)
		if !class.AccessAllowed(name, f.ClassContext) {
			return value.Null, vmError("AccessError", "%q is private to %s", name, class.Name)
		}
		if m, ok := class.FindStaticMethod(name); ok {
			return m, nil
		}
		return value.Null, vmError("AttributeError", "class %s has no static attribute %q", class.Name, name)

	case value.KindNamespace:
		ns := obj.AsObject().(*value.Namespace)
		if !ns.AccessAllowed(name, f.NamespaceContext) {
			return value.Null, vmError("AccessError", "%q is private to %s", name, ns.Name)
		}
		if v, ok := ns.Get(name); ok {
			return v, nil
		}
		return value.Null, vmError("AttributeError", "namespace %s has no export %q", ns.Name, name)

	case value.KindEnum:
		e := obj.AsObject().(*value.Enum)
		if variant, ok := e.Variant(name); ok {
			return value.Object(value.KindEnum, variant), nil
		}
		return value.Null, vmError("AttributeError", "enum %s has no variant %q", e.Name, name)

	case value.KindDict:
		// Dict pattern matching probes entries via GetProperty (switchexpr's
		// compileDictPatternTest): a missing key reads as Null rather than
		// raising, so an unguarded binding or a Null literal pattern can
		// still match it.
		v, _ := obj.AsObject().(*value.Dict).Get(name)
		return v, nil

	default:
		return value.Null, vmError("TypeError", "%s has no properties", obj.TypeName())
	}
}

// setProperty implements SetProperty: only Instance fields are assignable.
func (vm *VM) setProperty(obj value.Value, name string, v value.Value, f *Frame) error {
	inst, ok := obj.AsObject().(*value.Instance)
	if obj.Kind() != value.KindInstance || !ok {
		return vmError("TypeError", "cannot set property %q on %s", name, obj.TypeName())
	}
	if !inst.Class.AccessAllowed(name, f.ClassContext) {
		return vmError("AccessError", "%q is private to %s", name, inst.Class.Name)
	}
	inst.SetField(name, v)
	return nil
}

// invoke implements Invoke: the GetProperty+Call fusion the compiler emits
// for a plain `recv.name(args...)` call site, avoiding an intermediate
// BoundMethod allocation for the common case.
func (vm *VM) invoke(name string, argc int, _ *Frame) error {
	calleeSlot := vm.sp - argc - 1
	receiver := vm.stack[calleeSlot]
	f := vm.frames[len(vm.frames)-1]

	switch receiver.Kind() {
	case value.KindInstance:
		inst := receiver.AsObject().(*value.Instance)
		if !inst.Class.AccessAllowed(name, f.ClassContext) {
			return vmError("AccessError", "%q is private to %s", name, inst.Class.Name)
		}
		if fieldFn, ok := inst.GetField(name); ok {
			return vm.callBound(value.Null, fieldFn, calleeSlot, argc)
		}
		method, ok := inst.Class.FindMethod(name)
		if !ok {
			return vmError("AttributeError", "%s has no method %q", inst.Class.Name, name)
		}
		return vm.callBound(receiver, method, calleeSlot, argc)

	case value.KindClass:
		class := receiver.AsObject().(*value.Class)
		method, ok := class.FindStaticMethod(name)
		if !ok {
			return vmError("AttributeError", "class %s has no static method %q", class.Name, name)
		}
		return vm.callBound(value.Null, method, calleeSlot, argc)

	case value.KindNamespace:
		ns := receiver.AsObject().(*value.Namespace)
		if !ns.AccessAllowed(name, f.NamespaceContext) {
			return vmError("AccessError", "%q is private to %s", name, ns.Name)
		}
		method, ok := ns.Get(name)
		if !ok {
			return vmError("AttributeError", "namespace %s has no export %q", ns.Name, name)
		}
		return vm.callNamespaceBound(ns, method, calleeSlot, argc)

	case value.KindArray, value.KindString, value.KindDict, value.KindNumber:
		method, err := vm.natives.lookup(receiver, name)
		if err != nil {
			return err
		}
		bm := method.AsObject().(*value.BoundMethod)
		return vm.callBound(bm.Receiver, bm.Method, calleeSlot, argc)

	default:
		return vmError("TypeError", "%s has no method %q", receiver.TypeName(), name)
	}
}

// callNamespaceBound calls a function exported from a module executed via
// ImportAs, swapping that module's own globals in for the duration of the
// call (spec.md §4.4/§9's globals-swap mechanism) and restoring the
// caller's globals when the frame returns.
func (vm *VM) callNamespaceBound(ns *value.Namespace, method value.Value, calleeSlot int, argc int) error {
	fn, ok := method.AsObject().(*value.Function)
	if !ok {
		return vmError("TypeError", "%s is not callable", method.TypeName())
	}
	vm.stack[calleeSlot] = method
	saved := vm.globals
	if err := vm.callFunction(fn, calleeSlot, argc, value.Value{}, false); err != nil {
		return err
	}
	vm.globals = ns.Globals
	vm.frames[len(vm.frames)-1].SavedGlobals = saved
	return nil
}

// getSuper implements GetSuper: look up name starting at the superclass of
// the class the current method was compiled against, and bind it to
// receiver.
func (vm *VM) getSuper(receiver value.Value, name string, f *Frame) (value.Value, error) {
	class := vm.classByName(f.ClassContext)
	if class == nil {
		return value.Null, vmError("RuntimeError", "super used outside a method body")
	}
	method, ok := class.SuperFindMethod(name)
	if !ok {
		return value.Null, vmError("AttributeError", "no superclass method %q", name)
	}
	return value.Object(value.KindBoundMethod, value.NewBoundMethod(receiver, method)), nil
}

// classByName resolves a ClassContext tag back to the live *value.Class it
// names, via the VM's construction-order registry (classesByName), which
// covers namespace-nested classes that are never bound to a global.
func (vm *VM) classByName(name string) *value.Class {
	return vm.classesByName[name]
}

// collectSpreadable pops n stack values (in order) for BuildArray, expanding
// any SpreadMarker operands into their elements.
func (vm *VM) collectSpreadable(n int) []value.Value {
	raw := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		raw[i] = vm.pop()
	}
	return expandSpreads(raw)
}

func spreadElements(v value.Value) []value.Value {
	switch v.Kind() {
	case value.KindArray:
		return v.AsObject().(*value.Array).Elements()
	default:
		return []value.Value{v}
	}
}

// getIndex implements GetIndex for Array, Dict, and String (by character).
func (vm *VM) getIndex(obj, idx value.Value) (value.Value, error) {
	switch obj.Kind() {
	case value.KindArray:
		arr := obj.AsObject().(*value.Array)
		if idx.Kind() != value.KindNumber {
			return value.Null, vmError("TypeError", "array index must be a number")
		}
		i := int(idx.AsInt())
		if i < 0 {
			i += arr.Len()
		}
		v, ok := arr.Get(i)
		if !ok {
			return value.Null, vmError("IndexError", "array index %d out of range", i)
		}
		return v, nil

	case value.KindDict:
		d := obj.AsObject().(*value.Dict)
		if idx.Kind() != value.KindString {
			return value.Null, vmError("TypeError", "dictionary key must be a string")
		}
		v, ok := d.Get(idx.AsString())
		if !ok {
			return value.Null, vmError("IndexError", "no key %q", idx.AsString())
		}
		return v, nil

	case value.KindString:
		s := obj.AsString()
		if idx.Kind() != value.KindNumber {
			return value.Null, vmError("TypeError", "string index must be a number")
		}
		runes := []rune(s)
		i := int(idx.AsInt())
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return value.Null, vmError("IndexError", "string index %d out of range", i)
		}
		return value.String(string(runes[i])), nil

	default:
		return value.Null, vmError("TypeError", "%s is not indexable", obj.TypeName())
	}
}

// setIndex implements SetIndex for Array and Dict; Sald strings are
// immutable so string indexing is read-only.
func (vm *VM) setIndex(obj, idx, v value.Value) error {
	switch obj.Kind() {
	case value.KindArray:
		arr := obj.AsObject().(*value.Array)
		if idx.Kind() != value.KindNumber {
			return vmError("TypeError", "array index must be a number")
		}
		i := int(idx.AsInt())
		if i < 0 {
			i += arr.Len()
		}
		if !arr.Set(i, v) {
			return vmError("IndexError", "array index %d out of range", i)
		}
		return nil

	case value.KindDict:
		d := obj.AsObject().(*value.Dict)
		if idx.Kind() != value.KindString {
			return vmError("TypeError", "dictionary key must be a string")
		}
		d.Set(idx.AsString(), v)
		return nil

	default:
		return vmError("TypeError", "%s does not support index assignment", obj.TypeName())
	}
}

// buildDict implements BuildDict: n key/value pairs pushed key-then-value,
// in source order. A Null key paired with a SpreadMarker value is a dict
// spread: each spread Dict's entries are merged in.
func (vm *VM) buildDict(n int) (*value.Dict, error) {
	type entry struct {
		key   value.Value
		value value.Value
	}
	raw := make([]entry, n)
	for i := n - 1; i >= 0; i-- {
		v := vm.pop()
		k := vm.pop()
		raw[i] = entry{key: k, value: v}
	}
	d := value.NewDict(n)
	for _, e := range raw {
		if e.key.IsNull() && e.value.Kind() == value.KindSpreadMarker {
			for _, el := range e.value.AsObject().(*value.SpreadMarker).Elements {
				if el.Kind() != value.KindDict {
					return nil, vmError("TypeError", "cannot spread %s into a dictionary", el.TypeName())
				}
				d.Merge(el.AsObject().(*value.Dict))
			}
			continue
		}
		if e.key.Kind() != value.KindString {
			return nil, vmError("TypeError", "dictionary key must be a string")
		}
		d.Set(e.key.AsString(), e.value)
	}
	return d, nil
}

// buildNamespace implements BuildNamespace: n name/value export pairs,
// wrapped up as a Namespace value scoped under namespaceName.
func (vm *VM) buildNamespace(n int, namespaceName string) *value.Namespace {
	g := value.NewGlobals()
	type entry struct {
		name string
		val  value.Value
	}
	raw := make([]entry, n)
	for i := n - 1; i >= 0; i-- {
		v := vm.pop()
		name := vm.pop().AsString()
		raw[i] = entry{name: name, val: v}
	}
	for _, e := range raw {
		g.Define(e.name, e.val)
	}
	return value.NewNamespace(namespaceName, g)
}

// buildRange implements BuildRangeInclusive/Exclusive: a two-bound-only
// Range materializes eagerly as an Array of Numbers (spec.md's supplemented
// Range feature carries no lazy-iterator form).
func buildRange(start, end value.Value, inclusive bool) (*value.Array, error) {
	if start.Kind() != value.KindNumber || end.Kind() != value.KindNumber {
		return nil, vmError("TypeError", "range bounds must be numbers")
	}
	lo, hi := int64(start.AsInt()), int64(end.AsInt())
	if inclusive {
		hi++
	}
	if hi < lo {
		return value.NewArray(nil), nil
	}
	elems := make([]value.Value, 0, hi-lo)
	for i := lo; i < hi; i++ {
		elems = append(elems, value.Number(float64(i)))
	}
	return value.NewArray(elems), nil
}

// Call implements value.Caller so native methods (array map/filter/reduce,
// and so on) can invoke back into Sald code synchronously.
func (vm *VM) Call(callee value.Value, args []value.Value) (value.Value, error) {
	calleeSlot := vm.sp
	vm.push(callee)
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.callValue(calleeSlot, len(args)); err != nil {
		vm.sp = calleeSlot
		return value.Null, err
	}
	// A native function call resolves immediately; a Sald closure call
	// instead pushed a new Frame, so drive dispatch until that frame (and
	// only that frame) returns.
	if len(vm.frames) > 0 && vm.frames[len(vm.frames)-1].SlotsStart == calleeSlot {
		if err := vm.runToFrameDepth(len(vm.frames) - 1); err != nil {
			return value.Null, err
		}
	}
	return vm.pop(), nil
}

func (vm *VM) nextOp() bytecode.Op {
	f := vm.frames[len(vm.frames)-1]
	chunk := f.Function.Proto.Chunk
	op := bytecode.Op(chunk.Code[f.IP])
	f.IP++
	return op
}

// runToFrameDepth drives the dispatch loop synchronously until the frame
// stack depth drops back to targetDepth, i.e. until one specific frame (and
// everything it itself calls) has returned. Used by Call and module
// execution, both of which need a nested, fully-resolved call rather than
// the suspend-capable outermost Run/Resume protocol.
func (vm *VM) runToFrameDepth(targetDepth int) error {
	for len(vm.frames) > targetDepth {
		op := vm.nextOp()
		f := vm.frames[len(vm.frames)-1]
		chunk := f.Function.Proto.Chunk
		vm.heap.MaybeSweep(vm.roots)
		suspend, err := vm.step(f, chunk, op)
		if err != nil {
			if unwErr := vm.unwindToHandler(err); unwErr != nil {
				return unwErr
			}
			continue
		}
		if suspend != nil {
			return vmError("RuntimeError", "await inside a synchronous nested call is not supported")
		}
	}
	return nil
}
