package vm

import (
	"github.com/saldlang/sald/pkg/bytecode"
	"github.com/saldlang/sald/pkg/value"
)

// step executes exactly one instruction starting at op (whose opcode byte
// f.IP has already advanced past). It returns a non-nil Future if the
// instruction suspended execution (only Await can), or a non-nil error if
// the instruction raised an exception.
func (vm *VM) step(f *Frame, chunk *bytecode.Chunk, op bytecode.Op) (*value.Future, error) {
	switch op {
	case bytecode.OpConstant:
		idx := vm.readU16(f, chunk)
		vm.push(constantToValue(chunk.Constants[idx]))

	case bytecode.OpPop:
		vm.pop()

	case bytecode.OpDup:
		vm.push(vm.peek(0))

	case bytecode.OpDupTwo:
		a, b := vm.peek(1), vm.peek(0)
		vm.push(a)
		vm.push(b)

	case bytecode.OpSwap:
		a, b := vm.pop(), vm.pop()
		vm.push(a)
		vm.push(b)

	case bytecode.OpNull:
		vm.push(value.Null)
	case bytecode.OpTrue:
		vm.push(value.Bool(true))
	case bytecode.OpFalse:
		vm.push(value.Bool(false))

	case bytecode.OpDefineGlobal:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		vm.globals.Define(name, vm.pop())

	case bytecode.OpGetGlobal:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		v, ok := vm.globals.Get(name)
		if !ok {
			return nil, vmError("NameError", "undefined name %q", name)
		}
		vm.push(v)

	case bytecode.OpSetGlobal:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		v := vm.peek(0)
		if !vm.globals.Set(name, v) {
			return nil, vmError("NameError", "undefined name %q", name)
		}

	case bytecode.OpGetLocal:
		slot := int(vm.readU16(f, chunk))
		vm.push(vm.stack[f.SlotsStart+slot])

	case bytecode.OpSetLocal:
		slot := int(vm.readU16(f, chunk))
		vm.stack[f.SlotsStart+slot] = vm.peek(0)

	case bytecode.OpGetUpvalue:
		idx := int(vm.readU16(f, chunk))
		vm.push(f.Function.Upvalues[idx].Get())

	case bytecode.OpSetUpvalue:
		idx := int(vm.readU16(f, chunk))
		f.Function.Upvalues[idx].Set(vm.peek(0))

	case bytecode.OpCloseUpvalue:
		vm.closeUpvaluesFrom(vm.sp - 1)
		vm.pop()

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
		b, a := vm.pop(), vm.pop()
		var r value.Value
		var err error
		switch op {
		case bytecode.OpAdd:
			r, err = vm.add(a, b)
		case bytecode.OpSub:
			r, err = vm.sub(a, b)
		case bytecode.OpMul:
			r, err = vm.mul(a, b)
		case bytecode.OpDiv:
			r, err = vm.div(a, b)
		case bytecode.OpMod:
			r, err = vm.mod(a, b)
		}
		if err != nil {
			return nil, err
		}
		vm.push(r)

	case bytecode.OpNegate:
		a := vm.pop()
		r, err := vm.negate(a)
		if err != nil {
			return nil, err
		}
		vm.push(r)

	case bytecode.OpNot:
		a := vm.pop()
		vm.push(value.Bool(!a.Truthy()))

	case bytecode.OpBitNot:
		a := vm.pop()
		r, err := vm.bitNot(a)
		if err != nil {
			return nil, err
		}
		vm.push(r)

	case bytecode.OpEqual:
		b, a := vm.pop(), vm.pop()
		vm.push(value.Bool(value.Equal(a, b)))

	case bytecode.OpNotEqual:
		b, a := vm.pop(), vm.pop()
		vm.push(value.Bool(!value.Equal(a, b)))

	case bytecode.OpLess, bytecode.OpLessEqual, bytecode.OpGreater, bytecode.OpGreaterEqual:
		b, a := vm.pop(), vm.pop()
		r, err := vm.compare(compareSymbol(op), a, b)
		if err != nil {
			return nil, err
		}
		vm.push(r)

	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpLeftShift, bytecode.OpRightShift:
		b, a := vm.pop(), vm.pop()
		r, err := vm.bitwise(bitSymbol(op), a, b)
		if err != nil {
			return nil, err
		}
		vm.push(r)

	case bytecode.OpJump:
		off := vm.readU16(f, chunk)
		f.IP += int(off)

	case bytecode.OpJumpIfFalse:
		off := vm.readU16(f, chunk)
		if !vm.peek(0).Truthy() {
			f.IP += int(off)
		}

	case bytecode.OpJumpIfTrue:
		off := vm.readU16(f, chunk)
		if vm.peek(0).Truthy() {
			f.IP += int(off)
		}

	case bytecode.OpJumpIfNotNull:
		off := vm.readU16(f, chunk)
		if !vm.peek(0).IsNull() {
			f.IP += int(off)
		}

	case bytecode.OpLoop:
		off := vm.readU16(f, chunk)
		f.IP -= int(off)

	case bytecode.OpCall:
		argc := int(vm.readU16(f, chunk))
		calleeSlot := vm.sp - argc - 1
		if err := vm.callValue(calleeSlot, argc); err != nil {
			return nil, err
		}

	case bytecode.OpReturn:
		vm.doReturn()

	case bytecode.OpClosure:
		idx := vm.readU16(f, chunk)
		proto := chunk.Constants[idx].(*bytecode.FunctionProto)
		ups := make([]*value.Upvalue, len(proto.Upvalues))
		for i, desc := range proto.Upvalues {
			if desc.IsLocal {
				ups[i] = vm.captureUpvalue(f.SlotsStart + desc.Index)
			} else {
				ups[i] = f.Function.Upvalues[desc.Index]
			}
		}
		vm.push(value.Object(value.KindFunction, value.NewFunction(proto, ups)))

	case bytecode.OpClass:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		class := value.NewClass(name, f.Function.Proto.NamespaceContext)
		vm.classesByName[name] = class
		vm.push(value.Object(value.KindClass, class))

	case bytecode.OpMethod:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		fn := vm.pop()
		class := vm.peek(0).AsObject().(*value.Class)
		class.DefineMethod(name, fn)

	case bytecode.OpStaticMethod:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		fn := vm.pop()
		class := vm.peek(0).AsObject().(*value.Class)
		class.DefineStaticMethod(name, fn)

	case bytecode.OpInherit:
		super := vm.pop()
		sub := vm.peek(0)
		if super.Kind() != value.KindClass {
			return nil, vmError("TypeError", "superclass must be a class, got %s", super.TypeName())
		}
		sub.AsObject().(*value.Class).Inherit(super.AsObject().(*value.Class))

	case bytecode.OpGetProperty:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		obj := vm.pop()
		v, err := vm.getProperty(obj, name, f)
		if err != nil {
			return nil, err
		}
		vm.push(v)

	case bytecode.OpSetProperty:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		v := vm.pop()
		obj := vm.pop()
		if err := vm.setProperty(obj, name, v, f); err != nil {
			return nil, err
		}
		vm.push(v)

	case bytecode.OpGetSelf:
		vm.push(vm.stack[f.SlotsStart])

	case bytecode.OpInvoke:
		nameIdx := vm.readU16(f, chunk)
		argc := int(vm.readU16(f, chunk))
		name := chunk.Constants[nameIdx].(string)
		if err := vm.invoke(name, argc, f); err != nil {
			return nil, err
		}

	case bytecode.OpGetSuper:
		name := chunk.Constants[vm.readU16(f, chunk)].(string)
		receiver := vm.stack[f.SlotsStart]
		v, err := vm.getSuper(receiver, name, f)
		if err != nil {
			return nil, err
		}
		vm.push(v)

	case bytecode.OpBuildArray:
		n := int(vm.readU16(f, chunk))
		elems := vm.collectSpreadable(n)
		arr := value.NewArray(elems)
		vm.heap.Track(arr)
		vm.push(value.Object(value.KindArray, arr))

	case bytecode.OpGetIndex:
		idx := vm.pop()
		obj := vm.pop()
		v, err := vm.getIndex(obj, idx)
		if err != nil {
			return nil, err
		}
		vm.push(v)

	case bytecode.OpSetIndex:
		v := vm.pop()
		idx := vm.pop()
		obj := vm.pop()
		if err := vm.setIndex(obj, idx, v); err != nil {
			return nil, err
		}
		vm.push(v)

	case bytecode.OpBuildDict:
		n := int(vm.readU16(f, chunk))
		d, err := vm.buildDict(n)
		if err != nil {
			return nil, err
		}
		vm.heap.Track(d)
		vm.push(value.Object(value.KindDict, d))

	case bytecode.OpBuildNamespace:
		n := int(vm.readU16(f, chunk))
		ns := vm.buildNamespace(n, f.Function.Proto.NamespaceContext)
		vm.push(value.Object(value.KindNamespace, ns))

	case bytecode.OpBuildEnum:
		n := int(vm.readU16(f, chunk))
		variants := make([]string, n)
		for i := n - 1; i >= 0; i-- {
			variants[i] = vm.pop().AsString()
		}
		name := vm.pop().AsString()
		vm.push(value.Object(value.KindEnum, value.NewEnum(name, variants)))

	case bytecode.OpBuildRangeInclusive, bytecode.OpBuildRangeExclusive:
		end := vm.pop()
		start := vm.pop()
		arr, err := buildRange(start, end, op == bytecode.OpBuildRangeInclusive)
		if err != nil {
			return nil, err
		}
		vm.heap.Track(arr)
		vm.push(value.Object(value.KindArray, arr))

	case bytecode.OpImport:
		pathIdx := vm.readU16(f, chunk)
		path := chunk.Constants[pathIdx].(string)
		if err := vm.importInto(path, f.Function.Proto.File); err != nil {
			return nil, err
		}

	case bytecode.OpImportAs:
		pathIdx := vm.readU16(f, chunk)
		aliasIdx := vm.readU16(f, chunk)
		path := chunk.Constants[pathIdx].(string)
		alias := chunk.Constants[aliasIdx].(string)
		ns, err := vm.importAs(path, f.Function.Proto.File)
		if err != nil {
			return nil, err
		}
		vm.globals.Define(alias, value.Object(value.KindNamespace, ns))

	case bytecode.OpTryStart:
		off := vm.readU16(f, chunk)
		vm.handlers = append(vm.handlers, &ExceptionHandler{
			FrameIndex: len(vm.frames) - 1,
			StackSize:  vm.sp,
			CatchIP:    f.IP + int(off),
		})

	case bytecode.OpTryEnd:
		if len(vm.handlers) > 0 {
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
		}

	case bytecode.OpThrow:
		v := vm.pop()
		return nil, &thrownValue{v: v}

	case bytecode.OpAwait:
		v := vm.pop()
		if v.Kind() != value.KindFuture {
			vm.push(v)
			return nil, nil
		}
		future := v.AsObject().(*value.Future)
		state, result, ferr := future.Poll()
		if state == value.FuturePending {
			return future, nil
		}
		if state == value.FutureRejected {
			message := "Future was cancelled"
			if ferr != nil {
				message = ferr.Error()
			}
			return nil, vmError("RuntimeError", "%s", message)
		}
		vm.push(result)

	case bytecode.OpSpreadArray:
		v := vm.pop()
		vm.push(value.Object(value.KindSpreadMarker, value.NewSpreadMarker(spreadElements(v))))

	default:
		return nil, vmError("RuntimeError", "unimplemented opcode %s", op)
	}
	return nil, nil
}

func constantToValue(c any) value.Value {
	switch v := c.(type) {
	case string:
		return value.String(v)
	case float64:
		return value.Number(v)
	default:
		return value.Null
	}
}

func compareSymbol(op bytecode.Op) string {
	switch op {
	case bytecode.OpLess:
		return "<"
	case bytecode.OpLessEqual:
		return "<="
	case bytecode.OpGreater:
		return ">"
	default:
		return ">="
	}
}

func bitSymbol(op bytecode.Op) string {
	switch op {
	case bytecode.OpBitAnd:
		return "&"
	case bytecode.OpBitOr:
		return "|"
	case bytecode.OpBitXor:
		return "^"
	case bytecode.OpLeftShift:
		return "<<"
	default:
		return ">>"
	}
}
