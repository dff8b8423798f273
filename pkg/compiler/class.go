package compiler

import (
	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/bytecode"
)

// compileClass compiles a class declaration and binds the resulting Class
// value to its name, following the Class/Inherit/Method sequence spec.md
// §4.1 describes.
func (f *fc) compileClass(n *ast.ClassStmt) {
	f.compileClassValue(n.Def)
	f.finishBinding(n.Def.Name, false, n.Def.SpanVal)
}

// compileClassValue emits the Class/Inherit/Method* sequence and leaves the
// resulting Class value on top of the stack, without binding it to a name —
// shared by compileClass (binds a global/local) and compileNamespace (binds
// a namespace export instead).
func (f *fc) compileClassValue(def ast.ClassDef) {
	nameIdx := f.addConstant(def.Name)
	f.emitOp1(bytecode.OpClass, nameIdx, def.SpanVal)

	if def.Superclass != "" {
		superIdx := f.addConstant(def.Superclass)
		f.emitOp1(bytecode.OpGetGlobal, superIdx, def.SpanVal)
		f.emit(bytecode.OpInherit, def.SpanVal)
	}

	for _, m := range def.Methods {
		f.registerParamNames(m.Name, m.Params)
		proto := f.compileFunction(m.Name, m.Params, m.Body, nil, m.IsAsync, f.namespaceContext, def.Name, m.Decorators)
		f.emitClosure(proto, m.SpanVal)
		methodNameIdx := f.addConstant(m.Name)
		if m.IsStatic {
			f.emitOp1(bytecode.OpStaticMethod, methodNameIdx, m.SpanVal)
		} else {
			f.emitOp1(bytecode.OpMethod, methodNameIdx, m.SpanVal)
		}
	}
}

// compileInterface compiles to nothing: there is no opcode for an interface
// declaration, and its method names are not recorded anywhere. The native
// `implementsInterface` helper checks a class against a list of method
// names supplied by its own caller, using the class's own method table.
func (f *fc) compileInterface(n *ast.InterfaceStmt) {}

// compileNamespace compiles a namespace declaration into its anonymous
// zero-arg function form, calls it immediately, and binds the resulting
// Namespace value to the namespace's name: `Closure + Call 0 + DefineGlobal`
// per spec.md §4.1.
func (f *fc) compileNamespace(n *ast.NamespaceStmt) {
	proto := f.compileNamespaceValue(n)
	f.emitClosure(proto, n.SpanVal)
	f.emitOp1(bytecode.OpCall, 0, n.SpanVal)
	f.finishBinding(n.Name, false, n.SpanVal)
}

// compileNamespaceValue compiles a namespace body as its own anonymous
// zero-arg function: every let/const/function/class/nested-namespace/enum
// declaration becomes a true local of that function (not a global), so an
// inner function's Closure can capture it as an upvalue — this is the
// mechanism spec.md §4.1 describes for namespace-local constant capture.
// Statements that are not one of those declaration forms still execute, for
// side effects, but contribute nothing to the export set. The caller is
// responsible for emitting Closure (and, for a bound namespace, Call 0 and
// a binding) with the returned proto.
func (f *fc) compileNamespaceValue(n *ast.NamespaceStmt) *bytecode.FunctionProto {
	full := n.Name
	if f.namespaceContext != "" {
		full = f.namespaceContext + "." + n.Name
	}
	ns := newFC(f, "<namespace:"+full+">", f.proto.File, full, "")

	var exports []string
	for _, stmt := range n.Body {
		switch st := stmt.(type) {
		case *ast.LetStmt:
			if st.Initializer != nil {
				ns.compileExpr(st.Initializer)
			} else {
				ns.emit(bytecode.OpNull, st.SpanVal)
			}
			ns.declareLocal(st.Name, false, st.SpanVal)
			exports = append(exports, st.Name)
		case *ast.ConstStmt:
			ns.compileExpr(st.Value)
			ns.declareLocal(st.Name, true, st.SpanVal)
			exports = append(exports, st.Name)
		case *ast.FunctionStmt:
			ns.registerParamNames(st.Def.Name, st.Def.Params)
			proto := ns.compileFunction(st.Def.Name, st.Def.Params, st.Def.Body, nil, st.Def.IsAsync, full, "", st.Def.Decorators)
			ns.emitClosure(proto, st.Def.SpanVal)
			ns.declareLocal(st.Def.Name, false, st.Def.SpanVal)
			exports = append(exports, st.Def.Name)
		case *ast.ClassStmt:
			ns.compileClassValue(st.Def)
			ns.declareLocal(st.Def.Name, false, st.Def.SpanVal)
			exports = append(exports, st.Def.Name)
		case *ast.NamespaceStmt:
			nestedProto := ns.compileNamespaceValue(st)
			ns.emitClosure(nestedProto, st.SpanVal)
			ns.emitOp1(bytecode.OpCall, 0, st.SpanVal)
			ns.declareLocal(st.Name, false, st.SpanVal)
			exports = append(exports, st.Name)
		case *ast.EnumStmt:
			ns.compileEnumValue(st)
			ns.declareLocal(st.Name, false, st.SpanVal)
			exports = append(exports, st.Name)
		default:
			ns.compileStmt(stmt)
		}
	}

	for _, name := range exports {
		keyIdx := ns.addConstant(name)
		ns.emitOp1(bytecode.OpConstant, keyIdx, n.SpanVal)
		slot, _, _ := ns.resolveLocal(name)
		ns.emitOp1(bytecode.OpGetLocal, uint16(slot), n.SpanVal)
	}
	ns.emitOp1(bytecode.OpBuildNamespace, uint16(len(exports)), n.SpanVal)
	ns.emit(bytecode.OpReturn, n.SpanVal)

	f.errs = append(f.errs, ns.errs...)
	return ns.proto
}

// compileEnumValue pushes the enum's own name followed by each variant
// name, in order, then BuildEnum n (n = variant count) pops all of it and
// builds the Enum value, leaving it on the stack — the extra name push is
// why BuildEnum's operand counts variants only, not the total string count
// on the stack. Binding is left to the caller (compileEnum, or an enclosing
// namespace exporting it as a member).
func (f *fc) compileEnumValue(n *ast.EnumStmt) {
	nameIdx := f.addConstant(n.Name)
	f.emitOp1(bytecode.OpConstant, nameIdx, n.SpanVal)
	for _, v := range n.Variants {
		vIdx := f.addConstant(v)
		f.emitOp1(bytecode.OpConstant, vIdx, n.SpanVal)
	}
	f.emitOp1(bytecode.OpBuildEnum, uint16(len(n.Variants)), n.SpanVal)
}

func (f *fc) compileEnum(n *ast.EnumStmt) {
	f.compileEnumValue(n)
	f.finishBinding(n.Name, false, n.SpanVal)
}
