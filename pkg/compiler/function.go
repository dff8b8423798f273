package compiler

import (
	"github.com/saldlang/sald/pkg/ast"
	"github.com/saldlang/sald/pkg/bytecode"
)

// compileFunction compiles a function/lambda/method body into its own
// FunctionProto, nested inside the current fc for upvalue resolution, and
// returns it. The caller is responsible for emitting Closure with the
// resulting proto's constant index.
func (f *fc) compileFunction(name string, params []ast.FunctionParam, body []ast.Stmt, trailingExpr ast.Expr, isAsync bool, namespaceCtx, classCtx string, decorators []string) *bytecode.FunctionProto {
	sub := newFC(f, name, f.proto.File, namespaceCtx, classCtx)
	sub.proto.IsAsync = isAsync
	sub.proto.Decorators = decorators
	sub.beginScope()

	for _, p := range params {
		if p.IsVariadic {
			sub.proto.IsVariadic = true
			sub.declareLocal(p.Name, false, p.Span())
			continue
		}
		sub.proto.ParamNames = append(sub.proto.ParamNames, p.Name)
		sub.declareLocal(p.Name, false, p.Span())
		if p.DefaultValue != nil {
			sub.proto.DefaultCount++
			// Prologue: if the argument slot still holds Null (the VM's
			// "missing optional argument" placeholder), evaluate and store
			// the default expression.
			slot, _, _ := sub.resolveLocal(p.Name)
			sub.emitOp1(bytecode.OpGetLocal, uint16(slot), p.Span())
			jumpIfNotNull := sub.emitJump(bytecode.OpJumpIfNotNull, p.Span())
			sub.emit(bytecode.OpPop, p.Span())
			sub.compileExpr(p.DefaultValue)
			sub.emitOp1(bytecode.OpSetLocal, uint16(slot), p.Span())
			sub.patchJump(jumpIfNotNull)
			sub.emit(bytecode.OpPop, p.Span())
		}
	}
	sub.proto.Arity = len(sub.proto.ParamNames)
	if sub.proto.IsVariadic {
		sub.proto.Arity++
	}

	for _, s := range body {
		sub.compileStmt(s)
	}
	var zeroSpan bytecode.Span
	if trailingExpr != nil {
		sub.compileExpr(trailingExpr)
		sub.emit(bytecode.OpReturn, trailingExpr.Span())
	} else {
		sub.emit(bytecode.OpNull, zeroSpan)
		sub.emit(bytecode.OpReturn, zeroSpan)
	}

	f.errs = append(f.errs, sub.errs...)
	return sub.proto
}

// emitClosure adds proto to the constant pool and emits Closure for it.
func (f *fc) emitClosure(proto *bytecode.FunctionProto, span bytecode.Span) {
	idx := f.addConstant(proto)
	f.emitOp1(bytecode.OpClosure, idx, span)
}
