// Package chunkasm implements a human-readable/writable textual form of a
// compiled Sald chunk, for driving pkg/vm directly in tests without going
// through a lexer or parser. It mirrors what a real compiler produces — one
// *bytecode.FunctionProto per function, with OpClosure constants pointing at
// nested FunctionProtos — just spelled out as text instead of built up by
// walking an AST.
//
// A source document lists one or more function blocks; the first one becomes
// the returned entry FunctionProto, and any others are only reachable if some
// CLOSURE instruction references them by name. The format looks like:
//
//	function: main 0 0
//		code:
//			CONSTANT "hello"
//			DEFINE_GLOBAL "greeting"
//			NULL
//			RETURN
//
//	function: add 2 0
//		code:
//			GET_LOCAL 0
//			GET_LOCAL 1
//			ADD
//			RETURN
//
// A function header is `function: NAME ARITY DEFAULTCOUNT [+variadic]
// [+async]`. Optional `class:`/`namespace:` lines set ClassContext/
// NamespaceContext; an optional `upvalues:` section lists `local <idx>` or
// `upvalue <idx>` descriptors, one per line, in capture order.
//
// Inside `code:`, jump instructions (JUMP, JUMP_IF_FALSE, JUMP_IF_TRUE,
// JUMP_IF_NOT_NULL, LOOP, TRY_START) take a label name rather than a raw
// byte offset — `name:` on its own line defines a label at the following
// instruction. This departs from the index-addressed jump scheme an indexed
// instruction list would use, in favor of named labels, which read and
// patch more naturally by hand. CLOSURE takes `@name` naming another
// function block in the same document. Every other operand is either a
// quoted string, a bare number, or — for CONSTANT — either.
package chunkasm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/saldlang/sald/pkg/bytecode"
)

// Assemble parses source into its entry FunctionProto (the first function
// block). Nested function blocks are only retained if some CLOSURE
// instruction in the document actually references them.
func Assemble(source []byte) (*bytecode.FunctionProto, error) {
	a := &assembler{s: bufio.NewScanner(bytes.NewReader(source)), protos: map[string]*bytecode.FunctionProto{}}
	var order []string

	fields := a.next()
	for a.err == nil && len(fields) > 0 {
		name := a.function(fields)
		if a.err != nil {
			break
		}
		order = append(order, name)
		fields = a.next()
	}
	if a.err != nil {
		return nil, a.err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("chunkasm: no function blocks found")
	}
	if err := a.resolveClosures(); err != nil {
		return nil, err
	}
	return a.protos[order[0]], nil
}

type pendingClosure struct {
	chunk     *bytecode.Chunk
	constIdx  int
	calleeRef string
}

type assembler struct {
	s       *bufio.Scanner
	rawLine string
	err     error
	// held is a section header the code section stopped at, handed back
	// by the next call to next.
	held []string

	protos   map[string]*bytecode.FunctionProto
	pendings []pendingClosure
}

// next returns the whitespace-split fields of the next non-blank,
// non-comment line ("#" prefix), or nil at EOF.
func (a *assembler) next() []string {
	a.rawLine = ""
	if a.err != nil {
		return nil
	}
	if a.held != nil {
		fields := a.held
		a.held = nil
		return fields
	}
	for a.s.Scan() {
		line := stripComment(a.s.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		a.rawLine = strings.TrimSpace(line)
		return fields
	}
	a.err = a.s.Err()
	return nil
}

func (a *assembler) function(fields []string) string {
	if len(fields) < 4 || !strings.EqualFold(fields[0], "function:") {
		a.err = fmt.Errorf("expected 'function: NAME ARITY DEFAULTCOUNT', got %q", strings.Join(fields, " "))
		return ""
	}
	name := fields[1]
	arity, err := strconv.Atoi(fields[2])
	if err != nil {
		a.err = fmt.Errorf("function %s: invalid arity %q: %w", name, fields[2], err)
		return ""
	}
	defaultCount, err := strconv.Atoi(fields[3])
	if err != nil {
		a.err = fmt.Errorf("function %s: invalid default count %q: %w", name, fields[3], err)
		return ""
	}
	proto := &bytecode.FunctionProto{
		Name:         name,
		File:         "<chunkasm>",
		Chunk:        bytecode.NewChunk(name, "<chunkasm>"),
		Arity:        arity,
		DefaultCount: defaultCount,
	}
	for _, opt := range fields[4:] {
		switch opt {
		case "+variadic":
			proto.IsVariadic = true
		case "+async":
			proto.IsAsync = true
		default:
			a.err = fmt.Errorf("function %s: unknown option %q", name, opt)
			return ""
		}
	}
	a.protos[name] = proto

	fields = a.next()
	fields = a.metaLine(proto, fields, "file:", func(v string) { proto.File = v; proto.Chunk.File = v })
	fields = a.metaLine(proto, fields, "class:", func(v string) { proto.ClassContext = v })
	fields = a.metaLine(proto, fields, "namespace:", func(v string) { proto.NamespaceContext = v })
	fields = a.upvalues(proto, fields)
	a.code(proto, fields)
	return name
}

func (a *assembler) metaLine(proto *bytecode.FunctionProto, fields []string, tag string, set func(string)) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], tag) {
		return fields
	}
	if len(fields) < 2 {
		a.err = fmt.Errorf("function %s: %s requires a value", proto.Name, tag)
		return fields
	}
	set(fields[1])
	return a.next()
}

func (a *assembler) upvalues(proto *bytecode.FunctionProto, fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "upvalues:") {
		return fields
	}
	for fields = a.next(); a.err == nil && len(fields) > 0 && !isSectionHeader(fields[0]); fields = a.next() {
		if len(fields) != 2 {
			a.err = fmt.Errorf("function %s: invalid upvalue descriptor %q", proto.Name, strings.Join(fields, " "))
			return fields
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			a.err = fmt.Errorf("function %s: invalid upvalue index %q: %w", proto.Name, fields[1], err)
			return fields
		}
		switch fields[0] {
		case "local":
			proto.Upvalues = append(proto.Upvalues, bytecode.UpvalueDesc{Index: idx, IsLocal: true})
		case "upvalue":
			proto.Upvalues = append(proto.Upvalues, bytecode.UpvalueDesc{Index: idx, IsLocal: false})
		default:
			a.err = fmt.Errorf("function %s: invalid upvalue kind %q", proto.Name, fields[0])
			return fields
		}
	}
	return fields
}

func isSectionHeader(s string) bool {
	switch s {
	case "function:", "file:", "class:", "namespace:", "upvalues:", "code:":
		return true
	default:
		return false
	}
}

// rawInsn is one parsed code-section line before its operand bytes are
// known: a mnemonic plus its unparsed argument text (if any), or a bare
// label definition.
type rawInsn struct {
	label string // non-empty if this line is just "name:"
	op    bytecode.Op
	arg   string // raw remainder of the line, trimmed; "" if no operand
}

func (a *assembler) code(proto *bytecode.FunctionProto, fields []string) {
	if a.err != nil {
		return
	}
	if len(fields) == 0 || !strings.EqualFold(fields[0], "code:") {
		a.err = fmt.Errorf("function %s: expected code: section", proto.Name)
		return
	}

	var insns []rawInsn
	for fields = a.next(); a.err == nil && len(fields) > 0 && !isSectionHeader(fields[0]); fields = a.next() {
		head := fields[0]
		if strings.HasSuffix(head, ":") && len(fields) == 1 {
			insns = append(insns, rawInsn{label: strings.TrimSuffix(head, ":")})
			continue
		}
		op, ok := mnemonicToOp[strings.ToUpper(head)]
		if !ok {
			a.err = fmt.Errorf("function %s: unknown opcode %q", proto.Name, head)
			return
		}
		arg := ""
		if len(fields) > 1 {
			arg = strings.TrimSpace(strings.TrimPrefix(a.rawLine, head))
		}
		insns = append(insns, rawInsn{op: op, arg: arg})
	}
	if a.err == nil && len(fields) > 0 {
		a.held = fields
	}

	labels := map[string]int{}
	idx := 0
	for _, in := range insns {
		if in.label != "" {
			labels[in.label] = idx
			continue
		}
		idx++
	}

	addrs := make([]int, 0, idx)
	addr := 0
	for _, in := range insns {
		if in.label != "" {
			continue
		}
		addrs = append(addrs, addr)
		addr += 1 + 2*operandCount(in.op)
	}

	i := 0
	for _, in := range insns {
		if a.err != nil {
			return
		}
		if in.label != "" {
			continue
		}
		a.emit(proto, in, i, addrs, labels)
		i++
	}
}

func operandCount(op bytecode.Op) int {
	if twoOperandOps[op] {
		return 2
	}
	return bytecode.OperandWidth(op)
}

func (a *assembler) emit(proto *bytecode.FunctionProto, in rawInsn, index int, addrs []int, labels map[string]int) {
	chunk := proto.Chunk
	chunk.Emit(in.op, bytecode.Span{})

	switch {
	case in.op == bytecode.OpLoop:
		target, ok := labels[in.arg]
		if !ok {
			a.err = fmt.Errorf("function %s: undefined label %q", proto.Name, in.arg)
			return
		}
		afterOperand := addrs[index] + 3
		dist := afterOperand - addrs[target]
		if dist < 0 || dist > 0xFFFF {
			a.err = fmt.Errorf("function %s: loop distance %d out of range", proto.Name, dist)
			return
		}
		chunk.EmitU16(uint16(dist), bytecode.Span{})

	case jumpOps[in.op]:
		target, ok := labels[in.arg]
		if !ok {
			a.err = fmt.Errorf("function %s: undefined label %q", proto.Name, in.arg)
			return
		}
		afterOperand := addrs[index] + 3
		dist := addrs[target] - afterOperand
		if dist < 0 || dist > 0xFFFF {
			a.err = fmt.Errorf("function %s: jump distance %d out of range", proto.Name, dist)
			return
		}
		chunk.EmitU16(uint16(dist), bytecode.Span{})

	case in.op == bytecode.OpInvoke:
		name, rest, err := splitConstAndRaw(in.arg)
		if err != nil {
			a.err = fmt.Errorf("function %s: %w", proto.Name, err)
			return
		}
		v, err := parseConstValue(name)
		if err != nil {
			a.err = fmt.Errorf("function %s: %w", proto.Name, err)
			return
		}
		chunk.EmitU16(chunk.AddConstant(v), bytecode.Span{})
		argc, err := strconv.ParseUint(rest, 10, 16)
		if err != nil {
			a.err = fmt.Errorf("function %s: invalid INVOKE argc %q: %w", proto.Name, rest, err)
			return
		}
		chunk.EmitU16(uint16(argc), bytecode.Span{})

	case in.op == bytecode.OpImportAs:
		pathTok, aliasTok, err := splitConstAndRaw(in.arg)
		if err != nil {
			a.err = fmt.Errorf("function %s: %w", proto.Name, err)
			return
		}
		pathVal, err := parseConstValue(pathTok)
		if err != nil {
			a.err = fmt.Errorf("function %s: %w", proto.Name, err)
			return
		}
		aliasVal, err := parseConstValue(aliasTok)
		if err != nil {
			a.err = fmt.Errorf("function %s: %w", proto.Name, err)
			return
		}
		chunk.EmitU16(chunk.AddConstant(pathVal), bytecode.Span{})
		chunk.EmitU16(chunk.AddConstant(aliasVal), bytecode.Span{})

	case in.op == bytecode.OpClosure:
		callee := strings.TrimPrefix(in.arg, "@")
		a.pendings = append(a.pendings, pendingClosure{chunk: chunk, constIdx: len(chunk.Constants), calleeRef: callee})
		chunk.AddConstant(nil) // placeholder, patched by resolveClosures
		chunk.EmitU16(uint16(len(chunk.Constants)-1), bytecode.Span{})

	case constOperandOps[in.op]:
		v, err := parseConstValue(in.arg)
		if err != nil {
			a.err = fmt.Errorf("function %s: %w", proto.Name, err)
			return
		}
		chunk.EmitU16(chunk.AddConstant(v), bytecode.Span{})

	case bytecode.OperandWidth(in.op) > 0:
		n, err := strconv.ParseUint(in.arg, 10, 16)
		if err != nil {
			a.err = fmt.Errorf("function %s: invalid operand %q for %s: %w", proto.Name, in.arg, in.op, err)
			return
		}
		chunk.EmitU16(uint16(n), bytecode.Span{})

	default:
		if in.arg != "" {
			a.err = fmt.Errorf("function %s: %s takes no operand, got %q", proto.Name, in.op, in.arg)
		}
	}
}

// splitConstAndRaw splits a two-operand line's argument text into its
// leading constant token (a quoted string consumes everything up to its
// closing quote) and the trailing raw token.
func splitConstAndRaw(arg string) (string, string, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, `"`) {
		q, err := strconv.QuotedPrefix(arg)
		if err != nil {
			return "", "", fmt.Errorf("invalid quoted constant in %q: %w", arg, err)
		}
		rest := strings.TrimSpace(arg[len(q):])
		return q, rest, nil
	}
	parts := strings.Fields(arg)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected two operands, got %q", arg)
	}
	return parts[0], parts[1], nil
}

// stripComment truncates line at the first "#" that falls outside a quoted
// string, so a trailing "# note" doesn't get swallowed into an operand.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			if i == 0 || line[i-1] != '\\' {
				inQuote = !inQuote
			}
		case '#':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// parseConstValue turns one operand token into the constant-pool value it
// names: a quoted string literal, or a bare number.
func parseConstValue(tok string) (any, error) {
	tok = strings.TrimSpace(tok)
	if strings.HasPrefix(tok, `"`) {
		s, err := strconv.Unquote(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid string constant %q: %w", tok, err)
		}
		return s, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid constant %q: %w", tok, err)
	}
	return f, nil
}

func (a *assembler) resolveClosures() error {
	for _, p := range a.pendings {
		callee, ok := a.protos[p.calleeRef]
		if !ok {
			return fmt.Errorf("chunkasm: CLOSURE references undefined function %q", p.calleeRef)
		}
		p.chunk.Constants[p.constIdx] = callee
	}
	return nil
}

var jumpOps = map[bytecode.Op]bool{
	bytecode.OpJump:          true,
	bytecode.OpJumpIfFalse:   true,
	bytecode.OpJumpIfTrue:    true,
	bytecode.OpJumpIfNotNull: true,
	bytecode.OpTryStart:      true,
}

var twoOperandOps = map[bytecode.Op]bool{
	bytecode.OpInvoke:    true,
	bytecode.OpImportAs:  true,
}

var constOperandOps = map[bytecode.Op]bool{
	bytecode.OpConstant:      true,
	bytecode.OpDefineGlobal:  true,
	bytecode.OpGetGlobal:     true,
	bytecode.OpSetGlobal:     true,
	bytecode.OpClass:         true,
	bytecode.OpMethod:        true,
	bytecode.OpStaticMethod:  true,
	bytecode.OpGetProperty:   true,
	bytecode.OpSetProperty:   true,
	bytecode.OpGetSuper:      true,
	bytecode.OpImport:        true,
}

var allOps = []bytecode.Op{
	bytecode.OpConstant, bytecode.OpPop, bytecode.OpDup, bytecode.OpDupTwo, bytecode.OpSwap,
	bytecode.OpNull, bytecode.OpTrue, bytecode.OpFalse,
	bytecode.OpDefineGlobal, bytecode.OpGetGlobal, bytecode.OpSetGlobal,
	bytecode.OpGetLocal, bytecode.OpSetLocal,
	bytecode.OpGetUpvalue, bytecode.OpSetUpvalue, bytecode.OpCloseUpvalue,
	bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod,
	bytecode.OpNegate, bytecode.OpNot, bytecode.OpBitNot,
	bytecode.OpEqual, bytecode.OpNotEqual, bytecode.OpLess, bytecode.OpLessEqual, bytecode.OpGreater, bytecode.OpGreaterEqual,
	bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpLeftShift, bytecode.OpRightShift,
	bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpJumpIfTrue, bytecode.OpJumpIfNotNull, bytecode.OpLoop,
	bytecode.OpCall, bytecode.OpReturn,
	bytecode.OpClosure,
	bytecode.OpClass, bytecode.OpMethod, bytecode.OpStaticMethod, bytecode.OpInherit,
	bytecode.OpGetProperty, bytecode.OpSetProperty, bytecode.OpGetSelf, bytecode.OpInvoke, bytecode.OpGetSuper,
	bytecode.OpBuildArray, bytecode.OpGetIndex, bytecode.OpSetIndex,
	bytecode.OpBuildDict, bytecode.OpBuildNamespace, bytecode.OpBuildEnum,
	bytecode.OpBuildRangeInclusive, bytecode.OpBuildRangeExclusive,
	bytecode.OpImport, bytecode.OpImportAs,
	bytecode.OpTryStart, bytecode.OpTryEnd, bytecode.OpThrow,
	bytecode.OpAwait,
	bytecode.OpSpreadArray,
}

var mnemonicToOp = func() map[string]bytecode.Op {
	m := make(map[string]bytecode.Op, len(allOps))
	for _, op := range allOps {
		m[op.String()] = op
	}
	return m
}()
