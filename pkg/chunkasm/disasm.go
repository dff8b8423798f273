package chunkasm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saldlang/sald/pkg/bytecode"
)

// Disassemble renders proto (and, transitively, every FunctionProto reachable
// through a CLOSURE constant) back into Assemble's textual format. Round-
// tripping Disassemble then Assemble reproduces an equivalent chunk — labels
// are synthesized at every byte offset a jump or loop actually targets, so
// the instruction stream itself is unchanged.
func Disassemble(proto *bytecode.FunctionProto) string {
	var sb strings.Builder
	seen := map[*bytecode.FunctionProto]bool{}
	var order []*bytecode.FunctionProto
	collectProtos(proto, seen, &order)

	for i, p := range order {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeFunction(&sb, p)
	}
	return sb.String()
}

func collectProtos(p *bytecode.FunctionProto, seen map[*bytecode.FunctionProto]bool, order *[]*bytecode.FunctionProto) {
	if p == nil || seen[p] {
		return
	}
	seen[p] = true
	*order = append(*order, p)
	for _, c := range p.Chunk.Constants {
		if nested, ok := c.(*bytecode.FunctionProto); ok {
			collectProtos(nested, seen, order)
		}
	}
}

func writeFunction(sb *strings.Builder, p *bytecode.FunctionProto) {
	fmt.Fprintf(sb, "function: %s %d %d", p.Name, p.Arity, p.DefaultCount)
	if p.IsVariadic {
		sb.WriteString(" +variadic")
	}
	if p.IsAsync {
		sb.WriteString(" +async")
	}
	sb.WriteString("\n")

	if p.File != "" {
		fmt.Fprintf(sb, "\tfile: %s\n", p.File)
	}
	if p.ClassContext != "" {
		fmt.Fprintf(sb, "\tclass: %s\n", p.ClassContext)
	}
	if p.NamespaceContext != "" {
		fmt.Fprintf(sb, "\tnamespace: %s\n", p.NamespaceContext)
	}
	if len(p.Upvalues) > 0 {
		sb.WriteString("\tupvalues:\n")
		for _, u := range p.Upvalues {
			kind := "upvalue"
			if u.IsLocal {
				kind = "local"
			}
			fmt.Fprintf(sb, "\t\t%s %d\n", kind, u.Index)
		}
	}

	sb.WriteString("\tcode:\n")
	writeCode(sb, p.Chunk)
}

// writeCode walks a chunk's byte code one instruction at a time, emitting a
// synthesized L<offset>: label at every address some jump/loop targets.
func writeCode(sb *strings.Builder, chunk *bytecode.Chunk) {
	targets := map[int]bool{}
	for ip := 0; ip < len(chunk.Code); {
		op := bytecode.Op(chunk.Code[ip])
		width := operandCount(op)
		if op == bytecode.OpLoop || jumpOps[op] {
			off := chunk.ReadU16(ip + 1)
			after := ip + 1 + 2*width
			var target int
			if op == bytecode.OpLoop {
				target = after - int(off)
			} else {
				target = after + int(off)
			}
			targets[target] = true
		}
		ip += 1 + 2*width
	}

	for ip := 0; ip < len(chunk.Code); {
		if targets[ip] {
			fmt.Fprintf(sb, "\tL%d:\n", ip)
		}
		op := bytecode.Op(chunk.Code[ip])
		width := operandCount(op)
		fmt.Fprintf(sb, "\t\t%s", op)

		switch {
		case op == bytecode.OpLoop || jumpOps[op]:
			off := chunk.ReadU16(ip + 1)
			after := ip + 1 + 2*width
			var target int
			if op == bytecode.OpLoop {
				target = after - int(off)
			} else {
				target = after + int(off)
			}
			fmt.Fprintf(sb, " L%d", target)

		case op == bytecode.OpInvoke:
			nameIdx := chunk.ReadU16(ip + 1)
			argc := chunk.ReadU16(ip + 3)
			fmt.Fprintf(sb, " %s %d", formatConstant(chunk.Constants[nameIdx]), argc)

		case op == bytecode.OpImportAs:
			pathIdx := chunk.ReadU16(ip + 1)
			aliasIdx := chunk.ReadU16(ip + 3)
			fmt.Fprintf(sb, " %s %s", formatConstant(chunk.Constants[pathIdx]), formatConstant(chunk.Constants[aliasIdx]))

		case op == bytecode.OpClosure:
			idx := chunk.ReadU16(ip + 1)
			if fp, ok := chunk.Constants[idx].(*bytecode.FunctionProto); ok {
				fmt.Fprintf(sb, " @%s", fp.Name)
			} else {
				fmt.Fprintf(sb, " @<const %d>", idx)
			}

		case constOperandOps[op]:
			idx := chunk.ReadU16(ip + 1)
			fmt.Fprintf(sb, " %s", formatConstant(chunk.Constants[idx]))

		case width > 0:
			fmt.Fprintf(sb, " %d", chunk.ReadU16(ip+1))
		}
		sb.WriteString("\n")
		ip += 1 + 2*width
	}
}

func formatConstant(v any) string {
	switch c := v.(type) {
	case string:
		return strconv.Quote(c)
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", c)
	}
}
