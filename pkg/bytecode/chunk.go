package bytecode

import "fmt"

// Chunk is a compiled unit: an ordered byte sequence of opcodes and inline
// u16 operands, a parallel span map, and a constant pool. A Chunk is built
// once by the compiler (or, for tests and tooling, by pkg/chunkasm) and
// executed read-only by the VM.
type Chunk struct {
	Code      []byte
	Constants []any
	Spans     SpanMap

	// Name and File help error messages and stack traces identify which
	// function's chunk is executing.
	Name string
	File string
}

// NewChunk returns an empty, ready-to-emit-into Chunk.
func NewChunk(name, file string) *Chunk {
	return &Chunk{Name: name, File: file}
}

// AddConstant appends v to the constant pool and returns its index. Callers
// that want constant de-duplication (e.g. repeated string/number literals)
// should check the pool themselves first; Chunk does not dedupe on its own
// because spans differ per use site even when the value is identical.
func (c *Chunk) AddConstant(v any) uint16 {
	c.Constants = append(c.Constants, v)
	idx := len(c.Constants) - 1
	if idx > 0xFFFF {
		panic(fmt.Sprintf("bytecode: constant pool overflow in %s (%d entries)", c.Name, idx+1))
	}
	return uint16(idx)
}

// Emit appends op and records span for the opcode byte itself. It returns
// the byte offset at which op was written, which callers use as a jump
// target or a patch site.
func (c *Chunk) Emit(op Op, span Span) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Spans.Record(offset, offset+1, span)
	return offset
}

// EmitU16 appends a single big-endian u16 operand after an opcode emitted by
// Emit, extending that opcode's span to cover the operand bytes too.
func (c *Chunk) EmitU16(operand uint16, span Span) {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(operand>>8), byte(operand))
	c.Spans.Record(offset, offset+2, span)
}

// EmitOp1 emits op followed by one u16 operand, the common case for
// instructions like Constant, GetLocal, or Jump.
func (c *Chunk) EmitOp1(op Op, operand uint16, span Span) int {
	offset := c.Emit(op, span)
	c.EmitU16(operand, span)
	return offset
}

// PatchU16 overwrites the u16 operand starting at byte offset with a new
// value. Used to back-patch forward jumps once their target is known.
func (c *Chunk) PatchU16(offset int, operand uint16) {
	c.Code[offset] = byte(operand >> 8)
	c.Code[offset+1] = byte(operand)
}

// ReadU16 decodes the big-endian u16 at byte offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// Len returns the current length of the emitted code, i.e. the offset the
// next instruction will be written at.
func (c *Chunk) Len() int { return len(c.Code) }
