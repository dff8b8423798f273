// Package bytecode defines Sald's compiled instruction format: the opcode
// table, the Chunk container (code, constants, span map), and the function/
// class descriptors that live in a chunk's constant pool.
//
// Every instruction is one opcode byte followed by zero or more inline u16
// big-endian operands — compact, and simple enough that a disassembler or a
// VM dispatch loop never needs more than a byte slice and an instruction
// pointer. This file is normative against spec.md §4.2; the stack-shape
// comments mirror that table exactly.
package bytecode

// Op identifies a bytecode instruction.
type Op byte

// The full Sald instruction set, in the order spec.md §4.2 lists them.
// Stack notation in comments reads left-to-right, top-of-stack on the right.
const (
	OpConstant Op = iota // u16 idx    -- v
	OpPop                //            v --
	OpDup                //            v -- v v
	OpDupTwo             //            a b -- a b a b
	OpSwap               //            a b -- b a

	OpNull  // -- v (Null)
	OpTrue  // -- v (Boolean true)
	OpFalse // -- v (Boolean false)

	OpDefineGlobal // u16 name   v --
	OpGetGlobal    // u16 name   -- v
	OpSetGlobal    // u16 name   v -- v

	OpGetLocal // u16 slot
	OpSetLocal // u16 slot   v -- v

	OpGetUpvalue // u16 idx
	OpSetUpvalue // u16 idx   v -- v
	OpCloseUpvalue

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	OpNegate
	OpNot
	OpBitNot

	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	OpBitAnd
	OpBitOr
	OpBitXor
	OpLeftShift
	OpRightShift

	OpJump         // u16 off
	OpJumpIfFalse  // u16 off   peeks, does not pop
	OpJumpIfTrue   // u16 off   peeks, does not pop
	OpJumpIfNotNull // u16 off  peeks, does not pop
	OpLoop         // u16 off

	OpCall   // u16 argc   callee args... -- result
	OpReturn // v --

	OpClosure // u16 idx   -- v

	OpClass      // u16 name  -- class
	OpMethod     // u16 idx   class -- class
	OpStaticMethod
	OpInherit // sub super -- merged

	OpGetProperty // u16 name  obj -- v
	OpSetProperty // u16 name  obj v -- v
	OpGetSelf     // -- self
	OpInvoke      // u16 name, u16 argc   obj args... -- result
	OpGetSuper    // u16 name  -- bound (self read directly from the frame)

	OpBuildArray // u16 n
	OpGetIndex
	OpSetIndex

	OpBuildDict      // u16 n
	OpBuildNamespace // u16 n
	OpBuildEnum      // u16 n

	OpBuildRangeInclusive // start end -- array
	OpBuildRangeExclusive

	OpImport   // u16 path
	OpImportAs // u16 path, u16 alias

	OpTryStart // u16 catch-off
	OpTryEnd
	OpThrow // v --

	OpAwait // v -- v'

	OpSpreadArray // v -- SpreadMarker(v)
)

var opNames = map[Op]string{
	OpConstant:            "CONSTANT",
	OpPop:                 "POP",
	OpDup:                 "DUP",
	OpDupTwo:              "DUP_TWO",
	OpSwap:                "SWAP",
	OpNull:                "NULL",
	OpTrue:                "TRUE",
	OpFalse:               "FALSE",
	OpDefineGlobal:        "DEFINE_GLOBAL",
	OpGetGlobal:           "GET_GLOBAL",
	OpSetGlobal:           "SET_GLOBAL",
	OpGetLocal:            "GET_LOCAL",
	OpSetLocal:            "SET_LOCAL",
	OpGetUpvalue:          "GET_UPVALUE",
	OpSetUpvalue:          "SET_UPVALUE",
	OpCloseUpvalue:        "CLOSE_UPVALUE",
	OpAdd:                 "ADD",
	OpSub:                 "SUB",
	OpMul:                 "MUL",
	OpDiv:                 "DIV",
	OpMod:                 "MOD",
	OpNegate:              "NEGATE",
	OpNot:                 "NOT",
	OpBitNot:              "BIT_NOT",
	OpEqual:               "EQUAL",
	OpNotEqual:            "NOT_EQUAL",
	OpLess:                "LESS",
	OpLessEqual:           "LESS_EQUAL",
	OpGreater:             "GREATER",
	OpGreaterEqual:        "GREATER_EQUAL",
	OpBitAnd:              "BIT_AND",
	OpBitOr:               "BIT_OR",
	OpBitXor:              "BIT_XOR",
	OpLeftShift:           "LEFT_SHIFT",
	OpRightShift:          "RIGHT_SHIFT",
	OpJump:                "JUMP",
	OpJumpIfFalse:         "JUMP_IF_FALSE",
	OpJumpIfTrue:          "JUMP_IF_TRUE",
	OpJumpIfNotNull:       "JUMP_IF_NOT_NULL",
	OpLoop:                "LOOP",
	OpCall:                "CALL",
	OpReturn:              "RETURN",
	OpClosure:             "CLOSURE",
	OpClass:               "CLASS",
	OpMethod:              "METHOD",
	OpStaticMethod:        "STATIC_METHOD",
	OpInherit:             "INHERIT",
	OpGetProperty:         "GET_PROPERTY",
	OpSetProperty:         "SET_PROPERTY",
	OpGetSelf:             "GET_SELF",
	OpInvoke:              "INVOKE",
	OpGetSuper:            "GET_SUPER",
	OpBuildArray:          "BUILD_ARRAY",
	OpGetIndex:            "GET_INDEX",
	OpSetIndex:            "SET_INDEX",
	OpBuildDict:           "BUILD_DICT",
	OpBuildNamespace:      "BUILD_NAMESPACE",
	OpBuildEnum:           "BUILD_ENUM",
	OpBuildRangeInclusive: "BUILD_RANGE_INCLUSIVE",
	OpBuildRangeExclusive: "BUILD_RANGE_EXCLUSIVE",
	OpImport:              "IMPORT",
	OpImportAs:            "IMPORT_AS",
	OpTryStart:            "TRY_START",
	OpTryEnd:              "TRY_END",
	OpThrow:               "THROW",
	OpAwait:               "AWAIT",
	OpSpreadArray:         "SPREAD_ARRAY",
}

// String returns the mnemonic for op, or "UNKNOWN" for an unrecognized byte.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// operandWidths gives the number of u16 operands each opcode carries. Every
// instruction in Sald's set takes either zero or a fixed small number of u16
// operands, so the decoder never needs more than this table.
var operandWidths = map[Op]int{
	OpConstant:            1,
	OpDefineGlobal:        1,
	OpGetGlobal:           1,
	OpSetGlobal:           1,
	OpGetLocal:            1,
	OpSetLocal:            1,
	OpGetUpvalue:          1,
	OpSetUpvalue:          1,
	OpJump:                1,
	OpJumpIfFalse:         1,
	OpJumpIfTrue:          1,
	OpJumpIfNotNull:       1,
	OpLoop:                1,
	OpCall:                1,
	OpClosure:             1,
	OpClass:               1,
	OpMethod:              1,
	OpStaticMethod:        1,
	OpGetProperty:         1,
	OpSetProperty:         1,
	OpInvoke:              2,
	OpGetSuper:            1,
	OpBuildArray:          1,
	OpBuildDict:           1,
	OpBuildNamespace:      1,
	OpBuildEnum:           1,
	OpImport:              1,
	OpImportAs:            2,
	OpTryStart:            1,
}

// OperandWidth reports how many u16 operands op expects.
func OperandWidth(op Op) int { return operandWidths[op] }
