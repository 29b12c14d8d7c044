// Package vm implements the value model, compiler and register-based
// bytecode executor.
package vm

import "fmt"

// Opcode represents a single VM instruction
type Opcode uint8

const (
	// Loads
	OP_LOADK    Opcode = iota // A Bx: R[A] = K[Bx]
	OP_LOADNIL                // A: R[A] = nil
	OP_LOADBOOL               // A B: R[A] = B != 0
	OP_LOADI                  // A sBx: R[A] = sBx
	OP_MOVE                   // A B: R[A] = R[B]

	// Functions
	OP_CALL // A B: call R[A-1] with its argument at R[A], B results expected

	// Globals
	OP_GETGLOBAL  // A B: R[A] = G[K[B]]
	OP_SETGLOBAL  // A B: G[K[A]] = R[B]
	OP_SETGLOBALK // A B: G[K[A]] = K[B]
	OP_SETGLOBALG // A B: G[K[A]] = G[K[B]]

	// Tables (reserved: neither emitted by the compiler nor run by the executor)
	OP_NEWTABLE // A B C: R[A] = {} with B array and C hash slots
	OP_SETTABLE // A B C: R[A][R[B]] = R[C]
	OP_SETFIELD // A B C: R[A][K[B]] = R[C]
	OP_SETLIST  // A B: R[A][1..B] = R[A+1..A+B]

	opcodeCount
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_LOADK:      "LOADK",
	OP_LOADNIL:    "LOADNIL",
	OP_LOADBOOL:   "LOADBOOL",
	OP_LOADI:      "LOADI",
	OP_MOVE:       "MOVE",
	OP_CALL:       "CALL",
	OP_GETGLOBAL:  "GETGLOBAL",
	OP_SETGLOBAL:  "SETGLOBAL",
	OP_SETGLOBALK: "SETGLOBALK",
	OP_SETGLOBALG: "SETGLOBALG",
	OP_NEWTABLE:   "NEWTABLE",
	OP_SETTABLE:   "SETTABLE",
	OP_SETFIELD:   "SETFIELD",
	OP_SETLIST:    "SETLIST",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", uint8(op))
}

// Format describes how an instruction's operand bits are split.
type Format uint8

const (
	FormatA    Format = iota // A
	FormatAB                 // A B
	FormatABC                // A B C
	FormatABx                // A Bx (unsigned 16 bits)
	FormatAsBx               // A sBx (signed 16 bits)
)

var opcodeFormats = [opcodeCount]Format{
	OP_LOADK:      FormatABx,
	OP_LOADNIL:    FormatA,
	OP_LOADBOOL:   FormatAB,
	OP_LOADI:      FormatAsBx,
	OP_MOVE:       FormatAB,
	OP_CALL:       FormatAB,
	OP_GETGLOBAL:  FormatAB,
	OP_SETGLOBAL:  FormatAB,
	OP_SETGLOBALK: FormatAB,
	OP_SETGLOBALG: FormatAB,
	OP_NEWTABLE:   FormatABC,
	OP_SETTABLE:   FormatABC,
	OP_SETFIELD:   FormatABC,
	OP_SETLIST:    FormatAB,
}

// FormatOf returns the operand layout of op
func FormatOf(op Opcode) Format {
	if op < opcodeCount {
		return opcodeFormats[op]
	}
	return FormatABC
}

// Instruction is one encoded instruction:
//
//	bits  0-7   opcode
//	bits  8-15  A
//	bits 16-23  B     | bits 16-31 Bx / sBx
//	bits 24-31  C     |
type Instruction uint32

// ABC encodes an instruction with three 8-bit operands
func ABC(op Opcode, a, b, c uint8) Instruction {
	return Instruction(op) | Instruction(a)<<8 | Instruction(b)<<16 | Instruction(c)<<24
}

// ABx encodes an instruction with an 8-bit and an unsigned 16-bit operand
func ABx(op Opcode, a uint8, bx uint16) Instruction {
	return Instruction(op) | Instruction(a)<<8 | Instruction(bx)<<16
}

// AsBx encodes an instruction with an 8-bit and a signed 16-bit operand
func AsBx(op Opcode, a uint8, sbx int16) Instruction {
	return ABx(op, a, uint16(sbx))
}

func (i Instruction) Op() Opcode { return Opcode(i) }
func (i Instruction) A() uint8 { return uint8(i >> 8) }
func (i Instruction) B() uint8 { return uint8(i >> 16) }
func (i Instruction) C() uint8 { return uint8(i >> 24) }
func (i Instruction) Bx() uint16 { return uint16(i >> 16) }
func (i Instruction) SBx() int16 { return int16(uint16(i >> 16)) }

func (i Instruction) String() string {
	op := i.Op()
	switch FormatOf(op) {
	case FormatA:
		return fmt.Sprintf("%s %d", op, i.A())
	case FormatAB:
		return fmt.Sprintf("%s %d %d", op, i.A(), i.B())
	case FormatABx:
		return fmt.Sprintf("%s %d %d", op, i.A(), i.Bx())
	case FormatAsBx:
		return fmt.Sprintf("%s %d %d", op, i.A(), i.SBx())
	default:
		return fmt.Sprintf("%s %d %d %d", op, i.A(), i.B(), i.C())
	}
}

// Typed constructors, one per catalog entry

func LoadK(dst uint8, k uint16) Instruction { return ABx(OP_LOADK, dst, k) }
func LoadNil(dst uint8) Instruction { return ABC(OP_LOADNIL, dst, 0, 0) }
func LoadI(dst uint8, n int16) Instruction { return AsBx(OP_LOADI, dst, n) }
func Move(dst, src uint8) Instruction { return ABC(OP_MOVE, dst, src, 0) }
func Call(arg, nresults uint8) Instruction { return ABC(OP_CALL, arg, nresults, 0) }
func GetGlobal(dst, name uint8) Instruction { return ABC(OP_GETGLOBAL, dst, name, 0) }
func SetGlobal(name, src uint8) Instruction { return ABC(OP_SETGLOBAL, name, src, 0) }
func SetGlobalK(name, k uint8) Instruction { return ABC(OP_SETGLOBALK, name, k, 0) }
func SetGlobalG(name, other uint8) Instruction { return ABC(OP_SETGLOBALG, name, other, 0) }
func NewTableOp(dst, narr, nhash uint8) Instruction { return ABC(OP_NEWTABLE, dst, narr, nhash) }
func SetTable(t, key, val uint8) Instruction { return ABC(OP_SETTABLE, t, key, val) }
func SetField(t, k, val uint8) Instruction { return ABC(OP_SETFIELD, t, k, val) }
func SetList(t, n uint8) Instruction { return ABC(OP_SETLIST, t, n, 0) }

func LoadBool(dst uint8, b bool) Instruction {
	var v uint8
	if b {
		v = 1
	}
	return ABC(OP_LOADBOOL, dst, v, 0)
}
