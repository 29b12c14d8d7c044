package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable representation of the bytecode
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	if len(chunk.Constants) > 0 {
		sb.WriteString("constants:\n")
		for i, k := range chunk.Constants {
			sb.WriteString(fmt.Sprintf("  %4d %-12s %s\n", i, k.Kind(), k.Inspect()))
		}
	}
	if len(chunk.Locals) > 0 {
		sb.WriteString("locals:\n")
		for i, local := range chunk.Locals {
			sb.WriteString(fmt.Sprintf("  %4d %s\n", i, local))
		}
	}

	sb.WriteString("code:\n")
	for pc := range chunk.Code {
		disassembleInstruction(&sb, chunk, pc)
	}

	return sb.String()
}

// disassembleInstruction writes a single instruction line
func disassembleInstruction(sb *strings.Builder, chunk *Chunk, pc int) {
	sb.WriteString(fmt.Sprintf("%04d ", pc))

	// Print line number
	if pc > 0 && chunk.LineAt(pc) == chunk.LineAt(pc-1) {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.LineAt(pc)))
	}

	ins := chunk.Code[pc]
	op := ins.Op()
	switch op {
	case OP_LOADK:
		constantInstruction(sb, op, chunk, fmt.Sprintf("%d %d", ins.A(), ins.Bx()), int(ins.Bx()))
	case OP_GETGLOBAL:
		constantInstruction(sb, op, chunk, fmt.Sprintf("%d %d", ins.A(), ins.B()), int(ins.B()))
	case OP_SETGLOBAL:
		constantInstruction(sb, op, chunk, fmt.Sprintf("%d %d", ins.A(), ins.B()), int(ins.A()))
	case OP_SETGLOBALK, OP_SETGLOBALG:
		constantInstruction(sb, op, chunk, fmt.Sprintf("%d %d", ins.A(), ins.B()), int(ins.A()), int(ins.B()))
	default:
		operands := strings.TrimPrefix(ins.String(), op.String())
		sb.WriteString(fmt.Sprintf("%-12s %s\n", op, strings.TrimSpace(operands)))
	}
}

// constantInstruction writes the operands followed by the constants they name
func constantInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, operands string, consts ...int) {
	sb.WriteString(fmt.Sprintf("%-12s %-8s", op, operands))
	for _, idx := range consts {
		if idx < len(chunk.Constants) {
			sb.WriteString(" ; " + chunk.Constants[idx].Inspect())
		} else {
			sb.WriteString(" ; (invalid)")
		}
	}
	sb.WriteString("\n")
}
