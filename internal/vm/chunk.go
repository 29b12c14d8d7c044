package vm

// Chunk is the compiled unit of one top-level program
type Chunk struct {
	// Code is the instruction sequence, run strictly in order
	Code []Instruction

	// Constants pool - literals and global names, no two Equal values
	Constants []Value

	// Lines maps instruction index to source line number (for errors)
	Lines []int

	// Locals maps register index to the local name declared there.
	// Append-only: registers are never reclaimed.
	Locals []string

	// File is the source file name
	File string
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]Instruction, 0, 64),
		Constants: make([]Value, 0, 16),
		Lines:     make([]int, 0, 64),
	}
}

// Write appends an instruction with its source line
func (c *Chunk) Write(ins Instruction, line int) {
	c.Code = append(c.Code, ins)
	c.Lines = append(c.Lines, line)
}

// AddConstant returns the index of value in the pool, adding it first if no
// Equal value is there yet. The scan is linear; chunks are small.
func (c *Chunk) AddConstant(value Value) int {
	for i, k := range c.Constants {
		if k.Equal(value) {
			return i
		}
	}
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// LocalIndex returns the register of the first local declared as name.
// A later redeclaration of the same name is never found by this lookup.
func (c *Chunk) LocalIndex(name string) (int, bool) {
	for i, local := range c.Locals {
		if local == name {
			return i, true
		}
	}
	return 0, false
}

// AddLocal binds name to the next free register and returns it
func (c *Chunk) AddLocal(name string) int {
	c.Locals = append(c.Locals, name)
	return len(c.Locals) - 1
}

// Len returns the number of instructions in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}

// LineAt returns the source line of instruction pc, or 0 if unknown
func (c *Chunk) LineAt(pc int) int {
	if pc >= 0 && pc < len(c.Lines) {
		return c.Lines[pc]
	}
	return 0
}
