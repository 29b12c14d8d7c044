package vm

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/funvibe/luax/internal/config"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// RuntimeError reports a malformed chunk. Programs produced by the compiler
// never trigger one.
type RuntimeError struct {
	PC   int
	Line int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at pc %d (line %d): %s", e.PC, e.Line, e.Msg)
}

// Diagnostic records a runtime soft failure; execution continued past it.
type Diagnostic struct {
	PC      int
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d (pc %d): %s", d.Line, d.PC, d.Message)
}

// State is the executor state for one run: the global environment and the
// register file.
type State struct {
	globals map[string]Value

	// registers grows on demand, padded with nil, and never shrinks
	registers []Value

	// argBase is the register of argument 0 during a native call
	argBase int

	out   io.Writer
	log   commonlog.Logger
	runID uuid.UUID

	// Diagnostics lists the soft failures seen so far
	Diagnostics []Diagnostic
}

// Option configures a State
type Option func(*State)

// WithStdout sets where print writes (defaults to os.Stdout)
func WithStdout(w io.Writer) Option {
	return func(s *State) { s.out = w }
}

// WithLogger replaces the commonlog logger used for soft failures
func WithLogger(l commonlog.Logger) Option {
	return func(s *State) { s.log = l }
}

// NewState creates a state with the builtin globals registered
func NewState(opts ...Option) *State {
	s := &State{
		globals: make(map[string]Value),
		out:     os.Stdout,
		log:     commonlog.GetLogger(config.VMLoggerName),
		runID:   uuid.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.RegisterBuiltins()
	return s
}

// RunID identifies this state in log lines
func (s *State) RunID() uuid.UUID { return s.runID }

// Stdout returns the writer used by print
func (s *State) Stdout() io.Writer { return s.out }

// Arg returns argument i of the native call in progress. Arguments are
// read straight from the register file starting at the CALL's A operand.
func (s *State) Arg(i int) Value {
	return s.reg(s.argBase + i)
}

// Register returns register i without growing the file
func (s *State) Register(i int) Value {
	if i < 0 || i >= len(s.registers) {
		return Nil()
	}
	return s.registers[i]
}

// Registers returns a copy of the register file
func (s *State) Registers() []Value {
	out := make([]Value, len(s.registers))
	copy(out, s.registers)
	return out
}

// Global returns the global bound to name, or nil
func (s *State) Global(name string) Value {
	return s.globals[name]
}

// SetGlobal binds name in the global environment
func (s *State) SetGlobal(name string, v Value) {
	s.globals[name] = v
}

// Globals returns the bound global names, sorted
func (s *State) Globals() []string {
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ensure grows the register file to hold register r
func (s *State) ensure(r int) {
	for len(s.registers) <= r {
		s.registers = append(s.registers, Nil())
	}
}

func (s *State) reg(r int) Value {
	if r < 0 {
		return Nil()
	}
	s.ensure(r)
	return s.registers[r]
}

func (s *State) setReg(r uint8, v Value) {
	s.ensure(int(r))
	s.registers[r] = v
}

// Execute runs chunk in program order against this state.
func (s *State) Execute(chunk *Chunk) error {
	for pc, ins := range chunk.Code {
		if err := s.step(chunk, pc, ins); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) step(chunk *Chunk, pc int, ins Instruction) error {
	switch op := ins.Op(); op {
	case OP_LOADK:
		k, err := s.constant(chunk, pc, int(ins.Bx()))
		if err != nil {
			return err
		}
		s.setReg(ins.A(), k)

	case OP_LOADNIL:
		s.setReg(ins.A(), Nil())

	case OP_LOADBOOL:
		s.setReg(ins.A(), Bool(ins.B() != 0))

	case OP_LOADI:
		s.setReg(ins.A(), Int(int64(ins.SBx())))

	case OP_MOVE:
		s.setReg(ins.A(), s.reg(int(ins.B())))

	case OP_CALL:
		s.call(chunk, pc, ins)

	case OP_GETGLOBAL:
		name, err := s.globalName(chunk, pc, ins.B())
		if err != nil {
			return err
		}
		s.setReg(ins.A(), s.globals[name])

	case OP_SETGLOBAL:
		name, err := s.globalName(chunk, pc, ins.A())
		if err != nil {
			return err
		}
		s.globals[name] = s.reg(int(ins.B()))

	case OP_SETGLOBALK:
		name, err := s.globalName(chunk, pc, ins.A())
		if err != nil {
			return err
		}
		k, err := s.constant(chunk, pc, int(ins.B()))
		if err != nil {
			return err
		}
		s.globals[name] = k

	case OP_SETGLOBALG:
		name, err := s.globalName(chunk, pc, ins.A())
		if err != nil {
			return err
		}
		src, err := s.globalName(chunk, pc, ins.B())
		if err != nil {
			return err
		}
		s.globals[name] = s.globals[src]

	case OP_NEWTABLE, OP_SETTABLE, OP_SETFIELD, OP_SETLIST:
		return s.errorf(chunk, pc, "opcode %s is reserved and not executable", op)

	default:
		return s.errorf(chunk, pc, "unknown opcode %d", uint8(op))
	}
	return nil
}

// call invokes the function in the register just below the argument
// register. Anything that is not a function is skipped with a diagnostic.
func (s *State) call(chunk *Chunk, pc int, ins Instruction) {
	argReg := int(ins.A())
	callee := s.reg(argReg - 1)

	fn, ok := callee.AsFunction()
	if !ok {
		d := Diagnostic{
			PC:      pc,
			Line:    chunk.LineAt(pc),
			Message: fmt.Sprintf("attempt to call a %s value", callee.TypeName()),
		}
		s.Diagnostics = append(s.Diagnostics, d)
		if s.log != nil {
			s.log.Warning(d.Message, "run", s.runID.String(), "pc", pc, "line", d.Line)
		}
		return
	}

	s.argBase = argReg
	// The declared result count is ignored: results are not copied back.
	_ = fn.Fn(s)
}

func (s *State) constant(chunk *Chunk, pc, k int) (Value, error) {
	if k < 0 || k >= len(chunk.Constants) {
		return Nil(), s.errorf(chunk, pc, "constant index %d out of range (pool has %d)", k, len(chunk.Constants))
	}
	return chunk.Constants[k], nil
}

func (s *State) globalName(chunk *Chunk, pc int, k uint8) (string, error) {
	v, err := s.constant(chunk, pc, int(k))
	if err != nil {
		return "", err
	}
	name, ok := v.AsString()
	if !ok {
		return "", s.errorf(chunk, pc, "global name constant %d is a %s", k, v.TypeName())
	}
	return name, nil
}

func (s *State) errorf(chunk *Chunk, pc int, format string, args ...any) *RuntimeError {
	return &RuntimeError{PC: pc, Line: chunk.LineAt(pc), Msg: fmt.Sprintf(format, args...)}
}
