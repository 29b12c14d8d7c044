package vm

import (
	"fmt"
	"io"

	"github.com/funvibe/luax/internal/config"
	"github.com/funvibe/luax/internal/lexer"
	"github.com/funvibe/luax/internal/pipeline"
	"github.com/funvibe/luax/internal/token"
)

// CompileError is a fatal syntax error. No partial chunk is produced.
type CompileError struct {
	Line   int
	Column int
	Msg    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// Compiler is a single-pass recursive-descent compiler: it pulls tokens
// and emits instructions directly, without building a syntax tree.
//
// Accepted statements:
//
//	local name = exp
//	name = exp
//	name(exp)
//	name()
//	name "string"
//
// where exp is nil, true, false, a number, a string or a variable name.
type Compiler struct {
	tokens pipeline.TokenStream
	chunk  *Chunk
	line   int // line of the statement being compiled
}

// NewCompiler creates a compiler reading from tokens
func NewCompiler(tokens pipeline.TokenStream) *Compiler {
	return &Compiler{tokens: tokens, chunk: NewChunk()}
}

// CompileReader lexes and compiles a whole chunk from r
func CompileReader(r io.ReadSeeker) (*Chunk, error) {
	return NewCompiler(lexer.New(r)).Compile()
}

// Compile consumes the token stream up to end of input.
func (c *Compiler) Compile() (*Chunk, error) {
	if err := c.compileChunk(); err != nil {
		return nil, err
	}
	return c.chunk, nil
}

func (c *Compiler) compileChunk() error {
	for {
		tok, err := c.tokens.Next()
		if err != nil {
			return err
		}
		c.line = tok.Line

		switch tok.Type {
		case token.NAME:
			next, err := c.tokens.Peek()
			if err != nil {
				return err
			}
			if next.Type == token.ASSIGN {
				err = c.assignment(tok)
			} else {
				err = c.functionCall(tok)
			}
			if err != nil {
				return err
			}
		case token.LOCAL:
			if err := c.local(); err != nil {
				return err
			}
		case token.EOS:
			return nil
		default:
			return c.errorf(tok, "unexpected token %s", tok)
		}
	}
}

// local compiles `local name = exp`. The expression is loaded into the
// next free register, which then becomes the local's register.
func (c *Compiler) local() error {
	name, err := c.expect(token.NAME, "variable name")
	if err != nil {
		return err
	}
	if _, err := c.expect(token.ASSIGN, "'='"); err != nil {
		return err
	}
	if err := c.loadExp(len(c.chunk.Locals)); err != nil {
		return err
	}
	c.chunk.AddLocal(name.Text)
	return nil
}

// assignment compiles `name = exp`. A known local is reloaded in place;
// anything else becomes a global write whose variant is picked here from
// the kind of right-hand side.
func (c *Compiler) assignment(target token.Token) error {
	if _, err := c.expect(token.ASSIGN, "'='"); err != nil {
		return err
	}
	if i, ok := c.chunk.LocalIndex(target.Text); ok {
		return c.loadExp(i)
	}

	dst, err := c.constant8(target, String(target.Text))
	if err != nil {
		return err
	}
	tok, err := c.tokens.Next()
	if err != nil {
		return err
	}

	if tok.Type == token.NAME {
		if i, ok := c.chunk.LocalIndex(tok.Text); ok {
			src, err := c.register(tok, i)
			if err != nil {
				return err
			}
			c.emit(SetGlobal(dst, src))
			return nil
		}
		src, err := c.constant8(tok, String(tok.Text))
		if err != nil {
			return err
		}
		c.emit(SetGlobalG(dst, src))
		return nil
	}

	value, ok := literal(tok)
	if !ok {
		return c.errorf(tok, "unexpected token %s, expected expression", tok)
	}
	k, err := c.constant8(tok, value)
	if err != nil {
		return err
	}
	c.emit(SetGlobalK(dst, k))
	return nil
}

// functionCall compiles `name(exp)` and `name "string"`. The callee goes
// into the first free register and its single argument into the one after;
// CALL names the argument register and expects one result.
func (c *Compiler) functionCall(callee token.Token) error {
	ifunc := len(c.chunk.Locals)
	iarg := ifunc + 1
	if err := c.loadVar(callee, ifunc, callee.Text); err != nil {
		return err
	}

	tok, err := c.tokens.Next()
	if err != nil {
		return err
	}
	switch tok.Type {
	case token.LPAREN:
		next, err := c.tokens.Peek()
		if err != nil {
			return err
		}
		if next.Type == token.RPAREN {
			// name() still passes one argument: nil
			if _, err := c.tokens.Next(); err != nil {
				return err
			}
			reg, err := c.register(next, iarg)
			if err != nil {
				return err
			}
			c.emit(LoadNil(reg))
			break
		}
		if err := c.loadExp(iarg); err != nil {
			return err
		}
		if _, err := c.expect(token.RPAREN, "')'"); err != nil {
			return err
		}
	case token.STRING:
		if err := c.loadConst(tok, iarg, String(tok.Text)); err != nil {
			return err
		}
	default:
		return c.errorf(tok, "unexpected token %s, expected '(' or string", tok)
	}

	arg, err := c.register(tok, iarg)
	if err != nil {
		return err
	}
	c.emit(Call(arg, 1))
	return nil
}

// loadExp loads a single primary expression into register dst
func (c *Compiler) loadExp(dst int) error {
	tok, err := c.tokens.Next()
	if err != nil {
		return err
	}
	reg, err := c.register(tok, dst)
	if err != nil {
		return err
	}

	switch tok.Type {
	case token.NIL:
		c.emit(LoadNil(reg))
	case token.TRUE:
		c.emit(LoadBool(reg, true))
	case token.FALSE:
		c.emit(LoadBool(reg, false))
	case token.INTEGER:
		if tok.Int >= config.MinSmallInteger && tok.Int <= config.MaxSmallInteger {
			c.emit(LoadI(reg, int16(tok.Int)))
			return nil
		}
		return c.loadConst(tok, dst, Int(tok.Int))
	case token.FLOAT:
		return c.loadConst(tok, dst, Float(tok.Float))
	case token.STRING:
		return c.loadConst(tok, dst, String(tok.Text))
	case token.NAME:
		return c.loadVar(tok, dst, tok.Text)
	default:
		return c.errorf(tok, "unexpected token %s, expected expression", tok)
	}
	return nil
}

func (c *Compiler) loadConst(at token.Token, dst int, value Value) error {
	reg, err := c.register(at, dst)
	if err != nil {
		return err
	}
	k := c.chunk.AddConstant(value)
	if k >= config.MaxConstants16 {
		return c.errorf(at, "too many constants")
	}
	c.emit(LoadK(reg, uint16(k)))
	return nil
}

// loadVar copies a local's register, or reads a global by name
func (c *Compiler) loadVar(at token.Token, dst int, name string) error {
	reg, err := c.register(at, dst)
	if err != nil {
		return err
	}
	if i, ok := c.chunk.LocalIndex(name); ok {
		src, err := c.register(at, i)
		if err != nil {
			return err
		}
		c.emit(Move(reg, src))
		return nil
	}
	k, err := c.constant8(at, String(name))
	if err != nil {
		return err
	}
	c.emit(GetGlobal(reg, k))
	return nil
}

func (c *Compiler) expect(typ token.Type, what string) (token.Token, error) {
	tok, err := c.tokens.Next()
	if err != nil {
		return tok, err
	}
	if tok.Type != typ {
		return tok, c.errorf(tok, "unexpected token %s, expected %s", tok, what)
	}
	return tok, nil
}

func (c *Compiler) emit(ins Instruction) {
	c.chunk.Write(ins, c.line)
}

// register checks that i fits an 8-bit register operand
func (c *Compiler) register(at token.Token, i int) (uint8, error) {
	if i >= config.MaxRegisters {
		return 0, c.errorf(at, "too many registers (limit %d)", config.MaxRegisters)
	}
	return uint8(i), nil
}

// constant8 adds value to the pool for an instruction with an 8-bit
// constant operand
func (c *Compiler) constant8(at token.Token, value Value) (uint8, error) {
	k := c.chunk.AddConstant(value)
	if k >= config.MaxConstants8 {
		return 0, c.errorf(at, "too many constants for an 8-bit operand (limit %d)", config.MaxConstants8)
	}
	return uint8(k), nil
}

func (c *Compiler) errorf(at token.Token, format string, args ...any) *CompileError {
	return &CompileError{Line: at.Line, Column: at.Column, Msg: fmt.Sprintf(format, args...)}
}

// literal converts a literal token to its constant value
func literal(tok token.Token) (Value, bool) {
	switch tok.Type {
	case token.NIL:
		return Nil(), true
	case token.TRUE:
		return Bool(true), true
	case token.FALSE:
		return Bool(false), true
	case token.INTEGER:
		return Int(tok.Int), true
	case token.FLOAT:
		return Float(tok.Float), true
	case token.STRING:
		return String(tok.Text), true
	}
	return Value{}, false
}
