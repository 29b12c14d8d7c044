package lexer

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/funvibe/luax/internal/token"
)

// eof is returned by readChar at end of input
const eof = -1

// ErrNotImplemented marks syntax that is recognized but not supported yet:
// escape sequences, hexadecimal and exponent literals, block comments.
var ErrNotImplemented = errors.New("not implemented")

// Error is a fatal lexical error. The lexer does not resynchronize after one.
type Error struct {
	Line   int
	Column int
	Msg    string
	Err    error // ErrNotImplemented, or the underlying read/seek error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d:%d: %s: %v", e.Line, e.Column, e.Msg, e.Err)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Lexer reads tokens one byte at a time from a seekable input.
// Pushback seeks the input one byte backwards, so the input must support
// random access; a plain forward stream is not enough.
type Lexer struct {
	input io.ReadSeeker
	buf   [1]byte

	// ahead is the token buffered by Peek and handed out by the next Next.
	ahead *token.Token

	// err is sticky: once set every call returns it.
	err error

	line       int // line of the next byte to be read
	column     int // column of the next byte to be read
	prevColumn int // column before the last newline, restored on pushback
	last       int // last byte read, or eof
}

func New(input io.ReadSeeker) *Lexer {
	return &Lexer{input: input, line: 1, column: 1, last: eof}
}

// Next returns and consumes the next token.
func (l *Lexer) Next() (token.Token, error) {
	if l.ahead != nil {
		tok := *l.ahead
		l.ahead = nil
		return tok, nil
	}
	if l.err != nil {
		return token.Token{Type: token.ILLEGAL, Line: l.line, Column: l.column}, l.err
	}
	tok, err := l.scan()
	if err != nil {
		l.err = err
	}
	return tok, err
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (token.Token, error) {
	if l.ahead != nil {
		return *l.ahead, nil
	}
	tok, err := l.Next()
	if err != nil {
		return tok, err
	}
	l.ahead = &tok
	return tok, nil
}

func (l *Lexer) readChar() (int, error) {
	for {
		n, err := l.input.Read(l.buf[:])
		if n == 1 {
			ch := l.buf[0]
			if ch == '\n' {
				l.prevColumn = l.column
				l.line++
				l.column = 1
			} else {
				l.column++
			}
			l.last = int(ch)
			return int(ch), nil
		}
		if errors.Is(err, io.EOF) {
			l.last = eof
			return eof, nil
		}
		if err != nil {
			return eof, l.errorf(err, "read failed")
		}
	}
}

// putbackChar steps back over the byte returned by the last readChar.
func (l *Lexer) putbackChar() error {
	if l.last == eof {
		return nil
	}
	if _, err := l.input.Seek(-1, io.SeekCurrent); err != nil {
		return l.errorf(err, "seek failed")
	}
	if l.last == '\n' {
		l.line--
		l.column = l.prevColumn
	} else {
		l.column--
	}
	l.last = eof
	return nil
}

func (l *Lexer) errorf(cause error, format string, args ...any) *Error {
	return &Error{Line: l.line, Column: l.column, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func (l *Lexer) scan() (token.Token, error) {
	var (
		ch  int
		err error
	)
	line, col := l.line, l.column
	for {
		line, col = l.line, l.column
		ch, err = l.readChar()
		if err != nil {
			return token.Token{}, err
		}
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			continue
		}
		if ch != '-' {
			break
		}
		// "-" is either subtraction or the start of a comment
		next, err := l.readChar()
		if err != nil {
			return token.Token{}, err
		}
		if next != '-' {
			if err := l.putbackChar(); err != nil {
				return token.Token{}, err
			}
			break
		}
		if err := l.skipComment(); err != nil {
			return token.Token{}, err
		}
	}

	tok := token.Token{Line: line, Column: col}
	simple := func(t token.Type) (token.Token, error) {
		tok.Type = t
		return tok, nil
	}

	switch ch {
	case eof:
		return simple(token.EOS)
	case '-':
		return simple(token.SUB)
	case '+':
		return simple(token.ADD)
	case '*':
		return simple(token.MUL)
	case '%':
		return simple(token.MOD)
	case '^':
		return simple(token.POW)
	case '#':
		return simple(token.LEN)
	case '&':
		return simple(token.BAND)
	case '|':
		return simple(token.BOR)
	case '(':
		return simple(token.LPAREN)
	case ')':
		return simple(token.RPAREN)
	case '{':
		return simple(token.LBRACE)
	case '}':
		return simple(token.RBRACE)
	case '[':
		return simple(token.LBRACKET)
	case ']':
		return simple(token.RBRACKET)
	case ';':
		return simple(token.SEMICOLON)
	case ',':
		return simple(token.COMMA)
	case '/':
		return l.checkAhead(tok, '/', token.IDIV, token.DIV)
	case '=':
		return l.checkAhead(tok, '=', token.EQ, token.ASSIGN)
	case '~':
		return l.checkAhead(tok, '=', token.NOT_EQ, token.BXOR)
	case ':':
		return l.checkAhead(tok, ':', token.DOUBLE_COLON, token.COLON)
	case '<':
		return l.checkAhead2(tok, '=', token.LE, '<', token.SHIFTL, token.LT)
	case '>':
		return l.checkAhead2(tok, '=', token.GE, '>', token.SHIFTR, token.GT)
	case '\'', '"':
		return l.readString(tok, ch)
	case '.':
		return l.readDot(tok)
	}

	switch {
	case isDigit(ch):
		return l.readNumber(tok, ch)
	case isLetter(ch):
		return l.readName(tok, ch)
	}
	return tok, &Error{Line: line, Column: col, Msg: fmt.Sprintf("invalid character %q", rune(ch))}
}

// checkAhead looks one byte ahead: long if it matches, short otherwise
func (l *Lexer) checkAhead(tok token.Token, ahead int, long, short token.Type) (token.Token, error) {
	ch, err := l.readChar()
	if err != nil {
		return tok, err
	}
	if ch == ahead {
		tok.Type = long
		return tok, nil
	}
	tok.Type = short
	return tok, l.putbackChar()
}

func (l *Lexer) checkAhead2(tok token.Token, ahead1 int, long1 token.Type, ahead2 int, long2 token.Type, short token.Type) (token.Token, error) {
	ch, err := l.readChar()
	if err != nil {
		return tok, err
	}
	switch ch {
	case ahead1:
		tok.Type = long1
		return tok, nil
	case ahead2:
		tok.Type = long2
		return tok, nil
	}
	tok.Type = short
	return tok, l.putbackChar()
}

// readDot handles ".", "..", "..." and fractions written as ".5"
func (l *Lexer) readDot(tok token.Token) (token.Token, error) {
	ch, err := l.readChar()
	if err != nil {
		return tok, err
	}
	switch {
	case ch == '.':
		third, err := l.readChar()
		if err != nil {
			return tok, err
		}
		if third == '.' {
			tok.Type = token.DOTS
			return tok, nil
		}
		tok.Type = token.CONCAT
		return tok, l.putbackChar()
	case isDigit(ch):
		if err := l.putbackChar(); err != nil {
			return tok, err
		}
		return l.readFraction(tok, 0)
	}
	tok.Type = token.DOT
	return tok, l.putbackChar()
}

func (l *Lexer) skipComment() error {
	ch, err := l.readChar()
	if err != nil {
		return err
	}
	if ch == '[' {
		next, err := l.readChar()
		if err != nil {
			return err
		}
		if next == '[' || next == '=' {
			return l.errorf(ErrNotImplemented, "block comment")
		}
		ch = next
	}
	for ch != '\n' && ch != eof {
		if ch, err = l.readChar(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lexer) readString(tok token.Token, quote int) (token.Token, error) {
	var buf []byte
	for {
		ch, err := l.readChar()
		if err != nil {
			return tok, err
		}
		switch ch {
		case eof:
			return tok, &Error{Line: tok.Line, Column: tok.Column, Msg: "unterminated string"}
		case '\\':
			return tok, l.errorf(ErrNotImplemented, "escape sequence")
		case quote:
			tok.Type = token.STRING
			tok.Text = string(buf)
			return tok, nil
		default:
			buf = append(buf, byte(ch))
		}
	}
}

func (l *Lexer) readNumber(tok token.Token, first int) (token.Token, error) {
	if first == '0' {
		second, err := l.readChar()
		if err != nil {
			return tok, err
		}
		if second == 'x' || second == 'X' {
			return tok, l.errorf(ErrNotImplemented, "hexadecimal literal")
		}
		if err := l.putbackChar(); err != nil {
			return tok, err
		}
	}

	n := int64(first - '0')
	for {
		ch, err := l.readChar()
		if err != nil {
			return tok, err
		}
		switch {
		case isDigit(ch):
			d := int64(ch - '0')
			if n > (math.MaxInt64-d)/10 {
				return tok, &Error{Line: tok.Line, Column: tok.Column, Msg: "integer literal overflows int64"}
			}
			n = n*10 + d
			continue
		case ch == '.':
			return l.readFraction(tok, n)
		case ch == 'e' || ch == 'E':
			return tok, l.errorf(ErrNotImplemented, "exponent literal")
		}
		tok.Type = token.INTEGER
		tok.Int = n
		return tok, l.putbackChar()
	}
}

// readFraction reads the digits after the decimal point. The fraction is
// accumulated as an integer with a divisor growing by ten per digit.
func (l *Lexer) readFraction(tok token.Token, intPart int64) (token.Token, error) {
	frac, div := 0.0, 1.0
	for {
		ch, err := l.readChar()
		if err != nil {
			return tok, err
		}
		if isDigit(ch) {
			frac = frac*10 + float64(ch-'0')
			div *= 10
			continue
		}
		if ch == 'e' || ch == 'E' {
			return tok, l.errorf(ErrNotImplemented, "exponent literal")
		}
		tok.Type = token.FLOAT
		tok.Float = float64(intPart) + frac/div
		return tok, l.putbackChar()
	}
}

func (l *Lexer) readName(tok token.Token, first int) (token.Token, error) {
	buf := []byte{byte(first)}
	for {
		ch, err := l.readChar()
		if err != nil {
			return tok, err
		}
		if !isLetter(ch) && !isDigit(ch) {
			if err := l.putbackChar(); err != nil {
				return tok, err
			}
			break
		}
		buf = append(buf, byte(ch))
	}
	ident := string(buf)
	tok.Type = token.LookupIdent(ident)
	if tok.Type == token.NAME {
		tok.Text = ident
	}
	return tok, nil
}

func isLetter(ch int) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch int) bool {
	return '0' <= ch && ch <= '9'
}
