// Package token defines the lexical tokens produced by the lexer.
package token

import "strconv"

// Type identifies the kind of a token
type Type uint8

const (
	ILLEGAL Type = iota
	EOS          // end of input

	// Keywords
	AND
	BREAK
	DO
	ELSE
	ELSEIF
	END
	FALSE
	FOR
	FUNCTION
	GOTO
	IF
	IN
	LOCAL
	NIL
	NOT
	OR
	REPEAT
	RETURN
	THEN
	TRUE
	UNTIL
	WHILE

	// Arithmetic
	ADD  // +
	SUB  // -
	MUL  // *
	DIV  // /
	MOD  // %
	POW  // ^
	LEN  // #
	IDIV // //

	// Bitwise
	BAND   // &
	BXOR   // ~
	BOR    // |
	SHIFTL // <<
	SHIFTR // >>

	// Comparison and assignment
	EQ     // ==
	NOT_EQ // ~=
	LE     // <=
	GE     // >=
	LT     // <
	GT     // >
	ASSIGN // =

	// Delimiters
	LPAREN       // (
	RPAREN       // )
	LBRACE       // {
	RBRACE       // }
	LBRACKET     // [
	RBRACKET     // ]
	DOUBLE_COLON // ::
	SEMICOLON    // ;
	COLON        // :
	COMMA        // ,
	DOT          // .
	CONCAT       // ..
	DOTS         // ...

	// Literals
	INTEGER
	FLOAT
	STRING
	NAME
)

var names = [...]string{
	ILLEGAL: "ILLEGAL",
	EOS:     "<eof>",

	AND: "and", BREAK: "break", DO: "do", ELSE: "else", ELSEIF: "elseif",
	END: "end", FALSE: "false", FOR: "for", FUNCTION: "function", GOTO: "goto",
	IF: "if", IN: "in", LOCAL: "local", NIL: "nil", NOT: "not", OR: "or",
	REPEAT: "repeat", RETURN: "return", THEN: "then", TRUE: "true",
	UNTIL: "until", WHILE: "while",

	ADD: "+", SUB: "-", MUL: "*", DIV: "/", MOD: "%", POW: "^", LEN: "#", IDIV: "//",
	BAND: "&", BXOR: "~", BOR: "|", SHIFTL: "<<", SHIFTR: ">>",
	EQ: "==", NOT_EQ: "~=", LE: "<=", GE: ">=", LT: "<", GT: ">", ASSIGN: "=",

	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	DOUBLE_COLON: "::", SEMICOLON: ";", COLON: ":", COMMA: ",", DOT: ".",
	CONCAT: "..", DOTS: "...",

	INTEGER: "<integer>", FLOAT: "<float>", STRING: "<string>", NAME: "<name>",
}

func (t Type) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// IsKeyword reports whether t is a reserved word
func (t Type) IsKeyword() bool {
	return t >= AND && t <= WHILE
}

var keywords = map[string]Type{
	"and":      AND,
	"break":    BREAK,
	"do":       DO,
	"else":     ELSE,
	"elseif":   ELSEIF,
	"end":      END,
	"false":    FALSE,
	"for":      FOR,
	"function": FUNCTION,
	"goto":     GOTO,
	"if":       IF,
	"in":       IN,
	"local":    LOCAL,
	"nil":      NIL,
	"not":      NOT,
	"or":       OR,
	"repeat":   REPEAT,
	"return":   RETURN,
	"then":     THEN,
	"true":     TRUE,
	"until":    UNTIL,
	"while":    WHILE,
}

// LookupIdent returns the keyword type for ident, or NAME
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}

// Token is a single lexical token. Only the literal field matching Type is set.
type Token struct {
	Type   Type
	Int    int64   // INTEGER
	Float  float64 // FLOAT
	Text   string  // STRING contents (quotes stripped) or NAME
	Line   int
	Column int
}

func (t Token) String() string {
	switch t.Type {
	case INTEGER:
		return strconv.FormatInt(t.Int, 10)
	case FLOAT:
		return strconv.FormatFloat(t.Float, 'g', -1, 64)
	case STRING:
		return strconv.Quote(t.Text)
	case NAME:
		return t.Text
	default:
		return t.Type.String()
	}
}
