package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/luax/internal/lexer"
)

func compile(t *testing.T, input string) *Chunk {
	t.Helper()
	chunk, err := CompileReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	return chunk
}

func codeStrings(chunk *Chunk) []string {
	out := make([]string, len(chunk.Code))
	for i, ins := range chunk.Code {
		out[i] = ins.String()
	}
	return out
}

func expectCode(t *testing.T, chunk *Chunk, want ...string) {
	t.Helper()
	got := codeStrings(chunk)
	if strings.Join(got, "; ") != strings.Join(want, "; ") {
		t.Errorf("wrong code\n got: %s\nwant: %s", strings.Join(got, "; "), strings.Join(want, "; "))
	}
}

func TestCompileLocal(t *testing.T) {
	chunk := compile(t, "local a = 10\nprint(a)")
	expectCode(t, chunk, "LOADI 0 10", "GETGLOBAL 1 0", "MOVE 2 0", "CALL 2 1")
	if len(chunk.Locals) != 1 || chunk.Locals[0] != "a" {
		t.Errorf("locals = %v", chunk.Locals)
	}
	if len(chunk.Constants) != 1 || !chunk.Constants[0].Equal(String("print")) {
		t.Errorf("constants = %v", chunk.Constants)
	}
}

func TestCompileLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"local a = nil", []string{"LOADNIL 0"}},
		{"local a = true", []string{"LOADBOOL 0 1"}},
		{"local a = false", []string{"LOADBOOL 0 0"}},
		{"local a = 32767", []string{"LOADI 0 32767"}},
		{"local a = -1", nil},
		{"local a = 32768", []string{"LOADK 0 0"}},
		{"local a = 2.5", []string{"LOADK 0 0"}},
		{"local a = 'hi'", []string{"LOADK 0 0"}},
		{"local a = b", []string{"GETGLOBAL 0 0"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			chunk, err := CompileReader(strings.NewReader(tt.input))
			if tt.want == nil {
				// unary minus is not an expression form
				if err == nil {
					t.Fatalf("expected compile error, got %v", codeStrings(chunk))
				}
				return
			}
			if err != nil {
				t.Fatalf("compilation error: %s", err)
			}
			expectCode(t, chunk, tt.want...)
		})
	}
}

func TestCompileCallForms(t *testing.T) {
	expectCode(t, compile(t, `print "hello"`), "GETGLOBAL 0 0", "LOADK 1 1", "CALL 1 1")
	expectCode(t, compile(t, `print("hello")`), "GETGLOBAL 0 0", "LOADK 1 1", "CALL 1 1")
	expectCode(t, compile(t, `print(nil)`), "GETGLOBAL 0 0", "LOADNIL 1", "CALL 1 1")
	expectCode(t, compile(t, `x()`), "GETGLOBAL 0 0", "LOADNIL 1", "CALL 1 1")
	expectCode(t, compile(t, `print(100000)`), "GETGLOBAL 0 0", "LOADK 1 1", "CALL 1 1")
}

func TestCompileCallAfterLocals(t *testing.T) {
	// the callee goes into the first register past the locals
	chunk := compile(t, "local a = 1\nlocal b = 2\nprint(b)")
	expectCode(t, chunk, "LOADI 0 1", "LOADI 1 2", "GETGLOBAL 2 0", "MOVE 3 1", "CALL 3 1")
}

func TestCompileGlobalAssignment(t *testing.T) {
	expectCode(t, compile(t, "x = 1.5\nprint(x)"),
		"SETGLOBALK 0 1", "GETGLOBAL 0 2", "GETGLOBAL 1 0", "CALL 1 1")
	expectCode(t, compile(t, "x = 7\ny = x\nprint(y)"),
		"SETGLOBALK 0 1", "SETGLOBALG 2 0", "GETGLOBAL 0 3", "GETGLOBAL 1 2", "CALL 1 1")
	expectCode(t, compile(t, "local a = true\ng = a\nprint(g)"),
		"LOADBOOL 0 1", "SETGLOBAL 0 0", "GETGLOBAL 1 1", "GETGLOBAL 2 0", "CALL 2 1")
}

func TestCompileLocalReassignment(t *testing.T) {
	chunk := compile(t, "local a = 1\na = \"two\"\nprint(a)")
	expectCode(t, chunk, "LOADI 0 1", "LOADK 0 0", "GETGLOBAL 1 1", "MOVE 2 0", "CALL 2 1")
	if len(chunk.Locals) != 1 {
		t.Errorf("reassignment declared a new local: %v", chunk.Locals)
	}
}

func TestCompileRedeclarationKeepsFirst(t *testing.T) {
	chunk := compile(t, "local a = 1\nlocal a = 2\nprint(a)")
	expectCode(t, chunk, "LOADI 0 1", "LOADI 1 2", "GETGLOBAL 2 0", "MOVE 3 0", "CALL 3 1")
	if len(chunk.Locals) != 2 {
		t.Errorf("locals = %v", chunk.Locals)
	}
}

func TestConstantDeduplication(t *testing.T) {
	chunk := compile(t, "local a = \"hi\"\nlocal b = \"hi\"\nprint(a)\nprint(b)")
	count := 0
	for _, k := range chunk.Constants {
		if k.Equal(String("hi")) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("\"hi\" appears %d times in %v", count, chunk.Constants)
	}
	if len(chunk.Constants) != 2 {
		t.Errorf("constants = %v, want \"hi\" and \"print\"", chunk.Constants)
	}
}

func TestCompileLines(t *testing.T) {
	chunk := compile(t, "local a = 1\n\n-- comment\nprint(a)")
	want := []int{1, 4, 4, 4}
	if len(chunk.Lines) != len(want) {
		t.Fatalf("lines = %v, want %v", chunk.Lines, want)
	}
	for i, line := range want {
		if chunk.LineAt(i) != line {
			t.Errorf("instruction %d on line %d, want %d", i, chunk.LineAt(i), line)
		}
	}
	if chunk.LineAt(99) != 0 {
		t.Error("LineAt out of range should be 0")
	}
}

func TestCompileEmpty(t *testing.T) {
	for _, input := range []string{"", "  \n\t", "-- only a comment"} {
		chunk := compile(t, input)
		if chunk.Len() != 0 {
			t.Errorf("%q compiled to %v", input, codeStrings(chunk))
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		line  int
	}{
		{"local = 1", "expected variable name", 1},
		{"local a 1", "expected '='", 1},
		{"42", "unexpected token", 1},
		{"print", "expected '(' or string", 1},
		{"print(1", "expected ')'", 1},
		{"x = ", "expected expression", 1},
		{"local a = 1\nx = +", "expected expression", 2},
		{"print(1))", "unexpected token", 1},
		{"a.b = 1", "expected '(' or string", 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := CompileReader(strings.NewReader(tt.input))
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CompileError, got %v", err)
			}
			if !strings.Contains(ce.Msg, tt.msg) {
				t.Errorf("message %q does not contain %q", ce.Msg, tt.msg)
			}
			if ce.Line != tt.line {
				t.Errorf("line = %d, want %d", ce.Line, tt.line)
			}
		})
	}
}

func TestCompileLexErrorPassesThrough(t *testing.T) {
	_, err := CompileReader(strings.NewReader("print(\"abc"))
	var le *lexer.Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *lexer.Error, got %T %v", err, err)
	}

	_, err = CompileReader(strings.NewReader(`print("a\n")`))
	if !errors.Is(err, lexer.ErrNotImplemented) {
		t.Fatalf("escape sequence: got %v", err)
	}
}

func TestTooManyRegisters(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 256; i++ {
		fmt.Fprintf(&sb, "local v%d = 0\n", i)
	}
	if _, err := CompileReader(strings.NewReader(sb.String())); err != nil {
		t.Fatalf("256 locals should fit: %v", err)
	}

	sb.WriteString("local overflow = 0\n")
	_, err := CompileReader(strings.NewReader(sb.String()))
	var ce *CompileError
	if !errors.As(err, &ce) || !strings.Contains(ce.Msg, "too many registers") {
		t.Fatalf("expected register overflow, got %v", err)
	}
	if ce.Line != 257 {
		t.Errorf("overflow reported on line %d", ce.Line)
	}
}

func TestCallPastLastRegister(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 255; i++ {
		fmt.Fprintf(&sb, "local v%d = 0\n", i)
	}
	// callee fits in register 255, its argument does not
	sb.WriteString("print(1)\n")
	_, err := CompileReader(strings.NewReader(sb.String()))
	var ce *CompileError
	if !errors.As(err, &ce) || !strings.Contains(ce.Msg, "too many registers") {
		t.Fatalf("expected register overflow, got %v", err)
	}
}

func TestTooManyGlobalNameConstants(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&sb, "g%d = %d\n", i, i)
	}
	_, err := CompileReader(strings.NewReader(sb.String()))
	var ce *CompileError
	if !errors.As(err, &ce) || !strings.Contains(ce.Msg, "too many constants") {
		t.Fatalf("expected constant overflow, got %v", err)
	}
}

func TestManyLoadConstantsFitSixteenBits(t *testing.T) {
	// LOADK has a 16-bit constant operand, so locals may use more than
	// 256 distinct literals
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "local v%d = \"s%d\"\n", i, i)
	}
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "v%d = %d.5\n", i, i)
	}
	chunk := compile(t, sb.String())
	if len(chunk.Constants) != 250 {
		t.Fatalf("constants = %d, want 250", len(chunk.Constants))
	}
	last := chunk.Code[len(chunk.Code)-1]
	if last.Op() != OP_LOADK || last.Bx() != 249 {
		t.Errorf("last instruction = %s", last)
	}
}
