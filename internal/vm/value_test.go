package vm

import (
	"math"
	"strings"
	"testing"
)

func TestStringTiers(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind Kind
	}{
		{"empty", "", KindShortString},
		{"5 bytes", "hello", KindShortString},
		{"14 bytes", strings.Repeat("a", 14), KindShortString},
		{"15 bytes", strings.Repeat("b", 15), KindMidString},
		{"30 bytes", strings.Repeat("c", 30), KindMidString},
		{"47 bytes", strings.Repeat("d", 47), KindMidString},
		{"48 bytes", strings.Repeat("e", 48), KindLongString},
		{"100 bytes", strings.Repeat("f", 100), KindLongString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := String(tt.text)
			if v.Kind() != tt.kind {
				t.Errorf("got tier %s, want %s", v.Kind(), tt.kind)
			}
			if !v.IsString() || v.TypeName() != "string" {
				t.Errorf("value is not a string: %s", v.TypeName())
			}
			got, ok := v.AsString()
			if !ok || got != tt.text {
				t.Errorf("AsString = %q, want %q", got, tt.text)
			}
			if v.String() != tt.text {
				t.Errorf("String() = %q, want %q", v.String(), tt.text)
			}
		})
	}
}

func TestStringBytesArePreserved(t *testing.T) {
	// NUL and high bytes survive every tier
	for _, n := range []int{3, 20, 80} {
		raw := strings.Repeat("\x00\xff", n/2) + "z"
		got, _ := String(raw).AsString()
		if got != raw {
			t.Errorf("len %d: got %q, want %q", len(raw), got, raw)
		}
	}
}

func TestSharedTiersShareStorage(t *testing.T) {
	mid := String(strings.Repeat("m", 20))
	copyOfMid := mid
	if mid.obj != copyOfMid.obj {
		t.Fatal("copies of a mid string do not share their buffer")
	}
	long := String(strings.Repeat("l", 60))
	copyOfLong := long
	if long.obj != copyOfLong.obj {
		t.Fatal("copies of a long string do not share their buffer")
	}
}

// Identical text stored in two different tiers compares unequal. This is a
// known limitation kept on purpose; the tier is part of a string's identity.
func TestCrossTierStringsAreNotEqual(t *testing.T) {
	inline := String("hi")
	forced := newMidString("hi")
	if inline.Kind() != KindShortString || forced.Kind() != KindMidString {
		t.Fatalf("unexpected tiers %s / %s", inline.Kind(), forced.Kind())
	}
	if inline.Equal(forced) || forced.Equal(inline) {
		t.Error("cross-tier strings compared equal")
	}
	long := newLongString("hi")
	if inline.Equal(long) || forced.Equal(long) {
		t.Error("long tier compared equal to another tier")
	}
	a, _ := inline.AsString()
	b, _ := forced.AsString()
	if a != b {
		t.Errorf("contents differ: %q vs %q", a, b)
	}
}

func TestEqual(t *testing.T) {
	print1 := Func("print", builtinPrint)
	print2 := Func("print", builtinPrint)
	table := NewTableValue(0, 0)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil", Nil(), Nil(), true},
		{"zero value is nil", Value{}, Nil(), true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differ", Bool(true), Bool(false), false},
		{"int", Int(42), Int(42), true},
		{"int differ", Int(42), Int(43), false},
		{"int vs float", Int(1), Float(1), false},
		{"float", Float(2.5), Float(2.5), true},
		{"signed zero", Float(0), Float(math.Copysign(0, -1)), true},
		{"nan", Float(math.NaN()), Float(math.NaN()), false},
		{"short", String("abc"), String("abc"), true},
		{"short differ", String("abc"), String("abd"), false},
		{"short prefix", String("ab"), String("abc"), false},
		{"mid", String(strings.Repeat("x", 20)), String(strings.Repeat("x", 20)), true},
		{"long", String(strings.Repeat("y", 90)), String(strings.Repeat("y", 90)), true},
		{"same function", print1, print1, true},
		{"distinct functions", print1, print2, false},
		{"same table", table, table, true},
		{"distinct tables", table, NewTableValue(0, 0), false},
		{"nil vs false", Nil(), Bool(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			if tt.want && tt.a.Hash() != tt.b.Hash() {
				t.Errorf("equal values hash differently: %x vs %x", tt.a.Hash(), tt.b.Hash())
			}
		})
	}
}

func TestHashSeparatesTags(t *testing.T) {
	if Int(1).Hash() == Bool(true).Hash() {
		t.Error("integer 1 and true share a hash")
	}
	if Nil().Hash() == Bool(false).Hash() {
		t.Error("nil and false share a hash")
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(-7), "-7"},
		{Int(math.MaxInt64), "9223372036854775807"},
		{Float(10), "10.0"},
		{Float(3.25), "3.25"},
		{Float(-0.5), "-0.5"},
		{Float(1e21), "1e+21"},
		{Float(math.Inf(1)), "inf"},
		{Float(math.Inf(-1)), "-inf"},
		{Float(math.NaN()), "nan"},
		{String("plain"), "plain"},
		{Func("print", builtinPrint), "function: builtin: print"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.v.Kind(), got, tt.want)
		}
	}
	if got := String("q").Inspect(); got != `"q"` {
		t.Errorf("Inspect = %s, want quoted", got)
	}
	if got := NewTableValue(0, 0).String(); !strings.HasPrefix(got, "table: 0x") {
		t.Errorf("table formats as %q", got)
	}
}

func TestAccessors(t *testing.T) {
	if Int(-3).AsInt() != -3 {
		t.Error("AsInt")
	}
	if Float(1.5).AsFloat() != 1.5 {
		t.Error("AsFloat")
	}
	if !Bool(true).AsBool() || Bool(false).AsBool() {
		t.Error("AsBool")
	}
	if _, ok := Int(1).AsString(); ok {
		t.Error("integer converted to string")
	}
	if _, ok := Nil().AsFunction(); ok {
		t.Error("nil converted to function")
	}
	fn, ok := Func("f", builtinPrint).AsFunction()
	if !ok || fn.Name != "f" {
		t.Error("AsFunction")
	}
	if _, ok := NewTableValue(1, 1).AsTable(); !ok {
		t.Error("AsTable")
	}
	typeNames := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"}, {Bool(true), "boolean"}, {Int(1), "number"}, {Float(1), "number"},
		{String("s"), "string"}, {Func("f", builtinPrint), "function"}, {NewTableValue(0, 0), "table"},
	}
	for _, tt := range typeNames {
		if tt.v.TypeName() != tt.want {
			t.Errorf("TypeName of %s = %s, want %s", tt.v.Kind(), tt.v.TypeName(), tt.want)
		}
	}
}
