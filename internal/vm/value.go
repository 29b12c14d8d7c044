package vm

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value. The three string kinds are
// storage tiers chosen by length when the value is built; see String.
type Kind uint8

const (
	KindNil Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindFunction
	KindShortString // bytes stored inline in the Value
	KindMidString   // fixed buffer shared between copies
	KindLongString  // unbounded buffer shared between copies
	KindTable
)

var kindNames = [...]string{
	KindNil:         "nil",
	KindBoolean:     "boolean",
	KindInteger:     "integer",
	KindFloat:       "float",
	KindFunction:    "function",
	KindShortString: "short string",
	KindMidString:   "mid string",
	KindLongString:  "long string",
	KindTable:       "table",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

const (
	// shortStrMax is the longest string kept inline
	shortStrMax = 14
	// midStrMax is the longest string kept in a fixed shared buffer
	midStrMax = 48 - 1
)

// Value is a tagged union. Nil, booleans, numbers and short strings live
// entirely inside the struct; longer strings, functions and tables are
// referenced through obj and shared by every copy of the Value.
type Value struct {
	kind  Kind
	n     uint8             // short string length
	short [shortStrMax]byte // short string bytes
	bits  uint64            // int64 bits, float64 bits, or bool (0/1)
	obj   any               // *midString, *longString, *Native or *Table
}

type midString struct {
	n   uint8
	buf [midStrMax]byte
}

type longString struct {
	s string
}

// NativeFunc is the signature of functions implemented in Go. The returned
// count is the number of results the function declares; the executor does
// not wire results back into registers.
type NativeFunc func(s *State) int

// Native is a function value implemented in Go.
type Native struct {
	Name string
	Fn   NativeFunc
}

// Constructors

func Nil() Value {
	return Value{kind: KindNil}
}

func Bool(b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return Value{kind: KindBoolean, bits: bits}
}

func Int(i int64) Value {
	return Value{kind: KindInteger, bits: uint64(i)}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, bits: math.Float64bits(f)}
}

// String builds a string value, picking the storage tier from len(s).
func String(s string) Value {
	switch {
	case len(s) <= shortStrMax:
		return newShortString(s)
	case len(s) <= midStrMax:
		return newMidString(s)
	default:
		return newLongString(s)
	}
}

func newShortString(s string) Value {
	v := Value{kind: KindShortString, n: uint8(len(s))}
	copy(v.short[:], s)
	return v
}

func newMidString(s string) Value {
	m := &midString{n: uint8(len(s))}
	copy(m.buf[:], s)
	return Value{kind: KindMidString, obj: m}
}

func newLongString(s string) Value {
	return Value{kind: KindLongString, obj: &longString{s: s}}
}

// Func wraps a Go function as a value.
func Func(name string, fn NativeFunc) Value {
	return Value{kind: KindFunction, obj: &Native{Name: name, Fn: fn}}
}

// NewTableValue creates an empty table with preallocated parts.
func NewTableValue(narray, nhash int) Value {
	return Value{kind: KindTable, obj: NewTable(narray, nhash)}
}

// Accessors

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) IsString() bool {
	return v.kind == KindShortString || v.kind == KindMidString || v.kind == KindLongString
}

func (v Value) IsFunction() bool { return v.kind == KindFunction }

// TypeName returns the language-level type name.
func (v Value) TypeName() string {
	switch v.kind {
	case KindInteger, KindFloat:
		return "number"
	case KindShortString, KindMidString, KindLongString:
		return "string"
	default:
		return v.kind.String()
	}
}

func (v Value) AsBool() bool { return v.bits == 1 }

func (v Value) AsInt() int64 { return int64(v.bits) }

func (v Value) AsFloat() float64 { return math.Float64frombits(v.bits) }

// AsString returns the string contents of any string tier.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindShortString:
		return string(v.short[:v.n]), true
	case KindMidString:
		m := v.obj.(*midString)
		return string(m.buf[:m.n]), true
	case KindLongString:
		return v.obj.(*longString).s, true
	}
	return "", false
}

func (v Value) AsFunction() (*Native, bool) {
	if v.kind != KindFunction {
		return nil, false
	}
	return v.obj.(*Native), true
}

func (v Value) AsTable() (*Table, bool) {
	if v.kind != KindTable {
		return nil, false
	}
	return v.obj.(*Table), true
}

// Equal compares per tag. Strings are equal only within the same tier, so
// identical text in two different tiers compares unequal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBoolean, KindInteger:
		return v.bits == o.bits
	case KindFloat:
		return v.AsFloat() == o.AsFloat()
	case KindShortString:
		return v.n == o.n && v.short == o.short
	case KindMidString:
		a, b := v.obj.(*midString), o.obj.(*midString)
		return a == b || (a.n == b.n && a.buf == b.buf)
	case KindLongString:
		return v.obj.(*longString).s == o.obj.(*longString).s
	case KindFunction, KindTable:
		return v.obj == o.obj
	}
	return false
}

// Hash returns a hash consistent with Equal.
func (v Value) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(v.kind)})
	var word [8]byte
	putWord := func(x uint64) {
		for i := range word {
			word[i] = byte(x >> (8 * i))
		}
		h.Write(word[:])
	}

	switch v.kind {
	case KindBoolean, KindInteger:
		putWord(v.bits)
	case KindFloat:
		f := v.AsFloat()
		if f == 0 {
			f = 0 // -0 and +0 are Equal
		}
		putWord(math.Float64bits(f))
	case KindShortString, KindMidString, KindLongString:
		s, _ := v.AsString()
		h.Write([]byte(s))
	case KindFunction, KindTable:
		putWord(uint64(identity(v.obj)))
	}
	return h.Sum64()
}

// String formats the value the way print shows it.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		return strconv.FormatBool(v.AsBool())
	case KindInteger:
		return strconv.FormatInt(v.AsInt(), 10)
	case KindFloat:
		return formatFloat(v.AsFloat())
	case KindShortString, KindMidString, KindLongString:
		s, _ := v.AsString()
		return s
	case KindFunction:
		return "function: builtin: " + v.obj.(*Native).Name
	case KindTable:
		return fmt.Sprintf("table: %p", v.obj)
	}
	return "<invalid value>"
}

// Inspect is String with strings quoted, for listings and diagnostics.
func (v Value) Inspect() string {
	if v.IsString() {
		s, _ := v.AsString()
		return strconv.Quote(s)
	}
	return v.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
