package vm

import (
	"errors"
	"math"
	"unsafe"
)

// ErrBorrowConflict is returned when a table is accessed while an
// incompatible borrow is outstanding: a write during any other access, or
// any access during a write.
var ErrBorrowConflict = errors.New("table already borrowed")

var (
	errNilKey = errors.New("table index is nil")
	errNaNKey = errors.New("table index is NaN")
)

// Table combines a dense array part (keys 1..n) with a hash part for every
// other key. It is shared by reference between all values holding it.
// Access is checked at run time: any number of readers or a single writer.
type Table struct {
	array []Value
	hash  map[uint64][]tableEntry
	count int // entries in the hash part

	readers int
	writing bool
}

type tableEntry struct {
	key Value
	val Value
}

// NewTable creates an empty table with room for narray list items and
// nhash keyed items.
func NewTable(narray, nhash int) *Table {
	return &Table{
		array: make([]Value, 0, narray),
		hash:  make(map[uint64][]tableEntry, nhash),
	}
}

// Borrow takes a shared borrow. The returned func releases it.
func (t *Table) Borrow() (release func(), err error) {
	if t.writing {
		return nil, ErrBorrowConflict
	}
	t.readers++
	return func() { t.readers-- }, nil
}

// BorrowMut takes the exclusive borrow. The returned func releases it.
func (t *Table) BorrowMut() (release func(), err error) {
	if t.writing || t.readers > 0 {
		return nil, ErrBorrowConflict
	}
	t.writing = true
	return func() { t.writing = false }, nil
}

// Get returns the value stored under key, or Nil.
func (t *Table) Get(key Value) (Value, error) {
	release, err := t.Borrow()
	if err != nil {
		return Nil(), err
	}
	defer release()

	key = normalizeKey(key)
	if i, ok := t.arrayIndex(key); ok && i < len(t.array) {
		return t.array[i], nil
	}
	for _, e := range t.hash[key.Hash()] {
		if e.key.Equal(key) {
			return e.val, nil
		}
	}
	return Nil(), nil
}

// Set stores val under key. Storing Nil removes a keyed entry.
func (t *Table) Set(key, val Value) error {
	switch {
	case key.IsNil():
		return errNilKey
	case key.kind == KindFloat && math.IsNaN(key.AsFloat()):
		return errNaNKey
	}
	release, err := t.BorrowMut()
	if err != nil {
		return err
	}
	defer release()

	key = normalizeKey(key)
	if i, ok := t.arrayIndex(key); ok {
		switch {
		case i < len(t.array):
			t.array[i] = val
			if val.IsNil() && i == len(t.array)-1 {
				t.trim()
			}
			return nil
		case i == len(t.array) && !val.IsNil():
			t.array = append(t.array, val)
			t.migrate()
			return nil
		}
	}
	t.setHash(key, val)
	return nil
}

// Append adds val at the end of the array part.
func (t *Table) Append(val Value) error {
	release, err := t.BorrowMut()
	if err != nil {
		return err
	}
	defer release()
	t.array = append(t.array, val)
	t.migrate()
	return nil
}

// Len returns the length of the array part. Trailing nils are not
// counted.
func (t *Table) Len() (int, error) {
	release, err := t.Borrow()
	if err != nil {
		return 0, err
	}
	defer release()
	return len(t.array), nil
}

// Range calls fn for the array part in order, then the hash part in no
// particular order, until fn returns false. The table stays borrowed
// for reading while fn runs.
func (t *Table) Range(fn func(key, val Value) bool) error {
	release, err := t.Borrow()
	if err != nil {
		return err
	}
	defer release()

	for i, v := range t.array {
		if v.IsNil() {
			continue
		}
		if !fn(Int(int64(i+1)), v) {
			return nil
		}
	}
	for _, bucket := range t.hash {
		for _, e := range bucket {
			if !fn(e.key, e.val) {
				return nil
			}
		}
	}
	return nil
}

// normalizeKey turns integral float keys into integer keys so 2.0 and 2
// address the same slot.
func normalizeKey(key Value) Value {
	if key.kind != KindFloat {
		return key
	}
	f := key.AsFloat()
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Int(int64(f))
	}
	return key
}

// arrayIndex maps integer keys 1..n to array slots.
func (t *Table) arrayIndex(key Value) (int, bool) {
	if key.kind != KindInteger {
		return 0, false
	}
	i := key.AsInt()
	if i < 1 || i > math.MaxInt32 {
		return 0, false
	}
	return int(i - 1), true
}

func (t *Table) setHash(key, val Value) {
	h := key.Hash()
	bucket := t.hash[h]
	for i, e := range bucket {
		if !e.key.Equal(key) {
			continue
		}
		if val.IsNil() {
			bucket = append(bucket[:i], bucket[i+1:]...)
			t.count--
			if len(bucket) == 0 {
				delete(t.hash, h)
			} else {
				t.hash[h] = bucket
			}
			return
		}
		bucket[i].val = val
		return
	}
	if val.IsNil() {
		return
	}
	t.hash[h] = append(bucket, tableEntry{key: key, val: val})
	t.count++
}

// trim drops trailing nils so Len counts up to the last non-nil item
func (t *Table) trim() {
	n := len(t.array)
	for n > 0 && t.array[n-1].IsNil() {
		n--
	}
	clear(t.array[n:])
	t.array = t.array[:n]
}

// migrate moves keys n+1, n+2, ... from the hash part into the array part
// after the array grew to n.
func (t *Table) migrate() {
	for t.count > 0 {
		key := Int(int64(len(t.array) + 1))
		h := key.Hash()
		found := false
		for i, e := range t.hash[h] {
			if e.key.Equal(key) {
				t.array = append(t.array, e.val)
				bucket := append(t.hash[h][:i], t.hash[h][i+1:]...)
				if len(bucket) == 0 {
					delete(t.hash, h)
				} else {
					t.hash[h] = bucket
				}
				t.count--
				found = true
				break
			}
		}
		if !found {
			return
		}
	}
}

// identity returns the address of a reference-typed payload
func identity(obj any) uintptr {
	switch o := obj.(type) {
	case *Native:
		return uintptr(unsafe.Pointer(o))
	case *Table:
		return uintptr(unsafe.Pointer(o))
	}
	return 0
}
