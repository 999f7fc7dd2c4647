// Package value implements the typed scalar Value union described in
// spec.md §3/§4.2: an integer, a byte string (blob or text, never
// NUL-terminated), or a server-assigned auto-id placeholder.
//
// Grounded on the teacher's MySQL binary-protocol type tags
// (proxy/mysql/conn.go's mysqlType* constants select how a column value is
// decoded) generalized from MySQL's dozen wire types down to stash's three.
package value

import (
	"fmt"

	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/risp"
)

// Kind discriminates a Value's variant.
type Kind int

const (
	KindInt Kind = iota
	KindStr
	KindAuto
)

// Value is an owned, immutable tagged union. Values are owned by whatever
// container holds them (an Attribute, a condition leaf, or a reply cell)
// and are never shared by reference across containers.
type Value struct {
	kind Kind
	i    int32
	s    []byte
}

// Int constructs an integer Value.
func Int(i int32) Value { return Value{kind: KindInt, i: i} }

// Str constructs a string/blob Value. A nil or empty slice is the "null"
// value (§3: "length 0 means null").
func Str(s []byte) Value { return Value{kind: KindStr, s: s} }

// Auto constructs the server-assigned id placeholder.
func Auto() Value { return Value{kind: KindAuto} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is a zero-length string value.
func (v Value) IsNull() bool { return v.kind == KindStr && len(v.s) == 0 }

// Int32 returns v's integer payload, or 0 if v is not KindInt.
func (v Value) Int32() int32 {
	if v.kind != KindInt {
		return 0
	}
	return v.i
}

// Bytes returns v's string/blob payload, or nil if v is not KindStr.
func (v Value) Bytes() []byte {
	if v.kind != KindStr {
		return nil
	}
	return v.s
}

// Len returns the byte length of a string value, or 0 for any other kind
// (spec.md §4.3: "get_length returns 0 for non-string values").
func (v Value) Len() int {
	if v.kind != KindStr {
		return 0
	}
	return len(v.s)
}

// Equal reports structural equality, used by the round-trip property in
// spec.md §8.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInt:
		return a.i == b.i
	case KindStr:
		return string(a.s) == string(b.s)
	default:
		return true
	}
}

// Encode appends v's wire record to enc: INTEGER for an int, STRING for a
// non-empty string, NULL for an empty string, AUTO for the placeholder.
func (v Value) Encode(enc *risp.Encoder) error {
	switch v.kind {
	case KindInt:
		return enc.Int(byte(wire.CmdInteger), int64(v.i))
	case KindStr:
		if len(v.s) == 0 {
			return enc.Marker(byte(wire.CmdNull))
		}
		return enc.Str(byte(wire.CmdString), v.s)
	case KindAuto:
		return enc.Marker(byte(wire.CmdAuto))
	default:
		return fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// ErrUnexpectedValue is returned by Decode when a VALUE sub-record contains
// none of {INTEGER, STRING, NULL, AUTO}.
var ErrUnexpectedValue = fmt.Errorf("value: unexpected value record")

// Decode parses a VALUE sub-record's payload (already unwrapped by the
// caller from its CmdValue nested-record envelope) into a Value.
func Decode(data []byte) (Value, error) {
	t := risp.NewTable()
	var result Value
	var found bool

	t.Handle(byte(wire.CmdInteger), func(d []byte) error {
		result = Int(int32(t_int32(d)))
		found = true
		return nil
	})
	t.Handle(byte(wire.CmdString), func(d []byte) error {
		cp := make([]byte, len(d))
		copy(cp, d)
		result = Str(cp)
		found = true
		return nil
	})
	t.Handle(byte(wire.CmdNull), func(d []byte) error {
		result = Str(nil)
		found = true
		return nil
	})
	t.Handle(byte(wire.CmdAuto), func(d []byte) error {
		result = Auto()
		found = true
		return nil
	})

	n, err := t.Process(data)
	if err != nil {
		return Value{}, err
	}
	if n != len(data) || !found {
		return Value{}, ErrUnexpectedValue
	}
	return result, nil
}

func t_int32(d []byte) int32 {
	if len(d) != 4 {
		return 0
	}
	return int32(uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3]))
}
