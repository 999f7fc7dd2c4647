// Package attr implements the Attribute and attribute-list types of
// spec.md §3: a {key_id, value, expires} triple attached to a row, in the
// order the caller set them (order is preserved on the wire and on the
// server).
package attr

import (
	"fmt"

	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/risp"
	"github.com/stashdb/go-stash/value"
)

// Attribute is a single key/value/expiry triple.
type Attribute struct {
	KeyID   int32
	Value   value.Value
	Expires int32 // 0 means "no expiry / default"
}

// List is an ordered sequence of Attributes, built up by callers via Set
// before being passed to a create-row or set request.
type List []Attribute

// Set appends an attribute, mirroring stash_set_attr's append-only
// semantics (the original linked list; a Go slice is the equivalent the
// DESIGN NOTES in spec.md §4.3 call out as preferred).
func (l *List) Set(keyID int32, v value.Value, expires int32) {
	*l = append(*l, Attribute{KeyID: keyID, Value: v, Expires: expires})
}

// Encode appends one ATTRIBUTE nested record per attribute, in order, to
// enc.
func (l List) Encode(enc *risp.Encoder) error {
	for _, a := range l {
		if a.KeyID <= 0 {
			return fmt.Errorf("attr: key id must be positive, got %d", a.KeyID)
		}
		inner := risp.NewEncoder()
		if err := inner.Int(byte(wire.CmdKeyID), int64(a.KeyID)); err != nil {
			return err
		}
		valEnc := risp.NewEncoder()
		if err := a.Value.Encode(valEnc); err != nil {
			return err
		}
		if err := inner.Record(byte(wire.CmdValue), valEnc); err != nil {
			return err
		}
		if a.Expires != 0 {
			if err := inner.Int(byte(wire.CmdExpires), int64(a.Expires)); err != nil {
				return err
			}
		}
		if err := enc.Record(byte(wire.CmdAttribute), inner); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses an ATTRIBUTE record's payload (KEY_ID, VALUE, and an
// optional EXPIRES sub-record) into an Attribute, grounded on
// cmdRowAttribute/cmdAttrKeyID/cmdAttrValue in libstash.c.
func Decode(data []byte) (Attribute, error) {
	t := risp.NewTable()
	var a Attribute
	var haveKey, haveValue bool
	var valueErr error

	t.Handle(byte(wire.CmdKeyID), func(d []byte) error {
		a.KeyID = int32(t.Int(byte(wire.CmdKeyID)))
		haveKey = true
		return nil
	})
	t.Handle(byte(wire.CmdValue), func(d []byte) error {
		v, err := value.Decode(d)
		if err != nil {
			valueErr = err
			return err
		}
		a.Value = v
		haveValue = true
		return nil
	})
	t.Handle(byte(wire.CmdExpires), func(d []byte) error {
		a.Expires = int32(t.Int(byte(wire.CmdExpires)))
		return nil
	})

	n, err := t.Process(data)
	if err != nil {
		return Attribute{}, err
	}
	if valueErr != nil {
		return Attribute{}, valueErr
	}
	if n != len(data) || !haveKey || !haveValue {
		return Attribute{}, fmt.Errorf("attr: malformed attribute record")
	}
	return a, nil
}
