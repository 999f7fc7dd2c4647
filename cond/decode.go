package cond

import (
	"fmt"

	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/risp"
	"github.com/stashdb/go-stash/value"
)

// Decode parses a single condition record (one of COND_EQUALS, COND_GT,
// COND_EXISTS, COND_NAME, COND_AND, COND_OR, COND_NOT) from data, which
// must contain exactly the bytes of that one record (cmd id through
// payload). It is recursive: And/Or/Not children are nested sub-records
// reparsed with a fresh table, mirroring how the server can reparse them
// with "the same condition table" per spec.md §4.2.
func Decode(data []byte) (*Node, error) {
	top := risp.NewTable()
	var result *Node
	var decodeErr error

	top.Handle(byte(wire.CmdCondEquals), func(d []byte) error {
		n, err := decodeKeyValue(d, TypeEquals)
		result, decodeErr = n, err
		return err
	})
	top.Handle(byte(wire.CmdCondGT), func(d []byte) error {
		n, err := decodeKeyValue(d, TypeGreaterThan)
		result, decodeErr = n, err
		return err
	})
	top.Handle(byte(wire.CmdCondExists), func(d []byte) error {
		n, err := decodeExists(d)
		result, decodeErr = n, err
		return err
	})
	top.Handle(byte(wire.CmdCondName), func(d []byte) error {
		n, err := decodeName(d)
		result, decodeErr = n, err
		return err
	})
	top.Handle(byte(wire.CmdCondAnd), func(d []byte) error {
		n, err := decodeAndOr(d, TypeAnd)
		result, decodeErr = n, err
		return err
	})
	top.Handle(byte(wire.CmdCondOr), func(d []byte) error {
		n, err := decodeAndOr(d, TypeOr)
		result, decodeErr = n, err
		return err
	})
	top.Handle(byte(wire.CmdCondNot), func(d []byte) error {
		n, err := Decode(d)
		if err != nil {
			decodeErr = err
			return err
		}
		result, decodeErr = Not(n), nil
		return nil
	})

	n, err := top.Process(data)
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	if n != len(data) || result == nil {
		return nil, fmt.Errorf("cond: malformed condition record")
	}
	return result, nil
}

func decodeKeyValue(data []byte, typ Type) (*Node, error) {
	t := risp.NewTable()
	var keyID int32
	var haveKey bool
	var v value.Value
	var haveValue bool
	var valueErr error

	t.Handle(byte(wire.CmdKeyID), func(d []byte) error {
		keyID = int32(t.Int(byte(wire.CmdKeyID)))
		haveKey = true
		return nil
	})
	t.Handle(byte(wire.CmdValue), func(d []byte) error {
		parsed, err := value.Decode(d)
		if err != nil {
			valueErr = err
			return err
		}
		v, haveValue = parsed, true
		return nil
	})

	n, err := t.Process(data)
	if err != nil {
		return nil, err
	}
	if valueErr != nil {
		return nil, valueErr
	}
	if n != len(data) || !haveKey || !haveValue {
		return nil, fmt.Errorf("cond: equals/gt requires key_id and value")
	}
	if typ == TypeGreaterThan {
		return GreaterThan(keyID, v), nil
	}
	return Equals(keyID, v), nil
}

func decodeExists(data []byte) (*Node, error) {
	t := risp.NewTable()
	var keyID int32
	var haveKey bool

	t.Handle(byte(wire.CmdKeyID), func(d []byte) error {
		keyID = int32(t.Int(byte(wire.CmdKeyID)))
		haveKey = true
		return nil
	})

	n, err := t.Process(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) || !haveKey {
		return nil, fmt.Errorf("cond: exists requires key_id")
	}
	return Exists(keyID), nil
}

func decodeName(data []byte) (*Node, error) {
	t := risp.NewTable()
	var nameID int32
	var name string
	var have bool

	t.Handle(byte(wire.CmdNameID), func(d []byte) error {
		nameID = int32(t.Int(byte(wire.CmdNameID)))
		have = true
		return nil
	})
	t.Handle(byte(wire.CmdName), func(d []byte) error {
		name = string(d)
		have = true
		return nil
	})

	n, err := t.Process(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) || !have {
		return nil, fmt.Errorf("cond: name requires id or literal")
	}
	if nameID > 0 {
		return NameByID(nameID), nil
	}
	return NameLiteral(name), nil
}

func decodeAndOr(data []byte, typ Type) (*Node, error) {
	t := risp.NewTable()
	var a, b *Node
	var err error

	t.Handle(byte(wire.CmdCondA), func(d []byte) error {
		a, err = Decode(d)
		return err
	})
	t.Handle(byte(wire.CmdCondB), func(d []byte) error {
		b, err = Decode(d)
		return err
	})

	n, perr := t.Process(data)
	if perr != nil {
		return nil, perr
	}
	if err != nil {
		return nil, err
	}
	if n != len(data) || a == nil || b == nil {
		return nil, fmt.Errorf("cond: and/or requires both children")
	}
	if typ == TypeOr {
		return Or(a, b), nil
	}
	return And(a, b), nil
}
