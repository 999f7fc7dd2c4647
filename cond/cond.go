// Package cond implements the recursive condition tree of spec.md §3/§4.2:
// a boolean composition of leaf predicates over attribute keys.
//
// Ownership follows the §9 DESIGN NOTES decision: a Node is consumed by
// whichever And/Or/Not node it gets attached to. Callers must not reuse a
// Node after handing it to And/Or/Not — doing so would alias a subtree the
// way the original C's raw owning pointers allowed, which is exactly the
// double-free hazard §9 flags. Go's garbage collector removes the need for
// stash_cond_free/stash_free_value entirely; there is no Free method here.
package cond

import (
	"fmt"

	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/risp"
	"github.com/stashdb/go-stash/value"
)

// Type discriminates a Node's variant.
type Type int

const (
	TypeEquals Type = iota
	TypeGreaterThan
	TypeExists
	TypeName
	TypeAnd
	TypeOr
	TypeNot
)

// Node is one condition tree node. Exactly the fields relevant to its Type
// are populated; see the invariants in spec.md §3.
type Node struct {
	typ   Type
	keyID int32
	val   value.Value

	nameID int32
	name   string

	a, b *Node
}

// Equals builds a key = value leaf. keyID must be > 0.
func Equals(keyID int32, v value.Value) *Node {
	return &Node{typ: TypeEquals, keyID: keyID, val: v}
}

// GreaterThan builds a key > value leaf. keyID must be > 0.
func GreaterThan(keyID int32, v value.Value) *Node {
	return &Node{typ: TypeGreaterThan, keyID: keyID, val: v}
}

// Exists builds a "key is present" leaf. keyID must be > 0.
func Exists(keyID int32) *Node {
	return &Node{typ: TypeExists, keyID: keyID}
}

// NameByID builds a name-matches-id leaf.
func NameByID(nameID int32) *Node {
	return &Node{typ: TypeName, nameID: nameID}
}

// NameLiteral builds a name-matches-literal leaf.
func NameLiteral(name string) *Node {
	return &Node{typ: TypeName, name: name}
}

// And builds a conjunction. a and b are consumed; do not reuse them.
func And(a, b *Node) *Node { return &Node{typ: TypeAnd, a: a, b: b} }

// Or builds a disjunction. a and b are consumed; do not reuse them.
func Or(a, b *Node) *Node { return &Node{typ: TypeOr, a: a, b: b} }

// Not negates a. a is consumed; do not reuse it.
func Not(a *Node) *Node { return &Node{typ: TypeNot, a: a} }

// Type reports n's variant.
func (n *Node) Type() Type { return n.typ }

// Equal reports structural equality of two condition trees, used by the
// round-trip property in spec.md §8.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeEquals, TypeGreaterThan:
		return a.keyID == b.keyID && value.Equal(a.val, b.val)
	case TypeExists:
		return a.keyID == b.keyID
	case TypeName:
		return a.nameID == b.nameID && a.name == b.name
	case TypeAnd, TypeOr:
		return Equal(a.a, b.a) && Equal(a.b, b.b)
	case TypeNot:
		return Equal(a.a, b.a)
	default:
		return false
	}
}

// Encode appends n's wire record to enc, recursively. Malformed trees
// (e.g. an And missing a child, constructed by hand rather than via And())
// are rejected rather than silently encoded.
func (n *Node) Encode(enc *risp.Encoder) error {
	if n == nil {
		return fmt.Errorf("cond: cannot encode a nil node")
	}
	switch n.typ {
	case TypeEquals, TypeGreaterThan:
		if n.keyID <= 0 {
			return fmt.Errorf("cond: key id must be positive, got %d", n.keyID)
		}
		inner := risp.NewEncoder()
		if err := inner.Int(byte(wire.CmdKeyID), int64(n.keyID)); err != nil {
			return err
		}
		valEnc := risp.NewEncoder()
		if err := n.val.Encode(valEnc); err != nil {
			return err
		}
		if err := inner.Record(byte(wire.CmdValue), valEnc); err != nil {
			return err
		}
		cmd := wire.CmdCondEquals
		if n.typ == TypeGreaterThan {
			cmd = wire.CmdCondGT
		}
		return enc.Record(byte(cmd), inner)

	case TypeExists:
		if n.keyID <= 0 {
			return fmt.Errorf("cond: key id must be positive, got %d", n.keyID)
		}
		inner := risp.NewEncoder()
		if err := inner.Int(byte(wire.CmdKeyID), int64(n.keyID)); err != nil {
			return err
		}
		return enc.Record(byte(wire.CmdCondExists), inner)

	case TypeName:
		if (n.nameID > 0) == (n.name != "") {
			return fmt.Errorf("cond: name condition must have exactly one of id or literal")
		}
		inner := risp.NewEncoder()
		if n.nameID > 0 {
			if err := inner.Int(byte(wire.CmdNameID), int64(n.nameID)); err != nil {
				return err
			}
		} else {
			if err := inner.Str(byte(wire.CmdName), []byte(n.name)); err != nil {
				return err
			}
		}
		return enc.Record(byte(wire.CmdCondName), inner)

	case TypeAnd, TypeOr:
		if n.a == nil || n.b == nil {
			return fmt.Errorf("cond: and/or requires both children")
		}
		aEnc := risp.NewEncoder()
		if err := n.a.Encode(aEnc); err != nil {
			return err
		}
		bEnc := risp.NewEncoder()
		if err := n.b.Encode(bEnc); err != nil {
			return err
		}
		inner := risp.NewEncoder()
		if err := inner.Record(byte(wire.CmdCondA), aEnc); err != nil {
			return err
		}
		if err := inner.Record(byte(wire.CmdCondB), bEnc); err != nil {
			return err
		}
		cmd := wire.CmdCondAnd
		if n.typ == TypeOr {
			cmd = wire.CmdCondOr
		}
		return enc.Record(byte(cmd), inner)

	case TypeNot:
		if n.a == nil {
			return fmt.Errorf("cond: not requires exactly one child")
		}
		inner := risp.NewEncoder()
		if err := n.a.Encode(inner); err != nil {
			return err
		}
		return enc.Record(byte(wire.CmdCondNot), inner)

	default:
		return fmt.Errorf("cond: unknown node type %d", n.typ)
	}
}

// String pretty-prints a condition tree as "key = value AND (...)"-style
// surface syntax, used by cmd/stash-cli's syntax-highlighted display
// (internal/repl) and error messages. It is not a wire format.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	switch n.typ {
	case TypeEquals:
		return fmt.Sprintf("key(%d) = %s", n.keyID, valueString(n.val))
	case TypeGreaterThan:
		return fmt.Sprintf("key(%d) > %s", n.keyID, valueString(n.val))
	case TypeExists:
		return fmt.Sprintf("exists(key(%d))", n.keyID)
	case TypeName:
		if n.nameID > 0 {
			return fmt.Sprintf("name(id=%d)", n.nameID)
		}
		return fmt.Sprintf("name(%q)", n.name)
	case TypeAnd:
		return fmt.Sprintf("(%s AND %s)", n.a.String(), n.b.String())
	case TypeOr:
		return fmt.Sprintf("(%s OR %s)", n.a.String(), n.b.String())
	case TypeNot:
		return fmt.Sprintf("NOT %s", n.a.String())
	default:
		return "?"
	}
}

func valueString(v value.Value) string {
	switch v.Kind() {
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int32())
	case value.KindAuto:
		return "AUTO"
	default:
		if v.IsNull() {
			return "NULL"
		}
		return fmt.Sprintf("%q", string(v.Bytes()))
	}
}
