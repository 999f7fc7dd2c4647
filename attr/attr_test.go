package attr_test

import (
	"testing"

	"github.com/stashdb/go-stash/attr"
	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/risp"
	"github.com/stashdb/go-stash/value"
)

func TestAttributeRoundTrip(t *testing.T) {
	t.Parallel()

	var list attr.List
	list.Set(5, value.Int(42), 0)
	list.Set(6, value.Str([]byte("widgets")), 3600)

	enc := risp.NewEncoder()
	if err := list.Encode(enc); err != nil {
		t.Fatalf("encode: %v", err)
	}

	table := risp.NewTable()
	var decoded []attr.Attribute
	table.Handle(byte(wire.CmdAttribute), func(d []byte) error {
		a, err := attr.Decode(d)
		if err != nil {
			return err
		}
		decoded = append(decoded, a)
		return nil
	})
	n, err := table.Process(enc.Bytes())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != enc.Len() {
		t.Fatalf("process consumed %d of %d bytes", n, enc.Len())
	}

	if len(decoded) != 2 {
		t.Fatalf("got %d attributes, want 2", len(decoded))
	}
	if decoded[0].KeyID != 5 || decoded[0].Value.Int32() != 42 || decoded[0].Expires != 0 {
		t.Errorf("attribute 0 = %+v", decoded[0])
	}
	if decoded[1].KeyID != 6 || string(decoded[1].Value.Bytes()) != "widgets" || decoded[1].Expires != 3600 {
		t.Errorf("attribute 1 = %+v", decoded[1])
	}
}

func TestAttributeRejectsNonPositiveKeyID(t *testing.T) {
	t.Parallel()

	var list attr.List
	list.Set(0, value.Int(1), 0)

	enc := risp.NewEncoder()
	if err := list.Encode(enc); err == nil {
		t.Fatal("expected error encoding attribute with key id 0")
	}
}
