package cond_test

import (
	"testing"

	"github.com/stashdb/go-stash/cond"
	"github.com/stashdb/go-stash/risp"
	"github.com/stashdb/go-stash/value"
)

func roundTrip(t *testing.T, n *cond.Node) *cond.Node {
	t.Helper()
	enc := risp.NewEncoder()
	if err := n.Encode(enc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := cond.Decode(enc.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

func TestConditionRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    *cond.Node
	}{
		{name: "equals", n: cond.Equals(5, value.Int(1))},
		{name: "greater than", n: cond.GreaterThan(9, value.Int(100))},
		{name: "exists", n: cond.Exists(7)},
		{name: "name by id", n: cond.NameByID(3)},
		{name: "name literal", n: cond.NameLiteral("widgets")},
		{
			name: "and of equals and exists",
			n:    cond.And(cond.Equals(5, value.Int(1)), cond.Exists(7)),
		},
		{
			name: "or",
			n:    cond.Or(cond.Exists(1), cond.Exists(2)),
		},
		{
			name: "not",
			n:    cond.Not(cond.Exists(4)),
		},
		{
			name: "nested tree",
			n: cond.And(
				cond.Or(cond.Equals(1, value.Int(1)), cond.Equals(1, value.Int(2))),
				cond.Not(cond.Exists(9)),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := roundTrip(t, tt.n)
			if !cond.Equal(got, tt.n) {
				t.Errorf("got %s, want %s", got, tt.n)
			}
		})
	}
}

func TestConditionMalformedTreeRejected(t *testing.T) {
	t.Parallel()

	enc := risp.NewEncoder()
	n := cond.And(cond.Exists(1), nil)
	if err := n.Encode(enc); err == nil {
		t.Fatal("expected error encoding And with a missing child")
	}
}
