// Package example demonstrates go-stash's public API. The examples compile
// against the real client package but do not run against a live server, so
// none of them carry an "Output:" comment.
package example_test

import (
	"fmt"

	"github.com/stashdb/go-stash/attr"
	"github.com/stashdb/go-stash/client"
	"github.com/stashdb/go-stash/cond"
	"github.com/stashdb/go-stash/value"
)

func ExampleSession_Connect() {
	s := client.New()
	if err := s.Connstr("alice/secret@db1.internal:13600,db2.internal"); err != nil {
		fmt.Println("bad connstr:", err)
		return
	}
	if err := s.Connect(); err != nil {
		fmt.Println("connect failed:", err)
		return
	}
	fmt.Println("logged in as user", s.UserID())
}

func ExampleSession_CreateRow() {
	s := client.New()
	_ = s.Connstr("alice/secret@db1.internal")
	_ = s.Connect()

	var attrs attr.List
	attrs.Set(1, value.Str([]byte("widget")), 0)
	attrs.Set(2, value.Int(42), 0)

	r, err := s.CreateRow(1, 100, 0, "widget-1", attrs)
	if err != nil {
		fmt.Println("create row failed:", err)
		return
	}
	if id, ok := r.NextRow(); ok {
		fmt.Println("created row", id)
	}
}

func ExampleNewQuery() {
	s := client.New()
	_ = s.Connstr("alice/secret@db1.internal")
	_ = s.Connect()

	where := cond.And(
		cond.Equals(2, value.Int(42)),
		cond.Exists(3),
	)

	r, err := client.NewQuery(s, 1, 100).Where(where).Limit(10).Execute()
	if err != nil {
		fmt.Println("query failed:", err)
		return
	}
	for {
		id, ok := r.NextRow()
		if !ok {
			break
		}
		fmt.Println("row", id, "=", r.GetStr(1))
	}
}
