package client

import (
	"fmt"

	"github.com/stashdb/go-stash/cond"
	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/reply"
	"github.com/stashdb/go-stash/risp"
)

// Query builds a QUERY request against one namespace/table, carrying the
// builder surface of stash_query_new/stash_query_condition/
// stash_query_limit/stash_query_execute from libstash.c (the original's
// separate deprecated one-shot stash_query function is not carried
// forward; this one struct covers both).
type Query struct {
	session *Session
	nsID    int32
	tableID int32
	limit   int32
	cond    *cond.Node
}

// NewQuery starts a query against namespace nsID, table tableID. Both must
// be positive.
func NewQuery(s *Session, nsID, tableID int32) *Query {
	return &Query{session: s, nsID: nsID, tableID: tableID}
}

// Where attaches the root condition. c is consumed; see package cond's
// ownership contract.
func (q *Query) Where(c *cond.Node) *Query {
	q.cond = c
	return q
}

// Limit caps the number of rows returned; 0 (the default) means no limit.
func (q *Query) Limit(n int32) *Query {
	q.limit = n
	return q
}

// Execute sends the query and returns the decoded reply.
func (q *Query) Execute() (*reply.Reply, error) {
	if q.nsID <= 0 || q.tableID <= 0 {
		return nil, fmt.Errorf("%w: namespace id and table id must be positive", ErrConfig)
	}

	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdNamespaceID), int64(q.nsID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdTableID), int64(q.tableID)); err != nil {
		return nil, err
	}
	if q.limit > 0 {
		if err := payload.Int(byte(wire.CmdCount), int64(q.limit)); err != nil {
			return nil, err
		}
	}
	if q.cond != nil {
		condEnc := risp.NewEncoder()
		if err := q.cond.Encode(condEnc); err != nil {
			return nil, fmt.Errorf("client: encode condition: %w", err)
		}
		if err := payload.Record(byte(wire.CmdCondition), condEnc); err != nil {
			return nil, err
		}
	}

	return q.session.sendRequest(wire.CmdQuery, payload)
}
