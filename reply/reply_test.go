package reply_test

import (
	"testing"

	"github.com/stashdb/go-stash/attr"
	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/reply"
	"github.com/stashdb/go-stash/risp"
	"github.com/stashdb/go-stash/value"
)

func buildRow(rowID, nameID int32, attrs attr.List) []byte {
	inner := risp.NewEncoder()
	_ = inner.Int(byte(wire.CmdCount), int64(len(attrs)))
	_ = inner.Int(byte(wire.CmdNameID), int64(nameID))
	_ = inner.Int(byte(wire.CmdRowID), int64(rowID))
	_ = attrs.Encode(inner)
	return inner.Bytes()
}

func buildReplyFrame(t *testing.T, reqID, userID int32, rows [][]byte) []byte {
	t.Helper()
	body := risp.NewEncoder()
	if reqID != 0 {
		_ = body.Int(byte(wire.CmdRequestID), int64(reqID))
	}
	if userID != 0 {
		_ = body.Int(byte(wire.CmdUserID), int64(userID))
	}
	_ = body.Int(byte(wire.CmdCount), int64(len(rows)))
	for _, r := range rows {
		if err := body.Str(byte(wire.CmdRow), r); err != nil {
			t.Fatalf("encode row: %v", err)
		}
	}

	top := risp.NewEncoder()
	if err := top.Record(byte(wire.CmdReply), body); err != nil {
		t.Fatalf("encode reply envelope: %v", err)
	}
	return top.Bytes()
}

func TestDecodeLoginStyleReply(t *testing.T) {
	t.Parallel()

	frame := buildReplyFrame(t, 1, 42, nil)

	var pool reply.Pool
	r := pool.Get()
	if err := reply.Decode(frame, r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.ResultCode != wire.ResultOK {
		t.Errorf("result code = %v, want OK", r.ResultCode)
	}
	if r.RequestID != 1 || r.UserID != 42 {
		t.Errorf("request id/user id = %d/%d, want 1/42", r.RequestID, r.UserID)
	}
	if r.RowCount() != 0 {
		t.Errorf("row count = %d, want 0", r.RowCount())
	}
}

func TestDecodeFailedReply(t *testing.T) {
	t.Parallel()

	body := risp.NewEncoder()
	_ = body.Int(byte(wire.CmdFailCode), int64(wire.ResultAuthFailed))
	top := risp.NewEncoder()
	if err := top.Record(byte(wire.CmdFailed), body); err != nil {
		t.Fatalf("encode failed envelope: %v", err)
	}

	var pool reply.Pool
	r := pool.Get()
	if err := reply.Decode(top.Bytes(), r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.ResultCode != wire.ResultAuthFailed {
		t.Errorf("result code = %v, want AUTH_FAILED", r.ResultCode)
	}
}

func TestDecodeRowsAndCursor(t *testing.T) {
	t.Parallel()

	var a1, a2 attr.List
	a1.Set(10, value.Int(1), 0)
	a2.Set(10, value.Int(2), 0)

	row1 := buildRow(101, 1, a1)
	row2 := buildRow(102, 1, a2)
	frame := buildReplyFrame(t, 1, 0, [][]byte{row1, row2})

	var pool reply.Pool
	r := pool.Get()
	if err := reply.Decode(frame, r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.RowCount() != 2 {
		t.Fatalf("row count = %d, want 2", r.RowCount())
	}

	id, ok := r.NextRow()
	if !ok || id != 101 {
		t.Fatalf("first NextRow = %d, %v, want 101, true", id, ok)
	}
	if got := r.GetInt(10); got != 1 {
		t.Errorf("GetInt(10) = %d, want 1", got)
	}

	id, ok = r.NextRow()
	if !ok || id != 102 {
		t.Fatalf("second NextRow = %d, %v, want 102, true", id, ok)
	}

	id, ok = r.NextRow()
	if ok || id != 0 {
		t.Fatalf("third NextRow = %d, %v, want 0, false", id, ok)
	}
}

func TestSortOrdersPresentBeforeMissingAndClearsCursor(t *testing.T) {
	t.Parallel()

	var a1, a2, a3 attr.List
	a1.Set(20, value.Int(2), 0)
	a3.Set(20, value.Int(1), 0)
	// a2 deliberately has no key 20.

	row1 := buildRow(1, 1, a1)
	row2 := buildRow(2, 1, a2)
	row3 := buildRow(3, 1, a3)
	frame := buildReplyFrame(t, 1, 0, [][]byte{row1, row2, row3})

	var pool reply.Pool
	r := pool.Get()
	if err := reply.Decode(frame, r); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// advance the cursor before sorting, to verify Sort resets it
	r.NextRow()

	if err := r.Sort(20); err != nil {
		t.Fatalf("sort: %v", err)
	}

	want := []int32{3, 1, 2}
	for i, rowID := range want {
		if r.Rows[i].RowID != rowID {
			t.Errorf("row %d = %d, want %d", i, r.Rows[i].RowID, rowID)
		}
	}

	id, ok := r.NextRow()
	if !ok || id != 3 {
		t.Fatalf("NextRow after sort = %d, %v, want 3, true", id, ok)
	}
}

func TestSortRejectsMixedTypes(t *testing.T) {
	t.Parallel()

	var a1, a2 attr.List
	a1.Set(30, value.Int(1), 0)
	a2.Set(30, value.Str([]byte("x")), 0)

	row1 := buildRow(1, 1, a1)
	row2 := buildRow(2, 1, a2)
	frame := buildReplyFrame(t, 1, 0, [][]byte{row1, row2})

	var pool reply.Pool
	r := pool.Get()
	if err := reply.Decode(frame, r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := r.Sort(30); err == nil {
		t.Fatal("expected error sorting mixed-type values")
	}
}

func TestPoolReusesReply(t *testing.T) {
	t.Parallel()

	var pool reply.Pool
	r1 := pool.Get()
	r1.RequestID = 99
	pool.Put(r1)

	r2 := pool.Get()
	if r2 != r1 {
		t.Fatal("expected Get to reuse the freed Reply")
	}
	if r2.RequestID != 0 {
		t.Errorf("reused reply still has RequestID = %d, want 0", r2.RequestID)
	}
}
