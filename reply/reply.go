// Package reply implements the Reply/Row/cursor/sort model of spec.md
// §3/§4.3: a decoded server response bundling a result code with zero or
// more rows, each with an ordered attribute list, plus a cursor for
// iterating rows and a stable sort by attribute key.
package reply

import (
	"fmt"
	"sort"

	"github.com/stashdb/go-stash/attr"
	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/risp"
	"github.com/stashdb/go-stash/value"
)

// Row is one reply row: a name and row id plus its ordered attribute list.
type Row struct {
	RowID  int32
	NameID int32
	Attrs  attr.List
	seen   bool
}

// Reply is a decoded server response. On success without rows, Rows is
// empty and the scalar fields carry the result; on failure, ResultCode is
// non-OK and the other fields are unspecified (spec.md §3).
type Reply struct {
	RequestID  int32
	ResultCode wire.Result
	Operation  wire.Command // set by the dispatcher, not decoded from the wire
	UserID     int32
	NSID       int32
	TableID    int32
	KeyID      int32

	Rows []Row

	currentRowIndex int // -1 unstarted, 1..len(Rows), len(Rows)+1 exhausted
}

// RowCount returns len(r.Rows) (spec.md invariant: row_count == len(rows)
// after parsing).
func (r *Reply) RowCount() int { return len(r.Rows) }

// reset puts r back into its zero-value shape for reuse from a Pool,
// mirroring reply_clear in libstash.c.
func (r *Reply) reset() {
	r.RequestID = 0
	r.ResultCode = wire.ResultOK
	r.Operation = 0
	r.UserID = 0
	r.NSID = 0
	r.TableID = 0
	r.KeyID = 0
	r.Rows = r.Rows[:0]
	r.currentRowIndex = -1
}

// Decode parses a complete top-level response frame, containing either
// FAILED or REPLY, into r.
// r is assumed freshly reset (see Pool.Get).
func Decode(data []byte, r *Reply) error {
	top := risp.NewTable()
	var failCode int64
	var haveFail bool
	var replyErr error
	var haveReply bool

	top.Handle(byte(wire.CmdFailed), func(d []byte) error {
		failTable := risp.NewTable()
		failTable.Handle(byte(wire.CmdFailCode), func(fd []byte) error {
			failCode = failTable.Int(byte(wire.CmdFailCode))
			haveFail = true
			return nil
		})
		n, err := failTable.Process(d)
		if err != nil {
			return err
		}
		if n != len(d) || !haveFail {
			return fmt.Errorf("reply: malformed FAILED record")
		}
		return nil
	})

	top.Handle(byte(wire.CmdReply), func(d []byte) error {
		haveReply = true
		replyErr = decodeReplyBody(d, r)
		return replyErr
	})

	n, err := top.Process(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("reply: truncated top-level frame")
	}

	switch {
	case haveFail:
		r.ResultCode = wire.Result(failCode)
		if r.ResultCode == wire.ResultOK {
			return fmt.Errorf("reply: FAILED record carried OK result code")
		}
	case haveReply:
		if replyErr != nil {
			return replyErr
		}
		r.ResultCode = wire.ResultOK
	default:
		return fmt.Errorf("reply: top-level frame carried neither FAILED nor REPLY")
	}

	r.currentRowIndex = -1
	return nil
}

func decodeReplyBody(data []byte, r *Reply) error {
	t := risp.NewTable()
	var rowCount int64
	var haveCount bool
	var rowErr error

	setOnce := func(dst *int32, cmd wire.Command) risp.Handler {
		set := false
		return func(d []byte) error {
			if set {
				return fmt.Errorf("reply: duplicate %d in REPLY record", cmd)
			}
			*dst = int32(t.Int(byte(cmd)))
			set = true
			return nil
		}
	}

	t.Handle(byte(wire.CmdRequestID), setOnce(&r.RequestID, wire.CmdRequestID))
	t.Handle(byte(wire.CmdUserID), setOnce(&r.UserID, wire.CmdUserID))
	t.Handle(byte(wire.CmdNamespaceID), setOnce(&r.NSID, wire.CmdNamespaceID))
	t.Handle(byte(wire.CmdTableID), setOnce(&r.TableID, wire.CmdTableID))
	t.Handle(byte(wire.CmdKeyID), setOnce(&r.KeyID, wire.CmdKeyID))
	t.Handle(byte(wire.CmdCount), func(d []byte) error {
		if haveCount {
			return fmt.Errorf("reply: duplicate COUNT in REPLY record")
		}
		rowCount = t.Int(byte(wire.CmdCount))
		haveCount = true
		return nil
	})
	t.Handle(byte(wire.CmdRow), func(d []byte) error {
		row, err := decodeRow(d)
		if err != nil {
			rowErr = err
			return err
		}
		r.Rows = append(r.Rows, row)
		return nil
	})

	n, err := t.Process(data)
	if err != nil {
		return err
	}
	if rowErr != nil {
		return rowErr
	}
	if n != len(data) {
		return fmt.Errorf("reply: truncated REPLY record")
	}
	if haveCount && int(rowCount) != len(r.Rows) {
		return fmt.Errorf("reply: COUNT=%d does not match %d decoded rows", rowCount, len(r.Rows))
	}
	return nil
}

func decodeRow(data []byte) (Row, error) {
	t := risp.NewTable()
	var row Row
	var attrErr error

	t.Handle(byte(wire.CmdCount), func(d []byte) error { return nil })
	t.Handle(byte(wire.CmdNameID), func(d []byte) error {
		row.NameID = int32(t.Int(byte(wire.CmdNameID)))
		return nil
	})
	t.Handle(byte(wire.CmdRowID), func(d []byte) error {
		row.RowID = int32(t.Int(byte(wire.CmdRowID)))
		return nil
	})
	t.Handle(byte(wire.CmdAttribute), func(d []byte) error {
		a, err := attr.Decode(d)
		if err != nil {
			attrErr = err
			return err
		}
		row.Attrs = append(row.Attrs, a)
		return nil
	})

	n, err := t.Process(data)
	if err != nil {
		return Row{}, err
	}
	if attrErr != nil {
		return Row{}, attrErr
	}
	if n != len(data) {
		return Row{}, fmt.Errorf("reply: truncated ROW record")
	}
	if row.RowID <= 0 {
		return Row{}, fmt.Errorf("reply: row id must be positive, got %d", row.RowID)
	}
	return row, nil
}

// NextRow advances the cursor per spec.md §4.3's rotate semantics and
// returns the row id it moved to, or (0, false) once exhausted.
func (r *Reply) NextRow() (int32, bool) {
	n := len(r.Rows)
	switch {
	case r.currentRowIndex == -1 && n == 0:
		r.currentRowIndex = n + 1
		return 0, false
	case r.currentRowIndex == -1:
		r.currentRowIndex = 1
		r.Rows[0].seen = true
		return r.Rows[0].RowID, true
	case r.currentRowIndex == n:
		r.currentRowIndex = n + 1
		return 0, false
	default:
		// rotate the current head to the tail; it is now "returned".
		head := r.Rows[0]
		r.Rows = append(r.Rows[1:], head)
		r.currentRowIndex++
		r.Rows[0].seen = true
		return r.Rows[0].RowID, true
	}
}

// current returns the row the cursor is presently positioned at, or nil.
func (r *Reply) current() *Row {
	if r.currentRowIndex <= 0 || r.currentRowIndex > len(r.Rows) {
		return nil
	}
	return &r.Rows[0]
}

func (r *Reply) findAttr(keyID int32) *attr.Attribute {
	row := r.current()
	if row == nil {
		return nil
	}
	for i := range row.Attrs {
		if row.Attrs[i].KeyID == keyID {
			return &row.Attrs[i]
		}
	}
	return nil
}

// GetStr returns the string value of keyID on the current row, or "" if
// absent or not a string (spec.md §4.3: mismatched-type accessors return
// the zero value).
func (r *Reply) GetStr(keyID int32) string {
	a := r.findAttr(keyID)
	if a == nil || a.Value.Kind() != value.KindStr {
		return ""
	}
	return string(a.Value.Bytes())
}

// GetInt returns the integer value of keyID on the current row, or 0 if
// absent or not an integer.
func (r *Reply) GetInt(keyID int32) int32 {
	a := r.findAttr(keyID)
	if a == nil || a.Value.Kind() != value.KindInt {
		return 0
	}
	return a.Value.Int32()
}

// GetLength returns the byte length of keyID's string value on the current
// row, or 0 for non-string values or an absent key.
func (r *Reply) GetLength(keyID int32) int {
	a := r.findAttr(keyID)
	if a == nil {
		return 0
	}
	return a.Value.Len()
}

// RowID returns the row id of the current row, or 0 if the cursor is not
// positioned on a row.
func (r *Reply) RowID() int32 {
	row := r.current()
	if row == nil {
		return 0
	}
	return row.RowID
}

// ErrSortUnsupported is returned by Sort when two rows' values for the sort
// key are of different, or otherwise incomparable, types.
var ErrSortUnsupported = fmt.Errorf("reply: unsupported or mismatched types for sort key")

// Sort stably reorders r.Rows by the value of attribute keyID: rows lacking
// the key sort after rows having it; integers compare numerically, strings
// compare lexicographically by byte value up to the shorter length.
// Mixed types are an error rather than an arbitrary comparison. After
// sorting, every row's seen marker is cleared and the cursor resets to
// unstarted (spec.md §4.3).
//
// The sort key is passed as closure state to sort.SliceStable rather than
// through a package-global variable, resolving the §9 DESIGN NOTES hazard
// (the original C smuggled the key through a process-global for qsort).
// This makes concurrent sorts across different Reply values on different
// goroutines safe.
func (r *Reply) Sort(keyID int32) error {
	var sortErr error
	less := func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		ai := findInRow(&r.Rows[i], keyID)
		aj := findInRow(&r.Rows[j], keyID)
		switch {
		case ai == nil && aj == nil:
			return false
		case ai == nil:
			return false
		case aj == nil:
			return true
		}
		less, err := compareValues(ai.Value, aj.Value)
		if err != nil {
			sortErr = err
			return false
		}
		return less
	}
	sort.SliceStable(r.Rows, less)
	if sortErr != nil {
		return sortErr
	}
	for i := range r.Rows {
		r.Rows[i].seen = false
	}
	r.currentRowIndex = -1
	return nil
}

func findInRow(row *Row, keyID int32) *attr.Attribute {
	for i := range row.Attrs {
		if row.Attrs[i].KeyID == keyID {
			return &row.Attrs[i]
		}
	}
	return nil
}

func compareValues(a, b value.Value) (bool, error) {
	if a.Kind() != b.Kind() {
		return false, ErrSortUnsupported
	}
	switch a.Kind() {
	case value.KindInt:
		return a.Int32() < b.Int32(), nil
	case value.KindStr:
		return compareBytes(a.Bytes(), b.Bytes()) < 0, nil
	default:
		return false, ErrSortUnsupported
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
