// Package risp implements the RISP wire framing described in spec.md §4.1:
// a stream of self-describing records of the form {cmd_id, [length],
// [payload]}, where the high bits of cmd_id select the payload shape.
//
// The read side is grounded on the teacher's packet-relay idiom in
// proxy/mysql/conn.go (readPacket/payloadLen/readLenEncInt read a
// length-prefixed frame from a byte slice without an intermediate parser
// object) and proxy/postgres/conn.go's encoder interface for the write
// side. RISP generalizes that idiom from one fixed 3-byte length prefix to
// seven width classes selected by the command id itself.
package risp

import (
	"encoding/binary"
	"fmt"

	"github.com/stashdb/go-stash/internal/wire"
)

// Handler is invoked once a record's payload has been fully captured.
// For a record carrying a nested sub-record (see Encoder.Record) data is
// the inner byte range the caller is expected to reparse with another Table.
type Handler func(data []byte) error

// slot holds the last-seen payload for one command id in a Table, mirroring
// stash.h's risp_t command array (one current value per command, not a
// list).
type slot struct {
	set  bool
	data []byte
}

const unexpectedRingSize = 32

// Table is a parse-table dispatch: a mapping from command id to last-seen
// payload plus an optional decode-time handler. Sessions hold no tables:
// package reply builds a fresh table for each nesting level it decodes
// (top-level, REPLY, FAILED, ROW, ATTRIBUTE), each given the handlers that
// build the reply tree.
type Table struct {
	slots      map[Command]*slot
	handlers   map[Command]Handler
	unexpected [unexpectedRingSize]Command
	unexpLen   int
	unexpHead  int
}

// Command re-exports wire.Command's underlying type to avoid every caller
// importing internal/wire just to spell a command id; risp itself is
// agnostic to which ids mean what.
type Command = byte

// Shape and its constants mirror wire.Shape so callers of Process need not
// import internal/wire either.
type Shape = wire.Shape

const (
	ShapeNone        = wire.ShapeNone
	ShapeUint8       = wire.ShapeUint8
	ShapeUint16      = wire.ShapeUint16
	ShapeUint32      = wire.ShapeUint32
	ShapeLenString8  = wire.ShapeLenString8
	ShapeLenString16 = wire.ShapeLenString16
	ShapeLenString32 = wire.ShapeLenString32
)

// NewTable creates an empty parse table.
func NewTable() *Table {
	return &Table{
		slots:    make(map[Command]*slot),
		handlers: make(map[Command]Handler),
	}
}

// Handle registers a handler invoked when cmd is decoded. Registering a
// handler for a command id the caller does not otherwise care about is
// harmless; handlers are optional.
func (t *Table) Handle(cmd Command, h Handler) {
	t.handlers[cmd] = h
}

// IsSet reports whether cmd was seen during the most recent Process call.
func (t *Table) IsSet(cmd Command) bool {
	s, ok := t.slots[cmd]
	return ok && s.set
}

// Data returns the last-seen payload bytes for cmd (empty for no-payload
// shapes).
func (t *Table) Data(cmd Command) []byte {
	s, ok := t.slots[cmd]
	if !ok {
		return nil
	}
	return s.data
}

// Int returns the last-seen payload for cmd interpreted as a big-endian
// integer of whatever width the command's shape implies: 1- and 2-byte
// payloads are unsigned, 4-byte payloads are a signed int32.
func (t *Table) Int(cmd Command) int64 {
	data := t.Data(cmd)
	switch len(data) {
	case 1:
		return int64(data[0])
	case 2:
		return int64(binary.BigEndian.Uint16(data))
	case 4:
		return int64(int32(binary.BigEndian.Uint32(data)))
	default:
		return 0
	}
}

// Reset clears every slot so the table can be reused for a new top-level
// decode. Process calls it at the start of every call.
func (t *Table) Reset() {
	for k := range t.slots {
		delete(t.slots, k)
	}
}

// UnexpectedCommands returns the diagnostic ring of command ids seen during
// decode for which no handler was registered, oldest first. It never
// aborts decoding (§4.1: "on an unknown command id the decoder still
// advances by the width implied by the range; it never aborts").
func (t *Table) UnexpectedCommands() []Command {
	out := make([]Command, t.unexpLen)
	for i := 0; i < t.unexpLen; i++ {
		out[i] = t.unexpected[(t.unexpHead-t.unexpLen+i+unexpectedRingSize)%unexpectedRingSize]
	}
	return out
}

func (t *Table) recordUnexpected(cmd Command) {
	t.unexpected[t.unexpHead] = cmd
	t.unexpHead = (t.unexpHead + 1) % unexpectedRingSize
	if t.unexpLen < unexpectedRingSize {
		t.unexpLen++
	}
}

// Process consumes data left to right, decoding one record at a time.
// It returns the number of bytes consumed and an error. Per spec.md §4.1,
// a record that is truncated at the end of data is not an error: Process
// returns (0, nil) and leaves the table's slots exactly as they were after
// the last complete record, so the caller can accumulate more bytes and
// retry the same (growing) buffer from the start.
//
// Process always re-parses from the beginning of data; this matches
// send_request's retry loop in the original C, which calls risp_process
// again on the whole accumulated read buffer after every recv.
func (t *Table) Process(data []byte) (int, error) {
	t.Reset()
	offset := 0
	for offset < len(data) {
		cmd := Command(data[offset])
		shape := wire.CommandShape(wire.Command(cmd))

		var payload []byte
		var recordLen int

		switch shape {
		case ShapeNone:
			recordLen = 1
			payload = nil
		case ShapeUint8:
			if offset+2 > len(data) {
				return 0, nil
			}
			recordLen = 2
			payload = data[offset+1 : offset+2]
		case ShapeUint16:
			if offset+3 > len(data) {
				return 0, nil
			}
			recordLen = 3
			payload = data[offset+1 : offset+3]
		case ShapeUint32:
			if offset+5 > len(data) {
				return 0, nil
			}
			recordLen = 5
			payload = data[offset+1 : offset+5]
		case ShapeLenString8:
			if offset+2 > len(data) {
				return 0, nil
			}
			n := int(data[offset+1])
			if offset+2+n > len(data) {
				return 0, nil
			}
			recordLen = 2 + n
			payload = data[offset+2 : offset+2+n]
		case ShapeLenString16:
			if offset+3 > len(data) {
				return 0, nil
			}
			n := int(binary.BigEndian.Uint16(data[offset+1 : offset+3]))
			if offset+3+n > len(data) {
				return 0, nil
			}
			recordLen = 3 + n
			payload = data[offset+3 : offset+3+n]
		case ShapeLenString32:
			if offset+5 > len(data) {
				return 0, nil
			}
			n := int(binary.BigEndian.Uint32(data[offset+1 : offset+5]))
			if n < 0 || offset+5+n > len(data) {
				return 0, nil
			}
			recordLen = 5 + n
			payload = data[offset+5 : offset+5+n]
		default:
			return 0, fmt.Errorf("risp: unhandled shape %d for command %d", shape, cmd)
		}

		t.slots[cmd] = &slot{set: true, data: payload}

		h, ok := t.handlers[cmd]
		if ok {
			if err := h(payload); err != nil {
				return 0, fmt.Errorf("risp: command %d: %w", cmd, err)
			}
		} else {
			t.recordUnexpected(cmd)
		}

		offset += recordLen
	}
	return offset, nil
}
