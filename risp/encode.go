package risp

import (
	"encoding/binary"
	"fmt"

	"github.com/stashdb/go-stash/internal/wire"
)

// Encoder appends RISP records to a growable byte buffer. It plays the role
// of the C library's expbuf_t: every Marker/Int/Str/Record call appends exactly one
// record and widens the buffer as needed (Go's append already does the
// growth bookkeeping the original hand-rolled).
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated record stream.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len reports how many bytes have been encoded so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Marker appends a no-payload record (cmd must be in the 0-63 range).
func (e *Encoder) Marker(cmd Command) error {
	if shape := wire.CommandShape(wire.Command(cmd)); shape != wire.ShapeNone {
		return fmt.Errorf("risp: command %d is not a marker shape", cmd)
	}
	e.buf = append(e.buf, cmd)
	return nil
}

// Int appends an integer record, picking the 1/2/4-byte big-endian width
// implied by cmd's range and rejecting a value that doesn't fit it.
func (e *Encoder) Int(cmd Command, v int64) error {
	switch wire.CommandShape(wire.Command(cmd)) {
	case wire.ShapeUint8:
		if v < 0 || v > 0xFF {
			return fmt.Errorf("risp: value %d does not fit command %d's 1-byte width", v, cmd)
		}
		e.buf = append(e.buf, cmd, byte(v))
	case wire.ShapeUint16:
		if v < 0 || v > 0xFFFF {
			return fmt.Errorf("risp: value %d does not fit command %d's 2-byte width", v, cmd)
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v))
		e.buf = append(e.buf, cmd)
		e.buf = append(e.buf, b[:]...)
	case wire.ShapeUint32:
		if v < -0x80000000 || v > 0xFFFFFFFF {
			return fmt.Errorf("risp: value %d does not fit command %d's 4-byte width", v, cmd)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
		e.buf = append(e.buf, cmd)
		e.buf = append(e.buf, b[:]...)
	default:
		return fmt.Errorf("risp: command %d is not an integer shape", cmd)
	}
	return nil
}

// Str appends a length-prefixed byte/string record, choosing the 1/2/4
// byte length-prefix width implied by cmd's range and rejecting data that
// doesn't fit it.
func (e *Encoder) Str(cmd Command, data []byte) error {
	switch wire.CommandShape(wire.Command(cmd)) {
	case wire.ShapeLenString8:
		if len(data) > 0xFF {
			return fmt.Errorf("risp: data of length %d does not fit command %d's 1-byte length prefix", len(data), cmd)
		}
		e.buf = append(e.buf, cmd, byte(len(data)))
		e.buf = append(e.buf, data...)
	case wire.ShapeLenString16:
		if len(data) > 0xFFFF {
			return fmt.Errorf("risp: data of length %d does not fit command %d's 2-byte length prefix", len(data), cmd)
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(len(data)))
		e.buf = append(e.buf, cmd)
		e.buf = append(e.buf, b[:]...)
		e.buf = append(e.buf, data...)
	case wire.ShapeLenString32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(len(data)))
		e.buf = append(e.buf, cmd)
		e.buf = append(e.buf, b[:]...)
		e.buf = append(e.buf, data...)
	default:
		return fmt.Errorf("risp: command %d is not a string/bytes shape", cmd)
	}
	return nil
}

// Record appends inner as a nested sub-record under cmd, using the 1/2/4
// byte length prefix implied by cmd's range (cmd must be a string/bytes
// shape, 160-255) and rejecting inner data that doesn't fit it.
func (e *Encoder) Record(cmd Command, inner *Encoder) error {
	switch wire.CommandShape(wire.Command(cmd)) {
	case wire.ShapeLenString8, wire.ShapeLenString16, wire.ShapeLenString32:
		return e.Str(cmd, inner.Bytes())
	default:
		return fmt.Errorf("risp: command %d cannot carry a nested record", cmd)
	}
}
