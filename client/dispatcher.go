package client

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"

	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/reply"
	"github.com/stashdb/go-stash/risp"
)

// readGrowth is the minimum headroom added to the read buffer each time a
// decode attempt reports truncation (spec.md §4.4 step 5: "enlarges the
// buffer by at least 1 KiB of headroom").
const readGrowth = 1024

// errConnLost marks a transport-level failure (short write error, EOF
// before a full decode). It is never returned to callers of Session's
// exported methods: sendRequest converts it into a synthesized reply with
// ResultCode = NOT_CONNECTED, per §7's "transport errors surface as
// NOT_CONNECTED" policy. A malformed byte stream is a protocol error and
// is returned as a plain error instead.
var errConnLost = errors.New("client: connection lost")

// sendRequest builds a REQUEST envelope around cmd{payload}, writes it to
// the head connection, and blocks until a full reply decodes (spec.md
// §4.4). Grounded on proxy/mysql/conn.go and proxy/postgres/conn.go's
// read/write-to-net.Conn loop, generalized from their fixed packet headers
// to RISP's seven variable-width shapes.
func (s *Session) sendRequest(cmd wire.Command, payload *risp.Encoder) (*reply.Reply, error) {
	if len(s.servers) == 0 || !s.servers[0].active() {
		return s.transportFailure(), nil
	}
	head := s.servers[0]

	reqID := s.nextRequestID
	s.advanceRequestID()

	req := risp.NewEncoder()
	if err := req.Int(byte(wire.CmdRequestID), int64(reqID)); err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if err := req.Str(byte(cmd), payload.Bytes()); err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	top := risp.NewEncoder()
	if err := top.Record(byte(wire.CmdRequest), req); err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}

	if err := writeAll(head.conn, top.Bytes()); err != nil {
		s.failConnection(head)
		return s.transportFailure(), nil
	}

	r, err := s.readReply(head)
	if err != nil {
		if errors.Is(err, errConnLost) {
			s.failConnection(head)
			return s.transportFailure(), nil
		}
		return nil, err
	}
	r.Operation = cmd
	return r, nil
}

// writeAll writes data to conn in full, advancing past short writes and
// treating any non-positive send as connection loss.
func writeAll(conn net.Conn, data []byte) error {
	offset := 0
	for offset < len(data) {
		n, err := conn.Write(data[offset:])
		if n > 0 {
			offset += n
		}
		if err != nil {
			return fmt.Errorf("client: write: %w (%v)", errConnLost, err)
		}
		if n <= 0 {
			return fmt.Errorf("client: write: %w (non-positive send)", errConnLost)
		}
	}
	return nil
}

// readReply accumulates bytes from head's connection into a growable
// buffer, attempting a full structural decode after each chunk. A
// truncated record (the probe table consumes fewer bytes than it was
// given) is not an error: more data is read and the whole buffer is
// reparsed from the start, mirroring send_request's retry loop in
// libstash.c.
func (s *Session) readReply(head *serverConn) (*reply.Reply, error) {
	buf := head.readBuf
	for {
		if len(buf) > 0 {
			probe := risp.NewTable()
			n, err := probe.Process(buf)
			if err != nil {
				head.readBuf = buf[:0]
				return nil, fmt.Errorf("client: decode: %w", err)
			}
			if n == len(buf) {
				r := s.pool.Get()
				if err := reply.Decode(buf, r); err != nil {
					s.pool.Put(r)
					head.readBuf = buf[:0]
					return nil, fmt.Errorf("client: decode: %w", err)
				}
				head.readBuf = buf[:0]
				return r, nil
			}
		}

		if cap(buf)-len(buf) < readGrowth {
			grown := make([]byte, len(buf), len(buf)+readGrowth)
			copy(grown, buf)
			buf = grown
		}

		n, err := head.conn.Read(buf[len(buf):cap(buf)])
		if n > 0 {
			buf = buf[:len(buf)+n]
		}
		if err != nil {
			head.readBuf = buf
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("client: read: %w (EOF)", errConnLost)
			}
			return nil, fmt.Errorf("client: read: %w (%v)", errConnLost, err)
		}
		if n <= 0 {
			head.readBuf = buf
			return nil, fmt.Errorf("client: read: %w (non-positive recv)", errConnLost)
		}
	}
}

// failConnection closes c and, if it is presently the head of the server
// list, rotates it to the tail (spec.md §4.4 step 4, §4.5).
func (s *Session) failConnection(c *serverConn) {
	c.close()
	if len(s.servers) > 1 && s.servers[0] == c {
		s.servers = append(s.servers[1:], c)
	}
}

// transportFailure returns a pooled Reply synthesized with
// ResultCode = NOT_CONNECTED, the value sendRequest hands back in place of
// a Go error for any transport failure.
func (s *Session) transportFailure() *reply.Reply {
	r := s.pool.Get()
	r.ResultCode = wire.ResultNotConnected
	return r
}

// advanceRequestID increments next_request_id, wrapping to 1 on overflow
// past int32 (spec.md §4.4 step 3).
func (s *Session) advanceRequestID() {
	if s.nextRequestID == math.MaxInt32 {
		s.nextRequestID = 1
		return
	}
	s.nextRequestID++
}
