package client

import (
	"testing"

	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/risp"
)

func TestCreateUserRejectsEmptyCredentials(t *testing.T) {
	t.Parallel()

	s := New()
	if _, err := s.CreateUser("", "p"); err == nil {
		t.Fatal("expected error for empty username")
	}
	if _, err := s.CreateUser("u", ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestGrantRejectsNonPositiveIDs(t *testing.T) {
	t.Parallel()

	s := New()
	if _, err := s.Grant(0, 1, wire.RightQuery); err == nil {
		t.Fatal("expected error for non-positive user id")
	}
	if _, err := s.Grant(1, 0, wire.RightQuery); err == nil {
		t.Fatal("expected error for non-positive table id")
	}
}

// opFields lists the commands decodeRequest recognizes as the operation's
// payload fields, across every operation under test.
var opFields = []wire.Command{
	wire.CmdNamespaceID, wire.CmdTableID, wire.CmdRowID, wire.CmdKeyID, wire.CmdExpires,
}

// decodeRequest parses a REQUEST{REQUEST_ID, op{fields...}} frame captured
// off the wire and returns the operation command id plus a Table holding
// its payload fields, so a test can assert exactly what an operation sent
// without a live server.
func decodeRequest(t *testing.T, frame []byte) (wire.Command, *risp.Table) {
	t.Helper()

	var opCmd wire.Command
	var opPayload []byte

	top := risp.NewTable()
	top.Handle(byte(wire.CmdRequest), func(data []byte) error {
		inner := risp.NewTable()
		inner.Handle(byte(wire.CmdRequestID), func([]byte) error { return nil })
		for _, op := range []wire.Command{wire.CmdSetExpiry, wire.CmdDelete, wire.CmdSet, wire.CmdLogin, wire.CmdGetID} {
			cmd := op
			inner.Handle(byte(cmd), func(d []byte) error {
				opCmd = cmd
				opPayload = d
				return nil
			})
		}
		_, err := inner.Process(data)
		return err
	})
	if _, err := top.Process(frame); err != nil {
		t.Fatalf("decode request frame: %v", err)
	}

	payload := risp.NewTable()
	for _, f := range opFields {
		field := f
		payload.Handle(byte(field), func([]byte) error { return nil })
	}
	if _, err := payload.Process(opPayload); err != nil {
		t.Fatalf("decode operation payload: %v", err)
	}
	return opCmd, payload
}

func TestExpireSendsSetExpiryEnvelopeWithAllFields(t *testing.T) {
	t.Parallel()

	s, server := newPipeSession(t)
	done := make(chan error, 1)
	go func() {
		_, err := s.Expire(1, 2, 3, 4, 3600)
		done <- err
	}()

	frame := make([]byte, 4096)
	n, err := server.Read(frame)
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	writeReplyFrame(t, server, 1, 0)
	if err := <-done; err != nil {
		t.Fatalf("expire: %v", err)
	}

	opCmd, payload := decodeRequest(t, frame[:n])
	if opCmd != wire.CmdSetExpiry {
		t.Fatalf("operation command = %d, want CmdSetExpiry (%d)", opCmd, wire.CmdSetExpiry)
	}
	if !payload.IsSet(byte(wire.CmdNamespaceID)) || payload.Int(byte(wire.CmdNamespaceID)) != 1 {
		t.Error("missing or wrong NAMESPACE_ID")
	}
	if !payload.IsSet(byte(wire.CmdTableID)) || payload.Int(byte(wire.CmdTableID)) != 2 {
		t.Error("missing or wrong TABLE_ID")
	}
	if !payload.IsSet(byte(wire.CmdRowID)) || payload.Int(byte(wire.CmdRowID)) != 3 {
		t.Error("missing or wrong ROW_ID")
	}
	if !payload.IsSet(byte(wire.CmdKeyID)) || payload.Int(byte(wire.CmdKeyID)) != 4 {
		t.Error("missing or wrong KEY_ID")
	}
	if !payload.IsSet(byte(wire.CmdExpires)) || payload.Int(byte(wire.CmdExpires)) != 3600 {
		t.Error("missing or wrong EXPIRES")
	}
}

func TestDeleteSendsDeleteEnvelopeWithAllFields(t *testing.T) {
	t.Parallel()

	s, server := newPipeSession(t)
	done := make(chan error, 1)
	go func() {
		_, err := s.Delete(1, 2, 3, 4)
		done <- err
	}()

	frame := make([]byte, 4096)
	n, err := server.Read(frame)
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	writeReplyFrame(t, server, 1, 0)
	if err := <-done; err != nil {
		t.Fatalf("delete: %v", err)
	}

	opCmd, payload := decodeRequest(t, frame[:n])
	if opCmd != wire.CmdDelete {
		t.Fatalf("operation command = %d, want CmdDelete (%d)", opCmd, wire.CmdDelete)
	}
	if !payload.IsSet(byte(wire.CmdNamespaceID)) || payload.Int(byte(wire.CmdNamespaceID)) != 1 {
		t.Error("missing or wrong NAMESPACE_ID")
	}
	if !payload.IsSet(byte(wire.CmdTableID)) || payload.Int(byte(wire.CmdTableID)) != 2 {
		t.Error("missing or wrong TABLE_ID")
	}
	if !payload.IsSet(byte(wire.CmdRowID)) || payload.Int(byte(wire.CmdRowID)) != 3 {
		t.Error("missing or wrong ROW_ID")
	}
	if !payload.IsSet(byte(wire.CmdKeyID)) || payload.Int(byte(wire.CmdKeyID)) != 4 {
		t.Error("missing or wrong KEY_ID")
	}
}

func TestNamespaceIDResolvesOverThePipe(t *testing.T) {
	t.Parallel()

	s, server := newPipeSession(t)

	done := make(chan struct {
		id   int32
		code wire.Result
		err  error
	}, 1)
	go func() {
		id, code, err := s.NamespaceID("widgets")
		done <- struct {
			id   int32
			code wire.Result
			err  error
		}{id, code, err}
	}()

	drainRequest(t, server)

	body := risp.NewEncoder()
	if err := body.Int(byte(wire.CmdNamespaceID), int64(7)); err != nil {
		t.Fatalf("encode namespace id: %v", err)
	}
	top := risp.NewEncoder()
	if err := top.Record(byte(wire.CmdReply), body); err != nil {
		t.Fatalf("encode reply envelope: %v", err)
	}
	if _, err := server.Write(top.Bytes()); err != nil {
		t.Fatalf("write reply: %v", err)
	}

	got := <-done
	if got.err != nil {
		t.Fatalf("namespace id: %v", got.err)
	}
	if got.code != wire.ResultOK {
		t.Fatalf("result code = %v, want OK", got.code)
	}
	if got.id != 7 {
		t.Errorf("namespace id = %d, want 7", got.id)
	}
}
