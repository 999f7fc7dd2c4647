// Package client is the public surface of go-stash: a synchronous session
// to a stash server exposing login, the administrative surface (users,
// namespaces, tables, keys, grants), row mutation, and queries (spec.md
// §4.4, §4.5).
//
// A Session is not safe for concurrent use: exactly one request is ever
// in flight, and every call blocks until its reply is fully decoded. Open
// multiple Sessions for concurrent work.
package client

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/reply"
	"github.com/stashdb/go-stash/risp"
)

// ErrConfig marks a caller configuration mistake detected before any I/O
// (malformed connstr, missing authority, non-positive id arguments).
var ErrConfig = fmt.Errorf("client: invalid configuration")

// LoginError reports a non-OK result from the server's LOGIN reply.
type LoginError struct{ Code wire.Result }

func (e *LoginError) Error() string {
	return fmt.Sprintf("client: login failed: %s", e.Code)
}

// Session holds authority (username/password), an ordered list of
// candidate servers (head is preferred), and the pooled scratch state
// reused across calls (spec.md §3 "Session").
type Session struct {
	id uuid.UUID

	username string
	password string

	servers []*serverConn

	pool reply.Pool

	nextRequestID int32
	userID        int32
}

// New returns a Session with no authority and no servers configured yet.
func New() *Session {
	return &Session{nextRequestID: 1, id: uuid.New()}
}

// ID returns a per-process-lifetime correlation id for this Session, useful
// for tying log lines from a CLI or test harness to one connection.
func (s *Session) ID() uuid.UUID { return s.id }

// UserID returns the server-assigned user id from the most recent
// successful Connect, or 0 before login.
func (s *Session) UserID() int32 { return s.userID }

// Authority sets the credentials used by Connect's LOGIN request.
func (s *Session) Authority(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrConfig)
	}
	s.username = username
	s.password = password
	return nil
}

// AddServer appends a candidate server. priority is accepted but list order
// is preserved exactly as calls are made (spec.md §4.5).
func (s *Session) AddServer(hostport string, priority int) error {
	host, port, err := parseHostPort(hostport)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	_ = priority
	s.servers = append(s.servers, newServerConn(host, port))
	return nil
}

// Connstr is a convenience that parses "user/pass@host[:port],host[:port]..."
// into one Authority call followed by one AddServer call per host.
func (s *Session) Connstr(dsn string) error {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return fmt.Errorf("%w: connstr %q missing '@'", ErrConfig, dsn)
	}
	authority, hosts := dsn[:at], dsn[at+1:]

	slash := strings.Index(authority, "/")
	if slash < 0 {
		return fmt.Errorf("%w: connstr %q missing '/' in authority", ErrConfig, dsn)
	}
	if err := s.Authority(authority[:slash], authority[slash+1:]); err != nil {
		return err
	}

	if hosts == "" {
		return fmt.Errorf("%w: connstr %q has no server list", ErrConfig, dsn)
	}
	for i, spec := range strings.Split(hosts, ",") {
		if err := s.AddServer(spec, i); err != nil {
			return err
		}
	}
	return nil
}

// Connect dials the head server if not already connected and logs in with
// the credentials set by Authority. On a non-OK login result the head
// connection is closed and rotated to the tail, and the result is reported
// as a *LoginError (spec.md §4.5).
func (s *Session) Connect() error {
	if s.username == "" {
		return fmt.Errorf("%w: call Authority (or Connstr) before Connect", ErrConfig)
	}
	if len(s.servers) == 0 {
		return fmt.Errorf("%w: no servers added", ErrConfig)
	}

	head := s.servers[0]
	if !head.active() {
		if err := head.dial(); err != nil {
			return err
		}
	}

	payload := risp.NewEncoder()
	if err := payload.Str(byte(wire.CmdUsername), []byte(s.username)); err != nil {
		return err
	}
	if err := payload.Str(byte(wire.CmdPassword), []byte(s.password)); err != nil {
		return err
	}

	r, err := s.sendRequest(wire.CmdLogin, payload)
	if err != nil {
		return err
	}
	defer s.pool.Put(r)

	if r.ResultCode != wire.ResultOK {
		s.failConnection(head)
		return &LoginError{Code: r.ResultCode}
	}
	s.userID = r.UserID
	return nil
}
