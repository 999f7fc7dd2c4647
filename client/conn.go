package client

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/stashdb/go-stash/internal/wire"
)

// state is a connection's lifecycle stage (spec.md §3 "Connection record").
type state int

const (
	stateIdle state = iota
	stateActive
	stateClosing
	stateShutdown
)

// serverConn is one candidate server in a Session's ordered list. Only the
// head of the list is ever used for I/O (spec.md §4.4: "Only the first
// connection in the list is ever used").
type serverConn struct {
	host string
	port int

	conn  net.Conn
	state state

	readBuf []byte
}

func newServerConn(host string, port int) *serverConn {
	return &serverConn{host: host, port: port, state: stateIdle}
}

func (c *serverConn) active() bool { return c.state == stateActive }

// dial opens a blocking TCP stream socket to the connection's host:port,
// preferring a literal dotted-quad/IPv6 address and falling back to name
// resolution — the two-step resolve-then-connect shape of sock_resolve /
// sock_connect in libstash.c, expressed as one net.Dial call since the Go
// resolver already tries the literal-address fast path internally.
func (c *serverConn) dial() error {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", addr, err)
	}
	c.conn = conn
	c.state = stateActive
	c.readBuf = c.readBuf[:0]
	return nil
}

func (c *serverConn) close() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = stateIdle
}

// parseHostPort splits a "host" or "host:port" spec, defaulting to
// wire.DefaultPort when no port is given.
func parseHostPort(spec string) (string, int, error) {
	if spec == "" {
		return "", 0, fmt.Errorf("client: empty server address")
	}
	if !strings.Contains(spec, ":") {
		return spec, wire.DefaultPort, nil
	}
	host, portStr, err := net.SplitHostPort(spec)
	if err != nil {
		return "", 0, fmt.Errorf("client: invalid server address %q: %w", spec, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("client: invalid port in %q", spec)
	}
	return host, port, nil
}
