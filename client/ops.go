package client

import (
	"fmt"

	"github.com/stashdb/go-stash/attr"
	"github.com/stashdb/go-stash/internal/wire"
	"github.com/stashdb/go-stash/reply"
	"github.com/stashdb/go-stash/risp"
)

// doSimple issues cmd{payload} and returns just its result code, the shape
// spec.md §7 calls "non-query operations return a result code".
func (s *Session) doSimple(cmd wire.Command, payload *risp.Encoder) (wire.Result, error) {
	r, err := s.sendRequest(cmd, payload)
	if err != nil {
		return 0, err
	}
	code := r.ResultCode
	s.pool.Put(r)
	return code, nil
}

// resolveID issues a GETID request and extracts the resolved id using
// extract. The four id lookups in libstash.c
// (stash_get_namespace_id/stash_get_table_id/stash_get_key_id/
// stash_get_user_id) are near-identical bodies differing only in which
// name/parent-id fields they populate and which reply scalar they read
// back; this factors that into one helper (spec.md §9 DESIGN NOTES
// "GETID generic id lookup").
func (s *Session) resolveID(build func(*risp.Encoder) error, extract func(*reply.Reply) int32) (int32, wire.Result, error) {
	payload := risp.NewEncoder()
	if err := build(payload); err != nil {
		return 0, 0, err
	}
	r, err := s.sendRequest(wire.CmdGetID, payload)
	if err != nil {
		return 0, 0, err
	}
	defer s.pool.Put(r)
	if r.ResultCode != wire.ResultOK {
		return 0, r.ResultCode, nil
	}
	return extract(r), wire.ResultOK, nil
}

// NamespaceID resolves a namespace name to its server-assigned id.
func (s *Session) NamespaceID(name string) (int32, wire.Result, error) {
	return s.resolveID(
		func(enc *risp.Encoder) error { return enc.Str(byte(wire.CmdNamespace), []byte(name)) },
		func(r *reply.Reply) int32 { return r.NSID },
	)
}

// TableID resolves a table name within namespace nsID to its id.
func (s *Session) TableID(nsID int32, name string) (int32, wire.Result, error) {
	if nsID <= 0 {
		return 0, 0, fmt.Errorf("%w: namespace id must be positive", ErrConfig)
	}
	return s.resolveID(
		func(enc *risp.Encoder) error {
			if err := enc.Int(byte(wire.CmdNamespaceID), int64(nsID)); err != nil {
				return err
			}
			return enc.Str(byte(wire.CmdTable), []byte(name))
		},
		func(r *reply.Reply) int32 { return r.TableID },
	)
}

// KeyID resolves an attribute key name within tableID to its id.
func (s *Session) KeyID(tableID int32, name string) (int32, wire.Result, error) {
	if tableID <= 0 {
		return 0, 0, fmt.Errorf("%w: table id must be positive", ErrConfig)
	}
	return s.resolveID(
		func(enc *risp.Encoder) error {
			if err := enc.Int(byte(wire.CmdTableID), int64(tableID)); err != nil {
				return err
			}
			return enc.Str(byte(wire.CmdKey), []byte(name))
		},
		func(r *reply.Reply) int32 { return r.KeyID },
	)
}

// UserByName resolves a username to its id.
func (s *Session) UserByName(username string) (int32, wire.Result, error) {
	return s.resolveID(
		func(enc *risp.Encoder) error { return enc.Str(byte(wire.CmdUsername), []byte(username)) },
		func(r *reply.Reply) int32 { return r.UserID },
	)
}

// CreateUser creates a new account with the given username and password.
func (s *Session) CreateUser(username, password string) (wire.Result, error) {
	if username == "" || password == "" {
		return 0, fmt.Errorf("%w: username and password are required", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Str(byte(wire.CmdUsername), []byte(username)); err != nil {
		return 0, err
	}
	if err := payload.Str(byte(wire.CmdPassword), []byte(password)); err != nil {
		return 0, err
	}
	return s.doSimple(wire.CmdCreateUser, payload)
}

// SetPassword changes the password of userID.
func (s *Session) SetPassword(userID int32, password string) (wire.Result, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user id must be positive", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdUserID), int64(userID)); err != nil {
		return 0, err
	}
	if err := payload.Str(byte(wire.CmdPassword), []byte(password)); err != nil {
		return 0, err
	}
	return s.doSimple(wire.CmdSetPassword, payload)
}

// CreateTable creates a table named name under namespace nsID. opts is a
// bitwise OR of wire.TableOptUnique/TableOptStrict/TableOptOverwrite.
func (s *Session) CreateTable(nsID int32, name string, opts int) (wire.Result, error) {
	if nsID <= 0 {
		return 0, fmt.Errorf("%w: namespace id must be positive", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdNamespaceID), int64(nsID)); err != nil {
		return 0, err
	}
	if err := payload.Str(byte(wire.CmdTable), []byte(name)); err != nil {
		return 0, err
	}
	if opts&wire.TableOptUnique != 0 {
		if err := payload.Marker(byte(wire.CmdUnique)); err != nil {
			return 0, err
		}
	}
	if opts&wire.TableOptStrict != 0 {
		if err := payload.Marker(byte(wire.CmdStrict)); err != nil {
			return 0, err
		}
	}
	if opts&wire.TableOptOverwrite != 0 {
		if err := payload.Marker(byte(wire.CmdOverwrite)); err != nil {
			return 0, err
		}
	}
	return s.doSimple(wire.CmdCreateTable, payload)
}

var rightMarkers = []struct {
	bit int
	cmd wire.Command
}{
	{wire.RightAddUser, wire.CmdRightAddUser},
	{wire.RightCreate, wire.CmdRightCreate},
	{wire.RightDrop, wire.CmdRightDrop},
	{wire.RightSet, wire.CmdRightSet},
	{wire.RightUpdate, wire.CmdRightUpdate},
	{wire.RightDelete, wire.CmdRightDelete},
	{wire.RightQuery, wire.CmdRightQuery},
	{wire.RightLock, wire.CmdRightLock},
}

// Grant gives userID the bitwise-OR'd rights (wire.Right*) on tableID.
func (s *Session) Grant(userID, tableID int32, rights int) (wire.Result, error) {
	if userID <= 0 || tableID <= 0 {
		return 0, fmt.Errorf("%w: user id and table id must be positive", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdUserID), int64(userID)); err != nil {
		return 0, err
	}
	if err := payload.Int(byte(wire.CmdTableID), int64(tableID)); err != nil {
		return 0, err
	}
	for _, m := range rightMarkers {
		if rights&m.bit != 0 {
			if err := payload.Marker(byte(m.cmd)); err != nil {
				return 0, err
			}
		}
	}
	return s.doSimple(wire.CmdGrant, payload)
}

// CreateRow inserts a new row into tableID within namespace nsID, named
// either by nameID (an existing NAME_ID, when nameID > 0) or by a literal
// name string (when nameID is 0) — libstash.c:1420 (stash_create_row)
// requires exactly one of the two. The server-assigned row id is read off
// the reply's single row via reply.NextRow/RowID.
func (s *Session) CreateRow(nsID, tableID, nameID int32, name string, attrs attr.List) (*reply.Reply, error) {
	if nsID <= 0 || tableID <= 0 {
		return nil, fmt.Errorf("%w: namespace id and table id must be positive", ErrConfig)
	}
	if nameID <= 0 && name == "" {
		return nil, fmt.Errorf("%w: row name or name id is required", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdNamespaceID), int64(nsID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdTableID), int64(tableID)); err != nil {
		return nil, err
	}
	if nameID > 0 {
		if err := payload.Int(byte(wire.CmdNameID), int64(nameID)); err != nil {
			return nil, err
		}
	} else {
		if err := payload.Str(byte(wire.CmdName), []byte(name)); err != nil {
			return nil, err
		}
	}
	if err := attrs.Encode(payload); err != nil {
		return nil, err
	}
	return s.sendSet(payload)
}

// Set updates rowID in tableID within namespace nsID, merging the given
// attributes (libstash.c:1497, stash_set).
func (s *Session) Set(nsID, tableID, rowID int32, attrs attr.List) (*reply.Reply, error) {
	if nsID <= 0 || tableID <= 0 || rowID <= 0 {
		return nil, fmt.Errorf("%w: namespace id, table id, and row id must be positive", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdNamespaceID), int64(nsID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdTableID), int64(tableID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdRowID), int64(rowID)); err != nil {
		return nil, err
	}
	if err := attrs.Encode(payload); err != nil {
		return nil, err
	}
	return s.sendSet(payload)
}

// Expire sets keyID's expiry on rowID to the given number of seconds, or
// the whole row's expiry when keyID is 0 (libstash.c:2291, stash_expire).
// SET_EXPIRY is the operation envelope here, the same role CmdSet plays for
// Set/CreateRow, carrying {NAMESPACE_ID, TABLE_ID, ROW_ID, KEY_ID, EXPIRES}.
func (s *Session) Expire(nsID, tableID, rowID, keyID, seconds int32) (*reply.Reply, error) {
	if nsID <= 0 || tableID <= 0 || rowID <= 0 || keyID < 0 {
		return nil, fmt.Errorf("%w: namespace id, table id, and row id must be positive and key id non-negative", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdNamespaceID), int64(nsID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdTableID), int64(tableID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdRowID), int64(rowID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdKeyID), int64(keyID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdExpires), int64(seconds)); err != nil {
		return nil, err
	}
	return s.sendRequest(wire.CmdSetExpiry, payload)
}

// Delete removes keyID from rowID in tableID within namespace nsID, or the
// whole row when keyID is 0 (libstash.c:2317, stash_delete). DELETE is the
// operation envelope here, carrying {NAMESPACE_ID, TABLE_ID, ROW_ID, KEY_ID}.
func (s *Session) Delete(nsID, tableID, rowID, keyID int32) (*reply.Reply, error) {
	if nsID <= 0 || tableID <= 0 || rowID <= 0 || keyID < 0 {
		return nil, fmt.Errorf("%w: namespace id, table id, and row id must be positive and key id non-negative", ErrConfig)
	}
	payload := risp.NewEncoder()
	if err := payload.Int(byte(wire.CmdNamespaceID), int64(nsID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdTableID), int64(tableID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdRowID), int64(rowID)); err != nil {
		return nil, err
	}
	if err := payload.Int(byte(wire.CmdKeyID), int64(keyID)); err != nil {
		return nil, err
	}
	return s.sendRequest(wire.CmdDelete, payload)
}

func (s *Session) sendSet(payload *risp.Encoder) (*reply.Reply, error) {
	return s.sendRequest(wire.CmdSet, payload)
}
