// Package wire holds the RISP command-id table, error codes, and bit-mask
// option constants shared by every go-stash package. Keeping them in one
// internal package avoids import cycles between risp, value, cond, reply,
// and client while still giving each of those packages a single source of
// truth for the wire layout described in stash.h.
package wire

// Command is a single RISP command-id byte. Its high bits select the
// payload shape; see CommandShape.
type Command byte

// Markers and flags (0-63): no payload.
const (
	CmdNop   Command = 0
	CmdClear Command = 1
	CmdAuto  Command = 3

	CmdTrue          Command = 32
	CmdFalse         Command = 33
	CmdRightAddUser  Command = 34
	CmdRightCreate   Command = 35
	CmdRightDrop     Command = 36
	CmdRightSet      Command = 37
	CmdRightUpdate   Command = 38
	CmdRightDelete   Command = 39
	CmdRightQuery    Command = 40
	CmdRightLock     Command = 41
	CmdStrict        Command = 42
	CmdUnique        Command = 43
	CmdOverwrite     Command = 44
	CmdTransient     Command = 45
	CmdNull          Command = 46
	CmdSortAsc       Command = 47
	CmdSortDesc      Command = 48
)

// 2-byte integers (96-127).
const (
	CmdNamespaceID Command = 97
	CmdFailCode    Command = 98
)

// 4-byte integers (128-159).
const (
	CmdRequestID Command = 130
	CmdInteger   Command = 131
	CmdTableID   Command = 132
	CmdRowID     Command = 133
	CmdNameID    Command = 135
	CmdKeyID     Command = 136
	CmdUserID    Command = 137
	CmdCount     Command = 139
	CmdExpires   Command = 140
)

// Short strings, length <= 255 (160-191).
const (
	CmdUsername   Command = 160
	CmdPassword   Command = 161
	CmdNamespace  Command = 162
	CmdTable      Command = 163
	CmdName       Command = 164
	CmdKey        Command = 165
	CmdCondExists Command = 166
	CmdSetExpiry  Command = 167
	CmdDelete     Command = 168
)

// Long strings, length <= 65535 (192-223).
const (
	CmdCreateUser   Command = 192
	CmdSetPassword  Command = 194
	CmdGrant        Command = 195
	CmdLogin        Command = 202
	CmdFailed       Command = 204
	CmdGetID        Command = 205
	CmdCreateTable  Command = 206
	CmdCondName     Command = 222
	CmdCondEquals   Command = 223
)

// Nested records, length <= 2^32-1 (224-255).
const (
	CmdRequest   Command = 224
	CmdReply     Command = 225
	CmdQuery     Command = 226
	CmdSet       Command = 227
	CmdString    Command = 231
	CmdValue     Command = 235
	CmdAttribute Command = 236
	CmdCondition Command = 238
	CmdRow       Command = 239
	CmdCondAnd   Command = 240
	CmdCondOr    Command = 241
	CmdCondA     Command = 242
	CmdCondB     Command = 243
	CmdCondNot   Command = 244

	// CmdCondGT is a wire extension (see §9 of spec.md / DESIGN.md): the
	// original protocol defines STASH_CONDTYPE_GT but its C encoder only
	// ever emits COND_EQUALS for it, which is treated here as a bug rather
	// than behavior to preserve. 245 is unused in stash.h's command table.
	CmdCondGT Command = 245
)

// Shape describes how a command's payload is framed on the wire.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeUint8
	ShapeUint16
	ShapeUint32
	ShapeLenString8
	ShapeLenString16
	ShapeLenString32
)

// CommandShape returns the wire shape implied by a command id's range, per
// the table in spec.md §4.1.
func CommandShape(cmd Command) Shape {
	switch {
	case cmd <= 63:
		return ShapeNone
	case cmd <= 95:
		return ShapeUint8
	case cmd <= 127:
		return ShapeUint16
	case cmd <= 159:
		return ShapeUint32
	case cmd <= 191:
		return ShapeLenString8
	case cmd <= 223:
		return ShapeLenString16
	default:
		return ShapeLenString32
	}
}

// DefaultPort is the TCP port a stash server listens on by default.
const DefaultPort = 13600

// Result is a server-reported or client-synthesized outcome code.
type Result uint16

const (
	ResultOK                  Result = 0
	ResultUserExists          Result = 1
	ResultNotConnected        Result = 2
	ResultAuthFailed          Result = 3
	ResultInsufficientRights  Result = 4
	ResultUserNotExist        Result = 5
	ResultNSNotExist          Result = 6
	ResultTableExists         Result = 7
	ResultGenericFail         Result = 8
	ResultTableNotExist       Result = 9
	ResultNotUnique           Result = 10
	ResultNotStrict           Result = 11
	ResultRowExists           Result = 12
	ResultKeyNotExist         Result = 13
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultUserExists:
		return "USER_EXISTS"
	case ResultNotConnected:
		return "NOT_CONNECTED"
	case ResultAuthFailed:
		return "AUTH_FAILED"
	case ResultInsufficientRights:
		return "INSUFFICIENT_RIGHTS"
	case ResultUserNotExist:
		return "USER_NOT_EXIST"
	case ResultNSNotExist:
		return "NS_NOT_EXIST"
	case ResultTableExists:
		return "TABLE_EXISTS"
	case ResultGenericFail:
		return "GENERIC_FAIL"
	case ResultTableNotExist:
		return "TABLE_NOT_EXIST"
	case ResultNotUnique:
		return "NOT_UNIQUE"
	case ResultNotStrict:
		return "NOT_STRICT"
	case ResultRowExists:
		return "ROW_EXISTS"
	case ResultKeyNotExist:
		return "KEY_NOT_EXIST"
	default:
		return "UNKNOWN"
	}
}

// Table-create option bits.
const (
	TableOptUnique    = 1
	TableOptStrict    = 2
	TableOptOverwrite = 4
)

// Grant right bits.
const (
	RightAddUser = 1
	RightCreate  = 2
	RightDrop    = 4
	RightSet     = 8
	RightUpdate  = 16
	RightDelete  = 32
	RightQuery   = 64
	RightLock    = 128
)
