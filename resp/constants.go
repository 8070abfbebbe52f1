package resp

// Kind is the one-byte type tag that starts every RESP frame.
type Kind byte

// RESP kinds, by wire tag.
const (
	KindArray        Kind = '*'
	KindBulkString   Kind = '$'
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindBulkString:
		return "bulk string"
	case KindSimpleString:
		return "simple string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// Protocol delimiters
const (
	// CRLF terminates every header and line in RESP
	CRLF = "\r\n"
)

// Well-known simple string replies
const (
	StatusOK   = "OK"
	StatusPong = "PONG"
)
