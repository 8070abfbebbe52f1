package resp

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Value is a single RESP value.
// It owns its data: decoded values never alias the input buffer.
//
// Only the field matching Kind is meaningful:
//   - KindArray: Array
//   - KindBulkString: Bulk
//   - KindSimpleString, KindError: Text
//   - KindInteger: Int
type Value struct {
	Kind  Kind
	Bulk  []byte
	Text  string
	Int   uint64
	Array []Value
}

// NewArray creates an array value. No elements gives an empty array.
func NewArray(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, Array: elems}
}

// NewBulkString creates a bulk string value. The slice is not copied.
func NewBulkString(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: KindBulkString, Bulk: b}
}

// NewSimpleString creates a status value. s must not contain CR or LF.
func NewSimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Text: s}
}

// NewError creates an error value. s must not contain CR or LF.
func NewError(s string) Value {
	return Value{Kind: KindError, Text: s}
}

// NewInteger creates an integer value.
func NewInteger(n uint64) Value {
	return Value{Kind: KindInteger, Int: n}
}

// IsError returns true if this is an error value
func (v Value) IsError() bool {
	return v.Kind == KindError
}

// Result collapses an error value into a *RemoteError and passes every
// other value through unchanged.
func (v Value) Result() (Value, error) {
	if v.Kind == KindError {
		return Value{}, &RemoteError{Message: v.Text}
	}
	return v, nil
}

// Equal reports whether v and o have the same kind and content, recursively.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	case KindBulkString:
		return bytes.Equal(v.Bulk, o.Bulk)
	case KindSimpleString, KindError:
		return v.Text == o.Text
	case KindInteger:
		return v.Int == o.Int
	default:
		return true
	}
}

// String returns a human readable representation of the value
func (v Value) String() string {
	switch v.Kind {
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindBulkString:
		return strconv.Quote(string(v.Bulk))
	case KindSimpleString, KindError:
		return v.Text
	case KindInteger:
		return strconv.FormatUint(v.Int, 10)
	default:
		return "(invalid)"
	}
}

// Valuer is implemented by types that can be turned into a Value.
type Valuer interface {
	RespValue() Value
}

// RespValue returns v itself, so values nest freely in Pack and ArrayOf.
func (v Value) RespValue() Value {
	return v
}

// Str is a string sent as a bulk string.
type Str string

func (s Str) RespValue() Value { return NewBulkString([]byte(s)) }

// Bytes is a byte slice sent as a bulk string.
type Bytes []byte

func (b Bytes) RespValue() Value { return NewBulkString(b) }

// Int is an unsigned integer sent as an integer.
type Int uint64

func (n Int) RespValue() Value { return NewInteger(uint64(n)) }

// Text converts any string or byte slice type into a bulk string.
// The bytes are copied raw, without escaping.
func Text[T ~string | ~[]byte](s T) Value {
	return NewBulkString([]byte(s))
}

// Count converts any unsigned integer type into an integer value.
func Count[T constraints.Unsigned](n T) Value {
	return NewInteger(uint64(n))
}

// ArrayOf maps items to their values, preserving order.
func ArrayOf[T Valuer](items []T) Value {
	elems := make([]Value, len(items))
	for i, item := range items {
		elems[i] = item.RespValue()
	}
	return NewArray(elems...)
}

// Pack builds an array from mixed items at the call site:
//
//	resp.Pack(resp.Str("queue:1"), resp.Int(5))
//
// Servers only accept commands made of bulk strings: use Command for those.
func Pack(items ...Valuer) Value {
	return ArrayOf(items)
}

// Command builds the usual command array: name and args as bulk strings.
func Command(name string, args ...string) Value {
	elems := make([]Value, 0, 1+len(args))
	elems = append(elems, Text(name))
	for _, arg := range args {
		elems = append(elems, Text(arg))
	}
	return NewArray(elems...)
}
