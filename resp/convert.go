package resp

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Extraction of application types from decoded values.
//
// Every extractor collapses an error value into *RemoteError first, so the
// type specific rules below never see KindError.

// Unmarshaler is implemented by application types that can be produced
// from a value. UnmarshalRESP is never called with an error value.
type Unmarshaler interface {
	UnmarshalRESP(v Value) error
}

// Unmarshal collapses error values and hands every other value to dst.
func Unmarshal(v Value, dst Unmarshaler) error {
	v, err := v.Result()
	if err != nil {
		return err
	}
	return dst.UnmarshalRESP(v)
}

// AsValue returns the value itself, or *RemoteError for an error value.
func AsValue(v Value) (Value, error) {
	return v.Result()
}

// AsString extracts text.
//
//   - bulk string: decoded as UTF-8, each ill-formed sequence replaced by U+FFFD
//   - integer: decimal text
//   - simple string: as is
//   - array: *ConversionError
func AsString(v Value) (string, error) {
	v, err := v.Result()
	if err != nil {
		return "", err
	}

	switch v.Kind {
	case KindBulkString:
		return lossyString(v.Bulk), nil
	case KindInteger:
		return strconv.FormatUint(v.Int, 10), nil
	case KindSimpleString:
		return v.Text, nil
	default:
		return "", newConversionError("cannot convert into a string", v)
	}
}

// AsCount extracts a non-negative integer. Only integer values convert.
func AsCount(v Value) (uint64, error) {
	v, err := v.Result()
	if err != nil {
		return 0, err
	}

	if v.Kind != KindInteger {
		return 0, newConversionError("cannot convert into a count", v)
	}
	return v.Int, nil
}

// AsOK accepts exactly the simple string "OK".
func AsOK(v Value) error {
	v, err := v.Result()
	if err != nil {
		return err
	}

	if v.Kind != KindSimpleString {
		return newConversionError("unexpected value", v)
	}
	if v.Text != StatusOK {
		return newConversionError("unexpected value within simple string", v)
	}
	return nil
}

// AsArray extracts the elements of an array value.
func AsArray(v Value) ([]Value, error) {
	v, err := v.Result()
	if err != nil {
		return nil, err
	}

	if v.Kind != KindArray {
		return nil, newConversionError("cannot convert into an array", v)
	}
	return v.Array, nil
}

// lossyString decodes b as UTF-8. Each maximal ill-formed subsequence is
// replaced with one U+FFFD: a truncated multibyte sequence counts once, any
// other invalid byte counts on its own.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 2*utf8.UTFMax)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidPrefixLen(b):]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}

// invalidPrefixLen returns the length of the ill-formed sequence at the
// start of b: the lead byte plus the continuation bytes that still fit a
// well-formed sequence. b must not start with a valid rune.
func invalidPrefixLen(b []byte) int {
	// Second byte range depends on the lead byte (Unicode table 3-7)
	lo, hi := byte(0x80), byte(0xBF)
	var need int
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		need, lo = 2, 0xA0
	case c == 0xED:
		need, hi = 2, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		need, lo = 3, 0x90
	case c == 0xF4:
		need, hi = 3, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}

	n := 1
	for n <= need && n < len(b) && b[n] >= lo && b[n] <= hi {
		n++
		lo, hi = 0x80, 0xBF
	}
	return n
}
