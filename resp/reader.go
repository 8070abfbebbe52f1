package resp

import (
	"io"
	"math"
)

// incomplete is the position reported when the buffer ends before the
// frame does. Nothing is consumed and nothing is remembered: the next call
// scans the frame again from its first byte.
const incomplete = -1

// Decode decodes the first value in buf.
//
// It returns the value and the number of bytes it occupies:
//   - n > 0: one complete value, remove n bytes from the front of buf
//   - n == 0 and err == nil: buf holds a valid but incomplete prefix
//   - err != nil: protocol violation (*ParseError), the stream is unusable
//
// Decode never reads past the end of the first frame and never modifies buf.
func Decode(buf []byte) (v Value, n int, err error) {
	v, pos, err := decodeAt(buf, 0)
	if err != nil || pos == incomplete {
		return Value{}, 0, err
	}
	return v, pos, nil
}

// decodeAt decodes one value starting at idx and returns the position just
// after it.
func decodeAt(buf []byte, idx int) (Value, int, error) {
	if idx >= len(buf) {
		return Value{}, incomplete, nil
	}

	switch Kind(buf[idx]) {
	case KindBulkString:
		return decodeBulkString(buf, idx+1)
	case KindArray:
		return decodeArray(buf, idx+1)
	case KindInteger:
		return decodeInteger(buf, idx+1)
	case KindSimpleString:
		return decodeLine(buf, idx+1, KindSimpleString)
	case KindError:
		return decodeLine(buf, idx+1, KindError)
	default:
		return Value{}, 0, newParseError(idx, "unexpected type byte 0x%02x", buf[idx])
	}
}

func decodeBulkString(buf []byte, idx int) (Value, int, error) {
	size, pos, err := scanLength(buf, idx)
	if err != nil || pos == incomplete {
		return Value{}, pos, err
	}

	if size > uint64(math.MaxInt-len(CRLF)) {
		return Value{}, 0, newParseError(idx, "bulk string length %d too large", size)
	}
	end := pos + int(size)
	if end < pos || len(buf)-pos < int(size)+len(CRLF) {
		return Value{}, incomplete, nil
	}

	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Value{}, 0, newParseError(end, "bulk string not terminated by CRLF")
	}

	data := make([]byte, size)
	copy(data, buf[pos:end])
	return NewBulkString(data), end + len(CRLF), nil
}

func decodeArray(buf []byte, idx int) (Value, int, error) {
	size, pos, err := scanLength(buf, idx)
	if err != nil || pos == incomplete {
		return Value{}, pos, err
	}

	// Every element takes at least 3 bytes ("+\r\n"): the count announced
	// by the peer must not size the allocation beyond what is buffered.
	elems := make([]Value, 0, min(size, uint64(len(buf)-pos)/3))
	for range size {
		var elem Value
		elem, pos, err = decodeAt(buf, pos)
		if err != nil || pos == incomplete {
			return Value{}, pos, err
		}
		elems = append(elems, elem)
	}
	return NewArray(elems...), pos, nil
}

func decodeInteger(buf []byte, idx int) (Value, int, error) {
	n, pos, err := scanLength(buf, idx)
	if err != nil || pos == incomplete {
		return Value{}, pos, err
	}
	return NewInteger(n), pos, nil
}

func decodeLine(buf []byte, idx int, kind Kind) (Value, int, error) {
	line, pos := scanLine(buf, idx)
	if pos == incomplete {
		return Value{}, incomplete, nil
	}
	return Value{Kind: kind, Text: lossyString(line)}, pos, nil
}

// scanLength scans a run of decimal digits terminated by CRLF, starting at
// idx. It returns the number and the position after the terminator.
//
// Any byte other than a digit, a CR directly after the digits, or an LF
// directly after that CR is a protocol violation. So is an empty digit run
// and a number that overflows uint64.
func scanLength(buf []byte, idx int) (uint64, int, error) {
	var n uint64
	atEnd := false

	for pos := idx; pos < len(buf); pos++ {
		c := buf[pos]
		switch {
		case atEnd && c == '\n':
			if pos-1 == idx {
				return 0, 0, newParseError(idx, "empty length")
			}
			return n, pos + 1, nil
		case !atEnd && c == '\r':
			atEnd = true
		case !atEnd && c >= '0' && c <= '9':
			d := uint64(c - '0')
			if n > (math.MaxUint64-d)/10 {
				return 0, 0, newParseError(pos, "length overflows uint64")
			}
			n = n*10 + d
		default:
			return 0, 0, newParseError(pos, "unexpected byte in length: 0x%02x", c)
		}
	}
	return 0, incomplete, nil
}

// scanLine scans arbitrary bytes up to the first CRLF, starting at idx.
// It returns the line without the terminator and the position after it.
func scanLine(buf []byte, idx int) ([]byte, int) {
	for pos := idx + 1; pos < len(buf); pos++ {
		if buf[pos] == '\n' && buf[pos-1] == '\r' {
			return buf[idx : pos-1], pos + 1
		}
	}
	return nil, incomplete
}

// Decoder owns the input buffer of one stream and decodes values from it.
//
// The transport appends bytes with Write or Fill; Next decodes the first
// complete value and drops its bytes. A Decoder is not safe for concurrent
// use.
type Decoder struct {
	buf []byte
	r   int   // start of unconsumed bytes
	err error // sticky protocol error
}

// NewDecoder creates a decoder with an initial buffer capacity of size bytes.
func NewDecoder(size int) *Decoder {
	return &Decoder{buf: make([]byte, 0, size)}
}

// Write appends p to the input buffer. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.compact()
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Fill performs a single read from r into the input buffer, growing it when
// it is full. It returns the number of bytes read.
func (d *Decoder) Fill(r io.Reader) (int, error) {
	d.compact()
	if len(d.buf) == cap(d.buf) {
		d.buf = append(d.buf, make([]byte, max(cap(d.buf), 512))...)[:len(d.buf)]
	}

	n, err := r.Read(d.buf[len(d.buf):cap(d.buf)])
	d.buf = d.buf[:len(d.buf)+n]
	return n, err
}

// Next decodes the first buffered value.
//
// ok is false when the buffered bytes do not hold a complete value yet: call
// Fill or Write and try again. After a protocol error the decoder keeps
// returning that error.
func (d *Decoder) Next() (v Value, ok bool, err error) {
	if d.err != nil {
		return Value{}, false, d.err
	}

	v, n, err := Decode(d.buf[d.r:])
	if err != nil {
		if pe, isParse := err.(*ParseError); isParse {
			pe.Offset += d.r
		}
		d.err = err
		return Value{}, false, err
	}
	if n == 0 {
		return Value{}, false, nil
	}

	d.r += n
	if d.r == len(d.buf) {
		d.buf = d.buf[:0]
		d.r = 0
	}
	return v, true, nil
}

// Buffered returns the number of bytes not consumed yet.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.r
}

// Reset drops all buffered bytes and clears a protocol error.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.r = 0
	d.err = nil
}

// compact moves unconsumed bytes to the front of the buffer.
func (d *Decoder) compact() {
	if d.r == 0 {
		return
	}
	n := copy(d.buf, d.buf[d.r:])
	d.buf = d.buf[:n]
	d.r = 0
}
