package resp

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pior/redis/internal"
)

// Typical command is well under 256 bytes
var bufferPool = internal.NewBufferPool(256)

// EncodedLen returns the exact number of bytes AppendValue writes for v.
func EncodedLen(v Value) int {
	switch v.Kind {
	case KindArray:
		n := headerLen(uint64(len(v.Array)))
		for _, elem := range v.Array {
			n += EncodedLen(elem)
		}
		return n
	case KindBulkString:
		return headerLen(uint64(len(v.Bulk))) + len(v.Bulk) + len(CRLF)
	case KindSimpleString, KindError:
		return 1 + len(v.Text) + len(CRLF)
	case KindInteger:
		return headerLen(v.Int)
	default:
		return 0
	}
}

func headerLen(n uint64) int {
	digits := 1
	for n >= 10 {
		n /= 10
		digits++
	}
	return 1 + digits + len(CRLF)
}

// AppendValue appends the wire form of v to dst and returns the extended
// slice. Capacity for the whole frame is reserved up front.
//
// Text of simple strings and errors is written as is: the caller must make
// sure it holds no CR or LF. Values of an unknown kind append nothing.
func AppendValue(dst []byte, v Value) []byte {
	if need := EncodedLen(v); cap(dst)-len(dst) < need {
		grown := make([]byte, len(dst), len(dst)+need)
		copy(grown, dst)
		dst = grown
	}
	return appendValue(dst, v)
}

func appendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindArray:
		dst = appendHeader(dst, KindArray, uint64(len(v.Array)))
		for _, elem := range v.Array {
			dst = appendValue(dst, elem)
		}
	case KindBulkString:
		dst = appendHeader(dst, KindBulkString, uint64(len(v.Bulk)))
		dst = append(dst, v.Bulk...)
		dst = append(dst, CRLF...)
	case KindSimpleString, KindError:
		dst = append(dst, byte(v.Kind))
		dst = append(dst, v.Text...)
		dst = append(dst, CRLF...)
	case KindInteger:
		dst = appendHeader(dst, KindInteger, v.Int)
	}
	return dst
}

func appendHeader(dst []byte, kind Kind, n uint64) []byte {
	dst = append(dst, byte(kind))
	dst = strconv.AppendUint(dst, n, 10)
	return append(dst, CRLF...)
}

// Encoder accumulates encoded values in an owned output buffer until the
// transport flushes it.
//
// The zero value is ready to use.
type Encoder struct {
	buf []byte
}

// Encode appends the wire form of v to the output buffer.
func (e *Encoder) Encode(v Value) {
	e.buf = AppendValue(e.buf, v)
}

// Bytes returns the pending output. It is valid until the next Encode or Reset.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of pending bytes.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset drops the pending output and keeps the allocated capacity.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// WriteTo flushes the pending output to w. The output is dropped after the
// write, even a failed one: the stream must then be closed.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.buf)
	e.Reset()
	if err != nil {
		return int64(n), &ConnectionError{Op: "write", Err: err}
	}
	return int64(n), nil
}

// WriteValue serializes v to w. Write failures are returned as
// *ConnectionError.
//
// Performance considerations:
//   - Uses bufio.Writer when available for buffered writes (not flushed)
//   - Falls back to pooled buffer for other io.Writer types (single Write)
func WriteValue(w io.Writer, v Value) error {
	// Optimize for bufio.Writer
	if bw, ok := w.(*bufio.Writer); ok {
		if err := writeValueBuffered(bw, v); err != nil {
			return &ConnectionError{Op: "write", Err: err}
		}
		return nil
	}

	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	buf.Write(AppendValue(buf.AvailableBuffer(), v))
	if _, err := w.Write(buf.Bytes()); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

// writeValueBuffered streams v into bw without building the frame first.
func writeValueBuffered(bw *bufio.Writer, v Value) error {
	switch v.Kind {
	case KindArray:
		bw.Write(appendHeader(bw.AvailableBuffer(), KindArray, uint64(len(v.Array))))
		for _, elem := range v.Array {
			if err := writeValueBuffered(bw, elem); err != nil {
				return err
			}
		}
	case KindBulkString:
		bw.Write(appendHeader(bw.AvailableBuffer(), KindBulkString, uint64(len(v.Bulk))))
		bw.Write(v.Bulk)
		bw.WriteString(CRLF)
	case KindSimpleString, KindError:
		bw.WriteByte(byte(v.Kind))
		bw.WriteString(v.Text)
		bw.WriteString(CRLF)
	case KindInteger:
		bw.Write(appendHeader(bw.AvailableBuffer(), KindInteger, v.Int))
	}

	// bufio.Writer keeps the first error; report it once here
	_, err := bw.Write(nil)
	return err
}
