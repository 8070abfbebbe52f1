// Package resp provides a low-level implementation of the REdis
// Serialization Protocol (RESP).
//
// This package is the wire layer for building Redis clients with different
// properties (pipelining, connection pooling, batching, etc.). It only deals
// with the value model, serialization and parsing. It never performs I/O on
// its own initiative and never blocks.
//
// # Values
//
// Value is a closed union of the five RESP kinds:
//
//   - KindArray: ordered, possibly empty, possibly nested sequence of values
//   - KindBulkString: binary-safe byte string
//   - KindSimpleString: short status text (no CR/LF)
//   - KindError: error text sent by the server (no CR/LF)
//   - KindInteger: non-negative integer
//
// Values are built with the New* constructors or through the Valuer helpers:
//
//	cmd := resp.Command("GET", "counter")
//	reply := resp.Pack(resp.Str("counter"), resp.Int(10))
//
// # Encoding
//
// AppendValue appends the wire form of a value to a byte slice:
//
//	buf = resp.AppendValue(buf, cmd)
//
// Encoder owns a growable output buffer and flushes it to a transport:
//
//	var enc resp.Encoder
//	enc.Encode(cmd)
//	_, err := enc.WriteTo(conn)
//
// # Decoding
//
// Decode is a streaming parser over a buffer that may hold zero, one or many
// complete frames, or a partial one. It returns the number of bytes consumed:
//
//	v, n, err := resp.Decode(buf)
//	switch {
//	case err != nil:
//	    // protocol violation: close the connection
//	case n == 0:
//	    // incomplete: read more bytes and call again
//	default:
//	    buf = buf[n:]
//	}
//
// Decoder wraps that loop around an owned input buffer:
//
//	dec := resp.NewDecoder(4096)
//	for {
//	    v, ok, err := dec.Next()
//	    if err != nil {
//	        return err
//	    }
//	    if ok {
//	        return handle(v)
//	    }
//	    if _, err := dec.Fill(conn); err != nil {
//	        return err
//	    }
//	}
//
// An incomplete frame always means zero bytes consumed. Nothing is kept
// between calls, so a retry re-scans the frame from its first byte.
//
// # Typed extraction
//
// AsString, AsCount, AsOK and AsValue turn a decoded value into an
// application type. A server error is always reported as *RemoteError
// before any type rule looks at the value:
//
//	s, err := resp.AsString(v)
//	var remote *resp.RemoteError
//	if errors.As(err, &remote) {
//	    // the server replied with an error frame
//	}
//
// AsString is lenient with bulk strings: invalid UTF-8 is replaced with
// U+FFFD instead of failing. Every other conversion fails with
// *ConversionError on a shape mismatch.
//
// # Error Handling
//
//   - ParseError: malformed frame, the stream is desynchronized, CLOSE connection
//   - ConnectionError: network/I/O error, connection already broken
//   - RemoteError: the server replied with an error frame, connection can be REUSED
//   - ConversionError: well-formed value of the wrong shape, connection can be REUSED
//
// Use ShouldCloseConnection to pick the strategy:
//
//	if err != nil {
//	    if resp.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	    return err
//	}
//
// # Thread Safety
//
// Values, Decoder and Encoder are not safe for concurrent use. A Decoder and
// an Encoder never share memory, so the input and output side of a single
// connection can be driven from different goroutines.
package resp
