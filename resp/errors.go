package resp

import (
	"errors"
	"fmt"
)

// Error types for RESP operations.
// They tell the caller what happened to the stream (desynchronized or still
// usable) so it can decide whether to close the connection.

// ParseError represents a protocol violation found while decoding.
// The decoder never resynchronizes: once a ParseError is returned the byte
// stream can no longer be trusted.
//
// Common causes:
//   - Unknown type tag
//   - Non-digit byte in a length or integer
//   - CR not followed by LF
//   - Bulk string payload not followed by CRLF
//
// Connection handling: CLOSE connection immediately
type ParseError struct {
	Message string
	Offset  int   // Offset of the offending byte in the decoded buffer
	Err     error // Underlying error, if any
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("resp: parse error at offset %d: %s", e.Offset, e.Message)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the stream is desynchronized
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// RemoteError is an error frame sent by the server, surfaced when the
// caller asks for a concrete type.
// Decoding an error frame is not a failure: it only becomes a RemoteError
// through Value.Result or one of the As* extractors.
//
// Connection handling: Connection can be REUSED
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// ShouldCloseConnection returns false - the frame was well-formed
func (e *RemoteError) ShouldCloseConnection() bool {
	return false
}

// ConversionError is returned when a well-formed value does not have the
// shape required by the requested type.
//
// Connection handling: Connection can be REUSED
type ConversionError struct {
	Message string
	Value   Value // The offending value
}

func (e *ConversionError) Error() string {
	return "resp: " + e.Message + ": " + e.Value.Kind.String() + " " + e.Value.String()
}

// ShouldCloseConnection returns false - the stream is intact
func (e *ConversionError) ShouldCloseConnection() bool {
	return false
}

// ConnectionError wraps underlying I/O errors from connection operations.
// Used to distinguish network/connection issues from protocol errors.
//
// Connection handling: Connection is already broken, CLOSE and potentially RECONNECT
type ConnectionError struct {
	Op  string // Operation that failed (read, write, etc.)
	Err error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - connection errors mean connection is broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is an interface for errors that indicate
// whether the connection should be closed.
// Implemented by all error types of this package.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection is a helper function to determine if an error
// requires closing the connection.
//
// Returns true for:
//   - ParseError
//   - ConnectionError
//   - unknown errors
//
// Returns false for:
//   - RemoteError
//   - ConversionError
//   - nil
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	// Unknown error type - be conservative and close connection
	return true
}

// IsRemoteError reports whether err carries an error frame from the server.
func IsRemoteError(err error) (*RemoteError, bool) {
	var e *RemoteError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newParseError(offset int, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Offset: offset}
}

func newConversionError(msg string, v Value) *ConversionError {
	return &ConversionError{Message: msg, Value: v}
}
