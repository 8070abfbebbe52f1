package resp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireRemote(t *testing.T, err error, message string) {
	t.Helper()
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, message, remote.Message)
	require.False(t, ShouldCloseConnection(err))
}

func requireConversion(t *testing.T, err error, offending Value) {
	t.Helper()
	var conv *ConversionError
	require.ErrorAs(t, err, &conv)
	require.Equal(t, offending, conv.Value)
	require.False(t, ShouldCloseConnection(err))
}

type point struct{ called bool }

func (p *point) UnmarshalRESP(v Value) error {
	p.called = true
	return nil
}

func TestErrorCollapsesForEveryTarget(t *testing.T) {
	boom := NewError("boom")

	_, err := AsValue(boom)
	requireRemote(t, err, "boom")

	_, err = AsString(boom)
	requireRemote(t, err, "boom")

	_, err = AsCount(boom)
	requireRemote(t, err, "boom")

	err = AsOK(boom)
	requireRemote(t, err, "boom")

	_, err = AsArray(boom)
	requireRemote(t, err, "boom")

	var p point
	err = Unmarshal(boom, &p)
	requireRemote(t, err, "boom")
	require.False(t, p.called, "type rules never see error values")
}

func TestAsValue(t *testing.T) {
	v := NewArray(Text("a"))
	got, err := AsValue(v)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestAsString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"bulk string", Text("hello"), "hello"},
		{"empty bulk string", Text(""), ""},
		{"integer", NewInteger(1234), "1234"},
		{"zero", NewInteger(0), "0"},
		{"simple string", NewSimpleString("PONG"), "PONG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsString(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("array fails", func(t *testing.T) {
		v := NewArray(Text("a"))
		_, err := AsString(v)
		requireConversion(t, err, v)
	})
}

// Invalid UTF-8 in a bulk string is the one conversion that never fails:
// it is replaced, not rejected.
func TestAsStringLossyBulk(t *testing.T) {
	for _, tt := range lossyTests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := AsString(NewBulkString([]byte(tt.input)))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	got, err := AsString(NewBulkString([]byte{0x00, 'x'}))
	require.NoError(t, err)
	require.Equal(t, "\x00x", got, "valid bytes, including NUL, are kept")
}

// One U+FFFD per maximal ill-formed subsequence
var lossyTests = []struct {
	input string
	want  string
}{
	{"\xff\xfeA", "\ufffd\ufffdA"},
	{"a\xff\xffb", "a\ufffd\ufffdb"},
	{"\xe2\x82A", "\ufffdA"},
	{"\xe2\x82", "\ufffd"},
	{"\xe2\x82\xac\xff", "\u20ac\ufffd"},
	{"\x80\x80", "\ufffd\ufffd"},
	{"\xc0\xaf", "\ufffd\ufffd"},
	{"\xed\xa0\x80", "\ufffd\ufffd\ufffd"},
	{"\xe0\x80\xaf", "\ufffd\ufffd\ufffd"},
	{"\xf0\x9f\x98", "\ufffd"},
	{"\xf0\x9f\x98x\xf0\x9f\x98\x80", "\ufffdx\U0001f600"},
	{"\xf4\x90\x80\x80", "\ufffd\ufffd\ufffd\ufffd"},
	{"\xf5a", "\ufffda"},
	{"ok\ufffd", "ok\ufffd"},
}

func TestLossyStringMatchesDecodedText(t *testing.T) {
	for _, tt := range lossyTests {
		t.Run(tt.input, func(t *testing.T) {
			v, _, err := Decode([]byte("+" + tt.input + "\r\n"))
			require.NoError(t, err)
			require.Equal(t, tt.want, v.Text)

			v, _, err = Decode([]byte("-" + tt.input + "\r\n"))
			require.NoError(t, err)
			require.Equal(t, tt.want, v.Text)
		})
	}
}

func TestAsCount(t *testing.T) {
	n, err := AsCount(NewInteger(42))
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)

	for _, v := range []Value{Text("42"), NewSimpleString("42"), NewArray()} {
		_, err := AsCount(v)
		requireConversion(t, err, v)
	}
}

func TestAsOK(t *testing.T) {
	require.NoError(t, AsOK(NewSimpleString("OK")))

	for _, v := range []Value{
		NewSimpleString("PONG"),
		NewSimpleString("ok"),
		Text("OK"),
		NewInteger(1),
		NewArray(),
	} {
		err := AsOK(v)
		requireConversion(t, err, v)
	}
}

func TestAsArray(t *testing.T) {
	elems, err := AsArray(NewArray(NewInteger(1), NewError("inner")))
	require.NoError(t, err)
	require.Len(t, elems, 2)
	require.True(t, elems[1].IsError(), "nested errors are values")

	_, err = AsArray(Text("x"))
	requireConversion(t, err, Text("x"))
}

func TestUnmarshal(t *testing.T) {
	var p point
	require.NoError(t, Unmarshal(Text("1,2"), &p))
	require.True(t, p.called)
}

func TestShouldCloseConnection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"parse", &ParseError{Message: "x"}, true},
		{"connection", &ConnectionError{Op: "read", Err: errors.New("reset")}, true},
		{"remote", &RemoteError{Message: "ERR"}, false},
		{"conversion", &ConversionError{Message: "x", Value: NewInteger(1)}, false},
		{"wrapped parse", errors.Join(errors.New("ctx"), &ParseError{}), true},
		{"unknown", errors.New("unknown"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldCloseConnection(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "ERR wrong type", (&RemoteError{Message: "ERR wrong type"}).Error())
	assert.Equal(t, "resp: parse error at offset 3: bad", (&ParseError{Message: "bad", Offset: 3}).Error())
	assert.Equal(t, "resp: cannot convert into a count: bulk string \"x\"",
		(&ConversionError{Message: "cannot convert into a count", Value: Text("x")}).Error())

	inner := errors.New("broken pipe")
	connErr := &ConnectionError{Op: "write", Err: inner}
	assert.Equal(t, "connection error during write: broken pipe", connErr.Error())
	assert.ErrorIs(t, connErr, inner)

	_, ok := IsRemoteError(inner)
	assert.False(t, ok)
}
