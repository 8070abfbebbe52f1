package resp

import (
	"testing"
)

// FuzzDecode feeds arbitrary bytes to Decode. Whatever decodes must decode
// again after encoding, and every prefix of it must report incomplete.
// Run with: go test -fuzz='^FuzzDecode$' -fuzztime=60s ./resp
func FuzzDecode(f *testing.F) {
	// Valid frames
	f.Add([]byte("$11\r\nTHISISATEST\r\n"))
	f.Add([]byte("*2\r\n$5\r\nTEST1\r\n$5\r\nTEST2\r\n"))
	f.Add([]byte(":42\r\n:7\r\n"))
	f.Add([]byte("-ERR wrong type\r\n"))
	f.Add([]byte("+OK\r\n"))
	f.Add([]byte("$0\r\n\r\n"))
	f.Add([]byte("*0\r\n"))
	f.Add([]byte("*1\r\n*1\r\n*0\r\n"))
	f.Add([]byte(":18446744073709551615\r\n"))

	// Incomplete prefixes
	f.Add([]byte("$5\r\nHE"))
	f.Add([]byte("*3\r\n:1\r\n"))
	f.Add([]byte("*999999999\r\n"))
	f.Add([]byte(""))

	// Protocol violations
	f.Add([]byte("#"))
	f.Add([]byte("$-1\r\n"))
	f.Add([]byte(":\r\n"))
	f.Add([]byte(":18446744073709551616\r\n"))
	f.Add([]byte("$3\r\nabcXX"))
	f.Add([]byte(":1\r\r\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		v, n, err := Decode(data)
		if err != nil {
			if n != 0 {
				t.Fatalf("error with n=%d", n)
			}
			if !ShouldCloseConnection(err) {
				t.Fatalf("decode error should close the connection: %v", err)
			}
			return
		}
		if n == 0 {
			return
		}
		if n > len(data) {
			t.Fatalf("consumed %d bytes of %d", n, len(data))
		}

		again, m, err := Decode(AppendValue(nil, v))
		if err != nil || m == 0 || !again.Equal(v) {
			t.Fatalf("re-encoded %v does not decode back: %v", v, err)
		}

		for split := 1; split < n; split += max(1, n/7) {
			_, partial, err := Decode(data[:split])
			if err != nil || partial != 0 {
				t.Fatalf("prefix of %d bytes: n=%d err=%v", split, partial, err)
			}
		}
	})
}
