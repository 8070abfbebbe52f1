package redis

import "github.com/pior/redis/resp"

// Typed helpers wrap a call and extract its reply in one expression:
//
//	name, err := redis.String(client.Do(ctx, "user:1", resp.Command("GET", "user:1")))
//
// The call error is returned as is. An error reply becomes a
// *resp.RemoteError and a reply of the wrong shape a *resp.ConversionError.

// String returns the reply as text. See resp.AsString.
func String(v resp.Value, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return resp.AsString(v)
}

// Count returns an integer reply.
func Count(v resp.Value, err error) (uint64, error) {
	if err != nil {
		return 0, err
	}
	return resp.AsCount(v)
}

// OK checks for the +OK status reply.
func OK(v resp.Value, err error) error {
	if err != nil {
		return err
	}
	return resp.AsOK(v)
}

// Values returns the elements of an array reply.
func Values(v resp.Value, err error) ([]resp.Value, error) {
	if err != nil {
		return nil, err
	}
	return resp.AsArray(v)
}
