package redis

import (
	"errors"
	"sync/atomic"

	"github.com/zeebo/xxh3"

	"github.com/pior/redis/internal"
)

var ErrNoServers = errors.New("redis: no servers available")

// Servers provides the current list of server addresses.
// List is called on every command: implementations must be cheap and safe
// for concurrent use.
type Servers interface {
	List() []string
}

// StaticServers is a list of addresses that can be replaced at runtime.
type StaticServers struct {
	addrs atomic.Pointer[[]string]
}

// NewStaticServers creates a server list from fixed addresses.
func NewStaticServers(addrs ...string) *StaticServers {
	s := &StaticServers{}
	s.Set(addrs...)
	return s
}

// List returns the current addresses. The slice must not be modified.
func (s *StaticServers) List() []string {
	return *s.addrs.Load()
}

// Set replaces the addresses. Keys move to new servers as little as jump
// hashing allows when servers are appended or removed from the end.
func (s *StaticServers) Set(addrs ...string) {
	list := append([]string(nil), addrs...)
	s.addrs.Store(&list)
}

// SelectServerFunc picks the server for a key from the current list.
type SelectServerFunc func(key string, servers []string) (string, error)

// DefaultSelectServer uses Jump Hash over the xxh3 hash of the key.
// For a single server, it returns that server directly.
func DefaultSelectServer(key string, servers []string) (string, error) {
	switch len(servers) {
	case 0:
		return "", ErrNoServers
	case 1:
		return servers[0], nil
	}
	return servers[internal.JumpHash(xxh3.HashString(key), len(servers))], nil
}
