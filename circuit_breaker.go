package redis

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/redis/resp"
)

// CircuitBreaker guards the calls to one server.
// *gobreaker.CircuitBreaker[resp.Value] satisfies it.
type CircuitBreaker interface {
	Execute(req func() (resp.Value, error)) (resp.Value, error)
	State() gobreaker.State
	Counts() gobreaker.Counts
}

var _ CircuitBreaker = (*gobreaker.CircuitBreaker[resp.Value])(nil)

// NewGobreakerConfig returns a function that creates circuit breakers for servers.
// This is a helper for common use cases.
//
// Only connection and protocol failures count: error replies are values and
// never trip the breaker. State changes are logged as warnings to logger.
func NewGobreakerConfig(maxRequests uint32, interval, timeout time.Duration, logger zerolog.Logger) func(serverAddr string) CircuitBreaker {
	return func(serverAddr string) CircuitBreaker {
		settings := gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("server", name).
					Stringer("from", from).
					Stringer("to", to).
					Msg("circuit breaker state changed")
			},
		}
		return gobreaker.NewCircuitBreaker[resp.Value](settings)
	}
}
