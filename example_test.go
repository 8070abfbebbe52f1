package redis_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/pior/redis"
	"github.com/pior/redis/resp"
)

// Example demonstrating commands and typed replies
func ExampleClient_Do() {
	server, err := miniredis.Run()
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()

	client, err := redis.NewClient(redis.NewStaticServers(server.Addr()), redis.Config{
		MaxSize: 4,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()

	if err := redis.OK(client.Do(ctx, "user:1", resp.Command("SET", "user:1", "alice"))); err != nil {
		log.Fatal(err)
	}

	name, err := redis.String(client.Do(ctx, "user:1", resp.Command("GET", "user:1")))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(name)

	// Error replies surface through the typed helpers
	_, err = redis.Count(client.Do(ctx, "user:1", resp.Command("INCR", "user:1")))
	if remote, ok := resp.IsRemoteError(err); ok {
		fmt.Println(remote.Message)
	}
	// Output:
	// alice
	// ERR value is not an integer or out of range
}

// Example demonstrating pipelined commands
func ExampleClient_DoBatch() {
	server, err := miniredis.Run()
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()

	client, err := redis.NewClient(redis.NewStaticServers(server.Addr()), redis.Config{
		MaxSize: 1,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	replies, err := client.DoBatch(context.Background(), "visits", []resp.Value{
		resp.Command("INCR", "visits"),
		resp.Command("INCR", "visits"),
		resp.Command("INCRBY", "visits", "10"),
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, reply := range replies {
		fmt.Println(reply)
	}
	// Output:
	// 1
	// 2
	// 12
}

// Example demonstrating circuit breakers and pool stats
func ExampleNewGobreakerConfig() {
	server, err := miniredis.Run()
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()

	client, err := redis.NewClient(redis.NewStaticServers(server.Addr()), redis.Config{
		MaxSize: 10,
		NewCircuitBreaker: redis.NewGobreakerConfig(
			3,              // maxRequests in half-open state
			time.Minute,    // interval to reset failure counts
			10*time.Second, // timeout before transitioning to half-open
			zerolog.Nop(),
		),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	_, _ = client.Do(context.Background(), "key", resp.Command("PING"))

	for _, stats := range client.AllPoolStats() {
		fmt.Printf("Circuit: %s, Connections: %d\n", stats.CircuitBreakerState, stats.PoolStats.TotalConns)
	}

	clientStats := client.Stats()
	fmt.Printf("Commands: %d, Errors: %d\n", clientStats.Commands, clientStats.Errors)
	// Output:
	// Circuit: closed, Connections: 1
	// Commands: 1, Errors: 0
}
