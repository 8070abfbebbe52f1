package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pior/redis"
	"github.com/pior/redis/resp"
)

// repl reads commands line by line and prints the replies until in ends or
// the user quits.
func repl(in io.Reader, out io.Writer, client *redis.Client, timeout time.Duration) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		args, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "(error) %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "quit", "exit":
			return
		case ":stats":
			printStats(out, client)
			continue
		}

		// The first argument is the key for most commands
		key := ""
		if len(args) > 1 {
			key = args[1]
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		reply, err := client.Do(ctx, key, resp.Command(args[0], args[1:]...))
		cancel()
		if err != nil {
			fmt.Fprintf(out, "(error) %v\n", err)
			continue
		}
		render(out, reply)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(out, "(error) reading input: %v\n", err)
	}
}

func printStats(out io.Writer, client *redis.Client) {
	stats := client.Stats()
	fmt.Fprintf(out, "commands: %s, batches: %s, error replies: %s, failures: %s\n",
		humanize.Comma(int64(stats.Commands)),
		humanize.Comma(int64(stats.Batches)),
		humanize.Comma(int64(stats.RemoteErrors)),
		humanize.Comma(int64(stats.Errors)),
	)
	fmt.Fprintf(out, "health checks: %s, evictions: %s\n",
		humanize.Comma(int64(stats.HealthChecks)),
		humanize.Comma(int64(stats.Evictions)),
	)

	for _, sp := range client.AllPoolStats() {
		ps := sp.PoolStats
		fmt.Fprintf(out, "%s: %d conns (%d idle, %d active), %s acquires, breaker %s\n",
			sp.Addr, ps.TotalConns, ps.IdleConns, ps.ActiveConns,
			humanize.Comma(int64(ps.AcquireCount)), sp.CircuitBreakerState)
	}
}
