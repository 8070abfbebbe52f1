package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/pior/redis"
	"github.com/pior/redis/resp"
)

// Keys written by each worker
const benchKeys = 1000

type benchResult struct {
	Operations int64
	Failures   int64
	Mismatches int64
	Duration   time.Duration
	Bytes      int64
}

// runBench sets then reads back keys from cfg.Concurrency workers for
// cfg.Bench and prints the throughput.
func runBench(client *redis.Client, cfg config, out io.Writer) {
	log.Info().
		Dur("duration", cfg.Bench).
		Int("concurrency", cfg.Concurrency).
		Msg("starting benchmark")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Bench)
	defer cancel()

	result := bench(ctx, client, cfg.Concurrency)

	opsPerSecond := float64(result.Operations) / result.Duration.Seconds()
	fmt.Fprintf(out, "operations: %s (%s ops/s)\n",
		humanize.Comma(result.Operations), humanize.CommafWithDigits(opsPerSecond, 0))
	fmt.Fprintf(out, "transferred: %s\n", humanize.Bytes(uint64(result.Bytes)))
	fmt.Fprintf(out, "failures: %d, mismatches: %d\n", result.Failures, result.Mismatches)
}

func bench(ctx context.Context, client *redis.Client, concurrency int) benchResult {
	var ops, failures, mismatches, transferred atomic.Int64
	start := time.Now()

	var wg sync.WaitGroup
	for w := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ctx.Err() == nil; i++ {
				key := "bench:" + strconv.Itoa(w) + ":" + strconv.Itoa(i%benchKeys)
				value := key + ":" + strconv.Itoa(i)

				err := redis.OK(client.Do(ctx, key, resp.Command("SET", key, value)))
				if err == nil {
					var got string
					got, err = redis.String(client.Do(ctx, key, resp.Command("GET", key)))
					if err == nil && got != value {
						mismatches.Add(1)
					}
				}
				if err != nil {
					if ctx.Err() == nil {
						failures.Add(1)
						log.Debug().Err(err).Str("key", key).Msg("benchmark operation failed")
					}
					continue
				}

				ops.Add(2)
				transferred.Add(int64(2 * len(value)))
			}
		}()
	}
	wg.Wait()

	return benchResult{
		Operations: ops.Load(),
		Failures:   failures.Load(),
		Mismatches: mismatches.Load(),
		Duration:   time.Since(start),
		Bytes:      transferred.Load(),
	}
}
