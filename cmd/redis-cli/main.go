// Command redis-cli is an interactive client for servers speaking RESP.
//
//	redis-cli --servers localhost:6379
//	> SET greeting "hello world"
//	OK
//	> GET greeting
//	"hello world"
//
// With --bench it runs a SET/GET load instead of the prompt.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/pior/redis"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := initLogger(cfg.LogLevel)

	client, err := newClient(cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create client")
	}
	defer client.Close()

	if cfg.Bench > 0 {
		runBench(client, cfg, os.Stdout)
		return
	}

	logger.Debug().Strs("servers", cfg.Servers).Msg("ready")
	repl(os.Stdin, os.Stdout, client, cfg.Timeout)
}

func initLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "redis-cli").Logger()
	log.Logger = logger
	return logger
}

func newClient(cfg config, logger zerolog.Logger) (*redis.Client, error) {
	clientConfig := redis.Config{
		MaxSize:             cfg.PoolSize,
		Timeout:             cfg.Timeout,
		HealthCheckInterval: 30 * time.Second,
		MaxConnIdleTime:     5 * time.Minute,
		Logger:              &logger,
	}
	if cfg.Pool == "puddle" {
		clientConfig.Pool = redis.NewPuddlePool
	}
	if cfg.Breaker {
		clientConfig.NewCircuitBreaker = redis.NewGobreakerConfig(3, time.Minute, 10*time.Second, logger)
	}

	return redis.NewClient(redis.NewStaticServers(cfg.Servers...), clientConfig)
}
