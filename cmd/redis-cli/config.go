package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	Servers     []string
	PoolSize    int32
	Pool        string
	Timeout     time.Duration
	Breaker     bool
	LogLevel    string
	Bench       time.Duration
	Concurrency int
}

// loadConfig reads the configuration from, by precedence: command line
// flags, REDIS_CLI_* environment variables, the --config file, defaults.
func loadConfig(args []string) (config, error) {
	flags := pflag.NewFlagSet("redis-cli", pflag.ContinueOnError)
	flags.StringSlice("servers", []string{"localhost:6379"}, "server addresses, keys are spread with jump hashing")
	flags.Int32("pool-size", 4, "maximum connections per server")
	flags.String("pool", "channel", "pool implementation: channel or puddle")
	flags.Duration("timeout", 5*time.Second, "timeout of each command")
	flags.Bool("breaker", false, "enable a circuit breaker per server")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Duration("bench", 0, "run a SET/GET benchmark for this long instead of the prompt")
	flags.Int("concurrency", 8, "benchmark workers")
	flags.String("config", "", "configuration file (yaml, toml or json)")

	if err := flags.Parse(args); err != nil {
		return config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("REDIS_CLI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return config{}, err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg := config{
		Servers:     v.GetStringSlice("servers"),
		PoolSize:    v.GetInt32("pool-size"),
		Pool:        v.GetString("pool"),
		Timeout:     v.GetDuration("timeout"),
		Breaker:     v.GetBool("breaker"),
		LogLevel:    v.GetString("log-level"),
		Bench:       v.GetDuration("bench"),
		Concurrency: v.GetInt("concurrency"),
	}

	switch {
	case len(cfg.Servers) == 0:
		return config{}, fmt.Errorf("no servers configured")
	case cfg.PoolSize <= 0:
		return config{}, fmt.Errorf("pool-size must be positive, got %d", cfg.PoolSize)
	case cfg.Pool != "channel" && cfg.Pool != "puddle":
		return config{}, fmt.Errorf("unknown pool %q", cfg.Pool)
	case cfg.Concurrency <= 0:
		return config{}, fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	return cfg, nil
}
