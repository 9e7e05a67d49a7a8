package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/adamwoolhether/httpool/client"
	"github.com/adamwoolhether/httpool/client/pool"
	"github.com/adamwoolhether/httpool/client/validate"
)

// Config captures the tunables of a client and its pool.
type Config struct {
	TimeoutPolicy     string   `toml:"timeout_policy" json:"timeout_policy" validate:"omitempty,oneof=close abandon"`
	MaxHeaderBytes    int      `toml:"max_header_bytes" json:"max_header_bytes" validate:"gte=0"`
	HandshakeAttempts int      `toml:"handshake_attempts" json:"handshake_attempts" validate:"gte=0"`
	Pool              Pool     `toml:"pool" json:"pool"`
	Throttle          Throttle `toml:"throttle" json:"throttle"`
}

// Pool holds the connection pool settings.
type Pool struct {
	TotalSize       int    `toml:"total_size" json:"total_size" validate:"gte=0"`
	DestinationSize int    `toml:"destination_size" json:"destination_size" validate:"gte=0"`
	UnusedTimeout   string `toml:"unused_timeout" json:"unused_timeout"`
}

// Throttle holds the rate limit. A zero RPS disables it.
type Throttle struct {
	RPS   int `toml:"rps" json:"rps" validate:"gte=0"`
	Burst int `toml:"burst" json:"burst" validate:"gte=0"`
}

// Load reads and validates the config at path, falling back to defaults
// when the file does not exist.
func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes and validates a TOML config.
func Parse(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.TimeoutPolicy = strings.ToLower(strings.TrimSpace(cfg.TimeoutPolicy))
	cfg.Pool.UnusedTimeout = strings.TrimSpace(cfg.Pool.UnusedTimeout)

	if err := validate.Check(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	if _, err := cfg.unusedTimeout(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Options returns the client options the config describes. Unset fields
// contribute nothing.
func (c Config) Options() []client.Option {
	var opts []client.Option

	switch c.TimeoutPolicy {
	case "abandon":
		opts = append(opts, client.WithTimeoutPolicy(client.TimeoutAbandon))
	case "close":
		opts = append(opts, client.WithTimeoutPolicy(client.TimeoutClose))
	}
	if c.MaxHeaderBytes > 0 {
		opts = append(opts, client.WithMaxHeaderBytes(c.MaxHeaderBytes))
	}
	if c.HandshakeAttempts > 0 {
		opts = append(opts, client.WithHandshakeAttempts(c.HandshakeAttempts))
	}
	if c.Throttle.RPS > 0 {
		opts = append(opts, client.WithThrottle(c.Throttle.RPS, c.Throttle.Burst))
	}

	if po := c.PoolOptions(); len(po) > 0 {
		opts = append(opts, client.WithPoolOptions(po...))
	}

	return opts
}

// PoolOptions returns the pool options the config describes, for building
// a shared pool with pool.New.
func (c Config) PoolOptions() []pool.Option {
	var opts []pool.Option

	if c.Pool.TotalSize > 0 || c.Pool.DestinationSize > 0 {
		opts = append(opts, pool.WithLimits(pool.Limits{
			TotalSize:       c.Pool.TotalSize,
			DestinationSize: c.Pool.DestinationSize,
		}))
	}
	if d, _ := c.unusedTimeout(); d > 0 {
		opts = append(opts, pool.WithUnusedTimeout(d))
	}

	return opts
}

func (c Config) unusedTimeout() (time.Duration, error) {
	if c.Pool.UnusedTimeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Pool.UnusedTimeout)
	if err != nil {
		return 0, fmt.Errorf("pool.unused_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("pool.unused_timeout: %s must not be negative", d)
	}

	return d, nil
}
