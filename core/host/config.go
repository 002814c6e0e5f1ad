package host

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables of a Silo. It can be loaded from YAML:
//
//	idle_timeout: 10m
//	collect_interval: 1m
//	deactivate_timeout: 30s
//	mailbox_size: 64
//	log:
//	  level: info
//	  format: text
type Config struct {
	// IdleTimeout deactivates actors that received no call for this long.
	// Negative disables idle collection.
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	CollectInterval   time.Duration `yaml:"collect_interval"`
	DeactivateTimeout time.Duration `yaml:"deactivate_timeout"`
	// MailboxSize is the number of turns that may queue per identity
	// before callers block.
	MailboxSize int       `yaml:"mailbox_size"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		IdleTimeout:       10 * time.Minute,
		CollectInterval:   time.Minute,
		DeactivateTimeout: 30 * time.Second,
		MailboxSize:       64,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.CollectInterval <= 0 {
		c.CollectInterval = d.CollectInterval
	}
	if c.DeactivateTimeout <= 0 {
		c.DeactivateTimeout = d.DeactivateTimeout
	}
	if c.MailboxSize <= 0 {
		c.MailboxSize = d.MailboxSize
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	return c
}

func (c Config) Validate() error {
	if c.CollectInterval < 0 {
		return fmt.Errorf("%w: collect_interval must not be negative", ErrInvalidConfig)
	}
	if c.DeactivateTimeout < 0 {
		return fmt.Errorf("%w: deactivate_timeout must not be negative", ErrInvalidConfig)
	}
	if c.MailboxSize < 0 {
		return fmt.Errorf("%w: mailbox_size must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// ParseConfig decodes YAML and applies defaults.
func ParseConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

func (l LogConfig) level() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, l.Level)
	}
}

// NewLogger builds a logger writing to w as configured.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
