package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"detent"
)

// Config is the YAML configuration for knobmon. The file is the
// primary surface; flags override single fields for ad-hoc runs.
type Config struct {
	Encoder EncoderConfig `yaml:"encoder"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// EncoderConfig locates and tunes the encoder under watch. Pin names
// are periph.io names as printed by gpioreg.
type EncoderConfig struct {
	PinA   string `yaml:"pinA"`
	PinB   string `yaml:"pinB"`
	PinKey string `yaml:"pinKey"`

	// Divider is the number of quadrature sub-steps per reported step.
	Divider int `yaml:"divider"`

	// Acceleration is the top step multiplier for fast turns; 1 turns
	// acceleration off.
	Acceleration int `yaml:"acceleration"`

	// AccelProfile picks the timing window: "default" or "relaxed".
	AccelProfile string `yaml:"accelProfile"`

	// PollMs is the sampling period in milliseconds.
	PollMs int `yaml:"pollMs"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listenAddr"`

	// SendBuf is the per-client outbound queue size; slower clients
	// get dropped once theirs fills.
	SendBuf int `yaml:"sendBuf"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully populated Config. The pin defaults
// follow the usual Raspberry Pi wiring for a KY-040 encoder.
func DefaultConfig() Config {
	return Config{
		Encoder: EncoderConfig{
			PinA:         "GPIO17",
			PinB:         "GPIO27",
			PinKey:       "GPIO22",
			Divider:      4,
			Acceleration: 1,
			AccelProfile: "default",
			PollMs:       1,
		},
		Server: ServerConfig{
			ListenAddr: ":8891",
			SendBuf:    32,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads a YAML config on top of the defaults. Unknown
// fields and trailing documents are rejected to catch typos early.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.SetStrict(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides carries optional flag values applied on top of a
// loaded config. A nil pointer means the flag was not set.
type FlagOverrides struct {
	PinA         *string
	PinB         *string
	PinKey       *string
	Divider      *int
	Acceleration *int
	AccelProfile *string
	PollMs       *int

	ListenAddr *string

	LogLevel *string
}

// Apply merges the set overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.PinA != nil {
		cfg.Encoder.PinA = *o.PinA
	}
	if o.PinB != nil {
		cfg.Encoder.PinB = *o.PinB
	}
	if o.PinKey != nil {
		cfg.Encoder.PinKey = *o.PinKey
	}
	if o.Divider != nil {
		cfg.Encoder.Divider = *o.Divider
	}
	if o.Acceleration != nil {
		cfg.Encoder.Acceleration = *o.Acceleration
	}
	if o.AccelProfile != nil {
		cfg.Encoder.AccelProfile = *o.AccelProfile
	}
	if o.PollMs != nil {
		cfg.Encoder.PollMs = *o.PollMs
	}
	if o.ListenAddr != nil {
		cfg.Server.ListenAddr = *o.ListenAddr
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants after defaults, file and overrides
// are all applied.
func (c *Config) Validate() error {
	if c.Encoder.PinA == "" || c.Encoder.PinB == "" {
		return errors.New("encoder.pinA and encoder.pinB must not be empty")
	}
	if c.Encoder.PinKey == "" {
		return errors.New("encoder.pinKey must not be empty")
	}
	if c.Encoder.Divider < 1 {
		return errors.New("encoder.divider must be >= 1")
	}
	if c.Encoder.Acceleration < 1 {
		return errors.New("encoder.acceleration must be >= 1")
	}
	if _, err := c.Encoder.profile(); err != nil {
		return err
	}
	if c.Encoder.PollMs < 1 {
		return errors.New("encoder.pollMs must be >= 1")
	}
	if c.Server.ListenAddr == "" {
		return errors.New("server.listenAddr must not be empty")
	}
	if c.Server.SendBuf < 1 {
		return errors.New("server.sendBuf must be >= 1")
	}
	if _, err := c.Logging.slogLevel(); err != nil {
		return err
	}
	return nil
}

func (c EncoderConfig) pollPeriod() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

func (c EncoderConfig) profile() (detent.AccelProfile, error) {
	switch c.AccelProfile {
	case "", "default":
		return detent.DefaultAccelProfile, nil
	case "relaxed":
		return detent.RelaxedAccelProfile, nil
	}
	return detent.AccelProfile{}, fmt.Errorf("encoder.accelProfile must be %q or %q", "default", "relaxed")
}

func (c LoggingConfig) slogLevel() (slog.Level, error) {
	switch c.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging.level must be debug, info, warn or error, not %q", c.Level)
}
