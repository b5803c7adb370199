package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// State backends the CLI can mirror high-persistence errors to.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// DefaultStorageKey is the key under which the snapshot blob lives.
const DefaultStorageKey = "errors"

// Config holds CLI configuration for errship.
type Config struct {
	WatchPath string
	FromStart bool
	Once      bool

	ServiceURL string
	AuthKey    string

	FlushInterval time.Duration
	PollInterval  time.Duration
	HTTPTimeout   time.Duration

	MaxBufferBytes int
	StorageKey     string

	StateBackend  string
	StateDir      string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MetricsAddr string
	ResetState  bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FlushInterval:  60 * time.Second,
		PollInterval:   500 * time.Millisecond,
		HTTPTimeout:    15 * time.Second,
		MaxBufferBytes: 10 << 20, // 10 MiB
		StorageKey:     DefaultStorageKey,
		StateBackend:   BackendFile,
		StateDir:       "", // Derived during Validate
		AuthKey:        os.Getenv("ERRSHIP_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.WatchPath == "" && !c.ResetState {
		return fmt.Errorf("watch path is required")
	}

	// Ensure no trailing slash
	if len(c.ServiceURL) > 0 && c.ServiceURL[len(c.ServiceURL)-1] == '/' {
		c.ServiceURL = c.ServiceURL[:len(c.ServiceURL)-1]
	}

	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}

	switch c.StateBackend {
	case BackendFile, BackendSQLite:
		if c.StateDir == "" {
			c.StateDir = DefaultStateDir()
		}
		if c.StateBackend == BackendSQLite && c.SQLitePath == "" {
			c.SQLitePath = filepath.Join(c.StateDir, "errship.db")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required for the redis backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown state backend %q", c.StateBackend)
	}

	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.MaxBufferBytes <= 0 {
		return fmt.Errorf("max buffer bytes must be positive")
	}

	return nil
}

// DefaultStateDir returns the default directory for durable state.
// Returns ~/.errship/state if the user home directory is accessible.
func DefaultStateDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".errship", "state")
	}
	return ".errship-state"
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
