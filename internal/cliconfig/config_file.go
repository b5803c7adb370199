package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	WatchPath      string `toml:"watch_path"`
	FromStart      *bool  `toml:"from_start"`
	Once           *bool  `toml:"once"`
	ServiceURL     string `toml:"service_url"`
	AuthKey        string `toml:"auth_key"`
	FlushInterval  string `toml:"flush_interval"`
	PollInterval   string `toml:"poll_interval"`
	HTTPTimeout    string `toml:"http_timeout"`
	MaxBufferBytes int    `toml:"max_buffer_bytes"`
	StorageKey     string `toml:"storage_key"`
	StateBackend   string `toml:"state_backend"`
	StateDir       string `toml:"state_dir"`
	SQLitePath     string `toml:"sqlite_path"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	MetricsAddr    string `toml:"metrics_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.errship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".errship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("watch", fc.WatchPath, &cfg.WatchPath)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("storage-key", fc.StorageKey, &cfg.StorageKey)
	s.setString("state-backend", fc.StateBackend, &cfg.StateBackend)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("sqlite-path", fc.SQLitePath, &cfg.SQLitePath)
	s.setString("redis-addr", fc.RedisAddr, &cfg.RedisAddr)
	s.setString("redis-password", fc.RedisPassword, &cfg.RedisPassword)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("max-buffer-bytes", fc.MaxBufferBytes, &cfg.MaxBufferBytes)
	s.setInt("redis-db", fc.RedisDB, &cfg.RedisDB)

	s.setBool("from-start", fc.FromStart, &cfg.FromStart)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
