package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ERRSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("watch", os.Getenv("ERRSHIP_WATCH_PATH"), &cfg.WatchPath)
	s.setString("service-url", os.Getenv("ERRSHIP_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("ERRSHIP_AUTH_KEY"), &cfg.AuthKey)
	s.setString("storage-key", os.Getenv("ERRSHIP_STORAGE_KEY"), &cfg.StorageKey)
	s.setString("state-backend", os.Getenv("ERRSHIP_STATE_BACKEND"), &cfg.StateBackend)
	s.setString("state-dir", os.Getenv("ERRSHIP_STATE_DIR"), &cfg.StateDir)
	s.setString("sqlite-path", os.Getenv("ERRSHIP_SQLITE_PATH"), &cfg.SQLitePath)
	s.setString("redis-addr", os.Getenv("ERRSHIP_REDIS_ADDR"), &cfg.RedisAddr)
	s.setString("redis-password", os.Getenv("ERRSHIP_REDIS_PASSWORD"), &cfg.RedisPassword)
	s.setString("metrics-addr", os.Getenv("ERRSHIP_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setDuration("flush-interval", os.Getenv("ERRSHIP_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("ERRSHIP_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("ERRSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-buffer-bytes", os.Getenv("ERRSHIP_MAX_BUFFER_BYTES"), &cfg.MaxBufferBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("redis-db", os.Getenv("ERRSHIP_REDIS_DB"), &cfg.RedisDB); err != nil {
		return err
	}

	s.setBoolFromString("from-start", os.Getenv("ERRSHIP_FROM_START"), &cfg.FromStart)
	s.setBoolFromString("once", os.Getenv("ERRSHIP_ONCE"), &cfg.Once)

	return nil
}
