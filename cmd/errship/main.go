package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/errship/internal/cliconfig"
	"github.com/bft-labs/errship/internal/tail"
	"github.com/bft-labs/errship/pkg/errship"
	logpkg "github.com/bft-labs/errship/pkg/log"
	"github.com/bft-labs/errship/pkg/mirror"
	"github.com/bft-labs/errship/pkg/sink"
)

const helpBanner = `
                     _     _
   ___ _ __ _ __ ___| |__ (_)_ __
  / _ \ '__| '__/ __| '_ \| | '_ \
 |  __/ |  | |  \__ \ | | | | |_) |
  \___|_|  |_|  |___/_| |_|_| .__/
                            |_|
`

const helpDescription = `
Tail an NDJSON error log, deduplicate repeats in memory, and ship
aggregated batches to a collector.

Highlights:
  - Identical errors collapse into one record with a repeat count.
  - High-persistence errors survive restarts via a durable state mirror
    (file, sqlite, or redis).
  - Batches flush on an interval, on a size ceiling, and on shutdown.
  - Configure via file, ERRSHIP_* environment variables, or flags.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  errship --watch /var/log/app/errors.ndjson --service-url https://errors.example.com --auth-key <api-key>
  errship --config $HOME/.errship/config.toml --once
  errship --state-backend redis --redis-addr localhost:6379 --reset-state
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// buildMirror constructs the state mirror named by cfg.StateBackend.
// The returned closer is nil for backends without a handle to release.
func buildMirror(cfg cliconfig.Config) (errship.Mirror, func() error, error) {
	switch cfg.StateBackend {
	case cliconfig.BackendFile:
		return mirror.NewFileMirror(cfg.StateDir, cfg.StorageKey), nil, nil
	case cliconfig.BackendSQLite:
		m, err := mirror.NewSQLiteMirror(mirror.SQLiteConfig{
			Path:       cfg.SQLitePath,
			StorageKey: cfg.StorageKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	case cliconfig.BackendRedis:
		m, err := mirror.NewRedisMirror(mirror.RedisConfig{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			StorageKey: cfg.StorageKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	case cliconfig.BackendNone:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "errship",
		Short:   "Tail an NDJSON error log and ship deduplicated batches to a collector",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.errship/config.toml), then apply flag overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (ERRSHIP_*)
			// These override file config but are overridden by flags (checked via changed map)
			cliconfig.ApplyEnvConfig(&cfg, changed)

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration (masking API key)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			m, closeMirror, err := buildMirror(cfg)
			if err != nil {
				return fmt.Errorf("create state mirror: %w", err)
			}
			if closeMirror != nil {
				defer func() {
					if err := closeMirror(); err != nil {
						log.Error().Err(err).Msg("close state mirror")
					}
				}()
			}

			if cfg.ResetState {
				if m == nil {
					return fmt.Errorf("--reset-state requires a state backend")
				}
				if err := m.Clear(context.Background()); err != nil {
					return fmt.Errorf("reset state: %w", err)
				}
				log.Info().Str("backend", cfg.StateBackend).Msg("state cleared")
				return nil
			}

			// Create zerolog adapter for the library
			zerologAdapter := logpkg.NewZerologAdapterWithLogger(log)

			// Pick the delivery sink: HTTP when a collector is configured,
			// NDJSON on stdout otherwise.
			var deliver errship.FlushFunc
			if cfg.ServiceURL != "" {
				hostname, _ := os.Hostname()
				hs := sink.NewHTTPSink(
					&http.Client{Timeout: cfg.HTTPTimeout},
					sink.Metadata{
						ServiceURL: cfg.ServiceURL,
						AuthKey:    cfg.AuthKey,
						Hostname:   hostname,
					},
					zerologAdapter,
				)
				deliver = hs.Send
			} else {
				deliver = sink.NewWriterSink(os.Stdout).Send
			}

			opts := []errship.Option{errship.WithLogger(zerologAdapter)}
			if m != nil {
				opts = append(opts, errship.WithMirror(m))
			}

			es, err := errship.New(errship.Config{
				GetKey: func(r errship.Record) string {
					return r.Name + "|" + r.Message
				},
				OnFlush:       deliver,
				MaxSize:       cfg.MaxBufferBytes,
				FlushInterval: cfg.FlushInterval,
			}, opts...)
			if err != nil {
				return fmt.Errorf("create errship: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if cfg.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
				go func() {
					log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("metrics server")
					}
				}()
				defer srv.Close()
			}

			if err := es.Start(ctx); err != nil {
				return fmt.Errorf("start errship: %w", err)
			}

			tl := tail.New(tail.Config{
				Path:         cfg.WatchPath,
				PollInterval: cfg.PollInterval,
				FromStart:    cfg.FromStart,
				Once:         cfg.Once,
			}, zerologAdapter)

			tailDone := make(chan error, 1)
			go func() {
				tailDone <- tl.Run(ctx, func(line []byte) error {
					var rec errship.Record
					if err := json.Unmarshal(line, &rec); err != nil {
						log.Warn().Err(err).Str("line", string(line)).Msg("skipping malformed line")
						return nil
					}
					if err := es.Report(ctx, rec); err != nil {
						if errors.Is(err, errship.ErrNotRunning) {
							return err
						}
						log.Error().Err(err).Msg("report error record")
					}
					return nil
				})
			}()

			// Wait for a signal, tailer completion (once mode), or tailer failure
			var tailErr error
			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case tailErr = <-tailDone:
				if tailErr != nil && errors.Is(tailErr, context.Canceled) {
					tailErr = nil
				}
			}
			cancel()

			// Graceful shutdown: drains buffered records through a final flush
			if err := es.Stop(); err != nil {
				return fmt.Errorf("stop errship: %w", err)
			}
			if tailErr != nil {
				return fmt.Errorf("tail %s: %w", cfg.WatchPath, tailErr)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.errship/config.toml)")
	root.Flags().StringVar(&cfg.WatchPath, "watch", cfg.WatchPath, "NDJSON error log file to follow")
	root.Flags().BoolVar(&cfg.FromStart, "from-start", cfg.FromStart, "read the watched file from the beginning instead of the end")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "drain available lines, flush, and exit")

	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "collector base URL (omit to print batches to stdout)")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for authentication")

	root.Flags().DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "periodic flush interval")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "poll interval when the watched file is idle")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().IntVar(&cfg.MaxBufferBytes, "max-buffer-bytes", cfg.MaxBufferBytes, "estimated buffer size that triggers an early flush")
	root.Flags().StringVar(&cfg.StorageKey, "storage-key", cfg.StorageKey, "key under which the snapshot blob is stored")

	root.Flags().StringVar(&cfg.StateBackend, "state-backend", cfg.StateBackend, "durable state backend: file, sqlite, redis, or none")
	root.Flags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "state directory for the file backend (default: $HOME/.errship/state)")
	root.Flags().StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database path (default: <state-dir>/errship.db)")
	root.Flags().StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis host:port for the redis backend")
	root.Flags().StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "redis password")
	if err := root.Flags().MarkHidden("redis-password"); err != nil {
		log.Info().Err(err).Msg("failed to hide redis-password flag")
	}
	root.Flags().IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "redis logical database number")

	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address for the Prometheus /metrics endpoint (empty disables)")
	root.Flags().BoolVar(&cfg.ResetState, "reset-state", cfg.ResetState, "clear the durable state mirror and exit")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("errship")
		os.Exit(1)
	}
}
