package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/airship/internal/cliconfig"
	"github.com/bft-labs/airship/pkg/airship"
	"github.com/bft-labs/airship/pkg/log"
)

const helpDescription = `
Forward readings from a serial air-quality sensor to a local log and an HTTP endpoint.

Highlights:
  - Extracts JSON objects from a noisy byte stream; malformed frames are logged and skipped.
  - Every record is appended to the log before it is posted, so a down endpoint loses nothing locally.
  - Configure via file, env (AIRSHIP_*), or flags; --replay feeds a captured dump through the same pipeline.
`

var longHelp = "airship\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  airship --device /dev/ttyACM0 --endpoint http://localhost:8000/api/sensor-data/
  airship --replay capture.bin --queue-size 0 --log-level debug
  airship --config $HOME/.airship/config.toml --metrics-addr :9100
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "airship",
		Short:         "Forward serial sensor readings to a log file and an HTTP endpoint",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.airship/config.toml), then apply overrides
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

			// Apply environment variables (AIRSHIP_*)
			// These override file config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = cliconfig.SetLogLevel(cfg.LogLevel)

			// Log configuration (masking API key)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			logger.Info().Interface("config", logCfg).Msg("configuration")

			a, err := airship.New(cfg.Airship(),
				airship.WithLogger(log.NewZerologAdapterWithLogger(logger)),
			)
			if err != nil {
				return fmt.Errorf("create airship: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("start airship: %w", err)
			}

			// Wait for signal or completion
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
			case <-a.Done():
				if err := a.Err(); err != nil {
					return fmt.Errorf("airship crashed: %w", err)
				}
				logger.Info().Msg("source exhausted, exiting")
				return nil
			}

			// Graceful shutdown
			if err := a.Stop(); err != nil && !errors.Is(err, airship.ErrNotRunning) {
				return fmt.Errorf("stop airship: %w", err)
			}
			if err := a.Err(); err != nil {
				return fmt.Errorf("airship crashed: %w", err)
			}
			return nil
		},
	}

	// Flags
	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.airship/config.toml)")

	f.StringVar(&cfg.Device, "device", cfg.Device, "serial device path")
	f.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "serial baud rate")
	f.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "timeout for a single serial read")
	f.BoolVar(&cfg.WaitForDevice, "wait-device", cfg.WaitForDevice, "wait for the device to appear instead of failing")
	f.StringVar(&cfg.Replay, "replay", cfg.Replay, "read a captured byte dump instead of the device, then exit")

	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append-only record log")
	f.BoolVar(&cfg.SyncWrites, "sync", cfg.SyncWrites, "fsync the record log after every line")

	f.StringVar(&cfg.EndpointURL, "endpoint", cfg.EndpointURL, "URL receiving one POST per record")
	f.StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "bearer token for the endpoint (optional)")
	f.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")

	f.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "pause after an empty read")
	f.DurationVar(&cfg.MaxReadBackoff, "max-backoff", cfg.MaxReadBackoff, "maximum pause between failing reads")
	f.IntVar(&cfg.MaxBufferBytes, "max-buffer-bytes", cfg.MaxBufferBytes, "cap on bytes buffered while waiting for '}' (0 = no cap)")
	f.BoolVar(&cfg.DrainAll, "drain-all", cfg.DrainAll, "extract every complete frame per read (false = one per read)")
	f.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "delivery queue length (0 = send inline)")

	f.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for status.json (empty disables it)")
	f.DurationVar(&cfg.StatusInterval, "status-interval", cfg.StatusInterval, "how often status.json is written")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics and /latest on this address (optional)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("airship")
		os.Exit(1)
	}
}
