package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rollcall/rollcall/internal/api"
	"github.com/rollcall/rollcall/internal/config"
	"github.com/rollcall/rollcall/internal/ledger"
	"github.com/rollcall/rollcall/internal/recognition"
	"github.com/rollcall/rollcall/internal/report"
	"github.com/rollcall/rollcall/internal/settings"
	"github.com/rollcall/rollcall/internal/store"
	"github.com/rollcall/rollcall/internal/store/rest"
	"github.com/rollcall/rollcall/internal/store/sqlite"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the attendance API server",
		Long: `Start the HTTP API server over the configured persistence backend.

The backend comes from the config file: "sqlite" opens (and migrates) a
local database file, "rest" connects to a remote REST endpoint and fails
fast when it is unreachable.

Example:
  rollcall serve --config rollcall.yaml
  rollcall serve --listen :9000 --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()
	slog.Info("store ready", "backend", cfg.Backend)

	settingsStore := settings.New(st)
	resolved, err := settingsStore.Get(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load settings", err)
	}

	faces := recognition.NewFaceService(st, settings.Float(resolved, settings.KeyFaceThreshold))
	voices := recognition.NewVoiceService(st, settings.Float(resolved, settings.KeyVoiceThreshold))
	led := ledger.New(st)
	reports := report.NewEngine(st)

	_, app := api.New(st, led, reports, settingsStore, faces, voices)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Listen)
		errChan <- app.Listen(cfg.Listen)
	}()

	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return WrapExitError(ExitFailure, "shutdown failed", err)
		}
		return nil
	case err := <-errChan:
		if err != nil {
			return WrapExitError(ExitFailure, "server stopped", err)
		}
		return nil
	case <-ctx.Done():
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

// loadConfig resolves the config: explicit path, or defaults when none
// was given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore dispatches on the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendRest:
		return rest.Open(ctx, cfg.Rest.URL, cfg.Rest.Key)
	default:
		return sqlite.Open(cfg.SQLite.Path)
	}
}
