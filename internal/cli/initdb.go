package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rollcall/rollcall/internal/store/sqlite"
)

// InitDBOptions holds flags for the init-db command.
type InitDBOptions struct {
	*RootOptions
	Database string
}

// NewInitDBCommand creates the init-db command.
func NewInitDBCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitDBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create or migrate the SQLite database",
		Long: `Create the SQLite database file if it does not exist and bring its
schema up to the current version. Safe to run repeatedly.

Example:
  rollcall init-db --db data/rollcall.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitDB(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runInitDB(opts *InitDBOptions) error {
	configureLogging(opts.Verbose)

	path := opts.Database
	if path == "" {
		cfg, err := loadConfig(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		path = cfg.SQLite.Path
	}

	st, err := sqlite.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize database", err)
	}
	defer st.Close()

	slog.Info("database ready", "path", path)
	return nil
}
