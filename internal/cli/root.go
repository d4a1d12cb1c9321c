package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the rollcall CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rollcall",
		Short: "Rollcall attendance ledger",
		Long:  "Attendance ledger and reporting engine with SQLite and remote REST persistence.",
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to config file (YAML)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitDBCommand(opts))

	return cmd
}
