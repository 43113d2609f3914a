package main

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/gridopt/internal/logging"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	logger    *logging.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gridopt",
		Short: "Exhaustive grid search over bounded parameter spaces",
		Long: `gridopt evaluates an objective expression on every node of a regular
lattice spanning the given bounds and reports the best node found. A
Nelder-Mead backend is available for problems too large to enumerate.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(&logging.Config{
				Level:  opts.logLevel,
				Format: opts.logFormat,
				Output: "stderr",
			})
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "Log format (json, console)")

	cmd.AddCommand(newOptimizeCmd(opts), newVersionCmd())
	return cmd
}
