package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/gridopt/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridopt version %s (%s)\n", version.Version, version.Commit)
		},
	}
}
