package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags, matching cmd/k6/cmd/root.go's
// own package-level Version var.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the funee version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "funee %s\n", Version)
		return nil
	},
}
