package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netanelgilad/funee/internal/errext"
)

var emitCmd = &cobra.Command{
	Use:   "emit [entry]",
	Short: "Bundle entry and write the emitted script to standard output",
	Long: `emit runs the full pipeline — load, index, resolve, tree-shake,
expand macros, emit — and writes the resulting script text to stdout
instead of executing it, matching spec.md's "funee --emit <entry>" form.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := bundleEntry(cmd.Context(), args[0], globalOptionsFromViper())
		if err != nil {
			errext.Fprint(log.StandardLogger(), err)
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), result.Script)
		return nil
	},
}
