package cmd

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netanelgilad/funee/internal/errext"
)

// checkCmd is a SUPPLEMENTED FEATURE (not in spec.md): a dry run through
// emission that never invokes the Host Runtime, printing the reachable
// CanonicalName set so a user (or CI) can confirm a bundle resolves and
// its macros converge without actually running it. Grounded on k6's own
// `k6 inspect`/archive-validation style subcommands, named `check` to
// avoid implying a metrics "inspect" concept funee has none of.
var checkCmd = &cobra.Command{
	Use:   "check [entry]",
	Short: "Run the pipeline through emission without executing the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := bundleEntry(cmd.Context(), args[0], globalOptionsFromViper())
		if err != nil {
			errext.Fprint(log.StandardLogger(), err)
			return err
		}

		names := make([]string, 0, len(result.TreeShaken.Live))
		for cn := range result.TreeShaken.Live {
			names = append(names, fmt.Sprintf("%s#%s", cn.ModuleURI, cn.LocalName))
		}
		sort.Strings(names)

		fmt.Fprintf(cmd.OutOrStdout(), "entry point: %s#%s\n", result.EntryPoint.ModuleURI, result.EntryPoint.LocalName)
		fmt.Fprintf(cmd.OutOrStdout(), "%d declarations reachable after macro expansion:\n", len(names))
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	},
}
