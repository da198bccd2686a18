package cmd

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/errext"
	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/host"
	"github.com/netanelgilad/funee/internal/loader"
)

var runCmd = &cobra.Command{
	Use:   "run [entry]",
	Short: "Bundle entry and execute it in the host runtime",
	Long: `run loads entry, resolves its transitive imports, expands every
build-time macro to a fixpoint, tree-shakes unreferenced declarations,
emits a single script, and executes that script in the embedded host
runtime, matching spec.md's "funee <entry>" form.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry := args[0]
		opts := globalOptionsFromViper()

		result, err := bundleEntry(cmd.Context(), entry, opts)
		if err != nil {
			errext.Fprint(log.StandardLogger(), err)
			return err
		}

		rt := host.NewRuntime(log.StandardLogger(), fsext.NewOsFs(), filepath.Dir(entry))
		if err := rt.Run(result.Script); err != nil {
			errext.Fprint(log.StandardLogger(), err)
			return err
		}
		return nil
	},
}

// globalOptionsFromViper reads the viper-bound flag/env/config values run
// and emit share into a GlobalOptions, per cmd/k6/cmd/run.go's
// flag-to-lib.Options consolidation, narrowed to funee's own config shape.
func globalOptionsFromViper() GlobalOptions {
	defaults := GlobalOptions{Verbose: viper.GetBool("verbose"), TraceMacros: viper.GetBool("trace-macros")}
	return consolidateGlobalOptions(defaults, BuildEnvMap(os.Environ()))
}

// bundleEntry runs the full pipeline via bundle.Bundler, resolving entry
// against the current working directory the way cmd/k6/cmd/run.go resolves
// a relative script path against os.Getwd().
func bundleEntry(ctx context.Context, entry string, opts GlobalOptions) (*bundle.Result, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	bundlerLogger := log.StandardLogger().WithField("component", "bundler")
	if opts.TraceMacros {
		log.SetLevel(log.DebugLevel)
		bundlerLogger = bundlerLogger.WithField("trace", "macros")
	}

	l := loader.New(log.StandardLogger(), map[string]fsext.Fs{"file": fsext.NewOsFs()}, host.HostModules())
	b := bundle.NewBundler(bundlerLogger, l)
	if opts.MacroTimeoutSeconds.Valid {
		b.MacroTimeout = opts.MacroTimeoutSeconds.Int64
	}
	if opts.MacroIterationLimit.Valid {
		b.MacroIterationLimit = int(opts.MacroIterationLimit.Int64)
	}

	referrer := &url.URL{Scheme: "file", Path: ensureTrailingSlash(pwd)}
	return b.Bundle(ctx, referrer, normalizeEntrySpecifier(entry))
}

func ensureTrailingSlash(p string) string {
	if len(p) > 0 && p[len(p)-1] == '/' {
		return p
	}
	return p + "/"
}

// normalizeEntrySpecifier prefixes a bare relative path with "./" so
// internal/moduri.Resolve's grammar (which requires "." or "/" to treat a
// specifier as relative/absolute rather than a funee: bare import) accepts
// a plain CLI argument like "entry.ts" the same way it would "./entry.ts".
func normalizeEntrySpecifier(entry string) string {
	if strings.HasPrefix(entry, ".") || strings.HasPrefix(entry, "/") || strings.Contains(entry, "://") {
		return entry
	}
	return "./" + entry
}
