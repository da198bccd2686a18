// Package cmd implements spec.md §6's CLI shim: `funee <entry>` runs a
// bundle, `funee --emit <entry>` (here `funee emit <entry>`, a proper
// subcommand rather than a bare flag) writes the bundled script to
// standard output, and the SUPPLEMENTED FEATURES `funee check` /
// `--trace-macros` round out the surface SPEC_FULL.md §6 describes.
//
// Ported from grafana-k6's cmd/k6/cmd/root.go: the same cobra root command
// plus viper config-file/env/flag precedence, the same
// PersistentPreRun-wires-verbose-to-logrus pattern, and config.go ported
// from cmd/k6/cmd/config.go and cmd/state/global_options.go + env.go.
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netanelgilad/funee/internal/errext"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "funee",
	Short: "a macro-capable bundler and host runtime",
	Long: `funee resolves an entry module's transitive imports, expands its
build-time macros to a fixpoint, tree-shakes unreferenced declarations, and
either runs the result or emits it as a single script.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to RootCmd and runs it. Called once from
// main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(errext.ExitCodeOf(err)))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().Bool("trace-macros", false, "log every macro call-site rewrite at debug level")
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	// Like k6's --config, this makes no sense to bind to viper itself.
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default $HOME/.funee.yaml)")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(emitCmd)
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and FUNEE_* environment variables, per
// cmd/k6/cmd/root.go's initConfig.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetConfigName(".funee")
	viper.AddConfigPath("$HOME")
	viper.SetEnvPrefix("funee")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.WithError(err).Error("couldn't read global config")
		}
	}
}
