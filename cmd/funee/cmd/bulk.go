package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	log "github.com/sirupsen/logrus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/netanelgilad/funee/internal/errext"
)

// bulkCmd is a SUPPLEMENTED FEATURE (not in spec.md): `funee emit`
// widened from one entry to every `.ts` file under a directory tree,
// honoring a `.funeeignore` file the way a `.gitignore` does. Grounded on
// sammcj-ingest's bmatcuk/doublestar + sabhiram/go-gitignore glob/ignore
// combo (doublestar itself is unwired here — see DESIGN.md) and
// ludo-technologies-jscan's progressbar.NewOptions usage for CLI progress
// reporting during the fetch/bundle phase when --verbose is off.
var bulkCmd = &cobra.Command{
	Use:   "bulk [dir] [outDir]",
	Short: "Bundle every entry module under dir, writing emitted scripts under outDir",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, outDir := args[0], args[1]
		entries, err := discoverEntries(dir)
		if err != nil {
			return err
		}

		opts := globalOptionsFromViper()
		var bar *progressbar.ProgressBar
		if !opts.Verbose {
			bar = progressbar.NewOptions(len(entries),
				progressbar.OptionSetDescription("bundling"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(18),
			)
		}

		for _, entry := range entries {
			result, err := bundleEntry(cmd.Context(), entry, opts)
			if err != nil {
				errext.Fprint(log.StandardLogger(), err)
				return err
			}

			rel, err := filepath.Rel(dir, entry)
			if err != nil {
				return err
			}
			outPath := filepath.Join(outDir, rel)
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(outPath, []byte(result.Script), 0o644); err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		return nil
	},
}

// discoverEntries walks dir for every `.ts` file not excluded by a
// `.funeeignore` at dir's root, the way sammcj-ingest's filesystem.Scan
// reads a root .gitignore once and checks every candidate path against it.
func discoverEntries(dir string) ([]string, error) {
	var matcher *ignore.GitIgnore
	ignorePath := filepath.Join(dir, ".funeeignore")
	if _, err := os.Stat(ignorePath); err == nil {
		matcher, err = ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ignorePath, err)
		}
	}

	var entries []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".ts") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		entries = append(entries, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func init() {
	RootCmd.AddCommand(bulkCmd)
}
