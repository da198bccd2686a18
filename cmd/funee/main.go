// Command funee is spec.md §6's CLI shim: `funee run <entry>` executes a
// bundle, `funee emit <entry>` writes the bundled script to stdout, and
// `funee check <entry>` / `funee bulk <dir> <outDir>` round out the
// SUPPLEMENTED FEATURES. Ported from grafana-k6's cmd/k6/main.go — a
// single call into the cmd package's Execute.
package main

import "github.com/netanelgilad/funee/cmd/funee/cmd"

func main() {
	cmd.Execute()
}
