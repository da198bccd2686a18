package emit_test

import (
	"net/url"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/bundle/emit"
	"github.com/netanelgilad/funee/internal/bundle/graph"
	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/loader"
)

func loadShaken(t *testing.T, files map[string]string, entry string) (*graph.Graph, *graph.Result, string) {
	t.Helper()
	fs := fsext.NewMemMapFs()
	for path, contents := range files {
		require.NoError(t, fsext.WriteFile(fs, path, []byte(contents), 0o644))
	}
	logger, _ := test.NewNullLogger()
	l := loader.New(logger, map[string]fsext.Fs{"file": fs}, nil)
	p := bundle.NewPipeline(logger, l)

	entryURI, err := p.Load(&url.URL{Scheme: "file", Path: "/"}, entry)
	require.NoError(t, err)

	g := graph.New(p.Registry())
	entryName := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	result := graph.Shake(g, entryName)
	return g, result, entryURI
}

func TestEmitRenamesAndConcatenatesDeterministically(t *testing.T) {
	t.Parallel()
	g, result, entryURI := loadShaken(t, map[string]string{
		"/math.ts": `
export function add(a, b) { return a + b; }
export function unused(a, b) { return a - b; }
`,
		"/entry.ts": `
import { add } from "./math.ts";
export default function main() { return add(1, 2); }
`,
	}, "/entry.ts")

	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	out, err := emit.Emit(g, result, emit.Options{EntryPoint: entry})
	require.NoError(t, err)

	assert.NotContains(t, out, "unused")
	assert.Contains(t, out, "declaration_0")
	assert.Contains(t, out, "();\n")
}

func TestEmitIsDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"/a.ts": `export function helperA() { return 1; }`,
		"/b.ts": `export function helperB() { return 2; }`,
		"/entry.ts": `
import { helperA } from "./a.ts";
import { helperB } from "./b.ts";
export default function main() { return helperA() + helperB(); }
`,
	}

	g1, result1, entryURI1 := loadShaken(t, files, "/entry.ts")
	entry1 := bundle.CanonicalName{ModuleURI: entryURI1, LocalName: "main"}
	out1, err := emit.Emit(g1, result1, emit.Options{EntryPoint: entry1})
	require.NoError(t, err)

	g2, result2, entryURI2 := loadShaken(t, files, "/entry.ts")
	entry2 := bundle.CanonicalName{ModuleURI: entryURI2, LocalName: "main"}
	out2, err := emit.Emit(g2, result2, emit.Options{EntryPoint: entry2})
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
}

func TestEmitOrdersVariableInitializersBeforeUse(t *testing.T) {
	t.Parallel()
	g, result, entryURI := loadShaken(t, map[string]string{
		"/entry.ts": `
const base = 10;
const derived = base + 1;
export default function main() { return derived; }
`,
	}, "/entry.ts")

	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	out, err := emit.Emit(g, result, emit.Options{EntryPoint: entry})
	require.NoError(t, err)

	baseIdx := indexOfSubstring(out, "= 10")
	derivedIdx := indexOfSubstring(out, "+ 1")
	require.GreaterOrEqual(t, baseIdx, 0)
	require.GreaterOrEqual(t, derivedIdx, 0)
	assert.Less(t, baseIdx, derivedIdx)
}

func TestEmitRewritesHostNamespaceReferences(t *testing.T) {
	t.Parallel()
	logger, _ := test.NewNullLogger()
	fs := fsext.NewMemMapFs()
	require.NoError(t, fsext.WriteFile(fs, "/entry.ts", []byte(`
import { readFile } from "funee:fs";
export default function main() { return readFile("x.txt"); }
`), 0o644))
	hostModules := map[string]loader.HostExport{
		"fs": {Name: "fs", Source: `export function readFile(p) { return p; }`},
	}
	l := loader.New(logger, map[string]fsext.Fs{"file": fs}, hostModules)
	p := bundle.NewPipeline(logger, l)
	entryURI, err := p.Load(&url.URL{Scheme: "file", Path: "/"}, "/entry.ts")
	require.NoError(t, err)

	g := graph.New(p.Registry())
	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	result := graph.Shake(g, entry)

	out, err := emit.Emit(g, result, emit.Options{EntryPoint: entry})
	require.NoError(t, err)
	assert.Contains(t, out, "host.readFile")
}

func indexOfSubstring(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
