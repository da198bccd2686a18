package graph_test

import (
	"net/url"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/bundle/graph"
	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/loader"
)

func loadGraph(t *testing.T, files map[string]string, entry string) (*graph.Graph, string) {
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

	return graph.New(p.Registry()), entryURI
}

func TestShakeDropsUnreferencedDeclarations(t *testing.T) {
	t.Parallel()
	g, entryURI := loadGraph(t, map[string]string{
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
	result := graph.Shake(g, entry)

	assert.True(t, result.Live[entry])
	assert.True(t, result.Live[bundle.CanonicalName{ModuleURI: "file:///math.ts", LocalName: "add"}])
	assert.False(t, result.Live[bundle.CanonicalName{ModuleURI: "file:///math.ts", LocalName: "unused"}])
}

func TestShakeOrderIsDeterministic(t *testing.T) {
	t.Parallel()
	g, entryURI := loadGraph(t, map[string]string{
		"/a.ts": `export function helperA() { return 1; }`,
		"/b.ts": `export function helperB() { return 2; }`,
		"/entry.ts": `
import { helperA } from "./a.ts";
import { helperB } from "./b.ts";
export default function main() { return helperA() + helperB(); }
`,
	}, "/entry.ts")

	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	first := graph.Shake(g, entry)
	second := graph.Shake(g, entry)

	require.Equal(t, first.Order, second.Order)
	assert.Len(t, first.Order, 3)
}

func TestShakeFollowsTransitiveReferences(t *testing.T) {
	t.Parallel()
	g, entryURI := loadGraph(t, map[string]string{
		"/deep.ts": `export function leaf() { return 42; }`,
		"/mid.ts": `
import { leaf } from "./deep.ts";
export function mid() { return leaf(); }
`,
		"/entry.ts": `
import { mid } from "./mid.ts";
export default function main() { return mid(); }
`,
	}, "/entry.ts")

	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	result := graph.Shake(g, entry)

	assert.True(t, result.Live[bundle.CanonicalName{ModuleURI: "file:///deep.ts", LocalName: "leaf"}])
	assert.True(t, result.Live[bundle.CanonicalName{ModuleURI: "file:///mid.ts", LocalName: "mid"}])
}
