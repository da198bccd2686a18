package macro_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/bundle/macro"
	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/loader"
)

const createMacroModuleSource = `
export function createMacro(fn) { return fn; }
export function closure(e) { return e; }
export function canonicalName(x) { return x; }
export function tuple(a, b, c) { return [a, b, c]; }
export function unsafeCast(v) { return v; }
`

func loadPipeline(t *testing.T, files map[string]string) *bundle.Pipeline {
	t.Helper()
	fs := fsext.NewMemMapFs()
	for path, contents := range files {
		require.NoError(t, fsext.WriteFile(fs, path, []byte(contents), 0o644))
	}
	logger, _ := test.NewNullLogger()
	hostModules := map[string]loader.HostExport{
		"createMacro": {Name: "createMacro", Source: createMacroModuleSource},
	}
	l := loader.New(logger, map[string]fsext.Fs{"file": fs}, hostModules)
	return bundle.NewPipeline(logger, l)
}

func TestEngineExpandsBuiltinTupleMacro(t *testing.T) {
	t.Parallel()
	logger, _ := test.NewNullLogger()
	p := loadPipeline(t, map[string]string{
		"/entry.ts": `
import { tuple } from "funee:createMacro";
export default function main() { return tuple(1, 2, 3); }
`,
	})
	entryURI, err := p.Load(&url.URL{Scheme: "file", Path: "/"}, "/entry.ts")
	require.NoError(t, err)

	resolver := bundle.NewResolver(p.Registry())
	engine := macro.NewEngine(logger, p.Registry(), resolver)

	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	result, err := engine.Expand(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, result.Live[entry])

	entryMod, ok := p.Registry().Get(entryURI)
	require.True(t, ok)
	mainDecl, ok := entryMod.Lookup("main")
	require.True(t, ok)
	assert.Contains(t, mainDecl.Text, "[1, 2, 3]")
}

func TestEngineExpandsUserDefinedMacro(t *testing.T) {
	t.Parallel()
	logger, _ := test.NewNullLogger()
	p := loadPipeline(t, map[string]string{
		"/entry.ts": `
import { createMacro } from "funee:createMacro";
const double = createMacro((arg) => arg);
export default function main() { return double(21 + 21); }
`,
	})
	entryURI, err := p.Load(&url.URL{Scheme: "file", Path: "/"}, "/entry.ts")
	require.NoError(t, err)

	resolver := bundle.NewResolver(p.Registry())
	engine := macro.NewEngine(logger, p.Registry(), resolver)

	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	_, err = engine.Expand(context.Background(), entry)
	require.NoError(t, err)

	entryMod, ok := p.Registry().Get(entryURI)
	require.True(t, ok)
	mainDecl, ok := entryMod.Lookup("main")
	require.True(t, ok)
	assert.NotContains(t, mainDecl.Text, "double(")
}

func TestEngineDetectsSelfReferentialMacroLoop(t *testing.T) {
	t.Parallel()
	logger, _ := test.NewNullLogger()
	p := loadPipeline(t, map[string]string{
		"/entry.ts": `
import { createMacro } from "funee:createMacro";
const loopy = createMacro((arg) => ({ expression: "loopy(1)", references: {} }));
export default function main() { return loopy(1); }
`,
	})
	entryURI, err := p.Load(&url.URL{Scheme: "file", Path: "/"}, "/entry.ts")
	require.NoError(t, err)

	resolver := bundle.NewResolver(p.Registry())
	engine := macro.NewEngine(logger, p.Registry(), resolver)
	engine.IterationLimit = 5

	entry := bundle.CanonicalName{ModuleURI: entryURI, LocalName: "main"}
	_, err = engine.Expand(context.Background(), entry)
	require.Error(t, err)
	var limitErr *macro.ErrMacroExpansionLimitExceeded
	require.ErrorAs(t, err, &limitErr)
}
