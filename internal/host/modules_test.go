package host_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/host"
	"github.com/netanelgilad/funee/internal/loader"
)

func TestHostModulesSatisfyRealCapabilityImports(t *testing.T) {
	t.Parallel()
	fs := fsext.NewMemMapFs()
	require.NoError(t, fsext.WriteFile(fs, "/entry.ts", []byte(`
import { readFile, log } from "funee";
export default function main() { log(readFile("entry.ts")); }
`), 0o644))

	logger, _ := test.NewNullLogger()
	l := loader.New(logger, map[string]fsext.Fs{"file": fs}, host.HostModules())
	b := bundle.NewBundler(logger, l)

	result, err := b.Bundle(context.Background(), &url.URL{Scheme: "file", Path: "/"}, "/entry.ts")
	require.NoError(t, err)
	assert.Contains(t, result.Script, "host.readFile")
	assert.Contains(t, result.Script, "host.log")
}

func TestHostModulesSatisfyCreateMacroBuiltins(t *testing.T) {
	t.Parallel()
	fs := fsext.NewMemMapFs()
	require.NoError(t, fsext.WriteFile(fs, "/entry.ts", []byte(`
import { tuple } from "funee:createMacro";
export default function main() { return tuple(1, 2); }
`), 0o644))

	logger, _ := test.NewNullLogger()
	l := loader.New(logger, map[string]fsext.Fs{"file": fs}, host.HostModules())
	b := bundle.NewBundler(logger, l)

	result, err := b.Bundle(context.Background(), &url.URL{Scheme: "file", Path: "/"}, "/entry.ts")
	require.NoError(t, err)
	assert.Contains(t, result.Script, "[1, 2]")
}
