package loader_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/loader"
	"github.com/netanelgilad/funee/internal/moduri"
)

func newTestLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestLoadLocal(t *testing.T) {
	t.Parallel()
	fs := fsext.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/path/to", 0o755))
	require.NoError(t, fsext.WriteFile(fs, "/path/to/file.ts", []byte("export const x = 1;"), 0o644))

	l := loader.New(newTestLogger(), map[string]fsext.Fs{"file": fs}, nil)

	moduleURL, err := moduri.Resolve(&url.URL{Scheme: "file", Path: "/path/"}, "./to/file.ts")
	require.NoError(t, err)

	src, err := l.Load(moduleURL, "./to/file.ts")
	require.NoError(t, err)
	assert.Equal(t, "file:///path/to/file.ts", src.URL.String())
	assert.Equal(t, "export const x = 1;", string(src.Data))
}

func TestLoadLocalNonexistent(t *testing.T) {
	t.Parallel()
	fs := fsext.NewMemMapFs()
	l := loader.New(newTestLogger(), map[string]fsext.Fs{"file": fs}, nil)

	moduleURL, err := moduri.Resolve(nil, "/nonexistent.ts")
	require.NoError(t, err)

	_, err = l.Load(moduleURL, "/nonexistent.ts")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "nonexistent.ts"))
}

func TestLoadRemoteFromStubFilesystem(t *testing.T) {
	t.Parallel()
	httpsFS := fsext.NewMemMapFs()
	require.NoError(t, fsext.WriteFile(httpsFS, "/mod.ts", []byte("export const y = 2;"), 0o644))

	l := loader.New(newTestLogger(), map[string]fsext.Fs{"https": httpsFS}, nil)
	moduleURL, err := moduri.Resolve(nil, "https://example.com/mod.ts")
	require.NoError(t, err)

	src, err := l.Load(moduleURL, "https://example.com/mod.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const y = 2;", string(src.Data))
}

func TestLoadMemoizesConcurrentRequests(t *testing.T) {
	t.Parallel()
	fs := fsext.NewMemMapFs()
	require.NoError(t, fsext.WriteFile(fs, "/m.ts", []byte("export const z = 3;"), 0o644))
	l := loader.New(newTestLogger(), map[string]fsext.Fs{"file": fs}, nil)

	moduleURL, err := moduri.Resolve(nil, "/m.ts")
	require.NoError(t, err)

	const n = 16
	results := make(chan *loader.SourceData, n)
	for i := 0; i < n; i++ {
		go func() {
			src, err := l.Load(moduleURL, "/m.ts")
			require.NoError(t, err)
			results <- src
		}()
	}
	var first *loader.SourceData
	for i := 0; i < n; i++ {
		src := <-results
		if first == nil {
			first = src
		}
		assert.Same(t, first, src)
	}
}

func TestLoadHostNamespace(t *testing.T) {
	t.Parallel()
	hostModules := map[string]loader.HostExport{
		"fs": {Name: "fs", Source: "export function readFile(p) { return host.readFile(p); }"},
	}
	l := loader.New(newTestLogger(), nil, hostModules)

	moduleURL, err := moduri.Resolve(nil, "funee:fs")
	require.NoError(t, err)

	src, err := l.Load(moduleURL, "funee:fs")
	require.NoError(t, err)
	assert.Contains(t, string(src.Data), "readFile")
}

func TestReadSourceStdin(t *testing.T) {
	t.Parallel()
	l := loader.New(newTestLogger(), map[string]fsext.Fs{"file": fsext.NewMemMapFs()}, nil)
	src, err := loader.ReadSource(newTestLogger(), "-", "/path/to/pwd", l, strings.NewReader("test contents"))
	require.NoError(t, err)
	assert.Equal(t, "test contents", string(src.Data))
}
