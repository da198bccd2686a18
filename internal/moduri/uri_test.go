package moduri_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/moduri"
)

func TestResolveFuneeNamespace(t *testing.T) {
	t.Parallel()
	u, err := moduri.Resolve(nil, "funee:fs")
	require.NoError(t, err)
	assert.Equal(t, "funee", u.Scheme)
	assert.Equal(t, "fs", u.Opaque)
}

func TestResolveRelative(t *testing.T) {
	t.Parallel()
	referrer, err := url.Parse("file:///path/to/entry.ts")
	require.NoError(t, err)

	u, err := moduri.Resolve(referrer, "./other.ts")
	require.NoError(t, err)
	assert.Equal(t, "file:///path/to/other.ts", u.String())
}

func TestResolveHTTPRejected(t *testing.T) {
	t.Parallel()
	_, err := moduri.Resolve(nil, "http://example.com/mod.ts")
	require.Error(t, err)
}

func TestResolveBareRejected(t *testing.T) {
	t.Parallel()
	_, err := moduri.Resolve(nil, "lodash")
	require.Error(t, err)
}

func TestDirTrimsLastSegment(t *testing.T) {
	t.Parallel()
	u, err := url.Parse("file:///a/b/c.ts")
	require.NoError(t, err)
	assert.Equal(t, "/a/b/", moduri.Dir(u).Path)
}
