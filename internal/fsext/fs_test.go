package fsext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/fsext"
)

func TestMemMapReadWrite(t *testing.T) {
	t.Parallel()
	fs := fsext.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/a/b", 0o755))
	require.NoError(t, fsext.WriteFile(fs, "/a/b/c.ts", []byte("export const x = 1;"), 0o644))

	data, err := fsext.ReadFile(fs, "/a/b/c.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const x = 1;", string(data))

	info, err := fs.Stat("/a/b/c.ts")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestCacheOnReadFs(t *testing.T) {
	t.Parallel()
	backing := fsext.NewMemMapFs()
	require.NoError(t, fsext.WriteFile(backing, "/x.ts", []byte("1"), 0o644))

	cached := fsext.NewCacheOnReadFs(backing, nil, 0)
	data, err := fsext.ReadFile(cached, "/x.ts")
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}
