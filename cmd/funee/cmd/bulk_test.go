package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverEntriesFindsTypeScriptFilesRecursively(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte(""), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.ts"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(""), 0o644))

	entries, err := discoverEntries(dir)
	require.NoError(t, err)

	rels := make([]string, len(entries))
	for i, e := range entries {
		rel, err := filepath.Rel(dir, e)
		require.NoError(t, err)
		rels[i] = rel
	}
	sort.Strings(rels)
	assert.Equal(t, []string{"a.ts", filepath.Join("nested", "b.ts")}, rels)
}

func TestDiscoverEntriesHonorsFuneeIgnore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.ts"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.ts"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".funeeignore"), []byte("skip.ts\n"), 0o644))

	entries, err := discoverEntries(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(dir, "keep.ts"), entries[0])
}
