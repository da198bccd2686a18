package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/watch"
)

func TestWatcherReportsFileWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.ts")
	require.NoError(t, os.WriteFile(path, []byte("export default function main() {}"), 0o644))

	logger, _ := test.NewNullLogger()
	events := make(chan watch.Event, 8)
	w, err := watch.New(logger, path, false, func(e watch.Event) { events <- e })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("export default function main() { return 1; }"), 0o644))

	select {
	case e := <-events:
		require.Equal(t, path, e.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a watch event")
	}
}

func TestWatcherRecursiveDirectoryAddsNewSubdirectories(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	logger, _ := test.NewNullLogger()
	events := make(chan watch.Event, 8)
	w, err := watch.New(logger, dir, true, func(e watch.Event) { events <- e })
	require.NoError(t, err)
	defer w.Close()

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))

	select {
	case e := <-events:
		require.Equal(t, sub, e.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the directory-create event")
	}
}
