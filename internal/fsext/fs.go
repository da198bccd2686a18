// Package fsext wraps github.com/spf13/afero behind a narrow interface, the
// way grafana-k6's own lib/fsext package does, so the Module Loader and the
// host "fs" bridge can run against an in-memory filesystem in tests.
package fsext

import (
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"
)

// Fs is the subset of afero.Fs the bundler and host runtime need.
type Fs interface {
	Open(name string) (afero.File, error)
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

type aferoFs struct {
	afero.Fs
}

func (a aferoFs) ReadDir(name string) ([]fs.DirEntry, error) {
	infos, err := afero.ReadDir(a.Fs, name)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

// NewOsFs returns an Fs backed by the real operating-system filesystem.
func NewOsFs() Fs {
	return aferoFs{afero.NewOsFs()}
}

// NewMemMapFs returns an in-memory Fs, used throughout the test suite.
func NewMemMapFs() Fs {
	return aferoFs{afero.NewMemMapFs()}
}

// NewCacheOnReadFs wraps base with a layer that caches reads from source
// into itself (or into base, if layer is nil), with entries expiring after
// cachePeriod seconds (0 = forever). Mirrors the teacher's fsext.NewCacheOnReadFs,
// used so repeated local-file resolutions within one bundle run don't repeat
// stat/read syscalls.
func NewCacheOnReadFs(source, layer Fs, cachePeriod int64) Fs {
	var sourceFs, layerFs afero.Fs
	if source != nil {
		sourceFs = source.(aferoFs).Fs
	}
	if layer != nil {
		layerFs = layer.(aferoFs).Fs
	} else {
		layerFs = afero.NewMemMapFs()
	}
	if sourceFs == nil {
		sourceFs = layerFs
	}
	return aferoFs{afero.NewCacheOnReadFs(sourceFs, layerFs, time.Duration(cachePeriod)*time.Second)}
}

// ReadFile reads the whole contents of name from fsys.
func ReadFile(fsys Fs, name string) ([]byte, error) {
	if a, ok := fsys.(aferoFs); ok {
		return afero.ReadFile(a.Fs, name)
	}
	return nil, os.ErrInvalid
}

// WriteFile writes data to name in fsys, creating it if necessary.
func WriteFile(fsys Fs, name string, data []byte, perm os.FileMode) error {
	if a, ok := fsys.(aferoFs); ok {
		return afero.WriteFile(a.Fs, name, data, perm)
	}
	return os.ErrInvalid
}
