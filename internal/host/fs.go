package host

import (
	"os"
	"path/filepath"

	"github.com/netanelgilad/funee/internal/fsext"
)

// resolvePath joins a relative path against baseDir the way the teacher's
// own loader resolves relative module specifiers against a referrer;
// absolute paths pass through unchanged.
func (r *Runtime) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.baseDir, path)
}

func (r *Runtime) readFile(path string) (string, error) {
	data, err := fsext.ReadFile(r.fs, r.resolvePath(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Runtime) writeFile(path, contents string) error {
	return fsext.WriteFile(r.fs, r.resolvePath(path), []byte(contents), 0o644)
}

func (r *Runtime) isFile(path string) bool {
	info, err := r.fs.Stat(r.resolvePath(path))
	return err == nil && !info.IsDir()
}

// lstat mirrors os.Lstat's surface; afero.Fs does not distinguish symlinks
// from their targets for the in-memory/OS backends this runtime uses, so
// it is implemented over the same Stat the rest of the bridge uses.
func (r *Runtime) lstat(path string) (map[string]interface{}, error) {
	info, err := r.fs.Stat(r.resolvePath(path))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"name":    info.Name(),
		"size":    info.Size(),
		"isDir":   info.IsDir(),
		"modTime": info.ModTime().UnixMilli(),
		"mode":    info.Mode().String(),
	}, nil
}

func (r *Runtime) readdir(path string) ([]string, error) {
	entries, err := r.fs.ReadDir(r.resolvePath(path))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (r *Runtime) join(parts ...string) string {
	return filepath.Join(parts...)
}

func (r *Runtime) tmpdir() string {
	return os.TempDir()
}
