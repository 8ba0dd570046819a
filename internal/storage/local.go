package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// LocalStorage implements Client using the local filesystem.
// Useful for development, single-machine use and tests.
type LocalStorage struct {
	keyed
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	s := &LocalStorage{BaseDir: baseDir}
	s.keyed = keyed{b: localBlobs{dir: baseDir}}
	return s
}

type localBlobs struct {
	dir string
}

func (l localBlobs) file(key string) string {
	return filepath.Join(l.dir, filepath.FromSlash(key))
}

func (l localBlobs) put(_ context.Context, key string, data []byte) error {
	p := l.file(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return eris.Wrap(err, "create directory")
	}
	// write-then-rename so readers never see a partial object
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", key)
	}
	if err := os.Rename(tmp, p); err != nil {
		return eris.Wrapf(err, "rename %s", key)
	}
	return nil
}

func (l localBlobs) get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.file(key))
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrNotFound, "%s", key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", key)
	}
	return data, nil
}

func (l localBlobs) list(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(l.file(prefix))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "list %s", prefix)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			keys = append(keys, prefix+e.Name())
		}
	}
	return keys, nil
}
