package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lockin/internal/fsutil"
)

// FileBackend stores each key as <dir>/<key>.json, written atomically with a
// best-effort .bak of the previous contents.
type FileBackend struct {
	dir string
	now func() time.Time
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir, now: time.Now}, nil
}

// Dir returns the data directory.
func (f *FileBackend) Dir() string {
	return f.dir
}

// Path returns the file holding key.
func (f *FileBackend) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileBackend) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (f *FileBackend) Write(key string, data []byte) error {
	path := f.Path(key)
	fsutil.BestEffortBackup(path, fsutil.FilePerm)
	if err := fsutil.WriteFileAtomic(path, data, fsutil.FilePerm); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Quarantine moves the stored file aside as <file>.corrupt.<timestamp> and
// returns the new path.
func (f *FileBackend) Quarantine(key string) (string, error) {
	return fsutil.Quarantine(f.Path(key), f.now())
}

func (f *FileBackend) Close() error { return nil }
