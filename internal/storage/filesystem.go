package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore reads artifacts from a directory tree
type FileStore struct {
	fsys fs.FS
}

// NewFileStore returns a FileStore rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{fsys: os.DirFS(dir)}
}

// NewFSStore returns a FileStore backed by an arbitrary fs.FS
func NewFSStore(fsys fs.FS) *FileStore {
	return &FileStore{fsys: fsys}
}

// ReadFile reads the artifact at path, which is slash-separated and relative to the root
func (f *FileStore) ReadFile(path string) ([]byte, error) {
	data, err := fs.ReadFile(f.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return data, nil
}
