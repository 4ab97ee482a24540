package storage

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/chrissnell/basinview/pkg/config"
	"go.uber.org/zap"
)

func TestFileStoreReadFile(t *testing.T) {
	fsys := fstest.MapFS{
		"gagesII/Plots/Tab_area_ID02300700_changes.png": &fstest.MapFile{Data: []byte("png")},
	}
	store := NewFSStore(fsys)

	data, err := store.ReadFile("gagesII/Plots/Tab_area_ID02300700_changes.png")
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("ReadFile() = %q, expected %q", data, "png")
	}

	_, err = store.ReadFile("gagesII/Timelapses/02300700.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(missing) error = %v, expected %v", err, ErrNotFound)
	}
}

func TestNew(t *testing.T) {
	logger := zap.NewNop().Sugar()

	store, err := New(config.StorageData{Backend: config.StorageBackendFilesystem, Root: t.TempDir()}, logger)
	if err != nil {
		t.Fatalf("New(filesystem) unexpected error: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("New(filesystem) = %T, expected *FileStore", store)
	}

	if _, err := New(config.StorageData{Backend: "s3"}, logger); err == nil {
		t.Error("New(s3) expected an error")
	}

	if _, err := New(config.StorageData{Backend: config.StorageBackendDatabase}, logger); err == nil {
		t.Error("New(database) without connection string expected an error")
	}
}
