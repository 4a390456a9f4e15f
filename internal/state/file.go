package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per asset in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file holding the state of assetID.
func (f *FileStore) Path(assetID string) string {
	return filepath.Join(f.dir, url.PathEscape(assetID)+".json")
}

// Load implements Store.
func (f *FileStore) Load(ctx context.Context, assetID string) (State, error) {
	if err := validateAssetID(assetID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path(assetID))
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	st := State{}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", f.Path(assetID), err)
	}
	return st, nil
}

// Save implements Store. The file is replaced atomically.
func (f *FileStore) Save(ctx context.Context, assetID string, st State) error {
	if err := validateAssetID(assetID); err != nil {
		return err
	}
	if st == nil {
		st = State{}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.Path(assetID)); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Delete implements Store.
func (f *FileStore) Delete(ctx context.Context, assetID string) error {
	if err := validateAssetID(assetID); err != nil {
		return err
	}
	if err := os.Remove(f.Path(assetID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Close implements Store.
func (f *FileStore) Close() error {
	return nil
}
