// Package state persists the opaque per-asset state blob that the
// connector loads before handling actions and saves afterwards.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// State is the opaque state of one asset. The connector never interprets it.
type State map[string]interface{}

// ErrInvalidAssetID is returned for asset ids that cannot be used as keys.
var ErrInvalidAssetID = errors.New("invalid asset id")

// Store loads and saves asset state.
type Store interface {
	// Load returns the state saved for assetID, or an empty State when none exists.
	Load(ctx context.Context, assetID string) (State, error)

	// Save replaces the state for assetID.
	Save(ctx context.Context, assetID string, st State) error

	// Delete removes the state for assetID. Deleting missing state is not an error.
	Delete(ctx context.Context, assetID string) error

	// Close releases resources held by the store.
	Close() error
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config selects and configures a Store.
type Config struct {
	// Backend is memory, file or sqlite.
	Backend string

	// Path is the state directory (file) or database file (sqlite).
	Path string
}

// Open creates the Store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(cfg.Path)
	case BackendSQLite:
		return NewSQLiteStore(SQLiteConfig{Path: cfg.Path})
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

func validateAssetID(assetID string) error {
	trimmed := strings.TrimSpace(assetID)
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidAssetID, assetID)
	}
	return nil
}

// clone returns a shallow copy so callers cannot mutate stored state.
func (s State) clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
