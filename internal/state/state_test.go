package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()
	stores := map[string]Store{}

	stores[BackendMemory] = NewMemoryStore()

	fileStore, err := NewFileStore(filepath.Join(dir, "state"))
	require.NoError(t, err)
	stores[BackendFile] = fileStore

	sqliteStore, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(dir, "state.db")})
	require.NoError(t, err)
	stores[BackendSQLite] = sqliteStore

	memSQLite, err := NewSQLiteStore(SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	stores["sqlite-memory"] = memSQLite

	for _, s := range stores {
		s := s
		t.Cleanup(func() { s.Close() })
	}
	return stores
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			st, err := store.Load(ctx, "asset-1")
			require.NoError(t, err)
			assert.NotNil(t, st)
			assert.Empty(t, st, "missing state loads as empty")

			want := State{
				"last_run":  "2024-03-01T00:00:00Z",
				"count":     float64(3),
				"nested":    map[string]interface{}{"ok": true},
				"remaining": []interface{}{"a", "b"},
			}
			require.NoError(t, store.Save(ctx, "asset-1", want))

			got, err := store.Load(ctx, "asset-1")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			other, err := store.Load(ctx, "asset-2")
			require.NoError(t, err)
			assert.Empty(t, other, "state is per asset")

			require.NoError(t, store.Save(ctx, "asset-1", State{"count": float64(4)}))
			got, err = store.Load(ctx, "asset-1")
			require.NoError(t, err)
			assert.Equal(t, State{"count": float64(4)}, got, "save replaces state")

			require.NoError(t, store.Delete(ctx, "asset-1"))
			got, err = store.Load(ctx, "asset-1")
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, store.Delete(ctx, "never-saved"))
		})
	}
}

func TestStore_NilStateSavesEmpty(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, "asset-nil", nil))
			got, err := store.Load(ctx, "asset-nil")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStore_InvalidAssetID(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "  ", ".", ".."} {
				_, err := store.Load(ctx, id)
				assert.True(t, errors.Is(err, ErrInvalidAssetID), "Load(%q) = %v", id, err)
				err = store.Save(ctx, id, State{})
				assert.True(t, errors.Is(err, ErrInvalidAssetID), "Save(%q) = %v", id, err)
				err = store.Delete(ctx, id)
				assert.True(t, errors.Is(err, ErrInvalidAssetID), "Delete(%q) = %v", id, err)
			}
		})
	}
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	st := State{"k": "v"}
	require.NoError(t, store.Save(ctx, "a", st))
	st["k"] = "mutated"

	got, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v", got["k"])

	got["k"] = "mutated again"
	again, _ := store.Load(ctx, "a")
	assert.Equal(t, "v", again["k"])
}

func TestFileStore_EscapesAssetID(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "../escape/attempt", State{"x": "y"}))

	path := store.Path("../escape/attempt")
	assert.Equal(t, dir, filepath.Dir(path))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path("asset-1"), []byte("{not json"), 0600))

	_, err = store.Load(context.Background(), "asset-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse state file")
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := NewSQLiteStore(SQLiteConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "asset-1", State{"token": "abc"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "asset-1")
	require.NoError(t, err)
	assert.Equal(t, "abc", got["token"])
}

func TestSQLiteStore_ConnectionPragmas(t *testing.T) {
	ctx := context.Background()

	store, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "state.db")})
	require.NoError(t, err)
	defer store.Close()

	var journalMode string
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous, "NORMAL")
}

func TestSQLiteStore_MemoryPragmas(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	var busyTimeout int
	require.NoError(t, store.db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		want    interface{}
		wantErr bool
	}{
		{name: "memory", cfg: Config{Backend: BackendMemory}, want: &MemoryStore{}},
		{name: "file", cfg: Config{Backend: BackendFile, Path: filepath.Join(dir, "files")}, want: &FileStore{}},
		{name: "default is file", cfg: Config{Path: filepath.Join(dir, "default")}, want: &FileStore{}},
		{name: "sqlite", cfg: Config{Backend: BackendSQLite, Path: filepath.Join(dir, "s.db")}, want: &SQLiteStore{}},
		{name: "file without path", cfg: Config{Backend: BackendFile}, wantErr: true},
		{name: "unknown", cfg: Config{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
		})
	}
}
