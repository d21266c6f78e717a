package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"quiz-trainer/internal/config"
)

func newTestSQLiteKV(t *testing.T) (*SQLiteKV, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteKV(context.Background(), path)
	if err != nil {
		t.Fatalf("NewSQLiteKV failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, path
}

func assertRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "quiz_stats"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "quiz_stats", `{"0":{"correct":1}}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "quiz_stats", `{"0":{"correct":2}}`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "quiz_stats")
	if err != nil || !ok {
		t.Fatalf("expected stored key, got ok=%v err=%v", ok, err)
	}
	if value != `{"0":{"correct":2}}` {
		t.Fatalf("unexpected value: %q", value)
	}
}

func TestMemoryKVRoundTrip(t *testing.T) {
	assertRoundTrip(t, NewMemoryKV())
}

func TestMemoryKVClosed(t *testing.T) {
	store := NewMemoryKV()
	_ = store.Close()

	if err := store.Set(context.Background(), "k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, _, err := store.Get(context.Background(), "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestFileKVRoundTrip(t *testing.T) {
	store, err := NewFileKV(filepath.Join(t.TempDir(), "stats.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	assertRoundTrip(t, store)
}

func TestFileKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.json")

	store, err := NewFileKV(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	if err := store.Set(ctx, "total_attempts", "3"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened, err := NewFileKV(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	value, ok, err := reopened.Get(ctx, "total_attempts")
	if err != nil || !ok || value != "3" {
		t.Fatalf("expected persisted value 3, got %q ok=%v err=%v", value, ok, err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileKVRecoversFromCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store, err := Open(ctx, &config.Config{StoreDriver: config.DriverFile, StorePath: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed on corrupt file: %v", err)
	}
	if _, ok, err := store.Get(ctx, "total_attempts"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	kept, err := os.ReadFile(path + ".corrupt")
	if err != nil {
		t.Fatalf("corrupt file not moved aside: %v", err)
	}
	if string(kept) != "{not json" {
		t.Fatalf("corrupt file content changed: %q", kept)
	}

	if err := store.Set(ctx, "total_attempts", "1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	kept, err = os.ReadFile(path + ".corrupt")
	if err != nil || string(kept) != "{not json" {
		t.Fatalf("corrupt file must survive later writes, got %q err=%v", kept, err)
	}
}

func TestFileKVSetFailureKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "gone")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	store, err := NewFileKV(filepath.Join(dir, "stats.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}

	if err := store.Set(ctx, "k", "v2"); err == nil {
		t.Fatalf("expected write error after directory removal")
	}
	value, _, _ := store.Get(ctx, "k")
	if value != "v1" {
		t.Fatalf("expected rollback to v1, got %q", value)
	}
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	store, _ := newTestSQLiteKV(t)
	assertRoundTrip(t, store)
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	store, path := newTestSQLiteKV(t)

	if err := store.Set(ctx, "player:abc:total_attempts", "5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteKV(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "player:abc:total_attempts")
	if err != nil || !ok || value != "5" {
		t.Fatalf("expected 5, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name   string
		cfg    config.Config
		assert func(t *testing.T, store Store)
	}{
		{
			name: "memory",
			cfg:  config.Config{StoreDriver: config.DriverMemory},
			assert: func(t *testing.T, store Store) {
				if _, ok := store.(*MemoryKV); !ok {
					t.Fatalf("expected *MemoryKV, got %T", store)
				}
			},
		},
		{
			name: "file",
			cfg:  config.Config{StoreDriver: config.DriverFile, StorePath: filepath.Join(dir, "stats.json")},
			assert: func(t *testing.T, store Store) {
				if _, ok := store.(*FileKV); !ok {
					t.Fatalf("expected *FileKV, got %T", store)
				}
			},
		},
		{
			name: "sqlite",
			cfg:  config.Config{StoreDriver: config.DriverSQLite, StorePath: filepath.Join(dir, "stats.db")},
			assert: func(t *testing.T, store Store) {
				if _, ok := store.(*SQLiteKV); !ok {
					t.Fatalf("expected *SQLiteKV, got %T", store)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			store, err := Open(ctx, &cfg, zerolog.Nop())
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer store.Close()
			tc.assert(t, store)
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreDriver: "etcd"}, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "unsupported store driver") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestOpenRejectsBadRedisURL(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverRedis, RedisURL: "not-a-url"}
	if _, err := Open(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected redis URL parse error")
	}
}
