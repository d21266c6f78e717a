package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const corruptSuffix = ".corrupt"

// FileKV keeps every key in one JSON object on disk. Writes go to a temp
// file in the same directory and are renamed into place.
type FileKV struct {
	path string

	mu     sync.Mutex
	values map[string]string
	closed bool
}

// NewFileKV loads path when it exists. A file that does not decode is moved
// aside to path+".corrupt" and the store starts empty.
func NewFileKV(path string, log zerolog.Logger) (*FileKV, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz_stats.json"
	}

	store := &FileKV{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return store, nil
	}
	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Malformed store file, starting empty")
		if err := os.Rename(path, path+corruptSuffix); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to move malformed store file aside")
		}
		return store, nil
	}
	for key, value := range decoded {
		store.values[key] = value
	}
	return store, nil
}

func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return "", false, ErrClosed
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	previous, existed := f.values[key]
	f.values[key] = value
	if err := f.flushLocked(); err != nil {
		if existed {
			f.values[key] = previous
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *FileKV) flushLocked() error {
	encoded, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileKV) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
