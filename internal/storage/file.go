package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chronoerrors "git.home.luguber.info/inful/chronodeck/internal/errors"
)

// FileStore keeps all keys in one JSON object on disk. Every write rewrites
// the file through a temporary sibling and a rename, so readers never see a
// partially written document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, chronoerrors.ConfigInvalid("storage.path", "file driver requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, chronoerrors.StorageFailure("open", "", fmt.Errorf("create state directory: %w", err)).
			WithContext("path", path)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	doc := map[string]json.RawMessage{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, chronoerrors.CorruptSnapshot(f.path, err)
	}
	return doc, nil
}

func (f *FileStore) save(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
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
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Get implements Store.
func (f *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, false, chronoerrors.StorageFailure("get", key, err)
	}
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set implements Store.
func (f *FileStore) Set(ctx context.Context, key string, value []byte) error {
	return f.SetMany(ctx, Entry{Key: key, Value: value})
}

// SetMany implements Store. Values must be valid JSON.
func (f *FileStore) SetMany(_ context.Context, entries ...Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future save.
		if !chronoerrors.IsCategory(err, chronoerrors.CategorySnapshot) {
			return chronoerrors.StorageFailure("set", "", err)
		}
		doc = map[string]json.RawMessage{}
	}
	for _, e := range entries {
		if !json.Valid(e.Value) {
			return chronoerrors.StorageFailure("set", e.Key, fmt.Errorf("value is not valid JSON"))
		}
		doc[e.Key] = json.RawMessage(e.Value)
	}
	if err := f.save(doc); err != nil {
		return chronoerrors.StorageFailure("set", "", err).WithContext("path", f.path)
	}
	return nil
}

// Delete implements Store.
func (f *FileStore) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return chronoerrors.StorageFailure("delete", "", err)
	}
	for _, k := range keys {
		delete(doc, k)
	}
	if err := f.save(doc); err != nil {
		return chronoerrors.StorageFailure("delete", "", err).WithContext("path", f.path)
	}
	return nil
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }
