package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"studytrack/internal/fsutil"
)

const (
	dataDirPerm  os.FileMode = 0700
	dataFilePerm os.FileMode = 0600
)

// ErrRecovered is wrapped by NewFileKV when the store file was unreadable
// and had to be restored from its .bak or reset. The returned store is
// usable in that case.
var ErrRecovered = errors.New("store file recovered")

// FileKV keeps the whole key space in one JSON object file. Every write
// rewrites the file atomically after copying the previous version to .bak.
// The in-memory copy is re-read whenever the file changed underneath it, so
// several processes sharing one file only overwrite each other per key.
type FileKV struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	data map[string]string
	seen os.FileInfo // file as last read or written
}

// NewFileKV opens (or lazily creates) the store file at path.
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	f := &FileKV{path: path, now: time.Now, data: map[string]string{}}
	if err := f.load(); err != nil {
		if errors.Is(err, ErrRecovered) {
			return f, err
		}
		return nil, err
	}
	return f, nil
}

// Path returns the backing file.
func (f *FileKV) Path() string { return f.path }

func (f *FileKV) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", f.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return f.recover(fmt.Errorf("%s is empty", filepath.Base(f.path)))
	}
	if err := json.Unmarshal(data, &f.data); err != nil {
		return f.recover(fmt.Errorf("parse %s: %w", filepath.Base(f.path), err))
	}
	if f.data == nil {
		f.data = map[string]string{}
	}
	f.seen, _ = os.Stat(f.path)
	return nil
}

// refresh re-reads the file when another writer replaced it since it was
// last seen, or always when force is set. An unreadable file keeps the
// in-memory copy.
func (f *FileKV) refresh(force bool) {
	info, err := os.Stat(f.path)
	if err != nil {
		return
	}
	if !force && f.seen != nil && os.SameFile(f.seen, info) &&
		f.seen.ModTime().Equal(info.ModTime()) && f.seen.Size() == info.Size() {
		return
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return
	}
	fresh := map[string]string{}
	if err := json.Unmarshal(data, &fresh); err != nil || fresh == nil {
		return
	}
	f.data = fresh
	f.seen = info
}

// recover tries the .bak copy first; either way the broken file is moved
// aside so it can be inspected later.
func (f *FileKV) recover(cause error) error {
	corruptPath := fmt.Sprintf("%s.corrupt.%s", f.path, f.now().Format("20060102-150405"))

	bak, bakErr := os.ReadFile(f.path + ".bak")
	if bakErr == nil && len(bytes.TrimSpace(bak)) > 0 {
		restored := map[string]string{}
		if err := json.Unmarshal(bak, &restored); err == nil {
			_ = os.Rename(f.path, corruptPath)
			f.data = restored
			_ = f.flush()
			return fmt.Errorf("%w: %v (restored from %s.bak)", ErrRecovered, cause, filepath.Base(f.path))
		}
	}

	_ = os.Rename(f.path, corruptPath)
	f.data = map[string]string{}
	_ = f.flush()
	return fmt.Errorf("%w: %v (reset; original moved to %s)", ErrRecovered, cause, corruptPath)
}

func (f *FileKV) flush() error {
	data, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize store: %w", err)
	}
	fsutil.BestEffortBackup(f.path, dataFilePerm)
	if err := fsutil.WriteFileAtomic(f.path, data, dataFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(f.path), err)
	}
	f.seen, _ = os.Stat(f.path)
	return nil
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh(false)
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh(true)

	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *FileKV) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh(true)

	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flush(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *FileKV) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh(false)
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileKV) Close() error { return nil }
