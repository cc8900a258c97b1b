package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileSlot stores each key as <dir>/<key>.json, replaced atomically on write.
type FileSlot struct {
	dir      string
	mu       sync.Mutex
	modTimes map[string]time.Time // last write made through this slot, by path
}

// NewFileSlot returns a slot rooted at dir. The directory is created on first write.
func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{
		dir:      dir,
		modTimes: make(map[string]time.Time),
	}
}

// Path returns the file backing key.
func (s *FileSlot) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileSlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.Path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot file: %w", err)
	}
	return data, true, nil
}

func (s *FileSlot) Put(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp slot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp slot file: %w", err)
	}

	path := s.Path(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace slot file: %w", err)
	}
	if info, err := os.Stat(path); err == nil {
		s.modTimes[path] = info.ModTime()
	}
	return nil
}

// Watch calls onExternalWrite whenever the file behind key changes and the
// change was not made through this slot. It stops when ctx is done.
func (s *FileSlot) Watch(ctx context.Context, key string, onExternalWrite func()) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch data directory: %w", err)
	}

	path := filepath.Clean(s.Path(key))
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if s.ownWrite(path) {
					continue
				}
				onExternalWrite()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("storage: watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (s *FileSlot) ownWrite(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.modTimes[path]
	return ok && !info.ModTime().After(last)
}
