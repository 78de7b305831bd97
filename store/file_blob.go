package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 100 * time.Millisecond

// FileBlob stores the blob in a local file. Writes go through a temp file and
// a rename so readers never see a partial document.
type FileBlob struct {
	path string
	log  zerolog.Logger

	mu          sync.Mutex
	lastWritten []byte
}

func NewFileBlob(path string, log zerolog.Logger) *FileBlob {
	return &FileBlob{
		path: path,
		log:  log.With().Str("component", "file-blob").Str("path", path).Logger(),
	}
}

func (b *FileBlob) Path() string {
	return b.path
}

func (b *FileBlob) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	return data, err
}

func (b *FileBlob) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	b.lastWritten = append(b.lastWritten[:0], data...)
	return nil
}

// Watch calls onChange when the file is changed by another writer. Changes
// produced by this FileBlob's own Write are not reported. The watch stops
// when ctx is done.
func (b *FileBlob) Watch(ctx context.Context, onChange func()) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	// The directory is watched so renames onto the path are seen.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go b.watchLoop(ctx, watcher, onChange)
	b.log.Info().Msg("watching blob for external changes")
	return nil
}

func (b *FileBlob) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	defer watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	name := filepath.Base(b.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				if b.isOwnWrite() {
					return
				}
				b.log.Debug().Msg("blob changed externally")
				onChange()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			b.log.Error().Err(err).Msg("file watcher error")
		}
	}
}

func (b *FileBlob) isOwnWrite() bool {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWritten != nil && bytes.Equal(data, b.lastWritten)
}
