// Package catalog serves the dapp catalog document from a JSON file that is
// reloaded whenever it changes on disk.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/logger"
)

// Store holds the current catalog document.
type Store struct {
	path string
	log  logger.LoggerInterface

	mu   sync.RWMutex
	doc  json.RawMessage
	good bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewStore creates a store for the file at path. Call Load or Start before Get.
func NewStore(path string, log logger.LoggerInterface) *Store {
	return &Store{
		path: path,
		log:  log,
		doc:  errorDocument("catalog.json not found", ""),
		done: make(chan struct{}),
	}
}

// Get returns the catalog document, or an error document when no good
// version was ever loaded.
func (s *Store) Get() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Load reads the file once. A failure keeps the last good document.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.fail(errorDocument("catalog.json not found", ""))
		} else {
			s.fail(errorDocument("catalog.json read error", err.Error()))
		}
		return apperror.New(apperror.CodeCatalogUnavailable, apperror.WithCause(err), apperror.WithContext(s.path))
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		s.fail(errorDocument("catalog.json read error", err.Error()))
		return apperror.New(apperror.CodeCatalogUnavailable, apperror.WithCause(err), apperror.WithContext(s.path))
	}

	s.mu.Lock()
	s.doc = buf.Bytes()
	s.good = true
	s.mu.Unlock()
	return nil
}

// Start loads the file and watches its directory for changes until ctx is
// done or Close is called.
func (s *Store) Start(ctx context.Context) error {
	if err := s.Load(); err != nil {
		s.log.Warn(ctx, "catalog not loaded", "path", s.path, "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	s.wg.Add(1)
	go s.watch(ctx)
	return nil
}

// Close stops the watcher.
func (s *Store) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.wg.Wait()
	return err
}

func (s *Store) watch(ctx context.Context) {
	defer s.wg.Done()

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Load(); err != nil {
				s.log.Warn(ctx, "catalog reload failed", "path", s.path, "error", err)
				continue
			}
			s.log.Info(ctx, "catalog reloaded", "path", s.path)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn(ctx, "catalog watcher error", "error", err)
		}
	}
}

func (s *Store) fail(doc json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.good {
		s.doc = doc
	}
}

func errorDocument(msg, details string) json.RawMessage {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	data, _ := json.MarshalIndent(body, "", "  ")
	return data
}
