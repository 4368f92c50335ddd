package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Store holds the current catalog and swaps it atomically on reload.
type Store struct {
	current atomic.Pointer[Catalog]
	path    string
	logger  *logrus.Logger
}

// NewStore returns a store serving the catalog at path, or the defaults
// when path is empty.
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Store{path: path, logger: logger}

	c := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}
	s.current.Store(c)
	return s, nil
}

// Current returns the catalog in effect.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Reload re-reads the catalog file. The previous catalog stays in effect
// when the file is invalid.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	c, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}

// Watch reloads the catalog whenever its file changes, until ctx is done.
// The parent directory is watched so atomic rename-based saves are seen.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.WithError(err).WithField("path", s.path).Warn("Catalog reload failed, keeping previous catalog")
					continue
				}
				s.logger.WithField("path", s.path).Info("Catalog reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.WithError(err).Error("Catalog watcher error")
			}
		}
	}()

	return nil
}
