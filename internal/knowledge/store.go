package knowledge

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/zhouzirui/resort-concierge/backend/internal/metrics"
)

// Store keeps the most recently loaded document. New sessions snapshot it.
type Store struct {
	path    string
	log     *zap.Logger
	metrics *metrics.Metrics

	mu  sync.RWMutex
	doc Document
	err error
}

// NewStore loads path once. A LoadError here is fatal to startup.
func NewStore(path string, log *zap.Logger, m *metrics.Metrics) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	doc, err := Load(path)
	if err != nil {
		return nil, err
	}

	log.Info("knowledge document loaded",
		zap.String("path", path),
		zap.Int("bytes", len(doc.Content)),
	)

	return &Store{
		path:    path,
		log:     log,
		metrics: m,
		doc:     doc,
	}, nil
}

// Current returns the active document, or the LoadError that made it
// unavailable.
func (s *Store) Current() (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return Document{}, s.err
	}
	return s.doc, nil
}

// Reload re-reads the file. A missing file marks the store unavailable; any
// other failure keeps serving the previous document.
func (s *Store) Reload() error {
	doc, err := Load(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.metrics.KnowledgeReload(false)
		if errors.Is(err, fs.ErrNotExist) {
			s.err = err
			s.log.Error("knowledge document removed", zap.String("path", s.path), zap.Error(err))
		} else {
			s.log.Warn("knowledge reload failed, keeping previous document", zap.String("path", s.path), zap.Error(err))
		}
		return err
	}

	s.doc = doc
	s.err = nil
	s.metrics.KnowledgeReload(true)
	s.log.Info("knowledge document reloaded", zap.String("path", s.path), zap.Int("bytes", len(doc.Content)))
	return nil
}

// Watch reloads the document whenever its file changes. It watches the parent
// directory so editors that replace the file by rename are picked up. Watch
// blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	s.log.Info("watching knowledge document", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			_ = s.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("knowledge watcher error", zap.Error(err))
		}
	}
}
