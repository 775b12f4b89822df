package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatchUnsupported is returned by Watch for backends without a file.
var ErrWatchUnsupported = errors.New("backend does not support watching")

const watchDebounce = 150 * time.Millisecond

// Watch reports changes to the stored document made by this or any other
// process. Bursts of events are coalesced. The channel is closed when ctx
// is done.
func (s *Storage) Watch(ctx context.Context) (<-chan struct{}, error) {
	p, ok := s.backend.(pather)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	path, err := filepath.Abs(p.Path(DocumentKey))
	if err != nil {
		return nil, fmt.Errorf("resolve document path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the directory: atomic writes replace the file, which drops a
	// watch on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	out := make(chan struct{}, 1)
	go s.watchLoop(ctx, w, filepath.Base(path), out)
	return out, nil
}

func (s *Storage) watchLoop(ctx context.Context, w *fsnotify.Watcher, name string, out chan<- struct{}) {
	defer close(out)
	defer w.Close()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			fire = s.clock.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("document watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}
