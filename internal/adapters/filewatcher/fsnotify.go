// Package filewatcher watches the knowledge directory so edited guide
// documents reach the prompt without a restart. Each relevant change
// triggers a full knowledge reload in KnowledgeUseCase.Watch.
// Clean Architecture: Adapter implementing ports.FileWatcher.
package filewatcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/bizchat-go/internal/domain/ports"
)

// FSNotifyWatcher reports changes to knowledge documents. Files whose
// extension the loader cannot read are ignored.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // lowercase, e.g. ".md"
	logger     *slog.Logger
}

// NewFSNotifyWatcher creates a watcher for the knowledge directory.
// With no extensions it watches markdown files only.
func NewFSNotifyWatcher(extensions []string, logger *slog.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".md"}
	}
	lowered := make([]string, len(extensions))
	for i, e := range extensions {
		lowered[i] = strings.ToLower(e)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: lowered,
		logger:     logger,
	}, nil
}

// Watch reports document changes in dir until ctx is done. Only the
// directory itself is watched, matching the loader's flat layout.
// A rename drops the old document; the new name arrives as a create.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Has(fsnotify.Create):
					op = ports.FileCreated
				case event.Has(fsnotify.Write):
					op = ports.FileModified
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = ports.FileDeleted
				default:
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("knowledge watcher error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

// Stop releases the file system watch and ends Watch.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
