package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
	"github.com/0xcro3dile/bizchat-go/internal/domain/ports"
)

const defaultReloadDebounce = 250 * time.Millisecond

// KnowledgeUseCase keeps the knowledge store in sync with the knowledge
// directory. Single Responsibility: Only knowledge maintenance.
type KnowledgeUseCase struct {
	loader   ports.DocumentLoader
	store    ports.KnowledgeStore
	dir      string
	logger   *slog.Logger
	debounce time.Duration

	mu sync.Mutex // serializes reloads and uploads
}

// NewKnowledgeUseCase creates a KnowledgeUseCase with injected dependencies.
func NewKnowledgeUseCase(loader ports.DocumentLoader, store ports.KnowledgeStore, dir string, logger *slog.Logger) *KnowledgeUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgeUseCase{
		loader:   loader,
		store:    store,
		dir:      dir,
		logger:   logger,
		debounce: defaultReloadDebounce,
	}
}

// Reload re-reads the directory and swaps the store contents. On error
// the store keeps its previous documents.
func (uc *KnowledgeUseCase) Reload(ctx context.Context) (int, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.reload(ctx)
}

func (uc *KnowledgeUseCase) reload(ctx context.Context) (int, error) {
	docs, err := uc.loader.LoadDir(ctx, uc.dir)
	if err != nil {
		return 0, fmt.Errorf("loading knowledge: %w", err)
	}
	uc.store.Replace(docs)
	uc.logger.Info("knowledge loaded", "dir", uc.dir, "documents", len(docs))
	return len(docs), nil
}

// Upsert stores content as the document called name and reloads.
func (uc *KnowledgeUseCase) Upsert(ctx context.Context, name, content string) error {
	key := SanitizeDocumentName(name)
	if key == "" || strings.TrimSpace(content) == "" {
		return entities.ErrInvalidDocument
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.loader.Save(ctx, uc.dir, entities.KnowledgeDocument{Key: key, Content: content}); err != nil {
		return fmt.Errorf("saving knowledge document: %w", err)
	}
	_, err := uc.reload(ctx)
	return err
}

// Documents returns the number of loaded documents.
func (uc *KnowledgeUseCase) Documents() int {
	return uc.store.Len()
}

// Watch reloads whenever the directory changes, coalescing bursts of
// events. It blocks until ctx is done or the watcher closes.
func (uc *KnowledgeUseCase) Watch(ctx context.Context, watcher ports.FileWatcher) error {
	events, err := watcher.Watch(ctx, uc.dir)
	if err != nil {
		return fmt.Errorf("watching knowledge dir: %w", err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			uc.logger.Debug("knowledge change", "path", ev.Path, "op", int(ev.Operation))
			if timer == nil {
				timer = time.NewTimer(uc.debounce)
			} else {
				timer.Reset(uc.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if _, err := uc.Reload(ctx); err != nil {
				uc.logger.Error("knowledge reload failed", "dir", uc.dir, "error", err)
			}
		}
	}
}

// SanitizeDocumentName turns an uploaded name into a bare document key.
// A trailing .md is dropped, spaces become dashes, and anything that is
// not a letter, digit, dash or underscore is removed.
func SanitizeDocumentName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), ".md") {
		name = name[:len(name)-len(".md")]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
