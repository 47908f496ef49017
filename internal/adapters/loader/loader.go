// Package loader provides knowledge document loading adapters.
// Clean Architecture: Adapter implementing ports.DocumentLoader.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

// MarkdownLoader loads knowledge documents from markdown files.
// The document key is the file name without its extension.
type MarkdownLoader struct {
	extensions []string
}

// NewMarkdownLoader creates a loader for .md files.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{extensions: []string{".md"}}
}

// Load reads a single document from the given path.
func (l *MarkdownLoader) Load(ctx context.Context, path string) (*entities.KnowledgeDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &entities.KnowledgeDocument{
		Key:     DocumentKey(path),
		Content: string(content),
	}, nil
}

// LoadDir reads every supported file directly under dir, ordered by key.
// A missing directory yields an empty set, not an error.
func (l *MarkdownLoader) LoadDir(ctx context.Context, dir string) ([]entities.KnowledgeDocument, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading knowledge dir: %w", err)
	}

	var docs []entities.KnowledgeDocument
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !l.Supports(e.Name()) {
			continue
		}
		doc, err := l.Load(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", e.Name(), err)
		}
		docs = append(docs, *doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

// Save writes doc as <key>.md under dir, creating dir if needed.
// The key must already be a bare file name.
func (l *MarkdownLoader) Save(ctx context.Context, dir string, doc entities.KnowledgeDocument) error {
	if doc.Key == "" || doc.Key != filepath.Base(doc.Key) {
		return fmt.Errorf("invalid document key %q", doc.Key)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating knowledge dir: %w", err)
	}

	path := filepath.Join(dir, doc.Key+l.extensions[0])
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(doc.Content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *MarkdownLoader) SupportedExtensions() []string {
	return l.extensions
}

// Supports reports whether path has a supported extension.
func (l *MarkdownLoader) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DocumentKey derives the knowledge key from a file path.
func DocumentKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
