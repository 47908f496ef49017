// Package knowledge provides knowledge store adapters.
// Clean Architecture: Adapter implementing ports.KnowledgeStore.
package knowledge

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const (
	defaultMaxResults = 3
	snippetsPerDoc    = 2
	maxSnippetRunes   = 500
	snippetCutSuffix  = "..."
	snippetCutAtRunes = maxSnippetRunes - len(snippetCutSuffix)
)

// InMemoryStore keeps knowledge documents in memory and scores them by
// keyword occurrence.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs []document
}

// document caches the lowercased content next to the original.
type document struct {
	key        string
	lines      []string
	lower      string
	lowerLines []string
}

// NewInMemoryStore creates a store holding docs.
func NewInMemoryStore(docs []entities.KnowledgeDocument) *InMemoryStore {
	s := &InMemoryStore{}
	s.Replace(docs)
	return s
}

// Replace swaps the whole document set. Searches in flight keep the old set.
func (s *InMemoryStore) Replace(docs []entities.KnowledgeDocument) {
	prepared := make([]document, 0, len(docs))
	for _, d := range docs {
		lines := strings.Split(d.Content, "\n")
		lowerLines := make([]string, len(lines))
		for i, l := range lines {
			lowerLines[i] = strings.ToLower(l)
		}
		prepared = append(prepared, document{
			key:        d.Key,
			lines:      lines,
			lower:      strings.ToLower(d.Content),
			lowerLines: lowerLines,
		})
	}
	sort.SliceStable(prepared, func(i, j int) bool {
		return prepared[i].key < prepared[j].key
	})

	s.mu.Lock()
	s.docs = prepared
	s.mu.Unlock()
}

// Len returns the number of loaded documents.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search scores every document by the number of (non-overlapping, case
// insensitive) occurrences of each query token and returns the best
// maxResults, each with at most two snippets.
func (s *InMemoryStore) Search(query string, maxResults int) []entities.KnowledgeResult {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return []entities.KnowledgeResult{}
	}

	s.mu.RLock()
	docs := s.docs
	s.mu.RUnlock()

	results := make([]entities.KnowledgeResult, 0)
	for _, d := range docs {
		score := 0
		for _, tok := range tokens {
			score += strings.Count(d.lower, tok)
		}
		if score == 0 {
			continue
		}

		snippets := extractSnippets(d, tokens)
		if len(snippets) > snippetsPerDoc {
			snippets = snippets[:snippetsPerDoc]
		}
		results = append(results, entities.KnowledgeResult{
			Key:      d.key,
			Score:    score,
			Snippets: snippets,
		})
	}

	// docs are key-ordered, so a stable sort breaks score ties by key.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// extractSnippets collects runs of consecutive matching lines. A line that
// matches no token ends the run; a run longer than maxSnippetRunes is cut
// and a new one starts. Snippets are returned best first.
func extractSnippets(d document, tokens []string) []entities.ScoredSnippet {
	var (
		snippets []entities.ScoredSnippet
		current  []string
		score    int
	)

	flush := func() {
		if len(current) > 0 && score > 0 {
			snippets = append(snippets, entities.ScoredSnippet{
				Text:  strings.Join(current, "\n"),
				Score: score,
			})
		}
		current = nil
		score = 0
	}

	for i, lowerLine := range d.lowerLines {
		lineScore := 0
		for _, tok := range tokens {
			if strings.Contains(lowerLine, tok) {
				lineScore++
			}
		}

		if lineScore == 0 {
			flush()
			continue
		}

		current = append(current, d.lines[i])
		score += lineScore

		joined := strings.Join(current, "\n")
		if utf8.RuneCountInString(joined) > maxSnippetRunes {
			snippets = append(snippets, entities.ScoredSnippet{
				Text:  truncateRunes(joined, snippetCutAtRunes) + snippetCutSuffix,
				Score: score,
			})
			current = nil
			score = 0
		}
	}
	flush()

	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Score > snippets[j].Score
	})
	return snippets
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
