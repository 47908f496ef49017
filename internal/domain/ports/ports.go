// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"time"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

// KnowledgeStore holds the knowledge documents and answers scored lookups.
type KnowledgeStore interface {
	// Search returns up to maxResults matching documents, best first.
	// A query matching nothing yields an empty slice, never an error.
	Search(query string, maxResults int) []entities.KnowledgeResult

	// Replace swaps the whole document set.
	Replace(docs []entities.KnowledgeDocument)

	// Len returns the number of loaded documents.
	Len() int
}

// PricingCatalog answers keyword lookups over the priced services.
type PricingCatalog interface {
	// Search returns the top matches; nil when the catalog is unavailable.
	Search(keywords []string) []entities.PricingMatch

	// ExtractKeywords returns the known service terms contained in message.
	ExtractKeywords(message string) []string
}

// ResponseCache stores AI responses for repeated PII-free queries.
type ResponseCache interface {
	// Key derives the cache key for a query answered in mode.
	Key(mode entities.Mode, query string) string

	Get(key string) (entities.ChatResponse, bool)
	Put(key string, resp entities.ChatResponse)
	Len() int
}

// CostLedger tracks accumulated LLM spend per session.
type CostLedger interface {
	// CheckLimit reports whether a call of estimatedUnits tokens fits under the ceiling.
	CheckLimit(sessionID string, estimatedUnits float64) bool

	// Record adds the cost of actualUnits tokens. It never decreases the total.
	Record(sessionID string, actualUnits int)

	// Spent returns the accumulated cost for the session.
	Spent(sessionID string) float64
}

// PrivacyFilter detects and redacts personal information.
type PrivacyFilter interface {
	Mask(text string) string
	Contains(text string) bool
}

// PromptBuilder assembles the system prompt for the AI path.
type PromptBuilder interface {
	Build(knowledge []entities.KnowledgeResult, pricing []entities.PricingMatch) string
	Sources(knowledge []entities.KnowledgeResult, pricing []entities.PricingMatch) []string
}

// CompletionGateway performs one bounded LLM call.
// Errors are always *entities.AIError.
type CompletionGateway interface {
	Complete(ctx context.Context, messages []entities.ChatMessage, sessionID string, timeout time.Duration) (string, error)

	// Configured reports whether a credential is present.
	Configured() bool
}

// RuleResponder is the deterministic intent matcher. It must not fail.
type RuleResponder interface {
	Respond(message string, sc entities.SessionContext) entities.ChatResponse
	ContextualSuggestions(message string) []string
}

// ChatLogStore persists answered exchanges for insights.
type ChatLogStore interface {
	Append(ctx context.Context, entry entities.ChatLogEntry) error
	Count(ctx context.Context) (int, error)
	TopQuestions(ctx context.Context, minCount, limit int) ([]entities.FAQCandidate, error)
	TopKeywords(ctx context.Context, limit int) ([]entities.KeywordCount, error)
}

// ChatObserver receives pipeline events for metrics.
type ChatObserver interface {
	ObserveResponse(mode entities.Mode, intent string)
	ObserveFallback(reason string)
	ObserveCache(hit bool)
}

// LLMObserver receives completion gateway events for metrics.
type LLMObserver interface {
	// ObserveLLMCall reports the outcome ("ok" or an AIError reason) and
	// the time the caller waited.
	ObserveLLMCall(outcome string, elapsed time.Duration)

	// ObserveLLMTokens reports tokens billed for one completed call.
	ObserveLLMTokens(tokens int)
}

// DocumentLoader reads knowledge documents from a source.
type DocumentLoader interface {
	// LoadDir reads every supported document under dir.
	LoadDir(ctx context.Context, dir string) ([]entities.KnowledgeDocument, error)

	// Save writes a document under dir, replacing any document with the same key.
	Save(ctx context.Context, dir string, doc entities.KnowledgeDocument) error

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
