// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Mode tags how a chat response was produced.
type Mode string

const (
	ModeRule     Mode = "rule"
	ModeAI       Mode = "ai"
	ModeFallback Mode = "fallback"
)

// KnowledgeDocument is one entry of the knowledge base (a markdown file).
// Immutable after load; the whole set is swapped on reload.
type KnowledgeDocument struct {
	Key     string
	Content string
}

// ScoredSnippet is an excerpt of a knowledge document relevant to a query.
type ScoredSnippet struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// KnowledgeResult is a matching document with its best snippets.
type KnowledgeResult struct {
	Key      string          `json:"key"`
	Score    int             `json:"score"`
	Snippets []ScoredSnippet `json:"snippets"`
}

// PricedService is a row of the pricing catalog.
type PricedService struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   int64  `json:"basePrice"`
	Timeframe   string `json:"timeframe"`
}

// PricingMatch is a catalog row scored against a keyword set.
type PricingMatch struct {
	PricedService
	Score int `json:"score"`
}

// ServiceOffering is an entry of the rule engine's built-in service menu.
type ServiceOffering struct {
	Name        string
	Difficulty  string // 하, 중, 상, 극상
	PriceLabel  string // e.g. "100만"
	Description string
}

// SessionContext identifies the caller. The session id is the cost-tracking
// and cache-sharing boundary.
type SessionContext struct {
	SessionID string
	Username  string
}

// ChatMessage represents a completion turn sent to the LLM.
type ChatMessage struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// HistoryItem is a previous turn supplied by the client. Informational only.
type HistoryItem struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ChatRequest is an inbound chat message.
type ChatRequest struct {
	Message   string        `json:"message"`
	SessionID string        `json:"sessionId,omitempty"`
	AIMode    bool          `json:"aiMode"`
	History   []HistoryItem `json:"history,omitempty"`
}

// ChatResponse is the engine's answer. Treat as immutable once built.
type ChatResponse struct {
	Content        string   `json:"content"`
	Mode           Mode     `json:"mode"`
	Sources        []string `json:"sources"`
	Cached         bool     `json:"cached"`
	Intent         string   `json:"intent,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	FallbackReason string   `json:"fallbackReason,omitempty"`
}

// ChatLogEntry is one answered exchange, recorded with the masked message only.
type ChatLogEntry struct {
	SessionID    string
	Message      string
	Intent       string
	Mode         Mode
	AIMode       bool
	ResponseTime time.Duration
	CreatedAt    time.Time
}

// FAQCandidate is a frequently asked question mined from the chat log.
type FAQCandidate struct {
	Question  string `json:"question"`
	Frequency int    `json:"frequency"`
	Suggested bool   `json:"suggested"`
	Approved  bool   `json:"approved"`
}

// KeywordCount is a word frequency from the chat log.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}
