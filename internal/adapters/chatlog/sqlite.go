// Package chatlog provides chat log persistence adapters.
// Clean Architecture: Adapter implementing ports.ChatLogStore.
package chatlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const (
	DefaultMaxRows  = 10000
	DefaultKeepRows = 5000

	minKeywordRunes = 3
)

var (
	questionPunct = regexp.MustCompile(`[?.!,]`)
	spaces        = regexp.MustCompile(`\s+`)
)

// SQLiteStore implements ports.ChatLogStore with SQLite persistence.
// Keyword counts are cumulative and survive log pruning.
type SQLiteStore struct {
	mu       sync.Mutex
	db       *sql.DB
	maxRows  int
	keepRows int
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithRetention sets the row cap and how many rows survive a prune.
func WithRetention(maxRows, keepRows int) Option {
	return func(s *SQLiteStore) {
		if maxRows > 0 && keepRows > 0 && keepRows <= maxRows {
			s.maxRows, s.keepRows = maxRows, keepRows
		}
	}
}

// NewSQLiteStore opens (or creates) chatlog.db under dataPath.
func NewSQLiteStore(dataPath string, opts ...Option) (*SQLiteStore, error) {
	if dataPath == "" {
		dataPath = "./data"
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataPath, "chatlog.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db:       db,
		maxRows:  DefaultMaxRows,
		keepRows: DefaultKeepRows,
	}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		message TEXT NOT NULL,
		normalized TEXT NOT NULL,
		intent TEXT,
		mode TEXT NOT NULL,
		ai_mode INTEGER NOT NULL,
		response_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_logs_normalized ON chat_logs(normalized);
	CREATE TABLE IF NOT EXISTS keywords (
		word TEXT PRIMARY KEY,
		frequency INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NormalizeQuestion lowercases message, strips ?.!, and collapses white space.
func NormalizeQuestion(message string) string {
	q := questionPunct.ReplaceAllString(strings.ToLower(message), "")
	return strings.TrimSpace(spaces.ReplaceAllString(q, " "))
}

// Keywords returns the words of message counted for keyword stats.
func Keywords(message string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(message)) {
		if utf8.RuneCountInString(w) >= minKeywordRunes {
			words = append(words, w)
		}
	}
	return words
}

// Append records an exchange and its keywords, pruning old rows once the
// cap is exceeded.
func (s *SQLiteStore) Append(ctx context.Context, entry entities.ChatLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_logs (session_id, message, normalized, intent, mode, ai_mode, response_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.SessionID,
		entry.Message,
		NormalizeQuestion(entry.Message),
		entry.Intent,
		string(entry.Mode),
		entry.AIMode,
		entry.ResponseTime.Milliseconds(),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting chat log: %w", err)
	}

	for _, w := range Keywords(entry.Message) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO keywords (word, frequency) VALUES (?, 1)
			ON CONFLICT(word) DO UPDATE SET frequency = frequency + 1
		`, w)
		if err != nil {
			return fmt.Errorf("counting keyword: %w", err)
		}
	}

	var rows int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_logs`).Scan(&rows); err != nil {
		return fmt.Errorf("counting chat logs: %w", err)
	}
	if rows > s.maxRows {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM chat_logs WHERE id NOT IN (
				SELECT id FROM chat_logs ORDER BY id DESC LIMIT ?
			)
		`, s.keepRows)
		if err != nil {
			return fmt.Errorf("pruning chat logs: %w", err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored exchanges.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chat logs: %w", err)
	}
	return n, nil
}

// TopQuestions returns normalized questions longer than ten characters
// asked at least minCount times, most frequent first.
func (s *SQLiteStore) TopQuestions(ctx context.Context, minCount, limit int) ([]entities.FAQCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT normalized, COUNT(*) AS freq
		FROM chat_logs
		WHERE length(normalized) > 10
		GROUP BY normalized
		HAVING freq >= ?
		ORDER BY freq DESC, MIN(id) ASC
		LIMIT ?
	`, minCount, limit)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	candidates := []entities.FAQCandidate{}
	for rows.Next() {
		var c entities.FAQCandidate
		if err := rows.Scan(&c.Question, &c.Frequency); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		c.Suggested = true
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// TopKeywords returns the most frequent words, ties by word.
func (s *SQLiteStore) TopKeywords(ctx context.Context, limit int) ([]entities.KeywordCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT word, frequency FROM keywords ORDER BY frequency DESC, word ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying keywords: %w", err)
	}
	defer rows.Close()

	keywords := []entities.KeywordCount{}
	for rows.Next() {
		var k entities.KeywordCount
		if err := rows.Scan(&k.Word, &k.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
