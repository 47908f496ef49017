// Package ledger tracks LLM spend per session.
// Clean Architecture: Adapter implementing ports.CostLedger.
package ledger

import (
	"sync"
	"time"
)

const (
	DefaultSessionCeiling = 1000.0 // KRW
	DefaultUnitRatePer1K  = 2.0    // KRW per 1,000 tokens
)

// Ledger accumulates cost per session. Mutations of one session are
// serialized; different sessions proceed in parallel.
type Ledger struct {
	ceiling float64
	rate    float64
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	spent    float64
	lastSeen time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a ledger. Non-positive arguments fall back to the defaults.
func New(ceiling, ratePer1K float64, opts ...Option) *Ledger {
	if ceiling <= 0 {
		ceiling = DefaultSessionCeiling
	}
	if ratePer1K <= 0 {
		ratePer1K = DefaultUnitRatePer1K
	}
	l := &Ledger{
		ceiling:  ceiling,
		rate:     ratePer1K,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cost converts a token count to KRW.
func (l *Ledger) Cost(units float64) float64 {
	return units / 1000 * l.rate
}

// Ceiling returns the per-session limit.
func (l *Ledger) Ceiling() float64 {
	return l.ceiling
}

// CheckLimit reports whether a call of estimatedUnits fits under the
// ceiling. Reaching the ceiling exactly is allowed.
func (l *Ledger) CheckLimit(sessionID string, estimatedUnits float64) bool {
	s := l.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spent+l.Cost(estimatedUnits) <= l.ceiling
}

// Record adds the cost of actualUnits. Non-positive counts are ignored.
func (l *Ledger) Record(sessionID string, actualUnits int) {
	if actualUnits <= 0 {
		return
	}
	s := l.session(sessionID)
	s.mu.Lock()
	s.spent += l.Cost(float64(actualUnits))
	s.mu.Unlock()
}

// Spent returns the accumulated cost for the session.
func (l *Ledger) Spent(sessionID string) float64 {
	l.mu.Lock()
	s, ok := l.sessions[sessionID]
	l.mu.Unlock()
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spent
}

// Sessions returns the number of tracked sessions.
func (l *Ledger) Sessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Sweep drops sessions untouched for longer than idle and returns how
// many were removed.
func (l *Ledger) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, s := range l.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(l.sessions, id)
			removed++
		}
	}
	return removed
}

// session returns the entry for id, touched under l.mu so a concurrent
// Sweep cannot drop it between lookup and use.
func (l *Ledger) session(id string) *session {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[id]
	if !ok {
		s = &session{}
		l.sessions[id] = s
	}
	s.mu.Lock()
	s.lastSeen = l.now()
	s.mu.Unlock()
	return s
}
