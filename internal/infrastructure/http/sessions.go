package http

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxTrackedSessions = 10000

// sessionRegistry remembers the session ids this server issued. Cost
// ceilings are keyed by session id, so an id a client made up is never
// accepted, and a client that drops its cookie gets its address's
// session back instead of a fresh budget.
type sessionRegistry struct {
	mu   sync.Mutex
	byID *expirable.LRU[string, string] // session id -> last client address
	byIP *expirable.LRU[string, string] // client address -> session id
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		byID: expirable.NewLRU[string, string](maxTrackedSessions, nil, ttl),
		byIP: expirable.NewLRU[string, string](maxTrackedSessions, nil, ttl),
	}
}

// resolve picks the session for a request. Issued ids are tried in order:
// the cookie, the body's sessionId, then the session last used from ip.
// Only when none is known is a new id issued. fresh reports whether the
// returned id differs from the cookie and must be sent back.
func (r *sessionRegistry) resolve(cookieID, bodyID, ip string) (id string, fresh bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.known(cookieID):
		id = cookieID
	case r.known(bodyID):
		id = bodyID
	default:
		if prev, ok := r.byIP.Get(ip); ok && r.known(prev) {
			id = prev
		} else {
			id = uuid.NewString()
		}
	}
	r.byID.Add(id, ip)
	r.byIP.Add(ip, id)
	return id, id != cookieID
}

func (r *sessionRegistry) known(id string) bool {
	if id == "" {
		return false
	}
	_, ok := r.byID.Get(id)
	return ok
}

func (r *sessionRegistry) Len() int {
	return r.byID.Len()
}
