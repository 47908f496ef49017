package http

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const (
	adminTokenHeader = "X-Admin-Token"
	userHeader       = "X-User"
	requestIDHeader  = "X-Request-ID"

	visitorIdle   = 3 * time.Minute
	pruneInterval = time.Minute
)

// session resolves the caller's session against the registry, setting
// the cookie whenever the resolved id is not the one the client sent.
func (s *Server) session(c *gin.Context, bodyID string) entities.SessionContext {
	cookieID, _ := c.Cookie(s.opts.CookieName)
	id, fresh := s.sessions.resolve(cookieID, bodyID, c.ClientIP())
	if fresh {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.opts.CookieName, id, int(s.opts.SessionTTL.Seconds()), "/", "", false, true)
	}
	return entities.SessionContext{
		SessionID: id,
		Username:  c.GetHeader(userHeader),
	}
}

// adminOnly guards the admin routes. With no token configured the admin
// API is disabled.
func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.AdminToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "관리자 API가 비활성화되어 있습니다."})
			return
		}
		got := c.GetHeader(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.AdminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "관리자 권한이 필요합니다."})
			return
		}
		c.Next()
	}
}

// rateLimit applies the per-client token bucket.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요."})
			return
		}
		c.Next()
	}
}

// requestLogger logs each request and counts it for metrics.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.logger.Info("http request",
			"request_id", reqID,
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		if s.deps.Observer != nil {
			s.deps.Observer.ObserveHTTP(route, strconv.Itoa(status))
		}
	}
}

// cors allows browser clients from any origin.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+adminTokenHeader+", "+userHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastPrune time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPLimiter allows perMinute requests per client per minute. Zero
// disables limiting.
func newIPLimiter(perMinute int) *ipLimiter {
	l := &ipLimiter{
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	} else {
		l.limit = rate.Inf
	}
	return l
}

func (l *ipLimiter) Allow(ip string) bool {
	if l.limit == rate.Inf {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > pruneInterval {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(l.visitors, k)
			}
		}
		l.lastPrune = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
