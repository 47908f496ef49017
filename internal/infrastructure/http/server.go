// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
	"github.com/0xcro3dile/bizchat-go/internal/domain/ports"
	"github.com/0xcro3dile/bizchat-go/internal/domain/usecases"
)

// Options holds the server settings.
type Options struct {
	Addr              string
	ServiceName       string
	AdminToken        string
	CookieName        string
	SessionTTL        time.Duration
	RequestsPerMinute int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

// HTTPObserver counts served requests.
type HTTPObserver interface {
	ObserveHTTP(route, status string)
}

// SpendTracker reports the state of the per-session cost ledger.
type SpendTracker interface {
	Sessions() int
	Ceiling() float64
}

// PricingSource reports whether the pricing catalog loaded.
type PricingSource interface {
	Loaded() bool
}

// Dependencies groups what the handlers call into.
type Dependencies struct {
	Chat      *usecases.ChatUseCase
	Knowledge *usecases.KnowledgeUseCase
	Insights  *usecases.InsightsUseCase
	Cache     ports.ResponseCache
	LLM       ports.CompletionGateway
	Spend     SpendTracker
	Pricing   PricingSource
	Gatherer  prometheus.Gatherer
	Observer  HTTPObserver
}

// Server is the HTTP server for the chat API.
type Server struct {
	deps     Dependencies
	opts     Options
	logger   *slog.Logger
	limiter  *ipLimiter
	sessions *sessionRegistry
	engine   *gin.Engine
}

// NewServer creates a new HTTP server.
func NewServer(deps Dependencies, opts Options, logger *slog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":3000"
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "bizchat"
	}
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		deps:     deps,
		opts:     opts,
		logger:   logger,
		limiter:  newIPLimiter(opts.RequestsPerMinute),
		sessions: newSessionRegistry(opts.SessionTTL),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(s.opts.ServiceName),
		s.requestLogger(),
		cors(),
	)

	router.GET("/api/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api", s.rateLimit())
	api.POST("/chat", s.handleChat)

	admin := api.Group("/admin/ai", s.adminOnly())
	admin.POST("/knowledge", s.handleKnowledgeUpsert)
	admin.GET("/faq", s.handleFAQ)
	admin.GET("/keywords", s.handleKeywords)
	admin.GET("/status", s.handleStatus)

	return router
}

// Start runs the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("bizchat server starting", "addr", s.opts.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type chatResponseBody struct {
	entities.ChatResponse
	ResponseTimeMs int64 `json:"responseTimeMs"`
}

// handleChat answers one chat message.
func (s *Server) handleChat(c *gin.Context) {
	var req entities.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "잘못된 요청 형식입니다."})
		return
	}

	start := time.Now()
	resp, err := s.deps.Chat.Respond(c.Request.Context(), req, s.session(c, req.SessionID))
	if errors.Is(err, entities.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "메시지가 필요합니다."})
		return
	}
	if err != nil {
		s.logger.Error("chat failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "답변 생성에 실패했습니다."})
		return
	}

	c.JSON(http.StatusOK, chatResponseBody{
		ChatResponse:   *resp,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	})
}

type knowledgeUpsertRequest struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

// handleKnowledgeUpsert stores a knowledge document and reloads the store.
func (s *Server) handleKnowledgeUpsert(c *gin.Context) {
	var req knowledgeUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "파일명과 내용이 필요합니다."})
		return
	}

	err := s.deps.Knowledge.Upsert(c.Request.Context(), req.FileName, req.Content)
	if errors.Is(err, entities.ErrInvalidDocument) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "파일명과 내용이 필요합니다."})
		return
	}
	if err != nil {
		s.logger.Error("knowledge upsert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "업데이트에 실패했습니다."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "지식 베이스가 업데이트되었습니다.",
		"documents": s.deps.Knowledge.Documents(),
	})
}

func (s *Server) handleFAQ(c *gin.Context) {
	faq, err := s.deps.Insights.FAQ(c.Request.Context())
	if err != nil {
		s.logger.Error("faq mining failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "FAQ 생성에 실패했습니다."})
		return
	}
	c.JSON(http.StatusOK, faq)
}

func (s *Server) handleKeywords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	keywords, err := s.deps.Insights.Keywords(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("keyword stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "키워드 조회에 실패했습니다."})
		return
	}
	c.JSON(http.StatusOK, keywords)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"knowledgeDocuments": s.deps.Knowledge.Documents(),
		"cacheEntries":       s.deps.Cache.Len(),
		"aiConfigured":       s.deps.LLM.Configured(),
		"pricingLoaded":      s.deps.Pricing.Loaded(),
		"activeSessions":     s.sessions.Len(),
		"costSessions":       s.deps.Spend.Sessions(),
		"sessionCeiling":     s.deps.Spend.Ceiling(),
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
