// Package app wires the adapters, use cases and HTTP server together.
// Clean Architecture: Composition root - the only place concrete types meet.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/bizchat-go/internal/adapters/cache"
	"github.com/0xcro3dile/bizchat-go/internal/adapters/chatlog"
	"github.com/0xcro3dile/bizchat-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/bizchat-go/internal/adapters/knowledge"
	"github.com/0xcro3dile/bizchat-go/internal/adapters/ledger"
	"github.com/0xcro3dile/bizchat-go/internal/adapters/llm"
	"github.com/0xcro3dile/bizchat-go/internal/adapters/loader"
	"github.com/0xcro3dile/bizchat-go/internal/adapters/pricing"
	"github.com/0xcro3dile/bizchat-go/internal/config"
	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
	"github.com/0xcro3dile/bizchat-go/internal/domain/ports"
	"github.com/0xcro3dile/bizchat-go/internal/domain/privacy"
	"github.com/0xcro3dile/bizchat-go/internal/domain/prompt"
	"github.com/0xcro3dile/bizchat-go/internal/domain/rules"
	"github.com/0xcro3dile/bizchat-go/internal/domain/usecases"
	bizhttp "github.com/0xcro3dile/bizchat-go/internal/infrastructure/http"
	"github.com/0xcro3dile/bizchat-go/internal/infrastructure/metrics"
)

// App is a fully wired chatbot.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	Chat      *usecases.ChatUseCase
	Knowledge *usecases.KnowledgeUseCase
	Insights  *usecases.InsightsUseCase
	Server    *bizhttp.Server

	ledger    *ledger.Ledger
	chatLog   *chatlog.SQLiteStore
	registry  *prometheus.Registry
	shutdowns []func(context.Context) error
}

// NewLogger builds the JSON logger at the configured level.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// New builds every component and loads the knowledge base and pricing
// catalog. Missing data degrades the AI prompt but never fails startup.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger}

	if cfg.Tracing.Enabled {
		shutdown, err := initTracer(ctx, cfg.Tracing.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.shutdowns = append(a.shutdowns, shutdown)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.registry)

	a.ledger = ledger.New(cfg.Cost.SessionCeiling, cfg.Cost.UnitRatePer1K)
	temperature := cfg.LLM.Temperature
	gateway := llm.NewOpenAIGateway(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: &temperature,
		HTTPTimeout: cfg.LLM.HTTPTimeout,
	}, a.ledger, llm.WithLogger(logger), llm.WithObserver(m))
	if !gateway.Configured() {
		logger.Warn("no LLM API key configured, AI mode will answer with rules")
	}

	store := knowledge.NewInMemoryStore(nil)
	a.Knowledge = usecases.NewKnowledgeUseCase(loader.NewMarkdownLoader(), store, cfg.Knowledge.Dir, logger)
	if n, err := a.Knowledge.Reload(ctx); err != nil {
		logger.Error("knowledge load failed", "dir", cfg.Knowledge.Dir, "error", err)
	} else {
		logger.Info("knowledge loaded", "dir", cfg.Knowledge.Dir, "documents", n)
	}

	catalog, err := pricing.LoadFile(cfg.Pricing.File)
	if err != nil {
		logger.Warn("pricing catalog unavailable", "file", cfg.Pricing.File, "error", err)
	}

	var chatLog ports.ChatLogStore
	if cfg.ChatLog.Enabled {
		a.chatLog, err = chatlog.NewSQLiteStore(cfg.ChatLog.DataDir,
			chatlog.WithRetention(cfg.ChatLog.MaxRows, cfg.ChatLog.KeepRows))
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("opening chat log: %w", err)
		}
		chatLog = a.chatLog
		a.Insights = usecases.NewInsightsUseCase(a.chatLog)
	} else {
		a.Insights = usecases.NewInsightsUseCase(nil)
	}

	responseCache := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
	a.Chat = usecases.NewChatUseCase(usecases.ChatDependencies{
		Privacy:   privacy.NewFilter(),
		Rules:     rules.NewEngine(nil),
		Knowledge: store,
		Pricing:   catalog,
		Prompts:   prompt.NewBuilder(),
		LLM:       gateway,
		Cache:     responseCache,
		ChatLog:   chatLog,
		Observer:  m,
	}, cfg.LLM.Timeout, logger)

	a.Server = bizhttp.NewServer(bizhttp.Dependencies{
		Chat:      a.Chat,
		Knowledge: a.Knowledge,
		Insights:  a.Insights,
		Cache:     responseCache,
		LLM:       gateway,
		Spend:     a.ledger,
		Pricing:   catalog,
		Gatherer:  a.registry,
		Observer:  m,
	}, bizhttp.Options{
		Addr:              cfg.Server.Addr,
		ServiceName:       cfg.Tracing.ServiceName,
		AdminToken:        cfg.Admin.Token,
		CookieName:        cfg.Session.CookieName,
		SessionTTL:        cfg.Session.TTL,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}, logger)

	return a, nil
}

// Serve runs the HTTP server and its background jobs until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Start(ctx)
	})
	g.Go(func() error {
		a.sweepSessions(ctx)
		return nil
	})
	if a.cfg.Knowledge.Watch {
		watcher, err := filewatcher.NewFSNotifyWatcher(loader.NewMarkdownLoader().SupportedExtensions(), a.logger)
		if err != nil {
			return fmt.Errorf("creating knowledge watcher: %w", err)
		}
		defer watcher.Stop()
		g.Go(func() error {
			if err := a.Knowledge.Watch(ctx, watcher); err != nil {
				// The server keeps answering from the loaded snapshot.
				a.logger.Error("knowledge watch stopped", "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Ask answers a single message without the HTTP layer.
func (a *App) Ask(ctx context.Context, message string, aiMode bool, sessionID string) (*entities.ChatResponse, error) {
	return a.Chat.Respond(ctx, entities.ChatRequest{
		Message: message,
		AIMode:  aiMode,
	}, entities.SessionContext{SessionID: sessionID})
}

// Close releases the chat log and flushes traces.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.chatLog != nil {
		errs = append(errs, a.chatLog.Close())
	}
	for _, shutdown := range a.shutdowns {
		errs = append(errs, shutdown(ctx))
	}
	return errors.Join(errs...)
}

// sweepSessions forgets cost state of sessions idle longer than the
// session TTL.
func (a *App) sweepSessions(ctx context.Context) {
	every := a.cfg.Session.SweepEvery
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.ledger.Sweep(a.cfg.Session.TTL); n > 0 {
				a.logger.Debug("idle sessions swept", "sessions", n)
			}
		}
	}
}

func initTracer(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
