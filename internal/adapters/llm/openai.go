// Package llm provides the OpenAI-compatible completion adapter.
// Clean Architecture: Adapter implementing ports.CompletionGateway.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
	"github.com/0xcro3dile/bizchat-go/internal/domain/ports"
)

const (
	DefaultModel       = openai.GPT3Dot5Turbo
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
	DefaultTimeout     = 2500 * time.Millisecond

	// defaultHTTPTimeout bounds calls that outlive their caller's timeout.
	defaultHTTPTimeout = 30 * time.Second

	outcomeOK = "ok"
)

// Config holds the provider settings.
type Config struct {
	APIKey      string
	BaseURL     string // empty means the public OpenAI endpoint
	Model       string
	MaxTokens   int
	Temperature *float32 // nil means DefaultTemperature; 0 is a valid setting
	HTTPTimeout time.Duration
}

// OpenAIGateway implements ports.CompletionGateway over the chat
// completions API. Each call issues exactly one request.
type OpenAIGateway struct {
	client      *openai.Client
	configured  bool
	model       string
	maxTokens   int
	temperature float32

	ledger   ports.CostLedger
	observer ports.LLMObserver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an OpenAIGateway.
type Option func(*OpenAIGateway)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *OpenAIGateway) { g.logger = l }
}

// WithObserver sets the metrics observer.
func WithObserver(o ports.LLMObserver) Option {
	return func(g *OpenAIGateway) { g.observer = o }
}

// NewOpenAIGateway creates a gateway that bills usage to ledger.
func NewOpenAIGateway(cfg Config, ledger ports.CostLedger, opts ...Option) *OpenAIGateway {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	temperature := float32(DefaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}

	g := &OpenAIGateway{
		client:      openai.NewClientWithConfig(clientCfg),
		configured:  cfg.APIKey != "",
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: temperature,
		ledger:      ledger,
		logger:      slog.Default(),
		tracer:      otel.Tracer("bizchat/llm"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured reports whether an API key is present.
func (g *OpenAIGateway) Configured() bool {
	return g.configured
}

// EstimateUnits approximates the token count of messages as runes/4.
func EstimateUnits(messages []entities.ChatMessage) float64 {
	runes := 0
	for _, m := range messages {
		runes += utf8.RuneCountInString(m.Content)
	}
	return float64(runes) / 4
}

type completion struct {
	content string
	err     error
}

// Complete sends messages and waits at most timeout for the answer.
// On timeout the request is abandoned, not cancelled: it finishes in the
// background and its usage is still billed to the session.
func (g *OpenAIGateway) Complete(ctx context.Context, messages []entities.ChatMessage, sessionID string, timeout time.Duration) (string, error) {
	ctx, span := g.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.model", g.model),
		attribute.Int("llm.messages", len(messages)),
	))
	defer span.End()

	start := time.Now()
	content, err := g.complete(ctx, messages, sessionID, timeout)

	outcome := outcomeOK
	var aiErr *entities.AIError
	if errors.As(err, &aiErr) {
		outcome = aiErr.Reason()
		span.SetStatus(codes.Error, outcome)
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("llm.outcome", outcome))
	if g.observer != nil {
		g.observer.ObserveLLMCall(outcome, time.Since(start))
	}
	return content, err
}

func (g *OpenAIGateway) complete(ctx context.Context, messages []entities.ChatMessage, sessionID string, timeout time.Duration) (string, error) {
	if !g.configured {
		return "", entities.NewAIError(entities.ErrConfig, nil)
	}

	estimate := EstimateUnits(messages)
	if !g.ledger.CheckLimit(sessionID, estimate) {
		return "", entities.NewAIError(entities.ErrBudgetExceeded,
			fmt.Errorf("estimated %.0f tokens, spent %.2f", estimate, g.ledger.Spent(sessionID)))
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	req := g.request(messages)
	done := make(chan completion, 1)
	callCtx := context.WithoutCancel(ctx)
	go func() {
		content, err := g.call(callCtx, req, sessionID)
		done <- completion{content: content, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-done:
		return c.content, c.err
	case <-timer.C:
		g.logger.Warn("llm call abandoned", "session_id", sessionID, "timeout", timeout)
		return "", entities.NewAIError(entities.ErrTimeout, fmt.Errorf("no answer within %s", timeout))
	case <-ctx.Done():
		return "", entities.NewAIError(entities.ErrNetwork, ctx.Err())
	}
}

func (g *OpenAIGateway) request(messages []entities.ChatMessage) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	temperature := g.temperature
	if temperature == 0 {
		// The request field is omitempty; the smallest positive value is
		// how go-openai sends an effective zero.
		temperature = math.SmallestNonzeroFloat32
	}
	return openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		MaxTokens:   g.maxTokens,
		Temperature: temperature,
	}
}

// call performs the request and bills usage. It runs to completion even
// when Complete has already returned.
func (g *OpenAIGateway) call(ctx context.Context, req openai.ChatCompletionRequest, sessionID string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		g.logger.Error("llm call failed", "session_id", sessionID, "error", err)
		return "", classify(err)
	}

	if tokens := resp.Usage.TotalTokens; tokens > 0 {
		g.ledger.Record(sessionID, tokens)
		if g.observer != nil {
			g.observer.ObserveLLMTokens(tokens)
		}
	}

	if len(resp.Choices) == 0 {
		return "", entities.NewAIError(entities.ErrResponseParse, errors.New("no choices in response"))
	}
	g.logger.Debug("llm call finished",
		"session_id", sessionID,
		"tokens", resp.Usage.TotalTokens,
		"finish_reason", resp.Choices[0].FinishReason,
	)
	return resp.Choices[0].Message.Content, nil
}

// classify maps a client error to its AIError kind.
func classify(err error) *entities.AIError {
	var (
		apiErr    *openai.APIError
		reqErr    *openai.RequestError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &apiErr):
		return entities.NewAIError(entities.ErrProvider, errors.New(apiErr.Message))
	case errors.As(err, &reqErr):
		return entities.NewAIError(entities.ErrProvider, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return entities.NewAIError(entities.ErrResponseParse, err)
	default:
		return entities.NewAIError(entities.ErrNetwork, err)
	}
}
