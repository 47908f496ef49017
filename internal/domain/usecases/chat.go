// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code - only business logic plus tracing.
package usecases

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
	"github.com/0xcro3dile/bizchat-go/internal/domain/ports"
)

const (
	// FallbackPrefix precedes the rule answer when the AI path fails.
	FallbackPrefix = "죄송합니다. 현재 AI 분석이 일시적으로 불가합니다. 규칙 기반으로 답변드리겠습니다.\n\n"

	// IntentAIResponse tags answers produced by the LLM.
	IntentAIResponse = "ai_response"

	DefaultAITimeout      = 2500 * time.Millisecond
	defaultKnowledgeHits  = 3
	anonymousSession      = "anonymous"
	unknownFallbackReason = "unknown"
)

// ChatState is a step of the request pipeline.
type ChatState int

const (
	StateIdle ChatState = iota
	StateMasking
	StateRuleDispatch
	StateAIDispatch
	StateResponded
)

func (s ChatState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMasking:
		return "masking"
	case StateRuleDispatch:
		return "rule_dispatch"
	case StateAIDispatch:
		return "ai_dispatch"
	case StateResponded:
		return "responded"
	}
	return "unknown"
}

// ChatDependencies groups the ports the chat pipeline needs.
// ChatLog and Observer are optional.
type ChatDependencies struct {
	Privacy   ports.PrivacyFilter
	Rules     ports.RuleResponder
	Knowledge ports.KnowledgeStore
	Pricing   ports.PricingCatalog
	Prompts   ports.PromptBuilder
	LLM       ports.CompletionGateway
	Cache     ports.ResponseCache
	ChatLog   ports.ChatLogStore
	Observer  ports.ChatObserver
}

// ChatUseCase answers chat messages in rule or AI mode.
// Single Responsibility: Only the dispatch pipeline.
type ChatUseCase struct {
	deps      ChatDependencies
	aiTimeout time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
// A non-positive aiTimeout defaults to 2.5s.
func NewChatUseCase(deps ChatDependencies, aiTimeout time.Duration, logger *slog.Logger) *ChatUseCase {
	if aiTimeout <= 0 {
		aiTimeout = DefaultAITimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		deps:      deps,
		aiTimeout: aiTimeout,
		logger:    logger,
		tracer:    otel.Tracer("bizchat/chat"),
		now:       time.Now,
	}
}

// run tracks one request through the pipeline states.
type run struct {
	state ChatState
	span  trace.Span
}

func (r *run) transition(to ChatState) {
	r.span.AddEvent("transition", trace.WithAttributes(
		attribute.String("chat.from", r.state.String()),
		attribute.String("chat.to", to.String()),
	))
	r.state = to
}

// Respond answers one message. The only error is entities.ErrEmptyMessage;
// every AI failure becomes a fallback response.
func (uc *ChatUseCase) Respond(ctx context.Context, req entities.ChatRequest, sc entities.SessionContext) (*entities.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, entities.ErrEmptyMessage
	}
	if sc.SessionID == "" {
		sc.SessionID = req.SessionID
	}
	if sc.SessionID == "" {
		sc.SessionID = anonymousSession
	}

	ctx, span := uc.tracer.Start(ctx, "chat.respond", trace.WithAttributes(
		attribute.Bool("chat.ai_mode", req.AIMode),
	))
	defer span.End()

	start := uc.now()
	r := &run{state: StateIdle, span: span}

	r.transition(StateMasking)
	masked := uc.deps.Privacy.Mask(req.Message)
	hasPII := uc.deps.Privacy.Contains(req.Message)

	var resp entities.ChatResponse
	if req.AIMode {
		r.transition(StateAIDispatch)
		ai, err := uc.respondAI(ctx, masked, hasPII, sc.SessionID)
		if err != nil {
			resp = uc.fallback(masked, sc, err)
		} else {
			resp = *ai
		}
	} else {
		r.transition(StateRuleDispatch)
		resp = uc.deps.Rules.Respond(masked, sc)
	}

	r.transition(StateResponded)
	span.SetAttributes(
		attribute.String("chat.mode", string(resp.Mode)),
		attribute.String("chat.intent", resp.Intent),
		attribute.Bool("chat.cached", resp.Cached),
	)
	if uc.deps.Observer != nil {
		uc.deps.Observer.ObserveResponse(resp.Mode, resp.Intent)
	}
	uc.record(ctx, masked, req.AIMode, sc.SessionID, resp, uc.now().Sub(start))

	return &resp, nil
}

// respondAI runs the AI path. Errors are always *entities.AIError.
func (uc *ChatUseCase) respondAI(ctx context.Context, masked string, hasPII bool, sessionID string) (*entities.ChatResponse, error) {
	// Without a credential no AI answer is served, cached or not.
	if !uc.deps.LLM.Configured() {
		return nil, entities.NewAIError(entities.ErrConfig, nil)
	}

	// Messages with personal data never touch the cache.
	key := ""
	if !hasPII {
		key = uc.deps.Cache.Key(entities.ModeAI, masked)
		cached, ok := uc.deps.Cache.Get(key)
		if uc.deps.Observer != nil {
			uc.deps.Observer.ObserveCache(ok)
		}
		if ok {
			resp := cloneResponse(cached)
			resp.Cached = true
			return &resp, nil
		}
	}

	var (
		knowledge []entities.KnowledgeResult
		pricing   []entities.PricingMatch
	)
	var g errgroup.Group
	g.Go(func() error {
		knowledge = uc.deps.Knowledge.Search(masked, defaultKnowledgeHits)
		return nil
	})
	g.Go(func() error {
		pricing = uc.deps.Pricing.Search(uc.deps.Pricing.ExtractKeywords(masked))
		return nil
	})
	_ = g.Wait()

	messages := []entities.ChatMessage{
		{Role: "system", Content: uc.deps.Prompts.Build(knowledge, pricing)},
		{Role: "user", Content: masked},
	}
	content, err := uc.deps.LLM.Complete(ctx, messages, sessionID, uc.aiTimeout)
	if err != nil {
		return nil, err
	}

	sources := uc.deps.Prompts.Sources(knowledge, pricing)
	if sources == nil {
		sources = []string{}
	}
	resp := entities.ChatResponse{
		Content:     content,
		Mode:        entities.ModeAI,
		Sources:     sources,
		Intent:      IntentAIResponse,
		Suggestions: uc.deps.Rules.ContextualSuggestions(masked),
	}
	if !hasPII {
		uc.deps.Cache.Put(key, cloneResponse(resp))
	}
	return &resp, nil
}

// fallback answers with the rule engine after an AI failure. The cause is
// logged; only its reason label reaches the client.
func (uc *ChatUseCase) fallback(masked string, sc entities.SessionContext, err error) entities.ChatResponse {
	reason := unknownFallbackReason
	var aiErr *entities.AIError
	if errors.As(err, &aiErr) {
		reason = aiErr.Reason()
	}
	uc.logger.Warn("ai path failed, answering with rules",
		"session_id", sc.SessionID,
		"reason", reason,
		"error", err,
	)
	if uc.deps.Observer != nil {
		uc.deps.Observer.ObserveFallback(reason)
	}

	rule := uc.deps.Rules.Respond(masked, sc)
	return entities.ChatResponse{
		Content:        FallbackPrefix + rule.Content,
		Mode:           entities.ModeFallback,
		Sources:        []string{},
		Intent:         rule.Intent,
		Suggestions:    rule.Suggestions,
		FallbackReason: reason,
	}
}

// record appends the exchange to the chat log. Failures are logged only.
func (uc *ChatUseCase) record(ctx context.Context, masked string, aiMode bool, sessionID string, resp entities.ChatResponse, elapsed time.Duration) {
	if uc.deps.ChatLog == nil {
		return
	}
	err := uc.deps.ChatLog.Append(ctx, entities.ChatLogEntry{
		SessionID:    sessionID,
		Message:      masked,
		Intent:       resp.Intent,
		Mode:         resp.Mode,
		AIMode:       aiMode,
		ResponseTime: elapsed,
		CreatedAt:    uc.now(),
	})
	if err != nil {
		uc.logger.Error("chat log append failed", "session_id", sessionID, "error", err)
	}
}

func cloneResponse(r entities.ChatResponse) entities.ChatResponse {
	if r.Sources != nil {
		r.Sources = append([]string{}, r.Sources...)
	}
	if r.Suggestions != nil {
		r.Suggestions = append([]string{}, r.Suggestions...)
	}
	return r
}
