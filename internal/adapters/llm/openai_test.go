package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/bizchat-go/internal/adapters/ledger"
	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const okBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "gpt-3.5-turbo",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "이노비즈 인증은 보통 2-3개월 걸립니다."}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 900, "completion_tokens": 100, "total_tokens": 1000}
}`

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	tokens   int
}

func (o *recordingObserver) ObserveLLMCall(outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObserveLLMTokens(tokens int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tokens += tokens
}

func messages() []entities.ChatMessage {
	return []entities.ChatMessage{
		{Role: "system", Content: "상담원"},
		{Role: "user", Content: "이노비즈 기간"},
	}
}

func newGateway(t *testing.T, handler http.HandlerFunc, l *ledger.Ledger, opts ...Option) (*OpenAIGateway, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	g := NewOpenAIGateway(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, l, opts...)
	return g, &hits
}

func TestOpenAIGateway_Success(t *testing.T) {
	l := ledger.New(1000, 2)
	obs := &recordingObserver{}
	var got map[string]any
	g, hits := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	}, l, WithObserver(obs))

	content, err := g.Complete(context.Background(), messages(), "s1", time.Second)

	require.NoError(t, err)
	assert.Contains(t, content, "2-3개월")
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.InDelta(t, 2.0, l.Spent("s1"), 1e-9)
	assert.Equal(t, "gpt-3.5-turbo", got["model"])
	assert.EqualValues(t, 500, got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-6)
	assert.Equal(t, []string{"ok"}, obs.outcomes)
	assert.Equal(t, 1000, obs.tokens)
}

func TestOpenAIGateway_ZeroTemperatureIsSent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	}))
	defer srv.Close()
	zero := float32(0)
	g := NewOpenAIGateway(Config{APIKey: "k", BaseURL: srv.URL + "/v1", Temperature: &zero}, ledger.New(1000, 2))

	_, err := g.Complete(context.Background(), messages(), "s1", time.Second)

	require.NoError(t, err)
	require.Contains(t, got, "temperature", "zero must not be dropped from the request")
	assert.InDelta(t, 0, got["temperature"], 1e-6)
}

func TestOpenAIGateway_NoKey(t *testing.T) {
	g := NewOpenAIGateway(Config{}, ledger.New(0, 0))

	_, err := g.Complete(context.Background(), messages(), "s1", time.Second)

	assert.False(t, g.Configured())
	assert.ErrorIs(t, err, entities.ErrConfig)
}

func TestOpenAIGateway_BudgetExceededSkipsProvider(t *testing.T) {
	l := ledger.New(1, 2)
	g, hits := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(okBody))
	}, l)
	long := []entities.ChatMessage{{Role: "user", Content: strings.Repeat("가", 3000)}}

	_, err := g.Complete(context.Background(), long, "s1", time.Second)

	assert.ErrorIs(t, err, entities.ErrBudgetExceeded)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestOpenAIGateway_ProviderError(t *testing.T) {
	l := ledger.New(1000, 2)
	g, hits := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	}, l)

	_, err := g.Complete(context.Background(), messages(), "s1", time.Second)

	assert.ErrorIs(t, err, entities.ErrProvider)
	assert.Contains(t, err.Error(), "Rate limit reached")
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "no retries")
	assert.Zero(t, l.Spent("s1"))
}

func TestOpenAIGateway_UndecodableBody(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}, ledger.New(1000, 2))

	_, err := g.Complete(context.Background(), messages(), "s1", time.Second)

	assert.ErrorIs(t, err, entities.ErrResponseParse)
}

func TestOpenAIGateway_MissingChoices(t *testing.T) {
	l := ledger.New(1000, 2)
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "x", "choices": [], "usage": {"total_tokens": 50}}`))
	}, l)

	_, err := g.Complete(context.Background(), messages(), "s1", time.Second)

	assert.ErrorIs(t, err, entities.ErrResponseParse)
	assert.InDelta(t, 0.1, l.Spent("s1"), 1e-9, "usage is billed even without choices")
}

func TestOpenAIGateway_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	g := NewOpenAIGateway(Config{APIKey: "k", BaseURL: url}, ledger.New(1000, 2))

	_, err := g.Complete(context.Background(), messages(), "s1", time.Second)

	var aiErr *entities.AIError
	require.True(t, errors.As(err, &aiErr))
	assert.Equal(t, "network", aiErr.Reason())
}

func TestOpenAIGateway_TimeoutAbandonsButStillBills(t *testing.T) {
	l := ledger.New(1000, 2)
	obs := &recordingObserver{}
	release := make(chan struct{})
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	}, l, WithObserver(obs))

	start := time.Now()
	_, err := g.Complete(context.Background(), messages(), "s1", 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, entities.ErrTimeout)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Zero(t, l.Spent("s1"))

	close(release)
	require.Eventually(t, func() bool {
		return l.Spent("s1") > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"timeout"}, obs.outcomes)
}

func TestOpenAIGateway_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(okBody))
	}, ledger.New(1000, 2))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := g.Complete(ctx, messages(), "s1", 5*time.Second)

	assert.ErrorIs(t, err, entities.ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimateUnits(t *testing.T) {
	msgs := []entities.ChatMessage{{Content: "안녕하세요"}, {Content: "abc"}}

	assert.InDelta(t, 2.0, EstimateUnits(msgs), 1e-9)
	assert.Zero(t, EstimateUnits(nil))
}
