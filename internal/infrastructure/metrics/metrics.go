// Package metrics exposes chat pipeline and LLM metrics to Prometheus.
// Clean Architecture: Infrastructure implementing ports.ChatObserver and ports.LLMObserver.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const namespace = "bizchat"

// Metrics holds every collector registered by the service.
type Metrics struct {
	responses    *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	llmLatency   *prometheus.HistogramVec
	llmTokens    prometheus.Counter
	httpRequests *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: mode (rule, ai, fallback), intent
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "responses_total",
			Help:      "Chat responses by mode and intent",
		}, []string{"mode", "intent"}),

		// Labels: reason (config, budget_exceeded, timeout, provider, response_parse, network)
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "fallbacks_total",
			Help:      "AI path failures answered by the rule engine",
		}, []string{"reason"}),

		// Labels: result (hit, miss)
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "AI response cache lookups",
		}, []string{"result"}),

		// Labels: outcome (ok or a fallback reason)
		llmLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Time callers waited for a completion",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 2.5, 3, 5},
		}, []string{"outcome"}),

		llmTokens: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens billed by the provider",
		}),

		// Labels: route, status
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
}

// ObserveResponse implements ports.ChatObserver.
func (m *Metrics) ObserveResponse(mode entities.Mode, intent string) {
	m.responses.WithLabelValues(string(mode), intent).Inc()
}

// ObserveFallback implements ports.ChatObserver.
func (m *Metrics) ObserveFallback(reason string) {
	m.fallbacks.WithLabelValues(reason).Inc()
}

// ObserveCache implements ports.ChatObserver.
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveLLMCall implements ports.LLMObserver.
func (m *Metrics) ObserveLLMCall(outcome string, elapsed time.Duration) {
	m.llmLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveLLMTokens implements ports.LLMObserver.
func (m *Metrics) ObserveLLMTokens(tokens int) {
	m.llmTokens.Add(float64(tokens))
}

// ObserveHTTP counts a served request.
func (m *Metrics) ObserveHTTP(route, status string) {
	m.httpRequests.WithLabelValues(route, status).Inc()
}
