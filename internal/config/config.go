// Package config loads service settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Pricing   PricingConfig   `yaml:"pricing"`
	LLM       LLMConfig       `yaml:"llm"`
	Cost      CostConfig      `yaml:"cost"`
	Cache     CacheConfig     `yaml:"cache"`
	ChatLog   ChatLogConfig   `yaml:"chatlog"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Session   SessionConfig   `yaml:"session"`
	Admin     AdminConfig     `yaml:"admin"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type KnowledgeConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

type PricingConfig struct {
	File string `yaml:"file"`
}

type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

type CostConfig struct {
	SessionCeiling float64 `yaml:"session_ceiling"` // KRW
	UnitRatePer1K  float64 `yaml:"unit_rate_per_1k"`
}

type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	Capacity int           `yaml:"capacity"`
}

type ChatLogConfig struct {
	Enabled  bool   `yaml:"enabled"`
	DataDir  string `yaml:"data_dir"`
	MaxRows  int    `yaml:"max_rows"`
	KeepRows int    `yaml:"keep_rows"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	SweepEvery time.Duration `yaml:"sweep_every"`
}

type AdminConfig struct {
	Token string `yaml:"token"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Knowledge: KnowledgeConfig{Dir: "data/knowledge", Watch: true},
		Pricing:   PricingConfig{File: "data/pricing.json"},
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			MaxTokens:   500,
			Temperature: 0.7,
			Timeout:     2500 * time.Millisecond,
			HTTPTimeout: 30 * time.Second,
		},
		Cost:      CostConfig{SessionCeiling: 1000, UnitRatePer1K: 2},
		Cache:     CacheConfig{TTL: 10 * time.Minute, Capacity: 100},
		ChatLog:   ChatLogConfig{Enabled: true, DataDir: "data", MaxRows: 10000, KeepRows: 5000},
		RateLimit: RateLimitConfig{RequestsPerMinute: 100},
		Session: SessionConfig{
			CookieName: "session",
			TTL:        24 * time.Hour,
			SweepEvery: 10 * time.Minute,
		},
		Tracing: TracingConfig{ServiceName: "bizchat"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and the listen address from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("OPENAI_API_KEY"); ok {
		c.LLM.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" {
		c.LLM.BaseURL = v
	}
	if v, ok := lookup("BIZCHAT_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("BIZCHAT_ADMIN_TOKEN"); ok {
		c.Admin.Token = v
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Knowledge.Dir == "" {
		errs = append(errs, errors.New("knowledge.dir is required"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm.max_tokens must be positive"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, errors.New("llm.temperature must be within 0..2"))
	}
	if c.Cost.SessionCeiling <= 0 || c.Cost.UnitRatePer1K <= 0 {
		errs = append(errs, errors.New("cost.session_ceiling and cost.unit_rate_per_1k must be positive"))
	}
	if c.Cache.TTL <= 0 || c.Cache.Capacity <= 0 {
		errs = append(errs, errors.New("cache.ttl and cache.capacity must be positive"))
	}
	if c.ChatLog.Enabled && (c.ChatLog.KeepRows <= 0 || c.ChatLog.KeepRows > c.ChatLog.MaxRows) {
		errs = append(errs, errors.New("chatlog.keep_rows must be within 1..max_rows"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("ratelimit.requests_per_minute must not be negative"))
	}
	if c.Session.CookieName == "" || c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.cookie_name and session.ttl are required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to slog.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return l, fmt.Errorf("log.level %q: %w", name, err)
	}
	return l, nil
}
