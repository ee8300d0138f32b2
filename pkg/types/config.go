package types

import (
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by the network backends.
type HTTPConfig struct {
	// Timeout is the per-request timeout. Each backend call is attempted once.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DefaultTimeout is the backend request timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

// Strategy is the provider strategy selected by the configured provider name.
type Strategy int

const (
	StrategyUnknown Strategy = iota
	StrategyDisabled
	StrategyStub
	StrategyWebWithFallback
	StrategyNewsWithFallback
	StrategyHybrid
)

// ParseStrategy maps a provider name to a Strategy, case-insensitively.
// Unrecognized names map to StrategyUnknown, which behaves like the stub.
func ParseStrategy(name string) Strategy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "disabled", "off":
		return StrategyDisabled
	case "stub", "mock":
		return StrategyStub
	case "backend_a", "cse", "web", "web_search", "google", "custom_search":
		return StrategyWebWithFallback
	case "backend_b", "news", "news_search", "newsapi":
		return StrategyNewsWithFallback
	case "hybrid", "both":
		return StrategyHybrid
	default:
		return StrategyUnknown
	}
}

// String returns the canonical strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyDisabled:
		return "disabled"
	case StrategyStub:
		return "stub"
	case StrategyWebWithFallback:
		return "backend_a_with_fallback"
	case StrategyNewsWithFallback:
		return "backend_b_with_fallback"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// WebSearchConfig holds credentials for the web-search backend (a Custom
// Search style API returning an "items" array).
type WebSearchConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty"`
}

// HasCredentials reports whether both the key and the engine ID are set.
func (c WebSearchConfig) HasCredentials() bool {
	return c.APIKey != "" && c.EngineID != ""
}

// NewsSearchConfig holds credentials for the news-search backend (a
// NewsAPI style API returning an "articles" array).
type NewsSearchConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Language restricts articles to an ISO-639-1 code such as "ja".
	// Empty means any language.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// HasCredentials reports whether an API key is set.
func (c NewsSearchConfig) HasCredentials() bool {
	return c.APIKey != ""
}

// SearchConfig holds settings for the search orchestrator.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider is the configured provider name (see ParseStrategy).
	Provider string `json:"provider" yaml:"provider"`

	Web  WebSearchConfig  `json:"web" yaml:"web"`
	News NewsSearchConfig `json:"news" yaml:"news"`

	// SnapshotPath is the offline snapshot file loaded at start. Empty
	// disables the snapshot cache.
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// OutputPaths lists zap sinks (e.g. "stderr", a file path).
	OutputPaths []string `json:"output_paths" yaml:"output_paths"`
}
