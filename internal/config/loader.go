package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Fields left out of a config file keep the values from Default.
type Config struct {
	Addr     string        `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel string        `json:"log_level" yaml:"log_level" toml:"log_level"`
	Engine   EngineConfig  `json:"engine" yaml:"engine" toml:"engine"`
	Search   SearchConfig  `json:"search" yaml:"search" toml:"search"`
	LLM      LLMConfig     `json:"llm" yaml:"llm" toml:"llm"`
	History  HistoryConfig `json:"history" yaml:"history" toml:"history"`
	HTTP     HTTPConfig    `json:"http" yaml:"http" toml:"http"`
}

// EngineConfig describes where the indexing engine and its query CLI live
// and which named instance findd drives.
type EngineConfig struct {
	BaseDir              string  `json:"base_dir" yaml:"base_dir" toml:"base_dir"`
	InternalOnly         bool    `json:"internal_only" yaml:"internal_only" toml:"internal_only"`
	CLIPath              string  `json:"cli_path" yaml:"cli_path" toml:"cli_path"`
	EnginePath           string  `json:"engine_path" yaml:"engine_path" toml:"engine_path"`
	Instance             string  `json:"instance" yaml:"instance" toml:"instance"`
	DefaultInstance      string  `json:"default_instance" yaml:"default_instance" toml:"default_instance"`
	StateFile            string  `json:"state_file" yaml:"state_file" toml:"state_file"`
	EnsureTimeoutSeconds float64 `json:"ensure_timeout_seconds" yaml:"ensure_timeout_seconds" toml:"ensure_timeout_seconds"`
	ProbeTimeoutSeconds  float64 `json:"probe_timeout_seconds" yaml:"probe_timeout_seconds" toml:"probe_timeout_seconds"`
}

type SearchConfig struct {
	Limit               int      `json:"limit" yaml:"limit" toml:"limit"`
	TriggerPrefixes     []string `json:"trigger_prefixes" yaml:"trigger_prefixes" toml:"trigger_prefixes"`
	ReadyTimeoutSeconds float64  `json:"ready_timeout_seconds" yaml:"ready_timeout_seconds" toml:"ready_timeout_seconds"`
}

type LLMConfig struct {
	Endpoint       string   `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	APIKey         string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	APIKeyEnv      string   `json:"api_key_env" yaml:"api_key_env" toml:"api_key_env"`
	Models         []string `json:"models" yaml:"models" toml:"models"`
	Temperature    float64  `json:"temperature" yaml:"temperature" toml:"temperature"`
	TimeoutSeconds float64  `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	RatePerSecond  float64  `json:"rate_per_second" yaml:"rate_per_second" toml:"rate_per_second"`
	Burst          int      `json:"burst" yaml:"burst" toml:"burst"`
}

type HistoryConfig struct {
	Path     string `json:"path" yaml:"path" toml:"path"`
	Disabled bool   `json:"disabled" yaml:"disabled" toml:"disabled"`
}

type HTTPConfig struct {
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods  []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders  []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`
}

// Defaults used by Default and ApplyDefaults.
const (
	DefaultAddr            = "127.0.0.1:8765"
	DefaultInstanceName    = "findd"
	DefaultLimit           = 30
	DefaultGeminiEndpoint  = "https://generativelanguage.googleapis.com/v1beta"
	DefaultAPIKeyEnv       = "GEMINI_API_KEY"
	DefaultHistoryPath     = "~/.findd/history.db"
	defaultEnsureTimeout   = 4.0
	defaultProbeTimeout    = 2.0
	defaultReadyTimeout    = 8.0
	defaultLLMTimeout      = 20.0
	defaultLLMTemperature  = 0.1
	defaultLLMRate         = 1.0
	defaultLLMBurst        = 2
	defaultMaxBodyBytes    = 1 << 20
	maxSearchLimit         = 1000
)

// DefaultModels is the model fallback chain for query normalization.
var DefaultModels = []string{"gemini-3-flash-preview", "gemini-2.5-flash"}

// DefaultTriggerPrefixes are matched against the first word of an utterance.
var DefaultTriggerPrefixes = []string{"найд"}

// Default returns a Config populated with package defaults.
func Default() Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Engine.DefaultInstance == "" {
		cfg.Engine.DefaultInstance = DefaultInstanceName
	}
	if cfg.Engine.EnsureTimeoutSeconds <= 0 {
		cfg.Engine.EnsureTimeoutSeconds = defaultEnsureTimeout
	}
	if cfg.Engine.ProbeTimeoutSeconds <= 0 {
		cfg.Engine.ProbeTimeoutSeconds = defaultProbeTimeout
	}
	if cfg.Search.Limit <= 0 {
		cfg.Search.Limit = DefaultLimit
	}
	if len(cfg.Search.TriggerPrefixes) == 0 {
		cfg.Search.TriggerPrefixes = append([]string(nil), DefaultTriggerPrefixes...)
	}
	if cfg.Search.ReadyTimeoutSeconds <= 0 {
		cfg.Search.ReadyTimeoutSeconds = defaultReadyTimeout
	}
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = DefaultGeminiEndpoint
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
	if len(cfg.LLM.Models) == 0 {
		cfg.LLM.Models = append([]string(nil), DefaultModels...)
	}
	if cfg.LLM.Temperature <= 0 {
		cfg.LLM.Temperature = defaultLLMTemperature
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	if cfg.LLM.RatePerSecond <= 0 {
		cfg.LLM.RatePerSecond = defaultLLMRate
	}
	if cfg.LLM.Burst <= 0 {
		cfg.LLM.Burst = defaultLLMBurst
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		cfg.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "off", "disabled":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	if c.Search.Limit <= 0 || c.Search.Limit > maxSearchLimit {
		return fmt.Errorf("search.limit must be in 1..%d, got %d", maxSearchLimit, c.Search.Limit)
	}
	for _, p := range c.Search.TriggerPrefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("search.trigger_prefixes: empty prefix")
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in 0..2, got %v", c.LLM.Temperature)
	}
	for _, m := range c.LLM.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("llm.models: empty model name")
		}
	}
	if c.Engine.Instance != "" && strings.ContainsAny(c.Engine.Instance, `"`) {
		return fmt.Errorf("engine.instance must not contain quotes")
	}
	return nil
}

// EnsureTimeout is the default readiness window for engine lifecycle calls.
func (c EngineConfig) EnsureTimeout() time.Duration { return seconds(c.EnsureTimeoutSeconds) }

func (c EngineConfig) ProbeTimeout() time.Duration { return seconds(c.ProbeTimeoutSeconds) }

// ReadyTimeout is the readiness window used before each search.
func (c SearchConfig) ReadyTimeout() time.Duration { return seconds(c.ReadyTimeoutSeconds) }

func (c LLMConfig) Timeout() time.Duration { return seconds(c.TimeoutSeconds) }

// ResolveAPIKey returns the inline key or the value of the configured env var.
func (c LLMConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Load reads a configuration file based on its extension, applies defaults
// and validates the result.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
