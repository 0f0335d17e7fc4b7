package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects and configures the chat language model.
type LLMConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	BaseURL      string  `yaml:"base_url,omitempty"`
	APIKeyEnv    string  `yaml:"api_key_env,omitempty"`
	Temperature  float64 `yaml:"temperature"`
	TimeoutSecs  int     `yaml:"timeout_secs"`
	SystemPrompt string  `yaml:"system_prompt,omitempty"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	Dimension   int    `yaml:"dimension,omitempty"`
	BatchSize   int    `yaml:"batch_size,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	CacheSize   int    `yaml:"cache_size"`
}

// ChunkerConfig configures how documents are split into segments.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// SummarizerConfig configures descriptions derived for sources that have none.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
	MaxChars     int    `yaml:"max_chars"`
}

// SourceConfig is one document collection with its own vector store and retriever.
type SourceConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Paths       []string `yaml:"paths"`
	MaxResults  int      `yaml:"max_results"`
	MinScore    float64  `yaml:"min_score"`
}

// WebSearchConfig configures the optional web search retriever.
type WebSearchConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Name              string  `yaml:"name"`
	Description       string  `yaml:"description,omitempty"`
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	SearchDepth       string  `yaml:"search_depth,omitempty"`
	MaxResults        int     `yaml:"max_results"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries"`
}

// GateConfig configures the conditional gate router.
type GateConfig struct {
	Source         string   `yaml:"source"`
	Template       string   `yaml:"template,omitempty"`
	NegativeTokens []string `yaml:"negative_tokens,omitempty"`
}

// RouterConfig selects the query routing policy.
type RouterConfig struct {
	// Type is one of fixed, multi, classify, gate.
	Type string `yaml:"type"`
	// Sources restricts fixed, multi and classify routers to the named sources, in order.
	// Empty means every source, web search last.
	Sources []string   `yaml:"sources,omitempty"`
	Gate    GateConfig `yaml:"gate,omitempty"`
}

// AugmentorConfig configures the retrieval fan-out.
type AugmentorConfig struct {
	PartialFailure string `yaml:"partial_failure"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// MemoryConfig configures the conversation window.
type MemoryConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

// SessionConfig configures the interactive loop.
type SessionConfig struct {
	ExitKeyword string `yaml:"exit_keyword"`
	Farewell    string `yaml:"farewell"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
	Output   string `yaml:"output"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM        LLMConfig        `yaml:"llm"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Sources    []SourceConfig   `yaml:"sources,omitempty"`
	WebSearch  WebSearchConfig  `yaml:"web_search"`
	Router     RouterConfig     `yaml:"router"`
	Augmentor  AugmentorConfig  `yaml:"augmentor"`
	Memory     MemoryConfig     `yaml:"memory"`
	Session    SessionConfig    `yaml:"session"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := zeroableDefaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rag/config.yaml.
// If neither exists, it returns defaults without writing anything.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return Default(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/rag/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := zeroableDefaults()
	applyConfigDefaults(&cfg)
	return &cfg
}

// Built-in values for settings where zero is a legitimate choice.
const (
	DefaultTemperature = 0.3
	DefaultMinScore    = 0.5
	DefaultMaxResults  = 2
	DefaultMaxTurns    = 10
)

// zeroableDefaults holds the defaults that must be in place before decoding,
// so an explicit zero in the file survives.
func zeroableDefaults() AppConfig {
	return AppConfig{
		LLM:    LLMConfig{Temperature: DefaultTemperature},
		Memory: MemoryConfig{MaxTurns: DefaultMaxTurns},
	}
}

// UnmarshalYAML fills per-source defaults before decoding, so keys absent from
// the file keep them and explicit zeros are kept as written.
func (s *SourceConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain SourceConfig
	p := plain{MaxResults: DefaultMaxResults, MinScore: DefaultMinScore}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = SourceConfig(p)
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel(cfg.LLM.Provider)
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = defaultAPIKeyEnv(cfg.LLM.Provider)
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type != "tfidf" {
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = defaultEmbeddingModel(cfg.Embedder.Type)
		}
		if cfg.Embedder.APIKeyEnv == "" {
			cfg.Embedder.APIKeyEnv = defaultAPIKeyEnv(cfg.Embedder.Type)
		}
		if cfg.Embedder.BatchSize == 0 {
			cfg.Embedder.BatchSize = 32
		}
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "sentence"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 2
	}
	if cfg.Summarizer.MaxChars == 0 {
		cfg.Summarizer.MaxChars = 200
	}

	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if s.MaxResults == 0 {
			s.MaxResults = DefaultMaxResults
		}
	}

	if cfg.WebSearch.Name == "" {
		cfg.WebSearch.Name = "web"
	}
	if cfg.WebSearch.Description == "" {
		cfg.WebSearch.Description = "Recent information from the open web"
	}
	if cfg.WebSearch.Provider == "" {
		cfg.WebSearch.Provider = "tavily"
	}
	if cfg.WebSearch.APIKeyEnv == "" {
		cfg.WebSearch.APIKeyEnv = "TAVILY_API_KEY"
	}
	if cfg.WebSearch.MaxResults == 0 {
		cfg.WebSearch.MaxResults = 3
	}
	if cfg.WebSearch.TimeoutSecs == 0 {
		cfg.WebSearch.TimeoutSecs = 15
	}
	if cfg.WebSearch.RequestsPerSecond == 0 {
		cfg.WebSearch.RequestsPerSecond = 1
	}

	if cfg.Router.Type == "" {
		cfg.Router.Type = "multi"
	}
	if cfg.Augmentor.PartialFailure == "" {
		cfg.Augmentor.PartialFailure = "drop"
	}
	if cfg.Augmentor.MaxConcurrency == 0 {
		cfg.Augmentor.MaxConcurrency = 4
	}
	if cfg.Session.ExitKeyword == "" {
		cfg.Session.ExitKeyword = "quit"
	}
	if cfg.Session.Farewell == "" {
		cfg.Session.Farewell = "Goodbye!"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

func defaultLLMModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "googleai":
		return "gemini-2.0-flash"
	default:
		return "llama3.2"
	}
}

func defaultEmbeddingModel(provider string) string {
	if provider == "openai" {
		return "text-embedding-3-small"
	}
	return "all-minilm"
}

func defaultAPIKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "googleai":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// Validate checks cross-section references that defaults cannot fix.
func (c *AppConfig) Validate() error {
	var errs []error
	names := make(map[string]bool, len(c.Sources)+1)
	for i, s := range c.Sources {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: name is required", i))
			continue
		}
		if names[s.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name))
		}
		names[s.Name] = true
		if len(s.Paths) == 0 {
			errs = append(errs, fmt.Errorf("source %q: at least one path is required", s.Name))
		}
		if s.MaxResults < 1 {
			errs = append(errs, fmt.Errorf("source %q: max_results must be positive", s.Name))
		}
		if s.MinScore < 0 || s.MinScore > 1 {
			errs = append(errs, fmt.Errorf("source %q: min_score must be within [0,1]", s.Name))
		}
	}
	if c.WebSearch.Enabled {
		if names[c.WebSearch.Name] {
			errs = append(errs, fmt.Errorf("web_search: name %q collides with a source", c.WebSearch.Name))
		}
		names[c.WebSearch.Name] = true
	}

	switch c.Router.Type {
	case "fixed", "multi", "classify":
		for _, n := range c.Router.Sources {
			if !names[n] {
				errs = append(errs, fmt.Errorf("router: unknown source %q", n))
			}
		}
	case "gate":
		if !names[c.Router.Gate.Source] {
			errs = append(errs, fmt.Errorf("router.gate: unknown source %q", c.Router.Gate.Source))
		}
		if c.Router.Gate.Template != "" && !strings.Contains(c.Router.Gate.Template, "{{query}}") {
			errs = append(errs, errors.New("router.gate: template must contain {{query}}"))
		}
	default:
		errs = append(errs, fmt.Errorf("router: unknown type %q", c.Router.Type))
	}

	switch c.Augmentor.PartialFailure {
	case "drop", "fail":
	default:
		errs = append(errs, fmt.Errorf("augmentor: unknown partial_failure %q", c.Augmentor.PartialFailure))
	}
	if c.Memory.MaxTurns < 1 {
		errs = append(errs, errors.New("memory: max_turns must be positive"))
	}
	return errors.Join(errs...)
}
