package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, 0.3, cfg.LLM.Temperature)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, 5, cfg.Chunker.SentencesPerChunk)
	assert.Equal(t, "multi", cfg.Router.Type)
	assert.Equal(t, 10, cfg.Memory.MaxTurns)
	assert.Equal(t, "quit", cfg.Session.ExitKeyword)
	assert.Equal(t, "drop", cfg.Augmentor.PartialFailure)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadAppliesPerSourceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  provider: openai
sources:
  - name: cooking
    paths: ["docs/cooking/*.txt"]
  - name: tax
    paths: ["docs/tax/*.txt"]
    max_results: 4
    min_score: 0.7
router:
  type: classify
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, 2, cfg.Sources[0].MaxResults)
	assert.Equal(t, 0.5, cfg.Sources[0].MinScore)
	assert.Equal(t, 4, cfg.Sources[1].MaxResults)
	assert.Equal(t, 0.7, cfg.Sources[1].MinScore)
	assert.NoError(t, cfg.Validate())
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  temperature: 0
sources:
  - name: everything
    paths: ["docs/*.txt"]
    min_score: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.LLM.Temperature)
	require.Len(t, cfg.Sources, 1)
	assert.Zero(t, cfg.Sources[0].MinScore)
	assert.Equal(t, DefaultMaxResults, cfg.Sources[0].MaxResults)
	assert.Equal(t, DefaultMaxTurns, cfg.Memory.MaxTurns)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsZeroMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory:\n  max_turns: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Memory.MaxTurns)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_turns must be positive")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Sources = []SourceConfig{{Name: "notes", Paths: []string{"notes/*.txt"}, MaxResults: 3, MinScore: 0.4}}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	base := func() *AppConfig {
		cfg := Default()
		cfg.Sources = []SourceConfig{{Name: "a", Paths: []string{"a.txt"}, MaxResults: 2, MinScore: 0.5}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "no sources is valid", mutate: func(c *AppConfig) { c.Sources = nil }},
		{
			name:    "duplicate source",
			mutate:  func(c *AppConfig) { c.Sources = append(c.Sources, c.Sources[0]) },
			wantErr: "duplicate name",
		},
		{
			name:    "missing paths",
			mutate:  func(c *AppConfig) { c.Sources[0].Paths = nil },
			wantErr: "at least one path",
		},
		{
			name:    "unknown router type",
			mutate:  func(c *AppConfig) { c.Router.Type = "random" },
			wantErr: "unknown type",
		},
		{
			name:    "fixed router unknown source",
			mutate:  func(c *AppConfig) { c.Router.Type = "fixed"; c.Router.Sources = []string{"b"} },
			wantErr: "unknown source",
		},
		{
			name: "gate router on web search",
			mutate: func(c *AppConfig) {
				c.WebSearch.Enabled = true
				c.Router.Type = "gate"
				c.Router.Gate.Source = "web"
			},
		},
		{
			name: "gate template without placeholder",
			mutate: func(c *AppConfig) {
				c.Router.Type = "gate"
				c.Router.Gate.Source = "a"
				c.Router.Gate.Template = "is this relevant?"
			},
			wantErr: "{{query}}",
		},
		{
			name:    "web name collides",
			mutate:  func(c *AppConfig) { c.WebSearch.Enabled = true; c.WebSearch.Name = "a" },
			wantErr: "collides",
		},
		{
			name:    "bad partial failure policy",
			mutate:  func(c *AppConfig) { c.Augmentor.PartialFailure = "retry" },
			wantErr: "partial_failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
