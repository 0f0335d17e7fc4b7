package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ragchat/internal/config"
	"ragchat/internal/retriever"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		configPath, logLevel, chatRouter = "", "", ""
		chatTUI, configForce = false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir string, cfg *config.AppConfig) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag", "config.yaml")

	out, err := execute(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), loaded)

	_, err = execute(t, "", "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "", "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestIngestCommand(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.txt"),
		[]byte("Sourdough needs a starter. Feed the starter daily. Bake the sourdough at high heat."), 0o644))

	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{{Name: "baking", Paths: []string{filepath.Join(docs, "*.txt")}, MaxResults: 2, MinScore: 0.5}}
	path := writeConfig(t, dir, cfg)

	out, err := execute(t, "", "--config", path, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "baking: 1 segments")
	assert.Contains(t, out, "sourdough")
}

func TestIngestCommandRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Router.Type = "gate"
	cfg.Router.Gate.Source = "missing"
	path := writeConfig(t, t.TempDir(), cfg)

	_, err := execute(t, "", "--config", path, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestChatExitsOnKeyword(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Farewell = "See you."
	path := writeConfig(t, t.TempDir(), cfg)

	out, err := execute(t, "\n  \nQUIT\n", "--config", path, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "No sources configured")
	assert.Contains(t, out, `type "quit" to exit`)
	assert.True(t, strings.HasSuffix(out, "See you.\n"))
}

func TestChatInterruptIsCleanExit(t *testing.T) {
	cfg = config.Default()
	logger = zap.NewNop()
	t.Cleanup(func() { cfg, logger = nil, nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	cmd.SetIn(pr)
	var out bytes.Buffer
	cmd.SetOut(&out)

	assert.NoError(t, runChat(cmd, nil))
	assert.NotContains(t, out.String(), "Error")
}

func TestNewEmbedderUnknownType(t *testing.T) {
	_, err := newEmbedder(config.EmbedderConfig{Type: "word2vec"})
	assert.Error(t, err)
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, &retriever.Catalog{})
	assert.Equal(t, "No sources configured.\n", buf.String())
}
