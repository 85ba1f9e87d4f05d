package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 0.3, cfg.Retrieval.MinScore)
	assert.True(t, cfg.Judge.Enabled)
	assert.Equal(t, 1, cfg.Judge.MaxRetries)
	assert.True(t, cfg.Conversation.EnableHistory)
	assert.Equal(t, 5, cfg.Conversation.MaxHistoryTurns)
	assert.True(t, cfg.Validation.RequireCitations)
	assert.Equal(t, 50, cfg.Validation.MinAnswerLength)
}

func TestLoadAbsentKeysKeepDefaults(t *testing.T) {
	// judge.enabled defaults to true and must survive a file that only
	// overrides unrelated keys
	path := writeConfig(t, "retrieval:\n  top_k: 8\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.True(t, cfg.Judge.Enabled)
	assert.True(t, cfg.Conversation.EnableHistory)
	assert.True(t, cfg.Validation.RequireCitations)
}

func TestLoadExplicitFalseWins(t *testing.T) {
	path := writeConfig(t, "judge:\n  enabled: false\nconversation:\n  enable_history: false\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Judge.Enabled)
	assert.False(t, cfg.Conversation.EnableHistory)
}

func TestJudgeAndRouterModelDefaultToLLMModel(t *testing.T) {
	path := writeConfig(t, "llm:\n  model: big-model\njudge:\n  model: small-model\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "small-model", cfg.Judge.Model)
	assert.Equal(t, "big-model", cfg.Router.Model)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultConfig()
	cfg.Repository.Path = "/srv/repo"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/repo", loaded.Repository.Path)
	assert.Equal(t, cfg.Retrieval, loaded.Retrieval)
	assert.Equal(t, cfg.Validation, loaded.Validation)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "judge: [not a mapping\n")
	_, err := Load(path)
	assert.Error(t, err)
}
