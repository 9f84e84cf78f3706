package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/config"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codesnoutr.yaml"), []byte(content), 0644))
}

func TestYAMLLoader_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := appconfig.New().Load(dir)
	require.NoError(t, err)

	assert.InDelta(t, domain.DefaultMinConfidence, cfg.MinConfidence(), 0.0001)
	assert.Equal(t, domain.DefaultContextWindow, cfg.ContextWindow())
	assert.Equal(t, filepath.Join(dir, ".codesnoutr", "backups"), cfg.BackupDir())
	assert.Equal(t, filepath.Join(dir, ".codesnoutr", "codesnoutr.db"), cfg.StorePath())
}

func TestYAMLLoader_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
engine:
  min_confidence: 0.5
  context_window: 80
  indent_unit: "\t"
syntax:
  timeout: 3s
  require_checker: true
  commands:
    blade: ["php", "-l"]
backup:
  dir: /var/lib/codesnoutr/backups
validation:
  disabled_conventions: [method-naming]
  confusable_pairs:
    - {from: "->save(", to: "->update(", message: "save and update differ"}
`)

	cfg, err := appconfig.New().Load(dir)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cfg.MinConfidence(), 0.0001)
	assert.Equal(t, 80, cfg.ContextWindow())
	assert.Equal(t, "\t", cfg.Engine.IndentUnit)
	assert.Equal(t, 3*time.Second, cfg.SyntaxTimeout())
	assert.True(t, cfg.Syntax.RequireChecker)
	assert.Equal(t, []string{"php", "-l"}, cfg.SyntaxCommands()["blade"])
	assert.Equal(t, []string{"php", "-l"}, cfg.SyntaxCommands()["php"])
	assert.Equal(t, "/var/lib/codesnoutr/backups", cfg.BackupDir())
	assert.True(t, cfg.IsConventionDisabled("method-naming"))
	require.Len(t, cfg.Validation.ConfusablePairs, 1)
	assert.Equal(t, "->update(", cfg.Validation.ConfusablePairs[0].To)
}

func TestYAMLLoader_ExplicitZeroConfidence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "engine:\n  min_confidence: 0\n")

	cfg, err := appconfig.New().Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.MinConfidence())
}

func TestYAMLLoader_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{{{invalid yaml`)

	_, err := appconfig.New().Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing .codesnoutr.yaml")
}

func TestYAMLLoader_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"confidence out of range", "engine:\n  min_confidence: 1.5\n", "min_confidence"},
		{"negative window", "engine:\n  context_window: -1\n", "context_window"},
		{"non-whitespace indent", "engine:\n  indent_unit: \"xx\"\n", "indent_unit"},
		{"empty command", "syntax:\n  commands:\n    php: []\n", "syntax.commands"},
		{"half pair", "validation:\n  confusable_pairs:\n    - {from: \"->a(\"}\n", "confusable_pairs[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := appconfig.New().Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid .codesnoutr.yaml")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
