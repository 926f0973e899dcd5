package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "127.0.0.1", cfg.Service.Host)
	assert.Equal(t, 8430, cfg.Service.Port)
	assert.True(t, cfg.API.Enabled)

	assert.Equal(t, "gemini-3-flash-preview", cfg.LLM.CritiqueModel)
	assert.Equal(t, "NORMAL", cfg.LLM.Thinking)

	assert.Equal(t, 2, cfg.Roast.Iterations)
	assert.Equal(t, 1.5, cfg.Roast.FocusBoost)
	assert.Equal(t, 0.5, cfg.Roast.OffFocusDamp)
	assert.Equal(t, "reports", cfg.Roast.ReportsDir)
	assert.Equal(t, 500, cfg.Roast.DebounceMs)

	assert.Equal(t, 1280, cfg.Capture.WindowWidth)
	assert.True(t, cfg.Capture.FullPage)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8430, cfg.Service.Port)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
service:
  port: 9000
roast:
  iterations: 4
  focus: accessibility
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, 4, cfg.Roast.Iterations)
	assert.Equal(t, "accessibility", cfg.Roast.Focus)

	// Untouched values keep their defaults
	assert.Equal(t, "127.0.0.1", cfg.Service.Host)
	assert.Equal(t, 1.5, cfg.Roast.FocusBoost)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_ROAST_KEY", "secret-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  api_key: ${TEST_ROAST_KEY}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Service.Port = 9431
	cfg.Roast.Focus = "design"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9431, loaded.Service.Port)
	assert.Equal(t, "design", loaded.Roast.Focus)
}

func TestConfig_Paths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Service.DataDir = "/data/roast"
	cfg.Roast.ReportsDir = "/work/reports"

	assert.Equal(t, "127.0.0.1:8430", cfg.Address())
	assert.Equal(t, filepath.Join("/work/reports", "screenshots"), cfg.ScreenshotsDir())
	assert.Equal(t, filepath.Join("/data/roast", "sessions"), cfg.SessionsDir())
	assert.Equal(t, filepath.Join("/data/roast", "memory"), cfg.MemoryDir())
	assert.Equal(t, filepath.Join("/data/roast", "roast-service.pid"), cfg.PIDPath())
	assert.Contains(t, cfg.LogPath(), "roast-service.log")
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Service.DataDir = filepath.Join(dir, "data")
	cfg.Roast.ReportsDir = filepath.Join(dir, "reports")

	require.NoError(t, cfg.EnsureDirectories())

	assert.DirExists(t, cfg.SessionsDir())
	assert.DirExists(t, cfg.MemoryDir())
	assert.DirExists(t, cfg.ScreenshotsDir())
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), expandTilde("~/x"))
	assert.Equal(t, "/abs/x", expandTilde("/abs/x"))
}
