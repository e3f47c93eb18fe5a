package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objecthunt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "0", cfg.Capture.Source)
	require.Equal(t, 2*time.Second, cfg.Capture.StopTimeout)
	require.Equal(t, 0.5, cfg.Detector.MinConfidence)
	require.Equal(t, 60*time.Second, cfg.Game.TimeBudget)
	require.Equal(t, time.Second, cfg.Game.TickInterval)
	require.Equal(t, "score", cfg.Game.WinnerPolicy)
	require.True(t, cfg.Game.AutoAdvance)
	require.Equal(t, "objecthunt.db", filepath.Base(cfg.Store.Path))
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().Game, cfg.Game)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9090"
capture:
  source: clips/kitchen.mp4
  max_fps: 15
game:
  time_budget: 90s
  winner_policy: completion
  auto_advance: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	require.Equal(t, "clips/kitchen.mp4", cfg.Capture.Source)
	require.Equal(t, 15, cfg.Capture.MaxFPS)
	require.Equal(t, 90*time.Second, cfg.Game.TimeBudget)
	require.Equal(t, "completion", cfg.Game.WinnerPolicy)
	require.False(t, cfg.Game.AutoAdvance)

	// Untouched keys keep their defaults
	require.Equal(t, time.Second, cfg.Game.TickInterval)
	require.Equal(t, 0.45, cfg.Detector.NMSThreshold)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "game:\n  time_budget: 90s\n")

	t.Setenv("OBJECTHUNT_TIME_BUDGET", "30s")
	t.Setenv("OBJECTHUNT_SOURCE", "2")
	t.Setenv("OBJECTHUNT_MIN_CONFIDENCE", "0.7")
	t.Setenv("OBJECTHUNT_TRAY", "true")
	t.Setenv("OBJECTHUNT_RANDOM_TARGETS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, cfg.Game.TimeBudget)
	require.Equal(t, "2", cfg.Capture.Source)
	require.Equal(t, 0.7, cfg.Detector.MinConfidence)
	require.True(t, cfg.Tray.Enabled)
	require.Equal(t, 3, cfg.Game.RandomTargets)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "game: [unterminated"},
		{name: "bad duration in env", env: map[string]string{"OBJECTHUNT_TIME_BUDGET": "soon"}},
		{name: "bad int in env", env: map[string]string{"OBJECTHUNT_MAX_FPS": "fast"}},
		{name: "bad bool in env", env: map[string]string{"OBJECTHUNT_AUTO_ADVANCE": "maybe"}},
		{name: "unknown policy", body: "game:\n  winner_policy: fastest\n"},
		{name: "zero budget", body: "game:\n  time_budget: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative tick", mutate: func(c *Config) { c.Game.TickInterval = -time.Second }},
		{name: "zero poll", mutate: func(c *Config) { c.Game.PollInterval = 0 }},
		{name: "zero stop timeout", mutate: func(c *Config) { c.Capture.StopTimeout = 0 }},
		{name: "negative fps", mutate: func(c *Config) { c.Capture.MaxFPS = -1 }},
		{name: "zero confidence", mutate: func(c *Config) { c.Detector.MinConfidence = 0 }},
		{name: "confidence above one", mutate: func(c *Config) { c.Detector.MinConfidence = 1.5 }},
		{name: "zero input size", mutate: func(c *Config) { c.Detector.InputSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
