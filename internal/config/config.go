// Package config loads objecthunt settings from a YAML file, a .env file
// and OBJECTHUNT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OBJECTHUNT_"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Capture  CaptureConfig  `yaml:"capture"`
	Detector DetectorConfig `yaml:"detector"`
	Game     GameConfig     `yaml:"game"`
	Store    StoreConfig    `yaml:"store"`
	Hooks    HooksConfig    `yaml:"hooks"`
	Tray     TrayConfig     `yaml:"tray"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type CaptureConfig struct {
	// Source is a camera index ("0") or a video file path.
	Source      string        `yaml:"source"`
	MaxFPS      int           `yaml:"max_fps"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

type DetectorConfig struct {
	Model         string  `yaml:"model"`
	Labels        string  `yaml:"labels"`
	ServiceScript string  `yaml:"service_script"`
	MinConfidence float64 `yaml:"min_confidence"`
	NMSThreshold  float64 `yaml:"nms_threshold"`
	InputSize     int     `yaml:"input_size"`
}

type GameConfig struct {
	TimeBudget    time.Duration `yaml:"time_budget"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	WinnerPolicy  string        `yaml:"winner_policy"`
	AutoAdvance   bool          `yaml:"auto_advance"`
	RandomTargets int           `yaml:"random_targets"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type HooksConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	base := dataDir()

	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Capture: CaptureConfig{
			Source:      "0",
			StopTimeout: 2 * time.Second,
		},
		Detector: DetectorConfig{
			MinConfidence: 0.5,
			NMSThreshold:  0.45,
			InputSize:     640,
		},
		Game: GameConfig{
			TimeBudget:    60 * time.Second,
			TickInterval:  time.Second,
			PollInterval:  10 * time.Millisecond,
			WinnerPolicy:  "score",
			AutoAdvance:   true,
			RandomTargets: 5,
		},
		Store: StoreConfig{
			Path: filepath.Join(base, "objecthunt.db"),
		},
		Hooks: HooksConfig{
			Dir:     filepath.Join(base, "hooks"),
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads path over the defaults, then applies the .env file and the
// environment. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// The .env file is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Game.TimeBudget <= 0:
		return fmt.Errorf("game.time_budget must be positive")
	case c.Game.TickInterval <= 0:
		return fmt.Errorf("game.tick_interval must be positive")
	case c.Game.PollInterval <= 0:
		return fmt.Errorf("game.poll_interval must be positive")
	case c.Capture.StopTimeout <= 0:
		return fmt.Errorf("capture.stop_timeout must be positive")
	case c.Capture.MaxFPS < 0:
		return fmt.Errorf("capture.max_fps must not be negative")
	case c.Detector.MinConfidence <= 0 || c.Detector.MinConfidence > 1:
		return fmt.Errorf("detector.min_confidence must be in (0, 1], got %v", c.Detector.MinConfidence)
	case c.Detector.NMSThreshold <= 0 || c.Detector.NMSThreshold > 1:
		return fmt.Errorf("detector.nms_threshold must be in (0, 1], got %v", c.Detector.NMSThreshold)
	case c.Detector.InputSize <= 0:
		return fmt.Errorf("detector.input_size must be positive")
	case c.Hooks.Timeout <= 0:
		return fmt.Errorf("hooks.timeout must be positive")
	}

	switch c.Game.WinnerPolicy {
	case "score", "completion":
	default:
		return fmt.Errorf("game.winner_policy must be \"score\" or \"completion\", got %q", c.Game.WinnerPolicy)
	}

	return nil
}

// applyEnv overrides fields from OBJECTHUNT_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"ADDR":           &c.Server.Addr,
		"STATIC_DIR":     &c.Server.StaticDir,
		"SOURCE":         &c.Capture.Source,
		"MODEL":          &c.Detector.Model,
		"LABELS":         &c.Detector.Labels,
		"SERVICE_SCRIPT": &c.Detector.ServiceScript,
		"WINNER_POLICY":  &c.Game.WinnerPolicy,
		"DB_PATH":        &c.Store.Path,
		"HOOKS_DIR":      &c.Hooks.Dir,
	}
	for key, dst := range strs {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TIME_BUDGET":   &c.Game.TimeBudget,
		"TICK_INTERVAL": &c.Game.TickInterval,
		"STOP_TIMEOUT":  &c.Capture.StopTimeout,
		"HOOKS_TIMEOUT": &c.Hooks.Timeout,
	}
	for key, dst := range durations {
		v := getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"MAX_FPS":        &c.Capture.MaxFPS,
		"RANDOM_TARGETS": &c.Game.RandomTargets,
	}
	for key, dst := range ints {
		v := getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	if v := getenv(EnvPrefix + "MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sMIN_CONFIDENCE: %w", EnvPrefix, err)
		}
		c.Detector.MinConfidence = f
	}

	bools := map[string]*bool{
		"AUTO_ADVANCE": &c.Game.AutoAdvance,
		"TRAY":         &c.Tray.Enabled,
	}
	for key, dst := range bools {
		v := strings.TrimSpace(getenv(EnvPrefix + key))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}

	return nil
}

// dataDir returns ~/.objecthunt, or .objecthunt when there is no home.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".objecthunt"
	}
	return filepath.Join(home, ".objecthunt")
}
