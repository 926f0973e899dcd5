// Package config provides configuration management for roast.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the roast configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	API     APIConfig     `yaml:"api"`
	LLM     LLMConfig     `yaml:"llm"`
	Capture CaptureConfig `yaml:"capture"`
	Roast   RoastConfig   `yaml:"roast"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig contains service-level settings.
type ServiceConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

// APIConfig contains HTTP API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// LLMConfig contains LLM integration settings.
type LLMConfig struct {
	APIKey         string `yaml:"api_key"`
	CritiqueModel  string `yaml:"critique_model"`
	SynthesisModel string `yaml:"synthesis_model"`
	Thinking       string `yaml:"thinking"` // NONE, LOW, NORMAL, HIGH
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CaptureConfig contains browser capture settings.
type CaptureConfig struct {
	WindowWidth    int  `yaml:"window_width"`
	WindowHeight   int  `yaml:"window_height"`
	FullPage       bool `yaml:"full_page"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

// RoastConfig contains critique workflow settings.
type RoastConfig struct {
	Iterations   int     `yaml:"iterations"`
	Focus        string  `yaml:"focus"`
	FixMode      string  `yaml:"fix_mode"` // quick, deep, ship
	ReportsDir   string  `yaml:"reports_dir"`
	PersonasDir  string  `yaml:"personas_dir"`
	FocusBoost   float64 `yaml:"focus_boost"`
	OffFocusDamp float64 `yaml:"off_focus_damp"`
	WatchDir     string  `yaml:"watch_dir"`
	DebounceMs   int     `yaml:"debounce_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `yaml:"level"`
	Format     string   `yaml:"format"` // text or json
	Output     []string `yaml:"output"` // stdout, file, both
	TimeFormat string   `yaml:"time_format"`
	MaxSizeMB  int      `yaml:"max_size_mb"`
	MaxBackups int      `yaml:"max_backups"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Host:    "127.0.0.1",
			Port:    8430,
			DataDir: DefaultDataDir(),
		},
		API: APIConfig{
			Enabled: true,
			APIKey:  "", // Empty = no auth for localhost
		},
		LLM: LLMConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			CritiqueModel:  "gemini-3-flash-preview",
			SynthesisModel: "gemini-3-flash-preview",
			Thinking:       "NORMAL",
			TimeoutSeconds: 120,
		},
		Capture: CaptureConfig{
			WindowWidth:    1280,
			WindowHeight:   800,
			FullPage:       true,
			TimeoutSeconds: 60,
		},
		Roast: RoastConfig{
			Iterations:   2,
			ReportsDir:   "reports",
			PersonasDir:  filepath.Join(".roast", "personas"),
			FocusBoost:   1.5,
			OffFocusDamp: 0.5,
			DebounceMs:   500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
	}
}

// DefaultDataDir returns the default data directory based on OS.
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "roast")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "roast")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "roast")
	default: // linux and others
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			return filepath.Join(xdgData, "roast")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".roast")
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if no config file exists
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the config
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.Service.DataDir = expandTilde(cfg.Service.DataDir)
	cfg.Roast.ReportsDir = expandTilde(cfg.Roast.ReportsDir)

	return cfg, nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Address returns the full address string for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}

// ScreenshotsDir returns the directory screenshots are saved to.
func (c *Config) ScreenshotsDir() string {
	return filepath.Join(c.Roast.ReportsDir, "screenshots")
}

// SessionsDir returns the directory session state is stored in.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Service.DataDir, "sessions")
}

// MemoryDir returns the directory the finding memory persists to.
func (c *Config) MemoryDir() string {
	return filepath.Join(c.Service.DataDir, "memory")
}

// LogPath returns the path to the service log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Service.DataDir, "logs", "roast-service.log")
}

// PIDPath returns the path to the daemon PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Service.DataDir, "roast-service.pid")
}

// EnsureDirectories creates all necessary directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Service.DataDir,
		c.Roast.ReportsDir,
		c.ScreenshotsDir(),
		c.SessionsDir(),
		c.MemoryDir(),
		filepath.Dir(c.LogPath()),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
