package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every knob the CLI exposes.
type Config struct {
	Browser    BrowserConfig    `yaml:"browser"`
	Session    SessionConfig    `yaml:"session"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	AI         AIConfig         `yaml:"ai"`
	Agent      AgentConfig      `yaml:"agent"`
	LogsDir    string           `yaml:"logs_dir"`
	ReplayGIF  bool             `yaml:"replay_gif"`
	LogLevel   string           `yaml:"log_level"`
}

// BrowserConfig controls how the browser process is launched.
type BrowserConfig struct {
	Headless    bool     `yaml:"headless"`
	Bin         string   `yaml:"bin"`
	UserDataDir string   `yaml:"user_data_dir"`
	Stealth     bool     `yaml:"stealth"`
	Viewport    Viewport `yaml:"viewport"`
}

type Viewport struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	DeviceScaleFactor float64 `yaml:"device_scale_factor"`
}

// SessionConfig holds the controller's timing.
type SessionConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	Settle     time.Duration `yaml:"settle"`
	IdleWindow time.Duration `yaml:"idle_window"`
}

type ScreenshotConfig struct {
	Format   string `yaml:"format"` // png or jpeg
	Quality  int    `yaml:"quality"`
	FullPage bool   `yaml:"full_page"`
}

type AIConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type AgentConfig struct {
	MaxSteps    int `yaml:"max_steps"`
	MaxFailures int `yaml:"max_failures"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless: false,
			Stealth:  true,
			Viewport: Viewport{Width: 1440, Height: 800, DeviceScaleFactor: 1},
		},
		Session: SessionConfig{
			Timeout:    5 * time.Second,
			Settle:     time.Second,
			IdleWindow: 500 * time.Millisecond,
		},
		Screenshot: ScreenshotConfig{Format: "png", Quality: 90, FullPage: true},
		AI:         AIConfig{Provider: "claude", MaxTokens: 1024},
		Agent:      AgentConfig{MaxSteps: 25, MaxFailures: 2},
		LogsDir:    "logs",
		LogLevel:   "INFO",
	}
}

// Load layers the YAML file at path (if any) and PAGEPILOT_* environment
// variables over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PAGEPILOT_PROVIDER"); v != "" {
		c.AI.Provider = v
	}
	if v := getenv("PAGEPILOT_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := getenv("PAGEPILOT_CHROME_BIN"); v != "" {
		c.Browser.Bin = v
	}
	if v := getenv("PAGEPILOT_PROFILE"); v != "" {
		c.Browser.UserDataDir = v
	}
	if v := getenv("PAGEPILOT_LOGS_DIR"); v != "" {
		c.LogsDir = v
	}
	if v := getenv("PAGEPILOT_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAGEPILOT_HEADLESS: %w", err)
		}
		c.Browser.Headless = b
	}
	if v := getenv("PAGEPILOT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PAGEPILOT_TIMEOUT: %w", err)
		}
		c.Session.Timeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got %s", c.Session.Timeout)
	}
	if c.Session.Settle < 0 || c.Session.IdleWindow < 0 {
		return fmt.Errorf("settle and idle window must not be negative")
	}
	if c.Browser.Viewport.Width <= 0 || c.Browser.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Browser.Viewport.Width, c.Browser.Viewport.Height)
	}
	if c.Browser.Viewport.DeviceScaleFactor <= 0 {
		c.Browser.Viewport.DeviceScaleFactor = 1
	}

	switch strings.ToLower(c.Screenshot.Format) {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("unknown screenshot format: %s (supported: png, jpeg)", c.Screenshot.Format)
	}
	if c.Screenshot.Quality < 0 || c.Screenshot.Quality > 100 {
		return fmt.Errorf("screenshot quality must be within 0-100, got %d", c.Screenshot.Quality)
	}

	switch c.AI.Provider {
	case "claude", "anthropic", "openai", "gpt":
	default:
		return fmt.Errorf("unknown provider: %s (supported: claude, openai)", c.AI.Provider)
	}

	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent max steps must be positive, got %d", c.Agent.MaxSteps)
	}
	return nil
}
