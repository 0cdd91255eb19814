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

// Config holds all configuration options for the profile analyzer
type Config struct {
	// Instagram session / login settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Scraper pacing and caps
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Gemini inference settings
	Gemini GeminiConfig `yaml:"gemini" json:"gemini"`

	// Export output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// HTTP API settings
	API APIConfig `yaml:"api" json:"api"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password" json:"-"`
	SessionFile string `yaml:"session_file" json:"session_file"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
}

// ScraperConfig holds pagination caps and rate-limiting pauses
type ScraperConfig struct {
	// MaxPosts caps how many recent posts are scraped per profile
	MaxPosts int `yaml:"max_posts" json:"max_posts"`
	// PostDelay is the short pause after each post; zero disables pacing
	PostDelay time.Duration `yaml:"post_delay" json:"post_delay"`
	// LongBreakEvery triggers a 3x pause after this many posts
	LongBreakEvery int `yaml:"long_break_every" json:"long_break_every"`
	// ConnectionCooldown is the wait after a transient connection failure
	ConnectionCooldown time.Duration `yaml:"connection_cooldown" json:"connection_cooldown"`
	// MaxFollowers caps follower/following enumeration
	MaxFollowers int `yaml:"max_followers" json:"max_followers"`
	// MaxRetries and RetryDelay drive the profile-load fetch wrapper
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// RequestTimeout bounds individual HTTP requests
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	// ScheduleMinutes repeats batch runs at this interval; 0 disables
	ScheduleMinutes int `yaml:"schedule_minutes" json:"schedule_minutes"`
}

// GeminiConfig holds settings for the category/location inference service
type GeminiConfig struct {
	APIKey  string `yaml:"api_key" json:"-"`
	Model   string `yaml:"model" json:"model"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// OutputConfig holds export directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	SnapshotDir   string `yaml:"snapshot_dir" json:"snapshot_dir"`
}

// APIConfig holds HTTP server configuration
type APIConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Scraper: ScraperConfig{
			MaxPosts:           30,
			PostDelay:          2 * time.Second,
			LongBreakEvery:     20,
			ConnectionCooldown: 30 * time.Second,
			MaxFollowers:       500,
			MaxRetries:         3,
			RetryDelay:         2 * time.Second,
			RequestTimeout:     30 * time.Second,
			ScheduleMinutes:    0,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			BaseURL: "https://generativelanguage.googleapis.com",
		},
		Output: OutputConfig{
			BaseDirectory: ".",
			SnapshotDir:   "data",
		},
		API: APIConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load builds the effective configuration: defaults, then .env, then an
// optional YAML file, then environment variables, then flag overrides.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	// Best effort .env load; absence is fine
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.Gemini.Model = model
	}

	if v := os.Getenv("MAX_POSTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scraper.MaxPosts = n
		}
	}
	if v := os.Getenv("SLEEP_DELAY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.Scraper.PostDelay = time.Duration(f * float64(time.Second))
		}
	}
	if v := os.Getenv("MAX_FOLLOWERS_FETCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scraper.MaxFollowers = n
		}
	}
	if v := os.Getenv("SCHEDULE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Scraper.ScheduleMinutes = n
		}
	}

	if username := strings.TrimSpace(os.Getenv("INSTA_USERNAME")); username != "" {
		c.Instagram.Username = username
	}
	if password := strings.TrimSpace(os.Getenv("INSTA_PASSWORD")); password != "" {
		c.Instagram.Password = password
	}

	if dir := os.Getenv("IGANALYTICS_OUTPUT_DIR"); dir != "" {
		c.Output.BaseDirectory = dir
	}
	if addr := os.Getenv("IGANALYTICS_API_ADDR"); addr != "" {
		c.API.Addr = addr
	}
	if level := os.Getenv("IGANALYTICS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".iganalytics.yaml",
		".iganalytics.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "iganalytics", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "iganalytics", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".iganalytics.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// applyFlags overrides configuration with CLI flag values
func (c *Config) applyFlags(flags map[string]interface{}) {
	for name, value := range flags {
		switch name {
		case "max-posts":
			if v, ok := value.(int); ok && v > 0 {
				c.Scraper.MaxPosts = v
			}
		case "post-delay":
			if v, ok := value.(time.Duration); ok {
				c.Scraper.PostDelay = v
			}
		case "schedule":
			if v, ok := value.(int); ok && v >= 0 {
				c.Scraper.ScheduleMinutes = v
			}
		case "output":
			if v, ok := value.(string); ok && v != "" {
				c.Output.BaseDirectory = v
			}
		case "addr":
			if v, ok := value.(string); ok && v != "" {
				c.API.Addr = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Scraper.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	if c.Scraper.PostDelay < 0 {
		errs = append(errs, errors.New("post delay cannot be negative"))
	}
	if c.Scraper.MaxFollowers <= 0 {
		errs = append(errs, errors.New("max followers must be positive"))
	}
	if c.Scraper.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.Scraper.ScheduleMinutes < 0 {
		errs = append(errs, errors.New("schedule minutes cannot be negative"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output base directory is required"))
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// SessionFilePath returns the session snapshot path for the configured
// login account, or empty when no account is configured.
func (c *Config) SessionFilePath() string {
	if c.Instagram.SessionFile != "" {
		return c.Instagram.SessionFile
	}
	if c.Instagram.Username == "" {
		return ""
	}
	return fmt.Sprintf(".iganalytics-session-%s.json", c.Instagram.Username)
}
