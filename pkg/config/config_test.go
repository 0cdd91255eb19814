package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30, cfg.Scraper.MaxPosts)
	assert.Equal(t, 2*time.Second, cfg.Scraper.PostDelay)
	assert.Equal(t, 20, cfg.Scraper.LongBreakEvery)
	assert.Equal(t, 30*time.Second, cfg.Scraper.ConnectionCooldown)
	assert.Equal(t, 500, cfg.Scraper.MaxFollowers)
	assert.Equal(t, 3, cfg.Scraper.MaxRetries)
	assert.Equal(t, 0, cfg.Scraper.ScheduleMinutes)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MAX_POSTS", "12")
	t.Setenv("SLEEP_DELAY", "0.5")
	t.Setenv("MAX_FOLLOWERS_FETCH", "100")
	t.Setenv("SCHEDULE_MINUTES", "15")
	t.Setenv("INSTA_USERNAME", "batchuser")
	t.Setenv("INSTA_PASSWORD", "secret")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, 12, cfg.Scraper.MaxPosts)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.PostDelay)
	assert.Equal(t, 100, cfg.Scraper.MaxFollowers)
	assert.Equal(t, 15, cfg.Scraper.ScheduleMinutes)
	assert.Equal(t, "batchuser", cfg.Instagram.Username)
	assert.Equal(t, "secret", cfg.Instagram.Password)
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MAX_POSTS", "not-a-number")
	t.Setenv("SLEEP_DELAY", "-3")
	t.Setenv("SCHEDULE_MINUTES", "-1")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 30, cfg.Scraper.MaxPosts)
	assert.Equal(t, 2*time.Second, cfg.Scraper.PostDelay)
	assert.Equal(t, 0, cfg.Scraper.ScheduleMinutes)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
scraper:
  max_posts: 7
  max_followers: 50
gemini:
  model: gemini-1.5-pro
output:
  base_directory: /tmp/exports
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 7, cfg.Scraper.MaxPosts)
	assert.Equal(t, 50, cfg.Scraper.MaxFollowers)
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
	assert.Equal(t, "/tmp/exports", cfg.Output.BaseDirectory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyFlags(map[string]interface{}{
		"max-posts": 5,
		"schedule":  30,
		"output":    "./out",
		"log-level": "warn",
	})

	assert.Equal(t, 5, cfg.Scraper.MaxPosts)
	assert.Equal(t, 30, cfg.Scraper.ScheduleMinutes)
	assert.Equal(t, "./out", cfg.Output.BaseDirectory)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scraper.MaxPosts = 0
	cfg.Output.BaseDirectory = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max posts")
	assert.Contains(t, err.Error(), "base directory")
}

func TestSessionFilePath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.SessionFilePath())

	cfg.Instagram.Username = "alice"
	assert.Equal(t, ".iganalytics-session-alice.json", cfg.SessionFilePath())

	cfg.Instagram.SessionFile = "/var/lib/session.json"
	assert.Equal(t, "/var/lib/session.json", cfg.SessionFilePath())
}
