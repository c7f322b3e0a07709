package config

import (
	"testing"
	"time"

	apperrors "friendmap/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REPLY_WINDOW", "")
	t.Setenv("ARTIFACT_BACKEND", "")
	t.Setenv("LAYOUT", "")
	t.Setenv("MESSAGES_PER_CHANNEL", "")
	t.Setenv("SCRAPE_TIMEOUT", "")
	t.Setenv("NEO4J_URI", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.ReplyWindow)
	assert.Equal(t, 30, cfg.MessagesPerChannel)
	assert.Equal(t, 30*time.Second, cfg.ScrapeTimeout)
	assert.Equal(t, "file", cfg.ArtifactBackend)
	assert.False(t, cfg.Neo4jEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REPLY_WINDOW", "45")
	t.Setenv("SCRAPE_TIMEOUT", "1m")
	t.Setenv("MESSAGES_PER_CHANNEL", "500")
	t.Setenv("LAYOUT", "random")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.ReplyWindow)
	assert.Equal(t, time.Minute, cfg.ScrapeTimeout)
	assert.Equal(t, 500, cfg.MessagesPerChannel)
	assert.Equal(t, "random", cfg.Layout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ReplyWindow:        20 * time.Second,
			MessagesPerChannel: 30,
			ScrapeTimeout:      30 * time.Second,
			ScrapeConcurrency:  4,
			Layout:             "reingold",
			ArtifactBackend:    "file",
			GraphDir:           "graph",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero window", func(c *Config) { c.ReplyWindow = 0 }, "REPLY_WINDOW"},
		{"unknown layout", func(c *Config) { c.Layout = "spectral" }, "LAYOUT"},
		{"redis without addr", func(c *Config) { c.ArtifactBackend = "redis" }, "REDIS_ADDR"},
		{"unknown backend", func(c *Config) { c.ArtifactBackend = "s3" }, "ARTIFACT_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
