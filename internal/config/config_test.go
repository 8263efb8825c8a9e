package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearOffloadEnv unsets every offload variable for the test, restoring the
// original values on cleanup. A plain t.Setenv to "" is not enough because
// empty strings still override the fallbacks.
func clearOffloadEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CDN_BUCKET", "CDN_URL", "CDN_REGION", "CDN_PREFIX", "CDN_ENDPOINT",
		"CDN_ACCESS_KEY", "CDN_SECRET_KEY", "CDN_ENABLED", "CDN_MINIFY",
		"MEDIA_ROOT", "MEDIA_BASE_URL", "STATIC_ROOT", "STATIC_BASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigOffloadDefaults(t *testing.T) {
	clearOffloadEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.Offload.IsConfigured())
	assert.False(t, cfg.Offload.Enabled)
	assert.Equal(t, DefaultRegion, cfg.Offload.Region)
}

func TestLoadConfigOffloadConfigured(t *testing.T) {
	clearOffloadEnv(t)
	t.Setenv("CDN_BUCKET", "prod-media")
	t.Setenv("CDN_URL", "https://cdn.example.com/")
	t.Setenv("CDN_REGION", "eu-west-1")
	t.Setenv("CDN_PREFIX", "/wp-media/")
	t.Setenv("CDN_MINIFY", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Offload.IsConfigured())
	assert.True(t, cfg.Offload.Enabled)
	assert.Equal(t, "https://cdn.example.com", cfg.Offload.CDNUrl, "trailing slash dropped")
	assert.Equal(t, "wp-media", cfg.Offload.Prefix, "prefix stored without slashes")
	assert.Equal(t, "eu-west-1", cfg.Offload.Region)
	assert.True(t, cfg.Offload.Minify)
}

func TestLoadConfigExplicitDisable(t *testing.T) {
	clearOffloadEnv(t)
	t.Setenv("CDN_BUCKET", "prod-media")
	t.Setenv("CDN_URL", "https://cdn.example.com")
	t.Setenv("CDN_ENABLED", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Offload.IsConfigured())
	assert.False(t, cfg.Offload.Enabled, "CDN_ENABLED=0 wins over configured bucket")
}

func TestLoadConfigBaseURLsTrimmed(t *testing.T) {
	clearOffloadEnv(t)
	t.Setenv("MEDIA_BASE_URL", "https://example.com/wp-content/uploads/")
	t.Setenv("STATIC_BASE_URL", "https://example.com/static/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/wp-content/uploads", cfg.Offload.MediaBaseURL)
	assert.Equal(t, "https://example.com/static", cfg.Offload.StaticBaseURL)
}
