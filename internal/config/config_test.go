package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, RuntimeAgent, cfg.ModelRuntime)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 15, cfg.RateLimitPerMinute)
	assert.Equal(t, int64(1000), cfg.DailyQuota)
	assert.False(t, cfg.JSONRepair)
	assert.Equal(t, "https://picsum.photos/200/300?random=%d", cfg.CoverURLTemplate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "/app/static", cfg.StaticDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("CLOUD_RUN_URL", "https://shelf.run.app")
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_RUNTIME", "direct")
	t.Setenv("SCAN_TIMEOUT", "45s")
	t.Setenv("JSON_REPAIR", "true")
	t.Setenv("DAILY_QUOTA", "50")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, RuntimeDirect, cfg.ModelRuntime)
	assert.Equal(t, 45*time.Second, cfg.ScanTimeout)
	assert.True(t, cfg.JSONRepair)
	assert.Equal(t, int64(50), cfg.DailyQuota)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"https://shelf.run.app"}, cfg.Origins())
}

func TestLoadRejectsUnknownRuntime(t *testing.T) {
	t.Setenv("MODEL_RUNTIME", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_RUNTIME")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:               8080,
			ModelRuntime:       RuntimeAgent,
			ScanTimeout:        time.Second,
			MaxUploadBytes:     1,
			RateLimitPerMinute: 1,
			DailyQuota:         1,
			CoverURLTemplate:   "/covers/%d.jpg",
			LogFormat:          "json",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero port", mutate: func(c *Config) { c.Port = 0 }},
		{name: "zero timeout", mutate: func(c *Config) { c.ScanTimeout = 0 }},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }},
		{name: "zero upload", mutate: func(c *Config) { c.MaxUploadBytes = 0 }},
		{name: "zero quota", mutate: func(c *Config) { c.DailyQuota = 0 }},
		{name: "cover without verb", mutate: func(c *Config) { c.CoverURLTemplate = "/cover.jpg" }},
		{name: "cover with two verbs", mutate: func(c *Config) { c.CoverURLTemplate = "/%d/%d.jpg" }},
		{name: "cover with string verb", mutate: func(c *Config) { c.CoverURLTemplate = "/%s.jpg" }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }},
		{name: "production without origins", mutate: func(c *Config) { c.Env = "production" }},
		{name: "production with blank origins", mutate: func(c *Config) {
			c.Env = "production"
			c.AllowedOrigins = " , "
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateProductionWithOrigins(t *testing.T) {
	cfg := &Config{
		Env:                "production",
		Port:               8080,
		ModelRuntime:       RuntimeDirect,
		ScanTimeout:        time.Second,
		MaxUploadBytes:     1,
		RateLimitPerMinute: 1,
		DailyQuota:         1,
		CoverURLTemplate:   "/covers/%d.jpg",
		LogFormat:          "json",
		CloudRunURL:        "https://shelf.example",
	}
	require.NoError(t, cfg.Validate())

	cfg.CloudRunURL = ""
	cfg.AllowedOrigins = "https://a.example"
	require.NoError(t, cfg.Validate())
}

func TestOrigins(t *testing.T) {
	dev := &Config{AllowedOrigins: "https://a.example, https://b.example,"}
	assert.Equal(t, []string{"http://localhost:5173", "https://a.example", "https://b.example"}, dev.Origins())

	prod := &Config{Env: "production", CloudRunURL: "https://shelf.run.app"}
	assert.Equal(t, []string{"https://shelf.run.app"}, prod.Origins())
}

func TestNewLogger(t *testing.T) {
	logger, level, err := NewLogger(&Config{LogLevel: "info", LogFormat: "json"})
	require.NoError(t, err)
	defer logger.Sync()

	assert.Equal(t, zapcore.InfoLevel, level.Level())
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, _, err := NewLogger(&Config{LogLevel: "loud", LogFormat: "json"})
	assert.Error(t, err)
}
