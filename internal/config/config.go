package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

const (
	// RuntimeAgent sends images through the ADK agent runner
	RuntimeAgent = "agent"
	// RuntimeDirect calls the Gemini API directly
	RuntimeDirect = "direct"
)

// Config holds the service configuration.
type Config struct {
	Env  string `mapstructure:"ENV"`
	Port int    `mapstructure:"PORT"`

	GeminiAPIKey string        `mapstructure:"GEMINI_API_KEY"`
	Model        string        `mapstructure:"MODEL"`
	ModelRuntime string        `mapstructure:"MODEL_RUNTIME"`
	ScanTimeout  time.Duration `mapstructure:"SCAN_TIMEOUT"`
	MaxRetries   int           `mapstructure:"MAX_RETRIES"`

	MaxUploadBytes     int64 `mapstructure:"MAX_UPLOAD_BYTES"`
	RateLimitPerMinute int   `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	DailyQuota         int64 `mapstructure:"DAILY_QUOTA"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	CloudRunURL    string `mapstructure:"CLOUD_RUN_URL"`
	StaticDir      string `mapstructure:"STATIC_DIR"`

	JSONRepair       bool   `mapstructure:"JSON_REPAIR"`
	CoverURLTemplate string `mapstructure:"COVER_URL_TEMPLATE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"ENV":                   "",
	"PORT":                  8080,
	"GEMINI_API_KEY":        "",
	"MODEL":                 "gemini-2.5-flash",
	"MODEL_RUNTIME":         RuntimeAgent,
	"SCAN_TIMEOUT":          30 * time.Second,
	"MAX_RETRIES":           2,
	"MAX_UPLOAD_BYTES":      int64(10 << 20),
	"RATE_LIMIT_PER_MINUTE": 15,
	"DAILY_QUOTA":           int64(1000),
	"ALLOWED_ORIGINS":       "",
	"CLOUD_RUN_URL":         "",
	"STATIC_DIR":            "/app/static",
	"JSON_REPAIR":           false,
	"COVER_URL_TEMPLATE":    "https://picsum.photos/200/300?random=%d",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "",
}

// Load reads .env.local (if present) and the process environment.
func Load() (*Config, error) {
	// Missing .env.local is normal outside local development
	_ = godotenv.Load(".env.local")

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return eris.Errorf("config: PORT out of range: %d", c.Port)
	}
	if c.ModelRuntime != RuntimeAgent && c.ModelRuntime != RuntimeDirect {
		return eris.Errorf("config: MODEL_RUNTIME must be %q or %q, got %q", RuntimeAgent, RuntimeDirect, c.ModelRuntime)
	}
	if c.ScanTimeout <= 0 {
		return eris.New("config: SCAN_TIMEOUT must be positive")
	}
	if c.MaxRetries < 0 {
		return eris.New("config: MAX_RETRIES must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return eris.New("config: MAX_UPLOAD_BYTES must be positive")
	}
	if c.RateLimitPerMinute <= 0 || c.DailyQuota <= 0 {
		return eris.New("config: RATE_LIMIT_PER_MINUTE and DAILY_QUOTA must be positive")
	}
	if strings.Count(c.CoverURLTemplate, "%d") != 1 || strings.Count(c.CoverURLTemplate, "%") != 1 {
		return eris.Errorf("config: COVER_URL_TEMPLATE must contain exactly one %%d: %q", c.CoverURLTemplate)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return eris.Errorf("config: LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.IsProduction() && len(c.Origins()) == 0 {
		return eris.New("config: CLOUD_RUN_URL or ALLOWED_ORIGINS is required in production")
	}
	return nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Origins returns the CORS allow-list
func (c *Config) Origins() []string {
	origins := []string{}
	if !c.IsProduction() {
		origins = append(origins, "http://localhost:5173")
	}
	if c.CloudRunURL != "" {
		origins = append(origins, c.CloudRunURL)
	}
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
