package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	DashboardCacheTTL time.Duration
	AIProvider        string
	AIModel           string
	AITimeout         time.Duration
	AIBaseURL         string
	OpenAIAPIKey      string
	GeminiAPIKey      string
	MinGradingLength  int
	PublicRead        bool
	GradeRateLimit    int
	GradeRateWindow   time.Duration
	NATSURL           string
	NATSSubject       string
	StaticDir         string
	CORSAllowOrigins  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AIAPIKey returns the credential for the configured scoring provider.
func (c Config) AIAPIKey() string {
	switch c.AIProvider {
	case "openai":
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MELHORENEM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "MelhorEnem API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "redacoes.db")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("essays.min_grading_length", 50)
	v.SetDefault("essays.public_read", false)
	v.SetDefault("rate_limit.grade_max", 10)
	v.SetDefault("rate_limit.grade_window", "1m")
	v.SetDefault("nats.subject", "melhorenem.essays")
	v.SetDefault("cors.allow_origins", "*")

	// Unprefixed names accepted for existing deployments.
	_ = v.BindEnv("gemini_api_key", "MELHORENEM_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("openai_api_key", "MELHORENEM_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("app.port", "MELHORENEM_APP_PORT", "PORT")

	ttl, err := parseDuration(v, "dashboard.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	aiTimeout, err := parseDuration(v, "ai.timeout", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	window, err := parseDuration(v, "rate_limit.grade_window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseDriver:    strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		DashboardCacheTTL: ttl,
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		AIModel:           v.GetString("ai.model"),
		AITimeout:         aiTimeout,
		AIBaseURL:         v.GetString("ai.base_url"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		GeminiAPIKey:      v.GetString("gemini_api_key"),
		MinGradingLength:  v.GetInt("essays.min_grading_length"),
		PublicRead:        v.GetBool("essays.public_read"),
		GradeRateLimit:    v.GetInt("rate_limit.grade_max"),
		GradeRateWindow:   window,
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		StaticDir:         v.GetString("web.static_dir"),
		CORSAllowOrigins:  v.GetString("cors.allow_origins"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}

	switch c.AIProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AIProvider)
	}

	if c.AIAPIKey() == "" {
		return fmt.Errorf("api key for ai provider %q must be provided", c.AIProvider)
	}

	if c.MinGradingLength <= 0 {
		c.MinGradingLength = 50
	}

	return nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
