// Package config loads demoapps configuration.
//
// Values come from, in increasing priority:
//  1. defaults
//  2. config.yaml (optional, searched in . and ./config)
//  3. environment variables (SERVER_PORT, DATABASE_PATH, LOG_LEVEL, ...)
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Web      WebConfig      `mapstructure:"web"`
	Snake    SnakeConfig    `mapstructure:"snake"`
	I18n     I18nConfig     `mapstructure:"i18n"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig controls stale session cleanup.
type SessionConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxAge          time.Duration `mapstructure:"max_age"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// WebConfig overrides the embedded static shell with a directory on disk.
type WebConfig struct {
	Dir string `mapstructure:"dir"`
}

// SnakeConfig tunes the snake game.
type SnakeConfig struct {
	InitialSpeed time.Duration `mapstructure:"initial_speed"`
}

// I18nConfig configures the locale CLI and its translation backends.
type I18nConfig struct {
	LocalesDir   string        `mapstructure:"locales_dir"`
	Backend      string        `mapstructure:"backend"` // gemini or ollama
	Model        string        `mapstructure:"model"`
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	OllamaURL    string        `mapstructure:"ollama_url"`
	PullModels   bool          `mapstructure:"pull_models"` // ollama: download missing models
	Delay        time.Duration `mapstructure:"delay"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// database.path -> DATABASE_PATH
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional names for these predate the config file.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("database.path", "DATABASE_PATH", "DB_PATH")
	_ = v.BindEnv("i18n.gemini_api_key", "I18N_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("i18n.ollama_url", "I18N_OLLAMA_URL", "OLLAMA_HOST")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.path", "demoapps.db")

	v.SetDefault("session.cleanup_interval", "1h")
	v.SetDefault("session.max_age", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("web.dir", "")

	v.SetDefault("snake.initial_speed", "200ms")

	v.SetDefault("i18n.locales_dir", "web/locales")
	v.SetDefault("i18n.backend", "ollama")
	v.SetDefault("i18n.model", "")
	v.SetDefault("i18n.gemini_api_key", "")
	v.SetDefault("i18n.ollama_url", "http://localhost:11434")
	v.SetDefault("i18n.pull_models", false)
	v.SetDefault("i18n.delay", "500ms")
}

// Validate checks for configuration errors that would only surface later.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("session.cleanup_interval must be positive")
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session.max_age must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Snake.InitialSpeed <= 0 {
		return fmt.Errorf("snake.initial_speed must be positive")
	}
	switch c.I18n.Backend {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("i18n.backend must be gemini or ollama, got %q", c.I18n.Backend)
	}
	if c.I18n.Delay < 0 {
		return fmt.Errorf("i18n.delay must not be negative")
	}
	return nil
}
