package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	AIURL           string        `mapstructure:"AI_URL"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`
	Timezone        string        `mapstructure:"TIMEZONE"`
	LexiconPath     string        `mapstructure:"LEXICON_PATH"`

	RedisURL   string `mapstructure:"REDIS_URL"`
	RedisQueue string `mapstructure:"REDIS_QUEUE"`

	AssistantBaseURL   string `mapstructure:"ASSISTANT_BASE_URL"`
	AssistantModel     string `mapstructure:"ASSISTANT_MODEL"`
	AssistantAPIKey    string `mapstructure:"ASSISTANT_API_KEY"`
	AssistantMaxTokens int    `mapstructure:"ASSISTANT_MAX_TOKENS"`
}

var keys = []string{
	"ENV", "PORT", "DATABASE_URL", "ADMIN_KEY", "AI_URL", "CORS_ALLOWED_ORIGINS",
	"REQUEST_TIMEOUT", "LOG_LEVEL", "MAX_UPLOAD_MB", "TIMEZONE", "LEXICON_PATH",
	"REDIS_URL", "REDIS_QUEUE",
	"ASSISTANT_BASE_URL", "ASSISTANT_MODEL", "ASSISTANT_API_KEY", "ASSISTANT_MAX_TOKENS",
}

func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile reads path if it exists; environment variables take precedence.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	// Unmarshal only sees env-only keys once they are bound.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("REDIS_QUEUE", "tickets")
	v.SetDefault("ASSISTANT_MAX_TOKENS", 512)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves TIMEZONE. Empty and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	return loc, nil
}

func (c Config) AssistantEnabled() bool {
	return strings.TrimSpace(c.AssistantBaseURL) != "" && strings.TrimSpace(c.AssistantModel) != ""
}
