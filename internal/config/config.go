package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env      string
		LogLevel string `mapstructure:"log_level"`
		Timezone string
	}
	Server struct {
		Port           string
		ReadTimeout    time.Duration `mapstructure:"read_timeout"`
		WriteTimeout   time.Duration `mapstructure:"write_timeout"`
		AllowedOrigins []string      `mapstructure:"allowed_origins"`
	}
	DB struct {
		URL      string
		MaxConns int32 `mapstructure:"max_conns"`
	}
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	}
	OpenAI struct {
		APIKey  string `mapstructure:"api_key"`
		Model   string
		BaseURL string `mapstructure:"base_url"`
	}
	Recognition struct {
		URL     string
		Timeout time.Duration
	}
	S3 struct {
		Bucket    string
		Region    string
		PublicURL string `mapstructure:"public_url"`
	}
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// defaults lists every key so that environment variables reach Unmarshal;
// viper only consults the environment for keys it already knows.
var defaults = map[string]any{
	"app.env":                "production",
	"app.log_level":          "info",
	"app.timezone":           "Local",
	"server.port":            "8080",
	"server.read_timeout":    10 * time.Second,
	"server.write_timeout":   30 * time.Second,
	"server.allowed_origins": []string{"*"},
	"db.url":                 "",
	"db.max_conns":           10,
	"auth.jwt_secret":        "",
	"auth.token_ttl":         72 * time.Hour,
	"openai.api_key":         "",
	"openai.model":           "gpt-4o-mini",
	"openai.base_url":        "https://api.openai.com",
	"recognition.url":        "",
	"recognition.timeout":    20 * time.Second,
	"s3.bucket":              "",
	"s3.region":              "",
	"s3.public_url":          "",
	"migrations_dir":         "db",
	"shutdown_timeout":       10 * time.Second,
}

// Load reads config.yaml from the search paths (optional), then applies
// environment overrides: db.url <- DB_URL, openai.api_key <- OPENAI_API_KEY.
// A .env file in the working directory is loaded first if present.
func Load(searchPaths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{".", "./config", "$HOME/.fittrack"}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Process any ${ENV_VAR} syntax in the config values
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			v.Set(key, os.Getenv(envVar))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Location resolves App.Timezone. Day boundaries for summaries use it.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// Validate reports settings the API cannot start without.
func (c *Config) Validate() error {
	if c.DB.URL == "" {
		return errors.New("db.url (DB_URL) is not configured")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (AUTH_JWT_SECRET) is not configured")
	}
	return nil
}
