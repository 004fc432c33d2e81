package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
	OAuth    OAuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"login-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnectRetries uint64 `env:"POSTGRES_CONNECT_RETRIES" envDefault:"4"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values. An empty address disables the user cache.
type RedisConfig struct {
	Addr                string `env:"REDIS_ADDR"`
	Password            string `env:"REDIS_PASSWORD"`
	DB                  int    `env:"REDIS_DB" envDefault:"0"`
	UserCacheTTLSeconds int    `env:"REDIS_USER_CACHE_TTL_SECONDS" envDefault:"60"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// MinSecretBytes is the shortest accepted signing secret: HS256 keys need 256 bits.
const MinSecretBytes = 32

// AuthConfig defines authentication parameters. The two secrets key the
// session and reset signing domains and must differ.
type AuthConfig struct {
	SessionSecret string `env:"AUTH_SESSION_SECRET"`
	ResetSecret   string `env:"AUTH_RESET_SECRET"`
	BcryptCost    int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// MailConfig configures the SMTP transport used for recovery emails.
type MailConfig struct {
	Host     string `env:"MAIL_HOST"`
	Port     int    `env:"MAIL_PORT" envDefault:"587"`
	Username string `env:"MAIL_USERNAME"`
	Password string `env:"MAIL_PASSWORD"`
	From     string `env:"MAIL_FROM"`
	ResetURL string `env:"MAIL_RESET_URL"`
}

// OAuthConfig configures the external OpenID Connect provider.
type OAuthConfig struct {
	IssuerURL    string   `env:"OAUTH_ISSUER_URL"`
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.SessionSecret) == "" {
		errs = append(errs, errors.New("AUTH_SESSION_SECRET is required"))
	}
	if strings.TrimSpace(c.Auth.ResetSecret) == "" {
		errs = append(errs, errors.New("AUTH_RESET_SECRET is required"))
	}
	if s := c.Auth.SessionSecret; s != "" && len(s) < MinSecretBytes {
		errs = append(errs, fmt.Errorf("AUTH_SESSION_SECRET must be at least %d bytes", MinSecretBytes))
	}
	if s := c.Auth.ResetSecret; s != "" && len(s) < MinSecretBytes {
		errs = append(errs, fmt.Errorf("AUTH_RESET_SECRET must be at least %d bytes", MinSecretBytes))
	}
	if c.Auth.SessionSecret != "" && c.Auth.SessionSecret == c.Auth.ResetSecret {
		errs = append(errs, errors.New("AUTH_SESSION_SECRET and AUTH_RESET_SECRET must differ"))
	}
	if c.OAuth.IssuerURL != "" && c.OAuth.ClientID == "" {
		errs = append(errs, errors.New("OAUTH_CLIENT_ID is required when OAUTH_ISSUER_URL is set"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// UserCacheTTL returns how long cached user records live in Redis.
func (r RedisConfig) UserCacheTTL() time.Duration {
	if r.UserCacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.UserCacheTTLSeconds) * time.Second
}

// Enabled reports whether an external OpenID Connect provider is configured.
func (o OAuthConfig) Enabled() bool {
	return o.IssuerURL != "" && o.ClientID != ""
}
