package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hubauth/jwtauthenticator/jwtverify"
	"github.com/hubauth/jwtauthenticator/utils"
	"github.com/joho/godotenv"
)

// Config represents the complete authenticator configuration. It is loaded
// once at startup and passed explicitly to everything that needs it.
type Config struct {
	Auth          AuthConfig
	Hub           HubConfig
	Session       SessionConfig
	Database      *DatabaseConfig // Optional: when nil, users are kept in memory.
	Observability ObservabilityConfig
	Environment   string `validate:"required"`
}

// AuthConfig holds token location and verification settings
type AuthConfig struct {
	SigningCertificate    string // Path to a PEM certificate or public key
	Secret                string // Shared secret; wins over SigningCertificate when set
	ExpectedAudience      string // Empty disables audience verification
	UsernameClaimField    string `validate:"required"`
	HeaderName            string `validate:"required"`
	HeaderIsAuthorization bool
	ParamName             string `validate:"required"`
	CookieName            string `validate:"required"`
	LoginURL              string // External login page; empty disables the redirect
	PostLoginRedirect     string // Appended base64-encoded to LoginURL
	Leeway                time.Duration `validate:"gte=0"`
}

// HubConfig holds settings of the hosting hub
type HubConfig struct {
	BaseURL     string `validate:"required,startswith=/"`
	CreateUsers bool   // Provision unknown users on first login
}

// SessionConfig holds login session settings
type SessionConfig struct {
	CookieName string        `validate:"required"`
	TTL        time.Duration `validate:"gt=0"`
	Secure     bool
	Backend    string `validate:"oneof=memory redis"`
	Redis      RedisConfig
}

// RedisConfig holds Redis connection settings for the session backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: environment,
		Auth: AuthConfig{
			SigningCertificate:    getEnv("JWT_SIGNING_CERTIFICATE", ""),
			Secret:                getEnv("JWT_SECRET", ""),
			ExpectedAudience:      getEnv("JWT_EXPECTED_AUDIENCE", ""),
			UsernameClaimField:    getEnv("JWT_USERNAME_CLAIM_FIELD", "upn"),
			HeaderName:            getEnv("JWT_HEADER_NAME", "Authorization"),
			HeaderIsAuthorization: getEnvAsBool("JWT_HEADER_IS_AUTHORIZATION", true),
			ParamName:             getEnv("JWT_PARAM_NAME", "access_token"),
			CookieName:            getEnv("JWT_COOKIE_NAME", "XSRF-TOKEN"),
			LoginURL:              getEnv("JWT_LOGIN_URL", ""),
			PostLoginRedirect:     getEnv("JWT_POST_LOGIN_REDIRECT", ""),
			Leeway:                getEnvAsDuration("JWT_LEEWAY", 0),
		},
		Hub: HubConfig{
			BaseURL:     getEnv("HUB_BASE_URL", "/hub/"),
			CreateUsers: getEnvAsBool("HUB_CREATE_USERS", true),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "jupyterhub-session-id"),
			TTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			Secure:     getEnvAsBool("SESSION_SECURE", isProduction(environment)),
			Backend:    getEnv("SESSION_BACKEND", "memory"),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Database: loadDatabaseConfig(),
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks struct constraints and that a trust anchor is configured
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		if utils.IsValidationError(err) {
			return fmt.Errorf("%w: %v", err, utils.GetValidationFields(err))
		}
		return err
	}

	if _, err := c.VerificationMode(); err != nil {
		return err
	}

	if c.Database != nil && c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Session.Backend == "redis" && c.Session.Redis.Addr == "" {
		return fmt.Errorf("redis address is required for the redis session backend")
	}

	return nil
}

// VerificationMode resolves the trust anchor. A configured secret always
// takes precedence over a signing certificate.
func (c *Config) VerificationMode() (jwtverify.VerificationMode, error) {
	return jwtverify.NewVerificationMode(c.Auth.SigningCertificate, c.Auth.Secret)
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return isProduction(c.Environment)
}

// Session cookies default to Secure in production.
func isProduction(environment string) bool {
	return environment == "production" || environment == "prod"
}

// HomePath returns the hub landing page used after login when no "next"
// target was requested.
func (h *HubConfig) HomePath() string {
	return strings.TrimSuffix(h.BaseURL, "/") + "/home"
}

// Path joins elem onto the hub base URL.
func (h *HubConfig) Path(elem string) string {
	return strings.TrimSuffix(h.BaseURL, "/") + "/" + strings.TrimPrefix(elem, "/")
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars.
// Returns nil when neither is set (users are then held in memory).
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return &DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	if os.Getenv("DB_HOST") == "" {
		return nil
	}
	return &DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "hub"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "hub"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
