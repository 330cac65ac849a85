package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	Admin  AdminConfig
	Claim  ClaimConfig
	CORS   CORSConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"coupondrop_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AdminConfig holds the single-admin credentials and token settings.
// WARNING: Defaults are for local development only; set real values in
// production or the admin API is wide open.
type AdminConfig struct {
	Email      string `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	Password   string `envconfig:"ADMIN_PASSWORD" default:"admin"` // CHANGE IN PRODUCTION
	JWTSecret  string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	TokenTTL   int    `envconfig:"ADMIN_TOKEN_TTL" default:"60"` // minutes
}

// ClaimConfig holds the claim-path defaults. CooldownHours seeds the settings
// store on first boot; the effective value afterwards comes from the store.
type ClaimConfig struct {
	CooldownHours  int     `envconfig:"CLAIM_COOLDOWN_HOURS" default:"24"`
	TrackingMethod string  `envconfig:"CLAIM_TRACKING_METHOD" default:"ip"`
	RateLimit      float64 `envconfig:"CLAIM_RATE_LIMIT" default:"1"` // requests/second per client
	RateBurst      int     `envconfig:"CLAIM_RATE_BURST" default:"5"`
}

// CORSConfig holds the allowed origins for browser clients.
type CORSConfig struct {
	Origins string `envconfig:"CORS_ORIGINS" default:"http://localhost:8080"`
}

// OriginList splits the configured origins on commas.
func (c CORSConfig) OriginList() []string {
	parts := strings.Split(c.Origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
