package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Security   SecurityConfig
	Logging    LoggingConfig
	Pagination PaginationConfig
	Cache      CacheConfig
	Bootstrap  BootstrapConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string // CORS origins, "*" for any
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds token and API key settings
type SecurityConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	APIKeyHash  string // bcrypt hash of the admin API key, empty disables it
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// PaginationConfig bounds list page sizes
type PaginationConfig struct {
	MinPageSize     int
	MaxPageSize     int
	DefaultPageSize int
}

// CacheConfig sizes the output cache
type CacheConfig struct {
	Capacity int
	TTL      time.Duration
}

// BootstrapConfig controls startup side effects
type BootstrapConfig struct {
	SeedDemoData bool
}

// Load reads configuration from config/local.env, when present, and the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")

	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	cfg.loadSecurity()
	cfg.loadLogging()
	if err := cfg.loadPagination(); err != nil {
		return nil, fmt.Errorf("load pagination config: %w", err)
	}
	if err := cfg.loadCache(); err != nil {
		return nil, fmt.Errorf("load cache config: %w", err)
	}
	if err := cfg.loadBootstrap(); err != nil {
		return nil, fmt.Errorf("load bootstrap config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := getIntOrDefault("DB_PORT", 5432)
	if err != nil {
		return err
	}
	c.Database.Port = port

	if c.Database.Host != "" && c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := getIntOrDefault("PORT", 8080)
	if err != nil {
		return err
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, origin)
		}
	}
	return nil
}

func (c *Config) loadSecurity() {
	c.Security.JWTSecret = os.Getenv("JWT_SECRET")
	c.Security.JWTIssuer = getEnvOrDefault("JWT_ISSUER", "https://id.moviesapi.local")
	c.Security.JWTAudience = getEnvOrDefault("JWT_AUDIENCE", "https://movies.moviesapi.local")
	c.Security.APIKeyHash = os.Getenv("API_KEY_HASH")
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
}

func (c *Config) loadPagination() error {
	var err error
	if c.Pagination.MinPageSize, err = getIntOrDefault("MIN_PAGE_SIZE", 1); err != nil {
		return err
	}
	if c.Pagination.MaxPageSize, err = getIntOrDefault("MAX_PAGE_SIZE", 25); err != nil {
		return err
	}
	if c.Pagination.DefaultPageSize, err = getIntOrDefault("DEFAULT_PAGE_SIZE", 10); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadCache() error {
	capacity, err := getIntOrDefault("CACHE_CAPACITY", 10000)
	if err != nil {
		return err
	}
	c.Cache.Capacity = capacity

	ttl, err := time.ParseDuration(getEnvOrDefault("CACHE_TTL", "1m"))
	if err != nil {
		return fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	c.Cache.TTL = ttl
	return nil
}

func (c *Config) loadBootstrap() error {
	raw := getEnvOrDefault("SEED_DEMO_DATA", "false")
	seed, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid SEED_DEMO_DATA: %w", err)
	}
	c.Bootstrap.SeedDemoData = seed
	return nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.Database.URL == "" {
		errors = append(errors, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}

	if c.Security.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	p := c.Pagination
	if p.MinPageSize < 1 {
		errors = append(errors, "MIN_PAGE_SIZE must be at least 1")
	}
	if p.MaxPageSize < p.MinPageSize {
		errors = append(errors, "MAX_PAGE_SIZE must not be below MIN_PAGE_SIZE")
	}
	if p.DefaultPageSize < p.MinPageSize || p.DefaultPageSize > p.MaxPageSize {
		errors = append(errors, "DEFAULT_PAGE_SIZE must be between MIN_PAGE_SIZE and MAX_PAGE_SIZE")
	}

	if c.Cache.Capacity < 1 {
		errors = append(errors, "CACHE_CAPACITY must be at least 1")
	}
	if c.Cache.TTL <= 0 {
		errors = append(errors, "CACHE_TTL must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
