// Package config loads BookMate configuration from flags, environment variables and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store backends.
const (
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Config holds the application configuration.
type Config struct {
	App            AppConfig
	Logger         LoggerConfig
	Data           DataConfig
	Server         ServerConfig
	Auth           AuthConfig
	Recommendation RecommendationConfig
	AWS            AWSConfig
	Export         ExportConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig selects where and how records are persisted.
type DataConfig struct {
	BasePath string // holds the badger/sqlite files, search index and token key
	Backend  string // badger (default), sqlite or dynamodb
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
}

// AuthConfig holds token configuration.
type AuthConfig struct {
	// AccessTokenKey is a 64 character hex key. When empty, the key is
	// loaded from (or created in) the data directory at startup.
	AccessTokenKey       string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// RecommendationConfig configures the external recommendation endpoint.
// An empty URL disables recommendations.
type RecommendationConfig struct {
	URL     string
	Timeout time.Duration
}

// AWSConfig holds settings shared by the DynamoDB store and S3 export.
type AWSConfig struct {
	Region          string
	EndpointURL     string // optional, for DynamoDB Local or MinIO
	AccessKeyID     string // optional, falls back to the default credential chain
	SecretAccessKey string
	UsersTable      string
	BooksTable      string
	CountersTable   string
	SessionsTable   string
}

// ExportConfig configures CSV uploads to object storage.
// An empty bucket disables uploads; downloads always work.
type ExportConfig struct {
	Bucket string
	Prefix string
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags in args (highest priority).
// 2. Environment variables.
// 3. The .env file.
// 4. Defaults.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookmate", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for data storage")
	backend := fs.String("store", "", "Store backend (badger, sqlite, dynamodb)")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := fs.String("refresh-token-duration", "", "Session lifetime (e.g., 720h)")
	recommendationURL := fs.String("recommendation-url", "", "Recommendation endpoint URL")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is normal.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:  strings.ToLower(getConfigValue(*backend, "STORE_BACKEND", BackendBadger)),
		},
		Server: ServerConfig{
			Port:               getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			AccessTokenKey: getConfigValue("", "ACCESS_TOKEN_KEY", ""),
		},
		Recommendation: RecommendationConfig{
			URL: getConfigValue(*recommendationURL, "RECOMMENDATION_URL", ""),
		},
		AWS: AWSConfig{
			Region:          getConfigValue("", "AWS_REGION", "ap-south-1"),
			EndpointURL:     getConfigValue("", "AWS_ENDPOINT_URL", ""),
			AccessKeyID:     getConfigValue("", "AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getConfigValue("", "AWS_SECRET_ACCESS_KEY", ""),
			UsersTable:      getConfigValue("", "DYNAMODB_USERS_TABLE", "UsersTable"),
			BooksTable:      getConfigValue("", "DYNAMODB_BOOKS_TABLE", "BooksTable"),
			CountersTable:   getConfigValue("", "DYNAMODB_COUNTERS_TABLE", "BookCounters"),
			SessionsTable:   getConfigValue("", "DYNAMODB_SESSIONS_TABLE", "BookSessions"),
		},
		Export: ExportConfig{
			Bucket: getConfigValue("", "EXPORT_BUCKET", ""),
			Prefix: getConfigValue("", "EXPORT_PREFIX", "exports/"),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dest      *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", &cfg.Auth.AccessTokenDuration},
		{*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h", &cfg.Auth.RefreshTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "RECOMMENDATION_TIMEOUT", "20s", &cfg.Recommendation.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Data.Backend {
	case BackendBadger, BackendSQLite:
		if c.Data.BasePath == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	case BackendDynamoDB:
		if c.AWS.Region == "" {
			return errors.New("AWS_REGION is required for the dynamodb backend")
		}
		if c.AWS.UsersTable == "" || c.AWS.BooksTable == "" || c.AWS.CountersTable == "" || c.AWS.SessionsTable == "" {
			return errors.New("all DYNAMODB_*_TABLE names are required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger, sqlite, or dynamodb)", c.Data.Backend)
	}

	if c.Auth.AccessTokenDuration <= 0 || c.Auth.RefreshTokenDuration <= 0 {
		return errors.New("token durations must be positive")
	}

	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

// RecommendationsEnabled reports whether an endpoint is configured.
func (c *Config) RecommendationsEnabled() bool {
	return c.Recommendation.URL != ""
}

// ExportUploadsEnabled reports whether CSV exports can be uploaded.
func (c *Config) ExportUploadsEnabled() bool {
	return c.Export.Bucket != ""
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/BookMate/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "BookMate", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
