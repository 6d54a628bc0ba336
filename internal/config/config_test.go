package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH", "STORE_BACKEND", "SERVER_PORT",
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"CORS_ALLOWED_ORIGINS", "ACCESS_TOKEN_KEY", "ACCESS_TOKEN_DURATION", "REFRESH_TOKEN_DURATION",
		"RECOMMENDATION_URL", "RECOMMENDATION_TIMEOUT", "AWS_REGION", "AWS_ENDPOINT_URL",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "DYNAMODB_USERS_TABLE",
		"DYNAMODB_BOOKS_TABLE", "DYNAMODB_COUNTERS_TABLE", "DYNAMODB_SESSIONS_TABLE",
		"EXPORT_BUCKET", "EXPORT_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/var/lib/bookmate", Backend: BackendBadger},
		Auth: AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 720 * time.Hour,
		},
		AWS: AWSConfig{
			Region:        "ap-south-1",
			UsersTable:    "UsersTable",
			BooksTable:    "BooksTable",
			CountersTable: "BookCounters",
			SessionsTable: "BookSessions",
		},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadConfig([]string{"--env-file", filepath.Join(dir, "missing.env"), "--data-path", dir})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, BackendBadger, cfg.Data.Backend)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, 20*time.Second, cfg.Recommendation.Timeout)
	assert.Equal(t, "ap-south-1", cfg.AWS.Region)
	assert.Equal(t, "BooksTable", cfg.AWS.BooksTable)
	assert.False(t, cfg.RecommendationsEnabled())
	assert.False(t, cfg.ExportUploadsEnabled())
}

func TestLoadConfig_FlagsBeatEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("RECOMMENDATION_URL", "http://env.example/recs")

	cfg, err := LoadConfig([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--data-path", dir,
		"--port", "9100",
		"--store", "SQLite",
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Data.Backend)
	assert.Equal(t, "http://env.example/recs", cfg.Recommendation.URL)
	assert.True(t, cfg.RecommendationsEnabled())
}

func TestLoadConfig_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# bookmate\nLOG_LEVEL=debug\nexport EXPORT_BUCKET=\"reports\"\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	cfg, err := LoadConfig([]string{"--env-file", envPath, "--data-path", dir})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "reports", cfg.Export.Bucket)
	assert.True(t, cfg.ExportUploadsEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("RECOMMENDATION_TIMEOUT", "soon")

	_, err := LoadConfig([]string{"--env-file", filepath.Join(dir, "missing.env"), "--data-path", dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recommendation_timeout")
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig([]string{"--no-such-flag"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "staging", mutate: func(c *Config) { c.App.Environment = "staging" }},
		{name: "empty environment", mutate: func(c *Config) { c.App.Environment = "" }, wantErr: "ENV is required"},
		{name: "unknown environment", mutate: func(c *Config) { c.App.Environment = "test" }, wantErr: "invalid environment"},
		{name: "environment is case sensitive", mutate: func(c *Config) { c.App.Environment = "PRODUCTION" }, wantErr: "invalid environment"},
		{name: "upper case level", mutate: func(c *Config) { c.Logger.Level = "WARN" }},
		{name: "bad level", mutate: func(c *Config) { c.Logger.Level = "trace" }, wantErr: "invalid log level"},
		{name: "empty data path", mutate: func(c *Config) { c.Data.BasePath = "" }, wantErr: "data path"},
		{name: "unknown backend", mutate: func(c *Config) { c.Data.Backend = "postgres" }, wantErr: "invalid store backend"},
		{
			name: "dynamodb ignores data path",
			mutate: func(c *Config) {
				c.Data.Backend = BackendDynamoDB
				c.Data.BasePath = ""
			},
		},
		{
			name: "dynamodb needs tables",
			mutate: func(c *Config) {
				c.Data.Backend = BackendDynamoDB
				c.AWS.CountersTable = ""
			},
			wantErr: "DYNAMODB",
		},
		{name: "zero token duration", mutate: func(c *Config) { c.Auth.AccessTokenDuration = 0 }, wantErr: "token durations"},
		{name: "half credentials", mutate: func(c *Config) { c.AWS.AccessKeyID = "AKIA" }, wantErr: "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/books", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("/abs/../abs/path", "")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = expandPath("relative", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("BOOKMATE_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "BOOKMATE_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "BOOKMATE_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "BOOKMATE_TEST_UNSET", "default"))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("existing variables win", func(t *testing.T) {
		t.Setenv("BOOKMATE_PRESET", "kept")
		path := filepath.Join(dir, "preset.env")
		require.NoError(t, os.WriteFile(path, []byte("BOOKMATE_PRESET=overwritten\n"), 0o600))

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "kept", os.Getenv("BOOKMATE_PRESET"))
	})

	t.Run("invalid line", func(t *testing.T) {
		path := filepath.Join(dir, "bad.env")
		require.NoError(t, os.WriteFile(path, []byte("NOT_A_PAIR\n"), 0o600))

		err := loadEnvFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, loadEnvFile(filepath.Join(dir, "nope.env")))
	})
}
