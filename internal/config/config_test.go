package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() Config {
	cfg := Default()
	cfg.JWT.SecretKey = testSecret
	cfg.Uploads.Cloudinary.CloudName = "demo"
	cfg.Uploads.Cloudinary.UploadPreset = "quotes"
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TokenDuration)
	assert.Equal(t, ProviderCloudinary, cfg.Uploads.Provider)
	assert.Equal(t, int64(10<<20), cfg.Uploads.MaxFileSize)
	assert.True(t, cfg.Cookie.Secure)
	assert.False(t, cfg.Notifications.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "8081"
  request_timeout: 15s
jwt:
  secret_key: ` + testSecret + `
  token_duration: 48h
uploads:
  provider: s3
  s3:
    endpoint: https://s3.example.com
    bucket: quotes
cors:
  allowed_origins:
    - https://example.com
    - https://www.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, 48*time.Hour, cfg.JWT.TokenDuration)
	assert.Equal(t, ProviderS3, cfg.Uploads.Provider)
	assert.Equal(t, "quotes", cfg.Uploads.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.Uploads.S3.Region, "nested defaults survive")
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.CORS.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"8081\"\n"), 0o600))

	t.Setenv("QUOTEDESK_SERVER__PORT", "9000")
	t.Setenv("QUOTEDESK_JWT__SECRET_KEY", testSecret)
	t.Setenv("QUOTEDESK_COOKIE__SECURE", "false")
	t.Setenv("QUOTEDESK_UPLOADS__MAX_FILE_SIZE", "5242880")
	t.Setenv("QUOTEDESK_UPLOADS__CLOUDINARY__CLOUD_NAME", "demo")
	t.Setenv("QUOTEDESK_NOTIFICATIONS__RECIPIENTS", "a@example.com,b@example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, testSecret, cfg.JWT.SecretKey)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxFileSize)
	assert.Equal(t, "demo", cfg.Uploads.Cloudinary.CloudName)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notifications.Recipients)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "jwt.secret_key", envKey("QUOTEDESK_JWT__SECRET_KEY"))
	assert.Equal(t, "uploads.s3.public_base_url", envKey("QUOTEDESK_UPLOADS__S3__PUBLIC_BASE_URL"))
	assert.Equal(t, "site.name", envKey("QUOTEDESK_SITE__NAME"))
}

func TestLoad_EnvLists(t *testing.T) {
	t.Setenv("QUOTEDESK_CORS__ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("QUOTEDESK_NOTIFICATIONS__RECIPIENTS", "a@example.com,,b@example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notifications.Recipients)
}

func TestEnvValue(t *testing.T) {
	key, value := envValue("QUOTEDESK_NOTIFICATIONS__RECIPIENTS", "a@example.com,b@example.com")
	assert.Equal(t, "notifications.recipients", key)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, value)

	key, value = envValue("QUOTEDESK_SITE__NAME", "Acme, Inc")
	assert.Equal(t, "site.name", key)
	assert.Equal(t, "Acme, Inc", value, "scalar values are not split")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.SecretKey = "" }, wantErr: "jwt.secret_key is required"},
		{name: "short secret", mutate: func(c *Config) { c.JWT.SecretKey = "short" }, wantErr: "at least 32 characters"},
		{name: "zero token duration", mutate: func(c *Config) { c.JWT.TokenDuration = 0 }, wantErr: "jwt.token_duration"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: "log.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "unknown provider", mutate: func(c *Config) { c.Uploads.Provider = "imgur" }, wantErr: "uploads.provider"},
		{name: "cloudinary without preset", mutate: func(c *Config) { c.Uploads.Cloudinary.UploadPreset = "" }, wantErr: "upload_preset"},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Uploads.Provider = ProviderS3
				c.Uploads.S3.Endpoint = "localhost:9000"
			},
			wantErr: "uploads.s3.bucket",
		},
		{name: "relative base url", mutate: func(c *Config) { c.Site.BaseURL = "example.com" }, wantErr: "site.base_url"},
		{
			name: "notifications without smtp",
			mutate: func(c *Config) {
				c.Notifications.Enabled = true
				c.Notifications.Recipients = []string{"a@example.com"}
			},
			wantErr: "smtp_host",
		},
		{
			name: "notifications without recipients",
			mutate: func(c *Config) {
				c.Notifications.Enabled = true
				c.Notifications.Email.SMTPHost = "smtp.example.com"
				c.Notifications.Email.FromAddress = "office@example.com"
			},
			wantErr: "notifications.recipients",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

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

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret_key is required")
	assert.Contains(t, err.Error(), "uploads.cloudinary.cloud_name is required")
}
