package app

import (
	"testing"

	"github.com/bissquit/quotedesk/internal/config"
	"github.com/bissquit/quotedesk/internal/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploader(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*config.UploadsConfig)
		wantProvider string
		wantErr      string
	}{
		{
			name: "cloudinary",
			mutate: func(c *config.UploadsConfig) {
				c.Cloudinary.CloudName = "demo"
				c.Cloudinary.UploadPreset = "quotes"
			},
			wantProvider: "cloudinary",
		},
		{
			name: "s3",
			mutate: func(c *config.UploadsConfig) {
				c.Provider = config.ProviderS3
				c.S3.Endpoint = "http://localhost:9000"
				c.S3.Bucket = "quotes"
			},
			wantProvider: "s3",
		},
		{
			name:    "cloudinary without settings",
			mutate:  func(*config.UploadsConfig) {},
			wantErr: "cloud name is required",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *config.UploadsConfig) { c.Provider = "ftp" },
			wantErr: "unknown upload provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Uploads
			tt.mutate(&cfg)

			uploader, err := NewUploader(cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, uploader.Provider())
		})
	}
}

func TestNewQuoteNotifier_Disabled(t *testing.T) {
	notifier, err := newQuoteNotifier(config.Default())

	require.NoError(t, err)
	assert.Nil(t, notifier, "disabled alerts must yield a nil interface")
}

func TestNewQuoteNotifier_Enabled(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Enabled = true
	cfg.Notifications.Recipients = []string{"office@example.com"}
	cfg.Notifications.Email.SMTPHost = "smtp.example.com"
	cfg.Notifications.Email.FromAddress = "Quotes <quotes@example.com>"

	notifier, err := newQuoteNotifier(cfg)

	require.NoError(t, err)
	assert.IsType(t, &notifications.QuoteNotifier{}, notifier)
}

func TestNewQuoteNotifier_InvalidSender(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Enabled = true
	cfg.Notifications.Email.FromAddress = "office@example.com"

	_, err := newQuoteNotifier(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create email sender")
}
