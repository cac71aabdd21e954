// Package cloudinary uploads images to Cloudinary with an unsigned upload preset.
package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bissquit/quotedesk/internal/uploads"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.cloudinary.com/v1_1"
	defaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of an error response is kept for logs.
	maxErrorBody = 1 << 10
)

// Config holds Cloudinary settings.
type Config struct {
	CloudName    string
	UploadPreset string
	Folder       string
	BaseURL      string        // API root, overridable for tests
	Timeout      time.Duration // request timeout
	RateLimit    float64       // uploads per second, 0 means unlimited
}

// Uploader implements uploads.Uploader for Cloudinary.
type Uploader struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewUploader creates a new Cloudinary uploader.
// Returns error if required config is missing.
func NewUploader(config Config) (*Uploader, error) {
	if config.CloudName == "" {
		return nil, errors.New("cloudinary uploader: cloud name is required")
	}
	if config.UploadPreset == "" {
		return nil, errors.New("cloudinary uploader: upload preset is required")
	}

	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	slog.Info("cloudinary uploader configured",
		"cloud_name", config.CloudName,
		"folder", config.Folder,
		"rate_limit", config.RateLimit,
	)

	return &Uploader{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Provider returns the provider name.
func (u *Uploader) Provider() string {
	return "cloudinary"
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload sends the file to Cloudinary and returns its secure URL.
func (u *Uploader) Upload(ctx context.Context, file uploads.File) (string, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, contentType, err := u.buildForm(file)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint(), body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return u.handleResponse(resp)
}

func (u *Uploader) endpoint() string {
	return fmt.Sprintf("%s/%s/image/upload", u.config.BaseURL, u.config.CloudName)
}

func (u *Uploader) buildForm(file uploads.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	name := file.Name
	if name == "" {
		name = "photo" + file.Extension()
	}

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := form.WriteField("upload_preset", u.config.UploadPreset); err != nil {
		return nil, "", fmt.Errorf("write preset: %w", err)
	}
	if u.config.Folder != "" {
		if err := form.WriteField("folder", u.config.Folder); err != nil {
			return nil, "", fmt.Errorf("write folder: %w", err)
		}
	}

	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, form.FormDataContentType(), nil
}

func (u *Uploader) handleResponse(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var result uploadResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("cloudinary status %d: decode response: %w", resp.StatusCode, err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("cloudinary status %d: %s", resp.StatusCode, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudinary status %d: %s", resp.StatusCode, truncate(raw))
	}
	if result.SecureURL == "" {
		return "", errors.New("cloudinary response has no secure_url")
	}

	return result.SecureURL, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
