// Package s3 uploads images to an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/bissquit/quotedesk/internal/uploads"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3 settings.
type Config struct {
	Endpoint  string // host:port or full URL
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Prefix    string
	UseSSL    bool

	// PublicBaseURL is prepended to bucket/key in returned URLs.
	// Defaults to the endpoint.
	PublicBaseURL string
}

// Uploader implements uploads.Uploader for S3-compatible storage.
type Uploader struct {
	client  *minio.Client
	config  Config
	baseURL string
	newKey  func(ext string) string
}

// NewUploader creates a new S3 uploader.
func NewUploader(config Config) (*Uploader, error) {
	if config.Endpoint == "" {
		return nil, errors.New("s3 uploader: endpoint is required")
	}
	if config.Bucket == "" {
		return nil, errors.New("s3 uploader: bucket is required")
	}

	endpoint := config.Endpoint
	useSSL := config.UseSSL
	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: useSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	baseURL := config.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + endpoint
	}

	slog.Info("s3 uploader configured", "endpoint", endpoint, "bucket", config.Bucket)

	u := &Uploader{
		client:  client,
		config:  config,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
	u.newKey = u.objectKey
	return u, nil
}

// Provider returns the provider name.
func (u *Uploader) Provider() string {
	return "s3"
}

// Upload stores the file under a random key and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, file uploads.File) (string, error) {
	key := u.newKey(file.Extension())

	_, err := u.client.PutObject(ctx, u.config.Bucket, key,
		bytes.NewReader(file.Data), int64(len(file.Data)),
		minio.PutObjectOptions{ContentType: file.ContentType},
	)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return u.publicURL(key), nil
}

func (u *Uploader) objectKey(ext string) string {
	return path.Join(u.config.Prefix, uuid.NewString()+ext)
}

func (u *Uploader) publicURL(key string) string {
	return u.baseURL + "/" + u.config.Bucket + "/" + key
}
