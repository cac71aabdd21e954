package s3

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/bissquit/quotedesk/internal/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploader_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "missing endpoint",
			config:  Config{Bucket: "quotes"},
			wantErr: "endpoint is required",
		},
		{
			name:    "missing bucket",
			config:  Config{Endpoint: "localhost:9000"},
			wantErr: "bucket is required",
		},
		{
			name:   "valid config",
			config: Config{Endpoint: "localhost:9000", Bucket: "quotes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader, err := NewUploader(tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, uploader)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, uploader)
			}
		})
	}
}

func TestUploader_PublicURL(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "plain endpoint",
			config: Config{Endpoint: "localhost:9000", Bucket: "quotes"},
			want:   "http://localhost:9000/quotes/photos/a.png",
		},
		{
			name:   "https url endpoint",
			config: Config{Endpoint: "https://s3.example.com", Bucket: "quotes"},
			want:   "https://s3.example.com/quotes/photos/a.png",
		},
		{
			name:   "public base url",
			config: Config{Endpoint: "minio:9000", Bucket: "quotes", PublicBaseURL: "https://cdn.example.com/"},
			want:   "https://cdn.example.com/quotes/photos/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader, err := NewUploader(tt.config)
			require.NoError(t, err)

			assert.Equal(t, tt.want, uploader.publicURL("photos/a.png"))
		})
	}
}

func TestUploader_ObjectKey(t *testing.T) {
	uploader, err := NewUploader(Config{Endpoint: "localhost:9000", Bucket: "quotes", Prefix: "cotizaciones"})
	require.NoError(t, err)

	first := uploader.objectKey(".jpg")
	second := uploader.objectKey(".jpg")

	assert.True(t, strings.HasPrefix(first, "cotizaciones/"))
	assert.True(t, strings.HasSuffix(first, ".jpg"))
	assert.NotEqual(t, first, second)
}

func TestUploader_Upload(t *testing.T) {
	var (
		gotMethod        string
		gotPath          string
		gotContentType   string
		gotDecodedLength string
		gotBody          []byte
		gotErr           error
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotDecodedLength = r.Header.Get("X-Amz-Decoded-Content-Length")
		gotBody, gotErr = readPayload(r)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader, err := NewUploader(Config{
		Endpoint:      server.URL,
		AccessKey:     "access",
		SecretKey:     "secret",
		Region:        "us-east-1",
		Bucket:        "quotes",
		PublicBaseURL: "https://cdn.example.com",
	})
	require.NoError(t, err)
	uploader.newKey = func(ext string) string { return "fixed" + ext }

	data := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	url, err := uploader.Upload(context.Background(), uploads.File{ContentType: "image/png", Data: data})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/quotes/fixed.png", url)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/quotes/fixed.png", gotPath)
	assert.Equal(t, "image/png", gotContentType)
	require.NoError(t, gotErr)
	assert.Equal(t, data, gotBody)
	if gotDecodedLength != "" {
		assert.Equal(t, strconv.Itoa(len(data)), gotDecodedLength)
	}
}

// readPayload returns the object bytes of a PUT. Over plain HTTP minio-go
// signs the body in aws-chunked framing:
//
//	<hex size>;chunk-signature=<sig>\r\n<data>\r\n ... 0;chunk-signature=<sig>\r\n
func readPayload(r *http.Request) ([]byte, error) {
	streaming := strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") ||
		strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked")
	if !streaming {
		return io.ReadAll(r.Body)
	}

	var out bytes.Buffer
	br := bufio.NewReader(r.Body)
	for {
		header, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(header), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chunk size %q: %w", sizeHex, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, br, size); err != nil {
			return nil, fmt.Errorf("read chunk: %w", err)
		}
		if _, err := br.Discard(2); err != nil {
			return nil, fmt.Errorf("read chunk trailer: %w", err)
		}
	}
}

func TestUploader_Upload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied.</Message></Error>`))
	}))
	defer server.Close()

	uploader, err := NewUploader(Config{Endpoint: server.URL, Region: "us-east-1", Bucket: "quotes"})
	require.NoError(t, err)

	url, err := uploader.Upload(context.Background(), uploads.File{ContentType: "image/png", Data: []byte("x")})

	require.Error(t, err)
	assert.Empty(t, url)
}
