//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bissquit/quotedesk/internal/testutil"
	"github.com/stretchr/testify/require"
)

const fakeCloudName = "demo"

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// fakeImageHost mimics the Cloudinary unsigned upload endpoint.
// Files whose name starts with "fail" are rejected.
type fakeImageHost struct {
	*httptest.Server
	counter atomic.Int64
	mu      sync.Mutex
	names   []string
}

func newFakeImageHost() *fakeImageHost {
	h := &fakeImageHost{}
	h.Server = httptest.NewServer(http.HandlerFunc(h.serve))
	return h
}

func (h *fakeImageHost) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/"+fakeCloudName+"/image/upload" {
		http.NotFound(w, r)
		return
	}

	_, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "missing file"}})
		return
	}

	h.mu.Lock()
	h.names = append(h.names, header.Filename)
	h.mu.Unlock()

	if strings.HasPrefix(header.Filename, "fail") {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "storage exploded"}})
		return
	}

	n := h.counter.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"secure_url": fmt.Sprintf("https://res.example.com/%s/image/upload/%d-%s", fakeCloudName, n, header.Filename),
	})
}

func (h *fakeImageHost) received(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range h.names {
		if n == name {
			return true
		}
	}
	return false
}

type quoteResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	ServiceType  string   `json:"service_type"`
	BuildingType string   `json:"building_type"`
	Floors       *int     `json:"floors"`
	Photos       []string `json:"photos"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"created_at"`
}

func validQuotePayload(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"email":         testutil.RandomEmail("customer"),
		"phone":         "+34 600 123 456",
		"service_type":  "painting",
		"building_type": "residential",
		"floors":        6,
		"area_m2":       240.5,
		"urgency":       "high",
		"comments":      "North facade only.",
	}
}

// createQuote submits a quote through the API and returns it.
func createQuote(t *testing.T, client *testutil.Client, payload map[string]interface{}) quoteResponse {
	t.Helper()

	resp, err := client.POST("/api/v1/quotes", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data quoteResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// listQuotes returns all quotes visible to an authenticated admin client.
func listQuotes(t *testing.T, client *testutil.Client) []quoteResponse {
	t.Helper()

	resp, err := client.GET("/api/v1/quotes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []quoteResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
