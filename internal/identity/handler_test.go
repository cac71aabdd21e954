package identity

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	seedUser(t, repo, "office@example.com", "s3cret-pass")

	handler := NewHandler(NewService(repo, &mockAuthenticator{}), httputil.CookieSettings{
		Secure: true,
		MaxAge: 7 * 24 * time.Hour,
	})

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims := &domain.Claims{UserID: "test-user-id", Role: domain.RoleAdmin}
				next.ServeHTTP(w, r.WithContext(httputil.WithClaims(r.Context(), claims)))
			})
		})
		handler.RegisterProtectedRoutes(r)
	})
	return r, repo
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandler_Login_Success(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "office@example.com",
		"password": "s3cret-pass",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(rec.Result().Cookies(), httputil.TokenCookie)
	require.NotNil(t, cookie, "token cookie should be set")
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)

	var body struct {
		Data struct {
			Token string                 `json:"token"`
			User  map[string]interface{} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "signed-token", body.Data.Token)
	assert.Equal(t, "office@example.com", body.Data.User["email"])
	assert.Equal(t, "Office", body.Data.User["name"])
	assert.Equal(t, "admin", body.Data.User["role"])
	assert.NotContains(t, body.Data.User, "password", "password hash must never be serialized")
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, creds := range []map[string]string{
		{"email": "office@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "s3cret-pass"},
	} {
		rec := postJSON(t, router, "/auth/login", creds)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid email or password")
		assert.Nil(t, findCookie(rec.Result().Cookies(), httputil.TokenCookie))
	}
}

func TestHandler_Login_ValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/auth/login", map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation error")
	assert.Contains(t, rec.Body.String(), `{"field":"email","message":"email"}`)
	assert.Contains(t, rec.Body.String(), `{"field":"password","message":"required"}`)
	assert.NotContains(t, rec.Body.String(), `"Email"`)
}

func TestHandler_Login_InvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid json")
}

func TestHandler_Logout_ClearsCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookie := findCookie(rec.Result().Cookies(), httputil.TokenCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestHandler_Me(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "office@example.com")
}
