package httputil

import (
	"net/http"
	"time"
)

// TokenCookie is the name of the session token cookie.
const TokenCookie = "token"

// CookieSettings contains settings for the session cookie.
type CookieSettings struct {
	Secure bool
	Domain string
	MaxAge time.Duration
}

// SetTokenCookie stores the session token on the client.
func SetTokenCookie(w http.ResponseWriter, settings CookieSettings, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   settings.Domain,
		MaxAge:   int(settings.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie instructs the client to delete the session cookie.
func ClearTokenCookie(w http.ResponseWriter, settings CookieSettings) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   settings.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// tokenFromCookie returns the session token cookie value or "".
func tokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
