package httputil

import (
	"net/http"
	"strings"

	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
	"github.com/bissquit/quotedesk/internal/pkg/metrics"
)

// GuardState is the outcome of evaluating a request against the session guard.
type GuardState string

// Guard states.
const (
	GuardNoToken      GuardState = "no_token"
	GuardValidToken   GuardState = "valid_token"
	GuardInvalidToken GuardState = "invalid_token"
)

// GuardConfig configures SessionGuard.
type GuardConfig struct {
	// Prefix is the protected path, e.g. "/dashboard". It matches the path
	// itself and everything below it.
	Prefix    string
	LoginPath string
	Cookie    CookieSettings
}

// SessionGuard redirects browsers without a valid session away from the
// protected prefix. Any verification failure is treated the same way: the
// browser goes to the login page and the stale cookie is deleted.
func SessionGuard(cfg GuardConfig, verifier TokenVerifier) func(http.Handler) http.Handler {
	prefix := strings.TrimSuffix(cfg.Prefix, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !matchesPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}

			logger := ctxlog.FromContext(r.Context())

			token := tokenFromCookie(r)
			if token == "" {
				metrics.GuardDecisions.WithLabelValues(string(GuardNoToken)).Inc()
				logger.Debug("session guard: no token", "path", r.URL.Path)
				http.Redirect(w, r, cfg.LoginPath, http.StatusTemporaryRedirect)
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				metrics.GuardDecisions.WithLabelValues(string(GuardInvalidToken)).Inc()
				logger.Warn("session guard: token rejected", "path", r.URL.Path, "error", err)
				ClearTokenCookie(w, cfg.Cookie)
				http.Redirect(w, r, cfg.LoginPath, http.StatusTemporaryRedirect)
				return
			}

			metrics.GuardDecisions.WithLabelValues(string(GuardValidToken)).Inc()
			ctx := WithClaims(r.Context(), claims)
			ctx = ctxlog.With(ctx, "user_id", claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func matchesPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
