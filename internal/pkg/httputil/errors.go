package httputil

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
)

// ErrorMapping binds a sentinel error to the response it produces.
// An empty Message exposes err.Error(), so set one for upstream failures.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// HandleError answers with the first mapping err matches.
// A request whose context deadline passed gets 504 regardless of the
// mappings. Everything else is 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	status, msg := resolveError(err, mappings)

	logger := ctxlog.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "error", err)
	case logger.Enabled(ctx, slog.LevelDebug):
		logger.Debug("request rejected", "status", status, "error", err)
	}

	Error(w, status, msg)
}

func resolveError(err error, mappings []ErrorMapping) (int, string) {
	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		if m.Message == "" {
			return m.Status, err.Error()
		}
		return m.Status, m.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "request timed out"
	}
	return http.StatusInternalServerError, "internal error"
}
