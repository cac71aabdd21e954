// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/quotedesk/api/openapi"
	"github.com/bissquit/quotedesk/internal/config"
	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/identity"
	"github.com/bissquit/quotedesk/internal/identity/jwt"
	identitypostgres "github.com/bissquit/quotedesk/internal/identity/postgres"
	"github.com/bissquit/quotedesk/internal/notifications"
	"github.com/bissquit/quotedesk/internal/notifications/email"
	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
	"github.com/bissquit/quotedesk/internal/pkg/httputil"
	"github.com/bissquit/quotedesk/internal/pkg/metrics"
	"github.com/bissquit/quotedesk/internal/pkg/postgres"
	"github.com/bissquit/quotedesk/internal/quotes"
	quotespostgres "github.com/bissquit/quotedesk/internal/quotes/postgres"
	"github.com/bissquit/quotedesk/internal/uploads"
	"github.com/bissquit/quotedesk/internal/uploads/cloudinary"
	"github.com/bissquit/quotedesk/internal/uploads/s3"
	"github.com/bissquit/quotedesk/internal/version"
	"github.com/bissquit/quotedesk/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := InitLogger(cfg.Log)

	db, err := Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := metrics.RegisterDBPool(prometheus.DefaultRegisterer, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	app := &App{
		config: cfg,
		logger: logger,
		db:     db,
	}

	router, err := app.setupRouter()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Connect opens the database pool described by cfg.
func Connect(cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectAttempts: cfg.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"upload_provider", a.config.Uploads.Provider,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	shutdown := func(name string, srv *http.Server) {
		defer wg.Done()
		if err := srv.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
			mu.Unlock()
		}
	}

	wg.Add(2)
	go shutdown("server", a.server)
	go shutdown("metrics server", a.metricsServer)
	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// NewUploader builds the image host client selected by cfg.Provider.
func NewUploader(cfg config.UploadsConfig) (uploads.Uploader, error) {
	switch cfg.Provider {
	case config.ProviderCloudinary:
		return cloudinary.NewUploader(cloudinary.Config{
			CloudName:    cfg.Cloudinary.CloudName,
			UploadPreset: cfg.Cloudinary.UploadPreset,
			Folder:       cfg.Cloudinary.Folder,
			BaseURL:      cfg.Cloudinary.BaseURL,
			Timeout:      cfg.Cloudinary.Timeout,
			RateLimit:    cfg.Cloudinary.RateLimit,
		})
	case config.ProviderS3:
		return s3.NewUploader(s3.Config{
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Region:        cfg.S3.Region,
			Bucket:        cfg.S3.Bucket,
			Prefix:        cfg.S3.Prefix,
			UseSSL:        cfg.S3.UseSSL,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Provider)
	}
}

// newQuoteNotifier returns nil when alerts are disabled.
func newQuoteNotifier(cfg config.Config) (quotes.QuoteCreatedHandler, error) {
	if !cfg.Notifications.Enabled {
		slog.Info("quote alerts disabled")
		return nil, nil
	}

	sender, err := email.NewSender(email.Config{
		Enabled:  true,
		Host:     cfg.Notifications.Email.SMTPHost,
		Port:     cfg.Notifications.Email.SMTPPort,
		Username: cfg.Notifications.Email.SMTPUser,
		Password: cfg.Notifications.Email.SMTPPassword,
		From:     cfg.Notifications.Email.FromAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("create email sender: %w", err)
	}

	renderer, err := notifications.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create notification renderer: %w", err)
	}

	slog.Info("quote alerts enabled", "recipients", len(cfg.Notifications.Recipients))
	return notifications.NewQuoteNotifier(sender, renderer, cfg.Notifications.Recipients, cfg.Site.BaseURL), nil
}

func (a *App) setupRouter() (*chi.Mux, error) {
	uploader, err := NewUploader(a.config.Uploads)
	if err != nil {
		return nil, fmt.Errorf("create uploader: %w", err)
	}
	relay := uploads.NewRelay(uploader)

	notifier, err := newQuoteNotifier(*a.config)
	if err != nil {
		return nil, err
	}

	cookie := httputil.CookieSettings{
		Secure: a.config.Cookie.Secure,
		Domain: a.config.Cookie.Domain,
		MaxAge: a.config.JWT.TokenDuration,
	}

	identityRepo := identitypostgres.NewRepository(a.db)
	jwtAuth := jwt.NewAuthenticator(jwt.Config{
		SecretKey:     a.config.JWT.SecretKey,
		TokenDuration: a.config.JWT.TokenDuration,
	})
	identityService := identity.NewService(identityRepo, jwtAuth)
	identityHandler := identity.NewHandler(identityService, cookie)

	quotesRepo := quotespostgres.NewRepository(a.db)
	quotesService := quotes.NewService(quotesRepo, relay, notifier)
	quotesHandler := quotes.NewHandler(quotesService)

	uploadsHandler := uploads.NewHandler(relay, a.config.Uploads.MaxFileSize)

	webHandler, err := web.NewHandler(quotesService, identityService, web.Config{
		SiteName:    a.config.Site.Name,
		MaxFileSize: a.config.Uploads.MaxFileSize,
		Cookie:      cookie,
	})
	if err != nil {
		return nil, fmt.Errorf("create web handler: %w", err)
	}

	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(httputil.SessionGuard(httputil.GuardConfig{
		Prefix:    web.DashboardPath,
		LoginPath: web.LoginPath,
		Cookie:    cookie,
	}, identityService))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(openapi.Spec)
	})
	r.Get("/docs", docsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)
		quotesHandler.RegisterPublicRoutes(r)
		uploadsHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			identityHandler.RegisterProtectedRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(domain.RoleAdmin))
				quotesHandler.RegisterRoutes(r)
			})
		})
	})

	webHandler.RegisterRoutes(r)

	return r, nil
}

func docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Quotedesk API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

// InitLogger builds the process logger and installs it as the slog default.
// Unknown levels fall back to info; Validate rejects them earlier.
func InitLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
