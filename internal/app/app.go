package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gllauncher/internal/config"
	"gllauncher/internal/infrastructure"
	"gllauncher/internal/license"
	customMiddleware "gllauncher/internal/middleware"
	"gllauncher/internal/security"
	"gllauncher/internal/services"
	handlers "gllauncher/internal/transport/http"
	ws "gllauncher/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"
)

const (
	Version = "1.0.0"
	AppName = "GameLoop Launcher License Service"
)

// Application is the main application container. It owns the config,
// logger, observability providers, and the license validation stack,
// and serves the local HTTP API the launcher UI talks to.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Fingerprinter  *security.Fingerprinter
	Store          license.Store
	Notifier       *license.Notifier
	Session        *license.Session
	Validator      *license.Validator
	LicenseService services.LicenseService
	Hub            *ws.Hub
}

// NewApplication creates an application instance with all dependencies
// wired.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("store_backend", cfg.Store.Backend))

	otelProviders, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the license validation stack bottom-up.
func (a *Application) initializeServices() error {
	a.Fingerprinter = security.NewFingerprinter(a.Config.Device.Salt, a.Logger)

	store, err := a.buildStore()
	if err != nil {
		return err
	}
	a.Store = store

	a.Hub = ws.NewHub(a.Logger)
	a.Hub.Start()

	a.Notifier = license.NewNotifier()
	a.Notifier.OnStatus(a.Hub.BroadcastStatus)
	a.Notifier.OnLicensed(a.Hub.BroadcastLicensed)

	a.Session = license.NewSession(a.Notifier)

	metrics, err := license.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create license metrics: %w", err)
	}

	a.Validator = license.NewValidator(
		a.Store,
		a.Fingerprinter,
		a.Session,
		a.Notifier,
		a.Logger,
		license.WithMetrics(metrics),
	)

	limiter := security.NewActivationLimiter(a.Config.Security.RateLimit)
	a.LicenseService = services.NewLicenseService(
		a.Validator, a.Session, a.Fingerprinter, limiter, a.Logger)

	return nil
}

// buildStore selects the license store backend from config.
func (a *Application) buildStore() (license.Store, error) {
	switch strings.ToLower(a.Config.Store.Backend) {
	case "http":
		return license.NewHTTPStore(a.Config.Store, a.Logger), nil
	case "sheets":
		store, err := license.NewSheetsStore(context.Background(), a.Config.Store, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sheets store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", a.Config.Store.Backend)
	}
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware first so the websocket upgrade is not wrapped.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.HandleFunc("/ws", ws.ServeWS(a.Hub, a.Logger))

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS*10,
				a.Config.Security.RateLimit.Burst*10,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(Version))

			licenseHandler := handlers.NewLicenseHandler(a.LicenseService, a.Logger)
			r.Mount("/license", licenseHandler.Routes())
		})
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves the API until the context is cancelled or an interrupt
// arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("Server listening",
			slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// WaitForReady polls the health endpoint until the server answers or
// the deadline passes. Used by the launcher shell before it opens the
// licensing page.
func (a *Application) WaitForReady(ctx context.Context, timeout time.Duration) error {
	url := fmt.Sprintf("http://%s/api/health", a.Server.Addr)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return fmt.Errorf("server did not become ready within %s", timeout)
}
