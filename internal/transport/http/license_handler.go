package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apiErrors "gllauncher/internal/errors"
	"gllauncher/internal/infrastructure"
	"gllauncher/internal/license"
	"gllauncher/internal/services"
	"gllauncher/pkg/contracts/domain"
)

var validate = validator.New()

// LicenseHandler handles license-related HTTP requests.
type LicenseHandler struct {
	service services.LicenseService
	logger  *slog.Logger
}

// NewLicenseHandler creates a new license handler.
func NewLicenseHandler(service services.LicenseService, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "license")),
	}
}

// ActivationRequest is an alias to the canonical contract type.
type ActivationRequest = domain.ActivationRequest

// ActivationResponse represents the license activation response.
type ActivationResponse struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	DeviceID    string               `json:"device_id,omitempty"`
	LicenseInfo *license.LicenseInfo `json:"license_info,omitempty"`
	TraceID     string               `json:"trace_id"`
	Timestamp   time.Time            `json:"timestamp"`
}

// FeatureResponse reports whether a single feature is enabled.
type FeatureResponse struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}

// Routes returns a chi router for license endpoints.
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Timeout(45 * time.Second))

	r.Post("/activate", h.Activate)
	r.Get("/status", h.GetStatus)
	r.Get("/features/{name}", h.GetFeature)
	r.Post("/clear", h.ClearSession)

	return r
}

// Activate handles POST /api/license/activate.
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("license-handler")
	start := time.Now()

	ctx, span := tracer.Start(ctx, "license_handler.activate",
		trace.WithAttributes(
			attribute.String("http.route", "/api/license/activate"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	var req ActivationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apiErrors.InvalidRequestWithError(err))
		return
	}
	if err := validate.Struct(&req); err != nil {
		render.Render(w, r, apiErrors.ErrValidation("license_key", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "license activation requested",
		slog.String("request_id", reqID),
		slog.String("license_key", license.MaskKey(req.LicenseKey)),
		slog.String("remote_addr", r.RemoteAddr),
	)

	result, err := h.service.Activate(ctx, req.LicenseKey)
	latency := time.Since(start)
	span.SetAttributes(
		attribute.Int64("request.latency_ms", latency.Milliseconds()),
		attribute.Bool("request.success", err == nil),
	)

	if err != nil {
		span.RecordError(err)
		h.logger.WarnContext(ctx, "license activation rejected",
			slog.String("request_id", reqID),
			slog.Duration("latency", latency),
			slog.String("error", err.Error()),
		)
		h.renderError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "license activation completed",
		slog.String("request_id", reqID),
		slog.Duration("latency", latency),
		slog.String("device_status", result.DeviceStatus.String()),
	)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &ActivationResponse{
		Success:     true,
		Message:     result.Message,
		DeviceID:    result.DeviceID,
		LicenseInfo: result.Info,
		TraceID:     infrastructure.TraceIDFromContext(ctx),
		Timestamp:   time.Now().UTC(),
	})
}

// GetStatus handles GET /api/license/status.
func (h *LicenseHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := h.service.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "license status failed",
			slog.String("error", err.Error()))
		render.Render(w, r, apiErrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, response)
}

// GetFeature handles GET /api/license/features/{name}.
func (h *LicenseHandler) GetFeature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		render.Render(w, r, apiErrors.ErrValidation("name", "feature name is required"))
		return
	}

	render.JSON(w, r, &FeatureResponse{
		Feature: name,
		Enabled: h.service.IsFeatureEnabled(r.Context(), name),
	})
}

// ClearSession handles POST /api/license/clear.
func (h *LicenseHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	h.service.ClearSession(r.Context())
	render.JSON(w, r, map[string]bool{"cleared": true})
}

func (h *LicenseHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	traceID := infrastructure.TraceIDFromContext(r.Context())

	var verr *license.ValidationError
	if errors.As(err, &verr) {
		render.Render(w, r, apiErrors.FromValidationError(verr, traceID))
		return
	}
	if errors.Is(err, services.ErrRateLimited) {
		render.Render(w, r, apiErrors.ErrRateLimitExceeded)
		return
	}
	render.Render(w, r, apiErrors.ErrInternalServer)
}
