// Package handler exposes the loyalty form endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"loyalty-gateway/internal/platform/middleware"
	"loyalty-gateway/internal/profile/models"
	"loyalty-gateway/internal/profile/service"
	"loyalty-gateway/pkg/platform/httputil"
)

// ProfileService resolves loyalty form profiles against the registry.
type ProfileService interface {
	Upsert(ctx context.Context, profile models.Profile) (*service.UpsertResult, error)
	Update(ctx context.Context, customerID string, profile models.Profile) (string, error)
}

// Handler handles HTTP requests for the loyalty form.
type Handler struct {
	service ProfileService
	logger  *slog.Logger
}

// New creates a new profile handler.
func New(svc ProfileService, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/profile", h.HandleUpsert)
	r.Put("/profile/{customerID}", h.HandleUpdate)
}

// HandleUpsert handles POST /profile requests.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	profile, ok := httputil.DecodeAndPrepare[models.Profile](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Upsert(ctx, *profile)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile upsert failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if result.AlreadyExists {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Customer already exists",
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"created": result.Created,
	})
}

// HandleUpdate handles PUT /profile/{customerID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	customerID := chi.URLParam(r, "customerID")

	profile, ok := httputil.DecodeAndPrepare[models.Profile](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.Update(ctx, customerID, *profile)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile update failed",
			"request_id", requestID,
			"customer_id", customerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"updated": updated,
	})
}
