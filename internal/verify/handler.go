package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"loyalty-gateway/internal/platform/middleware"
	"loyalty-gateway/pkg/platform/httputil"
	s "loyalty-gateway/pkg/string"
	"loyalty-gateway/pkg/validation"
)

// Verifier starts and checks SMS verifications.
type Verifier interface {
	Start(ctx context.Context, phone string) (json.RawMessage, error)
	Check(ctx context.Context, phone, code string) (json.RawMessage, error)
}

// Handler handles HTTP requests for SMS verification.
type Handler struct {
	verifier Verifier
	logger   *slog.Logger
}

// NewHandler creates a new verification handler.
func NewHandler(verifier Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		logger:   logger,
	}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/start", h.HandleStart)
	r.Post("/verify/check", h.HandleCheck)
}

// StartRequest is the request body for starting a verification.
type StartRequest struct {
	Phone string `json:"phone" validate:"required,notblank"`
}

// Normalize trims surrounding whitespace from the phone number.
func (r *StartRequest) Normalize() {
	s.TrimStrings(&r.Phone)
}

// Validate validates the start request.
func (r *StartRequest) Validate() error {
	return validation.Validate(r)
}

// CheckRequest is the request body for checking an entered code.
type CheckRequest struct {
	Phone string `json:"phone" validate:"required,notblank"`
	Code  string `json:"code" validate:"required,notblank"`
}

// Normalize trims surrounding whitespace from the fields.
func (r *CheckRequest) Normalize() {
	s.TrimStrings(&r.Phone, &r.Code)
}

// Validate validates the check request.
func (r *CheckRequest) Validate() error {
	return validation.Validate(r)
}

// HandleStart handles POST /verify/start requests.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[StartRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payload, err := h.verifier.Start(ctx, req.Phone)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification start failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, payload)
}

// HandleCheck handles POST /verify/check requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payload, err := h.verifier.Check(ctx, req.Phone, req.Code)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification check failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, payload)
}
