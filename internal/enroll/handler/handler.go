// Package handler exposes the kiosk-facing enrollment endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"loyalty-gateway/internal/enroll/service"
	"loyalty-gateway/internal/platform/middleware"
	"loyalty-gateway/pkg/platform/httputil"
	s "loyalty-gateway/pkg/string"
)

// EnrollService resolves a phone number to a customer record.
type EnrollService interface {
	Resolve(ctx context.Context, phoneNumber string) (*service.Resolution, error)
}

// Handler handles HTTP requests for phone enrollment.
type Handler struct {
	service EnrollService
	logger  *slog.Logger
}

// New creates a new enrollment handler.
func New(svc EnrollService, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/join", h.HandleJoin)
}

// JoinRequest is the request body for phone enrollment.
type JoinRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// Normalize trims surrounding whitespace from the phone number.
func (r *JoinRequest) Normalize() {
	s.TrimStrings(&r.PhoneNumber)
}

// JoinResponse carries the five identity fields the kiosk forwards to the
// POS bridge, plus whether the customer was newly enrolled.
type JoinResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Number    string `json:"number,omitempty"`
	NewUser   bool   `json:"newUser"`
}

// HandleJoin handles POST /join requests.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[JoinRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resolution, err := h.service.Resolve(ctx, req.PhoneNumber)
	if err != nil {
		h.logger.ErrorContext(ctx, "phone resolution failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	customer := resolution.Customer
	httputil.WriteJSON(w, http.StatusOK, JoinResponse{
		ID:        customer.ID,
		FirstName: customer.Firstname,
		LastName:  customer.Lastname,
		Phone:     customer.Phone,
		Email:     customer.Email,
		Number:    customer.Number,
		NewUser:   resolution.IsNew,
	})
}
