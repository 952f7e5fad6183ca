package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-gateway/internal/enroll/service"
	"loyalty-gateway/internal/registry"
	dErrors "loyalty-gateway/pkg/domain-errors"
	upstream "loyalty-gateway/pkg/upstream-errors"
)

type stubEnrollService struct {
	resolveFunc func(ctx context.Context, phoneNumber string) (*service.Resolution, error)
}

func (s *stubEnrollService) Resolve(ctx context.Context, phoneNumber string) (*service.Resolution, error) {
	return s.resolveFunc(ctx, phoneNumber)
}

func newTestHandler(resolve func(ctx context.Context, phoneNumber string) (*service.Resolution, error)) *Handler {
	return New(&stubEnrollService{resolveFunc: resolve}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postJoin(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/join", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleJoin(w, req)
	return w
}

func TestHandleJoin_ReturnsIdentityFields(t *testing.T) {
	h := newTestHandler(func(ctx context.Context, phoneNumber string) (*service.Resolution, error) {
		assert.Equal(t, "5551234567", phoneNumber)
		return &service.Resolution{
			Customer: &registry.Customer{
				ID:        "c1",
				Number:    "1042",
				Firstname: "Jane",
				Lastname:  "Doe",
				Phone:     "5551234567",
				Email:     "jane@example.com",
			},
		}, nil
	})

	w := postJoin(t, h, map[string]string{"phoneNumber": "5551234567"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp JoinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, "Jane", resp.FirstName)
	assert.Equal(t, "Doe", resp.LastName)
	assert.Equal(t, "5551234567", resp.Phone)
	assert.Equal(t, "jane@example.com", resp.Email)
	assert.Equal(t, "1042", resp.Number)
	assert.False(t, resp.NewUser)
}

func TestHandleJoin_NewUserFlag(t *testing.T) {
	h := newTestHandler(func(ctx context.Context, phoneNumber string) (*service.Resolution, error) {
		return &service.Resolution{
			Customer: &registry.Customer{ID: "c-new", Phone: phoneNumber},
			IsNew:    true,
		}, nil
	})

	w := postJoin(t, h, map[string]string{"phoneNumber": "5551234567"})

	var resp JoinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NewUser)
}

func TestHandleJoin_InvalidInputIs400(t *testing.T) {
	h := newTestHandler(func(ctx context.Context, phoneNumber string) (*service.Resolution, error) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid phone number")
	})

	w := postJoin(t, h, map[string]string{"phoneNumber": "555"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body["error"])
}

func TestHandleJoin_TrimsWhitespaceBeforeResolving(t *testing.T) {
	h := newTestHandler(func(ctx context.Context, phoneNumber string) (*service.Resolution, error) {
		assert.Equal(t, "5551234567", phoneNumber)
		return &service.Resolution{Customer: &registry.Customer{ID: "c1"}}, nil
	})

	w := postJoin(t, h, map[string]string{"phoneNumber": "  5551234567  "})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleJoin_MalformedBodyIs400(t *testing.T) {
	h := newTestHandler(func(ctx context.Context, phoneNumber string) (*service.Resolution, error) {
		t.Fatal("service must not be called")
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/join", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.HandleJoin(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleJoin_UpstreamFailureRelaysStatusAndBody(t *testing.T) {
	h := newTestHandler(func(ctx context.Context, phoneNumber string) (*service.Resolution, error) {
		return nil, upstream.New("registry", http.StatusUnprocessableEntity, []byte(`{"reason":"dup"}`))
	})

	w := postJoin(t, h, map[string]string{"phoneNumber": "5551234567"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"reason": "dup"}, body["error"])
}
