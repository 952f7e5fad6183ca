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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-gateway/internal/profile/models"
	"loyalty-gateway/internal/profile/service"
	dErrors "loyalty-gateway/pkg/domain-errors"
	upstream "loyalty-gateway/pkg/upstream-errors"
)

type stubProfileService struct {
	upsertFunc func(ctx context.Context, profile models.Profile) (*service.UpsertResult, error)
	updateFunc func(ctx context.Context, customerID string, profile models.Profile) (string, error)
}

func (s *stubProfileService) Upsert(ctx context.Context, profile models.Profile) (*service.UpsertResult, error) {
	return s.upsertFunc(ctx, profile)
}

func (s *stubProfileService) Update(ctx context.Context, customerID string, profile models.Profile) (string, error) {
	return s.updateFunc(ctx, customerID, profile)
}

func newRouter(svc ProfileService) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleUpsert_AlreadyExists(t *testing.T) {
	router := newRouter(&stubProfileService{
		upsertFunc: func(ctx context.Context, profile models.Profile) (*service.UpsertResult, error) {
			return &service.UpsertResult{AlreadyExists: true}, nil
		},
	})

	w := doJSON(t, router, http.MethodPost, "/profile", models.Profile{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "5551234567",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Customer already exists", body["message"])
}

func TestHandleUpsert_CreatedRelaysRawResponse(t *testing.T) {
	router := newRouter(&stubProfileService{
		upsertFunc: func(ctx context.Context, profile models.Profile) (*service.UpsertResult, error) {
			return &service.UpsertResult{Created: json.RawMessage(`[{"id":"c-new","number":"1042"}]`)}, nil
		},
	})

	w := doJSON(t, router, http.MethodPost, "/profile", models.Profile{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "5551234567",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"created":[{"id":"c-new","number":"1042"}]}`, w.Body.String())
}

func TestHandleUpsert_InvalidInputIs400(t *testing.T) {
	router := newRouter(&stubProfileService{
		upsertFunc: func(ctx context.Context, profile models.Profile) (*service.UpsertResult, error) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "email and phone are required fields")
		},
	})

	w := doJSON(t, router, http.MethodPost, "/profile", models.Profile{Name: "Jane Doe"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpsert_UpstreamErrorRelayed(t *testing.T) {
	router := newRouter(&stubProfileService{
		upsertFunc: func(ctx context.Context, profile models.Profile) (*service.UpsertResult, error) {
			return nil, upstream.New("registry", http.StatusUnprocessableEntity, []byte(`{"reason":"dup"}`))
		},
	})

	w := doJSON(t, router, http.MethodPost, "/profile", models.Profile{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "5551234567",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"reason": "dup"}, body["error"])
}

func TestHandleUpdate_ReturnsUpdatedID(t *testing.T) {
	router := newRouter(&stubProfileService{
		updateFunc: func(ctx context.Context, customerID string, profile models.Profile) (string, error) {
			assert.Equal(t, "c7", customerID)
			return customerID, nil
		},
	})

	w := doJSON(t, router, http.MethodPut, "/profile/c7", models.Profile{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "5551234567",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "c7", body["updated"])
}

func TestHandleUpdate_ServiceErrorRelayed(t *testing.T) {
	router := newRouter(&stubProfileService{
		updateFunc: func(ctx context.Context, customerID string, profile models.Profile) (string, error) {
			return "", upstream.New("registry", http.StatusNotFound, []byte(`{"error":"no such customer"}`))
		},
	})

	w := doJSON(t, router, http.MethodPut, "/profile/missing", models.Profile{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "5551234567",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
