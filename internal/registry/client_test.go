package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "loyalty-gateway/pkg/domain-errors"
	upstream "loyalty-gateway/pkg/upstream-errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:   srv.URL,
		AccountID: "acct-1",
		Username:  "user",
		Password:  "pass",
	}
	return New(cfg, 5*time.Second, opts...)
}

func TestListCustomers_SendsBasicAuthAndQuery(t *testing.T) {
	var gotUser, gotPass string
	var gotQuery url.Values

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotQuery = r.URL.Query()
		assert.Equal(t, "/accounts/acct-1/customers", r.URL.Path)

		_ = json.NewEncoder(w).Encode(SearchPage{
			CurrentPage: 1,
			PagesTotal:  1,
			Results:     []Customer{{ID: "c1", Phone: "5551234567"}},
		})
	})

	page, err := client.ListCustomers(context.Background(), 1, 100, false)
	require.NoError(t, err)

	assert.Equal(t, "user", gotUser)
	assert.Equal(t, "pass", gotPass)
	assert.Equal(t, "1", gotQuery.Get("page"))
	assert.Equal(t, "100", gotQuery.Get("size"))
	assert.Equal(t, "false", gotQuery.Get("includeDeleted"))
	require.Len(t, page.Results, 1)
	assert.Equal(t, "c1", page.Results[0].ID)
}

func TestListCustomers_NoContentIsEmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	page, err := client.ListCustomers(context.Background(), 1, 100, false)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Zero(t, page.PagesTotal)
}

func TestSearchCustomers_NonJSONBodyIsZeroResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	filter := url.Values{}
	filter.Set("email", "jane@example.com")
	customers, err := client.SearchCustomers(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestCreateCustomers_UpstreamErrorCarriesStatusAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"reason":"dup"}`))
	})

	_, _, err := client.CreateCustomers(context.Background(), []CustomerPayload{{Phone: "5551234567"}})
	require.Error(t, err)

	var upErr *upstream.Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusUnprocessableEntity, upErr.Status)
	assert.Equal(t, map[string]any{"reason": "dup"}, upErr.Body)
}

func TestCreateCustomers_SendsWriteModeAndBatch(t *testing.T) {
	var gotWriteMode string
	var gotBatch []map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotWriteMode = r.URL.Query().Get("writeMode")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBatch))
		_, _ = w.Write([]byte(`[{"id":"c-new"}]`))
	})

	refs, raw, err := client.CreateCustomers(context.Background(), []CustomerPayload{{
		Phone:                     "5551234567",
		PrivacyPolicyAccepted:     Bool(false),
		MarketingContactPermitted: Bool(false),
	}})
	require.NoError(t, err)

	assert.Equal(t, "ADD_OR_UPDATE", gotWriteMode)
	require.Len(t, gotBatch, 1)
	assert.Equal(t, "5551234567", gotBatch[0]["phone"])
	assert.Equal(t, false, gotBatch[0]["privacyPolicyAccepted"])
	require.Len(t, refs, 1)
	assert.Equal(t, "c-new", refs[0].ID)
	assert.JSONEq(t, `[{"id":"c-new"}]`, string(raw))
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(SearchPage{PagesTotal: 1})
	})

	_, err := client.ListCustomers(context.Background(), 1, 100, false)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad page"}`))
	})

	_, err := client.ListCustomers(context.Background(), 1, 100, false)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var upErr *upstream.Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusBadRequest, upErr.Status)
}

func TestDo_RetryBudgetExhausted(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}, WithMaxRetries(1))

	_, err := client.ListCustomers(context.Background(), 1, 100, false)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestUpdateCustomer_PatchesByID(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateCustomer(context.Background(), "c1", CustomerPayload{Firstname: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/accounts/acct-1/customers/c1", gotPath)
}

func TestGetCustomer_NotFoundOnEmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.GetCustomer(context.Background(), "missing")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
