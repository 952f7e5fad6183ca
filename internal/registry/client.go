// Package registry implements the authenticated HTTP transport for the
// third-party customer registry.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"loyalty-gateway/internal/registry/metrics"
	dErrors "loyalty-gateway/pkg/domain-errors"
	upstream "loyalty-gateway/pkg/upstream-errors"
)

const serviceName = "registry"

// Config holds the registry account and credentials. It is constructed once
// at startup and validated there; the client never reads ambient state.
type Config struct {
	BaseURL   string
	AccountID string
	Username  string
	Password  string
}

// Client is the authenticated registry transport. Every call attaches HTTP
// Basic credentials and honors the caller's context deadline. Transient
// failures are retried with exponential backoff and jitter; client errors
// are surfaced immediately with the upstream status and body verbatim.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	maxRetries uint64
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus metrics for upstream calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
// Default is 2 (three attempts total). Zero disables retries.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// New creates a registry client with the given per-call timeout.
func New(cfg Config, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:     slog.Default(),
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCustomers fetches one page of the account's customer list.
// Pages are 1-indexed. A 204 or empty body yields an empty page.
func (c *Client) ListCustomers(ctx context.Context, page, size int, includeDeleted bool) (*SearchPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	q.Set("includeDeleted", strconv.FormatBool(includeDeleted))

	status, raw, err := c.do(ctx, "list_customers", http.MethodGet, "/customers", q, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return &SearchPage{}, nil
	}

	var result SearchPage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "registry returned malformed customer page")
	}
	return &result, nil
}

// SearchCustomers runs a single filtered query (email or name). A 204 or a
// non-JSON body counts as zero results; the registry answers that way when
// nothing matches.
func (c *Client) SearchCustomers(ctx context.Context, filter url.Values) ([]Customer, error) {
	status, raw, err := c.do(ctx, "search_customers", http.MethodGet, "/customers", filter, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return nil, nil
	}

	var result SearchPage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, nil
	}
	return result.Results, nil
}

// CreateCustomers posts a batch with insert-or-update write mode. It returns
// the created-record stubs along with the registry's raw response body, which
// the profile flow relays verbatim to the caller.
func (c *Client) CreateCustomers(ctx context.Context, batch []CustomerPayload) ([]CustomerRef, json.RawMessage, error) {
	q := url.Values{}
	q.Set("writeMode", "ADD_OR_UPDATE")

	status, raw, err := c.do(ctx, "create_customers", http.MethodPost, "/customers", q, batch)
	if err != nil {
		return nil, nil, err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return nil, nil, nil
	}

	var refs []CustomerRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUpstream, "registry returned malformed create response")
	}
	return refs, json.RawMessage(raw), nil
}

// GetCustomer fetches the full customer record by identifier.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	status, raw, err := c.do(ctx, "get_customer", http.MethodGet, "/customers/"+url.PathEscape(customerID), nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
	}

	var customer Customer
	if err := json.Unmarshal(raw, &customer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "registry returned malformed customer record")
	}
	return &customer, nil
}

// UpdateCustomer patches an existing customer record.
func (c *Client) UpdateCustomer(ctx context.Context, customerID string, payload CustomerPayload) error {
	_, _, err := c.do(ctx, "update_customer", http.MethodPatch, "/customers/"+url.PathEscape(customerID), nil, payload)
	return err
}

// do executes one registry call with retries. It returns the status code and
// the raw response body on success (2xx). Non-2xx statuses become upstream
// errors carrying the status and body verbatim; 4xx are permanent, 5xx and
// transport failures are retried until the budget is exhausted.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body any) (int, []byte, error) {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return 0, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal request body")
		}
	}

	endpoint := fmt.Sprintf("%s/accounts/%s%s", c.cfg.BaseURL, url.PathEscape(c.cfg.AccountID), path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var (
		status  int
		resBody []byte
		attempt int
	)
	operationFn := func() error {
		if attempt > 0 {
			c.metrics.RecordRetry(operation)
			c.logger.WarnContext(ctx, "retrying registry call",
				"operation", operation,
				"attempt", attempt+1,
			)
		}
		attempt++

		var bodyReader io.Reader
		if reqBody != nil {
			bodyReader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return backoff.Permanent(dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request"))
		}
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.metrics.RecordRequest(operation, 0, time.Since(start))
			return dErrors.Wrap(err, dErrors.CodeUpstream, "registry unreachable")
		}
		defer resp.Body.Close()

		resBody, err = io.ReadAll(resp.Body)
		c.metrics.RecordRequest(operation, resp.StatusCode, time.Since(start))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUpstream, "failed to read registry response")
		}

		status = resp.StatusCode
		if status < 200 || status > 299 {
			upErr := upstream.New(serviceName, status, resBody)
			c.logger.ErrorContext(ctx, "registry call failed",
				"operation", operation,
				"status", status,
			)
			if !upErr.Temporary() {
				return backoff.Permanent(upErr)
			}
			return upErr
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operationFn, policy); err != nil {
		return 0, nil, err
	}
	return status, resBody, nil
}

// newBackOff builds the retry schedule shared by all operations.
func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
