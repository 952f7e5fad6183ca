// Package verify proxies one-time-code SMS verification to the provider.
// The gateway adds credentials and relays the provider's responses verbatim;
// it holds no verification state of its own.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	dErrors "loyalty-gateway/pkg/domain-errors"
	"loyalty-gateway/pkg/platform/circuit"
	upstream "loyalty-gateway/pkg/upstream-errors"
)

const serviceName = "verification"

// Config holds the verification provider endpoint and credentials.
type Config struct {
	BaseURL  string
	Username string
	Password string
}

// Client is the authenticated transport to the verification provider.
// Calls are never retried: re-sending a verification request triggers
// another SMS, and check attempts consume the one-time code. A circuit
// breaker fails fast instead when the provider is consistently down.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuit.Breaker
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

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient creates a verification client with the given per-call timeout.
func NewClient(cfg Config, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  slog.Default(),
		breaker: circuit.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type identity struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

type startRequest struct {
	Identity identity `json:"identity"`
	Method   string   `json:"method"`
}

type smsCode struct {
	Code string `json:"code"`
}

type checkRequest struct {
	Method string  `json:"method"`
	SMS    smsCode `json:"sms"`
}

// Start asks the provider to send a one-time code to the phone number.
// The provider's response body is returned for verbatim relay.
func (c *Client) Start(ctx context.Context, phone string) (json.RawMessage, error) {
	body := startRequest{
		Identity: identity{Type: "number", Endpoint: phone},
		Method:   "sms",
	}
	return c.do(ctx, http.MethodPost, "/verification/v1/verifications", body)
}

// Check reports the code the customer entered back to the provider.
func (c *Client) Check(ctx context.Context, phone, code string) (json.RawMessage, error) {
	path := "/verification/v1/verifications/number/" + url.PathEscape(phone)
	body := checkRequest{Method: "sms", SMS: smsCode{Code: code}}
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if !c.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeUpstream, "verification provider unavailable")
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.breaker.RecordFailure() {
			c.logger.WarnContext(ctx, "verification circuit opened")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "verification provider unreachable")
	}
	defer resp.Body.Close()

	resBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to read provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		uerr := upstream.New(serviceName, resp.StatusCode, resBody)
		// a 4xx means the provider is up, only server-side failures
		// count against the circuit
		if uerr.Temporary() {
			if c.breaker.RecordFailure() {
				c.logger.WarnContext(ctx, "verification circuit opened")
			}
		} else {
			c.breaker.RecordSuccess()
		}
		c.logger.ErrorContext(ctx, "verification call failed",
			"method", method,
			"status", resp.StatusCode,
		)
		return nil, uerr
	}

	if c.breaker.RecordSuccess() {
		c.logger.InfoContext(ctx, "verification circuit closed")
	}
	return json.RawMessage(resBody), nil
}
