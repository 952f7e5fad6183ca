// Package upstreamerrors carries third-party service failures verbatim.
//
// The gateway never reinterprets registry or SMS-provider diagnostics: the
// upstream status code and response body are preserved exactly as received so
// handlers can relay them to the caller.
package upstreamerrors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error wraps a non-success response from an upstream service.
type Error struct {
	Service string // upstream identifier, e.g. "registry" or "verification"
	Status  int    // HTTP status returned by the upstream, 0 if the call never completed
	Body    any    // parsed JSON body, or the raw text when the body is not JSON
}

// New builds an Error from a raw upstream response body.
// The body is parsed as JSON on a best-effort basis; unparseable bodies are
// kept as text.
func New(service string, status int, body []byte) *Error {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = string(body)
	}
	return &Error{Service: service, Status: status, Body: parsed}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
}

// UpstreamStatus returns the upstream's HTTP status code for relay.
func (e *Error) UpstreamStatus() int {
	return e.Status
}

// UpstreamBody returns the upstream's response body for relay.
func (e *Error) UpstreamBody() any {
	return e.Body
}

// Temporary reports whether the failure is worth retrying.
// Server-side failures are transient; client errors are permanent.
func (e *Error) Temporary() bool {
	return e.Status == 0 || e.Status >= 500 || e.Status == 429
}

// Status extracts the upstream status code from an error chain, or 0.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
