package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "loyalty-gateway/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// UpstreamCarrier is implemented by errors that relay an upstream service's
// HTTP status and response body verbatim. The gateway never reinterprets
// upstream diagnostics; callers need them for troubleshooting.
type UpstreamCarrier interface {
	error
	UpstreamStatus() int
	UpstreamBody() any
}

// WriteError centralizes domain error translation to HTTP responses.
// Upstream errors relay the third-party status code and body as-is; everything
// else maps through the domain error taxonomy.
func WriteError(w http.ResponseWriter, err error) {
	var upstream UpstreamCarrier
	if errors.As(err, &upstream) {
		status := upstream.UpstreamStatus()
		if status < 400 {
			status = http.StatusInternalServerError
		}
		WriteJSON(w, status, map[string]any{
			"error": upstream.UpstreamBody(),
		})
		return
	}

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeUpstream:
		return http.StatusBadGateway
	case dErrors.CodeConfiguration, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to HTTP error codes (for JSON response).
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeInvalidInput:
		return "invalid_input"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeUpstream:
		return "upstream_error"
	case dErrors.CodeConfiguration:
		return "configuration_error"
	default:
		return "internal_error"
	}
}
