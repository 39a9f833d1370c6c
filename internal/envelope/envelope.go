// Package envelope defines the response shape returned by every protocol
// dispatcher, normalizing REST/SOAP/GraphQL/gRPC responses into a single
// structure regardless of the upstream's native format.
package envelope

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

// Envelope is the normalized response body written for every gateway-handled request.
type Envelope struct {
	StatusCode      int                 `json:"status_code"`
	ResponseHeaders map[string][]string `json:"response_headers,omitempty"`
	Response        interface{}         `json:"response,omitempty"`
	Message         string              `json:"message,omitempty"`
	ErrorCode       apierrors.ErrorCode `json:"error_code,omitempty"`
	ErrorMessage    string              `json:"error_message,omitempty"`
}

// Success builds an envelope wrapping a successful upstream response.
func Success(statusCode int, headers map[string][]string, response interface{}) Envelope {
	return Envelope{
		StatusCode:      statusCode,
		ResponseHeaders: headers,
		Response:        response,
	}
}

// Error builds an envelope reporting a gateway-side failure; statusCode should
// normally be code.HTTPStatus() but is taken explicitly so callers can preserve
// an upstream status code while still reporting a gateway error code.
func Error(statusCode int, code apierrors.ErrorCode, message string) Envelope {
	return Envelope{
		StatusCode:   statusCode,
		ErrorCode:    code,
		ErrorMessage: message,
	}
}

// Write serializes the envelope as JSON to the response writer using the
// envelope's own StatusCode, not necessarily the writer's current state.
func Write(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(env)
}

// WriteError is a convenience wrapper combining Error and Write for the
// common case of a gateway-classified failure with no upstream response.
func WriteError(w http.ResponseWriter, code apierrors.ErrorCode, message string) {
	Write(w, Error(code.HTTPStatus(), code, message))
}
