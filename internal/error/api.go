// Package derror carries the typed error taxonomy for backend API failures,
// so callers can branch on the failure class instead of string-matching.
package derror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is the base type for every taxonomized HTTP failure. Specific
// classes embed it; use FromStatus to construct the right one.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) api() *APIError { return e }

// AuthenticationError maps 401; the caller should prompt a re-login.
type AuthenticationError struct{ APIError }

// AuthorizationError maps 403; the caller should show access-denied.
type AuthorizationError struct{ APIError }

// NotFoundError maps 404.
type NotFoundError struct{ APIError }

// ValidationError maps 422 and carries field-level messages when the server
// provided them.
type ValidationError struct {
	APIError
	ValidationErrors map[string]string
}

// ServerError maps 5xx responses; transient, safe to retry with backoff.
type ServerError struct{ APIError }

// NetworkError represents a transport-level failure where no response was
// received at all.
type NetworkError struct {
	Message string
	Cause   error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network error: %s: %v", e.Message, e.Cause)
	}
	return "network error: " + e.Message
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// FromStatus builds the taxonomized error for an HTTP status. details is the
// decoded error body, if any; for 422 it is mined for field-level validation
// messages.
func FromStatus(status int, message string, details map[string]any) error {
	base := APIError{StatusCode: status, Message: message, Details: details}
	switch status {
	case http.StatusUnauthorized:
		return &AuthenticationError{base}
	case http.StatusForbidden:
		return &AuthorizationError{base}
	case http.StatusNotFound:
		return &NotFoundError{base}
	case http.StatusUnprocessableEntity:
		ve := &ValidationError{APIError: base}
		if fields, ok := details["validation_errors"].(map[string]any); ok {
			ve.ValidationErrors = make(map[string]string, len(fields))
			for k, v := range fields {
				ve.ValidationErrors[k] = fmt.Sprint(v)
			}
		}
		if msgs := fastAPIMessages(details); len(msgs) > 0 {
			ve.Message = strings.Join(msgs, "; ")
		}
		return ve
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &ServerError{base}
	default:
		return &base
	}
}

// fastAPIMessages extracts the msg fields from a FastAPI-style
// {"detail": [{"msg": ...}, ...]} payload.
func fastAPIMessages(details map[string]any) []string {
	items, ok := details["detail"].([]any)
	if !ok {
		return nil
	}
	var msgs []string
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			if msg, ok := obj["msg"].(string); ok && msg != "" {
				msgs = append(msgs, msg)
			}
		}
	}
	return msgs
}

// AsAPIError reports whether err is any taxonomized HTTP error (NetworkError
// excluded) and returns its base fields.
func AsAPIError(err error) (*APIError, bool) {
	var t interface{ api() *APIError }
	if errors.As(err, &t) {
		return t.api(), true
	}
	return nil, false
}

func IsAPIError(err error) bool {
	_, ok := AsAPIError(err)
	return ok
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func IsValidationError(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Taxonomized reports whether err already belongs to the taxonomy, so
// transport wrappers know not to double-wrap it.
func Taxonomized(err error) bool {
	return IsAPIError(err) || IsNetworkError(err)
}

const (
	genericNetworkMessage = "Unable to reach the server. Please check your connection and try again."
	genericFallback       = "Something went wrong. Please try again."
)

// FriendlyMessage converts any error into a sentence fit for end users.
// Never panics and never exposes stack traces.
func FriendlyMessage(err error) string {
	if err == nil {
		return genericFallback
	}
	if IsNetworkError(err) {
		return genericNetworkMessage
	}
	if ae, ok := AsAPIError(err); ok && ae.Message != "" {
		return ae.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericFallback
}
