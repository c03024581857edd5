package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthenticationMissing is returned before any network call when an
// authenticated request is attempted without a usable bearer token.
var ErrAuthenticationMissing = errors.New("authentication missing")

// ServerError is a non-2xx response from the backend.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error: %d", e.StatusCode)
}

// NetworkError means the request was sent but no response came back.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is a client-side input check failure raised before any
// network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrorKind classifies an error for presentation.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthenticationMissing
	KindServer
	KindNetwork
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthenticationMissing:
		return "authentication_missing"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Classify returns the kind of err, looking through wrapping.
func Classify(err error) ErrorKind {
	var (
		se *ServerError
		ne *NetworkError
		ve *ValidationError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrAuthenticationMissing):
		return KindAuthenticationMissing
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &se):
		return KindServer
	case errors.As(err, &ne):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// Guidance returns the message shown to a user for err.
func Guidance(err error) string {
	switch Classify(err) {
	case KindAuthenticationMissing:
		return "Your session has ended. Please sign in again."
	case KindNetwork:
		return "Unable to reach the server. Check your connection and try again."
	case KindServer:
		var se *ServerError
		errors.As(err, &se)
		return se.Error()
	case KindValidation:
		var ve *ValidationError
		errors.As(err, &ve)
		return ve.Error()
	default:
		if err == nil {
			return ""
		}
		return err.Error()
	}
}

// Retryable reports whether a manual "try again" can reasonably succeed.
func Retryable(err error) bool {
	switch Classify(err) {
	case KindNetwork:
		return true
	case KindServer:
		var se *ServerError
		errors.As(err, &se)
		return se.StatusCode >= http.StatusInternalServerError || se.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// Explain adapts an error for list views: the user message, the kind label
// and whether to offer a retry.
func Explain(err error) (message, kind string, retry bool) {
	return Guidance(err), Classify(err).String(), Retryable(err)
}
