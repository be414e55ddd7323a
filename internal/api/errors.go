package api

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/five82/journey/internal/journey"
)

// AuthenticationRequiredError means there is no usable token: none stored,
// empty after normalization, or rejected by the server with 401.
type AuthenticationRequiredError struct {
	Message string
}

func (e *AuthenticationRequiredError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Message
}

// ServerError is any non-2xx response other than 401 on an authenticated call.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport failure that carries no HTTP status.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or transport timeout.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Retryable is always true; the caller decides whether to retry.
func (e *NetworkError) Retryable() bool { return true }

// DecodeError is re-exported so callers can classify every failure from this
// package alone.
type DecodeError = journey.DecodeError

// IsAuthenticationRequired reports whether err means the user must log in.
func IsAuthenticationRequired(err error) bool {
	var target *AuthenticationRequiredError
	return errors.As(err, &target)
}

// outcome labels err for metrics.
func outcome(err error) string {
	var (
		authErr   *AuthenticationRequiredError
		serverErr *ServerError
		decodeErr *DecodeError
		netErr    *NetworkError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &authErr):
		return "auth_required"
	case errors.As(err, &serverErr):
		return "server_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "error"
	}
}
