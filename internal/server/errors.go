// Package server is the HTTP front of the proxy: the rewriting reverse proxy, the admin API
// for prompts and personalities, health and metrics.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/generative-proxy/internal/fetch"
	"github.com/jonathan/generative-proxy/internal/schemas"
	"github.com/jonathan/generative-proxy/internal/store"
)

// ErrNoOrigin is returned when neither the request nor the configuration names an origin.
var ErrNoOrigin = errors.New("no origin configured")

// ErrInvalidOrigin indicates an origin override that is not an absolute URL.
type ErrInvalidOrigin struct {
	Origin string
	Cause  error
}

func (e *ErrInvalidOrigin) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid origin %q: %v", e.Origin, e.Cause)
	}
	return fmt.Sprintf("invalid origin %q", e.Origin)
}

func (e *ErrInvalidOrigin) Unwrap() error {
	return e.Cause
}

// ErrValidation indicates request validation failure. Message is returned to the client as is.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		originErr     *ErrInvalidOrigin
		storeErr      *store.ValidationError
		schemaErr     *schemas.ValidationError
		fetchErr      *fetch.Error
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr), errors.As(err, &originErr),
		errors.As(err, &storeErr), errors.As(err, &schemaErr),
		errors.Is(err, store.ErrLastPersonality):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &fetchErr):
		if fetchErr.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, ErrNoOrigin):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
