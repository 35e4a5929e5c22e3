package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// ServerError is returned for every non-2xx response. Its message is the
// response body exactly as the server sent it, or the status line when the
// body is blank.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return e.Body
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses.
func (e *ServerError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// mapError classifies a transport failure. Cancellation by the caller is
// passed through; anything else means the server could not be reached.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
