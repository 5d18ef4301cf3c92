package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound reports that the server no longer knows the lobby or user.
// Callers match it with errors.Is; any other failure is transient.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the lobby service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Detail)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
