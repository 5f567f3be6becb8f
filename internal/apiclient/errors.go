package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches an APIError with status 401, i.e. a request that still
// failed authentication after the single refresh attempt.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// APIError is a non-2xx response. Message comes from the backend's {"message"} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
