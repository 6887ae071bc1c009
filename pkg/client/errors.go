package client

import (
	"errors"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ErrNetwork is returned when the API could not be reached at all
var ErrNetwork = errors.New("Network error. Please check your connection.")

// errNoSession means there is nothing to refresh with, or the session was
// ended while a refresh was in flight
var errNoSession = errors.New("no active session")

// APIError is a non-2xx response. Message is the server's message, meant to
// be shown to the user as is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorBody mirrors the API's error envelope
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

type networkError struct {
	cause error
}

func (e *networkError) Error() string        { return ErrNetwork.Error() }
func (e *networkError) Is(target error) bool { return target == ErrNetwork }
func (e *networkError) Unwrap() error        { return e.cause }

func toAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body.Message != "" {
		apiErr.Message = body.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
