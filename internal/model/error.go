package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeNetwork           = "NETWORK_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeServer            = "SERVER_ERROR"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeNoDraft           = "NO_DRAFT"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// NetworkError is returned when the backend could not be reached or did not
// answer in time.
type NetworkError struct {
	Message string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is returned when the backend answered with a non-success status.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return e.Message
}

// ValidationError is returned when a draft field is missing or malformed.
// It is detected before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MalformedResponseError is returned when the backend response does not have
// the expected shape.
type MalformedResponseError struct {
	Message string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return e.Message
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Domain errors for session state
var (
	ErrProductNotFound = errors.New("product not found in catalogue")
	ErrNoDraft         = errors.New("no draft is being edited")
)

// HTTPStatus maps an error from the taxonomy to the status and code the
// gateway reports for it.
func HTTPStatus(err error) (int, string) {
	var (
		netErr       *NetworkError
		serverErr    *ServerError
		validErr     *ValidationError
		malformedErr *MalformedResponseError
	)

	switch {
	case errors.As(err, &validErr):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.As(err, &netErr):
		if netErr.Timeout {
			return http.StatusGatewayTimeout, ErrCodeTimeout
		}
		return http.StatusBadGateway, ErrCodeNetwork
	case errors.As(err, &serverErr):
		if serverErr.StatusCode >= 400 && serverErr.StatusCode < 500 {
			return serverErr.StatusCode, ErrCodeServer
		}
		return http.StatusBadGateway, ErrCodeServer
	case errors.As(err, &malformedErr):
		return http.StatusBadGateway, ErrCodeMalformedResponse
	case errors.Is(err, ErrProductNotFound):
		return http.StatusNotFound, ErrCodeProductNotFound
	case errors.Is(err, ErrNoDraft):
		return http.StatusConflict, ErrCodeNoDraft
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}
