package models

import (
	"fmt"
	"net/http"
)

// APIError represents a structured API error response
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errors surfaced at the analyzer's request boundary.
var (
	ErrBadRequest = &APIError{
		Code:       "BAD_REQUEST",
		Message:    "The request was invalid",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternalServer = &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "An internal server error occurred",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrEmptyBuffer is returned for an empty sample buffer.
	ErrEmptyBuffer = &APIError{
		Code:       "EMPTY",
		Message:    "empty",
		StatusCode: http.StatusBadRequest,
	}

	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = &APIError{
		Code:       "BAD_REQUEST",
		Message:    "sample rate must be positive",
		StatusCode: http.StatusBadRequest,
	}

	// ErrUnsupportedWAVDType is returned when a WAV's sample format isn't
	// one of PCM16/PCM32/uint8/float32.
	ErrUnsupportedWAVDType = &APIError{
		Code:       "UNSUPPORTED_MEDIA_TYPE",
		Message:    "unsupported wav dtype",
		StatusCode: http.StatusUnsupportedMediaType,
	}

	// ErrMediaFetch is returned when the media collaborator cannot be
	// reached or returns a non-2xx response.
	ErrMediaFetch = &APIError{
		Code:       "MEDIA_ERROR",
		Message:    "media_error",
		StatusCode: http.StatusBadRequest,
	}
)

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewValidationError creates a validation error with details
func NewValidationError(details any) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    "The request failed validation",
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(err *APIError) ErrorResponse {
	return ErrorResponse{Error: err}
}
