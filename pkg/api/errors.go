package api

import "fmt"

// ErrorType represents the category of an error surfaced to callers.
type ErrorType string

const (
	ErrorTypeServerError          ErrorType = "server_error"
	ErrorTypeInvalidRequest       ErrorType = "invalid_request"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeAuthentication       ErrorType = "authentication_error"
	ErrorTypeTooManyRequests      ErrorType = "too_many_requests"
	ErrorTypeTransport            ErrorType = "transport_error"
	ErrorTypeInvalidToolArguments ErrorType = "invalid_tool_arguments"
	ErrorTypeStream               ErrorType = "stream_error"
)

// APIError represents a structured error with type, code, param, and message.
// StatusCode carries the vendor HTTP status when the error came from one.
type APIError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code,omitempty"`
	Param      string    `json:"param,omitempty"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Param != "" {
		msg += fmt.Sprintf(" (param: %s)", e.Param)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	return msg
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates an APIError for internal or upstream server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewAuthenticationError creates an APIError for rejected credentials.
func NewAuthenticationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeAuthentication,
		Message: message,
	}
}

// NewTooManyRequestsError creates an APIError for rate limiting.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTooManyRequests,
		Message: message,
	}
}

// NewTransportError creates an APIError for connection-level failures.
func NewTransportError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTransport,
		Message: message,
	}
}

// NewInvalidToolArgumentsError creates the error returned when a finished
// tool call's argument buffer is not a JSON object.
func NewInvalidToolArgumentsError(callID, detail string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidToolArguments,
		Param:   callID,
		Message: fmt.Sprintf("invalid tool arguments for call %s: %s", callID, detail),
	}
}

// NewStreamError creates an APIError for an error event sent by the vendor
// in the middle of a stream.
func NewStreamError(code, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeStream,
		Code:    code,
		Message: message,
	}
}

// WithStatus records the HTTP status the error was derived from.
func (e *APIError) WithStatus(status int) *APIError {
	e.StatusCode = status
	return e
}
