package negotiate

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// MapHTTPError reads a non-2xx response and converts it into an APIError.
// The body is consumed but not closed.
func MapHTTPError(resp *http.Response) *api.APIError {
	return MapStatus(resp.StatusCode, readErrorBody(resp))
}

// MapStatus converts an HTTP status and error body into an APIError that
// keeps the status code.
func MapStatus(status int, body []byte) *api.APIError {
	message := ExtractErrorMessage(body)

	var e *api.APIError
	switch {
	case status == http.StatusBadRequest:
		if message == "" {
			message = "invalid request to backend"
		}
		e = api.NewInvalidRequestError("", message)

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "backend authentication failed"
		}
		e = api.NewAuthenticationError(message)

	case status == http.StatusNotFound:
		if message == "" {
			message = "backend resource not found"
		}
		e = api.NewNotFoundError(message)

	case status == http.StatusTooManyRequests:
		if message == "" {
			message = "backend rate limit exceeded"
		}
		e = api.NewTooManyRequestsError(message)

	case status >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", status)
		}
		e = api.NewServerError(message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend error (HTTP %d)", status)
		}
		e = api.NewServerError(message)
	}
	return e.WithStatus(status)
}

// MapNetworkError converts a connection-level failure into an APIError.
func MapNetworkError(err error) *api.APIError {
	return api.NewTransportError(fmt.Sprintf("backend connection error: %s", err.Error()))
}

// ExtractErrorMessage finds the message in the error bodies vendors send:
// {"error":{"message":...}}, {"error":"..."} or {"message":...}.
func ExtractErrorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, p := range []string{"error.message", "message"} {
		if v := gjson.GetBytes(body, p); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	if v := gjson.GetBytes(body, "error"); v.Type == gjson.String {
		return v.String()
	}
	// Gemini streamGenerateContent without alt=sse wraps errors in an array.
	if v := gjson.GetBytes(body, "0.error.message"); v.Exists() {
		return v.String()
	}
	return ""
}

// unknownFieldMarkers are lowercase fragments vendors use when a request
// names a field the API version does not have.
var unknownFieldMarkers = []string{
	"unknown name",
	"unknown field",
	"cannot find field",
	"unrecognized field",
}

// Retryable reports whether a failed response belongs to the class that
// falls back to the alternate version.
func Retryable(status int, body []byte) bool {
	switch status {
	case http.StatusNotFound:
		return true
	case http.StatusBadRequest:
		msg := strings.ToLower(ExtractErrorMessage(body))
		for _, m := range unknownFieldMarkers {
			if strings.Contains(msg, m) {
				return true
			}
		}
	}
	return false
}

func readErrorBody(resp *http.Response) []byte {
	if resp.Body == nil {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return data
}
