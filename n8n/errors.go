package n8n

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is the single failure kind returned by Client operations. It
// covers non-success responses, transport failures and undecodable bodies.
// Error() returns Message unchanged so that service-reported messages reach
// callers verbatim.
type APIError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode  int
	Message     string
	Code        string
	Description string
	Cause       error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the underlying transport or decode error, if any.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsNotFound reports whether err is an APIError for a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// newStatusError builds the error for a non-success response. The
// service-reported message wins; otherwise a generic status message is used.
func newStatusError(statusCode int, body apiErrorBody, parsed bool) *APIError {
	message := ""
	if parsed {
		message = strings.TrimSpace(body.Message)
	}
	if message == "" {
		message = fmt.Sprintf("n8n API error: %d %s", statusCode, http.StatusText(statusCode))
	}
	err := &APIError{
		StatusCode:  statusCode,
		Message:     message,
		Description: body.Description,
	}
	if body.Code != nil {
		err.Code = fmt.Sprint(body.Code)
	}
	return err
}

func newTransportError(message string, cause error) *APIError {
	return &APIError{
		Message: fmt.Sprintf("%s: %v", message, cause),
		Cause:   cause,
	}
}
