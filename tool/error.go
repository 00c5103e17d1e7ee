package tool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petal-labs/n8nmcp/n8n"
)

const (
	// ToolErrorCodeInvalidArguments is returned when tool input fails validation.
	ToolErrorCodeInvalidArguments = "INVALID_ARGUMENTS"
	// ToolErrorCodeN8NAPIError is returned when the n8n API call fails.
	ToolErrorCodeN8NAPIError = "N8N_API_ERROR"
	// ToolErrorCodeUnknownTool is returned for a tool name that is not declared.
	ToolErrorCodeUnknownTool = "UNKNOWN_TOOL"
	// ToolErrorCodeInternal is a generic fallback for unexpected failures.
	ToolErrorCodeInternal = "INTERNAL_ERROR"
)

// ToolError is a structured tool failure. It is rendered to the caller as
// {"error": {"code", "message", "details"}}.
type ToolError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return ToolErrorCodeInternal
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newToolError(code, message string, cause error) *ToolError {
	cleanCode := strings.TrimSpace(code)
	if cleanCode == "" {
		cleanCode = ToolErrorCodeInternal
	}
	cleanMsg := strings.TrimSpace(message)
	if cleanMsg == "" && cause != nil {
		cleanMsg = cause.Error()
	}
	return &ToolError{
		Code:    cleanCode,
		Message: cleanMsg,
		Cause:   cause,
	}
}

func withToolErrorDetails(err *ToolError, details map[string]any) *ToolError {
	if err == nil {
		return nil
	}
	if len(details) == 0 {
		return err
	}
	if err.Details == nil {
		err.Details = make(map[string]any, len(details))
	}
	for key, value := range details {
		err.Details[key] = value
	}
	return err
}

// toolErrorFrom converts any error returned while running a tool into a
// ToolError. n8n API failures keep the service message verbatim.
func toolErrorFrom(err error) *ToolError {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	var apiErr *n8n.APIError
	if errors.As(err, &apiErr) {
		details := map[string]any{}
		if apiErr.StatusCode > 0 {
			details["status"] = apiErr.StatusCode
		}
		if apiErr.Code != "" {
			details["code"] = apiErr.Code
		}
		if apiErr.Description != "" {
			details["description"] = apiErr.Description
		}
		return withToolErrorDetails(newToolError(ToolErrorCodeN8NAPIError, apiErr.Message, err), details)
	}
	return newToolError(ToolErrorCodeInternal, "", err)
}

// ErrorCode returns the ToolError code carried by err, or "" when err is not
// a ToolError.
func ErrorCode(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr != nil {
		return toolErr.Code
	}
	return ""
}
