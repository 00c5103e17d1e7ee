package cli

import (
	"fmt"

	"github.com/petal-labs/n8nmcp/tool"
)

// Process exit codes.
const (
	exitRuntime    = 1
	exitValidation = 2
	exitRemote     = 3
)

// ExitError is an error that carries a specific process exit code.
// Cobra's RunE returns this to signal the desired exit code to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// exitError creates a new ExitError with the given code and formatted message.
func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// exitCodeForTool maps a tool error code to a process exit code.
func exitCodeForTool(code string) int {
	switch code {
	case tool.ToolErrorCodeInvalidArguments, tool.ToolErrorCodeUnknownTool:
		return exitValidation
	case tool.ToolErrorCodeN8NAPIError:
		return exitRemote
	default:
		return exitRuntime
	}
}
