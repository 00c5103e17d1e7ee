package tool

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/petal-labs/n8nmcp/n8n"
)

// Response is the rendered outcome of a tool call: a single text payload,
// flagged as an error when the call failed.
type Response struct {
	Text    string
	IsError bool
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type deleteResult struct {
	Success         bool         `json:"success"`
	Message         string       `json:"message"`
	DeletedWorkflow n8n.Workflow `json:"deletedWorkflow"`
}

type toggleResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Workflow n8n.Workflow `json:"workflow"`
}

// renderJSON encodes v with two-space indentation and without HTML escaping.
func renderJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func successResponse(result any) (Response, *ToolError) {
	text, err := renderJSON(result)
	if err != nil {
		return Response{}, newToolError(ToolErrorCodeInternal, "encode result: "+err.Error(), err)
	}
	return Response{Text: text}, nil
}

func errorResponse(toolErr *ToolError) Response {
	text, err := renderJSON(errorEnvelope{Error: errorBody{
		Code:    toolErr.Code,
		Message: toolErr.Message,
		Details: toolErr.Details,
	}})
	if err != nil {
		// Details held something unencodable; drop them.
		text, _ = renderJSON(errorEnvelope{Error: errorBody{Code: toolErr.Code, Message: toolErr.Message}})
	}
	return Response{Text: text, IsError: true}
}
