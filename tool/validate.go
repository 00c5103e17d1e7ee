package tool

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Severity defines diagnostic severity produced by validators.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a structured validation finding. Field is a dotted path into
// the tool arguments, e.g. "nodes.0.position".
type Diagnostic struct {
	Field    string   `json:"field,omitempty"`
	Code     string   `json:"code,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Result aggregates diagnostics from one or more validation passes.
type Result struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// HasErrors returns true when at least one error-severity diagnostic exists.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err returns an INVALID_ARGUMENTS ToolError naming every offending field,
// or nil when the result has no errors.
func (r Result) Err() *ToolError {
	if !r.HasErrors() {
		return nil
	}
	parts := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.Severity != SeverityError {
			continue
		}
		if d.Field == "" {
			parts = append(parts, d.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", d.Field, d.Message))
	}
	err := newToolError(ToolErrorCodeInvalidArguments, "invalid arguments: "+strings.Join(parts, "; "), nil)
	return withToolErrorDetails(err, map[string]any{"diagnostics": r.Diagnostics})
}

// validationDiagnostics flattens ozzo validation errors, including nested
// struct and slice errors, into diagnostics with dotted field paths.
func validationDiagnostics(prefix string, err error) []Diagnostic {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		keys := make([]string, 0, len(fieldErrs))
		for key := range fieldErrs {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var out []Diagnostic
		for _, key := range keys {
			out = append(out, validationDiagnostics(joinPath(prefix, key), fieldErrs[key])...)
		}
		return out
	}

	code := "INVALID_VALUE"
	var ruleErr validation.Error
	if errors.As(err, &ruleErr) {
		code = strings.ToUpper(ruleErr.Code())
	}
	return []Diagnostic{{
		Field:    prefix,
		Code:     code,
		Severity: SeverityError,
		Message:  err.Error(),
	}}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}
