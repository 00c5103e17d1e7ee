package tool

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestValidationDiagnosticsFlattensNestedErrors(t *testing.T) {
	err := validation.Errors{
		"name": validation.ErrRequired,
		"nodes": validation.Errors{
			"1": validation.Errors{
				"position": validation.ErrLengthOutOfRange,
			},
		},
		"settings": errors.New("plain failure"),
	}

	diags := validationDiagnostics("", err)
	want := []struct {
		field string
		code  string
	}{
		{"name", "VALIDATION_REQUIRED"},
		{"nodes.1.position", "VALIDATION_LENGTH_OUT_OF_RANGE"},
		{"settings", "INVALID_VALUE"},
	}
	if len(diags) != len(want) {
		t.Fatalf("diagnostics = %+v, want %d", diags, len(want))
	}
	for i, w := range want {
		if diags[i].Field != w.field || diags[i].Code != w.code {
			t.Fatalf("diagnostics[%d] = %+v, want field %q code %q", i, diags[i], w.field, w.code)
		}
		if diags[i].Severity != SeverityError {
			t.Fatalf("diagnostics[%d].Severity = %q", i, diags[i].Severity)
		}
	}
}

func TestValidationDiagnosticsPrefix(t *testing.T) {
	diags := validationDiagnostics("settings", validation.Errors{"timezone": validation.ErrRequired})
	if len(diags) != 1 || diags[0].Field != "settings.timezone" {
		t.Fatalf("diagnostics = %+v", diags)
	}
	if validationDiagnostics("x", nil) != nil {
		t.Fatal("nil error produced diagnostics")
	}
}

func TestResultWarningsOnly(t *testing.T) {
	r := Result{Diagnostics: []Diagnostic{{Severity: SeverityWarning, Message: "w"}}}
	if r.HasErrors() {
		t.Fatal("HasErrors() = true for warnings only")
	}
	if r.Err() != nil {
		t.Fatal("Err() != nil for warnings only")
	}
}
