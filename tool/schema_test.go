package tool

import (
	"encoding/json"
	"testing"
)

func TestCheckShape(t *testing.T) {
	schema := definitions()[3].InputSchema // create_workflow

	tests := []struct {
		name   string
		args   string
		fields []string
	}{
		{
			name: "valid",
			args: `{"name":"x","nodes":[` + validNode + `],"connections":{}}`,
		},
		{
			name:   "wrong root types",
			args:   `{"name":1,"nodes":{},"connections":[]}`,
			fields: []string{"connections", "name", "nodes"},
		},
		{
			name:   "node missing parameters and typeVersion string",
			args:   `{"name":"x","nodes":[{"id":"n","name":"A","type":"t","typeVersion":"1","position":[0,0]}],"connections":{}}`,
			fields: []string{"nodes.0.parameters", "nodes.0.typeVersion"},
		},
		{
			name:   "position too long",
			args:   `{"name":"x","nodes":[{"id":"n","name":"A","type":"t","typeVersion":1,"position":[0,0,0],"parameters":{}}],"connections":{}}`,
			fields: []string{"nodes.0.position"},
		},
		{
			name:   "null is not an object",
			args:   `{"name":"x","nodes":[],"connections":{},"staticData":null}`,
			fields: []string{"staticData"},
		},
		{
			name: "unknown properties ignored",
			args: `{"name":"x","nodes":[],"connections":{},"extra":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := decodeArguments(json.RawMessage(tt.args))
			if err != nil {
				t.Fatalf("decodeArguments() error = %v", err)
			}
			diags := checkShape(schema, value, "")
			if len(diags) != len(tt.fields) {
				t.Fatalf("diagnostics = %+v, want fields %v", diags, tt.fields)
			}
			for i, field := range tt.fields {
				if diags[i].Field != field {
					t.Fatalf("diagnostics[%d].Field = %q, want %q", i, diags[i].Field, field)
				}
				if diags[i].Severity != SeverityError {
					t.Fatalf("diagnostics[%d].Severity = %q", i, diags[i].Severity)
				}
			}
		})
	}
}

func TestMatchesIntegerRejectsFractions(t *testing.T) {
	if matchesType("integer", json.Number("1.5")) {
		t.Fatal("1.5 matched integer")
	}
	if !matchesType("integer", json.Number("10")) {
		t.Fatal("10 did not match integer")
	}
	if !matchesType("number", json.Number("1.5")) {
		t.Fatal("1.5 did not match number")
	}
}

func TestResultErrNamesFields(t *testing.T) {
	err := Result{Diagnostics: []Diagnostic{
		{Field: "id", Severity: SeverityError, Message: "is required"},
		{Field: "name", Severity: SeverityWarning, Message: "ignored"},
	}}.Err()
	if err == nil {
		t.Fatal("Err() = nil")
	}
	if err.Message != "invalid arguments: id: is required" {
		t.Fatalf("Message = %q", err.Message)
	}
	if (Result{}).Err() != nil {
		t.Fatal("empty result produced an error")
	}
}
