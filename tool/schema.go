package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

func objectSchema(description string, properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:        "object",
		Description: description,
		Properties:  properties,
		Required:    required,
	}
}

// mapSchema is an object whose every value must match values.
func mapSchema(description string, values *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          description,
		AdditionalProperties: values,
	}
}

func stringSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func enumSchema(description string, values ...string) *jsonschema.Schema {
	enum := make([]any, 0, len(values))
	for _, v := range values {
		enum = append(enum, v)
	}
	return &jsonschema.Schema{Type: "string", Description: description, Enum: enum}
}

func numberSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: description}
}

func integerSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

func booleanSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: description}
}

func arraySchema(description string, items *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: description, Items: items}
}

func fixedArraySchema(description string, items *jsonschema.Schema, length int) *jsonschema.Schema {
	s := arraySchema(description, items)
	s.MinItems = &length
	s.MaxItems = &length
	return s
}

// decodeArguments parses raw tool arguments keeping numbers as json.Number
// so integer and number can be told apart. Empty input is an empty object.
func decodeArguments(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after arguments object")
	}
	return value, nil
}

// checkShape walks value against schema and reports structural mismatches:
// JSON types, required properties, array items and lengths, nested
// properties and additionalProperties. Unknown properties are ignored
// unless the schema constrains additionalProperties.
func checkShape(schema *jsonschema.Schema, value any, path string) []Diagnostic {
	if schema == nil {
		return nil
	}

	types := schemaTypes(schema)
	if len(types) > 0 && !matchesAnyType(types, value) {
		return []Diagnostic{{
			Field:    path,
			Code:     "INVALID_TYPE",
			Severity: SeverityError,
			Message:  fmt.Sprintf("expected %s, got %s", describeTypes(types), jsonTypeOf(value)),
		}}
	}

	var out []Diagnostic
	switch v := value.(type) {
	case map[string]any:
		for _, name := range schema.Required {
			if _, ok := v[name]; !ok {
				out = append(out, Diagnostic{
					Field:    joinPath(path, name),
					Code:     "REQUIRED",
					Severity: SeverityError,
					Message:  "is required",
				})
			}
		}

		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if prop, ok := schema.Properties[key]; ok {
				out = append(out, checkShape(prop, v[key], joinPath(path, key))...)
				continue
			}
			if schema.AdditionalProperties != nil {
				out = append(out, checkShape(schema.AdditionalProperties, v[key], joinPath(path, key))...)
			}
		}
	case []any:
		if schema.MinItems != nil && len(v) < *schema.MinItems {
			out = append(out, lengthDiagnostic(path, schema, len(v)))
		} else if schema.MaxItems != nil && len(v) > *schema.MaxItems {
			out = append(out, lengthDiagnostic(path, schema, len(v)))
		}
		for i, item := range v {
			out = append(out, checkShape(schema.Items, item, joinPath(path, strconv.Itoa(i)))...)
		}
	}
	return out
}

func lengthDiagnostic(path string, schema *jsonschema.Schema, got int) Diagnostic {
	message := fmt.Sprintf("has %d items", got)
	switch {
	case schema.MinItems != nil && schema.MaxItems != nil && *schema.MinItems == *schema.MaxItems:
		message = fmt.Sprintf("must contain exactly %d items, got %d", *schema.MinItems, got)
	case schema.MinItems != nil && got < *schema.MinItems:
		message = fmt.Sprintf("must contain at least %d items, got %d", *schema.MinItems, got)
	case schema.MaxItems != nil && got > *schema.MaxItems:
		message = fmt.Sprintf("must contain at most %d items, got %d", *schema.MaxItems, got)
	}
	return Diagnostic{Field: path, Code: "INVALID_LENGTH", Severity: SeverityError, Message: message}
}

func schemaTypes(schema *jsonschema.Schema) []string {
	if schema.Type != "" {
		return []string{schema.Type}
	}
	return schema.Types
}

func matchesAnyType(types []string, value any) bool {
	for _, t := range types {
		if matchesType(t, value) {
			return true
		}
	}
	return false
}

func matchesType(t string, value any) bool {
	switch t {
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := value.(json.Number)
		return ok
	case "integer":
		n, ok := value.(json.Number)
		if !ok {
			return false
		}
		_, err := n.Int64()
		return err == nil
	case "null":
		return value == nil
	default:
		return true
	}
}

func jsonTypeOf(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return "integer"
		}
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func describeTypes(types []string) string {
	return strings.Join(types, " or ")
}
