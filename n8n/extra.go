package n8n

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// knownFields caches the JSON member names declared by a struct type.
var knownFields sync.Map // reflect.Type -> map[string]bool

func jsonFieldNames(t reflect.Type) map[string]bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := knownFields.Load(t); ok {
		return cached.(map[string]bool)
	}
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names[name] = true
	}
	knownFields.Store(t, names)
	return names
}

// decodeWithExtra unmarshals data into fields, a pointer to a struct, and
// returns the members fields does not declare. The result is nil when every
// member is modeled.
func decodeWithExtra(data []byte, fields any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, fields); err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	known := jsonFieldNames(reflect.TypeOf(fields))
	for name := range members {
		if known[name] {
			delete(members, name)
		}
	}
	if len(members) == 0 {
		return nil, nil
	}
	return members, nil
}

// marshalNoEscape is json.Marshal without HTML escaping, so names such as
// "A&B" render as written.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// encodeWithExtra marshals fields and appends the extra members in key order.
// Extra members that collide with a declared field are skipped.
func encodeWithExtra(fields any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := marshalNoEscape(fields)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	known := jsonFieldNames(reflect.TypeOf(fields))
	keys := make([]string, 0, len(extra))
	for name := range extra {
		if !known[name] {
			keys = append(keys, name)
		}
	}
	if len(keys) == 0 {
		return data, nil
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Grow(len(data) + 32*len(keys))
	buf.Write(data[:len(data)-1])
	wroteMember := len(bytes.TrimSpace(data)) > 2
	for _, name := range keys {
		value := extra[name]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		if wroteMember {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		wroteMember = true
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type workflowFields Workflow

// UnmarshalJSON decodes a workflow and keeps members this package does not
// model (versionId, meta, pinData, ...) in Extra.
func (w *Workflow) UnmarshalJSON(data []byte) error {
	var fields workflowFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return err
	}
	*w = Workflow(fields)
	w.Extra = extra
	return nil
}

// MarshalJSON encodes the modeled fields followed by Extra.
func (w Workflow) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(workflowFields(w), w.Extra)
}

type nodeFields Node

// UnmarshalJSON decodes a node and keeps unmodeled members in Extra.
func (n *Node) UnmarshalJSON(data []byte) error {
	var fields nodeFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return err
	}
	*n = Node(fields)
	n.Extra = extra
	return nil
}

// MarshalJSON encodes the modeled fields followed by Extra.
func (n Node) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(nodeFields(n), n.Extra)
}

type settingsFields Settings

func (s *Settings) UnmarshalJSON(data []byte) error {
	var fields settingsFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return err
	}
	*s = Settings(fields)
	s.Extra = extra
	return nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(settingsFields(s), s.Extra)
}

type summaryFields WorkflowSummary

func (s *WorkflowSummary) UnmarshalJSON(data []byte) error {
	var fields summaryFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return err
	}
	*s = WorkflowSummary(fields)
	s.Extra = extra
	return nil
}

func (s WorkflowSummary) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(summaryFields(s), s.Extra)
}
