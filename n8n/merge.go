package n8n

import (
	"encoding/json"
	"fmt"
)

// mergeWorkflow overlays the provided fields of update onto the current
// workflow document. Keys of current that update does not touch are kept
// byte-for-byte, including fields this package does not model. nodes and
// connections fall back to the current value only when the update leaves
// them nil; empty values are applied.
func mergeWorkflow(current map[string]json.RawMessage, update UpdateWorkflowRequest) (map[string]json.RawMessage, error) {
	merged := make(map[string]json.RawMessage, len(current)+6)
	for key, value := range current {
		merged[key] = value
	}

	set := func(key string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		merged[key] = data
		return nil
	}

	if update.Name != nil {
		if err := set("name", *update.Name); err != nil {
			return nil, err
		}
	}
	if update.Nodes != nil {
		if err := set("nodes", update.Nodes); err != nil {
			return nil, err
		}
	}
	if update.Connections != nil {
		if err := set("connections", update.Connections); err != nil {
			return nil, err
		}
	}
	if update.Settings != nil {
		if err := set("settings", update.Settings); err != nil {
			return nil, err
		}
	}
	if update.StaticData != nil {
		if !json.Valid(update.StaticData) {
			return nil, fmt.Errorf("encode staticData: invalid JSON")
		}
		merged["staticData"] = update.StaticData
	}
	if update.Tags != nil {
		if err := set("tags", update.Tags); err != nil {
			return nil, err
		}
	}
	return merged, nil
}
