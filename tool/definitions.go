package tool

import "github.com/google/jsonschema-go/jsonschema"

// Tool names.
const (
	NameHealthCheck    = "health_check"
	NameListWorkflows  = "list_workflows"
	NameGetWorkflow    = "get_workflow"
	NameCreateWorkflow = "create_workflow"
	NameUpdateWorkflow = "update_workflow"
	NameDeleteWorkflow = "delete_workflow"
	NameToggleWorkflow = "toggle_workflow"
)

// Definition describes one tool as published to MCP clients.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

func nodeSchema() *jsonschema.Schema {
	return objectSchema("", map[string]*jsonschema.Schema{
		"id":               stringSchema("Unique node ID"),
		"name":             stringSchema("Display name of the node"),
		"type":             stringSchema("Node type (e.g., n8n-nodes-base.httpRequest)"),
		"typeVersion":      numberSchema("Version of the node type"),
		"position":         fixedArraySchema("Position [x, y]", numberSchema(""), 2),
		"parameters":       objectSchema("Node parameters", nil),
		"credentials":      objectSchema("Credentials configuration", nil),
		"disabled":         booleanSchema("Whether the node is disabled"),
		"notes":            stringSchema("Notes shown on the node"),
		"continueOnFail":   booleanSchema("Continue the workflow when this node fails"),
		"retryOnFail":      booleanSchema("Retry the node when it fails"),
		"maxTries":         integerSchema("Maximum number of tries when retryOnFail is set"),
		"waitBetweenTries": integerSchema("Milliseconds to wait between tries"),
		"onError":          enumSchema("Error handling mode", "stopWorkflow", "continueRegularOutput", "continueErrorOutput"),
		"webhookId":        stringSchema("Webhook ID of trigger nodes"),
	}, "id", "name", "type", "typeVersion", "position", "parameters")
}

func connectionsSchema(description string) *jsonschema.Schema {
	target := objectSchema("", map[string]*jsonschema.Schema{
		"node":  stringSchema("Target node name"),
		"type":  stringSchema("Connection type"),
		"index": integerSchema("Target input index"),
	}, "node", "type", "index")
	ports := arraySchema("", arraySchema("", target))
	return mapSchema(description, mapSchema("", ports))
}

func settingsSchema(description string) *jsonschema.Schema {
	return objectSchema(description, map[string]*jsonschema.Schema{
		"saveExecutionProgress":    booleanSchema(""),
		"saveManualExecutions":     booleanSchema(""),
		"saveDataErrorExecution":   enumSchema("", "all", "none"),
		"saveDataSuccessExecution": enumSchema("", "all", "none"),
		"executionTimeout":         integerSchema("Execution timeout in seconds, -1 for none"),
		"timezone":                 stringSchema(""),
		"executionOrder":           enumSchema("", "v0", "v1"),
		"errorWorkflow":            stringSchema("ID of the workflow to run on error"),
	})
}

func definitions() []Definition {
	return []Definition{
		{
			Name:        NameHealthCheck,
			Description: "Check n8n API connectivity and status",
			InputSchema: objectSchema("", nil),
		},
		{
			Name:        NameListWorkflows,
			Description: "List all workflows from n8n. Optionally filter by active status, tags, or name.",
			InputSchema: objectSchema("", map[string]*jsonschema.Schema{
				"active": booleanSchema("Filter by active status"),
				"tags":   stringSchema("Filter by tags (comma-separated)"),
				"name":   stringSchema("Filter by workflow name"),
				"limit":  integerSchema("Maximum number of workflows to return"),
				"cursor": stringSchema("Pagination cursor"),
			}),
		},
		{
			Name:        NameGetWorkflow,
			Description: "Get a specific workflow by ID, including all nodes, connections, and settings.",
			InputSchema: objectSchema("", map[string]*jsonschema.Schema{
				"id": stringSchema("The workflow ID"),
			}, "id"),
		},
		{
			Name:        NameCreateWorkflow,
			Description: "Create a new workflow in n8n. The workflow will be created in inactive state.",
			InputSchema: objectSchema("", map[string]*jsonschema.Schema{
				"name":        stringSchema("Name of the workflow"),
				"nodes":       arraySchema("Array of workflow nodes", nodeSchema()),
				"connections": connectionsSchema("Connections between nodes"),
				"settings":    settingsSchema("Workflow settings"),
				"staticData":  objectSchema("Static data persisted between executions", nil),
				"tags":        arraySchema("Tag names", stringSchema("")),
			}, "name", "nodes", "connections"),
		},
		{
			Name:        NameUpdateWorkflow,
			Description: "Update an existing workflow. You can update name, nodes, connections, or settings.",
			InputSchema: objectSchema("", map[string]*jsonschema.Schema{
				"id":          stringSchema("The workflow ID to update"),
				"name":        stringSchema("New name for the workflow"),
				"nodes":       arraySchema("Updated array of workflow nodes", nodeSchema()),
				"connections": connectionsSchema("Updated connections between nodes"),
				"settings":    settingsSchema("Updated workflow settings"),
				"staticData":  objectSchema("Updated static data", nil),
				"tags":        arraySchema("Updated tag names", stringSchema("")),
			}, "id"),
		},
		{
			Name:        NameDeleteWorkflow,
			Description: "Permanently delete a workflow. This action cannot be undone.",
			InputSchema: objectSchema("", map[string]*jsonschema.Schema{
				"id": stringSchema("The workflow ID to delete"),
			}, "id"),
		},
		{
			Name:        NameToggleWorkflow,
			Description: "Activate or deactivate a workflow.",
			InputSchema: objectSchema("", map[string]*jsonschema.Schema{
				"id":     stringSchema("The workflow ID"),
				"active": booleanSchema("Set to true to activate, false to deactivate"),
			}, "id", "active"),
		},
	}
}
