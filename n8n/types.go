package n8n

import "encoding/json"

// SaveDataMode controls whether execution data is persisted by n8n.
type SaveDataMode string

const (
	SaveDataAll  SaveDataMode = "all"
	SaveDataNone SaveDataMode = "none"
)

// ExecutionOrder selects the n8n execution ordering algorithm.
type ExecutionOrder string

const (
	ExecutionOrderV0 ExecutionOrder = "v0"
	ExecutionOrderV1 ExecutionOrder = "v1"
)

// ConnectionTypeMain is the connection type used by regular data outputs.
const ConnectionTypeMain = "main"

// Workflow is the full n8n workflow resource.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Active      bool            `json:"active"`
	Nodes       []Node          `json:"nodes"`
	Connections Connections     `json:"connections"`
	Settings    *Settings       `json:"settings,omitempty"`
	StaticData  json.RawMessage `json:"staticData,omitempty"`
	Tags        []Tag           `json:"tags,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`

	// Extra holds members returned by n8n that are not modeled above. They
	// are written back out unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// Node is one step of a workflow graph. The optional flags are pointers so an
// explicit false or 0 is sent as given.
type Node struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	TypeVersion      float64        `json:"typeVersion"`
	Position         Position       `json:"position"`
	Parameters       map[string]any `json:"parameters"`
	Credentials      map[string]any `json:"credentials,omitempty"`
	Disabled         *bool          `json:"disabled,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	ContinueOnFail   *bool          `json:"continueOnFail,omitempty"`
	RetryOnFail      *bool          `json:"retryOnFail,omitempty"`
	MaxTries         *int           `json:"maxTries,omitempty"`
	WaitBetweenTries *int           `json:"waitBetweenTries,omitempty"`
	OnError          string         `json:"onError,omitempty"`
	WebhookID        string         `json:"webhookId,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Position is the [x, y] canvas coordinate of a node.
type Position [2]float64

// Connection is one edge target: the downstream node name, the connection
// type and the input index on that node.
type Connection struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// NodeOutputs maps a connection type ("main", "ai_tool", ...) to the
// per-output-port lists of downstream targets.
type NodeOutputs map[string][][]Connection

// Main returns the "main" output ports.
func (o NodeOutputs) Main() [][]Connection {
	return o[ConnectionTypeMain]
}

// Connections maps a source node name to its outputs.
type Connections map[string]NodeOutputs

// Targets returns every downstream node name reachable from source over the
// main connection type, in port order.
func (c Connections) Targets(source string) []string {
	outputs, ok := c[source]
	if !ok {
		return nil
	}
	var names []string
	for _, port := range outputs.Main() {
		for _, conn := range port {
			names = append(names, conn.Node)
		}
	}
	return names
}

// Settings holds optional execution behavior flags.
type Settings struct {
	SaveExecutionProgress    *bool          `json:"saveExecutionProgress,omitempty"`
	SaveManualExecutions     *bool          `json:"saveManualExecutions,omitempty"`
	SaveDataErrorExecution   SaveDataMode   `json:"saveDataErrorExecution,omitempty"`
	SaveDataSuccessExecution SaveDataMode   `json:"saveDataSuccessExecution,omitempty"`
	ExecutionTimeout         *int           `json:"executionTimeout,omitempty"`
	Timezone                 string         `json:"timezone,omitempty"`
	ExecutionOrder           ExecutionOrder `json:"executionOrder,omitempty"`
	ErrorWorkflow            string         `json:"errorWorkflow,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Tag is a workflow label. Tags are read-only from this client's side.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkflowSummary is one entry of a workflow listing.
type WorkflowSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Tags      []Tag  `json:"tags,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// WorkflowList is one page of workflows.
type WorkflowList struct {
	Data       []WorkflowSummary `json:"data"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// ListWorkflowsOptions filters a workflow listing. Zero values are not sent.
type ListWorkflowsOptions struct {
	Active *bool
	Tags   string
	Name   string
	Limit  int
	Cursor string
}

// CreateWorkflowRequest is the body of POST /workflows.
type CreateWorkflowRequest struct {
	Name        string          `json:"name"`
	Nodes       []Node          `json:"nodes"`
	Connections Connections     `json:"connections"`
	Settings    *Settings       `json:"settings,omitempty"`
	StaticData  json.RawMessage `json:"staticData,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// UpdateWorkflowRequest is a partial update. A nil field is "not provided"
// and keeps the current value; a non-nil empty slice or map is applied as-is.
type UpdateWorkflowRequest struct {
	Name        *string
	Nodes       []Node
	Connections Connections
	Settings    *Settings
	StaticData  json.RawMessage
	Tags        []string
}

// HealthStatus is the outcome of a connectivity probe.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthError HealthStatus = "error"
)

// HealthCheckResult reports n8n API reachability.
type HealthCheckResult struct {
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message"`
	BaseURL   string       `json:"baseUrl"`
	Timestamp string       `json:"timestamp"`
}

// apiErrorBody is the n8n error payload. code is a string on some
// endpoints and a number on others.
type apiErrorBody struct {
	Message     string `json:"message"`
	Code        any    `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}
