package tool

import (
	"bytes"
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/petal-labs/n8nmcp/n8n"
)

var (
	saveDataModes   = []any{string(n8n.SaveDataAll), string(n8n.SaveDataNone)}
	executionOrders = []any{string(n8n.ExecutionOrderV0), string(n8n.ExecutionOrderV1)}
	onErrorModes    = []any{"stopWorkflow", "continueRegularOutput", "continueErrorOutput"}
)

// bindArgs validates raw against schema, decodes it into dst and runs the
// value rules of dst. All findings of the failing pass are reported together.
func bindArgs(schema *jsonschema.Schema, raw json.RawMessage, dst validation.Validatable) *ToolError {
	value, err := decodeArguments(raw)
	if err != nil {
		return Result{Diagnostics: []Diagnostic{{
			Code:     "INVALID_JSON",
			Severity: SeverityError,
			Message:  "arguments are not valid JSON: " + err.Error(),
		}}}.Err()
	}

	if diags := checkShape(schema, value, ""); len(diags) > 0 {
		return Result{Diagnostics: diags}.Err()
	}

	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return Result{Diagnostics: []Diagnostic{{
				Code:     "INVALID_VALUE",
				Severity: SeverityError,
				Message:  err.Error(),
			}}}.Err()
		}
	}

	if err := dst.Validate(); err != nil {
		return Result{Diagnostics: validationDiagnostics("", err)}.Err()
	}
	return nil
}

type noArgs struct{}

func (noArgs) Validate() error { return nil }

type listWorkflowsArgs struct {
	Active *bool   `json:"active"`
	Tags   *string `json:"tags"`
	Name   *string `json:"name"`
	Limit  *int    `json:"limit"`
	Cursor *string `json:"cursor"`
}

func (a listWorkflowsArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Limit, validation.By(minLimit)),
	)
}

// minLimit rejects a provided limit below 1. validation.Min treats 0 as
// empty and lets it through.
func minLimit(value any) error {
	limit, _ := value.(*int)
	if limit != nil && *limit < 1 {
		return validation.ErrMinGreaterEqualThanRequired.SetParams(map[string]any{"threshold": 1})
	}
	return nil
}

func (a listWorkflowsArgs) options() n8n.ListWorkflowsOptions {
	opts := n8n.ListWorkflowsOptions{Active: a.Active}
	if a.Tags != nil {
		opts.Tags = *a.Tags
	}
	if a.Name != nil {
		opts.Name = *a.Name
	}
	if a.Limit != nil {
		opts.Limit = *a.Limit
	}
	if a.Cursor != nil {
		opts.Cursor = *a.Cursor
	}
	return opts
}

type idArgs struct {
	ID string `json:"id"`
}

func (a idArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
	)
}

type toggleArgs struct {
	ID     string `json:"id"`
	Active *bool  `json:"active"`
}

func (a toggleArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Active, validation.NotNil),
	)
}

type nodeArgs struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	TypeVersion      float64        `json:"typeVersion"`
	Position         []float64      `json:"position"`
	Parameters       map[string]any `json:"parameters"`
	Credentials      map[string]any `json:"credentials"`
	Disabled         *bool          `json:"disabled"`
	Notes            string         `json:"notes"`
	ContinueOnFail   *bool          `json:"continueOnFail"`
	RetryOnFail      *bool          `json:"retryOnFail"`
	MaxTries         *int           `json:"maxTries"`
	WaitBetweenTries *int           `json:"waitBetweenTries"`
	OnError          string         `json:"onError"`
	WebhookID        string         `json:"webhookId"`

	// Extra carries node members without a declared property, such as
	// alwaysOutputData or executeOnce.
	Extra map[string]json.RawMessage `json:"-"`
}

func (n *nodeArgs) UnmarshalJSON(data []byte) error {
	type fields nodeArgs
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var node n8n.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return err
	}
	*n = nodeArgs(f)
	n.Extra = node.Extra
	return nil
}

func (n nodeArgs) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Name, validation.Required),
		validation.Field(&n.Type, validation.Required),
		validation.Field(&n.Position, validation.Required, validation.Length(2, 2)),
		validation.Field(&n.MaxTries, validation.Min(0)),
		validation.Field(&n.WaitBetweenTries, validation.Min(0)),
		validation.Field(&n.OnError, validation.In(onErrorModes...)),
	)
}

func (n nodeArgs) node() n8n.Node {
	params := n.Parameters
	if params == nil {
		params = map[string]any{}
	}
	var pos n8n.Position
	copy(pos[:], n.Position)
	return n8n.Node{
		ID:               n.ID,
		Name:             n.Name,
		Type:             n.Type,
		TypeVersion:      n.TypeVersion,
		Position:         pos,
		Parameters:       params,
		Credentials:      n.Credentials,
		Disabled:         n.Disabled,
		Notes:            n.Notes,
		ContinueOnFail:   n.ContinueOnFail,
		RetryOnFail:      n.RetryOnFail,
		MaxTries:         n.MaxTries,
		WaitBetweenTries: n.WaitBetweenTries,
		OnError:          n.OnError,
		WebhookID:        n.WebhookID,
		Extra:            n.Extra,
	}
}

// toNodes keeps nil distinct from empty so update presence survives.
func toNodes(in []nodeArgs) []n8n.Node {
	if in == nil {
		return nil
	}
	out := make([]n8n.Node, 0, len(in))
	for _, n := range in {
		out = append(out, n.node())
	}
	return out
}

type settingsArgs struct {
	SaveExecutionProgress    *bool  `json:"saveExecutionProgress"`
	SaveManualExecutions     *bool  `json:"saveManualExecutions"`
	SaveDataErrorExecution   string `json:"saveDataErrorExecution"`
	SaveDataSuccessExecution string `json:"saveDataSuccessExecution"`
	ExecutionTimeout         *int   `json:"executionTimeout"`
	Timezone                 string `json:"timezone"`
	ExecutionOrder           string `json:"executionOrder"`
	ErrorWorkflow            string `json:"errorWorkflow"`
}

func (s settingsArgs) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.SaveDataErrorExecution, validation.In(saveDataModes...)),
		validation.Field(&s.SaveDataSuccessExecution, validation.In(saveDataModes...)),
		validation.Field(&s.ExecutionOrder, validation.In(executionOrders...)),
		validation.Field(&s.ExecutionTimeout, validation.Min(-1)),
	)
}

func (s *settingsArgs) settings() *n8n.Settings {
	if s == nil {
		return nil
	}
	return &n8n.Settings{
		SaveExecutionProgress:    s.SaveExecutionProgress,
		SaveManualExecutions:     s.SaveManualExecutions,
		SaveDataErrorExecution:   n8n.SaveDataMode(s.SaveDataErrorExecution),
		SaveDataSuccessExecution: n8n.SaveDataMode(s.SaveDataSuccessExecution),
		ExecutionTimeout:         s.ExecutionTimeout,
		Timezone:                 s.Timezone,
		ExecutionOrder:           n8n.ExecutionOrder(s.ExecutionOrder),
		ErrorWorkflow:            s.ErrorWorkflow,
	}
}

type createWorkflowArgs struct {
	Name        string          `json:"name"`
	Nodes       []nodeArgs      `json:"nodes"`
	Connections n8n.Connections `json:"connections"`
	Settings    *settingsArgs   `json:"settings"`
	StaticData  json.RawMessage `json:"staticData"`
	Tags        []string        `json:"tags"`
}

func (a createWorkflowArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.Nodes, validation.NotNil),
		validation.Field(&a.Connections, validation.NotNil),
		validation.Field(&a.Settings),
		validation.Field(&a.Tags, validation.Each(validation.Required)),
	)
}

func (a createWorkflowArgs) request() n8n.CreateWorkflowRequest {
	connections := a.Connections
	if connections == nil {
		connections = n8n.Connections{}
	}
	nodes := toNodes(a.Nodes)
	if nodes == nil {
		nodes = []n8n.Node{}
	}
	return n8n.CreateWorkflowRequest{
		Name:        a.Name,
		Nodes:       nodes,
		Connections: connections,
		Settings:    a.Settings.settings(),
		StaticData:  a.StaticData,
		Tags:        a.Tags,
	}
}

type updateWorkflowArgs struct {
	ID          string          `json:"id"`
	Name        *string         `json:"name"`
	Nodes       []nodeArgs      `json:"nodes"`
	Connections n8n.Connections `json:"connections"`
	Settings    *settingsArgs   `json:"settings"`
	StaticData  json.RawMessage `json:"staticData"`
	Tags        []string        `json:"tags"`
}

func (a updateWorkflowArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Name, validation.NilOrNotEmpty),
		validation.Field(&a.Nodes),
		validation.Field(&a.Settings),
		validation.Field(&a.Tags, validation.Each(validation.Required)),
	)
}

func (a updateWorkflowArgs) request() n8n.UpdateWorkflowRequest {
	return n8n.UpdateWorkflowRequest{
		Name:        a.Name,
		Nodes:       toNodes(a.Nodes),
		Connections: a.Connections,
		Settings:    a.Settings.settings(),
		StaticData:  a.StaticData,
		Tags:        a.Tags,
	}
}
