package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/petal-labs/n8nmcp/n8n"
)

// WorkflowClient is the n8n API surface the tools call. *n8n.Client
// satisfies it.
type WorkflowClient interface {
	HealthCheck(ctx context.Context) n8n.HealthCheckResult
	ListWorkflows(ctx context.Context, opts n8n.ListWorkflowsOptions) (n8n.WorkflowList, error)
	GetWorkflow(ctx context.Context, id string) (n8n.Workflow, error)
	CreateWorkflow(ctx context.Context, req n8n.CreateWorkflowRequest) (n8n.Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, update n8n.UpdateWorkflowRequest) (n8n.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) (n8n.Workflow, error)
	ActivateWorkflow(ctx context.Context, id string) (n8n.Workflow, error)
	DeactivateWorkflow(ctx context.Context, id string) (n8n.Workflow, error)
}

var _ WorkflowClient = (*n8n.Client)(nil)

type runFunc func(ctx context.Context, def Definition, raw json.RawMessage) (any, error)

type toolEntry struct {
	def Definition
	run runFunc
}

// Toolset maps the seven workflow tools onto a WorkflowClient.
type Toolset struct {
	client  WorkflowClient
	entries []toolEntry
	index   map[string]int
	now     func() time.Time
}

// NewToolset binds the tool declarations to client.
func NewToolset(client WorkflowClient) *Toolset {
	t := &Toolset{
		client: client,
		index:  map[string]int{},
		now:    time.Now,
	}
	runs := map[string]runFunc{
		NameHealthCheck:    t.healthCheck,
		NameListWorkflows:  t.listWorkflows,
		NameGetWorkflow:    t.getWorkflow,
		NameCreateWorkflow: t.createWorkflow,
		NameUpdateWorkflow: t.updateWorkflow,
		NameDeleteWorkflow: t.deleteWorkflow,
		NameToggleWorkflow: t.toggleWorkflow,
	}
	for _, def := range definitions() {
		t.index[def.Name] = len(t.entries)
		t.entries = append(t.entries, toolEntry{def: def, run: runs[def.Name]})
	}
	return t
}

// Definitions returns the tool declarations in declaration order.
func (t *Toolset) Definitions() []Definition {
	out := make([]Definition, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry.def)
	}
	return out
}

// Names returns the tool names in declaration order.
func (t *Toolset) Names() []string {
	out := make([]string, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry.def.Name)
	}
	return out
}

// Call validates args, runs the named tool and renders its outcome. The
// Response is always usable; the returned error is the *ToolError behind an
// IsError response and nil otherwise.
func (t *Toolset) Call(ctx context.Context, name string, args json.RawMessage) (Response, error) {
	start := t.now()

	var (
		result  any
		toolErr *ToolError
	)
	if i, ok := t.index[name]; ok {
		entry := t.entries[i]
		out, err := entry.run(ctx, entry.def, args)
		if err != nil {
			toolErr = toolErrorFrom(err)
		} else {
			result = out
		}
	} else {
		toolErr = newToolError(ToolErrorCodeUnknownTool, fmt.Sprintf("unknown tool %q", name), nil)
	}

	var resp Response
	if toolErr == nil {
		resp, toolErr = successResponse(result)
	}
	if toolErr != nil {
		resp = errorResponse(toolErr)
	}

	observation := ToolInvokeObservation{
		ToolName:   name,
		DurationMS: t.now().Sub(start).Milliseconds(),
		Success:    toolErr == nil,
	}
	if toolErr != nil {
		observation.ErrorCode = toolErr.Code
		var apiErr *n8n.APIError
		if errors.As(toolErr, &apiErr) {
			observation.N8NStatus = apiErr.StatusCode
		}
	}
	emitInvokeObservation(observation)

	if toolErr != nil {
		return resp, toolErr
	}
	return resp, nil
}

func (t *Toolset) healthCheck(ctx context.Context, def Definition, raw json.RawMessage) (any, error) {
	var args noArgs
	if err := bindArgs(def.InputSchema, raw, &args); err != nil {
		return nil, err
	}
	return t.client.HealthCheck(ctx), nil
}

func (t *Toolset) listWorkflows(ctx context.Context, def Definition, raw json.RawMessage) (any, error) {
	var args listWorkflowsArgs
	if err := bindArgs(def.InputSchema, raw, &args); err != nil {
		return nil, err
	}
	return t.client.ListWorkflows(ctx, args.options())
}

func (t *Toolset) getWorkflow(ctx context.Context, def Definition, raw json.RawMessage) (any, error) {
	var args idArgs
	if err := bindArgs(def.InputSchema, raw, &args); err != nil {
		return nil, err
	}
	return t.client.GetWorkflow(ctx, args.ID)
}

func (t *Toolset) createWorkflow(ctx context.Context, def Definition, raw json.RawMessage) (any, error) {
	var args createWorkflowArgs
	if err := bindArgs(def.InputSchema, raw, &args); err != nil {
		return nil, err
	}
	return t.client.CreateWorkflow(ctx, args.request())
}

func (t *Toolset) updateWorkflow(ctx context.Context, def Definition, raw json.RawMessage) (any, error) {
	var args updateWorkflowArgs
	if err := bindArgs(def.InputSchema, raw, &args); err != nil {
		return nil, err
	}
	return t.client.UpdateWorkflow(ctx, args.ID, args.request())
}

func (t *Toolset) deleteWorkflow(ctx context.Context, def Definition, raw json.RawMessage) (any, error) {
	var args idArgs
	if err := bindArgs(def.InputSchema, raw, &args); err != nil {
		return nil, err
	}
	wf, err := t.client.DeleteWorkflow(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	return deleteResult{
		Success:         true,
		Message:         deletedMessage(wf),
		DeletedWorkflow: wf,
	}, nil
}

func (t *Toolset) toggleWorkflow(ctx context.Context, def Definition, raw json.RawMessage) (any, error) {
	var args toggleArgs
	if err := bindArgs(def.InputSchema, raw, &args); err != nil {
		return nil, err
	}

	var (
		wf  n8n.Workflow
		err error
	)
	if *args.Active {
		wf, err = t.client.ActivateWorkflow(ctx, args.ID)
	} else {
		wf, err = t.client.DeactivateWorkflow(ctx, args.ID)
	}
	if err != nil {
		return nil, err
	}

	state := "inactive"
	if wf.Active {
		state = "active"
	}
	return toggleResult{
		Success:  true,
		Message:  fmt.Sprintf("Workflow \"%s\" is now %s.", wf.Name, state),
		Workflow: wf,
	}, nil
}

func deletedMessage(wf n8n.Workflow) string {
	if wf.Name == "" {
		return fmt.Sprintf("Workflow (%s) has been deleted.", wf.ID)
	}
	return fmt.Sprintf("Workflow \"%s\" (%s) has been deleted.", wf.Name, wf.ID)
}
