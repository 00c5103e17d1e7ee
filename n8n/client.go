package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// APIKeyHeader carries the n8n API key on every request.
	APIKeyHeader = "X-N8N-API-KEY"

	tracerName      = "github.com/petal-labs/n8nmcp/n8n"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Config configures a Client. BaseURL and APIKey are required by the n8n
// API; the remaining fields are optional.
type Config struct {
	// BaseURL is the n8n public API root, e.g. https://n8n.example.com/api/v1.
	BaseURL string
	APIKey  string

	// HTTPClient overrides the shared pooled client.
	HTTPClient *http.Client
	// Timeout bounds each request when HTTPClient is nil. Defaults to 30s.
	Timeout time.Duration

	Tracer   trace.Tracer
	Observer RequestObserver
	Now      func() time.Time
}

// Client talks to the n8n public REST API. A Client holds one set of
// credentials and is cheap to construct; build one per request when
// credentials vary between callers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tracer     trace.Tracer
	observer   RequestObserver
	now        func() time.Time
}

// NewClient returns a client for cfg. A single trailing slash on BaseURL is
// removed.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = sharedHTTPClientPool.client(cfg.Timeout)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otelapi.Tracer(tracerName)
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopRequestObserver{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		tracer:     tracer,
		observer:   observer,
		now:        now,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthCheck probes the API with a one-item listing. It never fails; any
// error is reported in the result.
func (c *Client) HealthCheck(ctx context.Context) HealthCheckResult {
	result := HealthCheckResult{
		Status:  HealthOK,
		Message: "Successfully connected to n8n API",
		BaseURL: c.baseURL,
	}
	if err := c.request(ctx, "health_check", http.MethodGet, "/workflows?limit=1", nil, nil); err != nil {
		result.Status = HealthError
		result.Message = err.Error()
	}
	result.Timestamp = c.now().UTC().Format(timestampLayout)
	return result
}

// ListWorkflows returns one page of workflows matching opts.
func (c *Client) ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (WorkflowList, error) {
	params := url.Values{}
	if opts.Active != nil {
		params.Set("active", strconv.FormatBool(*opts.Active))
	}
	if opts.Tags != "" {
		params.Set("tags", opts.Tags)
	}
	if opts.Name != "" {
		params.Set("name", opts.Name)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		params.Set("cursor", opts.Cursor)
	}

	endpoint := "/workflows"
	if query := params.Encode(); query != "" {
		endpoint += "?" + query
	}

	var list WorkflowList
	if err := c.request(ctx, "list_workflows", http.MethodGet, endpoint, nil, &list); err != nil {
		return WorkflowList{}, err
	}
	return list, nil
}

// GetWorkflow fetches one workflow.
func (c *Client) GetWorkflow(ctx context.Context, id string) (Workflow, error) {
	var wf Workflow
	if err := c.request(ctx, "get_workflow", http.MethodGet, workflowPath(id), nil, &wf); err != nil {
		return Workflow{}, err
	}
	return wf, nil
}

// CreateWorkflow creates a workflow. n8n creates it inactive.
func (c *Client) CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) (Workflow, error) {
	var wf Workflow
	if err := c.request(ctx, "create_workflow", http.MethodPost, "/workflows", req, &wf); err != nil {
		return Workflow{}, err
	}
	return wf, nil
}

// UpdateWorkflow applies a partial update. The n8n update endpoint replaces
// the whole workflow, so the current document is read first and the update
// is merged over it before the PUT.
func (c *Client) UpdateWorkflow(ctx context.Context, id string, update UpdateWorkflowRequest) (Workflow, error) {
	var current map[string]json.RawMessage
	if err := c.request(ctx, "get_workflow", http.MethodGet, workflowPath(id), nil, &current); err != nil {
		return Workflow{}, err
	}

	merged, err := mergeWorkflow(current, update)
	if err != nil {
		return Workflow{}, &APIError{Message: fmt.Sprintf("n8n: merge update: %v", err), Cause: err}
	}

	var wf Workflow
	if err := c.request(ctx, "update_workflow", http.MethodPut, workflowPath(id), merged, &wf); err != nil {
		return Workflow{}, err
	}
	return wf, nil
}

// DeleteWorkflow deletes a workflow and returns it as echoed by n8n. When
// the service answers with an empty body only the ID is populated.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) (Workflow, error) {
	var wf Workflow
	if err := c.request(ctx, "delete_workflow", http.MethodDelete, workflowPath(id), nil, &wf); err != nil {
		return Workflow{}, err
	}
	if wf.ID == "" {
		wf.ID = id
	}
	return wf, nil
}

// ActivateWorkflow activates a workflow.
func (c *Client) ActivateWorkflow(ctx context.Context, id string) (Workflow, error) {
	var wf Workflow
	if err := c.request(ctx, "activate_workflow", http.MethodPost, workflowPath(id)+"/activate", nil, &wf); err != nil {
		return Workflow{}, err
	}
	return wf, nil
}

// DeactivateWorkflow deactivates a workflow.
func (c *Client) DeactivateWorkflow(ctx context.Context, id string) (Workflow, error) {
	var wf Workflow
	if err := c.request(ctx, "deactivate_workflow", http.MethodPost, workflowPath(id)+"/deactivate", nil, &wf); err != nil {
		return Workflow{}, err
	}
	return wf, nil
}

func workflowPath(id string) string {
	return "/workflows/" + url.PathEscape(id)
}

// request performs one authenticated call. out may be nil when the body is
// not needed; an empty success body leaves out untouched.
func (c *Client) request(ctx context.Context, operation, method, endpoint string, body any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "n8n."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("n8n.operation", operation),
			attribute.String("http.request.method", method),
		),
	)
	start := c.now()
	statusCode := 0
	defer func() {
		span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		c.observer.ObserveRequest(RequestObservation{
			Operation:  operation,
			Method:     method,
			StatusCode: statusCode,
			DurationMS: c.now().Sub(start).Milliseconds(),
			Success:    err == nil,
		})
	}()

	var reader io.Reader
	if body != nil {
		data, encodeErr := json.Marshal(body)
		if encodeErr != nil {
			return &APIError{Message: fmt.Sprintf("n8n: encode request: %v", encodeErr), Cause: encodeErr}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return newTransportError("n8n: build request", err)
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newTransportError("n8n API request failed", err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		readErr := newTransportError("n8n: read response", err)
		readErr.StatusCode = resp.StatusCode
		return readErr
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errBody apiErrorBody
		parsed := json.Unmarshal(raw, &errBody) == nil
		return newStatusError(resp.StatusCode, errBody, parsed)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("n8n: decode response: %v", err),
			Cause:      err,
		}
	}
	return nil
}
