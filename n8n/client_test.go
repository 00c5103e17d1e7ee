package n8n

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	APIKey      string
	ContentType string
	Accept      string
	Body        []byte
}

type fakeN8N struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body []byte)
}

func (f *fakeN8N) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		RawQuery:    r.URL.RawQuery,
		APIKey:      r.Header.Get(APIKeyHeader),
		ContentType: r.Header.Get("Content-Type"),
		Accept:      r.Header.Get("Accept"),
		Body:        body,
	})
	f.mu.Unlock()
	f.handler(w, r, body)
}

func (f *fakeN8N) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newFakeN8N(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) (*fakeN8N, *Client) {
	t.Helper()
	fake := &fakeN8N{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := NewClient(Config{
		BaseURL:    srv.URL + "/api/v1/",
		APIKey:     "secret-key",
		HTTPClient: srv.Client(),
	})
	return fake, client
}

func writeJSONBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClientStripsTrailingSlash(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://n8n.local/api/v1/", APIKey: "k"})
	if got := client.BaseURL(); got != "http://n8n.local/api/v1" {
		t.Fatalf("BaseURL() = %q, want without trailing slash", got)
	}
}

func TestGetWorkflowSendsAuthAndDecodes(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusOK, `{
			"id":"wf-1","name":"Demo","active":true,
			"nodes":[{"id":"n1","name":"Start","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[250,300],"parameters":{}}],
			"connections":{"Start":{"main":[[{"node":"Set","type":"main","index":0}]]}}
		}`)
	})

	wf, err := client.GetWorkflow(context.Background(), "wf-1")
	if err != nil {
		t.Fatalf("GetWorkflow() error = %v", err)
	}
	if wf.ID != "wf-1" || wf.Name != "Demo" || !wf.Active {
		t.Fatalf("workflow = %+v", wf)
	}
	if len(wf.Nodes) != 1 || wf.Nodes[0].Position != (Position{250, 300}) {
		t.Fatalf("nodes = %+v", wf.Nodes)
	}
	if got := wf.Connections.Targets("Start"); len(got) != 1 || got[0] != "Set" {
		t.Fatalf("Targets(Start) = %v, want [Set]", got)
	}

	reqs := fake.recorded()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Method != http.MethodGet || req.Path != "/api/v1/workflows/wf-1" {
		t.Fatalf("request = %s %s", req.Method, req.Path)
	}
	if req.APIKey != "secret-key" {
		t.Fatalf("api key header = %q", req.APIKey)
	}
	if req.Accept != "application/json" {
		t.Fatalf("accept = %q", req.Accept)
	}
	if req.ContentType != "" {
		t.Fatalf("content-type = %q, want empty for bodiless request", req.ContentType)
	}
}

func TestGetWorkflowNotFoundUsesServiceMessage(t *testing.T) {
	_, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusNotFound, `{"message":"Workflow not found"}`)
	})

	_, err := client.GetWorkflow(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetWorkflow() error = nil, want error")
	}
	if err.Error() != "Workflow not found" {
		t.Fatalf("error = %q, want %q", err.Error(), "Workflow not found")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %#v, want *APIError with status 404", err)
	}
	if !IsNotFound(err) {
		t.Fatal("IsNotFound() = false, want true")
	}
}

func TestStatusErrorWithoutMessageFallsBackToStatusText(t *testing.T) {
	_, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := client.GetWorkflow(context.Background(), "wf-1")
	if err == nil || err.Error() != "n8n API error: 502 Bad Gateway" {
		t.Fatalf("error = %v, want generic status message", err)
	}
}

func TestStatusErrorNumericCode(t *testing.T) {
	_, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusUnauthorized, `{"code":401,"message":"unauthorized"}`)
	})

	_, err := client.ListWorkflows(context.Background(), ListWorkflowsOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != "unauthorized" || apiErr.Code != "401" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestListWorkflowsQuery(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusOK, `{"data":[{"id":"1","name":"A","active":false}],"nextCursor":"abc"}`)
	})

	list, err := client.ListWorkflows(context.Background(), ListWorkflowsOptions{})
	if err != nil {
		t.Fatalf("ListWorkflows() error = %v", err)
	}
	if len(list.Data) != 1 || list.NextCursor != "abc" {
		t.Fatalf("list = %+v", list)
	}

	active := false
	if _, err := client.ListWorkflows(context.Background(), ListWorkflowsOptions{
		Active: &active,
		Tags:   "prod,ops",
		Limit:  10,
	}); err != nil {
		t.Fatalf("ListWorkflows() error = %v", err)
	}

	reqs := fake.recorded()
	if reqs[0].RawQuery != "" {
		t.Fatalf("unfiltered query = %q, want empty", reqs[0].RawQuery)
	}
	if got, want := reqs[1].RawQuery, "active=false&limit=10&tags=prod%2Cops"; got != want {
		t.Fatalf("filtered query = %q, want %q", got, want)
	}
}

func TestCreateWorkflowSendsBody(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusOK, `{"id":"new-1","name":"Created","active":false,"nodes":[],"connections":{}}`)
	})

	wf, err := client.CreateWorkflow(context.Background(), CreateWorkflowRequest{
		Name:        "Created",
		Nodes:       []Node{},
		Connections: Connections{},
	})
	if err != nil {
		t.Fatalf("CreateWorkflow() error = %v", err)
	}
	if wf.ID != "new-1" {
		t.Fatalf("ID = %q, want new-1", wf.ID)
	}

	req := fake.recorded()[0]
	if req.Method != http.MethodPost || req.Path != "/api/v1/workflows" {
		t.Fatalf("request = %s %s", req.Method, req.Path)
	}
	if req.ContentType != "application/json" {
		t.Fatalf("content-type = %q", req.ContentType)
	}
	var sent map[string]any
	if err := json.Unmarshal(req.Body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent["name"] != "Created" {
		t.Fatalf("sent name = %v", sent["name"])
	}
	if _, ok := sent["settings"]; ok {
		t.Fatal("settings sent although not provided")
	}
}

// sameJSON reports whether a and b decode to the same value.
func sameJSON(t *testing.T, a, b []byte) bool {
	t.Helper()
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		t.Fatalf("decode %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return reflect.DeepEqual(av, bv)
}

const fullWorkflowJSON = `{
	"id":"abc","name":"wf","active":false,"versionId":"v-123",
	"meta":{"templateCredsSetupCompleted":true},
	"pinData":{},
	"nodes":[{"id":"n1","name":"Start","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[0,0],"parameters":{},"alwaysOutputData":true,"executeOnce":true}],
	"connections":{},
	"settings":{"executionOrder":"v1","callerPolicy":"workflowsFromSameOwner"}
}`

func TestWorkflowReadsKeepUnmodeledFields(t *testing.T) {
	_, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusOK, fullWorkflowJSON)
	})

	reads := map[string]func() (Workflow, error){
		"get":        func() (Workflow, error) { return client.GetWorkflow(context.Background(), "abc") },
		"delete":     func() (Workflow, error) { return client.DeleteWorkflow(context.Background(), "abc") },
		"activate":   func() (Workflow, error) { return client.ActivateWorkflow(context.Background(), "abc") },
		"deactivate": func() (Workflow, error) { return client.DeactivateWorkflow(context.Background(), "abc") },
		"create": func() (Workflow, error) {
			return client.CreateWorkflow(context.Background(), CreateWorkflowRequest{Name: "wf", Nodes: []Node{}, Connections: Connections{}})
		},
	}
	for name, read := range reads {
		t.Run(name, func(t *testing.T) {
			wf, err := read()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if string(wf.Extra["versionId"]) != `"v-123"` {
				t.Fatalf("Extra = %v, want versionId", wf.Extra)
			}
			out, err := json.Marshal(wf)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !sameJSON(t, out, []byte(fullWorkflowJSON)) {
				t.Fatalf("re-encoded = %s\nwant %s", out, fullWorkflowJSON)
			}
		})
	}
}

func TestCreateWorkflowSendsNodesAsGiven(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, body []byte) {
		writeJSONBody(w, http.StatusOK, string(body))
	})

	const nodesJSON = `[{"id":"n1","name":"Start","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[250,300],"parameters":{},
		"disabled":false,"continueOnFail":false,"retryOnFail":false,"maxTries":0,"waitBetweenTries":0,"executeOnce":true},
		{"id":"n2","name":"Set","type":"n8n-nodes-base.set","typeVersion":3.4,"position":[450,300],"parameters":{"mode":"manual"},
		"credentials":{"httpBasicAuth":{"id":"7","name":"basic"}},"notes":"fill fields","onError":"continueRegularOutput"}]`
	const connectionsJSON = `{"Start":{"main":[[{"node":"Set","type":"main","index":0}]]}}`

	var nodes []Node
	if err := json.Unmarshal([]byte(nodesJSON), &nodes); err != nil {
		t.Fatalf("decode nodes: %v", err)
	}
	var connections Connections
	if err := json.Unmarshal([]byte(connectionsJSON), &connections); err != nil {
		t.Fatalf("decode connections: %v", err)
	}
	if _, err := client.CreateWorkflow(context.Background(), CreateWorkflowRequest{
		Name:        "Copy",
		Nodes:       nodes,
		Connections: connections,
	}); err != nil {
		t.Fatalf("CreateWorkflow() error = %v", err)
	}

	var sent struct {
		Nodes       json.RawMessage `json:"nodes"`
		Connections json.RawMessage `json:"connections"`
	}
	if err := json.Unmarshal(fake.recorded()[0].Body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if !sameJSON(t, sent.Nodes, []byte(nodesJSON)) {
		t.Fatalf("sent nodes = %s\nwant %s", sent.Nodes, nodesJSON)
	}
	if !sameJSON(t, sent.Connections, []byte(connectionsJSON)) {
		t.Fatalf("sent connections = %s\nwant %s", sent.Connections, connectionsJSON)
	}
}

const currentWorkflowJSON = `{
	"id":"wf-1","name":"Old","active":true,
	"nodes":[{"id":"n1","name":"Start","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[0,0],"parameters":{}}],
	"connections":{"Start":{"main":[[{"node":"Next","type":"main","index":0}]]}},
	"settings":{"timezone":"UTC"},
	"pinData":{"Start":[{"json":{"x":1}}]}
}`

func TestUpdateWorkflowMergesOverCurrent(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		if r.Method == http.MethodGet {
			writeJSONBody(w, http.StatusOK, currentWorkflowJSON)
			return
		}
		writeJSONBody(w, http.StatusOK, string(body))
	})

	name := "New"
	wf, err := client.UpdateWorkflow(context.Background(), "wf-1", UpdateWorkflowRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateWorkflow() error = %v", err)
	}
	if wf.Name != "New" {
		t.Fatalf("Name = %q, want New", wf.Name)
	}
	if _, ok := wf.Extra["pinData"]; !ok {
		t.Fatalf("Extra = %v, want pinData from the PUT reply", wf.Extra)
	}

	reqs := fake.recorded()
	if len(reqs) != 2 || reqs[0].Method != http.MethodGet || reqs[1].Method != http.MethodPut {
		t.Fatalf("requests = %+v, want GET then PUT", reqs)
	}

	var sent map[string]json.RawMessage
	if err := json.Unmarshal(reqs[1].Body, &sent); err != nil {
		t.Fatalf("decode PUT body: %v", err)
	}
	var current map[string]json.RawMessage
	if err := json.Unmarshal([]byte(currentWorkflowJSON), &current); err != nil {
		t.Fatalf("decode current: %v", err)
	}
	for _, key := range []string{"nodes", "connections", "settings", "pinData"} {
		if string(sent[key]) != string(current[key]) {
			t.Fatalf("PUT %s = %s, want unchanged %s", key, sent[key], current[key])
		}
	}
	if string(sent["name"]) != `"New"` {
		t.Fatalf("PUT name = %s", sent["name"])
	}
}

func TestUpdateWorkflowAppliesExplicitEmptyValues(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		if r.Method == http.MethodGet {
			writeJSONBody(w, http.StatusOK, currentWorkflowJSON)
			return
		}
		writeJSONBody(w, http.StatusOK, string(body))
	})

	wf, err := client.UpdateWorkflow(context.Background(), "wf-1", UpdateWorkflowRequest{
		Nodes:       []Node{},
		Connections: Connections{},
	})
	if err != nil {
		t.Fatalf("UpdateWorkflow() error = %v", err)
	}
	if len(wf.Nodes) != 0 || len(wf.Connections) != 0 {
		t.Fatalf("workflow = %+v, want empty nodes and connections", wf)
	}

	var sent map[string]json.RawMessage
	if err := json.Unmarshal(fake.recorded()[1].Body, &sent); err != nil {
		t.Fatalf("decode PUT body: %v", err)
	}
	if string(sent["nodes"]) != "[]" || string(sent["connections"]) != "{}" {
		t.Fatalf("PUT nodes=%s connections=%s, want [] and {}", sent["nodes"], sent["connections"])
	}
	if string(sent["name"]) != `"Old"` {
		t.Fatalf("PUT name = %s, want current name", sent["name"])
	}
}

func TestUpdateWorkflowStopsWhenFetchFails(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusNotFound, `{"message":"Workflow not found"}`)
	})

	name := "x"
	_, err := client.UpdateWorkflow(context.Background(), "nope", UpdateWorkflowRequest{Name: &name})
	if err == nil || err.Error() != "Workflow not found" {
		t.Fatalf("error = %v", err)
	}
	if n := len(fake.recorded()); n != 1 {
		t.Fatalf("requests = %d, want 1 (no PUT)", n)
	}
}

func TestDeleteWorkflowEmptyBody(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(http.StatusOK)
	})

	wf, err := client.DeleteWorkflow(context.Background(), "wf 9")
	if err != nil {
		t.Fatalf("DeleteWorkflow() error = %v", err)
	}
	if wf.ID != "wf 9" || wf.Name != "" {
		t.Fatalf("workflow = %+v, want ID only", wf)
	}
	if req := fake.recorded()[0]; req.Method != http.MethodDelete || req.Path != "/api/v1/workflows/wf 9" {
		t.Fatalf("request = %s %s", req.Method, req.Path)
	}
}

func TestActivateAndDeactivate(t *testing.T) {
	fake, client := newFakeN8N(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		active := strings.HasSuffix(r.URL.Path, "/activate")
		if active {
			writeJSONBody(w, http.StatusOK, `{"id":"wf-1","name":"Demo","active":true}`)
			return
		}
		writeJSONBody(w, http.StatusOK, `{"id":"wf-1","name":"Demo","active":false}`)
	})

	on, err := client.ActivateWorkflow(context.Background(), "wf-1")
	if err != nil || !on.Active {
		t.Fatalf("ActivateWorkflow() = %+v, %v", on, err)
	}
	off, err := client.DeactivateWorkflow(context.Background(), "wf-1")
	if err != nil || off.Active {
		t.Fatalf("DeactivateWorkflow() = %+v, %v", off, err)
	}

	reqs := fake.recorded()
	if reqs[0].Method != http.MethodPost || reqs[0].Path != "/api/v1/workflows/wf-1/activate" {
		t.Fatalf("activate request = %s %s", reqs[0].Method, reqs[0].Path)
	}
	if reqs[1].Path != "/api/v1/workflows/wf-1/deactivate" {
		t.Fatalf("deactivate path = %s", reqs[1].Path)
	}
	if reqs[0].ContentType != "" {
		t.Fatalf("activate content-type = %q, want empty", reqs[0].ContentType)
	}
}

func TestHealthCheck(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	t.Run("ok", func(t *testing.T) {
		fake := &fakeN8N{handler: func(w http.ResponseWriter, _ *http.Request, _ []byte) {
			writeJSONBody(w, http.StatusOK, `{"data":[]}`)
		}}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Now: func() time.Time { return fixed }})
		result := client.HealthCheck(context.Background())
		if result.Status != HealthOK || result.Message != "Successfully connected to n8n API" {
			t.Fatalf("result = %+v", result)
		}
		if result.Timestamp != "2025-01-02T03:04:05.006Z" {
			t.Fatalf("Timestamp = %q", result.Timestamp)
		}
		if req := fake.recorded()[0]; req.Path != "/workflows" || req.RawQuery != "limit=1" {
			t.Fatalf("probe = %s?%s", req.Path, req.RawQuery)
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		result := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}).HealthCheck(context.Background())
		if result.Status != HealthError {
			t.Fatalf("Status = %q, want error", result.Status)
		}
		if result.Message != "n8n API error: 500 Internal Server Error" {
			t.Fatalf("Message = %q", result.Message)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		result := NewClient(Config{BaseURL: url, APIKey: "k"}).HealthCheck(context.Background())
		if result.Status != HealthError || result.Message == "" {
			t.Fatalf("result = %+v, want error with message", result)
		}
		if result.BaseURL != url {
			t.Fatalf("BaseURL = %q, want %q", result.BaseURL, url)
		}
	})
}

func TestMalformedSuccessBody(t *testing.T) {
	_, client := newFakeN8N(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSONBody(w, http.StatusOK, `{"id":`)
	})

	_, err := client.GetWorkflow(context.Background(), "wf-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !strings.HasPrefix(apiErr.Message, "n8n: decode response") {
		t.Fatalf("error = %v, want decode APIError", err)
	}
}

type recordingObserver struct {
	observations []RequestObservation
}

func (r *recordingObserver) ObserveRequest(o RequestObservation) {
	r.observations = append(r.observations, o)
}

func TestRequestObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONBody(w, http.StatusNotFound, `{"message":"nope"}`)
	}))
	defer srv.Close()

	observer := &recordingObserver{}
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Observer: observer})
	_, _ = client.GetWorkflow(context.Background(), "x")

	if len(observer.observations) != 1 {
		t.Fatalf("observations = %d, want 1", len(observer.observations))
	}
	got := observer.observations[0]
	if got.Operation != "get_workflow" || got.StatusCode != http.StatusNotFound || got.Success {
		t.Fatalf("observation = %+v", got)
	}
}
