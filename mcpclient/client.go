package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const clientName = "n8nmcp-cli"

// Config selects the server and the headers sent with every request.
type Config struct {
	Endpoint   string
	// Headers usually carry X-N8N-API-URL and X-N8N-API-KEY.
	Headers    map[string]string
	HTTPClient *http.Client
	Version    string
}

// Tool is one entry of tools/list with its schema kept as raw JSON.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Result is the text payload of a tools/call reply.
type Result struct {
	Text    string
	IsError bool
}

// Session is an initialized MCP session.
type Session struct {
	cs        *mcp.ClientSession
	transport *headerTransport
}

// Dial connects to cfg.Endpoint and completes the initialize handshake.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("mcpclient: endpoint %q must be an http or https URL", cfg.Endpoint)
	}

	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}
	transport := &headerTransport{base: base, headers: cfg.Headers}
	httpClient := &http.Client{Transport: transport}
	if cfg.HTTPClient != nil {
		httpClient.Timeout = cfg.HTTPClient.Timeout
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: version}, nil)
	cs, err := client.Connect(ctx, detachedTransport{&mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: httpClient,
		MaxRetries: -1,
	}}, nil)
	if err != nil {
		return nil, transport.explain(err)
	}
	return &Session{cs: cs, transport: transport}, nil
}

// detachedTransport keeps the connection open after the dial context ends.
// That context only bounds the initialize handshake; Close ends the
// connection.
type detachedTransport struct {
	mcp.Transport
}

func (d detachedTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	return d.Transport.Connect(context.WithoutCancel(ctx))
}

// ListTools returns every tool the server declares, following pagination.
func (s *Session) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := s.cs.ListTools(ctx, params)
		if err != nil {
			return nil, s.transport.explain(err)
		}
		for _, t := range res.Tools {
			schema, err := json.Marshal(t.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("mcpclient: encode schema of %s: %w", t.Name, err)
			}
			tools = append(tools, Tool{Name: t.Name, Description: t.Description, InputSchema: schema})
		}
		if res.NextCursor == "" {
			return tools, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

// CallTool invokes name with args, a JSON object. A tool-level failure is
// reported through Result.IsError, not the error return.
func (s *Session) CallTool(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	params := &mcp.CallToolParams{Name: name}
	if len(args) > 0 {
		params.Arguments = args
	}
	res, err := s.cs.CallTool(ctx, params)
	if err != nil {
		return Result{}, s.transport.explain(err)
	}

	var parts []string
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return Result{Text: strings.Join(parts, "\n"), IsError: res.IsError}, nil
}

// Close ends the session.
func (s *Session) Close() error {
	if s == nil || s.cs == nil {
		return nil
	}
	return s.cs.Close()
}
