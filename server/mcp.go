package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/petal-labs/n8nmcp/n8n"
	"github.com/petal-labs/n8nmcp/tool"
)

// handleMCP rejects unconfigured requests before any MCP or n8n state is
// built, then hands the request to the streamable HTTP transport.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	creds := resolveCredentials(r, s.defaults)
	if !creds.Configured() {
		s.logger.Warn("mcp request without n8n credentials",
			"request_id", RequestIDFromContext(r.Context()))
		writeJSONRPCError(w, http.StatusInternalServerError, jsonRPCInternalError, notConfiguredMessage)
		return
	}
	s.mcpHandler.ServeHTTP(w, r.WithContext(withCredentials(r.Context(), creds)))
}

// newMCPHandler builds one MCP server per HTTP request from that request's
// credentials. Stateless mode keeps no session between requests.
func (s *Server) newMCPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		creds, _ := credentialsFromContext(r.Context())
		client := n8n.NewClient(n8n.Config{
			BaseURL:    creds.BaseURL,
			APIKey:     creds.APIKey,
			HTTPClient: s.httpClient,
			Timeout:    s.timeout,
			Tracer:     s.tracer,
			Observer:   s.observer,
		})
		return NewMCPServer(tool.NewToolset(client), s.version, s.logger)
	}, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
	})
}

// NewMCPServer registers every tool of toolset on a new MCP server. Each
// call result carries exactly one text content block.
func NewMCPServer(toolset *tool.Toolset, version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	for _, def := range toolset.Definitions() {
		name := def.Name
		server.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args []byte
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			resp, err := toolset.Call(ctx, name, args)
			if err != nil {
				logger.Warn("tool call failed", "tool", name, "error_code", tool.ErrorCode(err), "error", err)
			} else {
				logger.Debug("tool call", "tool", name)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: resp.Text}},
				IsError: resp.IsError,
			}, nil
		})
	}
	return server
}
