package server

import (
	"net/http"

	"github.com/petal-labs/n8nmcp/tool"
)

const (
	serverName        = "n8nmcp"
	serverDescription = "MCP server for n8n workflow management"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	notConfiguredMessage = "n8n API not configured. Provide X-N8N-API-URL and X-N8N-API-KEY headers, or set environment variables."
)

type indexResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   indexEndpoints `json:"endpoints"`
	Tools       []string       `json:"tools"`
}

type indexEndpoints struct {
	MCP    string `json:"mcp"`
	Health string `json:"health"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	MCP       string    `json:"mcp"`
	N8N       healthN8N `json:"n8n"`
	Timestamp string    `json:"timestamp"`
}

type healthN8N struct {
	Configured bool    `json:"configured"`
	URL        *string `json:"url"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Name:        serverName,
		Version:     s.version,
		Description: serverDescription,
		Endpoints:   indexEndpoints{MCP: "/mcp", Health: "/health"},
		Tools:       tool.NewToolset(nil).Names(),
	})
}

// handleHealth reports configuration state only; it never contacts n8n and
// never echoes the API key.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	creds := resolveCredentials(r, s.defaults)
	configured := creds.Configured()

	resp := healthResponse{
		Status:    "unconfigured",
		MCP:       "ready",
		N8N:       healthN8N{Configured: configured},
		Timestamp: s.now().UTC().Format(timestampLayout),
	}
	if configured {
		resp.Status = "ok"
	}
	if creds.BaseURL != "" {
		url := displayURL(creds.BaseURL)
		resp.N8N.URL = &url
	}
	writeJSON(w, http.StatusOK, resp)
}
