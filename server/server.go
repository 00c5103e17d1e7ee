package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/n8nmcp/n8n"
)

// ServerConfig configures a Server instance.
type ServerConfig struct {
	// Defaults are used for any credential a request does not send in the
	// X-N8N-API-URL / X-N8N-API-KEY headers.
	Defaults Credentials

	// Timeout bounds each outbound n8n call.
	Timeout    time.Duration
	HTTPClient *http.Client
	Tracer     trace.Tracer
	Observer   n8n.RequestObserver

	CORSOrigin string
	MaxBody    int64
	Version    string
	Logger     *slog.Logger
	Now        func() time.Time
}

// Server is the n8n MCP HTTP server.
type Server struct {
	defaults   Credentials
	timeout    time.Duration
	httpClient *http.Client
	tracer     trace.Tracer
	observer   n8n.RequestObserver
	corsOrigin string
	maxBody    int64
	version    string
	logger     *slog.Logger
	now        func() time.Time

	mcpHandler http.Handler
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	corsOrigin := cfg.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = 4 << 20 // workflows with many nodes exceed 1 MB
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		defaults:   cfg.Defaults,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		tracer:     cfg.Tracer,
		observer:   cfg.Observer,
		corsOrigin: corsOrigin,
		maxBody:    maxBody,
		version:    version,
		logger:     logger,
		now:        now,
	}
	s.mcpHandler = s.newMCPHandler()
	return s
}

// Handler returns an http.Handler with all routes and middleware wired.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.maxBodyMiddleware(handler)
	handler = s.requestLogMiddleware(handler)

	return handler
}

// RegisterRoutes mounts the server routes onto an existing mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/mcp", s.handleMCP)
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Accept, Authorization, "+HeaderAPIURL+", "+HeaderAPIKey+", Mcp-Session-Id, Mcp-Protocol-Version, Last-Event-ID, "+requestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, "+requestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) maxBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		next.ServeHTTP(w, r)
	})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonRPCError is a JSON-RPC 2.0 error response not tied to a request id.
type jsonRPCError struct {
	JSONRPC string           `json:"jsonrpc"`
	Error   jsonRPCErrorBody `json:"error"`
	ID      any              `json:"id"`
}

type jsonRPCErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const jsonRPCInternalError = -32603

func writeJSONRPCError(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, jsonRPCError{
		JSONRPC: "2.0",
		Error:   jsonRPCErrorBody{Code: code, Message: message},
		ID:      nil,
	})
}
