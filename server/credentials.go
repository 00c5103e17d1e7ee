package server

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/petal-labs/n8nmcp/n8n"
)

// Per-request credential headers. Each one independently overrides the
// server default.
const (
	HeaderAPIURL = "X-N8N-API-URL"
	HeaderAPIKey = n8n.APIKeyHeader
)

// Credentials locate and authenticate against one n8n instance.
type Credentials struct {
	BaseURL string
	APIKey  string
}

// Configured reports whether both the URL and the key are known.
func (c Credentials) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

func resolveCredentials(r *http.Request, defaults Credentials) Credentials {
	creds := defaults
	if v := strings.TrimSpace(r.Header.Get(HeaderAPIURL)); v != "" {
		creds.BaseURL = v
	}
	if v := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); v != "" {
		creds.APIKey = v
	}
	return creds
}

var apiPathSuffix = regexp.MustCompile(`/api/v1/?$`)

// displayURL is the instance URL shown on /health: the base URL without the
// public API path.
func displayURL(baseURL string) string {
	return apiPathSuffix.ReplaceAllString(baseURL, "")
}

type credentialsKey struct{}

func withCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func credentialsFromContext(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok
}
