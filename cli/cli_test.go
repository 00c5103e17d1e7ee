package cli

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
)

// newTestRoot creates a fresh cobra root command wired to all subcommands.
// Each test gets an isolated command tree to avoid shared state.
func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "n8nmcp",
		SilenceUsage: true,
		Version:      "test",
	}
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewToolsCmd())
	root.AddCommand(NewHealthCmd())
	return root
}

// executeCommand runs a cobra command with the given args and captures stdout/stderr.
func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

// isolateConfig keeps the developer's config files and environment out of
// the test.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("N8N_API_URL", "")
	t.Setenv("N8N_API_KEY", "")
	t.Setenv("N8NMCP_LOG_LEVEL", "")
	t.Setenv("N8NMCP_LOG_FORMAT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("PORT", "")
}

// writeTestFile creates a temporary file with the given content and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeN8N serves a minimal n8n API under /api/v1 and counts requests.
type fakeN8N struct {
	*httptest.Server
	requests atomic.Int32
	lastKey  atomic.Value
}

func newFakeN8N(t *testing.T) *fakeN8N {
	t.Helper()
	f := &fakeN8N{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/workflows", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":"1","name":"Alpha","active":true}]}`)
	})
	mux.HandleFunc("GET /api/v1/workflows/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Workflow not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"1","name":"Alpha","active":true,"nodes":[],"connections":{}}`)
	})
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.lastKey.Store(r.Header.Get("X-N8N-API-KEY"))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeN8N) apiURL() string {
	return f.URL + "/api/v1"
}

func wantExitCode(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != code {
		t.Fatalf("exit code = %d, want %d (%s)", exitErr.Code, code, exitErr.Message)
	}
	return exitErr
}
