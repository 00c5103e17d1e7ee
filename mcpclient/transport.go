package mcpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// StatusError is a non-2xx reply to a JSON-RPC POST. When the body is a
// JSON-RPC error its code and message are kept.
type StatusError struct {
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, msg)
}

func (e *StatusError) Unwrap() error { return e.Err }

func newStatusError(status int, body []byte) *StatusError {
	statusErr := &StatusError{StatusCode: status}
	var envelope struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		statusErr.Code = envelope.Error.Code
		statusErr.Message = envelope.Error.Message
		return statusErr
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	statusErr.Message = text
	return statusErr
}

// headerTransport adds the configured headers and a fresh request ID to
// every request. The go-sdk transport drops the body of a failed POST, so
// the last one is kept here for explain.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string

	mu     sync.Mutex
	failed *StatusError
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}
	r.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := t.base.RoundTrip(r)
	if err != nil || r.Method != http.MethodPost || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return resp, err
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	t.mu.Lock()
	t.failed = newStatusError(resp.StatusCode, body)
	t.mu.Unlock()
	return resp, nil
}

// explain replaces err with the recorded StatusError, if a POST failed since
// the last call.
func (t *headerTransport) explain(err error) error {
	if err == nil {
		return nil
	}
	t.mu.Lock()
	failed := t.failed
	t.failed = nil
	t.mu.Unlock()
	if failed == nil {
		return err
	}
	failed.Err = err
	return failed
}
