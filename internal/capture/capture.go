// Package capture records HTTP API responses into snapshot content trees.
// A Recorder sits in a client's transport chain; each response is stored
// under its operation name with the transport envelope the snapshot format
// expects (ResponseMetadata: status code and headers).
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"snapcheck/internal/snapshot"
)

type ctxKey struct{}

// WithOperation names the API operation for requests carrying the returned
// context. Responses without an operation name are recorded under the
// request's URL path.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKey{}, name)
}

func operationFrom(req *http.Request) string {
	if name, ok := req.Context().Value(ctxKey{}).(string); ok && name != "" {
		return name
	}
	name := strings.Trim(req.URL.Path, "/")
	if name == "" {
		name = strings.ToLower(req.Method)
	}
	return strings.ReplaceAll(name, "/", "_")
}

// Recorder is an http.RoundTripper that snapshots every response passing
// through it. Safe for concurrent use.
type Recorder struct {
	transport http.RoundTripper

	mu      sync.Mutex
	content snapshot.Content
	counts  map[string]int
}

// NewRecorder wraps inner (nil means http.DefaultTransport).
func NewRecorder(inner http.RoundTripper) *Recorder {
	if inner == nil {
		inner = http.DefaultTransport
	}
	return &Recorder{
		transport: inner,
		content:   snapshot.Content{},
		counts:    map[string]int{},
	}
}

// RoundTrip delegates to the inner transport and records the response.
// The response body is fully read and replaced so callers see it intact.
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("capture response body: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("capture response body: %w", closeErr)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	r.record(operationFrom(req), resp, body)
	return resp, nil
}

func (r *Recorder) record(op string, resp *http.Response, body []byte) {
	entry := snapshot.Content{}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "json") && len(body) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err == nil {
			for k, v := range payload {
				entry[k] = v
			}
		} else {
			entry["Payload"] = string(body)
		}
	} else if len(body) > 0 {
		entry["Payload"] = string(body)
	}

	headers := map[string]any{}
	for k, vals := range resp.Header {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}
	entry["ResponseMetadata"] = map[string]any{
		"HTTPStatusCode": float64(resp.StatusCode),
		"HTTPHeaders":    headers,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[op]++
	key := op
	if n := r.counts[op]; n > 1 {
		key = fmt.Sprintf("%s_%d", op, n)
	}
	r.content[key] = map[string]any(entry)
}

// Content returns a copy of everything recorded so far, ready to become a
// record's recorded-content.
func (r *Recorder) Content() snapshot.Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(snapshot.Content, len(r.content))
	for k, v := range r.content {
		out[k] = v
	}
	return out
}

// Reset discards recorded content, for reuse across tests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content = snapshot.Content{}
	r.counts = map[string]int{}
}
