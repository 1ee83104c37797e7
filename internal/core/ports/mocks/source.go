package mocks

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/mpull123/thriftpulse/internal/core/ports"
)

// TextSource is an in-memory ports.TextSource keyed by URL.
type TextSource struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []string

	// FetchFn allows overriding Fetch behavior.
	FetchFn func(ctx context.Context, url string) (string, error)
}

// NewTextSource creates an empty text source.
func NewTextSource() *TextSource {
	return &TextSource{
		bodies: make(map[string]string),
		errs:   make(map[string]error),
	}
}

// Set registers a body for url.
func (s *TextSource) Set(url, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bodies[url] = body
}

// SetPrefix registers a body for every URL starting with prefix.
func (s *TextSource) SetPrefix(prefix, body string) {
	s.Set(prefix+"*", body)
}

// Fail registers an error for url.
func (s *TextSource) Fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errs[url] = err
}

// Fetch returns the registered body or error.
func (s *TextSource) Fetch(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	fn := s.FetchFn
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, url)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.errs[url]; ok {
		return "", err
	}

	if body, ok := s.bodies[url]; ok {
		return body, nil
	}

	for k, body := range s.bodies {
		if strings.HasSuffix(k, "*") && strings.HasPrefix(url, strings.TrimSuffix(k, "*")) {
			return body, nil
		}
	}

	return "", ErrURLNotFound
}

// Calls returns fetched URLs in order.
func (s *TextSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

// JSONCompleter is a scripted ports.JSONCompleter.
type JSONCompleter struct {
	mu        sync.Mutex
	responses []json.RawMessage
	errs      []error
	requests  []ports.JSONRequest

	// CompleteJSONFn allows overriding CompleteJSON behavior.
	CompleteJSONFn func(ctx context.Context, req ports.JSONRequest) (json.RawMessage, error)
}

// NewJSONCompleter creates a completer with no queued responses.
func NewJSONCompleter() *JSONCompleter {
	return &JSONCompleter{}
}

// Queue appends a response; err takes precedence when non-nil.
func (c *JSONCompleter) Queue(body string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responses = append(c.responses, json.RawMessage(body))
	c.errs = append(c.errs, err)
}

// CompleteJSON pops the next queued response.
func (c *JSONCompleter) CompleteJSON(ctx context.Context, req ports.JSONRequest) (json.RawMessage, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	fn := c.CompleteJSONFn
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.responses) == 0 {
		return nil, ErrNoResponse
	}

	body, err := c.responses[0], c.errs[0]
	c.responses, c.errs = c.responses[1:], c.errs[1:]

	if err != nil {
		return nil, err
	}

	return body, nil
}

// Requests returns received requests in order.
func (c *JSONCompleter) Requests() []ports.JSONRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]ports.JSONRequest(nil), c.requests...)
}
