// Package testutil provides a fake asset upstream for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Request is a request seen by MockUpstream
type Request struct {
	Path   string
	Header http.Header
}

// MockUpstream serves assets by path, like a raw file host, with injectable
// status codes, delays and dropped connections
type MockUpstream struct {
	server         *httptest.Server
	requestCount   int32
	mu             sync.RWMutex
	assets         map[string][]byte
	errorResponses map[string]int
	delays         map[string]time.Duration
	dropped        map[string]bool
	requests       []Request
}

// NewMockUpstream starts a mock upstream; Close must be called
func NewMockUpstream() *MockUpstream {
	m := &MockUpstream{
		assets:         make(map[string][]byte),
		errorResponses: make(map[string]int),
		delays:         make(map[string]time.Duration),
		dropped:        make(map[string]bool),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *MockUpstream) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	m.requests = append(m.requests, Request{Path: r.URL.Path, Header: r.Header.Clone()})
	body, ok := m.assets[r.URL.Path]
	code := m.errorResponses[r.URL.Path]
	delay := m.delays[r.URL.Path]
	drop := m.dropped[r.URL.Path]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if drop {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
	}

	if code > 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType(r.URL.Path))
	w.Write(body)
}

func contentType(path string) string {
	switch {
	case strings.HasSuffix(path, ".jpg"):
		return "image/jpeg"
	case strings.HasSuffix(path, ".gif"):
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// SetAsset serves body at path
func (m *MockUpstream) SetAsset(path string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[path] = body
}

// SetErrorResponse answers path with the given status code
func (m *MockUpstream) SetErrorResponse(path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[path] = code
}

// ClearErrorResponse removes an injected status code
func (m *MockUpstream) ClearErrorResponse(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errorResponses, path)
}

// SetDelay delays the response for path
func (m *MockUpstream) SetDelay(path string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[path] = delay
}

// SimulateNetworkError closes the connection without a response for path
func (m *MockUpstream) SimulateNetworkError(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[path] = true
}

// URL returns the server root URL
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Paths returns the requested paths in order
func (m *MockUpstream) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, len(m.requests))
	for i, r := range m.requests {
		paths[i] = r.Path
	}
	return paths
}

// Requests returns the received requests in order
func (m *MockUpstream) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Request(nil), m.requests...)
}

// GetRequestCount returns the number of requests received
func (m *MockUpstream) GetRequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// ResetCounters forgets received requests
func (m *MockUpstream) ResetCounters() {
	atomic.StoreInt32(&m.requestCount, 0)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// Close shuts down the server
func (m *MockUpstream) Close() {
	m.server.Close()
}
