// Package testutil provides fakes shared by package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// FakeServer is an httptest server routed with gorilla/mux that counts hits per route
type FakeServer struct {
	t      *testing.T
	router *mux.Router
	server *httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	lastBody map[string][]byte
	lastReq  map[string]*http.Request
}

// NewFakeServer starts a server that is closed when the test ends
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()
	f := &FakeServer{
		t:        t,
		router:   mux.NewRouter(),
		hits:     make(map[string]int),
		lastBody: make(map[string][]byte),
		lastReq:  make(map[string]*http.Request),
	}
	f.server = httptest.NewServer(f.router)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the server base URL
func (f *FakeServer) URL() string {
	return f.server.URL
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Handle registers handler for method and mux path template
func (f *FakeServer) Handle(method, path string, handler http.HandlerFunc) {
	key := routeKey(method, path)
	f.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		f.mu.Lock()
		f.hits[key]++
		f.lastBody[key] = body
		f.lastReq[key] = r.Clone(r.Context())
		f.mu.Unlock()
		handler(w, r)
	}).Methods(method)
}

// JSON registers a route that always answers with status and v
func (f *FakeServer) JSON(method, path string, status int, v interface{}) {
	f.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, v)
	})
}

// Envelope registers a route answering {success: true, data}
func (f *FakeServer) Envelope(method, path string, data interface{}) {
	f.JSON(method, path, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

// Hits returns how often a route was called
func (f *FakeServer) Hits(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[routeKey(method, path)]
}

// LastBody decodes the last request body sent to a route into v
func (f *FakeServer) LastBody(method, path string, v interface{}) {
	f.t.Helper()
	f.mu.Lock()
	body := f.lastBody[routeKey(method, path)]
	f.mu.Unlock()
	if err := json.Unmarshal(body, v); err != nil {
		f.t.Fatalf("decode body of %s %s: %v", method, path, err)
	}
}

// LastRequest returns a clone of the last request sent to a route
func (f *FakeServer) LastRequest(method, path string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq[routeKey(method, path)]
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
