// Package target hosts the server-under-test: an opaque HTTP server the
// harness drives over loopback. The harness depends only on the
// request/response contract, never on what the handlers do internally.
package target

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Server is the bundled application-under-test. It binds an OS-assigned
// ephemeral loopback port on Start and reports it back through Port and
// URL.
type Server struct {
	mux       *http.ServeMux
	srv       *http.Server
	ln        net.Listener
	requestID atomic.Int64
}

// NewServer creates a server with all scenario endpoints registered.
func NewServer() *Server {
	s := &Server{
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/simple", s.handleSimple)
	s.mux.HandleFunc("/json", s.handleJSON)
	s.mux.HandleFunc("/query", s.handleQuery)
	s.mux.HandleFunc("/delay/", s.handleDelay)
	return s
}

// Handler returns the http.Handler for the server, for use with
// httptest or a custom listener.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start binds localhost:0 and begins serving in the background. The
// bound port is available through Port once Start returns.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("binding target listener: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.mux}

	go func() {
		// Serve returns ErrServerClosed on Shutdown; anything else means
		// the listener died, which in-flight requests will surface as
		// connection failures.
		_ = s.srv.Serve(ln)
	}()

	return nil
}

// Port returns the OS-assigned port. Only valid after Start.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns the loopback base URL of the running server.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.Port())
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline. Safe to call even if Start never ran.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// handleHealth is the readiness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleSimple returns a small plaintext body.
func (s *Server) handleSimple(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "hello")
}

// handleJSON returns a JSON payload with a per-request counter.
func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	id := s.requestID.Add(1)

	response := map[string]interface{}{
		"id":        id,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"path":      r.URL.Path,
		"message":   "hello from target",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleQuery echoes the query parameters back as JSON, so scenario
// paths carrying query strings exercise a distinct code path.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"params": params})
}

// handleDelay waits for the requested number of milliseconds before
// responding. Example: GET /delay/50 sleeps 50ms.
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/delay/"))
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}

	time.Sleep(time.Duration(ms) * time.Millisecond)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "delayed %dms", ms)
}
