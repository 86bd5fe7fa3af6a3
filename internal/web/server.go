// Package web provides an HTTP status server for the timely daemon.
package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/status"
	"github.com/sweeney/timely/internal/store"
)

// TimerSource looks up timer configurations for previews.
// *store.Store satisfies it.
type TimerSource interface {
	Timer(id string) (logic.TimerConfig, error)
	Settings() store.Settings
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	timers     TimerSource
	now        func() time.Time

	mu     sync.Mutex
	epochs map[string]time.Time
}

// New creates a Server that reads state from the given tracker. timers may
// be nil, in which case /preview.json answers 404.
func New(addr string, tracker *status.Tracker, timers TimerSource) *Server {
	s := &Server{tracker: tracker, timers: timers, now: time.Now, epochs: make(map[string]time.Time)}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/preview.json", s.handlePreview)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
