// Package api implements the local HTTP server that backs an interactive
// review round. The browser UI reads the round's state, saves drafts,
// resolves findings, and finally submits or cancels; submit and cancel end
// the round and unblock the waiting CLI.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/revloop/internal/session"
)

// Outcome is how an interactive round ended.
type Outcome struct {
	Submitted bool
	Result    *session.SubmitResult
}

// Server is the per-round HTTP server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server
	log    zerolog.Logger

	mu   sync.Mutex // serializes controller access across handlers
	ctrl *session.Controller

	done     chan Outcome
	doneOnce sync.Once

	clients   map[*wsClient]struct{}
	clientsMu sync.Mutex
}

// New creates a server for one round controller.
func New(addr string, ctrl *session.Controller, log zerolog.Logger) *Server {
	s := &Server{
		addr:    addr,
		ctrl:    ctrl,
		log:     log,
		done:    make(chan Outcome, 1),
		clients: make(map[*wsClient]struct{}),
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/file", s.handleFile)
	s.mux.HandleFunc("POST /api/draft", s.handleDraft)
	s.mux.HandleFunc("POST /api/resolve", s.handleResolve)
	s.mux.HandleFunc("POST /api/submit", s.handleSubmit)
	s.mux.HandleFunc("POST /api/cancel", s.handleCancel)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// Listen binds the address and serves in the background, returning the URL
// to open. An addr ending in ":0" picks an ephemeral port.
func (s *Server) Listen() (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("binding %s: %w", s.addr, err)
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("http server stopped")
		}
	}()

	url := fmt.Sprintf("http://%s", ln.Addr().String())
	s.log.Info().Str("url", url).Msg("review server listening")
	return url, nil
}

// Wait blocks until the round is submitted or cancelled, or ctx ends.
// Context expiry counts as cancellation.
func (s *Server) Wait(ctx context.Context) Outcome {
	select {
	case out := <-s.done:
		return out
	case <-ctx.Done():
		return Outcome{}
	}
}

// Shutdown stops the server, closing any event stream clients first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeClients()
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) finish(out Outcome) {
	s.doneOnce.Do(func() {
		s.done <- out
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
