package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pthm-cable/ember/settings"
)

// DefaultMaxBodyBytes limits request bodies when HTTPServer.MaxBodyBytes is
// zero.
const DefaultMaxBodyBytes = 64 << 10

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type updateResponse struct {
	OK      bool     `json:"ok"`
	Fields  []string `json:"fields"`
	Warning string   `json:"warning,omitempty"`
}

// HTTPServer exposes the settings API under /api/v1/.
type HTTPServer struct {
	Addr         string
	MaxBodyBytes int64

	sink   Sink
	source Source
	logger *slog.Logger

	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	closed bool
}

// NewHTTPServer creates a server that submits patches to sink and reports
// settings from source.
func NewHTTPServer(addr string, sink Sink, source Source) *HTTPServer {
	return &HTTPServer{
		Addr:   addr,
		sink:   sink,
		source: source,
		logger: slog.With("component", "control", "transport", "http"),
	}
}

// Start listens on Addr and serves until ctx is done or Stop is called.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("control server already stopped")
	}
	if s.srv != nil {
		return nil
	}

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		s.srv = nil
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	s.ln = ln
	s.logger.Info("control endpoint listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	srv := s.srv
	go func() {
		err := srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		s.logger.Error("control endpoint stopped", "error", err)
	}()

	return nil
}

// ListenAddr returns the bound address, or "" before Start.
func (s *HTTPServer) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down. Safe to call more than once.
func (s *HTTPServer) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.srv
	ln := s.ln
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Handler returns the API routes.
func (s *HTTPServer) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/settings", s.handleSettings)
	api.HandleFunc("/fields", handleFields)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", api))
	return mux
}

func (s *HTTPServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.source.Settings())
	case http.MethodPost, http.MethodPatch:
		s.handleUpdate(w, r)
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error())
			return
		}
		writeAPIError(w, http.StatusBadRequest, "read_failed", err.Error())
		return
	}

	p, ok, err := decode(data)
	if !ok {
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "bad_message", err.Error())
			return
		}
		writeAPIError(w, http.StatusUnprocessableEntity, "unsupported_type", "message type is not "+settings.MessageTypeUpdate)
		return
	}

	resp := updateResponse{OK: true, Fields: p.Fields()}
	if err != nil {
		resp.Warning = err.Error()
		s.logger.Warn("partial settings update", "error", err)
	}
	if resp.Fields == nil {
		resp.Fields = []string{}
	}
	s.sink.Submit(p)
	writeJSON(w, http.StatusAccepted, resp)
}

func handleFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, settings.Fields)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, apiError{Error: code, Message: msg})
}
