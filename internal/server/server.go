// Package server exposes the dansk decoder over HTTP: a WebSocket endpoint
// that streams source into one decode session per connection, and a plain
// POST endpoint for whole files.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/dansk/core/codec"
	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/vocab"
	"github.com/FocuswithJustin/dansk/internal/cas"
	"github.com/FocuswithJustin/dansk/internal/journal"
	"github.com/FocuswithJustin/dansk/internal/logging"
	"github.com/FocuswithJustin/dansk/internal/translator"
	"github.com/FocuswithJustin/dansk/internal/validation"
)

// Server serves decode sessions.
type Server struct {
	cfg        Config
	translator *translator.Translator
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithCache serves repeated POST translations from c.
func WithCache(c *cas.Cache) Option {
	return func(s *Server) { s.translator.Cache = c }
}

// WithJournal records every finished session in j.
func WithJournal(j *journal.Journal) Option {
	return func(s *Server) { s.translator.Journal = j }
}

// New validates cfg and returns a Server.
func New(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg: cfg,
		translator: &translator.Translator{
			Verify:  cfg.Verify,
			MaxSize: cfg.MaxSourceSize,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
		sessions: make(map[*session]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the HTTP routes wrapped in logging and security
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /vocab", s.handleVocab)
	mux.HandleFunc("POST /translate", s.handleTranslate)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return logging.CombinedMiddleware(securityHeaders(mux))
}

// Sessions reports the number of open WebSocket sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.NewIO("listen", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ErrorLog:          slog.NewLogLogger(logging.GetLogger().Handler(), slog.LevelError),
	}
	logging.ServerStartup("dansk", ln.Addr().String(), "codec", codec.Name)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		logging.ErrorContext(ctx, "server stopped", "error", err)
		return err
	case <-ctx.Done():
	}
	logging.InfoContext(ctx, "server shutting down", "sessions", s.Sessions())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeSessions()
	s.wg.Wait()
	return err
}

// closeSessions sends a going-away close frame to every hijacked
// connection, which Shutdown does not track.
func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	logging.Debug("closing sessions", "count", len(s.sessions))
	for c := range s.sessions {
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
		c.conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"codec":    codec.Name,
		"sessions": s.Sessions(),
	})
}

func (s *Server) handleVocab(w http.ResponseWriter, r *http.Request) {
	type row struct {
		Danish    string `json:"danish"`
		Canonical string `json:"canonical"`
	}
	entries := vocab.Entries()
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = row{Danish: e.Danish, Canonical: e.Canonical}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleTranslate decodes the request body as one final chunk. The query
// parameters source and skip set the file name and SkipLeadingLine.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxSourceSize)))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, &ErrorInfo{Kind: "too_large", Message: err.Error()})
			return
		}
		writeError(w, http.StatusBadRequest, &ErrorInfo{Kind: "bad_message", Message: err.Error()})
		return
	}
	skip, _ := strconv.ParseBool(r.URL.Query().Get("skip"))

	res, err := s.translator.Translate(r.Context(), translator.Request{
		Source:          r.URL.Query().Get("source"),
		Src:             body,
		SkipLeadingLine: skip,
	})
	if err != nil {
		info := errorInfo(err)
		status := http.StatusUnprocessableEntity
		switch info.Kind {
		case "too_large":
			status = http.StatusRequestEntityTooLarge
		case "binary":
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, status, info)
		return
	}

	w.Header().Set("Content-Type", "text/x-python; charset=utf-8")
	w.Header().Set("X-Dansk-Session", res.Session)
	w.Header().Set("X-Dansk-Cached", strconv.FormatBool(res.Cached))
	if res.Warning != nil {
		w.Header().Set("X-Dansk-Warning", res.Warning.Error())
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, res.Text)
}

// handleWebSocket upgrades the connection and runs a decode session on it.
// The query parameters source and skip configure the session's decoder.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	skip, _ := strconv.ParseBool(r.URL.Query().Get("skip"))
	source := validation.SanitizeName(r.URL.Query().Get("source"))
	c := newSession(s, conn, source, skip)

	s.mu.Lock()
	s.sessions[c] = struct{}{}
	count := len(s.sessions)
	s.mu.Unlock()
	logging.WebSocketEvent("client_connected", count, "session", c.id, "remote_addr", r.RemoteAddr)

	ctx := logging.WithSessionID(context.Background(), c.id)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		c.readPump(ctx)
		s.mu.Lock()
		delete(s.sessions, c)
		count := len(s.sessions)
		s.mu.Unlock()
		logging.WebSocketEvent("client_disconnected", count, "session", c.id)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, info *ErrorInfo) {
	writeJSON(w, status, map[string]*ErrorInfo{"error": info})
}
