package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Engine is the conversational core served over HTTP.
type Engine interface {
	Handle(ctx context.Context, ev domain.Event) (domain.Reply, error)
	Groups(ctx context.Context) ([]domain.Group, error)
}

// EventResponse is the body of POST /v1/events and of every WebSocket frame sent back.
type EventResponse struct {
	Reply domain.Reply `json:"reply"`
	// Error classifies a handled outcome; the reply is still meant for the user.
	Error string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Server routes HTTP and WebSocket traffic to the Engine.
type Server struct {
	engine   Engine
	metrics  http.Handler
	version  string
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", s.postEvent)
		r.Get("/groups", s.listGroups)
		r.Get("/ws", s.serveWS)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.logger.Warn("PostEvent: Invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := checkEvent(ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, s.logger, s.dispatch(r.Context(), ev))
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.engine.Groups(r.Context())
	if err != nil {
		s.logger.Error("ListGroups failed", "err", err)
		http.Error(w, "Failed to list groups", http.StatusInternalServerError)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	writeJSON(w, s.logger, groups)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, HealthResponse{Status: "ok", Version: s.version})
}

// serveWS reads one JSON event per frame and writes one EventResponse per frame.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		var ev domain.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read failed", "err", err)
			}
			return
		}

		var resp EventResponse
		if err := checkEvent(ev); err != nil {
			resp.Error = err.Error()
		} else {
			resp = s.dispatch(ctx, ev)
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("WebSocket write failed", "err", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, ev domain.Event) EventResponse {
	reply, err := s.engine.Handle(ctx, ev)
	resp := EventResponse{Reply: reply}
	if err != nil {
		resp.Error = err.Error()
		if errors.Is(err, domain.ErrInternal) {
			s.logger.Error("Event handling failed", "user_id", ev.UserID, "kind", ev.Kind, "err", err)
		}
	}
	return resp
}

var errBadEvent = errors.New("user_id and a known kind are required")

func checkEvent(ev domain.Event) error {
	if ev.UserID == "" {
		return errBadEvent
	}
	switch ev.Kind {
	case domain.EventCommand, domain.EventText, domain.EventChoice:
		return nil
	}
	return errBadEvent
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
