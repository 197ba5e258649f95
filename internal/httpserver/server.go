package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/config"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/feed"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/metrics"
)

// sessionHeader selects the feed session a request operates on. Requests
// without it share the default session.
const sessionHeader = "X-Session-ID"

const defaultSession = "default"

// Server is the HTTP server exposing the feed API.
type Server struct {
	cfg        *config.Config
	sessions   *feed.SessionManager
	logger     *slog.Logger
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewServer creates the HTTP server around the given session manager.
func NewServer(cfg *config.Config, sessions *feed.SessionManager, logger *slog.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		logger:   logger,
		metrics:  m,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/feed", s.handleGetFeed)
		r.Post("/feed/refresh", s.handleRefresh)
		r.Get("/feed/queue", s.handleQueueSummary)
		r.Post("/feed/queue/consume", s.handleConsumeQueue)
		r.Post("/activity", s.handleActivity)
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) session(r *http.Request) (*feed.Orchestrator, error) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		id = defaultSession
	}
	return s.sessions.Session(r.Context(), id)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// feedItemResponse is the wire shape of one ranked item.
type feedItemResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	MediaURL  string    `json:"media_url,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Score     float64   `json:"score"`
}

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	orch, err := s.session(r)
	if err != nil {
		s.logger.Error("failed to open feed session", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to open feed session")
		return
	}

	items := orch.RankedFeed()
	resp := struct {
		Feed []feedItemResponse `json:"feed"`
	}{Feed: make([]feedItemResponse, len(items))}

	for i, item := range items {
		resp.Feed[i] = toFeedItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reset bool `json:"reset"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "malformed request body")
			return
		}
	}

	orch, err := s.session(r)
	if err != nil {
		s.logger.Error("failed to open feed session", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to open feed session")
		return
	}

	orch.ManualRefresh(r.Context(), body.Reset)
	writeJSON(w, http.StatusOK, map[string]any{
		"feed_size": len(orch.RankedFeed()),
		"reset":     body.Reset,
	})
}

func (s *Server) handleQueueSummary(w http.ResponseWriter, r *http.Request) {
	orch, err := s.session(r)
	if err != nil {
		s.logger.Error("failed to open feed session", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to open feed session")
		return
	}
	writeJSON(w, http.StatusOK, orch.QueueSummary())
}

func (s *Server) handleConsumeQueue(w http.ResponseWriter, r *http.Request) {
	orch, err := s.session(r)
	if err != nil {
		s.logger.Error("failed to open feed session", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to open feed session")
		return
	}

	orch.ConsumeQueuedUpdates(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"feed_size": len(orch.RankedFeed()),
	})
}

// activityRequest reports a client-side activity signal.
type activityRequest struct {
	// Type is interaction, scroll or video.
	Type string `json:"type"`

	// Position is the absolute scroll position for scroll signals.
	Position float64 `json:"position"`

	// Viewing is the video-playback state for video signals.
	Viewing bool `json:"viewing"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var body activityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "malformed request body")
		return
	}

	orch, err := s.session(r)
	if err != nil {
		s.logger.Error("failed to open feed session", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to open feed session")
		return
	}

	switch body.Type {
	case "interaction":
		orch.ReportInteraction(r.Context())
	case "scroll":
		orch.ReportScroll(body.Position)
	case "video":
		orch.SetVideoViewing(body.Viewing)
	default:
		writeError(w, http.StatusBadRequest, "InvalidRequest", "type must be interaction, scroll or video")
		return
	}

	state := orch.ActivityState()
	writeJSON(w, http.StatusOK, map[string]any{
		"user_active":        state.UserActive,
		"scrolling":          state.Scrolling,
		"viewing_video":      state.ViewingVideo,
		"allow_auto_refresh": state.AllowAutoRefresh(),
	})
}

func toFeedItemResponse(item domain.ContentItem) feedItemResponse {
	resp := feedItemResponse{
		ID:        item.ID,
		Kind:      string(item.Kind),
		ActorID:   item.Actor.ID,
		ActorName: item.Actor.DisplayName,
		MediaURL:  item.MediaURL,
		Caption:   item.Caption,
		CreatedAt: item.CreatedAt,
	}
	if item.Score != nil {
		resp.Score = item.Score.Total
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

// observe logs each request and records it in the metrics registry.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.ObserveHTTPRequest(r.Method, route, fmt.Sprintf("%d", wrapped.status), elapsed.Seconds())
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", elapsed,
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
