// Package server exposes the HTTP API: content ranking, context events,
// chat, bookings, CMS administration and performance stats.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cuepoint/internal/bookings"
	"cuepoint/internal/chat"
	"cuepoint/internal/cms"
	"cuepoint/internal/config"
	"cuepoint/internal/content"
	"cuepoint/internal/logging"
	"cuepoint/internal/perf"
	"cuepoint/internal/session"
)

// Server wires the domain services behind the HTTP mux.
type Server struct {
	cfg       *config.Config
	sessions  *session.Manager
	catalog   []content.Module
	queue     *bookings.Queue
	cms       *cms.Store
	responder *chat.Responder
	monitor   *perf.Monitor

	httpServer *http.Server
}

// New assembles the server. All dependencies are required except monitor,
// which falls back to a default-sized one.
func New(cfg *config.Config, sessions *session.Manager, catalog []content.Module,
	queue *bookings.Queue, cmsStore *cms.Store, responder *chat.Responder,
	monitor *perf.Monitor) *Server {

	if monitor == nil {
		monitor = perf.NewMonitor(cfg.Perf.BufferSize, cfg.GetSlowThreshold())
	}
	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		catalog:   catalog,
		queue:     queue,
		cms:       cmsStore,
		responder: responder,
		monitor:   monitor,
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: monitor.Middleware(s.withSession(s.routes())),
	}
	return s
}

// Monitor exposes the request monitor, mainly for the stats handler tests.
func (s *Server) Monitor() *perf.Monitor {
	return s.monitor
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/content", s.handleContent)
	mux.HandleFunc("POST /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/recommendations", s.handleRecommendations)
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("POST /api/bookings", s.handleSubmitBooking)
	mux.HandleFunc("GET /api/bookings", s.handleListBookings)
	mux.HandleFunc("POST /api/bookings/sync", s.handleSyncBookings)

	mux.HandleFunc("GET /api/cms/content", s.handleCMSList)
	mux.HandleFunc("GET /api/cms/content/{key...}", s.handleCMSGet)
	mux.HandleFunc("PUT /api/cms/content", s.handleCMSSet)
	mux.HandleFunc("POST /api/cms/reset", s.handleCMSReset)
	mux.HandleFunc("GET /api/cms/export", s.handleCMSExport)
	mux.HandleFunc("POST /api/cms/import", s.handleCMSImport)

	mux.HandleFunc("GET /api/stats", s.handleStats)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Server("listening on %s", s.cfg.Server.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
	defer cancel()
	logging.Server("shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	<-errCh
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get(logging.CategoryServer).Error("failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"name":     s.cfg.Name,
		"version":  s.cfg.Version,
		"sessions": s.sessions.Len(),
		"online":   s.queue.Online(),
		"time":     time.Now().UTC(),
	})
}
