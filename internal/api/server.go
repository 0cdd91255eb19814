// Package api exposes the analyzer over HTTP: an analyze endpoint that
// runs the pipeline, dashboard endpoints serving slices of the latest
// run from memory, and download endpoints for the derived artifacts.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"iganalytics/pkg/analytics"
	"iganalytics/pkg/analyzer"
	"iganalytics/pkg/config"
	"iganalytics/pkg/logger"
)

// AnalyzeFunc runs one profile analysis
type AnalyzeFunc func(ctx context.Context, username string) (analytics.ProfileStats, []analytics.Post, *analytics.Aggregates)

// result is one completed analysis kept in memory for the dashboard
type result struct {
	Stats       analytics.ProfileStats `json:"stats"`
	Posts       []analytics.Post       `json:"posts"`
	Extra       *analytics.Aggregates  `json:"extra"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Server holds the HTTP surface and the latest analysis result
type Server struct {
	cfg     *config.Config
	analyze AnalyzeFunc
	logger  logger.Logger

	mu   sync.RWMutex
	last *result
}

// NewServer wires a server around a freshly built analyzer
func NewServer(cfg *config.Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	a := analyzer.New(cfg, log)
	return NewServerWith(cfg, func(ctx context.Context, username string) (analytics.ProfileStats, []analytics.Post, *analytics.Aggregates) {
		return a.Analyze(ctx, username, analyzer.Options{})
	}, log)
}

// NewServerWith builds a server over an explicit analyze function
func NewServerWith(cfg *config.Config, analyze AnalyzeFunc, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Server{
		cfg:     cfg,
		analyze: analyze,
		logger:  log.WithField("component", "api"),
	}
}

// Router builds the chi router with all routes mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/overview", s.handleOverview)
	r.Get("/api/content", s.handleContent)
	r.Get("/api/posts", s.handlePosts)
	r.Get("/api/network", s.handleNetwork)
	r.Get("/api/system", s.handleSystem)
	r.Get("/download/summary.json", s.handleDownloadSummary)
	r.Get("/download/posts.csv", s.handleDownloadPostsCSV)
	return r
}

// ListenAndServe runs the server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.API.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.API.Addr).Info("api server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// setLast stores the latest analysis for the dashboard endpoints
func (s *Server) setLast(r *result) {
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
}

// latest returns the last analysis, or nil before the first run
func (s *Server) latest() *result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// snapshot writes the raw analysis JSON under the snapshot directory
func (s *Server) snapshot(res *result) {
	dir := filepath.Join(s.cfg.Output.BaseDirectory, s.cfg.Output.SnapshotDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.WithError(err).Warn("could not create snapshot directory")
		return
	}
	name := fmt.Sprintf("%s_%s.json", res.Stats.Username, res.GeneratedAt.Format("20060102_150405"))
	if err := writeJSONFile(filepath.Join(dir, name), res); err != nil {
		s.logger.WithError(err).Warn("could not write analysis snapshot")
	}
}
