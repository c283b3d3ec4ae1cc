// Package server exposes the conversion pipeline as an HTTP service: multipart
// PDF upload, tracked jobs with progress, result download and a health probe
// that checks the poppler toolkit is available.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deckwash/deckwash/convert"
	"gorm.io/gorm"
)

// DefaultPort is the conventional port of the upstream deployment.
const DefaultPort = 7860

const defaultMaxUploadBytes = 200 << 20

// Config holds service settings.
type Config struct {
	Port    int
	DataDir string

	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// PortFromEnv returns port from `PORT` environment variable, or the default
// port when unset or malformed.
func PortFromEnv() int {
	if value := os.Getenv("PORT"); value != "" {
		if port, err := strconv.Atoi(value); err == nil && port > 0 {
			return port
		}
	}

	return DefaultPort
}

// Server wraps the HTTP server and conversion dependencies.
type Server struct {
	cfg      Config
	pipeline *convert.Pipeline
	// reports whether external tools needed by the pipeline are usable
	toolCheck func() error

	jobs *jobManager
	db   *gorm.DB

	server *http.Server
	mux    *http.ServeMux
}

// New constructs a server with routes registered. db may be nil, in which
// case no conversion history is persisted.
func New(cfg Config, pipeline *convert.Pipeline, toolCheck func() error, db *gorm.DB) (*Server, error) {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	for _, sub := range []string{"uploads", "results"} {
		dir := filepath.Join(cfg.DataDir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %s", dir, err)
		}
	}

	srv := &Server{
		cfg:       cfg,
		pipeline:  pipeline,
		toolCheck: toolCheck,
		jobs:      newJobManager(),
		db:        db,
		mux:       http.NewServeMux(),
	}
	srv.registerRoutes()

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           loggingMiddleware(srv.mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv, nil
}

// Run starts the HTTP server and blocks until the context is canceled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Infof("service listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %s", err)
	}

	log.Info("service stopped")

	return nil
}

func (s *Server) uploadPath(jobID string) string {
	return filepath.Join(s.cfg.DataDir, "uploads", jobID+".pdf")
}

func (s *Server) resultPath(jobID string, format string) string {
	return filepath.Join(s.cfg.DataDir, "results", jobID+"."+format)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Infof("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
