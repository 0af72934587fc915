// Package api serves stored DBC files over HTTP: upload, decoded views,
// single-field edits, re-encoded downloads and exports.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires every route onto a chi router.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		route := func(method, pattern string, h http.HandlerFunc) {
			r.Method(method, pattern, s.metrics.InstrumentHandler(method, "/api/v1"+pattern, h))
		}

		route(http.MethodGet, "/health", s.handleHealth)

		// Files
		route(http.MethodGet, "/files", s.handleListFiles)
		route(http.MethodPost, "/files", s.handleUpload)
		route(http.MethodGet, "/files/{id}", s.handleGetTable)
		route(http.MethodDelete, "/files/{id}", s.handleDeleteFile)
		route(http.MethodGet, "/files/{id}/raw", s.handleGetRaw)
		route(http.MethodGet, "/files/{id}/export", s.handleExport)
		route(http.MethodGet, "/files/{id}/records", s.handleFindRecords)
		route(http.MethodPatch, "/files/{id}/records/{record}/fields/{field}", s.handleSetField)

		// Schemas
		route(http.MethodGet, "/schemas/{table}/builds", s.handleBuilds)
	})

	return r
}

// StartServer serves the API on the configured address until ctx is
// cancelled, then waits for queued file operations to finish.
func StartServer(ctx context.Context, s *Server, starter ServerStarter) error {
	if starter == nil {
		starter = NewServerStarter()
	}

	addr := s.Addr()
	s.logger.Info("starting dbcforge REST API server", "addr", addr)
	s.logger.Info("metrics available", "url", "http://"+addr+"/metrics")

	err := starter.StartServer(ctx, addr, NewRouter(s))
	s.pool.Wait()
	return err
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}
