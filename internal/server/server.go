//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package server exposes the report charts over HTTP as JSON.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/internal/report"
	"github.com/pgEdge/pgedge-etl/pkg/version"
)

// Charts is the reporting surface the server needs.
type Charts interface {
	Chart(ctx context.Context, name string) (report.Chart, error)
	All(ctx context.Context) []report.Chart
}

// Metadata returns the recorded pipeline run metadata.
type Metadata interface {
	Metadata(ctx context.Context) (map[string]string, error)
}

// Server serves the dashboard API.
type Server struct {
	charts Charts
	meta   Metadata
}

// New creates a server. meta may be nil.
func New(charts Charts, meta Metadata) *Server {
	return &Server{charts: charts, meta: meta}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/metadata", s.metadata)
		r.Get("/dashboard", s.dashboard)
		r.Get("/charts", s.chartNames)
		r.Get("/charts/{name}", s.chart)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("Dashboard API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info().Msg("Shutting down dashboard API")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Short(),
	})
}

func (s *Server) metadata(w http.ResponseWriter, r *http.Request) {
	if s.meta == nil {
		respondJSON(w, http.StatusOK, map[string]string{})
		return
	}
	meta, err := s.meta.Metadata(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "METADATA_UNAVAILABLE", "Failed to read run metadata", err)
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.charts.All(r.Context()))
}

func (s *Server) chartNames(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, report.Names())
}

func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, err := s.charts.Chart(r.Context(), name)
	if errors.Is(err, report.ErrUnknownChart) {
		respondError(w, http.StatusNotFound, "UNKNOWN_CHART", "No chart named "+name, nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "CHART_FAILED", "Failed to build chart", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
