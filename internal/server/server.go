// Package server exposes the published catalog read-only over HTTP and
// accepts replacement datasets on POST /v1/dataset.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gojson "github.com/goccy/go-json"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mcs-education/starcat"
	"github.com/mcs-education/starcat/internal/config"
	"github.com/mcs-education/starcat/model"
)

// Server serves a catalog over HTTP.
type Server struct {
	cat    *starcat.Catalog
	cfg    *config.Config
	rl     *RateLimiter
	router chi.Router
	log    *slog.Logger
}

// New wires the routes for cat.
func New(cat *starcat.Catalog, cfg *config.Config) *Server {
	s := &Server{
		cat: cat,
		cfg: cfg,
		rl:  NewRateLimiter(cfg.RateLimit),
		log: slog.With("component", "server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.newCORS().Handler)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/dataset", s.getDataset)
		r.With(s.rl.Middleware).Post("/dataset", s.postDataset)
		r.Get("/systems", s.listSystems)
		r.Get("/systems/{name}", s.getSystem)
		r.Get("/warnings", s.listWarnings)
	})
	return r
}

func (s *Server) newCORS() *cors.Cors {
	methods := []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	s.log.Debug("CORS middleware configured",
		"allowed_origins", s.cfg.Server.AllowedOrigins,
		"allowed_methods", methods,
		"debug_mode", s.cfg.Server.CORSDebug,
	)
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: methods,
		AllowedHeaders: []string{"Content-Type"},
		Debug:          s.cfg.Server.CORSDebug,
	})
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "starcat",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	if s.cfg.RateLimit.Enabled {
		go s.rl.Cleanup(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type datasetSummary struct {
	ID          string      `json:"id"`
	Generation  uint64      `json:"generation"`
	LoadedAt    time.Time   `json:"loadedAt"`
	Source      string      `json:"source"`
	Fingerprint string      `json:"fingerprint"`
	Meta        *model.Meta `json:"meta,omitempty"`
	Systems     int         `json:"systems"`
	Bodies      int         `json:"bodies"`
	Warnings    int         `json:"warnings"`
}

func summarize(snap *starcat.Snapshot) datasetSummary {
	return datasetSummary{
		ID:          snap.ID.String(),
		Generation:  snap.Generation,
		LoadedAt:    snap.LoadedAt,
		Source:      snap.Source,
		Fingerprint: snap.Fingerprint,
		Meta:        snap.Dataset.Meta,
		Systems:     len(snap.Dataset.Systems),
		Bodies:      snap.Dataset.BodyCount(),
		Warnings:    len(snap.Warnings),
	}
}

type systemSummary struct {
	Name          string               `json:"name"`
	DisplayName   string               `json:"displayName,omitempty"`
	Category      model.Category       `json:"category"`
	Stars         int                  `json:"stars"`
	Planets       int                  `json:"planets"`
	Bodies        int                  `json:"bodies"`
	HabitableZone *model.HabitableZone `json:"habitableZone,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := s.cat.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "empty"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "generation": snap.Generation})
}

func (s *Server) current(w http.ResponseWriter) *starcat.Snapshot {
	snap := s.cat.Current()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no dataset loaded")
	}
	return snap
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	if snap := s.current(w); snap != nil {
		writeJSON(w, http.StatusOK, summarize(snap))
	}
}

func (s *Server) listSystems(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	out := make([]systemSummary, 0, len(snap.Dataset.Systems))
	for i := range snap.Dataset.Systems {
		sys := &snap.Dataset.Systems[i]
		out = append(out, systemSummary{
			Name:          sys.Name,
			DisplayName:   sys.DisplayName,
			Category:      sys.Category,
			Stars:         len(sys.Stars),
			Planets:       len(sys.Planets),
			Bodies:        sys.BodyCount(),
			HabitableZone: sys.HabitableZone,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSystem(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	sys, ok := snap.Dataset.System(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "system not found")
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

func (s *Server) listWarnings(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	warnings := snap.Warnings
	if warnings == nil {
		warnings = starcat.Issues{}
	}
	writeJSON(w, http.StatusOK, warnings)
}

func (s *Server) postDataset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	snap, err := s.cat.Load(r.Context(), starcat.JSONBytes(body))
	if err != nil {
		if iss, ok := starcat.AsIssues(err); ok && starcat.IsFatal(err) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": iss[0]})
			return
		}
		s.log.Error("Dataset load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}
	writeJSON(w, http.StatusCreated, summarize(snap))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := gojson.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"message": msg}})
}
