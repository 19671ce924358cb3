// Package preview serves a built output tree over HTTP for local review.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"

	ferrors "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
	"git.home.luguber.info/inful/sitebundle/internal/report"
)

// Options configures optional preview endpoints.
type Options struct {
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// ReportDir, when set, exposes the last build report at /_build/report.
	ReportDir string
}

// Server serves the output directory.
type Server struct {
	Addr   string
	fs     afero.Fs
	dir    string
	opts   Options
	router *chi.Mux
	server *http.Server
}

// NewServer creates a preview server for dir on fs.
func NewServer(addr string, fs afero.Fs, dir string, opts Options) *Server {
	s := &Server{
		Addr:   addr,
		fs:     fs,
		dir:    dir,
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	if s.opts.ReportDir != "" {
		s.router.Get("/_build/report", s.handleReport)
	}

	static := &staticHandler{fs: s.fs, root: s.dir}
	s.router.Method(http.MethodGet, "/*", static)
	s.router.Method(http.MethodHead, "/*", static)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", logfields.URL("http://"+s.Addr), logfields.Path(s.dir))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "preview server failed").
			WithContext("addr", s.Addr).Build()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	rep, err := report.Load(s.fs, s.opts.ReportDir)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		code := http.StatusInternalServerError
		if ferrors.HasCategory(err, ferrors.CategoryNotFound) {
			code = http.StatusNotFound
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(rep)
}

// requestLogger logs method, path, status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Debug("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.HTTPStatus(status),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	})
}
