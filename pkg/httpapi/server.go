// Package httpapi exposes a Store over HTTP: bucket and folder browsing,
// download redirects to pre-signed URLs, and multipart uploads.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/williamokano/s3compat/pkg/metrics"
	"github.com/williamokano/s3compat/pkg/storage"
)

const (
	DefaultMaxUploadBytes = 512 << 20
	// multipart parts above this size are spooled to disk by net/http
	multipartMemory = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// Server holds the HTTP handlers.
type Server struct {
	store          storage.Store
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	maxUploadBytes int64
	tempDir        string
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps the request body of uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxUploadBytes = n
	}
}

// WithTempDir sets where uploads are spooled before they are sent on.
func WithTempDir(dir string) Option {
	return func(s *Server) {
		s.tempDir = dir
	}
}

// NewServer creates the HTTP layer. m may be nil, which disables /metrics.
func NewServer(store storage.Store, m *metrics.Metrics, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		store:          store,
		metrics:        m,
		logger:         logger.With().Str("component", "httpapi").Logger(),
		maxUploadBytes: DefaultMaxUploadBytes,
		tempDir:        os.TempDir(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/download", s.handleDownload)
	r.Route("/api", func(r chi.Router) {
		r.Get("/buckets", s.handleBuckets)
		r.Get("/files", s.handleFiles)
		r.Post("/upload", s.handleUpload)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
