// Package httpapi serves association registration and verification status over HTTP.
package httpapi

import (
	"AssocVerify/internal/core/ports"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of the status API routes.
type Handler struct {
	repo     ports.VerificationRepository
	health   Pinger
	validate *requestValidator
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandler creates the status API. health may be nil.
func NewHandler(repo ports.VerificationRepository, health Pinger, baseLogger *zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		health:   health,
		validate: newRequestValidator(),
		now:      time.Now,
		log:      baseLogger.With().Str("component", "status_api").Logger(),
	}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)

	r.Get("/healthz", h.healthz)
	r.Post("/associations", h.register)
	r.Get("/verification/{id}", h.getStatus)
	r.Post("/verification/{id}/resolve", h.resolve)
	return r
}

// accessLog logs method, path, status and elapsed time per request.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		evt := h.log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			evt = h.log.Warn()
		}
		evt.Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request done")
	})
}

// Server is a thin wrapper over http.Server with graceful shutdown.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

func NewServer(addr string, handler http.Handler, baseLogger *zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: baseLogger.With().Str("component", "http_server").Logger(),
	}
}

// Run serves until ctx is cancelled, then shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("http listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
