package ingest

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// Server accepts wide rows over HTTP and hands them to a sink.
type Server struct {
	secret  string
	sink    Sink
	limiter *rate.Limiter
	log     *zap.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRateLimit caps accepted append requests per second. Zero disables it.
func WithRateLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithServerLogger sets the logger.
func WithServerLogger(log *zap.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// NewServer creates a server. An empty secret rejects every append.
func NewServer(secret string, sink Sink, opts ...ServerOption) *Server {
	s := &Server{secret: secret, sink: sink, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get(HealthPath, s.handleHealth)
	r.With(s.rateLimit).Post(AppendPath, s.handleAppend)
	return r
}

// HTTPServer wraps the handler with the collector's timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.sink.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, Response{OK: true})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r.Header.Get(APIKeyHeader)) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var p Payload
	if err := readJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Bad payload")
		return
	}
	row, err := p.decodeRow()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad payload")
		return
	}

	if err := s.sink.Append(r.Context(), p.Headers, row); err != nil {
		s.log.Error("append failed", zap.String("component", "ingest"), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.log.Info("row_appended",
		zap.String("component", "ingest"),
		zap.Any("resp_id", row["resp_id"]),
		zap.Int("columns", len(p.Headers)))
	writeJSON(w, http.StatusOK, Response{OK: true})
}

func (s *Server) authorized(key string) bool {
	if s.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.secret)) == 1
}

// ListenAndServe runs the server until ctx is cancelled, then shuts it down
// gracefully.
func ListenAndServe(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
