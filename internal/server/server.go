package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/generative-proxy/internal/config"
	"github.com/jonathan/generative-proxy/internal/fetch"
	"github.com/jonathan/generative-proxy/internal/logging"
	"github.com/jonathan/generative-proxy/internal/metrics"
	"github.com/jonathan/generative-proxy/internal/rewriting"
	"github.com/jonathan/generative-proxy/internal/server/middleware"
	"github.com/jonathan/generative-proxy/internal/server/ratelimit"
	"github.com/jonathan/generative-proxy/internal/store"
)

// maxAdminBodyBytes caps admin request bodies.
const maxAdminBodyBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         *config.Config
	settings    *store.Settings
	pipeline    *rewriting.Pipeline
	origin      *fetch.Client
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// Deps are the collaborators of a Server. Settings and Pipeline are required.
type Deps struct {
	Settings    *store.Settings
	Pipeline    *rewriting.Pipeline
	Origin      *fetch.Client      // defaults to a non-redirecting client with the upstream timeout
	RateLimiter *ratelimit.Limiter // defaults to ratelimit.LoadConfig()
	Metrics     *metrics.Metrics   // nil disables /_generative/metrics
	Logger      *slog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("configuration store is required")
	}
	if deps.Pipeline == nil {
		return nil, errors.New("rewrite pipeline is required")
	}

	s := &Server{
		cfg:         cfg,
		settings:    deps.Settings,
		pipeline:    deps.Pipeline,
		origin:      deps.Origin,
		rateLimiter: deps.RateLimiter,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.origin == nil {
		s.origin = fetch.NewClient(&fetch.Options{Timeout: cfg.UpstreamTimeout()})
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}

	if cfg.JWTSecret != "" {
		jwtConfig, err := cfg.JWT()
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT config: %w", err)
		}
		s.jwtService = NewJWTService(jwtConfig)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout() + 3*cfg.ProviderTimeout() + 10*time.Second, // origin fetch plus a full provider chain
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	var tokens middleware.TokenValidator
	if s.jwtService != nil {
		tokens = s.jwtService.AsTokenValidator()
	}
	admin := middleware.AdminAuth(s.cfg.AdminAuth(), tokens)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /_generative/health", s.handleHealth)
	mux.Handle("GET /_generative/metrics", s.metrics.Handler())
	mux.HandleFunc("/_generative/", s.handleNotFound)

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.Handle("PUT /api/config/prompt", admin(http.HandlerFunc(s.handleUpdatePrompt)))
	mux.HandleFunc("GET /api/config/personalities", s.handleListPersonalities)
	mux.Handle("PUT /api/config/personalities", admin(http.HandlerFunc(s.handleReplacePersonalities)))
	mux.Handle("POST /api/config/personalities", admin(http.HandlerFunc(s.handleUpsertPersonality)))
	mux.Handle("DELETE /api/config/personalities/{id}", admin(http.HandlerFunc(s.handleDeletePersonality)))
	mux.HandleFunc("/api/", s.handleNotFound)

	mux.HandleFunc("/", s.handleProxy)

	return s.withRateLimit(s.withLogging(s.withCORS(s.withRecover(mux))))
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr, "origin", s.cfg.OriginBaseURL)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()

	s.logger.Info("server stopped")
	return nil
}

// Close stops background work without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers to config API responses and answers their preflight requests.
// Proxied pages keep whatever CORS headers the origin sent.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAPIPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "content-type,"+middleware.HeaderAdminToken)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// requestID returns the id assigned by withLogging.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging assigns a request id and logs each request when it completes.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"request_id", id)
	})
}

// withRecover turns a panic into the generic 500 response.
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("unhandled panic", "path", r.URL.Path, "panic", rec, "request_id", requestID(r.Context()))
				s.internalError(w, fmt.Errorf("%v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.errorResponse(w, http.StatusNotFound, "Not found")
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.jsonResponse(w, http.StatusInternalServerError, map[string]string{
		"error":  "Internal server error",
		"detail": err.Error(),
	})
}

// failure writes err with the status HTTPStatus assigns to it.
func (s *Server) failure(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.internalError(w, err)
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded", "limit", info.Limit, "retry_after", info.RetryAfter)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
