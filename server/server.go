// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/RyanBlaney/sonido-meter/assessment"
	engineconfig "github.com/RyanBlaney/sonido-meter/assessment/config"
	"github.com/RyanBlaney/sonido-meter/config"
	"github.com/RyanBlaney/sonido-meter/logging"
	"github.com/RyanBlaney/sonido-meter/observe"
)

// multipartMemory is kept in memory before form files spill to disk
const multipartMemory = 8 << 20

// Option configures a Server
type Option func(*Server)

// WithMetrics records request latency into m
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithCheckers adds readiness checks to /readyz
func WithCheckers(checkers ...Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, checkers...) }
}

// Server routes HTTP requests to an assessment.Service
type Server struct {
	cfg            config.ServerConfig
	service        *assessment.Service
	metrics        *observe.Metrics
	metricsHandler http.Handler
	checkers       []Checker
	logger         logging.Logger
}

// New creates a server. The service readiness is always checked by /readyz.
func New(cfg config.ServerConfig, service *assessment.Service, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		checkers: []Checker{
			{Name: "service", Check: service.Ready},
		},
		logger: logging.WithFields(logging.Fields{
			"component": "http_server",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed and instrumented handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/analyze", s.analyze)
	mux.HandleFunc("GET /api/v1/categories", s.categories)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	return observe.Middleware(s.metrics)(mux)
}

// ListenAndServe serves until ctx is cancelled, then drains connections and
// waits for in-flight analyses.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{"addr": ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx := context.WithoutCancel(ctx)
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := s.service.Close(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// analyze handles the multipart upload: audio_file, category, expected_text, transcribed_text
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	requestID := observe.RequestID(r)
	logger := s.logger.WithContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, requestID, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, http.StatusBadRequest, requestID, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("audio_file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, requestID, fmt.Errorf("missing audio_file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, requestID, fmt.Errorf("read audio_file: %w", err))
		return
	}

	result, err := s.service.AnalyzeAudio(r.Context(), assessment.AudioRequest{
		RequestID:       requestID,
		Data:            data,
		Category:        strings.TrimSpace(r.FormValue("category")),
		ExpectedText:    r.FormValue("expected_text"),
		TranscribedText: r.FormValue("transcribed_text"),
	})
	if err != nil {
		status := statusCode(err)
		if status >= http.StatusInternalServerError {
			logger.Error(err, "Analysis request failed", logging.Fields{"function": "analyze", "status": status})
		}
		s.writeError(w, status, requestID, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// categories lists the rate profiles in display order
func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": engineconfig.Categories()})
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, requestID string, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: requestID})
}

// statusCode maps service errors to HTTP statuses
func statusCode(err error) int {
	if errors.Is(err, assessment.ErrServiceClosed) {
		return http.StatusServiceUnavailable
	}
	switch assessment.Status(err) {
	case assessment.StatusDecodeError:
		return http.StatusUnprocessableEntity
	case assessment.StatusTimeout:
		return http.StatusGatewayTimeout
	default:
		if errors.Is(err, context.Canceled) {
			// client went away
			return 499
		}
		return http.StatusInternalServerError
	}
}
