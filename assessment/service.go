package assessment

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/RyanBlaney/sonido-meter/assessment/config"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// Recorder receives service-level measurements
type Recorder interface {
	RecordAnalysis(ctx context.Context, category, status string, elapsed time.Duration)
	RecordDecode(ctx context.Context, format string, elapsed time.Duration)
	AddInflight(ctx context.Context, delta int64)
}

// FormatDetector is implemented by decoders that can name the container of raw bytes
type FormatDetector interface {
	DetectFormat(data []byte) string
}

// Analysis outcome labels used for metrics
const (
	StatusOK          = "ok"
	StatusDecodeError = "decode_error"
	StatusTimeout     = "timeout"
	StatusError       = "error"
)

// ServiceConfig bounds the worker pool
type ServiceConfig struct {
	Workers        int           `json:"workers" yaml:"workers" mapstructure:"workers"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
}

// DefaultServiceConfig uses one worker per CPU and a 60 second timeout
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Workers:        runtime.NumCPU(),
		RequestTimeout: 60 * time.Second,
	}
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithDecoder sets the decoder used by AnalyzeAudio
func WithDecoder(d Decoder) ServiceOption {
	return func(s *Service) { s.decoder = d }
}

// WithTranscriber enables transcription of requests that have expected text but no transcript
func WithTranscriber(t Transcriber) ServiceOption {
	return func(s *Service) { s.transcriber = t }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// AudioRequest is an analysis of raw uploaded bytes
type AudioRequest struct {
	RequestID       string
	Data            []byte
	Category        string
	ExpectedText    string
	TranscribedText string
}

// SignalRequest is an analysis of an already decoded signal
type SignalRequest struct {
	RequestID       string
	Signal          *AudioSignal
	Category        string
	ExpectedText    string
	TranscribedText string
}

// Service runs engine analyses on a bounded worker pool with a per-request
// timeout. A timed out analysis is reported as a *ProcessingError and never retried.
type Service struct {
	engine      *Engine
	decoder     Decoder
	transcriber Transcriber
	recorder    Recorder

	workers int64
	timeout time.Duration
	sem     *semaphore.Weighted
	closed  atomic.Bool

	logger logging.Logger
}

// NewService creates a service around engine
func NewService(engine *Engine, cfg ServiceConfig, opts ...ServiceOption) *Service {
	workers := int64(max(1, cfg.Workers))
	s := &Service{
		engine:  engine,
		workers: workers,
		timeout: cfg.RequestTimeout,
		sem:     semaphore.NewWeighted(workers),
		logger: logging.WithFields(logging.Fields{
			"component": "assessment_service",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeAudio decodes data and analyzes it
func (s *Service) AnalyzeAudio(ctx context.Context, req AudioRequest) (*AnalysisResult, error) {
	if s.decoder == nil {
		return nil, fmt.Errorf("no audio decoder configured")
	}

	return s.run(ctx, req.RequestID, req.Category, func(ctx context.Context) (*AnalysisResult, error) {
		sig, err := s.decode(ctx, req.Data)
		if err != nil {
			return nil, err
		}
		return s.analyze(ctx, SignalRequest{
			Signal:          sig,
			Category:        req.Category,
			ExpectedText:    req.ExpectedText,
			TranscribedText: req.TranscribedText,
		})
	})
}

// AnalyzeSignal analyzes an already decoded signal
func (s *Service) AnalyzeSignal(ctx context.Context, req SignalRequest) (*AnalysisResult, error) {
	return s.run(ctx, req.RequestID, req.Category, func(ctx context.Context) (*AnalysisResult, error) {
		return s.analyze(ctx, req)
	})
}

// Close stops accepting requests and waits for in-flight analyses
func (s *Service) Close(ctx context.Context) error {
	s.closed.Store(true)
	if err := s.sem.Acquire(ctx, s.workers); err != nil {
		return fmt.Errorf("waiting for in-flight analyses: %w", err)
	}
	s.sem.Release(s.workers)
	return nil
}

// Ready reports ErrServiceClosed once Close has been called
func (s *Service) Ready(_ context.Context) error {
	if s.closed.Load() {
		return ErrServiceClosed
	}
	return nil
}

// run acquires a worker, applies the timeout and executes work in its own
// goroutine so a stuck analysis cannot hold the caller past the deadline.
// The worker slot is held until the work actually returns.
func (s *Service) run(ctx context.Context, requestID, category string, work func(context.Context) (*AnalysisResult, error)) (*AnalysisResult, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx = logging.ContextWithFields(ctx, logging.Fields{"request_id": requestID})
	logger := s.logger.WithContext(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		perr := &ProcessingError{Stage: "queue", Err: err}
		s.record(ctx, category, perr, start)
		return nil, perr
	}

	s.inflight(ctx, 1)

	type outcome struct {
		result *AnalysisResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer s.sem.Release(1)
		defer s.inflight(context.WithoutCancel(ctx), -1)
		result, err := work(ctx)
		done <- outcome{result: result, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{err: &ProcessingError{Stage: "analyze", Err: ctx.Err()}}
	}

	if out.err != nil {
		s.record(ctx, category, out.err, start)
		logger.Error(out.err, "Analysis failed", logging.Fields{
			"function":   "run",
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return nil, out.err
	}

	out.result.RequestID = requestID
	s.record(ctx, category, nil, start)
	return out.result, nil
}

func (s *Service) decode(ctx context.Context, data []byte) (*AudioSignal, error) {
	format := "unknown"
	if fd, ok := s.decoder.(FormatDetector); ok {
		format = fd.DetectFormat(data)
	}

	start := time.Now()
	sig, err := s.decoder.Decode(ctx, data)
	if s.recorder != nil {
		s.recorder.RecordDecode(context.WithoutCancel(ctx), format, time.Since(start))
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ProcessingError{Stage: "decode", Err: ctxErr}
		}
		var decodeErr *AudioDecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, &AudioDecodeError{Format: format, Err: err}
	}
	if sig == nil || sig.SampleRate <= 0 {
		return nil, &AudioDecodeError{Format: format, Err: ErrInvalidSignal}
	}
	return sig, nil
}

// analyze fills in a missing transcript when it can, then runs the engine
func (s *Service) analyze(ctx context.Context, req SignalRequest) (*AnalysisResult, error) {
	engineReq := Request{
		Signal:          req.Signal,
		Category:        req.Category,
		ExpectedText:    req.ExpectedText,
		TranscribedText: req.TranscribedText,
	}

	if s.transcriber != nil && strings.TrimSpace(req.ExpectedText) != "" && strings.TrimSpace(req.TranscribedText) == "" {
		transcript, err := s.transcriber.Transcribe(ctx, req.Signal)
		switch {
		case err == nil:
			engineReq.TranscribedText = transcript
		case ctx.Err() != nil:
			return nil, &ProcessingError{Stage: "transcribe", Err: ctx.Err()}
		default:
			s.logger.WithContext(ctx).Warn("Transcription failed, continuing without transcript", logging.Fields{
				"function": "analyze",
				"error":    err.Error(),
			})
			engineReq.Warnings = append(engineReq.Warnings, fmt.Sprintf("transcription failed: %v", err))
		}
	}

	return s.engine.Analyze(ctx, engineReq)
}

func (s *Service) record(ctx context.Context, category string, err error, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordAnalysis(context.WithoutCancel(ctx), config.Category(category).Key, Status(err), time.Since(start))
}

func (s *Service) inflight(ctx context.Context, delta int64) {
	if s.recorder != nil {
		s.recorder.AddInflight(ctx, delta)
	}
}

// Status maps an analysis error to its metrics label
func Status(err error) string {
	var decodeErr *AudioDecodeError
	switch {
	case err == nil:
		return StatusOK
	case errors.As(err, &decodeErr):
		return StatusDecodeError
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}
