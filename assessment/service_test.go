package assessment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubDecoder struct {
	signal *AudioSignal
	err    error
	block  bool
}

func (d *stubDecoder) Decode(ctx context.Context, data []byte) (*AudioSignal, error) {
	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return d.signal, d.err
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
	mu    sync.Mutex
}

func (s *stubTranscriber) Transcribe(ctx context.Context, signal *AudioSignal) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.text, s.err
}

type stubRecorder struct {
	mu       sync.Mutex
	statuses []string
	decodes  int
	inflight int64
}

func (r *stubRecorder) RecordAnalysis(ctx context.Context, category, status string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *stubRecorder) RecordDecode(ctx context.Context, format string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decodes++
}

func (r *stubRecorder) AddInflight(ctx context.Context, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight += delta
}

func (r *stubRecorder) snapshot() ([]string, int, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...), r.decodes, r.inflight
}

func newTestService(t *testing.T, cfg ServiceConfig, opts ...ServiceOption) *Service {
	t.Helper()
	return NewService(newTestEngine(t), cfg, opts...)
}

func TestService_AnalyzeAudio(t *testing.T) {
	t.Parallel()

	rec := &stubRecorder{}
	svc := newTestService(t, ServiceConfig{Workers: 2, RequestTimeout: 10 * time.Second},
		WithDecoder(&stubDecoder{signal: speechLikeSignal()}),
		WithRecorder(rec),
	)

	result, err := svc.AnalyzeAudio(context.Background(), AudioRequest{Data: []byte("RIFF"), Category: "pitch"})
	if err != nil {
		t.Fatalf("AnalyzeAudio: %v", err)
	}
	if result.RequestID == "" {
		t.Error("RequestID not assigned")
	}
	if result.Category != "pitch" {
		t.Errorf("Category = %q, want pitch", result.Category)
	}

	statuses, decodes, inflight := rec.snapshot()
	if len(statuses) != 1 || statuses[0] != StatusOK || decodes != 1 {
		t.Errorf("recorded statuses %q and %d decodes, want [ok] and 1", statuses, decodes)
	}
	if inflight != 0 {
		t.Errorf("in-flight gauge = %d after completion, want 0", inflight)
	}
}

func TestService_KeepsCallerRequestID(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, DefaultServiceConfig())
	result, err := svc.AnalyzeSignal(context.Background(), SignalRequest{RequestID: "req-42", Signal: speechLikeSignal()})
	if err != nil {
		t.Fatalf("AnalyzeSignal: %v", err)
	}
	if result.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want req-42", result.RequestID)
	}
}

func TestService_Timeout(t *testing.T) {
	t.Parallel()

	rec := &stubRecorder{}
	svc := newTestService(t, ServiceConfig{Workers: 1, RequestTimeout: 50 * time.Millisecond},
		WithDecoder(&stubDecoder{block: true}),
		WithRecorder(rec),
	)

	start := time.Now()
	_, err := svc.AnalyzeAudio(context.Background(), AudioRequest{Data: []byte{1, 2, 3}})
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout was not applied")
	}

	var perr *ProcessingError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProcessingError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want it to wrap context.DeadlineExceeded", err)
	}
	if Status(err) != StatusTimeout {
		t.Errorf("Status = %q, want timeout", Status(err))
	}
}

func TestService_DecodeError(t *testing.T) {
	t.Parallel()

	rec := &stubRecorder{}
	svc := newTestService(t, DefaultServiceConfig(),
		WithDecoder(&stubDecoder{err: errors.New("not audio")}),
		WithRecorder(rec),
	)

	_, err := svc.AnalyzeAudio(context.Background(), AudioRequest{Data: []byte("garbage")})
	var derr *AudioDecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *AudioDecodeError", err)
	}

	statuses, _, _ := rec.snapshot()
	if len(statuses) != 1 || statuses[0] != StatusDecodeError {
		t.Errorf("recorded statuses %q, want [decode_error]", statuses)
	}
}

func TestService_NilSignalIsDecodeError(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, DefaultServiceConfig(), WithDecoder(&stubDecoder{}))

	_, err := svc.AnalyzeAudio(context.Background(), AudioRequest{Data: []byte("x")})
	var derr *AudioDecodeError
	if !errors.As(err, &derr) || !errors.Is(err, ErrInvalidSignal) {
		t.Fatalf("error = %v, want *AudioDecodeError wrapping ErrInvalidSignal", err)
	}
}

func TestService_Transcription(t *testing.T) {
	t.Parallel()

	tr := &stubTranscriber{text: "the quick brown fox"}
	svc := newTestService(t, DefaultServiceConfig(), WithTranscriber(tr))

	result, err := svc.AnalyzeSignal(context.Background(), SignalRequest{
		Signal:       speechLikeSignal(),
		ExpectedText: "the quick brown fox",
	})
	if err != nil {
		t.Fatalf("AnalyzeSignal: %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("transcriber called %d times, want 1", tr.calls)
	}
	if result.WordAlignment == nil || result.WordAccuracy != 1 {
		t.Errorf("expected a perfect alignment from the transcript, got %+v", result.WordAlignment)
	}

	// a supplied transcript wins
	if _, err := svc.AnalyzeSignal(context.Background(), SignalRequest{
		Signal:          speechLikeSignal(),
		ExpectedText:    "the quick brown fox",
		TranscribedText: "the quick brown fox",
	}); err != nil {
		t.Fatalf("AnalyzeSignal: %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("transcriber called %d times, want it skipped when a transcript is supplied", tr.calls)
	}
}

func TestService_TranscriptionFailureIsAWarning(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, DefaultServiceConfig(), WithTranscriber(&stubTranscriber{err: errors.New("asr unavailable")}))

	result, err := svc.AnalyzeSignal(context.Background(), SignalRequest{
		Signal:       speechLikeSignal(),
		ExpectedText: "the quick brown fox",
	})
	if err != nil {
		t.Fatalf("AnalyzeSignal: %v", err)
	}
	if len(result.Warnings) < 2 {
		t.Errorf("Warnings = %q, want transcription and alignment warnings", result.Warnings)
	}
}

func TestService_Closed(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, DefaultServiceConfig())
	if err := svc.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := svc.AnalyzeSignal(context.Background(), SignalRequest{Signal: speechLikeSignal()}); !errors.Is(err, ErrServiceClosed) {
		t.Errorf("error = %v, want ErrServiceClosed", err)
	}
}

func TestService_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, ServiceConfig{Workers: 2, RequestTimeout: 30 * time.Second})

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AnalyzeSignal(context.Background(), SignalRequest{Signal: speechLikeSignal()})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent analysis failed: %v", err)
		}
	}
}
