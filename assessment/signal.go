package assessment

import "context"

// AudioSignal is mono PCM in [-1, 1] plus its sample rate. The engine never
// modifies Samples.
type AudioSignal struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// Duration returns the signal length in seconds
func (s *AudioSignal) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Decoder turns uploaded file bytes into a mono AudioSignal.
// Failures should be reported as *AudioDecodeError.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*AudioSignal, error)
}

// Transcriber produces a transcript for a signal. The engine never calls it;
// Service does when a request carries expected text but no transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, signal *AudioSignal) (string, error)
}
