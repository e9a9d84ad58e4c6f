package assessment

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientAudio marks a result computed from too little audio.
	// It is reported through AnalysisResult.Warnings, never returned.
	ErrInsufficientAudio = errors.New("insufficient audio for a reliable analysis")

	// ErrInvalidSignal is returned for a nil signal or a non-positive sample rate
	ErrInvalidSignal = errors.New("invalid audio signal")

	// ErrServiceClosed is returned by Service after Close
	ErrServiceClosed = errors.New("assessment service closed")
)

// AudioDecodeError reports unreadable or corrupt input. It is fatal for the
// request and never retried.
type AudioDecodeError struct {
	Format string
	Err    error
}

func (e *AudioDecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("audio decode failed: %v", e.Err)
	}
	return fmt.Sprintf("audio decode failed (%s): %v", e.Format, e.Err)
}

func (e *AudioDecodeError) Unwrap() error {
	return e.Err
}

// ProcessingError reports an analysis that could not complete, e.g. it timed
// out or was cancelled. Callers decide whether to retry.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
