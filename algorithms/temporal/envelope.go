package temporal

import (
	"math"
)

// Envelope provides amplitude envelope extraction
type Envelope struct {
	// No state needed - stateless calculation
}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputeRMS computes RMS envelope with given frame and hop sizes.
// Only full frames are produced.
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) < frameSize || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)

	for i := range numFrames {
		startIdx := i * hopSize
		endIdx := startIdx + frameSize

		sumSquares := 0.0
		for j := startIdx; j < endIdx; j++ {
			sumSquares += signal[j] * signal[j]
		}
		envelope[i] = math.Sqrt(sumSquares / float64(frameSize))
	}

	return envelope
}

// ComputeLogCompressed maps an envelope through log(1 + gain*x).
// Compression keeps clipped or very loud passages from dominating peak picking.
func (e *Envelope) ComputeLogCompressed(envelope []float64, gain float64) []float64 {
	compressed := make([]float64, len(envelope))
	for i, v := range envelope {
		compressed[i] = math.Log1p(gain * v)
	}
	return compressed
}

// PositiveDifference returns the half-wave rectified first difference.
// Element i holds max(0, x[i+1]-x[i]).
func (e *Envelope) PositiveDifference(envelope []float64) []float64 {
	if len(envelope) < 2 {
		return []float64{}
	}

	diff := make([]float64, len(envelope)-1)
	for i := range diff {
		d := envelope[i+1] - envelope[i]
		if d > 0 {
			diff[i] = d
		}
	}
	return diff
}
