package filters

import (
	"math"
)

// DCRemoval implements a one-pole DC blocking filter.
//
//	y[n] = x[n] - x[n-1] + R * y[n-1]
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	poleLocation float64 // R parameter (0 < R < 1)

	// State variables
	x1 float64 // Previous input sample x[n-1]
	y1 float64 // Previous output sample y[n-1]
}

// NewDCRemoval creates a filter with R = 0.995 (about 8 Hz at 44.1 kHz, 13 Hz at 16 kHz)
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{poleLocation: 0.995}
}

// NewDCRemovalWithCutoff derives R from a -3dB cutoff: R = 1 - 2*pi*fc/fs
func NewDCRemovalWithCutoff(sampleRate int, cutoffFreq float64) *DCRemoval {
	dc := NewDCRemoval()
	if sampleRate > 0 && cutoffFreq > 0 {
		r := 1.0 - (2.0 * math.Pi * cutoffFreq / float64(sampleRate))
		dc.poleLocation = math.Min(0.999, math.Max(0.001, r))
	}
	return dc
}

// Process applies DC removal to a single sample
func (dc *DCRemoval) Process(input float64) float64 {
	output := input - dc.x1 + dc.poleLocation*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer filters a whole buffer into a new slice, starting from a clean state
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	dc.Reset()
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state
func (dc *DCRemoval) Reset() {
	dc.x1 = 0.0
	dc.y1 = 0.0
}

// PoleLocation returns the current pole location parameter
func (dc *DCRemoval) PoleLocation() float64 {
	return dc.poleLocation
}
