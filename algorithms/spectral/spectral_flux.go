package spectral

import (
	"math"
)

// SpectralFlux computes spectral flux (measure of spectral change)
type SpectralFlux struct {
	// No state needed - operates on a whole spectrogram
}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute calculates half-wave rectified spectral flux for a spectrogram.
// Element t-1 measures the increase from frame t-1 to frame t.
func (sf *SpectralFlux) Compute(spectrogram [][]float64) []float64 {
	if len(spectrogram) < 2 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-1)

	for t := 1; t < len(spectrogram); t++ {
		sum := 0.0
		for f := 0; f < len(spectrogram[t]); f++ {
			diff := spectrogram[t][f] - spectrogram[t-1][f]
			if diff > 0 { // Only positive changes (energy increases)
				sum += diff * diff
			}
		}
		flux[t-1] = math.Sqrt(sum)
	}

	return flux
}

// LogCompress applies log(1 + gain*|X|) to every bin, returning a new spectrogram
func (sf *SpectralFlux) LogCompress(spectrogram [][]float64, gain float64) [][]float64 {
	compressed := make([][]float64, len(spectrogram))
	for t, frame := range spectrogram {
		compressed[t] = make([]float64, len(frame))
		for f, v := range frame {
			compressed[t][f] = math.Log1p(gain * v)
		}
	}
	return compressed
}
