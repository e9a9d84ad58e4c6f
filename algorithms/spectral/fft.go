package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes Fast Fourier Transform using mjibson/go-dsp.
// go-dsp handles non power-of-two sizes.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// MagnitudeSpectrum returns |X[k]| for the non-negative frequency bins (n/2+1)
func (f *FFT) MagnitudeSpectrum(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := fft.FFTReal(x)
	bins := len(spectrum)/2 + 1
	magnitude := make([]float64, bins)
	for i := range bins {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}

	return magnitude
}
