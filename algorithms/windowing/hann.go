package windowing

import (
	"fmt"
	"math"
)

// Hann is a Hann window with precomputed coefficients. Safe for concurrent
// use once constructed since ApplyInPlace only reads the coefficients.
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window. Periodic (symmetric=false) suits STFT framing.
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1.0
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// ApplyInPlace applies the window to a frame in-place
func (h *Hann) ApplyInPlace(frame []float64) error {
	if len(frame) != h.size {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), h.size)
	}

	for i, c := range h.coefficients {
		frame[i] *= c
	}

	return nil
}

// Size returns the window size
func (h *Hann) Size() int {
	return h.size
}
