package filters

import (
	"math"
	"testing"
)

func TestDCRemoval_RemovesOffset(t *testing.T) {
	t.Parallel()

	const sampleRate = 16000
	input := make([]float64, sampleRate)
	for i := range input {
		input[i] = 0.3 + 0.2*math.Sin(2*math.Pi*440*float64(i)/sampleRate)
	}

	dc := NewDCRemovalWithCutoff(sampleRate, 20)
	output := dc.ProcessBuffer(input)

	// mean of the settled second half
	mean := 0.0
	for _, v := range output[sampleRate/2:] {
		mean += v
	}
	mean /= float64(sampleRate / 2)
	if math.Abs(mean) > 0.01 {
		t.Errorf("residual DC = %v, want about 0", mean)
	}
}

func TestDCRemoval_ProcessBufferResets(t *testing.T) {
	t.Parallel()

	dc := NewDCRemoval()
	input := []float64{1, 1, 1, 1}

	first := dc.ProcessBuffer(input)
	second := dc.ProcessBuffer(input)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
	if input[0] != 1 {
		t.Error("ProcessBuffer modified its input")
	}
}

func TestNewDCRemovalWithCutoff(t *testing.T) {
	t.Parallel()

	dc := NewDCRemovalWithCutoff(16000, 20)
	want := 1 - 2*math.Pi*20/16000
	if math.Abs(dc.PoleLocation()-want) > 1e-12 {
		t.Errorf("PoleLocation = %v, want %v", dc.PoleLocation(), want)
	}

	if got := NewDCRemovalWithCutoff(0, 20).PoleLocation(); got != 0.995 {
		t.Errorf("invalid sample rate pole = %v, want the 0.995 default", got)
	}
}
