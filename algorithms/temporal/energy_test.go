package temporal

import (
	"math"
	"testing"
)

func TestEnvelope(t *testing.T) {
	t.Parallel()

	e := NewEnvelope()

	rms := e.ComputeRMS([]float64{1, -1, 1, -1, 0, 0, 0, 0}, 4, 2)
	want := []float64{1, math.Sqrt(0.5), 0}
	if len(rms) != len(want) {
		t.Fatalf("ComputeRMS returned %d frames, want %d", len(rms), len(want))
	}
	for i := range want {
		if math.Abs(rms[i]-want[i]) > 1e-12 {
			t.Errorf("frame %d = %v, want %v", i, rms[i], want[i])
		}
	}

	if got := e.ComputeRMS([]float64{1, 2}, 4, 2); len(got) != 0 {
		t.Errorf("short signal produced %d frames", len(got))
	}

	diff := e.PositiveDifference([]float64{0, 1, 0.5, 2})
	if diff[0] != 1 || diff[1] != 0 || diff[2] != 1.5 {
		t.Errorf("PositiveDifference = %v, want [1 0 1.5]", diff)
	}

	compressed := e.ComputeLogCompressed([]float64{0, 1}, 100)
	if compressed[0] != 0 || math.Abs(compressed[1]-math.Log(101)) > 1e-12 {
		t.Errorf("ComputeLogCompressed = %v", compressed)
	}
}

func TestEnergy_VolumeProfile(t *testing.T) {
	t.Parallel()

	signal, _ := bursts(16000, 8, 0.5, 3.0)
	e := NewEnergy(400, 200, 16000)

	vp := e.ComputeVolumeProfile(signal, -100, 100)
	if len(vp.Profile) != 100 {
		t.Fatalf("profile has %d points, want 100", len(vp.Profile))
	}
	if vp.MinDb != -100 {
		t.Errorf("MinDb = %v, want the -100 floor", vp.MinDb)
	}
	// a 0.5 amplitude sine has RMS 0.354, about -9 dBFS
	if math.Abs(vp.MaxDb-(-9.0)) > 0.5 {
		t.Errorf("MaxDb = %v, want about -9", vp.MaxDb)
	}
	if vp.AvgDb <= vp.MinDb || vp.AvgDb >= vp.MaxDb {
		t.Errorf("AvgDb = %v outside (%v, %v)", vp.AvgDb, vp.MinDb, vp.MaxDb)
	}

	empty := e.ComputeVolumeProfile(nil, -100, 100)
	if empty.MinDb != -100 || len(empty.Profile) != 0 {
		t.Errorf("empty volume profile = %+v", empty)
	}
}

func TestEnergy_ActiveFramePercentage(t *testing.T) {
	t.Parallel()

	e := NewEnergy(400, 200, 16000)

	if got := e.ActiveFramePercentage(make([]float64, 16000), 0.2); got != 0 {
		t.Errorf("silence = %v%%, want 0", got)
	}

	signal, _ := bursts(16000, 8, 0.5, 3.0)
	got := e.ActiveFramePercentage(signal, 0.2)
	if got < 35 || got > 55 {
		t.Errorf("bursts = %v%%, want roughly the 40%% tone share", got)
	}
}
