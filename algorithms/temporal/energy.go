package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-meter/algorithms/common"
)

// Energy computes frame energy features used for loudness reporting
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
	envelope   *Envelope
}

// VolumeProfile summarizes loudness over a recording in dBFS
type VolumeProfile struct {
	MinDb   float64   `json:"volume_min_db"`
	MaxDb   float64   `json:"volume_max_db"`
	AvgDb   float64   `json:"volume_avg_db"`
	Profile []float64 `json:"volume_data"`
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
		envelope:   NewEnvelope(),
	}
}

// ComputeShortTimeEnergy calculates RMS energy for overlapping frames
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	return e.envelope.ComputeRMS(signal, e.frameSize, e.hopSize)
}

// ComputeLogEnergy calculates log energy in dB scale
func (e *Energy) ComputeLogEnergy(signal []float64, floor float64) []float64 {
	energies := e.ComputeShortTimeEnergy(signal)
	logEnergies := make([]float64, len(energies))

	for i, energy := range energies {
		if energy < floor {
			energy = floor
		}
		logEnergies[i] = 20.0 * math.Log10(energy)
	}

	return logEnergies
}

// ComputeVolumeProfile returns min/max/avg dB and a profile with at most maxPoints values.
// floorDb bounds silent frames so the average stays finite.
func (e *Energy) ComputeVolumeProfile(signal []float64, floorDb float64, maxPoints int) *VolumeProfile {
	floor := math.Pow(10, floorDb/20.0)
	logEnergies := e.ComputeLogEnergy(signal, floor)

	if len(logEnergies) == 0 {
		return &VolumeProfile{MinDb: floorDb, MaxDb: floorDb, AvgDb: floorDb, Profile: []float64{}}
	}

	profile := common.Downsample(logEnergies, maxPoints)
	for i, v := range profile {
		profile[i] = common.Round(v, 1)
	}

	return &VolumeProfile{
		MinDb:   common.Round(common.Min(logEnergies), 1),
		MaxDb:   common.Round(common.Max(logEnergies), 1),
		AvgDb:   common.Round(common.Mean(logEnergies), 1),
		Profile: profile,
	}
}

// ActiveFramePercentage returns the percentage of frames whose RMS exceeds
// fraction * max RMS. Used as a coarse confidence that the clip contains a voice.
func (e *Energy) ActiveFramePercentage(signal []float64, fraction float64) float64 {
	energies := e.ComputeShortTimeEnergy(signal)
	if len(energies) == 0 {
		return 0.0
	}

	peak := common.Max(energies)
	if peak <= 0 {
		return 0.0
	}

	active := 0
	for _, v := range energies {
		if v > fraction*peak {
			active++
		}
	}

	return float64(active) / float64(len(energies)) * 100.0
}
