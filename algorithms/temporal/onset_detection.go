package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/algorithms/filters"
	"github.com/RyanBlaney/sonido-meter/algorithms/spectral"
	"github.com/RyanBlaney/sonido-meter/algorithms/windowing"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// OnsetMethod selects the onset strength function
type OnsetMethod string

const (
	OnsetEnergy       OnsetMethod = "energy"
	OnsetSpectralFlux OnsetMethod = "spectral_flux"
	OnsetCombined     OnsetMethod = "combined"
)

// OnsetSet is an ordered sequence of strictly increasing onset times in seconds
type OnsetSet []float64

// OnsetConfig holds the syllable onset detector parameters
type OnsetConfig struct {
	Method          OnsetMethod `json:"method" yaml:"method" mapstructure:"method"`
	FrameSeconds    float64     `json:"frame_seconds" yaml:"frame_seconds" mapstructure:"frame_seconds"`
	HopSeconds      float64     `json:"hop_seconds" yaml:"hop_seconds" mapstructure:"hop_seconds"`
	CompressionGain float64     `json:"compression_gain" yaml:"compression_gain" mapstructure:"compression_gain"`
	// Delta is the minimum peak strength relative to the strongest peak
	Delta       float64 `json:"delta" yaml:"delta" mapstructure:"delta"`
	MinInterval float64 `json:"min_interval" yaml:"min_interval" mapstructure:"min_interval"`
	// Frames quieter than max(AbsoluteNoiseFloor, RelativeNoiseFloor*peakRMS) never carry an onset
	AbsoluteNoiseFloor float64 `json:"absolute_noise_floor" yaml:"absolute_noise_floor" mapstructure:"absolute_noise_floor"`
	RelativeNoiseFloor float64 `json:"relative_noise_floor" yaml:"relative_noise_floor" mapstructure:"relative_noise_floor"`
	// DCCutoffHz enables the DC blocker when positive
	DCCutoffHz float64 `json:"dc_cutoff_hz" yaml:"dc_cutoff_hz" mapstructure:"dc_cutoff_hz"`
}

// DefaultOnsetConfig returns the speech-tuned onset configuration
func DefaultOnsetConfig() OnsetConfig {
	return OnsetConfig{
		Method:             OnsetEnergy,
		FrameSeconds:       0.032,
		HopSeconds:         0.016,
		CompressionGain:    100.0,
		Delta:              0.07,
		MinInterval:        0.05, // 50ms minimum interval
		AbsoluteNoiseFloor: 0.001,
		RelativeNoiseFloor: 0.05,
		DCCutoffHz:         20.0,
	}
}

// OnsetDetection detects syllable-like energy onsets in speech
type OnsetDetection struct {
	config            OnsetConfig
	spectralFlux      *spectral.SpectralFlux
	envelopeExtractor *Envelope
	stft              *spectral.STFT
	logger            logging.Logger
}

// NewOnsetDetection creates a new onset detector
func NewOnsetDetection(config OnsetConfig) *OnsetDetection {
	return &OnsetDetection{
		config:            config,
		spectralFlux:      spectral.NewSpectralFlux(),
		envelopeExtractor: NewEnvelope(),
		stft:              spectral.NewSTFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "onset_detection",
		}),
	}
}

// ExtractOnsets returns onset timestamps in seconds. Silence or a signal too
// short for three frames yields an empty set.
func (od *OnsetDetection) ExtractOnsets(signal []float64, sampleRate int) OnsetSet {
	if len(signal) == 0 || sampleRate <= 0 {
		return OnsetSet{}
	}

	frameSize, hopSize := od.frameGeometry(sampleRate)
	prepared := od.condition(signal, sampleRate)

	envelope := od.envelopeExtractor.ComputeRMS(prepared, frameSize, hopSize)
	if len(envelope) < 3 {
		return OnsetSet{}
	}

	peakRMS := common.Max(envelope)
	noiseFloor := math.Max(od.config.AbsoluteNoiseFloor, od.config.RelativeNoiseFloor*peakRMS)
	if peakRMS < noiseFloor {
		return OnsetSet{}
	}

	strength := od.onsetStrength(prepared, envelope, frameSize, hopSize, sampleRate)
	if len(strength) == 0 {
		return OnsetSet{}
	}

	minIntervalFrames := max(1, int(od.config.MinInterval*float64(sampleRate)/float64(hopSize)))
	peaks := od.pickPeaks(strength, envelope, noiseFloor, minIntervalFrames)

	// strength[i] is the rise into frame i+1, so the onset is that frame's start
	onsets := make(OnsetSet, len(peaks))
	for i, idx := range peaks {
		onsets[i] = float64((idx+1)*hopSize) / float64(sampleRate)
	}

	od.logger.Debug("Onsets extracted", logging.Fields{
		"frames":      len(envelope),
		"onsets":      len(onsets),
		"noise_floor": noiseFloor,
		"method":      string(od.config.Method),
	})

	return onsets
}

// frameGeometry converts the configured durations to sample counts
func (od *OnsetDetection) frameGeometry(sampleRate int) (int, int) {
	frameSize := max(2, int(od.config.FrameSeconds*float64(sampleRate)))
	hopSize := max(1, int(od.config.HopSeconds*float64(sampleRate)))
	return frameSize, hopSize
}

// condition clips to [-1, 1] and optionally removes DC offset, on a copy
func (od *OnsetDetection) condition(signal []float64, sampleRate int) []float64 {
	prepared := make([]float64, len(signal))
	for i, s := range signal {
		prepared[i] = common.Clamp(s, -1.0, 1.0)
	}

	if od.config.DCCutoffHz > 0 {
		prepared = filters.NewDCRemovalWithCutoff(sampleRate, od.config.DCCutoffHz).ProcessBuffer(prepared)
	}

	return prepared
}

// onsetStrength builds the detection function; element i measures the rise into frame i+1
func (od *OnsetDetection) onsetStrength(signal, envelope []float64, frameSize, hopSize, sampleRate int) []float64 {
	energy := od.envelopeExtractor.PositiveDifference(
		od.envelopeExtractor.ComputeLogCompressed(envelope, od.config.CompressionGain),
	)

	switch od.config.Method {
	case OnsetSpectralFlux:
		flux := od.spectralStrength(signal, frameSize, hopSize, sampleRate)
		if len(flux) == 0 {
			return energy
		}
		return flux
	case OnsetCombined:
		flux := od.spectralStrength(signal, frameSize, hopSize, sampleRate)
		return combineStrengths(energy, flux)
	default:
		return energy
	}
}

// spectralStrength computes log-compressed spectral flux over a Hann-windowed STFT
func (od *OnsetDetection) spectralStrength(signal []float64, frameSize, hopSize, sampleRate int) []float64 {
	stftResult, err := od.stft.ComputeWithWindow(signal, frameSize, hopSize, sampleRate, windowing.NewHann(frameSize, false))
	if err != nil {
		od.logger.Warn("STFT failed, using energy onsets only", logging.Fields{"error": err.Error()})
		return []float64{}
	}

	compressed := od.spectralFlux.LogCompress(stftResult.Magnitude, od.config.CompressionGain)
	return od.spectralFlux.Compute(compressed)
}

// pickPeaks selects local maxima above the relative threshold whose target frame
// clears the noise floor. Earlier peaks win inside the minimum interval.
func (od *OnsetDetection) pickPeaks(strength, envelope []float64, noiseFloor float64, minIntervalFrames int) []int {
	maxStrength := common.Max(strength)
	if maxStrength <= 0 {
		return []int{}
	}
	threshold := od.config.Delta * maxStrength

	peaks := []int{}
	lastPeak := -minIntervalFrames

	for i, s := range strength {
		if s <= 0 || s < threshold {
			continue
		}

		left := 0.0
		if i > 0 {
			left = strength[i-1]
		}
		right := 0.0
		if i+1 < len(strength) {
			right = strength[i+1]
		}

		// strictly above the left neighbour so a plateau yields one peak
		if s <= left || s < right {
			continue
		}

		if i+1 >= len(envelope) || envelope[i+1] < noiseFloor {
			continue
		}

		if i-lastPeak < minIntervalFrames {
			continue
		}

		peaks = append(peaks, i)
		lastPeak = i
	}

	return peaks
}

// combineStrengths normalizes both functions to unit peak and averages them
func combineStrengths(a, b []float64) []float64 {
	if len(b) == 0 {
		return a
	}

	n := min(len(a), len(b))
	maxA := common.Max(a[:n])
	maxB := common.Max(b[:n])

	combined := make([]float64, n)
	for i := range n {
		va := common.SafeDivide(a[i], maxA, 0)
		vb := common.SafeDivide(b[i], maxB, 0)
		combined[i] = (va + vb) / 2.0
	}

	return combined
}

// Density returns onsets per second over duration, 0 for a non-positive duration
func (s OnsetSet) Density(duration float64) float64 {
	return common.SafeDivide(float64(len(s)), duration, 0)
}
