package assessment

import (
	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/algorithms/temporal"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// RateCorrection names the sanity branch applied to the raw articulation rate
type RateCorrection string

const (
	CorrectionNone          RateCorrection = "none"
	CorrectionBoostedSparse RateCorrection = "boosted_sparse"
	CorrectionBoosted       RateCorrection = "boosted"
	CorrectionDamped        RateCorrection = "damped"
)

// RateMetrics is the speaking-speed estimate of one recording, in words per minute
type RateMetrics struct {
	SpeechRatePpm          float64        `json:"speech_rate"`
	ArticulationRatePpm    float64        `json:"articulation_rate"`
	RawArticulationRatePpm float64        `json:"raw_articulation_rate"`
	EstimatedSyllableCount int            `json:"estimated_syllable_count"`
	EstimatedWordCount     float64        `json:"estimated_word_count"`
	ActiveDurationSeconds  float64        `json:"active_duration_seconds"`
	SyllablesPerWord       float64        `json:"syllables_per_word"`
	OnsetDensity           float64        `json:"onset_density"`
	RetainedOnsetFraction  float64        `json:"retained_onset_fraction"`
	HybridFallback         bool           `json:"hybrid_fallback"`
	Correction             RateCorrection `json:"correction"`
}

// RateEstimator converts onset density into word counts and rates
type RateEstimator struct {
	config config.RateConfig
	logger logging.Logger
}

// NewRateEstimator creates a rate estimator with the given constants
func NewRateEstimator(cfg config.RateConfig) *RateEstimator {
	return &RateEstimator{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "rate_estimator",
		}),
	}
}

// Estimate computes speech and articulation rates from onsets and the activity
// segmentation. Zero onsets or zero active duration give all-zero rates.
func (re *RateEstimator) Estimate(onsets temporal.OnsetSet, activity *temporal.ActivityResult, duration float64) *RateMetrics {
	metrics := &RateMetrics{Correction: CorrectionNone}
	if activity == nil {
		return metrics
	}

	active := activity.ActiveDuration
	metrics.ActiveDurationSeconds = active

	filtered := FilterSpeechOnsets(onsets, activity.Segments, re.config.OnsetLead)
	metrics.RetainedOnsetFraction = common.SafeDivide(float64(len(filtered)), float64(len(onsets)), 0)

	count := len(filtered)
	if activity.SpeechRatio < re.config.HybridSpeechRatio && metrics.RetainedOnsetFraction < re.config.HybridRetained {
		count = len(onsets)
		metrics.HybridFallback = true
	}
	metrics.EstimatedSyllableCount = count

	if count == 0 || active <= 0 {
		return metrics
	}

	metrics.OnsetDensity = float64(count) / active
	metrics.SyllablesPerWord = re.syllablesPerWord(metrics.OnsetDensity)
	metrics.EstimatedWordCount = float64(count) / metrics.SyllablesPerWord

	raw := metrics.EstimatedWordCount / (active / 60.0)
	metrics.RawArticulationRatePpm = raw
	metrics.ArticulationRatePpm, metrics.Correction = re.correct(raw, onsets.Density(duration))
	metrics.SpeechRatePpm = common.SafeDivide(metrics.EstimatedWordCount, duration/60.0, 0)

	re.logger.Debug("Rate estimated", logging.Fields{
		"function":       "Estimate",
		"onsets":         len(onsets),
		"counted":        count,
		"hybrid":         metrics.HybridFallback,
		"raw_rate":       raw,
		"corrected_rate": metrics.ArticulationRatePpm,
		"correction":     string(metrics.Correction),
	})

	return metrics
}

// syllablesPerWord picks the density-adaptive conversion ratio
func (re *RateEstimator) syllablesPerWord(density float64) float64 {
	switch {
	case density > re.config.HighDensity:
		return re.config.HighDensitySPW
	case density > re.config.MediumDensity:
		return re.config.MediumDensitySPW
	case density < re.config.LowDensity:
		return re.config.LowDensitySPW
	default:
		return re.config.DefaultSPW
	}
}

// correct bounds implausible raw rates. totalDensity is all onsets over total duration.
func (re *RateEstimator) correct(raw, totalDensity float64) (float64, RateCorrection) {
	switch {
	case raw < re.config.LowRate:
		if totalDensity < re.config.SparseDensity {
			return max(raw*re.config.SparseBoost, re.config.LowRateFloor), CorrectionBoostedSparse
		}
		return max(raw*re.config.DenseBoost, re.config.LowRateFloor), CorrectionBoosted
	case raw > re.config.HighRate:
		return min(raw*re.config.HighRateDamping, re.config.HighRateCap), CorrectionDamped
	default:
		return raw, CorrectionNone
	}
}

// FilterSpeechOnsets keeps the onsets that fall inside a speech segment or at
// most lead seconds before one starts. Onsets are stamped at the start of the
// analysis frame holding the rise, which can precede the first voiced frame.
// Both inputs are ordered, so a single merge pass suffices.
func FilterSpeechOnsets(onsets temporal.OnsetSet, segments []temporal.ActivitySegment, lead float64) temporal.OnsetSet {
	filtered := temporal.OnsetSet{}
	j := 0
	for _, t := range onsets {
		for j < len(segments)-1 && segments[j].End <= t {
			j++
		}
		if j >= len(segments) {
			break
		}

		seg := segments[j]
		switch {
		case seg.IsSpeech && t >= seg.Start && t <= seg.End:
			filtered = append(filtered, t)
		case !seg.IsSpeech && j+1 < len(segments) && segments[j+1].IsSpeech && segments[j+1].Start-t <= lead:
			filtered = append(filtered, t)
		}
	}
	return filtered
}
