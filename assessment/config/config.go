package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-meter/algorithms/temporal"
)

// EngineConfig gathers every tunable constant of the analysis pipeline.
// Branching code reads thresholds from here, never from inline literals.
type EngineConfig struct {
	Onset           temporal.OnsetConfig    `json:"onset" yaml:"onset" mapstructure:"onset"`
	Activity        temporal.ActivityConfig `json:"activity" yaml:"activity" mapstructure:"activity"`
	Rate            RateConfig              `json:"rate" yaml:"rate" mapstructure:"rate"`
	Pacing          PacingConfig            `json:"pacing" yaml:"pacing" mapstructure:"pacing"`
	Intelligibility IntelligibilityConfig   `json:"intelligibility" yaml:"intelligibility" mapstructure:"intelligibility"`
	Alignment       AlignmentConfig         `json:"alignment" yaml:"alignment" mapstructure:"alignment"`
	Weights         ScoreWeights            `json:"weights" yaml:"weights" mapstructure:"weights"`
	Feedback        FeedbackConfig          `json:"feedback" yaml:"feedback" mapstructure:"feedback"`
	Quality         QualityConfig           `json:"quality" yaml:"quality" mapstructure:"quality"`
}

// RateConfig holds the syllable-to-word conversion and rate sanity constants
type RateConfig struct {
	// Density-adaptive syllables per word, checked in this order
	HighDensity       float64 `json:"high_density" yaml:"high_density" mapstructure:"high_density"`
	HighDensitySPW    float64 `json:"high_density_spw" yaml:"high_density_spw" mapstructure:"high_density_spw"`
	MediumDensity     float64 `json:"medium_density" yaml:"medium_density" mapstructure:"medium_density"`
	MediumDensitySPW  float64 `json:"medium_density_spw" yaml:"medium_density_spw" mapstructure:"medium_density_spw"`
	LowDensity        float64 `json:"low_density" yaml:"low_density" mapstructure:"low_density"`
	LowDensitySPW     float64 `json:"low_density_spw" yaml:"low_density_spw" mapstructure:"low_density_spw"`
	DefaultSPW        float64 `json:"default_spw" yaml:"default_spw" mapstructure:"default_spw"`
	HybridSpeechRatio float64 `json:"hybrid_speech_ratio" yaml:"hybrid_speech_ratio" mapstructure:"hybrid_speech_ratio"`
	HybridRetained    float64 `json:"hybrid_retained" yaml:"hybrid_retained" mapstructure:"hybrid_retained"`
	// OnsetLead is how far before a speech segment an onset may fall and still count
	OnsetLead float64 `json:"onset_lead" yaml:"onset_lead" mapstructure:"onset_lead"`

	// Sanity correction of implausible articulation rates
	LowRate         float64 `json:"low_rate" yaml:"low_rate" mapstructure:"low_rate"`
	SparseDensity   float64 `json:"sparse_density" yaml:"sparse_density" mapstructure:"sparse_density"`
	SparseBoost     float64 `json:"sparse_boost" yaml:"sparse_boost" mapstructure:"sparse_boost"`
	DenseBoost      float64 `json:"dense_boost" yaml:"dense_boost" mapstructure:"dense_boost"`
	LowRateFloor    float64 `json:"low_rate_floor" yaml:"low_rate_floor" mapstructure:"low_rate_floor"`
	HighRate        float64 `json:"high_rate" yaml:"high_rate" mapstructure:"high_rate"`
	HighRateDamping float64 `json:"high_rate_damping" yaml:"high_rate_damping" mapstructure:"high_rate_damping"`
	HighRateCap     float64 `json:"high_rate_cap" yaml:"high_rate_cap" mapstructure:"high_rate_cap"`
}

// PacingConfig holds the sliding window parameters
type PacingConfig struct {
	WindowSize         int     `json:"window_size" yaml:"window_size" mapstructure:"window_size"`
	StepSize           int     `json:"step_size" yaml:"step_size" mapstructure:"step_size"`
	MinWindows         int     `json:"min_windows" yaml:"min_windows" mapstructure:"min_windows"`
	DefaultConsistency float64 `json:"default_consistency" yaml:"default_consistency" mapstructure:"default_consistency"`
	CVPenalty          float64 `json:"cv_penalty" yaml:"cv_penalty" mapstructure:"cv_penalty"`
	VariationThreshold float64 `json:"variation_threshold" yaml:"variation_threshold" mapstructure:"variation_threshold"`
}

// IntelligibilityConfig holds the multiplicative penalties
type IntelligibilityConfig struct {
	ExtremeRate       float64 `json:"extreme_rate" yaml:"extreme_rate" mapstructure:"extreme_rate"`
	ExtremeFactor     float64 `json:"extreme_factor" yaml:"extreme_factor" mapstructure:"extreme_factor"`
	VeryFastRate      float64 `json:"very_fast_rate" yaml:"very_fast_rate" mapstructure:"very_fast_rate"`
	VeryFastFactor    float64 `json:"very_fast_factor" yaml:"very_fast_factor" mapstructure:"very_fast_factor"`
	FastRate          float64 `json:"fast_rate" yaml:"fast_rate" mapstructure:"fast_rate"`
	FastFactor        float64 `json:"fast_factor" yaml:"fast_factor" mapstructure:"fast_factor"`
	SlowRate          float64 `json:"slow_rate" yaml:"slow_rate" mapstructure:"slow_rate"`
	SlowFactor        float64 `json:"slow_factor" yaml:"slow_factor" mapstructure:"slow_factor"`
	PacingWeight      float64 `json:"pacing_weight" yaml:"pacing_weight" mapstructure:"pacing_weight"`
	LowSilenceRatio   float64 `json:"low_silence_ratio" yaml:"low_silence_ratio" mapstructure:"low_silence_ratio"`
	LowSilenceFactor  float64 `json:"low_silence_factor" yaml:"low_silence_factor" mapstructure:"low_silence_factor"`
	HighSilenceRatio  float64 `json:"high_silence_ratio" yaml:"high_silence_ratio" mapstructure:"high_silence_ratio"`
	HighSilenceFactor float64 `json:"high_silence_factor" yaml:"high_silence_factor" mapstructure:"high_silence_factor"`
}

// AlignmentConfig holds the word aligner parameters
type AlignmentConfig struct {
	// Missing/extra pairs strictly above this similarity are reported as mispronounced
	MispronunciationFloor float64 `json:"mispronunciation_floor" yaml:"mispronunciation_floor" mapstructure:"mispronunciation_floor"`
	SimilarityDecimals    int     `json:"similarity_decimals" yaml:"similarity_decimals" mapstructure:"similarity_decimals"`
	// Consecutive transcript words in (SelfCorrectionMin, SelfCorrectionMax) count as self-corrections
	SelfCorrectionMin float64 `json:"self_correction_min" yaml:"self_correction_min" mapstructure:"self_correction_min"`
	SelfCorrectionMax float64 `json:"self_correction_max" yaml:"self_correction_max" mapstructure:"self_correction_max"`
}

// ComponentWeights weights the overall score inputs; each set should sum to 1
type ComponentWeights struct {
	Similarity      float64 `json:"similarity" yaml:"similarity" mapstructure:"similarity"`
	Intelligibility float64 `json:"intelligibility" yaml:"intelligibility" mapstructure:"intelligibility"`
	RateFit         float64 `json:"rate_fit" yaml:"rate_fit" mapstructure:"rate_fit"`
}

// ScoreWeights selects weights depending on whether a text alignment exists
type ScoreWeights struct {
	WithText  ComponentWeights `json:"with_text" yaml:"with_text" mapstructure:"with_text"`
	AudioOnly ComponentWeights `json:"audio_only" yaml:"audio_only" mapstructure:"audio_only"`
	// RateFitPenalty is the points lost per ppm outside the category range
	RateFitPenalty float64 `json:"rate_fit_penalty" yaml:"rate_fit_penalty" mapstructure:"rate_fit_penalty"`
}

// FeedbackConfig holds the thresholds of the feedback rules
type FeedbackConfig struct {
	Locale             string  `json:"locale" yaml:"locale" mapstructure:"locale"`
	LowSilenceRatio    float64 `json:"low_silence_ratio" yaml:"low_silence_ratio" mapstructure:"low_silence_ratio"`
	HighSilenceRatio   float64 `json:"high_silence_ratio" yaml:"high_silence_ratio" mapstructure:"high_silence_ratio"`
	VariationThreshold float64 `json:"variation_threshold" yaml:"variation_threshold" mapstructure:"variation_threshold"`
	ClarityThreshold   float64 `json:"clarity_threshold" yaml:"clarity_threshold" mapstructure:"clarity_threshold"`
	ExcellentScore     float64 `json:"excellent_score" yaml:"excellent_score" mapstructure:"excellent_score"`
	GoodScore          float64 `json:"good_score" yaml:"good_score" mapstructure:"good_score"`
	FairScore          float64 `json:"fair_score" yaml:"fair_score" mapstructure:"fair_score"`
	MaxListedWords     int     `json:"max_listed_words" yaml:"max_listed_words" mapstructure:"max_listed_words"`
	WordCountGap       int     `json:"word_count_gap" yaml:"word_count_gap" mapstructure:"word_count_gap"`
}

// QualityConfig decides when a result is flagged low-confidence
type QualityConfig struct {
	MinDurationSeconds  float64 `json:"min_duration_seconds" yaml:"min_duration_seconds" mapstructure:"min_duration_seconds"`
	MinOnsets           int     `json:"min_onsets" yaml:"min_onsets" mapstructure:"min_onsets"`
	ConfidenceFraction  float64 `json:"confidence_fraction" yaml:"confidence_fraction" mapstructure:"confidence_fraction"`
	VolumeFloorDb       float64 `json:"volume_floor_db" yaml:"volume_floor_db" mapstructure:"volume_floor_db"`
	VolumeProfilePoints int     `json:"volume_profile_points" yaml:"volume_profile_points" mapstructure:"volume_profile_points"`
}

// DefaultEngineConfig returns the reference configuration
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Onset:           temporal.DefaultOnsetConfig(),
		Activity:        temporal.DefaultActivityConfig(),
		Rate:            DefaultRateConfig(),
		Pacing:          DefaultPacingConfig(),
		Intelligibility: DefaultIntelligibilityConfig(),
		Alignment: AlignmentConfig{
			MispronunciationFloor: 0.5,
			SimilarityDecimals:    2,
			SelfCorrectionMin:     0.5,
			SelfCorrectionMax:     0.9,
		},
		Weights: ScoreWeights{
			WithText:       ComponentWeights{Similarity: 0.6, Intelligibility: 0.2, RateFit: 0.2},
			AudioOnly:      ComponentWeights{Similarity: 0, Intelligibility: 0.5, RateFit: 0.5},
			RateFitPenalty: 2.0,
		},
		Feedback: FeedbackConfig{
			Locale:             LocaleEnglish,
			LowSilenceRatio:    0.10,
			HighSilenceRatio:   0.40,
			VariationThreshold: 20.0,
			ClarityThreshold:   70.0,
			ExcellentScore:     90,
			GoodScore:          75,
			FairScore:          50,
			MaxListedWords:     3,
			WordCountGap:       2,
		},
		Quality: QualityConfig{
			MinDurationSeconds:  1.0,
			MinOnsets:           3,
			ConfidenceFraction:  0.2,
			VolumeFloorDb:       -100.0,
			VolumeProfilePoints: 100,
		},
	}
}

// DefaultRateConfig returns the rate estimator constants
func DefaultRateConfig() RateConfig {
	return RateConfig{
		HighDensity:       4.0,
		HighDensitySPW:    1.8,
		MediumDensity:     3.0,
		MediumDensitySPW:  2.2,
		LowDensity:        1.5,
		LowDensitySPW:     3.0,
		DefaultSPW:        2.7,
		HybridSpeechRatio: 0.4,
		HybridRetained:    0.5,
		OnsetLead:         0.05,
		LowRate:           50,
		SparseDensity:     2.0,
		SparseBoost:       2.5,
		DenseBoost:        1.8,
		LowRateFloor:      80,
		HighRate:          250,
		HighRateDamping:   0.85,
		HighRateCap:       220,
	}
}

// DefaultPacingConfig returns a 15-onset window advancing by 7
func DefaultPacingConfig() PacingConfig {
	return PacingConfig{
		WindowSize:         15,
		StepSize:           7,
		MinWindows:         2,
		DefaultConsistency: 100,
		CVPenalty:          3.0,
		VariationThreshold: 20.0,
	}
}

// DefaultIntelligibilityConfig returns the reference penalty table
func DefaultIntelligibilityConfig() IntelligibilityConfig {
	return IntelligibilityConfig{
		ExtremeRate:       400,
		ExtremeFactor:     0.3,
		VeryFastRate:      250,
		VeryFastFactor:    0.6,
		FastRate:          200,
		FastFactor:        0.85,
		SlowRate:          80,
		SlowFactor:        0.9,
		PacingWeight:      0.3,
		LowSilenceRatio:   0.10,
		LowSilenceFactor:  0.85,
		HighSilenceRatio:  0.40,
		HighSilenceFactor: 0.90,
	}
}

// Validate reports every setting the pipeline cannot run with
func (c *EngineConfig) Validate() error {
	var errs []error
	if c.Onset.FrameSeconds <= 0 || c.Onset.HopSeconds <= 0 {
		errs = append(errs, fmt.Errorf("onset frame and hop must be positive"))
	}
	switch c.Onset.Method {
	case temporal.OnsetEnergy, temporal.OnsetSpectralFlux, temporal.OnsetCombined:
	default:
		errs = append(errs, fmt.Errorf("unknown onset method %q", c.Onset.Method))
	}
	if c.Activity.FrameSeconds <= 0 || c.Activity.HopRatio <= 0 || c.Activity.HopRatio > 1 {
		errs = append(errs, fmt.Errorf("activity frame must be positive and hop ratio in (0, 1]"))
	}
	if c.Activity.LowPercentile < 0 || c.Activity.HighPercentile > 100 || c.Activity.LowPercentile > c.Activity.HighPercentile {
		errs = append(errs, fmt.Errorf("activity percentiles must satisfy 0 <= low <= high <= 100"))
	}
	if c.Activity.AbsoluteSpeechFloor < 0 {
		errs = append(errs, fmt.Errorf("activity speech floor must not be negative"))
	}
	if c.Rate.DefaultSPW <= 0 || c.Rate.HighDensitySPW <= 0 || c.Rate.MediumDensitySPW <= 0 || c.Rate.LowDensitySPW <= 0 {
		errs = append(errs, fmt.Errorf("syllables per word must be positive"))
	}
	if c.Rate.OnsetLead < 0 {
		errs = append(errs, fmt.Errorf("rate onset lead must not be negative"))
	}
	if c.Pacing.WindowSize < 2 || c.Pacing.StepSize < 1 {
		errs = append(errs, fmt.Errorf("pacing window must be >= 2 and step >= 1"))
	}
	if c.Alignment.MispronunciationFloor < 0 || c.Alignment.MispronunciationFloor > 1 {
		errs = append(errs, fmt.Errorf("mispronunciation floor must be in [0, 1]"))
	}
	if _, ok := catalogs[c.Feedback.Locale]; !ok {
		errs = append(errs, fmt.Errorf("unsupported feedback locale %q", c.Feedback.Locale))
	}
	return errors.Join(errs...)
}
