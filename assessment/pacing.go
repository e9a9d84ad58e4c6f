package assessment

import (
	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/algorithms/temporal"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// PacingMetrics describes how steady the local speaking rate is
type PacingMetrics struct {
	ConsistencyScore       float64   `json:"consistency_score"`
	VariationCoefficient   float64   `json:"variation_coefficient"`
	LocalRates             []float64 `json:"local_rates"`
	WindowCount            int       `json:"window_count"`
	LocalVariationDetected bool      `json:"local_variation_detected"`
}

// PacingAnalyzer slides a fixed-size onset window over the recording
type PacingAnalyzer struct {
	config config.PacingConfig
	logger logging.Logger
}

// NewPacingAnalyzer creates a pacing analyzer
func NewPacingAnalyzer(cfg config.PacingConfig) *PacingAnalyzer {
	return &PacingAnalyzer{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "pacing_analyzer",
		}),
	}
}

// Analyze computes one local rate (onsets per second) per window and scores
// their coefficient of variation. Too few windows yield the neutral default.
func (pa *PacingAnalyzer) Analyze(onsets temporal.OnsetSet) *PacingMetrics {
	rates := pa.LocalRates(onsets)

	metrics := &PacingMetrics{
		ConsistencyScore: pa.config.DefaultConsistency,
		LocalRates:       rates,
		WindowCount:      len(rates),
	}

	if len(rates) < pa.config.MinWindows {
		return metrics
	}

	cv := common.CoefficientOfVariation(rates)
	metrics.VariationCoefficient = cv
	metrics.ConsistencyScore = common.Clamp(100.0-cv*pa.config.CVPenalty, 0, 100)
	metrics.LocalVariationDetected = cv > pa.config.VariationThreshold

	pa.logger.Debug("Pacing analyzed", logging.Fields{
		"function":    "Analyze",
		"windows":     len(rates),
		"cv":          cv,
		"consistency": metrics.ConsistencyScore,
	})

	return metrics
}

// LocalRates returns (window-1)/span for every full window; zero-span windows are skipped
func (pa *PacingAnalyzer) LocalRates(onsets temporal.OnsetSet) []float64 {
	rates := []float64{}
	window, step := pa.config.WindowSize, max(1, pa.config.StepSize)
	if window < 2 {
		return rates
	}

	for start := 0; start+window <= len(onsets); start += step {
		span := onsets[start+window-1] - onsets[start]
		if span <= 0 {
			continue
		}
		rates = append(rates, float64(window-1)/span)
	}

	return rates
}
