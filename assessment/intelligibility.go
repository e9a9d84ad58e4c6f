package assessment

import (
	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
)

// IntelligibilityScorer folds rate, pacing and pause signals into a 0-100 estimate
type IntelligibilityScorer struct {
	config config.IntelligibilityConfig
}

// NewIntelligibilityScorer creates an intelligibility scorer
func NewIntelligibilityScorer(cfg config.IntelligibilityConfig) *IntelligibilityScorer {
	return &IntelligibilityScorer{config: cfg}
}

// Score starts from 100 and applies multiplicative penalties
func (is *IntelligibilityScorer) Score(articulationRate, consistency, silenceRatio float64) float64 {
	score := 100.0 * is.RateFactor(articulationRate)
	score *= 1.0 - ((100.0-common.Clamp(consistency, 0, 100))/100.0)*is.config.PacingWeight
	score *= is.PauseFactor(silenceRatio)
	return common.Clamp(score, 0, 100)
}

// RateFactor returns the penalty for an extreme articulation rate; only the
// first matching band applies.
func (is *IntelligibilityScorer) RateFactor(rate float64) float64 {
	switch {
	case rate > is.config.ExtremeRate:
		return is.config.ExtremeFactor
	case rate > is.config.VeryFastRate:
		return is.config.VeryFastFactor
	case rate > is.config.FastRate:
		return is.config.FastFactor
	case rate < is.config.SlowRate:
		return is.config.SlowFactor
	default:
		return 1.0
	}
}

// PauseFactor penalizes recordings with too little or too much silence
func (is *IntelligibilityScorer) PauseFactor(silenceRatio float64) float64 {
	switch {
	case silenceRatio < is.config.LowSilenceRatio:
		return is.config.LowSilenceFactor
	case silenceRatio > is.config.HighSilenceRatio:
		return is.config.HighSilenceFactor
	default:
		return 1.0
	}
}
