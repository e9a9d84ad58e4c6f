package assessment

import (
	"math"

	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
)

// ScoreAggregator composes component scores into the overall 0-100 figure
type ScoreAggregator struct {
	weights config.ScoreWeights
}

// NewScoreAggregator creates a score aggregator
func NewScoreAggregator(weights config.ScoreWeights) *ScoreAggregator {
	return &ScoreAggregator{weights: weights}
}

// RateFit is 100 inside the category range and loses RateFitPenalty points
// per ppm outside it, floored at 0.
func (sa *ScoreAggregator) RateFit(rate float64, profile config.CategoryProfile) float64 {
	delta := math.Abs(profile.Delta(rate))
	return common.Clamp(100.0-sa.weights.RateFitPenalty*delta, 0, 100)
}

// Overall weights similarity, intelligibility and rate fit. A nil alignment
// switches to the audio-only weights.
func (sa *ScoreAggregator) Overall(intelligibility, rateFit float64, alignment *WordAlignment) float64 {
	if alignment == nil {
		w := sa.weights.AudioOnly
		return common.Clamp(w.Intelligibility*intelligibility+w.RateFit*rateFit, 0, 100)
	}

	w := sa.weights.WithText
	score := w.Similarity*alignment.SimilarityRatio*100.0 +
		w.Intelligibility*intelligibility +
		w.RateFit*rateFit
	return common.Clamp(score, 0, 100)
}

// PronunciationScore is the similarity ratio as a whole percentage
func (sa *ScoreAggregator) PronunciationScore(alignment *WordAlignment) (int, bool) {
	if alignment == nil {
		return 0, false
	}
	return int(math.Round(alignment.SimilarityRatio * 100.0)), true
}
