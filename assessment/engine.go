package assessment

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/algorithms/temporal"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// Request is one analysis input. Only Signal is required.
type Request struct {
	Signal          *AudioSignal
	Category        string
	ExpectedText    string
	TranscribedText string
	// Warnings from earlier stages (e.g. a failed transcription) carried into the result
	Warnings []string
}

// Engine is the pure analysis pipeline. It holds only immutable configuration
// and is safe for concurrent use.
type Engine struct {
	config *config.EngineConfig

	onsets          *temporal.OnsetDetection
	segmenter       *temporal.ActivitySegmenter
	rate            *RateEstimator
	pacing          *PacingAnalyzer
	intelligibility *IntelligibilityScorer
	aligner         *WordAligner
	transcript      *TranscriptAnalyzer
	feedback        *FeedbackSynthesizer
	scores          *ScoreAggregator

	logger logging.Logger
}

// NewEngine creates an engine; a nil config selects the defaults
func NewEngine(cfg *config.EngineConfig) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultEngineConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	return &Engine{
		config:          cfg,
		onsets:          temporal.NewOnsetDetection(cfg.Onset),
		segmenter:       temporal.NewActivitySegmenter(cfg.Activity),
		rate:            NewRateEstimator(cfg.Rate),
		pacing:          NewPacingAnalyzer(cfg.Pacing),
		intelligibility: NewIntelligibilityScorer(cfg.Intelligibility),
		aligner:         NewWordAligner(cfg.Alignment),
		transcript:      NewTranscriptAnalyzer(cfg.Alignment, config.Catalog(cfg.Feedback.Locale)),
		feedback:        NewFeedbackSynthesizer(cfg.Feedback),
		scores:          NewScoreAggregator(cfg.Weights),
		logger: logging.WithFields(logging.Fields{
			"component": "assessment_engine",
		}),
	}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() *config.EngineConfig {
	return e.config
}

// signalFeatures are the outputs of the independent waveform passes
type signalFeatures struct {
	onsets     temporal.OnsetSet
	activity   *temporal.ActivityResult
	volume     *temporal.VolumeProfile
	confidence float64
}

// Analyze runs the full pipeline. Identical requests give identical results.
// Insufficient audio is reported through LowConfidence, not as an error.
func (e *Engine) Analyze(ctx context.Context, req Request) (*AnalysisResult, error) {
	sig := req.Signal
	if sig == nil || sig.SampleRate <= 0 {
		return nil, ErrInvalidSignal
	}

	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Analyze",
	})

	features, err := e.extract(ctx, sig)
	if err != nil {
		return nil, err
	}

	duration := sig.Duration()
	profile := config.Category(req.Category)
	if strings.TrimSpace(req.Category) != "" && !config.IsKnownCategory(req.Category) {
		logger.Debug("Unknown category, using fallback profile", logging.Fields{
			"category": req.Category,
			"fallback": profile.Key,
		})
	}

	rate := e.rate.Estimate(features.onsets, features.activity, duration)
	pacing := e.pacing.Analyze(features.onsets)
	intelligibility := e.intelligibility.Score(rate.ArticulationRatePpm, pacing.ConsistencyScore, features.activity.SilenceRatio)

	result := &AnalysisResult{
		Category:             profile.Key,
		CategoryName:         profile.Name,
		ArticulationRate:     common.Round(rate.ArticulationRatePpm, 1),
		SpeechRate:           common.Round(rate.SpeechRatePpm, 1),
		DurationSeconds:      common.Round(duration, 2),
		ActiveSpeechTime:     common.Round(features.activity.ActiveDuration, 2),
		SilenceRatio:         common.Round(features.activity.SilenceRatio, 3),
		PauseCount:           features.activity.PauseCount,
		AvgPauseDuration:     common.Round(features.activity.AvgPauseDuration, 2),
		PacingConsistency:    common.Round(pacing.ConsistencyScore, 1),
		PacingVariation:      common.Round(pacing.VariationCoefficient, 1),
		IntelligibilityScore: common.Round(intelligibility, 1),
		IsWithinRange:        profile.Contains(rate.ArticulationRatePpm),
		IdealMinPpm:          profile.MinPpm,
		IdealMaxPpm:          profile.MaxPpm,
		RateDelta:            common.Round(profile.Delta(rate.ArticulationRatePpm), 1),
		OnsetCount:           len(features.onsets),
		Warnings:             append([]string{}, req.Warnings...),
		Confidence:           common.Round(features.confidence, 1),
		TranscribedText:      req.TranscribedText,
		Volume:               features.volume,
		Pauses:               features.activity.Pauses,
		Rate:                 rate,
		Pacing:               pacing,
		Segments:             features.activity.Segments,
	}

	e.checkQuality(result, duration, len(features.onsets))

	hasExpected := strings.TrimSpace(req.ExpectedText) != ""
	hasTranscript := strings.TrimSpace(req.TranscribedText) != ""
	switch {
	case hasExpected && hasTranscript:
		result.WordAlignment = e.aligner.Align(req.ExpectedText, req.TranscribedText)
	case hasExpected:
		result.Warnings = append(result.Warnings, "no transcript available; word alignment skipped")
	}
	if hasTranscript {
		result.TranscriptMetrics = e.transcript.Analyze(req.TranscribedText)
	}

	rateFit := e.scores.RateFit(rate.ArticulationRatePpm, profile)
	result.OverallScore = common.Round(e.scores.Overall(intelligibility, rateFit, result.WordAlignment), 1)
	pronunciation, aligned := e.scores.PronunciationScore(result.WordAlignment)
	if aligned {
		result.PronunciationScore = &pronunciation
	}

	result.FeedbackItems = e.feedback.Synthesize(FeedbackInput{
		ArticulationRate:     result.ArticulationRate,
		Profile:              profile,
		SilenceRatio:         features.activity.SilenceRatio,
		VariationCoefficient: pacing.VariationCoefficient,
		Intelligibility:      result.IntelligibilityScore,
		Alignment:            result.WordAlignment,
		PronunciationScore:   pronunciation,
		LowConfidence:        result.LowConfidence,
	})
	result.Feedback = JoinFeedback(result.FeedbackItems)

	logger.Info("Analysis completed", logging.Fields{
		"duration":          result.DurationSeconds,
		"onsets":            result.OnsetCount,
		"articulation_rate": result.ArticulationRate,
		"overall_score":     result.OverallScore,
		"low_confidence":    result.LowConfidence,
	})

	return result, nil
}

// extract runs the waveform passes concurrently. They only read the samples.
func (e *Engine) extract(ctx context.Context, sig *AudioSignal) (*signalFeatures, error) {
	var features signalFeatures
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		features.onsets = e.onsets.ExtractOnsets(sig.Samples, sig.SampleRate)
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		features.activity = e.segmenter.Segment(sig.Samples, sig.SampleRate)
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		frameSize := max(1, int(e.config.Activity.FrameSeconds*float64(sig.SampleRate)))
		hopSize := max(1, int(float64(frameSize)*e.config.Activity.HopRatio))
		energy := temporal.NewEnergy(frameSize, hopSize, sig.SampleRate)
		q := e.config.Quality
		features.volume = energy.ComputeVolumeProfile(sig.Samples, q.VolumeFloorDb, q.VolumeProfilePoints)
		features.confidence = energy.ActiveFramePercentage(sig.Samples, q.ConfidenceFraction)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, &ProcessingError{Stage: "signal", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &ProcessingError{Stage: "signal", Err: err}
	}

	return &features, nil
}

// checkQuality flags results computed from too little audio
func (e *Engine) checkQuality(result *AnalysisResult, duration float64, onsets int) {
	q := e.config.Quality
	if duration < q.MinDurationSeconds {
		result.LowConfidence = true
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: duration %.2fs is below %.2fs", ErrInsufficientAudio, duration, q.MinDurationSeconds))
	}
	if onsets < q.MinOnsets {
		result.LowConfidence = true
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: %d onsets detected, need at least %d", ErrInsufficientAudio, onsets, q.MinOnsets))
	}
}
