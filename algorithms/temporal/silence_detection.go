package temporal

import (
	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/algorithms/stats"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// ActivitySegment is a half-open interval of the timeline labelled speech or silence
type ActivitySegment struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	IsSpeech bool    `json:"is_speech"`
}

// Duration returns End - Start
func (s ActivitySegment) Duration() float64 {
	return s.End - s.Start
}

// PauseStats describes the silence segments long enough to count as pauses
type PauseStats struct {
	TotalPauseTime  float64 `json:"total_pause_time"`
	LongestPause    float64 `json:"longest_pause"`
	PausesPerMinute float64 `json:"pauses_per_minute"`
	Short           int     `json:"short_pauses"`
	Medium          int     `json:"medium_pauses"`
	Long            int     `json:"long_pauses"`
	Extended        int     `json:"extended_pauses"`
}

// ActivityResult is the voice activity segmentation of one signal.
// Segments are ordered, contiguous and cover [0, Duration] exactly.
type ActivityResult struct {
	Segments         []ActivitySegment `json:"segments"`
	Duration         float64           `json:"duration"`
	ActiveDuration   float64           `json:"active_duration"`
	SilenceRatio     float64           `json:"silence_ratio"`
	SpeechRatio      float64           `json:"speech_ratio"`
	PauseCount       int               `json:"pause_count"`
	AvgPauseDuration float64           `json:"avg_pause_duration"`
	Threshold        float64           `json:"threshold"`
	Pauses           PauseStats        `json:"pauses"`
}

// ActivityConfig holds the voice activity detection parameters
type ActivityConfig struct {
	FrameSeconds float64 `json:"frame_seconds" yaml:"frame_seconds" mapstructure:"frame_seconds"`
	// HopRatio is the hop as a fraction of the frame (0.5 = 50% overlap)
	HopRatio       float64 `json:"hop_ratio" yaml:"hop_ratio" mapstructure:"hop_ratio"`
	LowPercentile  float64 `json:"low_percentile" yaml:"low_percentile" mapstructure:"low_percentile"`
	HighPercentile float64 `json:"high_percentile" yaml:"high_percentile" mapstructure:"high_percentile"`
	// ThresholdFraction places the threshold between the low and high percentiles
	ThresholdFraction float64 `json:"threshold_fraction" yaml:"threshold_fraction" mapstructure:"threshold_fraction"`
	// Below this percentile spread the energy is flat and AbsoluteSpeechFloor alone
	// decides; otherwise it is the lower bound of the adaptive threshold
	FlatnessEpsilon     float64 `json:"flatness_epsilon" yaml:"flatness_epsilon" mapstructure:"flatness_epsilon"`
	AbsoluteSpeechFloor float64 `json:"absolute_speech_floor" yaml:"absolute_speech_floor" mapstructure:"absolute_speech_floor"`
	MinPauseDuration    float64 `json:"min_pause_duration" yaml:"min_pause_duration" mapstructure:"min_pause_duration"`
	ShortPauseMax       float64 `json:"short_pause_max" yaml:"short_pause_max" mapstructure:"short_pause_max"`
	MediumPauseMax      float64 `json:"medium_pause_max" yaml:"medium_pause_max" mapstructure:"medium_pause_max"`
	LongPauseMax        float64 `json:"long_pause_max" yaml:"long_pause_max" mapstructure:"long_pause_max"`
}

// DefaultActivityConfig returns 25ms frames with 50% overlap and the p10/p90 rule
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		FrameSeconds:        0.025,
		HopRatio:            0.5,
		LowPercentile:       10,
		HighPercentile:      90,
		ThresholdFraction:   0.25,
		FlatnessEpsilon:     1e-6,
		AbsoluteSpeechFloor: 0.01,
		MinPauseDuration:    0.25,
		ShortPauseMax:       0.5,
		MediumPauseMax:      1.0,
		LongPauseMax:        2.0,
	}
}

// ActivitySegmenter provides adaptive voice activity detection and pause analysis
type ActivitySegmenter struct {
	config            ActivityConfig
	envelopeExtractor *Envelope
	percentiles       *stats.Percentiles
	logger            logging.Logger
}

// NewActivitySegmenter creates a new activity segmenter
func NewActivitySegmenter(config ActivityConfig) *ActivitySegmenter {
	return &ActivitySegmenter{
		config:            config,
		envelopeExtractor: NewEnvelope(),
		percentiles:       stats.NewPercentiles(),
		logger: logging.WithFields(logging.Fields{
			"component": "activity_segmenter",
		}),
	}
}

// Segment labels every frame speech or silence against the adaptive threshold
// p_low + (p_high - p_low) * fraction, floored at AbsoluteSpeechFloor, and
// merges runs into segments.
func (as *ActivitySegmenter) Segment(signal []float64, sampleRate int) *ActivityResult {
	if len(signal) == 0 || sampleRate <= 0 {
		return &ActivityResult{Segments: []ActivitySegment{}}
	}

	duration := float64(len(signal)) / float64(sampleRate)

	frameSize := max(1, int(as.config.FrameSeconds*float64(sampleRate)))
	hopSize := max(1, int(float64(frameSize)*as.config.HopRatio))

	energies := as.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize)
	if len(energies) == 0 {
		// shorter than one frame: nothing to measure, treat as silence
		return as.summarize([]ActivitySegment{{Start: 0, End: duration, IsSpeech: false}}, duration, 0)
	}

	threshold, flat := as.AdaptiveThreshold(energies)
	gate := as.SpeechGate(threshold, flat)

	speechFrames := make([]bool, len(energies))
	for i, energy := range energies {
		speechFrames[i] = energy > gate
	}

	segments := as.mergeFrames(speechFrames, hopSize, sampleRate, duration)

	as.logger.Debug("Activity segmentation completed", logging.Fields{
		"frames":    len(energies),
		"segments":  len(segments),
		"threshold": threshold,
		"gate":      gate,
		"flat":      flat,
	})

	return as.summarize(segments, duration, threshold)
}

// AdaptiveThreshold returns p_low + (p_high - p_low) * fraction over frame energies.
// flat reports a spread below FlatnessEpsilon, where the rule cannot separate classes.
func (as *ActivitySegmenter) AdaptiveThreshold(energies []float64) (threshold float64, flat bool) {
	spread, err := as.percentiles.Spread(energies, as.config.LowPercentile, as.config.HighPercentile)
	if err != nil {
		return 0.0, true
	}

	threshold = spread.Low + spread.Range*as.config.ThresholdFraction
	return threshold, spread.Range < as.config.FlatnessEpsilon
}

// SpeechGate is the RMS a frame must exceed to count as speech. The adaptive
// threshold never goes below AbsoluteSpeechFloor, so a recording of room noise
// stays silent; flat energy is decided by the floor alone.
func (as *ActivitySegmenter) SpeechGate(threshold float64, flat bool) float64 {
	if flat {
		return as.config.AbsoluteSpeechFloor
	}
	return max(threshold, as.config.AbsoluteSpeechFloor)
}

// mergeFrames groups consecutive same-label frames. Frame i owns [i*hop, (i+1)*hop);
// the last segment is stretched to the signal end so the union is [0, duration].
func (as *ActivitySegmenter) mergeFrames(speechFrames []bool, hopSize, sampleRate int, duration float64) []ActivitySegment {
	frameTime := func(i int) float64 {
		return float64(i*hopSize) / float64(sampleRate)
	}

	var segments []ActivitySegment
	currentStart := 0
	for i := 1; i <= len(speechFrames); i++ {
		if i < len(speechFrames) && speechFrames[i] == speechFrames[currentStart] {
			continue
		}

		end := duration
		if i < len(speechFrames) {
			end = frameTime(i)
		}

		segments = append(segments, ActivitySegment{
			Start:    frameTime(currentStart),
			End:      end,
			IsSpeech: speechFrames[currentStart],
		})
		currentStart = i
	}

	return segments
}

// summarize derives ratios and pause statistics from the segment list
func (as *ActivitySegmenter) summarize(segments []ActivitySegment, duration, threshold float64) *ActivityResult {
	result := &ActivityResult{
		Segments:  segments,
		Duration:  duration,
		Threshold: threshold,
	}

	silence := 0.0
	var pauses []float64
	for _, seg := range segments {
		if seg.IsSpeech {
			result.ActiveDuration += seg.Duration()
			continue
		}
		silence += seg.Duration()
		if seg.Duration() >= as.config.MinPauseDuration {
			pauses = append(pauses, seg.Duration())
		}
	}

	result.SilenceRatio = common.Clamp(common.SafeDivide(silence, duration, 0), 0, 1)
	result.SpeechRatio = 1.0 - result.SilenceRatio
	if duration == 0 {
		result.SpeechRatio = 0
	}
	result.PauseCount = len(pauses)
	result.AvgPauseDuration = common.Mean(pauses)
	result.Pauses = as.pauseStats(pauses, duration)

	return result
}

// pauseStats buckets pauses into short/medium/long/extended
func (as *ActivitySegmenter) pauseStats(pauses []float64, duration float64) PauseStats {
	ps := PauseStats{
		TotalPauseTime:  common.Sum(pauses),
		LongestPause:    common.Max(pauses),
		PausesPerMinute: common.SafeDivide(float64(len(pauses)), duration/60.0, 0),
	}

	for _, p := range pauses {
		switch {
		case p < as.config.ShortPauseMax:
			ps.Short++
		case p < as.config.MediumPauseMax:
			ps.Medium++
		case p < as.config.LongPauseMax:
			ps.Long++
		default:
			ps.Extended++
		}
	}

	return ps
}
