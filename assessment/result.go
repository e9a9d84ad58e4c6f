package assessment

import "github.com/RyanBlaney/sonido-meter/algorithms/temporal"

// AnalysisResult is the complete assessment of one recording. The flat fields
// are a stable wire contract; alignment fields are present only when the
// request carried expected text and a transcript.
type AnalysisResult struct {
	RequestID    string `json:"request_id,omitempty"`
	Category     string `json:"category"`
	CategoryName string `json:"category_name"`

	ArticulationRate     float64 `json:"articulation_rate"`
	SpeechRate           float64 `json:"speech_rate"`
	DurationSeconds      float64 `json:"duration_seconds"`
	ActiveSpeechTime     float64 `json:"active_speech_time"`
	SilenceRatio         float64 `json:"silence_ratio"`
	PauseCount           int     `json:"pause_count"`
	AvgPauseDuration     float64 `json:"avg_pause_duration"`
	PacingConsistency    float64 `json:"pacing_consistency"`
	PacingVariation      float64 `json:"pacing_variation"`
	IntelligibilityScore float64 `json:"intelligibility_score"`
	IsWithinRange        bool    `json:"is_within_range"`
	IdealMinPpm          float64 `json:"ideal_min_ppm"`
	IdealMaxPpm          float64 `json:"ideal_max_ppm"`
	RateDelta            float64 `json:"rate_delta"`
	OnsetCount           int     `json:"onset_count"`

	*WordAlignment

	OverallScore       float64  `json:"overall_score"`
	PronunciationScore *int     `json:"pronunciation_score,omitempty"`
	Feedback           string   `json:"feedback"`
	FeedbackItems      []string `json:"feedback_items"`

	LowConfidence bool     `json:"low_confidence"`
	Warnings      []string `json:"warnings"`
	// Confidence is the percentage of frames louder than a fraction of the peak
	Confidence float64 `json:"confidence"`

	TranscribedText   string                     `json:"transcribed_text,omitempty"`
	TranscriptMetrics *TranscriptMetrics         `json:"transcript_metrics,omitempty"`
	Volume            *temporal.VolumeProfile    `json:"volume"`
	Pauses            temporal.PauseStats        `json:"pauses"`
	Rate              *RateMetrics               `json:"rate_details"`
	Pacing            *PacingMetrics             `json:"pacing_details"`
	Segments          []temporal.ActivitySegment `json:"segments"`
}
