package assessment

import (
	"reflect"
	"testing"

	"github.com/RyanBlaney/sonido-meter/algorithms/temporal"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
)

// activity builds an activity result with one speech segment [0, speechEnd)
// followed by silence up to duration.
func activity(speechEnd, duration float64) *temporal.ActivityResult {
	segments := []temporal.ActivitySegment{{Start: 0, End: speechEnd, IsSpeech: true}}
	if speechEnd < duration {
		segments = append(segments, temporal.ActivitySegment{Start: speechEnd, End: duration, IsSpeech: false})
	}
	return &temporal.ActivityResult{
		Segments:       segments,
		Duration:       duration,
		ActiveDuration: speechEnd,
		SpeechRatio:    speechEnd / duration,
		SilenceRatio:   1 - speechEnd/duration,
	}
}

func concat(sets ...temporal.OnsetSet) temporal.OnsetSet {
	var out temporal.OnsetSet
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func TestRateEstimator_ZeroOnsets(t *testing.T) {
	t.Parallel()

	re := NewRateEstimator(config.DefaultRateConfig())
	m := re.Estimate(temporal.OnsetSet{}, activity(10, 10), 10)

	if m.ArticulationRatePpm != 0 || m.SpeechRatePpm != 0 || m.EstimatedWordCount != 0 {
		t.Fatalf("expected zero rates, got %+v", m)
	}
	if m.Correction != CorrectionNone {
		t.Errorf("Correction = %q, want none", m.Correction)
	}
}

func TestRateEstimator_ZeroActiveDuration(t *testing.T) {
	t.Parallel()

	re := NewRateEstimator(config.DefaultRateConfig())
	act := &temporal.ActivityResult{
		Segments:     []temporal.ActivitySegment{{Start: 0, End: 5, IsSpeech: false}},
		Duration:     5,
		SilenceRatio: 1,
	}
	m := re.Estimate(evenOnsets(10, 0.1, 0.4), act, 5)

	if m.ArticulationRatePpm != 0 || m.SpeechRatePpm != 0 {
		t.Fatalf("expected zero rates without active speech, got %+v", m)
	}
}

func TestRateEstimator_Branches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		onsets     temporal.OnsetSet
		activity   *temporal.ActivityResult
		duration   float64
		wantRate   float64
		wantSPW    float64
		correction RateCorrection
		hybrid     bool
	}{
		{
			name:       "typical density uses language average",
			onsets:     evenOnsets(30, 0.1, 0.33),
			activity:   activity(10, 10),
			duration:   10,
			wantRate:   30 / 2.7 / (10.0 / 60.0),
			wantSPW:    2.7,
			correction: CorrectionNone,
		},
		{
			name:       "sparse speech is boosted and floored",
			onsets:     evenOnsets(5, 0.5, 2),
			activity:   activity(10, 10),
			duration:   10,
			wantRate:   80,
			wantSPW:    3.0,
			correction: CorrectionBoostedSparse,
		},
		{
			name:       "dense total with sparse speech is boosted",
			onsets:     concat(evenOnsets(5, 0.5, 0.9), evenOnsets(20, 5.1, 0.2)),
			activity:   activity(5, 10),
			duration:   10,
			wantRate:   80,
			wantSPW:    3.0,
			correction: CorrectionBoosted,
		},
		{
			name:       "implausibly fast speech is damped and capped",
			onsets:     evenOnsets(20, 0.05, 0.09),
			activity:   activity(2, 10),
			duration:   10,
			wantRate:   220,
			wantSPW:    1.8,
			correction: CorrectionDamped,
		},
		{
			name:       "aggressive VAD falls back to all onsets",
			onsets:     concat(evenOnsets(2, 0.5, 1), evenOnsets(8, 3.5, 0.8)),
			activity:   activity(3, 10),
			duration:   10,
			wantRate:   10 / 2.2 / (3.0 / 60.0),
			wantSPW:    2.2,
			correction: CorrectionNone,
			hybrid:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			re := NewRateEstimator(config.DefaultRateConfig())
			m := re.Estimate(tt.onsets, tt.activity, tt.duration)

			if !approxEqual(m.ArticulationRatePpm, tt.wantRate, 1e-6) {
				t.Errorf("ArticulationRatePpm = %v, want %v", m.ArticulationRatePpm, tt.wantRate)
			}
			if m.SyllablesPerWord != tt.wantSPW {
				t.Errorf("SyllablesPerWord = %v, want %v", m.SyllablesPerWord, tt.wantSPW)
			}
			if m.Correction != tt.correction {
				t.Errorf("Correction = %q, want %q", m.Correction, tt.correction)
			}
			if m.HybridFallback != tt.hybrid {
				t.Errorf("HybridFallback = %v, want %v", m.HybridFallback, tt.hybrid)
			}

			again := re.Estimate(tt.onsets, tt.activity, tt.duration)
			if !reflect.DeepEqual(m, again) {
				t.Errorf("estimate is not deterministic: %+v vs %+v", m, again)
			}
		})
	}
}

func TestRateEstimator_SpeechRateUsesTotalDuration(t *testing.T) {
	t.Parallel()

	re := NewRateEstimator(config.DefaultRateConfig())
	onsets := evenOnsets(15, 0.1, 0.3)
	m := re.Estimate(onsets, activity(5, 10), 10)

	// 15 onsets over 5s active: density 3.0 -> 2.7 syllables per word
	words := 15 / 2.7
	if !approxEqual(m.SpeechRatePpm, words/(10.0/60.0), 1e-9) {
		t.Errorf("SpeechRatePpm = %v, want %v", m.SpeechRatePpm, words/(10.0/60.0))
	}
	if !approxEqual(m.ArticulationRatePpm, words/(5.0/60.0), 1e-9) {
		t.Errorf("ArticulationRatePpm = %v, want %v", m.ArticulationRatePpm, words/(5.0/60.0))
	}
}

func TestFilterSpeechOnsets(t *testing.T) {
	t.Parallel()

	segments := []temporal.ActivitySegment{
		{Start: 0, End: 1, IsSpeech: false},
		{Start: 1, End: 2, IsSpeech: true},
		{Start: 2, End: 3, IsSpeech: false},
		{Start: 3, End: 4, IsSpeech: true},
	}
	onsets := temporal.OnsetSet{0.5, 0.97, 1.0, 1.5, 2.0, 2.5, 2.94, 3.5, 4.0}

	tests := []struct {
		name string
		lead float64
		want temporal.OnsetSet
	}{
		{name: "inside speech only", lead: 0, want: temporal.OnsetSet{1.0, 1.5, 3.5, 4.0}},
		{name: "rise just before speech", lead: 0.05, want: temporal.OnsetSet{0.97, 1.0, 1.5, 3.5, 4.0}},
		{name: "wide lead", lead: 0.1, want: temporal.OnsetSet{0.97, 1.0, 1.5, 2.94, 3.5, 4.0}},
	}
	for _, tt := range tests {
		got := FilterSpeechOnsets(onsets, segments, tt.lead)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: FilterSpeechOnsets = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRateEstimator_OnsetsLeadingSpeechAreCounted(t *testing.T) {
	t.Parallel()

	// onsets sit 10ms before each voiced segment, as the onset frame starts
	// ahead of the first frame the segmenter labels speech
	var segments []temporal.ActivitySegment
	var onsets temporal.OnsetSet
	for n := range 10 {
		start := 0.2 + float64(n)*0.5
		segments = append(segments,
			temporal.ActivitySegment{Start: start - 0.2, End: start, IsSpeech: false},
			temporal.ActivitySegment{Start: start, End: start + 0.3, IsSpeech: true},
		)
		onsets = append(onsets, start-0.01)
	}
	voiced := &temporal.ActivityResult{Segments: segments, Duration: 5, ActiveDuration: 3, SpeechRatio: 0.6}

	m := NewRateEstimator(config.DefaultRateConfig()).Estimate(onsets, voiced, 5)
	if m.HybridFallback {
		t.Error("hybrid fallback used on a speech-dominated clip")
	}
	if m.EstimatedSyllableCount != 10 || m.RetainedOnsetFraction != 1 {
		t.Errorf("counted %d retained %v, want 10 and 1", m.EstimatedSyllableCount, m.RetainedOnsetFraction)
	}
	if m.ArticulationRatePpm <= 0 {
		t.Errorf("ArticulationRatePpm = %v, want positive", m.ArticulationRatePpm)
	}
}
