package assessment

import (
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-meter/assessment/config"
)

func newTestSynthesizer(locale string) *FeedbackSynthesizer {
	cfg := config.DefaultEngineConfig().Feedback
	cfg.Locale = locale
	return NewFeedbackSynthesizer(cfg)
}

func goodInput() FeedbackInput {
	return FeedbackInput{
		ArticulationRate:     150,
		Profile:              config.Category(config.CategoryPresentation),
		SilenceRatio:         0.2,
		VariationCoefficient: 5,
		Intelligibility:      95,
	}
}

func TestFeedbackSynthesizer_AllGood(t *testing.T) {
	t.Parallel()

	catalog := config.Catalog(config.LocaleEnglish)
	got := newTestSynthesizer(config.LocaleEnglish).Synthesize(goodInput())

	if len(got) != 2 {
		t.Fatalf("expected rate status and positive message, got %q", got)
	}
	if !strings.Contains(got[0], "inside the Presentation range") {
		t.Errorf("first message = %q, want the in-range rate message", got[0])
	}
	if got[1] != catalog.AllGood {
		t.Errorf("last message = %q, want %q", got[1], catalog.AllGood)
	}
}

func TestFeedbackSynthesizer_RateDelta(t *testing.T) {
	t.Parallel()

	fs := newTestSynthesizer(config.LocaleEnglish)

	tests := []struct {
		rate float64
		want string
	}{
		{120, "speed up by about 20 wpm"},
		{175, "slow down by about 15 wpm"},
	}
	for _, tt := range tests {
		in := goodInput()
		in.ArticulationRate = tt.rate
		got := fs.Synthesize(in)
		if !strings.Contains(got[0], tt.want) {
			t.Errorf("rate %v: first message = %q, want it to contain %q", tt.rate, got[0], tt.want)
		}
		for _, msg := range got {
			if msg == config.Catalog(config.LocaleEnglish).AllGood {
				t.Errorf("rate %v: positive message emitted although the rate rule fired", tt.rate)
			}
		}
	}
}

func TestFeedbackSynthesizer_PriorityOrder(t *testing.T) {
	t.Parallel()

	in := goodInput()
	in.ArticulationRate = 100
	in.SilenceRatio = 0.05
	in.VariationCoefficient = 30
	in.Intelligibility = 60

	got := newTestSynthesizer(config.LocaleEnglish).Synthesize(in)

	wants := []string{"speed up", "paused very little", "Inconsistent pacing", "Clarity may suffer"}
	if len(got) != len(wants) {
		t.Fatalf("got %d messages %q, want %d", len(got), got, len(wants))
	}
	for i, want := range wants {
		if !strings.Contains(got[i], want) {
			t.Errorf("message %d = %q, want it to contain %q", i, got[i], want)
		}
	}
}

func TestFeedbackSynthesizer_ManyPauses(t *testing.T) {
	t.Parallel()

	in := goodInput()
	in.SilenceRatio = 0.55
	got := newTestSynthesizer(config.LocaleEnglish).Synthesize(in)

	if !strings.Contains(got[1], "55% of the recording") {
		t.Errorf("pause message = %q", got[1])
	}
}

func TestFeedbackSynthesizer_Pronunciation(t *testing.T) {
	t.Parallel()

	catalog := config.Catalog(config.LocaleEnglish)
	fs := newTestSynthesizer(config.LocaleEnglish)

	tests := []struct {
		name      string
		alignment *WordAlignment
		score     int
		contains  []string
	}{
		{
			name:      "excellent",
			alignment: &WordAlignment{ExpectedWordCount: 4, TranscribedWordCount: 4},
			score:     96,
			contains:  []string{catalog.PronunciationExcellent},
		},
		{
			name: "few missing words are listed",
			alignment: &WordAlignment{
				MissingWords:         []string{"fox"},
				ExpectedWordCount:    4,
				TranscribedWordCount: 3,
			},
			score:    79,
			contains: []string{catalog.PronunciationGood, "Words not heard: fox."},
		},
		{
			name: "many extra words are counted",
			alignment: &WordAlignment{
				ExtraWords:           []string{"a", "b", "c", "d"},
				ExpectedWordCount:    2,
				TranscribedWordCount: 6,
			},
			score:    55,
			contains: []string{catalog.PronunciationFair, "4 words were heard", "You said 6 words but the text has 2."},
		},
		{
			name: "mispronounced pairs",
			alignment: &WordAlignment{
				MispronouncedWords:   []MispronouncedWord{{Expected: "quick", Heard: "quik", Similarity: 0.8}},
				ExpectedWordCount:    4,
				TranscribedWordCount: 4,
			},
			score:    30,
			contains: []string{catalog.PronunciationPoor, "quick → quik"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := goodInput()
			in.Alignment = tt.alignment
			in.PronunciationScore = tt.score
			joined := JoinFeedback(fs.Synthesize(in))

			for _, want := range tt.contains {
				if !strings.Contains(joined, want) {
					t.Errorf("feedback %q does not contain %q", joined, want)
				}
			}
		})
	}
}

func TestFeedbackSynthesizer_LowConfidenceComesFirst(t *testing.T) {
	t.Parallel()

	in := goodInput()
	in.LowConfidence = true
	got := newTestSynthesizer(config.LocaleEnglish).Synthesize(in)

	if got[0] != config.Catalog(config.LocaleEnglish).LowConfidence {
		t.Errorf("first message = %q, want the low confidence notice", got[0])
	}
}

func TestFeedbackSynthesizer_Portuguese(t *testing.T) {
	t.Parallel()

	in := goodInput()
	in.ArticulationRate = 120
	got := newTestSynthesizer(config.LocalePortuguese).Synthesize(in)

	if !strings.Contains(got[0], "acelere cerca de 20 ppm") {
		t.Errorf("first message = %q, want Portuguese rate guidance", got[0])
	}
}
