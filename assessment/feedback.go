package assessment

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-meter/assessment/config"
)

// FeedbackInput is everything the feedback rules look at
type FeedbackInput struct {
	ArticulationRate     float64
	Profile              config.CategoryProfile
	SilenceRatio         float64
	VariationCoefficient float64
	Intelligibility      float64
	Alignment            *WordAlignment
	PronunciationScore   int
	LowConfidence        bool
}

// FeedbackSynthesizer turns metrics into ordered, localized guidance
type FeedbackSynthesizer struct {
	config  config.FeedbackConfig
	catalog config.MessageCatalog
}

// NewFeedbackSynthesizer creates a synthesizer using the configured locale
func NewFeedbackSynthesizer(cfg config.FeedbackConfig) *FeedbackSynthesizer {
	return &FeedbackSynthesizer{
		config:  cfg,
		catalog: config.Catalog(cfg.Locale),
	}
}

// Synthesize applies the delivery rules in priority order (rate, pauses,
// pacing, clarity), then the pronunciation rules when an alignment exists.
// The positive message is used only when no delivery rule fired.
func (fs *FeedbackSynthesizer) Synthesize(in FeedbackInput) []string {
	var messages []string
	if in.LowConfidence {
		messages = append(messages, fs.catalog.LowConfidence)
	}

	fired := false
	p := in.Profile
	switch delta := p.Delta(in.ArticulationRate); {
	case delta > 0:
		messages = append(messages, fmt.Sprintf(fs.catalog.RateTooSlow, in.ArticulationRate, delta, p.Name, p.MinPpm, p.MaxPpm))
		fired = true
	case delta < 0:
		messages = append(messages, fmt.Sprintf(fs.catalog.RateTooFast, in.ArticulationRate, -delta, p.Name, p.MinPpm, p.MaxPpm))
		fired = true
	default:
		messages = append(messages, fmt.Sprintf(fs.catalog.RateInRange, in.ArticulationRate, p.Name, p.MinPpm, p.MaxPpm))
	}

	switch {
	case in.SilenceRatio < fs.config.LowSilenceRatio:
		messages = append(messages, fmt.Sprintf(fs.catalog.FewPauses, in.SilenceRatio*100))
		fired = true
	case in.SilenceRatio > fs.config.HighSilenceRatio:
		messages = append(messages, fmt.Sprintf(fs.catalog.ManyPauses, in.SilenceRatio*100))
		fired = true
	}

	if in.VariationCoefficient > fs.config.VariationThreshold {
		messages = append(messages, fmt.Sprintf(fs.catalog.InconsistentPacing, in.VariationCoefficient))
		fired = true
	}

	if in.Intelligibility < fs.config.ClarityThreshold {
		messages = append(messages, fmt.Sprintf(fs.catalog.LowClarity, in.Intelligibility))
		fired = true
	}

	if in.Alignment != nil {
		messages = append(messages, fs.pronunciation(in.Alignment, in.PronunciationScore)...)
	}

	if !fired {
		messages = append(messages, fs.catalog.AllGood)
	}

	return messages
}

// pronunciation grades the transcript against the expected text
func (fs *FeedbackSynthesizer) pronunciation(a *WordAlignment, score int) []string {
	var messages []string

	s := float64(score)
	switch {
	case s >= fs.config.ExcellentScore:
		messages = append(messages, fs.catalog.PronunciationExcellent)
	case s >= fs.config.GoodScore:
		messages = append(messages, fs.catalog.PronunciationGood)
	case s >= fs.config.FairScore:
		messages = append(messages, fs.catalog.PronunciationFair)
	default:
		messages = append(messages, fs.catalog.PronunciationPoor)
	}

	if msg := fs.wordList(a.MissingWords, fs.catalog.MissingList, fs.catalog.MissingCount); msg != "" {
		messages = append(messages, msg)
	}
	if msg := fs.wordList(a.ExtraWords, fs.catalog.ExtraList, fs.catalog.ExtraCount); msg != "" {
		messages = append(messages, msg)
	}

	if gap := a.TranscribedWordCount - a.ExpectedWordCount; gap > fs.config.WordCountGap || -gap > fs.config.WordCountGap {
		messages = append(messages, fmt.Sprintf(fs.catalog.WordCountGap, a.TranscribedWordCount, a.ExpectedWordCount))
	}

	if len(a.MispronouncedWords) > 0 {
		n := min(len(a.MispronouncedWords), fs.config.MaxListedWords)
		pairs := make([]string, 0, n)
		for _, mw := range a.MispronouncedWords[:n] {
			pairs = append(pairs, fmt.Sprintf("%s → %s", mw.Expected, mw.Heard))
		}
		messages = append(messages, fmt.Sprintf(fs.catalog.Mispronounce, strings.Join(pairs, ", ")))
	}

	return messages
}

// wordList names up to MaxListedWords words, otherwise reports the count
func (fs *FeedbackSynthesizer) wordList(words []string, listTmpl, countTmpl string) string {
	switch {
	case len(words) == 0:
		return ""
	case len(words) <= fs.config.MaxListedWords:
		return fmt.Sprintf(listTmpl, strings.Join(words, ", "))
	default:
		return fmt.Sprintf(countTmpl, len(words))
	}
}

// JoinFeedback renders feedback messages as one paragraph
func JoinFeedback(messages []string) string {
	return strings.Join(messages, " ")
}
