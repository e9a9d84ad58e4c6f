package assessment

import (
	"strings"
	"unicode/utf8"

	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/algorithms/text"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
)

// TranscriptMetrics are lexical statistics of what was actually said
type TranscriptMetrics struct {
	TotalWords      int     `json:"total_words"`
	UniqueWords     int     `json:"unique_words"`
	TypeTokenRatio  float64 `json:"type_token_ratio"`
	AvgWordLength   float64 `json:"avg_word_length"`
	FillerCount     int     `json:"filler_count"`
	FillerRatio     float64 `json:"filler_ratio"`
	Repetitions     int     `json:"repetitions"`
	SelfCorrections int     `json:"self_corrections"`
	LexicalDensity  float64 `json:"lexical_density"`
}

// TranscriptAnalyzer computes TranscriptMetrics with one locale's word lists
type TranscriptAnalyzer struct {
	config        config.AlignmentConfig
	fillers       [][]string
	functionWords map[string]struct{}
}

// NewTranscriptAnalyzer creates an analyzer for the given locale catalog
func NewTranscriptAnalyzer(cfg config.AlignmentConfig, catalog config.MessageCatalog) *TranscriptAnalyzer {
	ta := &TranscriptAnalyzer{
		config:        cfg,
		functionWords: make(map[string]struct{}, len(catalog.FunctionWords)),
	}
	for _, phrase := range catalog.FillerPhrases {
		if tokens := text.Tokenize(phrase); len(tokens) > 0 {
			ta.fillers = append(ta.fillers, tokens)
		}
	}
	for _, w := range catalog.FunctionWords {
		ta.functionWords[strings.ToLower(w)] = struct{}{}
	}
	return ta
}

// Analyze returns nil for a transcript without words
func (ta *TranscriptAnalyzer) Analyze(transcript string) *TranscriptMetrics {
	tokens := text.Tokenize(transcript)
	if len(tokens) == 0 {
		return nil
	}

	m := &TranscriptMetrics{TotalWords: len(tokens)}

	unique := make(map[string]struct{}, len(tokens))
	runes, content := 0, 0
	for i, tok := range tokens {
		unique[tok] = struct{}{}
		runes += utf8.RuneCountInString(tok)
		if _, ok := ta.functionWords[tok]; !ok {
			content++
		}

		if i == 0 {
			continue
		}
		prev := tokens[i-1]
		if tok == prev {
			m.Repetitions++
			continue
		}
		sim := text.Similarity(prev, tok)
		if sim > ta.config.SelfCorrectionMin && sim < ta.config.SelfCorrectionMax {
			m.SelfCorrections++
		}
	}

	m.UniqueWords = len(unique)
	m.TypeTokenRatio = common.Round(float64(m.UniqueWords)/float64(m.TotalWords), 3)
	m.AvgWordLength = common.Round(float64(runes)/float64(m.TotalWords), 2)
	m.FillerCount = ta.countFillers(tokens)
	m.FillerRatio = common.Round(float64(m.FillerCount)/float64(m.TotalWords), 3)
	m.LexicalDensity = common.Round(float64(content)/float64(m.TotalWords), 3)

	return m
}

// countFillers matches filler phrases over the token stream, longest first,
// without overlapping matches.
func (ta *TranscriptAnalyzer) countFillers(tokens []string) int {
	count := 0
	for i := 0; i < len(tokens); {
		longest := 0
		for _, phrase := range ta.fillers {
			if len(phrase) > longest && hasPrefix(tokens[i:], phrase) {
				longest = len(phrase)
			}
		}
		if longest == 0 {
			i++
			continue
		}
		count++
		i += longest
	}
	return count
}

func hasPrefix(tokens, phrase []string) bool {
	if len(phrase) > len(tokens) {
		return false
	}
	for k, w := range phrase {
		if tokens[k] != w {
			return false
		}
	}
	return true
}
