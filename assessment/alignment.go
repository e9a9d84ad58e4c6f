package assessment

import (
	"slices"

	"github.com/RyanBlaney/sonido-meter/algorithms/common"
	"github.com/RyanBlaney/sonido-meter/algorithms/text"
	"github.com/RyanBlaney/sonido-meter/assessment/config"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// MispronouncedWord pairs an expected word with the similar word that was heard instead
type MispronouncedWord struct {
	Expected   string  `json:"expected"`
	Heard      string  `json:"heard"`
	Similarity float64 `json:"similarity"`
}

// WordAlignment is the word-level comparison of an expected text with a transcript
type WordAlignment struct {
	MatchedWords         []string            `json:"matched_words"`
	MissingWords         []string            `json:"missing_words"`
	ExtraWords           []string            `json:"extra_words"`
	MispronouncedWords   []MispronouncedWord `json:"mispronounced_words"`
	WordAccuracy         float64             `json:"word_accuracy"`
	SimilarityRatio      float64             `json:"similarity_ratio"`
	LevenshteinDistance  int                 `json:"levenshtein_distance"`
	ExpectedWordCount    int                 `json:"expected_word_count"`
	TranscribedWordCount int                 `json:"transcribed_word_count"`
}

// WordAligner classifies words as matched, missing, extra or mispronounced
type WordAligner struct {
	config config.AlignmentConfig
	logger logging.Logger
}

// NewWordAligner creates a word aligner
func NewWordAligner(cfg config.AlignmentConfig) *WordAligner {
	return &WordAligner{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "word_aligner",
		}),
	}
}

// gap holds the unmatched token indexes between two consecutive LCS anchors
type gap struct {
	missing []int
	extra   []int
}

// Align compares expected against transcribed. It returns nil when expected
// has no words after normalization.
func (wa *WordAligner) Align(expected, transcribed string) *WordAlignment {
	exp := text.Tokenize(expected)
	if len(exp) == 0 {
		return nil
	}
	got := text.Tokenize(transcribed)

	pairs := text.LCS(exp, got)

	result := &WordAlignment{
		MatchedWords:         make([]string, 0, len(pairs)),
		MissingWords:         []string{},
		ExtraWords:           []string{},
		MispronouncedWords:   []MispronouncedWord{},
		ExpectedWordCount:    len(exp),
		TranscribedWordCount: len(got),
	}
	for _, p := range pairs {
		result.MatchedWords = append(result.MatchedWords, exp[p.Left])
	}

	usedMissing := make([]bool, len(exp))
	usedExtra := make([]bool, len(got))
	for _, g := range gaps(pairs, len(exp), len(got)) {
		for _, mp := range wa.pairGap(g, exp, got) {
			usedMissing[mp.missing] = true
			usedExtra[mp.extra] = true
			result.MispronouncedWords = append(result.MispronouncedWords, MispronouncedWord{
				Expected:   exp[mp.missing],
				Heard:      got[mp.extra],
				Similarity: mp.similarity,
			})
		}
	}

	inLCS := make([]bool, len(exp))
	heardInLCS := make([]bool, len(got))
	for _, p := range pairs {
		inLCS[p.Left] = true
		heardInLCS[p.Right] = true
	}
	for i, w := range exp {
		if !inLCS[i] && !usedMissing[i] {
			result.MissingWords = append(result.MissingWords, w)
		}
	}
	for j, w := range got {
		if !heardInLCS[j] && !usedExtra[j] {
			result.ExtraWords = append(result.ExtraWords, w)
		}
	}

	result.WordAccuracy = float64(len(pairs)) / float64(len(exp))

	normExpected, normHeard := text.Normalize(expected), text.Normalize(transcribed)
	result.LevenshteinDistance = text.Levenshtein(normExpected, normHeard)
	result.SimilarityRatio = text.Similarity(normExpected, normHeard)

	wa.logger.Debug("Words aligned", logging.Fields{
		"function":      "Align",
		"expected":      len(exp),
		"transcribed":   len(got),
		"matched":       len(pairs),
		"mispronounced": len(result.MispronouncedWords),
	})

	return result
}

type fuzzyPair struct {
	missing    int
	extra      int
	similarity float64
}

// pairGap greedily pairs each missing word, in order, with the unused extra word
// of highest similarity; ties go to the lowest index.
func (wa *WordAligner) pairGap(g gap, exp, got []string) []fuzzyPair {
	var pairs []fuzzyPair
	used := make(map[int]bool, len(g.extra))

	for _, mi := range g.missing {
		best, bestSim := -1, -1.0
		for _, ei := range g.extra {
			if used[ei] {
				continue
			}
			sim := common.Round(text.Similarity(exp[mi], got[ei]), wa.config.SimilarityDecimals)
			if sim > bestSim {
				best, bestSim = ei, sim
			}
		}
		if best < 0 || bestSim <= wa.config.MispronunciationFloor {
			continue
		}
		used[best] = true
		pairs = append(pairs, fuzzyPair{missing: mi, extra: best, similarity: bestSim})
	}

	return pairs
}

// gaps splits the unmatched indexes at every LCS anchor, so a missing word is
// only compared with extra words heard at the same place in the sentence.
func gaps(pairs []text.MatchedPair, n, m int) []gap {
	result := make([]gap, 0, len(pairs)+1)
	prevLeft, prevRight := -1, -1

	bounds := append(slices.Clip(pairs), text.MatchedPair{Left: n, Right: m})
	for _, anchor := range bounds {
		var g gap
		for i := prevLeft + 1; i < anchor.Left; i++ {
			g.missing = append(g.missing, i)
		}
		for j := prevRight + 1; j < anchor.Right; j++ {
			g.extra = append(g.extra, j)
		}
		if len(g.missing) > 0 && len(g.extra) > 0 {
			result = append(result, g)
		}
		prevLeft, prevRight = anchor.Left, anchor.Right
	}

	return result
}
