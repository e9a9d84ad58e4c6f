package config

import "slices"

const (
	LocaleEnglish    = "en-US"
	LocalePortuguese = "pt-BR"
)

// MessageCatalog holds the feedback templates and word lists of one locale.
// Templates are fmt format strings; argument order is fixed per message.
type MessageCatalog struct {
	RateTooSlow string // rate, delta, category name, min, max
	RateTooFast string // rate, delta, category name, min, max
	RateInRange string // rate, category name, min, max

	FewPauses          string // silence percent
	ManyPauses         string // silence percent
	InconsistentPacing string // variation percent
	LowClarity         string // intelligibility

	PronunciationExcellent string
	PronunciationGood      string
	PronunciationFair      string
	PronunciationPoor      string

	MissingList  string // comma separated words
	MissingCount string // count
	ExtraList    string // comma separated words
	ExtraCount   string // count
	WordCountGap string // transcribed count, expected count
	Mispronounce string // "expected → heard" list

	AllGood       string
	LowConfidence string

	// FillerPhrases may hold multi-word entries, matched on token n-grams
	FillerPhrases []string
	FunctionWords []string
}

var catalogs = map[string]MessageCatalog{
	LocaleEnglish: {
		RateTooSlow:            "Your articulation rate is %.0f wpm; speed up by about %.0f wpm to reach the %s range (%.0f-%.0f wpm).",
		RateTooFast:            "Your articulation rate is %.0f wpm; slow down by about %.0f wpm to reach the %s range (%.0f-%.0f wpm).",
		RateInRange:            "Your articulation rate of %.0f wpm is inside the %s range (%.0f-%.0f wpm).",
		FewPauses:              "You paused very little (%.0f%% silence). Short pauses help listeners follow.",
		ManyPauses:             "Pauses take %.0f%% of the recording. Try to reduce hesitations.",
		InconsistentPacing:     "Inconsistent pacing: your local rate varies by %.0f%%. Aim for a steadier rhythm.",
		LowClarity:             "Clarity may suffer (intelligibility %.0f/100). Articulate each word fully.",
		PronunciationExcellent: "Excellent pronunciation! The transcript matches the expected text closely.",
		PronunciationGood:      "Good pronunciation, with a few words to polish.",
		PronunciationFair:      "Fair pronunciation. Practice the words listed below.",
		PronunciationPoor:      "The transcript differs a lot from the expected text. Speak slowly and clearly.",
		MissingList:            "Words not heard: %s.",
		MissingCount:           "%d expected words were not heard.",
		ExtraList:              "Unexpected words: %s.",
		ExtraCount:             "%d words were heard that are not in the text.",
		WordCountGap:           "You said %d words but the text has %d.",
		Mispronounce:           "Possibly mispronounced: %s.",
		AllGood:                "Great delivery. Keep it up!",
		LowConfidence:          "The recording is too short or too quiet for a reliable analysis.",
		FillerPhrases: []string{
			"um", "umm", "uh", "uhh", "ah", "ahh", "er", "err", "hmm",
			"like", "basically", "actually", "literally", "honestly", "obviously",
			"you know", "i mean", "kind of", "sort of", "kinda", "sorta",
			"i guess", "you see", "anyway", "anyways", "whatever",
		},
		FunctionWords: []string{
			"a", "an", "the", "and", "or", "but", "if", "of", "to", "in", "on", "at",
			"by", "for", "with", "from", "as", "is", "are", "was", "were", "be", "been",
			"it", "its", "this", "that", "these", "those", "i", "you", "he", "she",
			"we", "they", "me", "him", "her", "us", "them", "my", "your", "our", "their",
			"not", "no", "so", "do", "does", "did", "have", "has", "had",
		},
	},
	LocalePortuguese: {
		RateTooSlow:            "Sua taxa de articulação é %.0f ppm; acelere cerca de %.0f ppm para entrar na faixa de %s (%.0f-%.0f ppm).",
		RateTooFast:            "Sua taxa de articulação é %.0f ppm; desacelere cerca de %.0f ppm para entrar na faixa de %s (%.0f-%.0f ppm).",
		RateInRange:            "Sua taxa de articulação de %.0f ppm está dentro da faixa de %s (%.0f-%.0f ppm).",
		FewPauses:              "Você fez poucas pausas (%.0f%% de silêncio). Pausas curtas ajudam o ouvinte.",
		ManyPauses:             "As pausas ocupam %.0f%% da gravação. Tente reduzir as hesitações.",
		InconsistentPacing:     "Ritmo inconsistente: sua velocidade local varia %.0f%%. Busque um ritmo mais estável.",
		LowClarity:             "A clareza pode estar comprometida (inteligibilidade %.0f/100). Articule bem cada palavra.",
		PronunciationExcellent: "Excelente pronúncia! A transcrição corresponde de perto ao texto esperado.",
		PronunciationGood:      "Boa pronúncia, com algumas palavras a melhorar.",
		PronunciationFair:      "Pronúncia regular. Pratique as palavras listadas abaixo.",
		PronunciationPoor:      "A transcrição difere bastante do texto esperado. Fale devagar e com clareza.",
		MissingList:            "Palavras não ouvidas: %s.",
		MissingCount:           "%d palavras esperadas não foram ouvidas.",
		ExtraList:              "Palavras inesperadas: %s.",
		ExtraCount:             "%d palavras ouvidas não estão no texto.",
		WordCountGap:           "Você disse %d palavras, mas o texto tem %d.",
		Mispronounce:           "Possível pronúncia incorreta: %s.",
		AllGood:                "Ótima apresentação. Continue assim!",
		LowConfidence:          "A gravação é curta ou baixa demais para uma análise confiável.",
		FillerPhrases: []string{
			"é", "ã", "hum", "humm", "eh", "ehh", "ah", "ahh", "ahn",
			"né", "ne", "sabe", "tipo", "assim", "então", "entao", "olha", "enfim",
			"quer dizer", "na verdade", "tipo assim", "sei lá", "sei la",
			"basicamente", "literalmente", "aí", "daí",
		},
		FunctionWords: []string{
			"o", "a", "os", "as", "um", "uma", "uns", "umas", "de", "da", "do", "das",
			"dos", "em", "na", "no", "nas", "nos", "por", "para", "com", "sem", "sobre",
			"e", "ou", "mas", "que", "qual", "quem", "onde", "quando", "como",
			"eu", "tu", "ele", "ela", "nós", "eles", "elas", "me", "te", "se", "lhe",
			"meu", "minha", "seu", "sua", "este", "esta", "esse", "essa", "isso",
			"ser", "estar", "ter", "é", "são", "foi",
		},
	},
}

// Catalog returns a copy of the catalog for locale, falling back to English
func Catalog(locale string) MessageCatalog {
	c, ok := catalogs[locale]
	if !ok {
		c = catalogs[LocaleEnglish]
	}
	c.FillerPhrases = slices.Clone(c.FillerPhrases)
	c.FunctionWords = slices.Clone(c.FunctionWords)
	return c
}

// Locales lists the supported feedback locales
func Locales() []string {
	return []string{LocaleEnglish, LocalePortuguese}
}
