package config

import "strings"

// CategoryProfile is the ideal articulation rate range for a speaking situation
type CategoryProfile struct {
	Key         string  `json:"key" yaml:"key"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	MinPpm      float64 `json:"min_ppm" yaml:"min_ppm"`
	MaxPpm      float64 `json:"max_ppm" yaml:"max_ppm"`
}

const (
	CategoryPresentation = "presentation"
	CategoryPitch        = "pitch"
	CategoryConversation = "conversation"
	CategoryOther        = "other"
)

// categoryTable is never handed out directly; accessors return copies
var categoryTable = map[string]CategoryProfile{
	CategoryPresentation: {
		Key:         CategoryPresentation,
		Name:        "Presentation",
		Description: "Formal talks to an audience; measured pace so ideas land.",
		MinPpm:      140,
		MaxPpm:      160,
	},
	CategoryPitch: {
		Key:         CategoryPitch,
		Name:        "Pitch",
		Description: "Short persuasive delivery; energetic but clear.",
		MinPpm:      120,
		MaxPpm:      150,
	},
	CategoryConversation: {
		Key:         CategoryConversation,
		Name:        "Everyday conversation",
		Description: "Relaxed dialogue with natural pauses.",
		MinPpm:      100,
		MaxPpm:      130,
	},
	CategoryOther: {
		Key:         CategoryOther,
		Name:        "Other",
		Description: "General speech without a specific target.",
		MinPpm:      110,
		MaxPpm:      140,
	},
}

var categoryOrder = []string{CategoryPresentation, CategoryPitch, CategoryConversation, CategoryOther}

// Category resolves a category key case-insensitively. Unknown or empty keys
// resolve to the "other" profile.
func Category(key string) CategoryProfile {
	if profile, ok := categoryTable[strings.ToLower(strings.TrimSpace(key))]; ok {
		return profile
	}
	return categoryTable[CategoryOther]
}

// IsKnownCategory reports whether key names a profile without falling back
func IsKnownCategory(key string) bool {
	_, ok := categoryTable[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Categories returns every profile in display order
func Categories() []CategoryProfile {
	out := make([]CategoryProfile, 0, len(categoryOrder))
	for _, key := range categoryOrder {
		out = append(out, categoryTable[key])
	}
	return out
}

// Contains reports whether ppm lies inside [MinPpm, MaxPpm]
func (c CategoryProfile) Contains(ppm float64) bool {
	return ppm >= c.MinPpm && ppm <= c.MaxPpm
}

// Delta returns the signed ppm change needed to enter the range:
// positive means speed up, negative means slow down, zero means in range.
func (c CategoryProfile) Delta(ppm float64) float64 {
	switch {
	case ppm < c.MinPpm:
		return c.MinPpm - ppm
	case ppm > c.MaxPpm:
		return c.MaxPpm - ppm
	default:
		return 0
	}
}
