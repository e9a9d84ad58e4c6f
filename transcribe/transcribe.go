// Package transcribe turns analysed audio into text for word alignment.
package transcribe

import (
	"fmt"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-meter/assessment"
)

// Supported transcription providers
const (
	ProviderNone   = ""
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Config selects and configures the transcription provider
type Config struct {
	Provider string        `json:"provider" yaml:"provider" mapstructure:"provider"`
	BaseURL  string        `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	APIKey   string        `json:"api_key" yaml:"api_key" mapstructure:"api_key"`
	Model    string        `json:"model" yaml:"model" mapstructure:"model"`
	Language string        `json:"language" yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig disables transcription
func DefaultConfig() Config {
	return Config{
		Provider: ProviderNone,
		Timeout:  30 * time.Second,
	}
}

// New builds the configured transcriber. It returns nil, nil when transcription is disabled.
func New(cfg Config) (assessment.Transcriber, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderNone, "none":
		return nil, nil
	case ProviderHTTP:
		t, err := NewHTTPTranscriber(cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	case ProviderOpenAI:
		t, err := NewOpenAITranscriber(cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}
}

// joinSegments concatenates segment texts with single spaces
func joinSegments(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
