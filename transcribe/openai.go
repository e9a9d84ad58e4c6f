package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/RyanBlaney/sonido-meter/assessment"
	"github.com/RyanBlaney/sonido-meter/logging"
	"github.com/RyanBlaney/sonido-meter/transcode"
)

// DefaultOpenAIModel is used when Config.Model is empty
const DefaultOpenAIModel = oai.AudioModelWhisper1

// OpenAITranscriber uses the OpenAI audio transcription endpoint
type OpenAITranscriber struct {
	client   oai.Client
	model    string
	language string
	logger   logging.Logger
}

// NewOpenAITranscriber creates a transcriber; BaseURL may point at any compatible server
func NewOpenAITranscriber(cfg Config) (*OpenAITranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai transcriber: api_key must not be empty")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.Timeout,
		}))
	}

	return &OpenAITranscriber{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: cfg.Language,
		logger: logging.WithFields(logging.Fields{
			"component": "openai_transcriber",
			"model":     model,
		}),
	}, nil
}

// Transcribe implements assessment.Transcriber
func (o *OpenAITranscriber) Transcribe(ctx context.Context, signal *assessment.AudioSignal) (string, error) {
	wavData, err := transcode.EncodeWAV(signal)
	if err != nil {
		return "", fmt.Errorf("openai transcriber: encode: %w", err)
	}

	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(wavData), "audio.wav", "audio/wav"),
		Model: o.model,
	}
	if o.language != "" {
		params.Language = oai.String(o.language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcriber: transcribe: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	o.logger.WithContext(ctx).Debug("Transcription received", logging.Fields{
		"function": "Transcribe",
		"chars":    len(text),
	})

	return text, nil
}
