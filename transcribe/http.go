package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/RyanBlaney/sonido-meter/assessment"
	"github.com/RyanBlaney/sonido-meter/logging"
	"github.com/RyanBlaney/sonido-meter/transcode"
)

// Segment is one timed span of an ASR response
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Response is the body returned by POST {base}/transcribe
type Response struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// HTTPTranscriber posts a WAV upload to a self-hosted ASR service
type HTTPTranscriber struct {
	baseURL  string
	language string
	client   *http.Client
	logger   logging.Logger
}

// NewHTTPTranscriber creates a client for the ASR service at cfg.BaseURL
func NewHTTPTranscriber(cfg Config) (*HTTPTranscriber, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("http transcriber: base_url must not be empty")
	}

	return &HTTPTranscriber{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger: logging.WithFields(logging.Fields{
			"component": "http_transcriber",
		}),
	}, nil
}

// Transcribe implements assessment.Transcriber
func (h *HTTPTranscriber) Transcribe(ctx context.Context, signal *assessment.AudioSignal) (string, error) {
	resp, err := h.transcribe(ctx, signal)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(resp.Segments))
	for i, seg := range resp.Segments {
		texts[i] = seg.Text
	}

	h.logger.WithContext(ctx).Debug("Transcription received", logging.Fields{
		"function": "Transcribe",
		"segments": len(resp.Segments),
		"language": resp.Language,
	})

	return joinSegments(texts), nil
}

func (h *HTTPTranscriber) transcribe(ctx context.Context, signal *assessment.AudioSignal) (*Response, error) {
	wavData, err := transcode.EncodeWAV(signal)
	if err != nil {
		return nil, fmt.Errorf("asr encode: %w", err)
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, err
	}
	if _, err = fw.Write(wavData); err != nil {
		return nil, err
	}
	if h.language != "" {
		if err = w.WriteField("language", h.language); err != nil {
			return nil, err
		}
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("asr %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("asr decode: %w", err)
	}
	return &out, nil
}
