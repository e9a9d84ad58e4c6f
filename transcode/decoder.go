package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-meter/assessment"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate" mapstructure:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration" yaml:"max_duration" mapstructure:"max_duration"`
	ResampleQuality  string        `json:"resample_quality" yaml:"resample_quality" mapstructure:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path" yaml:"ffprobe_path" mapstructure:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// Normalization options
	EnableNormalization bool    `json:"enable_normalization" yaml:"enable_normalization" mapstructure:"enable_normalization"`
	NormalizationMethod string  `json:"normalization_method" yaml:"normalization_method" mapstructure:"normalization_method"` // "loudnorm", "dynaudnorm", "compand"
	TargetLUFS          float64 `json:"target_lufs" yaml:"target_lufs" mapstructure:"target_lufs"`
	TargetPeak          float64 `json:"target_peak" yaml:"target_peak" mapstructure:"target_peak"`
	LoudnessRange       float64 `json:"loudness_range" yaml:"loudness_range" mapstructure:"loudness_range"`
}

// DefaultDecoderConfig returns mono 16 kHz output without loudness normalization.
// Normalizing would distort the silence ratio and volume profile.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate:    16000,
		MaxDuration:         10 * time.Minute,
		ResampleQuality:     "medium",
		FFmpegPath:          "ffmpeg",  // Assume in PATH
		FFprobePath:         "ffprobe", // Assume in PATH
		Timeout:             30 * time.Second,
		EnableNormalization: false,
		NormalizationMethod: "dynaudnorm",
		TargetLUFS:          -20.0,
		TargetPeak:          -3.0,
		LoudnessRange:       5.0,
	}
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// FFmpegDecoder decodes any container ffmpeg understands into mono float PCM
type FFmpegDecoder struct {
	config *DecoderConfig
}

// NewFFmpegDecoder creates a new ffmpeg backed decoder
func NewFFmpegDecoder(config *DecoderConfig) *FFmpegDecoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &FFmpegDecoder{config: config}
}

// Config returns the decoder configuration
func (d *FFmpegDecoder) Config() *DecoderConfig {
	return d.config
}

// Decode pipes data through ffmpeg and returns mono samples at TargetSampleRate
func (d *FFmpegDecoder) Decode(ctx context.Context, data []byte) (*assessment.AudioSignal, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "ffmpeg_decoder",
		"function":  "Decode",
		"data_size": len(data),
	}).WithContext(ctx)

	if len(data) == 0 {
		return nil, &assessment.AudioDecodeError{Format: FormatUnknown, Err: ErrEmptyInput}
	}

	args := []string{"-v", "error", "-i", "pipe:0"}
	args = append(args, d.buildFFmpegArgs()...)
	args = append(args, "pipe:1")

	output, err := d.run(ctx, d.config.FFmpegPath, args, data)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return nil, d.wrap(ctx, err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, &assessment.AudioDecodeError{Format: "ffmpeg", Err: ErrNoSamples}
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_samples":     len(samples),
		"output_sample_rate": d.config.TargetSampleRate,
		"output_duration":    float64(len(samples)) / float64(d.config.TargetSampleRate),
	})

	return &assessment.AudioSignal{Samples: samples, SampleRate: d.config.TargetSampleRate}, nil
}

// Metadata uses ffprobe to read the properties of the first audio stream
func (d *FFmpegDecoder) Metadata(ctx context.Context, data []byte) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		"pipe:0",
	}

	output, err := d.run(ctx, d.config.FFprobePath, args, data)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// ValidateConfig checks the configuration and that ffmpeg can be executed
func (d *FFmpegDecoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}

	if d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}

	if _, err := exec.LookPath(d.config.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}

	return nil
}

// run executes a tool with data on stdin and returns its stdout
func (d *FFmpegDecoder) run(ctx context.Context, path string, args []string, data []byte) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%s: %w, stderr: %s", path, err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return output, nil
}

// wrap turns a tool failure into a decode error, leaving caller cancellation visible
func (d *FFmpegDecoder) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ffmpeg decode interrupted: %w", ctxErr)
	}
	return &assessment.AudioDecodeError{Format: "ffmpeg", Err: err}
}

// buildFFmpegArgs builds the output arguments: mono f64le at the target rate
func (d *FFmpegDecoder) buildFFmpegArgs() []string {
	args := []string{
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	var filters []string
	switch d.config.ResampleQuality {
	case "fast":
		filters = append(filters, "aresample=resampler=soxr:precision=16")
	case "medium":
		filters = append(filters, "aresample=resampler=soxr:precision=20")
	case "high":
		filters = append(filters, "aresample=resampler=soxr:precision=28")
	}

	if d.config.EnableNormalization {
		if norm := d.buildNormalizationFilter(); norm != "" {
			filters = append(filters, norm)
		}
	}

	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}

	return args
}

// buildNormalizationFilter builds the arguments based on the `DecoderConfig` for a normalization filter
func (d *FFmpegDecoder) buildNormalizationFilter() string {
	switch d.config.NormalizationMethod {
	case "loudnorm":
		// EBU R128 loudness normalization
		return fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.1f",
			d.config.TargetLUFS,
			d.config.TargetPeak,
			d.config.LoudnessRange)

	case "dynaudnorm":
		return "dynaudnorm=p=0.95:m=10:s=12"

	case "compand":
		return fmt.Sprintf("compand=0.1,0.3:-90/-90,-%.1f/-%.1f,0/0:6:0:-90:0.1",
			math.Abs(d.config.TargetPeak),
			math.Abs(d.config.TargetPeak))

	default:
		return ""
	}
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var out struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := out.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("invalid sample rate %q: %w", stream.SampleRate, err)
	}

	// duration and bitrate are missing for some containers
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// bytesToFloat64 converts raw float64 little-endian bytes, dropping a trailing partial sample
func bytesToFloat64(data []byte) []float64 {
	sampleCount := len(data) / 8
	if sampleCount == 0 {
		return nil
	}

	samples := make([]float64, sampleCount)
	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}
