package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-meter/assessment"
)

const wavFormatPCM = 1

// WAVDecoder reads integer PCM WAV files in pure Go
type WAVDecoder struct{}

// NewWAVDecoder creates a new WAV decoder
func NewWAVDecoder() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode returns the file downmixed to mono at its native sample rate
func (d *WAVDecoder) Decode(ctx context.Context, data []byte) (*assessment.AudioSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, &assessment.AudioDecodeError{Format: FormatWAV, Err: fmt.Errorf("not a valid wav file")}
	}

	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, &assessment.AudioDecodeError{
			Format: FormatWAV,
			Err:    fmt.Errorf("%w: wav format tag %d", ErrUnsupportedEncoding, decoder.WavAudioFormat),
		}
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, &assessment.AudioDecodeError{Format: FormatWAV, Err: fmt.Errorf("failed to read PCM buffer: %w", err)}
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}

	samples := downmix(buf.Data, buf.Format.NumChannels, bitDepth)
	if len(samples) == 0 {
		return nil, &assessment.AudioDecodeError{Format: FormatWAV, Err: ErrNoSamples}
	}

	return &assessment.AudioSignal{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// downmix averages interleaved integer frames into mono floats in [-1, 1].
// 8-bit WAV PCM is unsigned around 128; wider depths are signed.
func downmix(data []int, channels, bitDepth int) []float64 {
	channels = max(1, channels)
	scale := 1.0
	if bitDepth > 1 {
		scale = float64(int64(1) << (bitDepth - 1))
	}
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		sum := 0
		for c := range channels {
			sum += data[i*channels+c] - offset
		}
		samples[i] = float64(sum) / float64(channels) / scale
	}

	return samples
}

// EncodeWAV writes sig as 16-bit mono PCM WAV. The go-audio encoder needs a
// seekable writer to patch the header, so the file is staged on disk.
func EncodeWAV(sig *assessment.AudioSignal) ([]byte, error) {
	if sig == nil || sig.SampleRate <= 0 {
		return nil, assessment.ErrInvalidSignal
	}

	tmp, err := os.CreateTemp("", "sonido-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	data := make([]int, len(sig.Samples))
	for i, s := range sig.Samples {
		s = min(1, max(-1, s))
		data[i] = int(s * 32767.0)
	}

	encoder := wav.NewEncoder(tmp, sig.SampleRate, 16, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sig.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write audio: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close encoder: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind temp file: %w", err)
	}
	return io.ReadAll(tmp)
}
