package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/RyanBlaney/sonido-meter/assessment"
)

// go-mp3 always produces signed 16-bit little-endian stereo
const mp3FrameBytes = 4

// MP3Decoder reads MPEG layer III audio in pure Go
type MP3Decoder struct{}

// NewMP3Decoder creates a new MP3 decoder
func NewMP3Decoder() *MP3Decoder {
	return &MP3Decoder{}
}

// Decode returns the stream downmixed to mono at its native sample rate
func (d *MP3Decoder) Decode(ctx context.Context, data []byte) (*assessment.AudioSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, &assessment.AudioDecodeError{Format: FormatMP3, Err: fmt.Errorf("failed to create MP3 decoder: %w", err)}
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, &assessment.AudioDecodeError{Format: FormatMP3, Err: fmt.Errorf("failed to read PCM data: %w", err)}
	}

	frames := len(pcm) / mp3FrameBytes
	if frames == 0 {
		return nil, &assessment.AudioDecodeError{Format: FormatMP3, Err: ErrNoSamples}
	}

	samples := make([]float64, frames)
	for i := range frames {
		left := int16(binary.LittleEndian.Uint16(pcm[i*mp3FrameBytes:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*mp3FrameBytes+2:]))
		samples[i] = (float64(left) + float64(right)) / 2.0 / 32768.0
	}

	return &assessment.AudioSignal{Samples: samples, SampleRate: decoder.SampleRate()}, nil
}
