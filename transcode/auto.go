package transcode

import (
	"bytes"
	"context"
	"errors"

	"github.com/RyanBlaney/sonido-meter/assessment"
	"github.com/RyanBlaney/sonido-meter/logging"
)

// Container formats recognised by DetectFormat
const (
	FormatWAV     = "wav"
	FormatMP3     = "mp3"
	FormatOgg     = "ogg"
	FormatFLAC    = "flac"
	FormatWebM    = "webm"
	FormatMP4     = "mp4"
	FormatUnknown = "unknown"
)

var (
	// ErrEmptyInput is returned for a zero-length upload
	ErrEmptyInput = errors.New("empty audio data")

	// ErrNoSamples is returned when a valid container holds no audio
	ErrNoSamples = errors.New("no audio samples decoded")

	// ErrUnsupportedEncoding marks input a pure-Go decoder cannot read but ffmpeg may
	ErrUnsupportedEncoding = errors.New("unsupported audio encoding")
)

// DetectFormat names the container from its leading bytes
func DetectFormat(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return FormatMP3
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOgg
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWebM
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return FormatMP4
	default:
		return FormatUnknown
	}
}

// AutoDecoder routes WAV and MP3 to the pure-Go decoders and everything else
// to ffmpeg. Without a fallback only WAV and MP3 are accepted.
type AutoDecoder struct {
	wav      *WAVDecoder
	mp3      *MP3Decoder
	fallback assessment.Decoder
	logger   logging.Logger
}

// NewAutoDecoder creates a sniffing decoder; fallback may be nil
func NewAutoDecoder(fallback assessment.Decoder) *AutoDecoder {
	return &AutoDecoder{
		wav:      NewWAVDecoder(),
		mp3:      NewMP3Decoder(),
		fallback: fallback,
		logger: logging.WithFields(logging.Fields{
			"component": "auto_decoder",
		}),
	}
}

// DetectFormat implements assessment.FormatDetector
func (d *AutoDecoder) DetectFormat(data []byte) string {
	return DetectFormat(data)
}

// Decode implements assessment.Decoder
func (d *AutoDecoder) Decode(ctx context.Context, data []byte) (*assessment.AudioSignal, error) {
	if len(data) == 0 {
		return nil, &assessment.AudioDecodeError{Format: FormatUnknown, Err: ErrEmptyInput}
	}

	format := DetectFormat(data)

	var (
		sig *assessment.AudioSignal
		err error
	)
	switch format {
	case FormatWAV:
		sig, err = d.wav.Decode(ctx, data)
	case FormatMP3:
		sig, err = d.mp3.Decode(ctx, data)
	default:
		err = &assessment.AudioDecodeError{Format: format, Err: ErrUnsupportedEncoding}
	}

	if err == nil || !errors.Is(err, ErrUnsupportedEncoding) || d.fallback == nil {
		return sig, err
	}

	d.logger.WithContext(ctx).Debug("Falling back to ffmpeg", logging.Fields{
		"function": "Decode",
		"format":   format,
		"reason":   err.Error(),
	})

	return d.fallback.Decode(ctx, data)
}
