package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-meter/assessment"
)

func sine(sr int, seconds, freq, amp float64) *assessment.AudioSignal {
	n := int(seconds * float64(sr))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return &assessment.AudioSignal{Samples: samples, SampleRate: sr}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "wav", data: []byte("RIFF\x24\x00\x00\x00WAVEfmt "), want: FormatWAV},
		{name: "riff without wave", data: []byte("RIFF\x24\x00\x00\x00AVI LIST"), want: FormatUnknown},
		{name: "id3 tagged mp3", data: []byte("ID3\x04\x00\x00"), want: FormatMP3},
		{name: "mpeg frame sync", data: []byte{0xFF, 0xFB, 0x90, 0x00}, want: FormatMP3},
		{name: "ogg", data: []byte("OggS\x00\x02"), want: FormatOgg},
		{name: "flac", data: []byte("fLaC\x00\x00"), want: FormatFLAC},
		{name: "webm", data: []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, want: FormatWebM},
		{name: "m4a", data: []byte("\x00\x00\x00\x20ftypM4A "), want: FormatMP4},
		{name: "empty", data: nil, want: FormatUnknown},
		{name: "text", data: []byte("hello world"), want: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWAV_RoundTrip(t *testing.T) {
	t.Parallel()

	in := sine(16000, 0.5, 220, 0.5)
	data, err := EncodeWAV(in)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if DetectFormat(data) != FormatWAV {
		t.Fatalf("encoded data detected as %q", DetectFormat(data))
	}

	out, err := NewWAVDecoder().Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", out.SampleRate)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("len(Samples) = %d, want %d", len(out.Samples), len(in.Samples))
	}
	for i := range in.Samples {
		if math.Abs(out.Samples[i]-in.Samples[i]) > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestWAV_ClipsOutOfRange(t *testing.T) {
	t.Parallel()

	data, err := EncodeWAV(&assessment.AudioSignal{Samples: []float64{2, -2, 0}, SampleRate: 8000})
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	out, err := NewWAVDecoder().Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, s := range out.Samples {
		if s > 1 || s < -1 {
			t.Errorf("sample %d = %f outside [-1, 1]", i, s)
		}
	}
}

func TestEncodeWAV_InvalidSignal(t *testing.T) {
	t.Parallel()

	for _, sig := range []*assessment.AudioSignal{nil, {Samples: []float64{0}, SampleRate: 0}} {
		if _, err := EncodeWAV(sig); !errors.Is(err, assessment.ErrInvalidSignal) {
			t.Errorf("EncodeWAV(%v) error = %v, want ErrInvalidSignal", sig, err)
		}
	}
}

func TestWAV_InvalidFile(t *testing.T) {
	t.Parallel()

	_, err := NewWAVDecoder().Decode(context.Background(), []byte("RIFF garbage"))
	var decodeErr *assessment.AudioDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *AudioDecodeError", err)
	}
	if decodeErr.Format != FormatWAV {
		t.Errorf("Format = %q, want %q", decodeErr.Format, FormatWAV)
	}
}

func TestDownmix(t *testing.T) {
	t.Parallel()

	// two stereo frames at 16 bits
	got := downmix([]int{16384, 0, -32768, -32768}, 2, 16)
	want := []float64{0.25, -1}
	if !slices.Equal(got, want) {
		t.Errorf("downmix = %v, want %v", got, want)
	}

	if got := downmix([]int{1, 2, 3}, 2, 16); len(got) != 1 {
		t.Errorf("partial frame kept: %v", got)
	}
}

func TestDownmix_UnsignedEightBit(t *testing.T) {
	t.Parallel()

	got := downmix([]int{128, 255, 0, 128, 192, 64}, 2, 8)
	want := []float64{127.0 / 256, -0.5, 0}
	if !slices.Equal(got, want) {
		t.Errorf("downmix = %v, want %v", got, want)
	}
}

// pcm8WAV builds a mono 8-bit PCM WAV file around data
func pcm8WAV(sampleRate int, data []byte) []byte {
	var buf bytes.Buffer
	le := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	le(uint32(36 + len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	le(uint32(16))
	le(uint16(1)) // PCM
	le(uint16(1)) // mono
	le(uint32(sampleRate))
	le(uint32(sampleRate)) // byte rate
	le(uint16(1))          // block align
	le(uint16(8))
	buf.WriteString("data")
	le(uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func TestWAV_EightBitSilenceIsZero(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{0x80}, 8000)
	data[100], data[101] = 0xFF, 0x00

	sig, err := NewWAVDecoder().Decode(context.Background(), pcm8WAV(8000, data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sig.SampleRate != 8000 || len(sig.Samples) != 8000 {
		t.Fatalf("got %d samples at %d Hz, want 8000 at 8000", len(sig.Samples), sig.SampleRate)
	}
	if sig.Samples[0] != 0 || sig.Samples[7999] != 0 {
		t.Errorf("silence decoded as %v / %v, want 0", sig.Samples[0], sig.Samples[7999])
	}
	if sig.Samples[100] != 127.0/128 || sig.Samples[101] != -1 {
		t.Errorf("extremes decoded as %v / %v, want 127/128 and -1", sig.Samples[100], sig.Samples[101])
	}
}

func TestMP3_InvalidData(t *testing.T) {
	t.Parallel()

	_, err := NewMP3Decoder().Decode(context.Background(), []byte{0xFF, 0xFB, 0x00})
	var decodeErr *assessment.AudioDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *AudioDecodeError", err)
	}
	if decodeErr.Format != FormatMP3 {
		t.Errorf("Format = %q, want %q", decodeErr.Format, FormatMP3)
	}
}

type stubDecoder struct {
	calls int
}

func (s *stubDecoder) Decode(_ context.Context, _ []byte) (*assessment.AudioSignal, error) {
	s.calls++
	return &assessment.AudioSignal{Samples: []float64{0, 0}, SampleRate: 8000}, nil
}

func TestAutoDecoder_RoutesWAV(t *testing.T) {
	t.Parallel()

	data, err := EncodeWAV(sine(8000, 0.1, 440, 0.3))
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	fallback := &stubDecoder{}
	sig, err := NewAutoDecoder(fallback).Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times for wav input", fallback.calls)
	}
	if sig.SampleRate != 8000 || len(sig.Samples) != 800 {
		t.Errorf("got %d samples at %d Hz, want 800 at 8000", len(sig.Samples), sig.SampleRate)
	}
}

func TestAutoDecoder_Fallback(t *testing.T) {
	t.Parallel()

	fallback := &stubDecoder{}
	d := NewAutoDecoder(fallback)
	if _, err := d.Decode(context.Background(), []byte("OggS\x00\x02rest")); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
	if got := d.DetectFormat([]byte("OggS")); got != FormatOgg {
		t.Errorf("DetectFormat = %q, want %q", got, FormatOgg)
	}
}

func TestAutoDecoder_NoFallback(t *testing.T) {
	t.Parallel()

	d := NewAutoDecoder(nil)

	_, err := d.Decode(context.Background(), []byte("OggS\x00\x02rest"))
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("error = %v, want ErrUnsupportedEncoding", err)
	}

	_, err = d.Decode(context.Background(), nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestFFmpegDecoder_BuildArgs(t *testing.T) {
	t.Parallel()

	cfg := DefaultDecoderConfig()
	cfg.ResampleQuality = "high"
	cfg.EnableNormalization = true
	cfg.NormalizationMethod = "loudnorm"
	args := strings.Join(NewFFmpegDecoder(cfg).buildFFmpegArgs(), " ")

	for _, want := range []string{
		"-f f64le",
		"-ac 1",
		"-ar 16000",
		"-t 600.00",
		"-af aresample=resampler=soxr:precision=28,loudnorm=I=-20.0:TP=-3.0:LRA=5.0",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestFFmpegDecoder_DefaultsSkipNormalization(t *testing.T) {
	t.Parallel()

	args := strings.Join(NewFFmpegDecoder(nil).buildFFmpegArgs(), " ")
	if strings.Contains(args, "dynaudnorm") {
		t.Errorf("default args %q apply normalization", args)
	}
}

func TestFFmpegDecoder_MissingBinary(t *testing.T) {
	t.Parallel()

	cfg := DefaultDecoderConfig()
	cfg.FFmpegPath = "/nonexistent/ffmpeg"
	d := NewFFmpegDecoder(cfg)

	_, err := d.Decode(context.Background(), []byte("OggS"))
	var decodeErr *assessment.AudioDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *AudioDecodeError", err)
	}

	if err := d.ValidateConfig(); err == nil {
		t.Error("ValidateConfig accepted a missing ffmpeg binary")
	}
}

func TestParseStreamMetadata(t *testing.T) {
	t.Parallel()

	out := []byte(`{"streams":[{"codec_type":"audio","codec_name":"opus","sample_rate":"48000","channels":2,"duration":"3.5","codec_long_name":"Opus"}]}`)
	meta, err := parseFFprobeOutput(out)
	if err != nil {
		t.Fatalf("parseFFprobeOutput: %v", err)
	}
	if meta.SampleRate != 48000 || meta.Channels != 2 || meta.Codec != "opus" || meta.Duration != 3.5 {
		t.Errorf("metadata = %+v", meta)
	}

	for _, bad := range []string{
		`{"streams":[]}`,
		`{"streams":[{"codec_type":"video","channels":2,"sample_rate":"1"}]}`,
		`{"streams":[{"codec_type":"audio","channels":0,"sample_rate":"1"}]}`,
		`not json`,
	} {
		if _, err := parseFFprobeOutput([]byte(bad)); err == nil {
			t.Errorf("parseFFprobeOutput(%s) succeeded", bad)
		}
	}
}

func TestBytesToFloat64(t *testing.T) {
	t.Parallel()

	want := []float64{0.5, -0.25}
	data := make([]byte, 0, 20)
	for _, v := range want {
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
	}
	data = append(data, 0x01, 0x02, 0x03) // trailing partial sample

	if got := bytesToFloat64(data); !slices.Equal(got, want) {
		t.Errorf("bytesToFloat64 = %v, want %v", got, want)
	}
	if got := bytesToFloat64([]byte{1, 2}); got != nil {
		t.Errorf("bytesToFloat64(short) = %v, want nil", got)
	}
}
