package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-meter/algorithms/temporal"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
}

func TestLoadFromReader_Overrides(t *testing.T) {
	t.Parallel()

	const doc = `
server:
  addr: ":9090"
service:
  workers: 3
  request_timeout: 5s
engine:
  onset:
    method: spectral_flux
  feedback:
    locale: pt-BR
transcriber:
  provider: http
  base_url: http://asr:8000
log:
  level: debug
  format: json
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Service.Workers != 3 || cfg.Service.RequestTimeout != 5*time.Second {
		t.Errorf("Service = %+v", cfg.Service)
	}
	if cfg.Engine.Onset.Method != temporal.OnsetSpectralFlux {
		t.Errorf("Onset.Method = %q", cfg.Engine.Onset.Method)
	}
	if cfg.Engine.Feedback.Locale != "pt-BR" {
		t.Errorf("Feedback.Locale = %q", cfg.Engine.Feedback.Locale)
	}
	// untouched keys keep their defaults
	if cfg.Engine.Pacing.WindowSize != 15 {
		t.Errorf("Pacing.WindowSize = %d, want default 15", cfg.Engine.Pacing.WindowSize)
	}
	if cfg.Transcriber.BaseURL != "http://asr:8000" {
		t.Errorf("Transcriber.BaseURL = %q", cfg.Transcriber.BaseURL)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	if _, err := LoadFromReader(strings.NewReader("server:\n  port: 80\n")); err == nil {
		t.Error("LoadFromReader accepted an unknown key")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Addr = ""
	cfg.Service.Workers = 0
	cfg.Transcriber.Provider = "carrier-pigeon"
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Engine.Feedback.Locale = "xx-XX"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{
		"server.addr",
		"service.workers",
		"transcriber.provider",
		"log.level",
		"log.format",
		"engine:",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sonido.yaml")
	doc := "server:\n  addr: \":7070\"\nservice:\n  workers: 2\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("SONIDO_SERVICE_WORKERS", "6")
	t.Setenv("SONIDO_ENGINE_PACING_WINDOW_SIZE", "10")
	t.Setenv("SONIDO_SERVICE_REQUEST_TIMEOUT", "45s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q, want file value", cfg.Server.Addr)
	}
	if cfg.Service.Workers != 6 {
		t.Errorf("Service.Workers = %d, want env value 6", cfg.Service.Workers)
	}
	if cfg.Service.RequestTimeout != 45*time.Second {
		t.Errorf("Service.RequestTimeout = %v, want 45s", cfg.Service.RequestTimeout)
	}
	if cfg.Engine.Pacing.WindowSize != 10 {
		t.Errorf("Pacing.WindowSize = %d, want env value 10", cfg.Engine.Pacing.WindowSize)
	}
	if cfg.Engine.Activity.FrameSeconds != 0.025 {
		t.Errorf("Activity.FrameSeconds = %v, want default 0.025", cfg.Engine.Activity.FrameSeconds)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Decoder.TargetSampleRate != 16000 {
		t.Errorf("Decoder.TargetSampleRate = %d, want 16000", cfg.Decoder.TargetSampleRate)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}

func TestLogConfig_LoggerWriters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := (LogConfig{Level: "info", Format: "json"}).Logger(&buf, &buf)
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	logger.Warn("warned")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "warned") {
		t.Errorf("unexpected log output:\n%s", out)
	}
}

func TestLogConfig_Logger(t *testing.T) {
	t.Parallel()

	if _, err := (LogConfig{Level: "debug", Format: "json"}).Logger(io.Discard, io.Discard); err != nil {
		t.Errorf("Logger: %v", err)
	}
	if _, err := (LogConfig{Level: "shout"}).Logger(io.Discard, io.Discard); err == nil {
		t.Error("Logger accepted an invalid level")
	}
}
