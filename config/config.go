// Package config loads the process configuration of the sonido-meter binary.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-meter/assessment"
	engineconfig "github.com/RyanBlaney/sonido-meter/assessment/config"
	"github.com/RyanBlaney/sonido-meter/logging"
	"github.com/RyanBlaney/sonido-meter/transcode"
	"github.com/RyanBlaney/sonido-meter/transcribe"
)

// EnvPrefix prefixes environment overrides, e.g. SONIDO_SERVER_ADDR
const EnvPrefix = "SONIDO"

// Config is the root process configuration
type Config struct {
	Server      ServerConfig              `json:"server" yaml:"server" mapstructure:"server"`
	Service     assessment.ServiceConfig  `json:"service" yaml:"service" mapstructure:"service"`
	Engine      engineconfig.EngineConfig `json:"engine" yaml:"engine" mapstructure:"engine"`
	Decoder     transcode.DecoderConfig   `json:"decoder" yaml:"decoder" mapstructure:"decoder"`
	Transcriber transcribe.Config         `json:"transcriber" yaml:"transcriber" mapstructure:"transcriber"`
	Log         LogConfig                 `json:"log" yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	// UseFFmpeg routes containers other than WAV and MP3 through ffmpeg
	UseFFmpeg bool `json:"use_ffmpeg" yaml:"use_ffmpeg" mapstructure:"use_ffmpeg"`
}

// LogConfig selects the log level and formatter
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  25 << 20,
			UseFFmpeg:       true,
		},
		Service:     assessment.DefaultServiceConfig(),
		Engine:      *engineconfig.DefaultEngineConfig(),
		Decoder:     *transcode.DefaultDecoderConfig(),
		Transcriber: transcribe.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// Load layers the defaults, the YAML file at path (optional) and SONIDO_*
// environment variables, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seeding viper with every default key lets AutomaticEnv override any of them
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("config: encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("config: read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns a joined error listing every invalid setting
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr must not be empty"))
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive"))
	}
	if cfg.Service.Workers < 1 {
		errs = append(errs, fmt.Errorf("service.workers must be at least 1, got %d", cfg.Service.Workers))
	}
	if cfg.Service.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("service.request_timeout must be positive"))
	}
	if err := cfg.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	if cfg.Decoder.TargetSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("decoder.target_sample_rate must be positive"))
	}
	switch strings.ToLower(cfg.Transcriber.Provider) {
	case transcribe.ProviderNone, "none", transcribe.ProviderHTTP, transcribe.ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("transcriber.provider %q is invalid; valid values: http, openai", cfg.Transcriber.Provider))
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch logging.Format(cfg.Log.Format) {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: text, json", cfg.Log.Format))
	}

	return errors.Join(errs...)
}

// Logger builds the logrus-backed logger described by cfg. Info and below go
// to out, warnings and above to errOut; commands whose stdout carries a
// result pass the same writer twice.
func (c LogConfig) Logger(out, errOut io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(out, errOut, logging.Format(c.Format))
	logger.SetLevel(level)
	return logger, nil
}
