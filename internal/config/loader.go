package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// ASR
	if cfg.ASR.Provider != "" && !cfg.ASR.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("asr.provider %q is invalid; valid values: native, server, openai, off", cfg.ASR.Provider))
	}
	switch cfg.ASR.Provider {
	case ASRNative:
		if cfg.ASR.ModelPath == "" {
			errs = append(errs, errors.New("asr.model_path is required when asr.provider is native"))
		}
	case ASRServer:
		if cfg.ASR.ServerURL == "" {
			errs = append(errs, errors.New("asr.server_url is required when asr.provider is server"))
		}
	case ASROpenAI:
		if cfg.ASR.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
			slog.Warn("asr.api_key is empty and OPENAI_API_KEY is not set; OpenAI transcription will fail")
		}
	case "", ASROff:
		slog.Warn("no ASR provider configured; caption sessions will run text-only")
	}
	if cfg.ASR.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("asr.sample_rate %d must not be negative", cfg.ASR.SampleRate))
	}

	// VAD
	if cfg.VAD.EnergyThreshold < 0 {
		errs = append(errs, fmt.Errorf("vad.energy_threshold %.2f must not be negative", cfg.VAD.EnergyThreshold))
	}
	if cfg.VAD.FrameSizeMs < 0 {
		errs = append(errs, fmt.Errorf("vad.frame_size_ms %d must not be negative", cfg.VAD.FrameSizeMs))
	}
	if cfg.VAD.SilenceFrames < 0 {
		errs = append(errs, fmt.Errorf("vad.silence_frames %d must not be negative", cfg.VAD.SilenceFrames))
	}

	// Caption
	if cfg.Caption.MinSegmentMs < 0 {
		errs = append(errs, fmt.Errorf("caption.min_segment_ms %d must not be negative", cfg.Caption.MinSegmentMs))
	}
	if cfg.Caption.PartialMinMs < 0 {
		errs = append(errs, fmt.Errorf("caption.partial_min_ms %d must not be negative", cfg.Caption.PartialMinMs))
	}

	// Storage
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; reading results will not survive restarts")
	}

	return errors.Join(errs...)
}
