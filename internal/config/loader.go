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
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Coaching thresholds; zero means "use default", negatives are mistakes.
	if cfg.Coaching.MaxPromptsPerSession < 0 {
		errs = append(errs, fmt.Errorf("coaching.max_prompts_per_session %d is negative", cfg.Coaching.MaxPromptsPerSession))
	}
	if cfg.Coaching.PostSpeechCooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("coaching.post_speech_cooldown_seconds %.2f is negative", cfg.Coaching.PostSpeechCooldownSeconds))
	}
	if cfg.Coaching.SessionCooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("coaching.session_cooldown_seconds %.2f is negative", cfg.Coaching.SessionCooldownSeconds))
	}
	if cfg.Coaching.MinConfidence < 0 || cfg.Coaching.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("coaching.min_confidence %.2f is out of range [0, 1]", cfg.Coaching.MinConfidence))
	}

	// Analysis
	if cfg.Analysis.NormalizeBelowConfidence < 0 || cfg.Analysis.NormalizeBelowConfidence > 1 {
		errs = append(errs, fmt.Errorf("analysis.normalize_below_confidence %.2f is out of range [0, 1]", cfg.Analysis.NormalizeBelowConfidence))
	}
	if cfg.Analysis.JitterWindowSeconds < 0 {
		errs = append(errs, fmt.Errorf("analysis.jitter_window_seconds %.2f is negative", cfg.Analysis.JitterWindowSeconds))
	}
	if cfg.Analysis.LexiconOverlay != "" {
		if _, err := os.Stat(cfg.Analysis.LexiconOverlay); err != nil {
			errs = append(errs, fmt.Errorf("analysis.lexicon_overlay %q: %w", cfg.Analysis.LexiconOverlay, err))
		}
	}

	// Insights
	if cfg.Insights.MaxPerSession < 0 {
		errs = append(errs, fmt.Errorf("insights.max_per_session %d is negative", cfg.Insights.MaxPerSession))
	}

	// Storage and notify availability warnings
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; session event logs will not be persisted")
	}
	if cfg.Notify.NATSURL == "" {
		slog.Warn("notify.nats_url is empty; decision and insight events will not be published")
	}

	return errors.Join(errs...)
}
