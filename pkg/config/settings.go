package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds service-level configuration: where the ranking-evaluation
// service lives and how hard the tuner may lean on it. It is loaded from a
// YAML file, separate from the per-run tuning config.
type Settings struct {
	SearchURL      string `yaml:"search_url"`
	TemplateID     string `yaml:"template_id,omitempty"`
	TimeoutMs      int    `yaml:"timeout_ms,omitempty"`
	MaxConcurrency int    `yaml:"max_concurrency,omitempty"`
	MaxRetries     int    `yaml:"max_retries,omitempty"`
	RetryBaseMs    int    `yaml:"retry_base_ms,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
	OutputPath     string `yaml:"output_path,omitempty"`
}

// ParseSettings parses Settings from YAML bytes, validates them, and fills
// in defaults for omitted fields.
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings yaml: %w", err)
	}
	if err := validateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSettings loads and parses a settings file
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	s, err := ParseSettings(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

func validateSettings(s *Settings) error {
	if s.SearchURL == "" {
		return &Error{Field: "search_url", Reason: "must not be empty"}
	}
	u, err := url.Parse(s.SearchURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{Field: "search_url", Reason: fmt.Sprintf("must be an absolute URL, got %q", s.SearchURL)}
	}

	if s.TimeoutMs < 0 {
		return &Error{Field: "timeout_ms", Reason: fmt.Sprintf("must not be negative, got %d", s.TimeoutMs)}
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = 10000
	}

	if s.MaxConcurrency < 0 {
		return &Error{Field: "max_concurrency", Reason: fmt.Sprintf("must not be negative, got %d", s.MaxConcurrency)}
	}
	if s.MaxConcurrency == 0 {
		s.MaxConcurrency = 8
	}

	if s.MaxRetries < 0 {
		return &Error{Field: "max_retries", Reason: fmt.Sprintf("must not be negative, got %d", s.MaxRetries)}
	}

	if s.RetryBaseMs < 0 {
		return &Error{Field: "retry_base_ms", Reason: fmt.Sprintf("must not be negative, got %d", s.RetryBaseMs)}
	}
	if s.RetryBaseMs == 0 {
		s.RetryBaseMs = 250
	}

	switch s.LogLevel {
	case "":
		s.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return &Error{Field: "log_level", Reason: fmt.Sprintf("must be debug, info, warn, or error; got %q", s.LogLevel)}
	}

	return nil
}
