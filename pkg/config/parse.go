package config

import (
	"encoding/json"
	"fmt"
	"math"
)

// Error reports a malformed or semantically invalid configuration value.
// The run never starts when one is returned.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// Parse parses a tuning Config from JSON bytes and validates it
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	applyOptionDefaults(&cfg)

	return &cfg, nil
}

// ParseMetric parses a Metric definition from JSON bytes and validates it
func ParseMetric(data []byte) (*Metric, error) {
	var m Metric
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metric json: %w", err)
	}
	if m.Name == "" {
		return nil, &Error{Field: "metric.name", Reason: "must not be empty"}
	}
	if m.AtK < 0 {
		return nil, &Error{Field: "metric.at_k", Reason: fmt.Sprintf("must not be negative, got %d", m.AtK)}
	}
	switch m.MissingJudgments {
	case "":
		m.MissingJudgments = MissingSkip
	case MissingSkip, MissingZero:
	default:
		return nil, &Error{
			Field:  "metric.missing_judgments",
			Reason: fmt.Sprintf("must be %q or %q, got %q", MissingSkip, MissingZero, m.MissingJudgments),
		}
	}
	return &m, nil
}

func validate(cfg *Config) error {
	switch cfg.Method {
	case MethodGrid, MethodRandom, MethodBayesian:
	default:
		return &Error{Field: "method", Reason: fmt.Sprintf("must be one of grid, random, bayesian; got %q", cfg.Method)}
	}

	if len(cfg.Parameters) == 0 {
		return &Error{Field: "parameters", Reason: "at least one parameter must be declared"}
	}

	seen := make(map[string]bool, len(cfg.Parameters))
	for i := range cfg.Parameters {
		p := &cfg.Parameters[i]
		field := fmt.Sprintf("parameters[%d]", i)

		if p.Name == "" {
			return &Error{Field: field + ".name", Reason: "must not be empty"}
		}
		if p.Name == "query" {
			return &Error{Field: field + ".name", Reason: `"query" is reserved for the per-topic query text placeholder`}
		}
		if seen[p.Name] {
			return &Error{Field: field + ".name", Reason: fmt.Sprintf("duplicate parameter name %q", p.Name)}
		}
		seen[p.Name] = true

		if err := validateParameter(p, field); err != nil {
			return err
		}
	}

	for name, value := range cfg.Defaults {
		p, ok := cfg.Param(name)
		if !ok {
			return &Error{Field: "defaults." + name, Reason: "does not match any declared parameter"}
		}
		if !p.InDomain(value) {
			return &Error{Field: "defaults." + name, Reason: fmt.Sprintf("value %v is outside the domain of %s parameter %q", value, p.Type, p.Name)}
		}
	}

	return validateOptions(cfg)
}

func validateParameter(p *ParameterSpec, field string) error {
	switch p.Type {
	case ParamContinuous, ParamInteger:
		if len(p.Bounds) != 2 {
			return &Error{Field: field + ".bounds", Reason: fmt.Sprintf("must be [low, high], got %v", p.Bounds)}
		}
		if !(p.Bounds[0] < p.Bounds[1]) {
			return &Error{Field: field + ".bounds", Reason: fmt.Sprintf("low must be less than high, got [%v, %v]", p.Bounds[0], p.Bounds[1])}
		}
		if p.Type == ParamInteger && math.Ceil(p.Bounds[0]) > math.Floor(p.Bounds[1]) {
			return &Error{Field: field + ".bounds", Reason: fmt.Sprintf("[%v, %v] contains no integer", p.Bounds[0], p.Bounds[1])}
		}
		if len(p.Choices) != 0 {
			return &Error{Field: field + ".choices", Reason: fmt.Sprintf("not allowed for %s parameters", p.Type)}
		}
		switch p.Scale {
		case "":
			p.Scale = ScaleLinear
		case ScaleLinear:
		case ScaleLog:
			if p.Bounds[0] <= 0 {
				return &Error{Field: field + ".scale", Reason: fmt.Sprintf("log scale requires positive bounds, got low=%v", p.Bounds[0])}
			}
		default:
			return &Error{Field: field + ".scale", Reason: fmt.Sprintf("must be linear or log, got %q", p.Scale)}
		}
	case ParamCategorical:
		if len(p.Choices) == 0 {
			return &Error{Field: field + ".choices", Reason: "must not be empty"}
		}
		choiceSeen := make(map[string]bool, len(p.Choices))
		for _, c := range p.Choices {
			if choiceSeen[c] {
				return &Error{Field: field + ".choices", Reason: fmt.Sprintf("duplicate choice %q", c)}
			}
			choiceSeen[c] = true
		}
		if len(p.Bounds) != 0 {
			return &Error{Field: field + ".bounds", Reason: "not allowed for categorical parameters"}
		}
		if p.Scale != "" {
			return &Error{Field: field + ".scale", Reason: "not allowed for categorical parameters"}
		}
	default:
		return &Error{Field: field + ".type", Reason: fmt.Sprintf("must be one of continuous, integer, categorical; got %q", p.Type)}
	}
	return nil
}

func validateOptions(cfg *Config) error {
	opts := cfg.Options
	switch cfg.Method {
	case MethodGrid:
		if opts.Steps < 0 {
			return &Error{Field: "method_options.steps", Reason: fmt.Sprintf("must not be negative, got %d", opts.Steps)}
		}
		if opts.Steps == 0 {
			for i := range cfg.Parameters {
				if cfg.Parameters[i].Type != ParamCategorical {
					return &Error{Field: "method_options.steps", Reason: fmt.Sprintf("required for grid search over numeric parameter %q", cfg.Parameters[i].Name)}
				}
			}
		}
	case MethodRandom:
		if opts.Iterations <= 0 {
			return &Error{Field: "method_options.iterations", Reason: fmt.Sprintf("must be positive for random search, got %d", opts.Iterations)}
		}
	case MethodBayesian:
		if opts.Iterations <= 0 {
			return &Error{Field: "method_options.iterations", Reason: fmt.Sprintf("must be positive for bayesian search, got %d", opts.Iterations)}
		}
		if opts.InitialRandom < 0 {
			return &Error{Field: "method_options.initial_random", Reason: fmt.Sprintf("must not be negative, got %d", opts.InitialRandom)}
		}
		if opts.InitialRandom > opts.Iterations {
			return &Error{Field: "method_options.initial_random", Reason: fmt.Sprintf("must not exceed iterations (%d), got %d", opts.Iterations, opts.InitialRandom)}
		}
		if opts.Exploration < 0 {
			return &Error{Field: "method_options.exploration", Reason: fmt.Sprintf("must not be negative, got %v", opts.Exploration)}
		}
	}
	return nil
}

func applyOptionDefaults(cfg *Config) {
	if cfg.Method == MethodBayesian {
		if cfg.Options.InitialRandom == 0 {
			cfg.Options.InitialRandom = min(3, cfg.Options.Iterations)
		}
		if cfg.Options.Exploration == 0 {
			cfg.Options.Exploration = 0.01
		}
	}
}

// InDomain reports whether a concrete value lies inside the parameter's domain.
// Numeric values may arrive as float64 (the JSON decoding of any number) or int.
func (p *ParameterSpec) InDomain(value any) bool {
	switch p.Type {
	case ParamContinuous:
		f, ok := toFloat(value)
		return ok && f >= p.Low() && f <= p.High()
	case ParamInteger:
		f, ok := toFloat(value)
		return ok && f == math.Trunc(f) && f >= p.Low() && f <= p.High()
	case ParamCategorical:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, c := range p.Choices {
			if c == s {
				return true
			}
		}
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
