package config

// Method selects the candidate-generation strategy for a tuning run
type Method string

const (
	MethodGrid     Method = "grid"
	MethodRandom   Method = "random"
	MethodBayesian Method = "bayesian"
)

// ParamType represents the kind of a tunable parameter
type ParamType string

const (
	ParamContinuous  ParamType = "continuous"
	ParamInteger     ParamType = "integer"
	ParamCategorical ParamType = "categorical"
)

// Scale selects linear or logarithmic spacing for numeric parameters
type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

// ParameterSpec describes one tunable parameter of the query template
type ParameterSpec struct {
	Name    string    `json:"name"`
	Type    ParamType `json:"type"`
	Bounds  []float64 `json:"bounds,omitempty"`  // [low, high] for continuous/integer
	Choices []string  `json:"choices,omitempty"` // for categorical, in declared order
	Scale   Scale     `json:"scale,omitempty"`   // linear (default) or log
}

// Low returns the lower bound of a numeric parameter
func (p *ParameterSpec) Low() float64 { return p.Bounds[0] }

// High returns the upper bound of a numeric parameter
func (p *ParameterSpec) High() float64 { return p.Bounds[1] }

// Options holds method-specific settings
type Options struct {
	// Iterations is the evaluation budget for random and bayesian search
	Iterations int `json:"iterations,omitempty"`
	// Steps is the per-parameter point count for grid search over numeric axes
	Steps int `json:"steps,omitempty"`
	// InitialRandom is the number of cold-start random draws for bayesian search
	InitialRandom int `json:"initial_random,omitempty"`
	// Exploration is the exploration/exploitation trade-off knob (xi) for
	// the bayesian acquisition function
	Exploration float64 `json:"exploration,omitempty"`
	// Seed makes candidate sampling reproducible; 0 selects a time-based seed
	Seed int64 `json:"seed,omitempty"`
}

// Config is the parsed, validated tuning configuration. It is read-only
// for the duration of a run.
type Config struct {
	Method     Method          `json:"method"`
	Parameters []ParameterSpec `json:"parameters"`
	Defaults   map[string]any  `json:"defaults,omitempty"`
	Options    Options         `json:"method_options,omitempty"`
}

// Param returns the declared parameter with the given name
func (c *Config) Param(name string) (*ParameterSpec, bool) {
	for i := range c.Parameters {
		if c.Parameters[i].Name == name {
			return &c.Parameters[i], true
		}
	}
	return nil, false
}

// Missing-judgments policies for metric aggregation
const (
	MissingSkip = "skip"
	MissingZero = "zero"
)

// Metric describes the relevance metric. Apart from MissingJudgments it is
// passed through opaquely to the ranking-evaluation service.
type Metric struct {
	Name string `json:"name"`
	AtK  int    `json:"at_k,omitempty"`
	// MissingJudgments controls how queries without qrels contribute to the
	// aggregate score: "skip" (default) leaves them out, "zero" counts them as 0.
	MissingJudgments string         `json:"missing_judgments,omitempty"`
	Params           map[string]any `json:"params,omitempty"`
}

// TemplateSet maps template id to a template body with named placeholders
type TemplateSet map[string]string

// Topic is one judged query
type Topic struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Qrels maps query id to per-document relevance grades
type Qrels map[string]map[string]int
