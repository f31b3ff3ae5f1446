package space

import (
	"fmt"
	"math"

	"github.com/searchlab/querytuner/pkg/config"
	"github.com/searchlab/querytuner/pkg/utils"
)

// Domain is the search space spanned by a validated parameter list. It
// owns sampling, grid materialization, and the vector encoding used by
// the surrogate model.
type Domain struct {
	params  []config.ParameterSpec
	offsets []int // start of each parameter's block in the encoded vector
	dim     int
}

// New builds a Domain over the declared parameters, in declared order
func New(params []config.ParameterSpec) *Domain {
	d := &Domain{
		params:  params,
		offsets: make([]int, len(params)),
	}
	for i, p := range params {
		d.offsets[i] = d.dim
		if p.Type == config.ParamCategorical {
			// one indicator per choice, in declared order
			d.dim += len(p.Choices)
		} else {
			d.dim++
		}
	}
	return d
}

// Params returns the parameter specs, in declared order
func (d *Domain) Params() []config.ParameterSpec { return d.params }

// Dim returns the length of the encoded feature vector
func (d *Domain) Dim() int { return d.dim }

// Sample draws a candidate uniformly from the domain: numeric parameters
// uniform over their bounds (log-uniform when scale=log), categorical
// parameters uniform over their choices.
func (d *Domain) Sample(rng *utils.RandSource) Candidate {
	c := make(Candidate, len(d.params))
	for i := range d.params {
		p := &d.params[i]
		switch p.Type {
		case config.ParamContinuous:
			if p.Scale == config.ScaleLog {
				c[p.Name] = rng.LogUniformFloat64(p.Low(), p.High())
			} else {
				c[p.Name] = rng.UniformFloat64(p.Low(), p.High())
			}
		case config.ParamInteger:
			if p.Scale == config.ScaleLog {
				v := int(math.Round(rng.LogUniformFloat64(p.Low(), p.High())))
				c[p.Name] = clampInt(v, p.Low(), p.High())
			} else {
				lo, hi := int(math.Ceil(p.Low())), int(math.Floor(p.High()))
				c[p.Name] = lo + rng.Intn(hi-lo+1)
			}
		case config.ParamCategorical:
			c[p.Name] = p.Choices[rng.Intn(len(p.Choices))]
		}
	}
	return c
}

// GridAxes materializes the finite value list for each parameter:
// categorical axes yield their declared choices in order; numeric axes
// yield steps evenly spaced points across the bounds, inclusive
// (log-spaced when scale=log). Integer axes are rounded and deduplicated.
func (d *Domain) GridAxes(steps int) [][]any {
	axes := make([][]any, len(d.params))
	for i := range d.params {
		p := &d.params[i]
		switch p.Type {
		case config.ParamCategorical:
			values := make([]any, len(p.Choices))
			for j, choice := range p.Choices {
				values[j] = choice
			}
			axes[i] = values
		case config.ParamContinuous:
			values := make([]any, 0, steps)
			for _, x := range spacedPoints(p, steps) {
				values = append(values, x)
			}
			axes[i] = values
		case config.ParamInteger:
			values := make([]any, 0, steps)
			var last int
			for j, x := range spacedPoints(p, steps) {
				v := clampInt(int(math.Round(x)), p.Low(), p.High())
				if j > 0 && v == last {
					continue
				}
				values = append(values, v)
				last = v
			}
			axes[i] = values
		}
	}
	return axes
}

// spacedPoints returns n points across the parameter's bounds, inclusive
// of both ends. A single point collapses to the lower bound.
func spacedPoints(p *config.ParameterSpec, n int) []float64 {
	if n <= 1 {
		return []float64{p.Low()}
	}
	points := make([]float64, n)
	if p.Scale == config.ScaleLog {
		lo, hi := math.Log(p.Low()), math.Log(p.High())
		for i := 0; i < n; i++ {
			points[i] = math.Exp(lo + float64(i)*(hi-lo)/float64(n-1))
		}
		// guard against rounding drift at the ends
		points[0], points[n-1] = p.Low(), p.High()
	} else {
		for i := 0; i < n; i++ {
			points[i] = p.Low() + float64(i)*(p.High()-p.Low())/float64(n-1)
		}
	}
	return points
}

// Encode maps a candidate to the surrogate's feature vector: numeric
// parameters scaled to [0,1] over their (log-)bounds, categorical
// parameters as an indicator block in declared choice order.
func (d *Domain) Encode(c Candidate) ([]float64, error) {
	v := make([]float64, d.dim)
	for i := range d.params {
		p := &d.params[i]
		raw, ok := c[p.Name]
		if !ok {
			return nil, fmt.Errorf("candidate is missing parameter %q", p.Name)
		}
		off := d.offsets[i]
		switch p.Type {
		case config.ParamContinuous, config.ParamInteger:
			x, ok := asFloat(raw)
			if !ok {
				return nil, fmt.Errorf("parameter %q: expected numeric value, got %T", p.Name, raw)
			}
			v[off] = scaleValue(p, x)
		case config.ParamCategorical:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q: expected string value, got %T", p.Name, raw)
			}
			idx := -1
			for j, choice := range p.Choices {
				if choice == s {
					idx = j
					break
				}
			}
			if idx < 0 {
				return nil, fmt.Errorf("parameter %q: %q is not a declared choice", p.Name, s)
			}
			v[off+idx] = 1.0
		}
	}
	return v, nil
}

// Decode maps a feature vector back to a valid candidate, snapping every
// dimension into the domain: numeric values are clamped to their bounds,
// integers rounded, and categorical blocks resolved by argmax.
func (d *Domain) Decode(v []float64) Candidate {
	c := make(Candidate, len(d.params))
	for i := range d.params {
		p := &d.params[i]
		off := d.offsets[i]
		switch p.Type {
		case config.ParamContinuous:
			c[p.Name] = unscaleValue(p, utils.ClampFloat64(v[off], 0, 1))
		case config.ParamInteger:
			x := unscaleValue(p, utils.ClampFloat64(v[off], 0, 1))
			c[p.Name] = clampInt(int(math.Round(x)), p.Low(), p.High())
		case config.ParamCategorical:
			best := 0
			for j := 1; j < len(p.Choices); j++ {
				if v[off+j] > v[off+best] {
					best = j
				}
			}
			c[p.Name] = p.Choices[best]
		}
	}
	return c
}

func scaleValue(p *config.ParameterSpec, x float64) float64 {
	if p.Scale == config.ScaleLog {
		lo, hi := math.Log(p.Low()), math.Log(p.High())
		return utils.ClampFloat64((math.Log(x)-lo)/(hi-lo), 0, 1)
	}
	return utils.ClampFloat64((x-p.Low())/(p.High()-p.Low()), 0, 1)
}

func unscaleValue(p *config.ParameterSpec, t float64) float64 {
	if p.Scale == config.ScaleLog {
		lo, hi := math.Log(p.Low()), math.Log(p.High())
		return math.Exp(lo + t*(hi-lo))
	}
	return p.Low() + t*(p.High()-p.Low())
}

func clampInt(v int, low, high float64) int {
	if float64(v) < low {
		return int(math.Ceil(low))
	}
	if float64(v) > high {
		return int(math.Floor(high))
	}
	return v
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
