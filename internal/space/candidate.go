package space

// Candidate is one concrete assignment of values to tunable parameters.
// Values are float64 for continuous, int for integer, and string for
// categorical parameters. Candidates are never mutated after creation;
// Clone before deriving a new one.
type Candidate map[string]any

// Clone returns a shallow copy of the candidate
func (c Candidate) Clone() Candidate {
	out := make(Candidate, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge returns a complete assignment: base values overlaid with the
// candidate's own. The receiver wins on conflicts.
func (c Candidate) Merge(base map[string]any) Candidate {
	out := make(Candidate, len(base)+len(c))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range c {
		out[k] = v
	}
	return out
}
