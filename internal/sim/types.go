package sim

// DefaultDivergence is the state norm past which a run is declared unstable.
const DefaultDivergence = 1e9

type Config struct {
	// Reference is sampled on the same grid as the run; index i is r(times[i]).
	Reference []float64
	// Divergence overrides DefaultDivergence when positive.
	Divergence float64
}

func (c Config) divergence() float64 {
	if c.Divergence > 0 {
		return c.Divergence
	}
	return DefaultDivergence
}
