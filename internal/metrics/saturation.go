package metrics

import (
	"math"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// Saturation is the fraction of samples in which the controller output
// reached the actuator limit.
type Saturation struct {
	limit   float64
	hits    int
	samples int
}

func NewSaturation(limit float64) *Saturation {
	return &Saturation{limit: limit}
}

func (s *Saturation) Name() string {
	return "saturation"
}

func (s *Saturation) Observe(sm dynamo.Sample) {
	s.samples++
	for _, val := range sm.Control {
		if math.Abs(val) >= s.limit {
			s.hits++
			break
		}
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.hits) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.hits = 0
	s.samples = 0
}
