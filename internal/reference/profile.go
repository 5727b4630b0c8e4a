package reference

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyProfile indicates a profile without any points.
	ErrEmptyProfile = errors.New("reference: profile has no points")

	// ErrDuplicateThreshold indicates two points sharing the same threshold.
	ErrDuplicateThreshold = errors.New("reference: duplicate threshold")

	// ErrInvalidPoint indicates a NaN or infinite threshold or value.
	ErrInvalidPoint = errors.New("reference: threshold and value must be finite")
)

// Point is a single profile entry: Value is active once At has been crossed.
type Point struct {
	At    float64 `yaml:"at" json:"at"`
	Value float64 `yaml:"value" json:"value"`
}

// Profile is an immutable, ascending list of points.
type Profile struct {
	points []Point
}

// NewProfile copies and sorts points by threshold.
func NewProfile(points ...Point) (*Profile, error) {
	if len(points) == 0 {
		return nil, ErrEmptyProfile
	}

	p := append([]Point(nil), points...)
	for _, pt := range p {
		if !finite(pt.At) || !finite(pt.Value) {
			return nil, fmt.Errorf("%w: at=%v value=%v", ErrInvalidPoint, pt.At, pt.Value)
		}
	}

	sort.Slice(p, func(i, j int) bool { return p[i].At < p[j].At })
	for i := 1; i < len(p); i++ {
		if p[i].At == p[i-1].At {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateThreshold, p[i].At)
		}
	}

	return &Profile{points: p}, nil
}

// FromMap builds a profile from a threshold -> value table. Map order is
// irrelevant.
func FromMap(m map[float64]float64) (*Profile, error) {
	points := make([]Point, 0, len(m))
	for at, v := range m {
		points = append(points, Point{At: at, Value: v})
	}
	return NewProfile(points...)
}

// MustProfile is NewProfile for static tables; it panics on error.
func MustProfile(points ...Point) *Profile {
	p, err := NewProfile(points...)
	if err != nil {
		panic(err)
	}
	return p
}

var defaultPoints = []Point{
	{At: 0, Value: 1.0},
	{At: 3, Value: 0.5},
	{At: 6, Value: 1.5},
	{At: 10, Value: -0.5},
	{At: 15, Value: 2.0},
	{At: 20, Value: -3},
	{At: 25, Value: 0},
}

// DefaultProfile returns the stock seven-step setpoint schedule.
func DefaultProfile() *Profile {
	return MustProfile(defaultPoints...)
}

// sorted is nil for a nil or zero-value profile.
func (p *Profile) sorted() []Point {
	if p == nil {
		return nil
	}
	return p.points
}

// Len returns the number of points.
func (p *Profile) Len() int { return len(p.sorted()) }

// Points returns a copy of the sorted points.
func (p *Profile) Points() []Point {
	return append([]Point(nil), p.sorted()...)
}

// Keys returns the thresholds in ascending order.
func (p *Profile) Keys() []float64 {
	keys := make([]float64, p.Len())
	for i, pt := range p.sorted() {
		keys[i] = pt.At
	}
	return keys
}

// Values returns the setpoints in threshold order.
func (p *Profile) Values() []float64 {
	vals := make([]float64, p.Len())
	for i, pt := range p.sorted() {
		vals[i] = pt.Value
	}
	return vals
}

// At returns the setpoint active at t under the given boundary policy. A
// profile without points holds zero.
func (p *Profile) At(t float64, b Boundary) float64 {
	pts := p.sorted()
	if len(pts) == 0 {
		return 0
	}
	cur := 0
	for i := 1; i < len(pts); i++ {
		if !b.crossed(pts[i].At, t) {
			break
		}
		cur = i
	}
	return pts[cur].Value
}

type profileFile struct {
	Points []Point `yaml:"points"`
}

// LoadProfile reads a YAML file of the form
//
//	points:
//	  - {at: 0, value: 1.0}
//	  - {at: 3, value: 0.5}
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProfile(data)
}

// ParseProfile decodes the YAML profile format used by LoadProfile.
func ParseProfile(data []byte) (*Profile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("reference: parse profile: %w", err)
	}
	return NewProfile(f.Points...)
}

// MarshalYAML writes the profile as a plain list of points.
func (p *Profile) MarshalYAML() (interface{}, error) {
	return p.sorted(), nil
}

// UnmarshalYAML accepts a list of points.
func (p *Profile) UnmarshalYAML(node *yaml.Node) error {
	var points []Point
	if err := node.Decode(&points); err != nil {
		return err
	}
	np, err := NewProfile(points...)
	if err != nil {
		return err
	}
	*p = *np
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
