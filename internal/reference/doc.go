// Package reference builds the reference (setpoint) signals that drive the
// closed-loop simulations.
//
// The central type is [Profile], a sparse table of time thresholds and the
// setpoint that becomes active once each threshold has been crossed:
//
//   - [Profile]: sorted (threshold, value) points
//   - [Build]: dense step signal sampled on a time grid
//   - [Ramp], [Sine]: the other two input shapes
//   - [Linspace]: uniform time grid, endpoint inclusive
//
// # Boundary policy
//
// A threshold counts as crossed only once t is strictly greater than it, so at
// t == threshold the previous setpoint still applies. [Inclusive] switches to
// k <= t for callers that want a threshold to take effect at its own instant.
//
//	p := reference.DefaultProfile()
//	t := reference.Linspace(0, 30, 3000)
//	r := reference.Build(p, t)
package reference
