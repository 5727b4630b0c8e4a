// Package analysis provides frequency-domain checks of a PID loop.
//
//   - [Bode]: magnitude and unwrapped phase of an open loop over a log sweep
//   - [ComputeMargins]: gain and phase margins with their crossover frequencies
//   - [MagnitudeSpectrum] and [DominantFrequency]: spectrum of a sampled trace,
//     used to find the ringing frequency of an underdamped response
//
// # Margins
//
// The open loop of the unity-feedback PID loop is C(s)G(s):
//
//	open := lti.PID(kp, ki, kd).Mul(plant)
//	m := analysis.ComputeMargins(open, analysis.DefaultSweep())
//	if m.PhaseMargin < 30 {
//	    // expect heavy overshoot
//	}
package analysis
