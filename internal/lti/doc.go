// Package lti implements the single-input single-output linear time-invariant
// algebra the simulator needs: transfer functions, their feedback
// composition, a state-space realization, and time-domain simulation.
//
// Polynomials are stored in descending powers of s, so [1, 1, 0] is s^2 + s.
//
//	g := lti.DefaultPlant()             // 1 / (s^2 + s)
//	c := lti.PID(5, 2, 0.5)             // (0.5 s^2 + 5 s + 2) / s
//	t := lti.UnityFeedback(c.Mul(g))    // C G / (1 + C G)
//	ss, _ := t.StateSpace()
//	y, _ := lti.ForcedResponse(ss, times, r)
//
// Matrix work (exponentials, eigenvalues) goes through gonum.
package lti
