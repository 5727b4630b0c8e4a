package lti

import "errors"

var (
	// ErrZeroDenominator indicates a transfer function whose denominator is
	// identically zero.
	ErrZeroDenominator = errors.New("lti: denominator is zero")

	// ErrImproper indicates a numerator of higher degree than the denominator,
	// which has no state-space realization.
	ErrImproper = errors.New("lti: transfer function is improper")

	// ErrLengthMismatch indicates time and input vectors of different lengths.
	ErrLengthMismatch = errors.New("lti: time and input lengths differ")

	// ErrNonUniformGrid indicates a time vector that is not evenly spaced and
	// increasing.
	ErrNonUniformGrid = errors.New("lti: time vector must be uniformly spaced and increasing")
)
