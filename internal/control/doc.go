// Package control provides the sampled feedback controllers driven by the
// simulator.
//
// Controllers implement [dynamo.Controller] and receive the reference and
// the measured plant output at every grid point:
//
//   - [PID]: Proportional-Integral-Derivative controller on the tracking error
//
// # Usage
//
//	pid := control.NewPID(5, 2, 0.5)
//	u := pid.Compute(r, y, t)
//
// [PID] also implements [dynamo.Configurable]: scenario files set its gains
// and limits by name and the simulator records them with each result.
package control
