// Package dynamo provides the shared primitives of the sampled closed loop.
//
// The package defines the interfaces the simulator is assembled from:
//
//   - [State]: plant state vector
//   - [System]: continuous plant, dX/dt = f(X, u, t)
//   - [Integrator]: numerical stepper for a [System]
//   - [Controller]: feedback law from the measured output to the plant input
//   - [Metric], [Observer]: per-sample hooks fed with a [Sample]
//   - [Result]: aligned time, reference, output and control traces
//
// # Example
//
//	plant, _ := lti.DefaultPlant().StateSpace()
//	pid := control.NewPID(5, 2, 0.5)
//	s := sim.New(plant, integrators.NewRK4(), pid, factory)
//	res, _ := s.Run(ctx, nil, sim.Config{Reference: ref}, times)
//
// # Thread Safety
//
// Controllers and metrics carry state between samples and are NOT safe for
// concurrent use. Build one set per run; [sim.Ensemble] does this for you.
package dynamo
