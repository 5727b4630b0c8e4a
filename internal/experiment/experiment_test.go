package experiment_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/logs"
	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/reference"
)

type stepLog struct {
	times   []float64
	outputs []float64
}

func (l *stepLog) OnStep(s dynamo.Sample) {
	l.times = append(l.times, s.Time)
	l.outputs = append(l.outputs, s.Output)
}

var _ = Describe("Runner", func() {
	var (
		runner *experiment.Runner
		cfg    experiment.Config
		ctx    context.Context
	)

	BeforeEach(func() {
		runner = experiment.NewRunner(logs.Discard())
		cfg = experiment.DefaultConfig()
		ctx = context.Background()
	})

	Context("with the default step profile", func() {
		It("returns aligned traces on the 0..30 s grid", func() {
			res, err := runner.Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Times).To(HaveLen(experiment.DefaultSamples))
			Expect(res.Reference).To(HaveLen(experiment.DefaultSamples))
			Expect(res.Output).To(HaveLen(experiment.DefaultSamples))
			Expect(res.Control).To(BeEmpty())
			Expect(res.Times[0]).To(Equal(0.0))
			Expect(res.Times[len(res.Times)-1]).To(Equal(30.0))
		})

		It("samples the reference with the strict boundary", func() {
			res, err := runner.Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Reference).To(Equal(reference.Build(reference.DefaultProfile(), res.Times)))
			Expect(res.Reference[0]).To(Equal(1.0))
			Expect(res.Reference[len(res.Reference)-1]).To(Equal(0.0))
		})

		It("reports a stable third-order closed loop", func() {
			res, err := runner.Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Stable).To(BeTrue())
			Expect(res.Poles).To(HaveLen(3))
			for _, p := range res.Poles {
				Expect(p.Re).To(BeNumerically("<", 0))
			}
			Expect(res.Transfer).To(Equal("(0.5 s^2 + 5 s + 2) / (s^3 + 1.5 s^2 + 5 s + 2)"))
			Expect(res.Caption).To(Equal("PID Control Response to step  Kp=5 Ki=2 Kd=0.5"))
		})

		It("scores the tracking", func() {
			res, err := runner.Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			for _, name := range []string{metrics.IAE, metrics.ISE, metrics.ITAE, metrics.RMSE, metrics.MaxError} {
				Expect(res.Metrics).To(HaveKey(name))
				Expect(res.Metrics[name]).To(BeNumerically(">", 0))
			}
		})
	})

	It("tracks a ramp with vanishing error", func() {
		cfg.Input = experiment.Ramp
		res, err := runner.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		last := len(res.Times) - 1
		Expect(res.Reference[last]).To(BeNumerically("~", 30, 1e-9))
		Expect(res.Output[last]).To(BeNumerically("~", 30, 1e-2))
	})

	It("drives a 0.5 sin(0.8 t) sinusoid", func() {
		cfg.Input = experiment.Sinusoidal
		res, err := runner.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		for i, t := range res.Times {
			Expect(res.Reference[i]).To(BeNumerically("~", 0.5*math.Sin(0.8*t), 1e-12))
		}
	})

	It("agrees between the lti and sampled methods", func() {
		cfg.Input = experiment.Ramp
		exact, err := runner.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		cfg.Method = experiment.MethodSampled
		sampled, err := runner.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(sampled.Control).To(HaveLen(len(sampled.Times)))
		Expect(sampled.Metrics).To(HaveKey("control_effort"))
		Expect(sampled.Controller).To(HaveKeyWithValue("Kp", 5.0))
		Expect(sampled.Controller).To(HaveKeyWithValue("OutputLimit", 0.0))
		Expect(exact.Controller).To(BeNil())
		last := len(exact.Output) - 1
		Expect(sampled.Output[last]).To(BeNumerically("~", exact.Output[last], 0.05))
	})

	It("feeds every sampled step to the observer", func() {
		steps := &stepLog{}
		cfg.Method = experiment.MethodSampled
		cfg.Samples = 200
		cfg.Observer = steps

		res, err := runner.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(steps.times).To(Equal(res.Times))
		Expect(steps.outputs).To(Equal(res.Output))
	})

	It("rejects invalid configs", func() {
		bad := cfg
		bad.Gains.Kp = math.NaN()
		_, err := runner.Run(ctx, bad)
		Expect(err).To(MatchError(experiment.ErrInvalidGains))

		bad = cfg
		bad.Samples = 1
		_, err = runner.Run(ctx, bad)
		Expect(err).To(MatchError(experiment.ErrInvalidConfig))

		bad = cfg
		bad.Method = "euler"
		_, err = runner.Run(ctx, bad)
		Expect(err).To(MatchError(experiment.ErrUnknownMethod))

		bad = cfg
		bad.Method = experiment.MethodSampled
		bad.Integrator = "leapfrog"
		_, err = runner.Run(ctx, bad)
		Expect(err).To(HaveOccurred())
	})

	It("stops on a cancelled context", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := runner.Run(cancelled, cfg)
		Expect(err).To(MatchError(context.Canceled))

		cfg.Method = experiment.MethodSampled
		_, err = runner.Run(cancelled, cfg)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("reports divergence of an unstable sampled loop", func() {
		cfg.Method = experiment.MethodSampled
		cfg.Gains = experiment.Gains{Kp: 1, Ki: 5, Kd: 0}
		cfg.Duration = 200
		cfg.Samples = 20000

		_, err := runner.Run(ctx, cfg)
		Expect(err).To(MatchError(dynamo.ErrUnstable))
	})

	Describe("Tune", func() {
		It("skips unstable candidates and keeps the best score", func() {
			cfg.Samples = 600
			res, err := runner.Tune(ctx, cfg, experiment.GridSearch{
				Kp: []float64{1, 5},
				Ki: []float64{2},
				Kd: []float64{0.5},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Metric).To(Equal(metrics.ITAE))
			Expect(res.Rejected).To(Equal(1))
			Expect(res.Candidates).To(HaveLen(1))
			Expect(res.Best.Gains).To(Equal(experiment.Gains{Kp: 5, Ki: 2, Kd: 0.5}))
		})

		It("orders candidates best first", func() {
			cfg.Samples = 600
			res, err := runner.Tune(ctx, cfg, experiment.GridSearch{
				Kp:      experiment.Span(2, 10, 3),
				Ki:      []float64{0.5, 1},
				Kd:      []float64{0.5, 1},
				Metric:  metrics.IAE,
				Workers: 4,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Candidates).To(HaveLen(12))
			for i := 1; i < len(res.Candidates); i++ {
				Expect(res.Candidates[i].Score).To(BeNumerically(">=", res.Candidates[i-1].Score))
			}
			Expect(res.Best).To(Equal(res.Candidates[0]))
		})

		It("scores sampled candidates as one ensemble", func() {
			cfg.Method = experiment.MethodSampled
			cfg.Samples = 600
			cfg.Observer = &stepLog{}
			res, err := runner.Tune(ctx, cfg, experiment.GridSearch{
				Kp:      []float64{1, 5, 8},
				Ki:      []float64{2},
				Kd:      []float64{0.5},
				Workers: 2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rejected).To(Equal(1))
			Expect(res.Candidates).To(HaveLen(2))
			Expect(cfg.Observer.(*stepLog).times).To(BeEmpty())

			single := cfg
			single.Observer = nil
			single.Gains = res.Best.Gains
			direct, err := runner.Run(ctx, single)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Best.Score).To(Equal(direct.Metrics[metrics.ITAE]))
		})

		It("fails when nothing is stable", func() {
			_, err := runner.Tune(ctx, cfg, experiment.GridSearch{
				Kp: []float64{1}, Ki: []float64{10}, Kd: []float64{0},
			})
			Expect(err).To(MatchError(experiment.ErrNoCandidate))
		})
	})

	Describe("Batch", func() {
		It("runs every scenario entry with inherited defaults", func() {
			sc, err := experiment.ParseScenario([]byte(`
name: comparison
defaults:
  samples: 500
  kd: 0.5
runs:
  - name: baseline
    kp: 5
    ki: 2
  - name: ramp
    kp: 20
    ki: 8
    input: ramp
    save: true
  - name: custom-profile
    profile:
      - {at: 0, value: 0}
      - {at: 2, value: 1}
`))
			Expect(err).NotTo(HaveOccurred())

			out, err := runner.Batch(ctx, sc, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(3))

			Expect(out[0].Name).To(Equal("baseline"))
			Expect(out[0].Err).NotTo(HaveOccurred())
			Expect(out[0].Result.Times).To(HaveLen(500))

			Expect(out[1].Save).To(BeTrue())
			Expect(out[1].Config.Input).To(Equal(experiment.Ramp))
			Expect(out[1].Config.Gains).To(Equal(experiment.Gains{Kp: 20, Ki: 8, Kd: 0.5}))

			Expect(out[2].Config.Gains).To(Equal(experiment.Gains{Kp: 5, Ki: 2, Kd: 0.5}))
			Expect(out[2].Result.Reference[0]).To(Equal(0.0))
		})

		It("rejects bad entries before running anything", func() {
			sc, err := experiment.ParseScenario([]byte("runs:\n  - {name: x, input: square}\n"))
			Expect(err).NotTo(HaveOccurred())

			_, err = runner.Batch(ctx, sc, 1)
			Expect(err).To(MatchError(experiment.ErrUnknownInput))
		})

		It("sets controller parameters by name", func() {
			sc, err := experiment.ParseScenario([]byte(`
defaults:
  samples: 300
  method: sampled
runs:
  - name: clamped
    params: {OutputLimit: 4, IntegralLimit: 1, Kp: 8}
`))
			Expect(err).NotTo(HaveOccurred())

			out, err := runner.Batch(ctx, sc, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out[0].Err).NotTo(HaveOccurred())
			Expect(out[0].Config.Gains.Kp).To(Equal(8.0))
			Expect(out[0].Config.OutputLimit).To(Equal(4.0))
			Expect(out[0].Config.IntegralLimit).To(Equal(1.0))
			Expect(out[0].Result.Controller).To(HaveKeyWithValue("OutputLimit", 4.0))
			for _, u := range out[0].Result.Control {
				Expect(math.Abs(u)).To(BeNumerically("<=", 4))
			}
		})

		It("rejects unknown controller parameters", func() {
			sc, err := experiment.ParseScenario([]byte("runs:\n  - {name: x, params: {Gain: 2}}\n"))
			Expect(err).NotTo(HaveOccurred())

			_, err = runner.Batch(ctx, sc, 1)
			Expect(err).To(MatchError(experiment.ErrInvalidConfig))
		})

		It("requires at least one run", func() {
			_, err := experiment.ParseScenario([]byte("name: empty\n"))
			Expect(err).To(MatchError(experiment.ErrInvalidConfig))
		})
	})
})
