package reference_test

import (
	"math/rand"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidsim/internal/reference"
)

var _ = Describe("Build", func() {
	var (
		profile *reference.Profile
		keys    []float64
		values  []float64
	)

	BeforeEach(func() {
		profile = reference.DefaultProfile()
		keys = profile.Keys()
		values = make([]float64, profile.Len())
		for i, pt := range profile.Points() {
			values[i] = pt.Value
		}
	})

	It("returns the left threshold's value strictly between thresholds", func() {
		for i := 0; i+1 < len(keys); i++ {
			mid := (keys[i] + keys[i+1]) / 2
			Expect(reference.Build(profile, []float64{mid})).To(Equal([]float64{values[i]}))
		}
	})

	It("keeps the previous value at an exact threshold", func() {
		for i := 1; i < len(keys); i++ {
			Expect(reference.Build(profile, []float64{keys[i]})).To(Equal([]float64{values[i-1]}))
		}
	})

	It("falls back to the smallest threshold below every key", func() {
		Expect(reference.Build(profile, []float64{-5, -0.1, 0})).To(HaveEach(values[0]))
	})

	It("is idempotent", func() {
		times := reference.Linspace(0, 30, 3000)
		Expect(reference.Build(profile, times)).To(Equal(reference.Build(profile, times)))
	})

	It("preserves length for random grids", func() {
		rng := rand.New(rand.NewSource(7))
		for n := 1; n < 50; n++ {
			times := make([]float64, n)
			for i := range times {
				times[i] = rng.Float64()*40 - 5
			}
			Expect(reference.Build(profile, times)).To(HaveLen(n))
		}
	})

	It("matches a full rescan on sorted and shuffled grids", func() {
		rng := rand.New(rand.NewSource(11))
		times := make([]float64, 500)
		for i := range times {
			times[i] = rng.Float64() * 30
		}

		shuffled := reference.Build(profile, times)
		for i, t := range times {
			Expect(shuffled[i]).To(Equal(profile.At(t, reference.Strict)), "t=%v", t)
		}

		sort.Float64s(times)
		sorted := reference.Build(profile, times)

		for i, t := range times {
			Expect(sorted[i]).To(Equal(profile.At(t, reference.Strict)), "t=%v", t)
		}
	})

	Context("with the inclusive boundary", func() {
		It("switches at the threshold instant", func() {
			Expect(reference.BuildWith(profile, []float64{3}, reference.Inclusive)).To(Equal([]float64{0.5}))
		})
	})
})
