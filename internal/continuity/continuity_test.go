package continuity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/continuity"
	"github.com/sarchlab/zeonica-animator/internal/lanemap"
)

func baseParams(policy continuity.Policy) continuity.Params {
	return continuity.Params{
		TargetID:     "t1",
		Policy:       policy,
		SlewRate:     0, // no decay within a single frame under test, unless overridden
		IdentityMode: lanemap.ModeByID,
		DupPolicy:    lanemap.PolicyStrict,
		Stride:       1,
	}
}

var _ = Describe("Continuity manager", func() {
	It("passes base straight through under policy none", func() {
		m := continuity.NewManager(nil)
		eff, err := m.Apply(baseParams(continuity.PolicyNone), []float64{1, 2, 3}, []string{"a", "b", "c"}, false, 16)
		Expect(err).NotTo(HaveOccurred())
		Expect(eff).To(Equal([]float64{1, 2, 3}))
	})

	It("preserves mapped lanes and defaults unmapped lanes under slew across a lane-count change (scenario: N_old=6 -> N_new=8)", func() {
		m := continuity.NewManager(nil)
		p := baseParams(continuity.PolicySlew)

		oldIdentity := []string{"a", "b", "c", "d", "e", "f"}
		_, err := m.Apply(p, []float64{1, 2, 3, 4, 5, 6}, oldIdentity, false, 16)
		Expect(err).NotTo(HaveOccurred())

		newIdentity := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		newBase := []float64{10, 20, 30, 40, 50, 60, 70, 80}
		eff, err := m.Apply(p, newBase, newIdentity, true, 16)
		Expect(err).NotTo(HaveOccurred())

		for k := 0; k < 6; k++ {
			Expect(eff[k]).To(BeNumerically("~", float64(k+1), 1e-9)) // oldEffective, preserved via base+gauge
		}
		Expect(eff[6]).To(Equal(70.0))
		Expect(eff[7]).To(Equal(80.0))
	})

	It("matches scenario D: domain change with project policy preserves mapped lanes and defaults the new one", func() {
		m := continuity.NewManager(nil)
		p := baseParams(continuity.PolicyProject)
		p.SlewRate = 0 // isolate the frame-of-change value before any decay

		_, err := m.Apply(p, []float64{10, 20, 30}, []string{"a", "b", "c"}, false, 16)
		Expect(err).NotTo(HaveOccurred())

		eff, err := m.Apply(p, []float64{11, 21, 31, 41}, []string{"a", "b", "c", "d"}, true, 16)
		Expect(err).NotTo(HaveOccurred())
		Expect(eff).To(Equal([]float64{10, 20, 30, 41}))
	})

	It("matches scenario E: a duplicate identity forces resetAll with slewBuf==baseBuf", func() {
		m := continuity.NewManager(nil)
		p := baseParams(continuity.PolicySlew)

		_, err := m.Apply(p, []float64{10, 20, 30}, []string{"a", "b", "c"}, false, 16)
		Expect(err).NotTo(HaveOccurred())

		eff, err := m.Apply(p, []float64{11, 21, 21, 41}, []string{"a", "b", "b", "d"}, true, 16)
		Expect(err).NotTo(HaveOccurred())
		Expect(eff).To(Equal([]float64{11, 21, 21, 41}))
	})

	It("blends mapped lanes toward base over the crossfade window", func() {
		m := continuity.NewManager(nil)
		p := baseParams(continuity.PolicyCrossfade)
		p.CrossfadeWindow = 100

		_, err := m.Apply(p, []float64{0}, []string{"a"}, false, 0)
		Expect(err).NotTo(HaveOccurred())

		eff, err := m.Apply(p, []float64{100}, []string{"a"}, true, 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(eff[0]).To(BeNumerically("~", 50, 1e-9))

		eff, err = m.Apply(p, []float64{100}, []string{"a"}, false, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(eff[0]).To(Equal(100.0))
	})
})
