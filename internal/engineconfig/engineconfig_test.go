package engineconfig_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/compiler"
	"github.com/sarchlab/zeonica-animator/internal/engineconfig"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

func counterProgram(patchID string, revision int) *compiler.CompiledProgram {
	planner := schedule.NewPlanner()
	_ = planner.Declare(schedule.Declaration{ID: 0, Kind: schedule.KindF32, Class: schedule.ClassState, StableKey: "counter", Initial: 0.0})
	return &compiler.CompiledProgram{
		PatchID:       patchID,
		PatchRevision: revision,
		IR:            ir.NewBuilder(),
		Slots:         planner.Plan(),
		Schedule:      &schedule.Schedule{},
	}
}

var _ = Describe("engineconfig Builder", func() {
	It("builds a Host that ticks an Executor forward each cycle", func() {
		prog := counterProgram("demo", 1)
		host := engineconfig.NewBuilder().
			WithFrameBudget(16).
			Build("host", prog, nil)

		Expect(host.Tick(0)).To(BeTrue())
		Expect(host.LastErr).NotTo(HaveOccurred())
		Expect(host.Tick(1)).To(BeTrue())
		Expect(host.LastErr).NotTo(HaveOccurred())
	})

	It("migrates state via hotswap.Migrate when a SwapMsg arrives on ProgramSwapPort", func() {
		prog := counterProgram("demo", 1)
		host := engineconfig.NewBuilder().Build("host", prog, nil)

		Expect(host.Tick(0)).To(BeTrue())
		Expect(host.RuntimeState().WriteF32(0, []float64{42})).To(Succeed())

		newProg := counterProgram("demo", 2)
		swap := &engineconfig.SwapMsg{Program: newProg}
		Expect(host.ProgramSwapPort().Deliver(swap)).To(BeNil())

		Expect(host.Tick(1)).To(BeTrue())

		v, err := host.RuntimeState().ReadF32(0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(v[0]).To(Equal(42.0))
	})
})
