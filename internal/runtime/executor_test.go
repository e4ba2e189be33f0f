package runtime_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/compiler"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/runtime"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

func scalarFloat() types.CanonicalType {
	return types.CanonicalType{Payload: types.PayloadFloat, Unit: types.UnitScalar, Extent: types.Extent{Cardinality: types.CardinalityOne}}
}

// buildCounterProgram wires one stable-state counter by hand, the way a
// compiled patch's lowered IR + planned slots would look: a Phase 1 step
// reads the previous frame's state into a value slot, and a Phase 2 step
// writes state+1 back.
func buildCounterProgram() (*compiler.CompiledProgram, int, int) {
	irb := ir.NewBuilder()
	planner := schedule.NewPlanner()

	stateSlot := 0
	valueSlot := 1
	_ = planner.Declare(schedule.Declaration{ID: stateSlot, Kind: schedule.KindF32, Class: schedule.ClassState, Initial: 0.0})
	_ = planner.Declare(schedule.Declaration{ID: valueSlot, Kind: schedule.KindF32, Class: schedule.ClassValue})
	slots := planner.Plan()

	readState := irb.StateRead(scalarFloat(), stateSlot)
	one := irb.Const(scalarFloat(), 1.0)
	incremented := irb.Opcode(scalarFloat(), "add", readState, one)

	builder := schedule.NewBuilder()
	readStep := builder.Add(schedule.Step{
		Kind:        schedule.StepEvaluateSignal,
		Expr:        readState,
		OutputSlots: []int{valueSlot},
	})
	builder.Add(schedule.Step{
		Kind:      schedule.StepScalarStateWrite,
		Expr:      incremented,
		StateSlot: stateSlot,
		DependsOn: []int{readStep},
	})
	sched, err := builder.Build()
	Expect(err).NotTo(HaveOccurred())

	prog := &compiler.CompiledProgram{
		IR:       irb,
		Slots:    slots,
		Schedule: sched,
	}
	return prog, stateSlot, valueSlot
}

var _ = Describe("Executor", func() {
	It("reads the previous frame's state in Phase 1 before Phase 2 commits the new value", func() {
		prog, _, valueSlot := buildCounterProgram()
		rs := runtime.NewRuntimeState(prog)
		exec := runtime.NewExecutor(rs, nil)

		_, err := exec.Tick(1)
		Expect(err).NotTo(HaveOccurred())
		v, err := rs.ReadF32(valueSlot, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(v[0]).To(Equal(0.0)) // first frame reads the declared initial value

		_, err = exec.Tick(2)
		Expect(err).NotTo(HaveOccurred())
		v, err = rs.ReadF32(valueSlot, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(v[0]).To(Equal(1.0)) // second frame observes frame 1's committed state

		_, err = exec.Tick(3)
		Expect(err).NotTo(HaveOccurred())
		v, _ = rs.ReadF32(valueSlot, 1)
		Expect(v[0]).To(Equal(2.0))
	})

	It("rejects a non-increasing frame stamp", func() {
		prog, _, _ := buildCounterProgram()
		rs := runtime.NewRuntimeState(prog)
		exec := runtime.NewExecutor(rs, nil)

		_, err := exec.Tick(5)
		Expect(err).NotTo(HaveOccurred())
		_, err = exec.Tick(5)
		Expect(err).To(HaveOccurred())
		_, err = exec.Tick(4)
		Expect(err).To(HaveOccurred())
	})

	It("collects a one-cardinality render pass from value slots", func() {
		irb := ir.NewBuilder()
		planner := schedule.NewPlanner()
		posSlot, colorSlot, sizeSlot, rotSlot := 0, 1, 2, 3
		_ = planner.Declare(schedule.Declaration{ID: posSlot, Kind: schedule.KindF32, Class: schedule.ClassValue, LaneStride: 2})
		_ = planner.Declare(schedule.Declaration{ID: colorSlot, Kind: schedule.KindF32, Class: schedule.ClassValue, LaneStride: 4})
		_ = planner.Declare(schedule.Declaration{ID: sizeSlot, Kind: schedule.KindF32, Class: schedule.ClassValue})
		_ = planner.Declare(schedule.Declaration{ID: rotSlot, Kind: schedule.KindF32, Class: schedule.ClassValue})
		slots := planner.Plan()

		builder := schedule.NewBuilder()
		builder.Add(schedule.Step{
			Kind: schedule.StepRenderPassCollect,
			RenderPass: &schedule.RenderPassParams{
				PositionSlot: posSlot,
				ColorSlot:    colorSlot,
				SizeSlot:     sizeSlot,
				RotationSlot: rotSlot,
				StyleKey:     "dot",
			},
		})
		sched, err := builder.Build()
		Expect(err).NotTo(HaveOccurred())

		prog := &compiler.CompiledProgram{IR: irb, Slots: slots, Schedule: sched}
		rs := runtime.NewRuntimeState(prog)
		Expect(rs.WriteF32(posSlot, []float64{1, 2})).To(Succeed())
		Expect(rs.WriteF32(colorSlot, []float64{1, 0, 0, 1})).To(Succeed())
		Expect(rs.WriteF32(sizeSlot, []float64{3})).To(Succeed())
		Expect(rs.WriteF32(rotSlot, []float64{0})).To(Succeed())

		exec := runtime.NewExecutor(rs, nil)
		results, err := exec.Tick(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].InstanceCount).To(Equal(1))
		Expect(results[0].Position).To(Equal([]float64{1, 2}))
		Expect(results[0].Color).To(Equal([]float64{1, 0, 0, 1}))
	})
})
