package analysis

import (
	"fmt"
	"math"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// DCSweep steps one independent voltage source from start to stop by
// increment, re-solving the operating point at each step and reusing
// the previous point's solution as the Newton seed (continuation).
type DCSweep struct {
	*BaseAnalysis
	Circuit *circuit.Circuit

	sourceName            string
	start, stop, increment float64
	origValue             float64
}

func NewDCSweep(source string, start, stop, increment float64) *DCSweep {
	return &DCSweep{
		BaseAnalysis: NewBaseAnalysis(),
		sourceName:   source,
		start:        start,
		stop:         stop,
		increment:    increment,
	}
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	dc.Circuit = ckt
	if err := ckt.Finalize(); err != nil {
		return err
	}
	e, ok := ckt.Element(dc.sourceName)
	if !ok || e.Kind != device.VoltageSource {
		return fmt.Errorf("dc sweep: source %q is not a voltage source in this circuit", dc.sourceName)
	}
	dc.origValue = e.Value
	return nil
}

// steps returns the sweep point count via round((stop-start)/increment)+1,
// matching a fencepost-inclusive SPICE .dc sweep.
func (dc *DCSweep) steps() int {
	if dc.increment == 0 {
		return 1
	}
	return int(math.Round((dc.stop-dc.start)/dc.increment)) + 1
}

func (dc *DCSweep) Execute() error {
	if dc.Circuit == nil {
		return fmt.Errorf("dc sweep: circuit not set")
	}
	source, _ := dc.Circuit.Element(dc.sourceName)
	defer func() { source.Value = dc.origValue }()

	n := dc.steps()
	var prevSolution []float64
	for i := 0; i < n; i++ {
		val := dc.start + float64(i)*dc.increment
		source.Value = val

		if err := dc.solveAt(val, prevSolution); err != nil {
			return err
		}
		prevSolution = append([]float64(nil), dc.Circuit.Matrix.Solution()...)
		dc.storeSweepResult(val, dc.Circuit.Solution())
	}
	return nil
}

// solveAt runs Newton-Raphson for one sweep point, seeding from the
// previous point's solution when available (DC continuation).
func (dc *DCSweep) solveAt(sweepVal float64, seed []float64) error {
	ckt := dc.Circuit
	mat := ckt.Matrix
	status := &device.Status{Mode: device.DCSweepAnalysis, Temp: 300.15}

	oldSolution := seed
	for iter := 0; iter < dc.convergence.maxIter; iter++ {
		mat.Clear()
		if oldSolution != nil {
			ckt.UpdateNonlinearVoltages(oldSolution)
		}
		if err := ckt.Stamp(status); err != nil {
			return fmt.Errorf("dc sweep: stamping error at %s=%g: %w", dc.sourceName, sweepVal, err)
		}
		if err := mat.Solve(); err != nil {
			return fmt.Errorf("dc sweep: matrix solve error at %s=%g: %w", dc.sourceName, sweepVal, err)
		}

		solution := mat.Solution()
		if oldSolution != nil && dc.CheckConvergence(oldSolution, solution) {
			return nil
		}
		if oldSolution == nil {
			oldSolution = make([]float64, len(solution))
		}
		copy(oldSolution, solution)
	}
	return fmt.Errorf("dc sweep: failed to converge at %s=%g", dc.sourceName, sweepVal)
}
