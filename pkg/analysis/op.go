package analysis

import (
	"fmt"
	"log"
	"math"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// OperatingPoint finds the DC bias point: Newton-Raphson from zero,
// falling back to a gmin-stepping ladder and finally source stepping
// when the plain iteration fails to converge.
type OperatingPoint struct {
	*BaseAnalysis
	Circuit *circuit.Circuit
}

func NewOP() *OperatingPoint {
	return &OperatingPoint{BaseAnalysis: NewBaseAnalysis()}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	op.Circuit = ckt
	return ckt.Finalize()
}

func (op *OperatingPoint) doNRiter(gmin float64, maxIter int) error {
	ckt := op.Circuit
	mat := ckt.Matrix
	status := &device.Status{Mode: device.OperatingPointAnalysis, Temp: 300.15, Gmin: gmin}

	var oldSolution []float64
	for iter := 0; iter < maxIter; iter++ {
		mat.Clear()
		if iter > 0 {
			ckt.UpdateNonlinearVoltages(oldSolution)
		}
		if err := ckt.Stamp(status); err != nil {
			return fmt.Errorf("stamping error: %w", err)
		}
		mat.LoadGmin(gmin)
		if err := mat.Solve(); err != nil {
			return fmt.Errorf("matrix solve error: %w", err)
		}

		solution := mat.Solution()
		if iter > 0 && op.CheckConvergence(oldSolution, solution) {
			return nil
		}
		if oldSolution == nil {
			oldSolution = make([]float64, len(solution))
		}
		copy(oldSolution, solution)
	}
	return fmt.Errorf("failed to converge in %d iterations", maxIter)
}

// performGminStepping ramps gmin down from a large regularizer to zero,
// reusing each converged solution as the next step's Newton seed.
func (op *OperatingPoint) performGminStepping() error {
	numSteps := 10
	startGmin := float64(op.Circuit.MatrixSize()) * 0.001
	gmin := startGmin * math.Pow(10, float64(numSteps))

	for i := 0; i <= numSteps; i++ {
		if err := op.doNRiter(gmin, op.convergence.maxIter); err != nil {
			return fmt.Errorf("gmin stepping failed at gmin=%g: %w", gmin, err)
		}
		gmin /= 10
	}
	return nil
}

// performSourceStepping ramps every independent voltage source from 10%
// to 100% of its nameplate value, a last-resort convergence aid for
// circuits gmin stepping alone can't settle.
func (op *OperatingPoint) performSourceStepping() error {
	ckt := op.Circuit

	type saved struct {
		e   *device.Element
		val float64
	}
	var sources []saved
	for _, e := range ckt.Elements() {
		if e.Kind == device.VoltageSource {
			sources = append(sources, saved{e, e.Value})
		}
	}
	defer func() {
		for _, s := range sources {
			s.e.Value = s.val
		}
	}()

	for factor := 0.1; factor <= 1.0+1e-9; factor += 0.1 {
		for _, s := range sources {
			s.e.Value = s.val * factor
		}
		if err := op.doNRiter(0, op.convergence.maxIter); err != nil {
			return fmt.Errorf("source stepping failed at %.0f%%: %w", factor*100, err)
		}
	}
	return nil
}

func (op *OperatingPoint) Execute() error {
	if err := op.doNRiter(0, op.convergence.maxIter); err == nil {
		op.storeOperatingPoint()
		return nil
	}

	log.Println("operating point: plain Newton-Raphson failed to converge, trying gmin stepping")
	if err := op.performGminStepping(); err == nil {
		if err := op.doNRiter(0, op.convergence.maxIter); err == nil {
			op.storeOperatingPoint()
			return nil
		}
	}

	log.Println("operating point: gmin stepping failed to converge, trying source stepping")
	if err := op.performSourceStepping(); err != nil {
		return fmt.Errorf("source stepping failed: %w", err)
	}
	if err := op.doNRiter(0, op.convergence.maxIter); err != nil {
		return fmt.Errorf("final solution failed after source stepping: %w", err)
	}
	op.storeOperatingPoint()
	return nil
}

func (op *OperatingPoint) storeOperatingPoint() {
	for name, value := range op.Circuit.Solution() {
		op.results[name] = []float64{value}
	}
}
