package analysis

import (
	"fmt"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// Transient steps backward-Euler in time from an operating-point start
// (unless UseIC skips it). The step grows by 10% after every accepted
// point, up to maxStep, and is halved when no gmin rung converges; no
// truncation-error estimate is made, so the step size does not follow
// how fast the capacitor/inductor states change.
type Transient struct {
	*BaseAnalysis
	Circuit *circuit.Circuit
	op      *OperatingPoint

	time                         float64
	startTime, stopTime          float64
	timeStep, maxStep, minStep   float64
	useIC                        bool
}

func NewTransient(tStart, tStop, tStep, tMax float64, useIC bool) *Transient {
	if tMax == 0 {
		tMax = tStep
	}
	return &Transient{
		BaseAnalysis: NewBaseAnalysis(),
		op:           NewOP(),
		startTime:    tStart,
		stopTime:     tStop,
		timeStep:     tStep,
		maxStep:      tMax,
		minStep:      tStep / 50.0,
		useIC:        useIC,
	}
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	tr.Circuit = ckt
	if err := ckt.Finalize(); err != nil {
		return err
	}
	if !tr.useIC {
		if err := tr.op.Setup(ckt); err != nil {
			return fmt.Errorf("operating point setup error: %w", err)
		}
		if err := tr.op.Execute(); err != nil {
			return fmt.Errorf("operating point analysis error: %w", err)
		}
		ckt.CommitTimestep(ckt.Matrix.Solution())
	}
	return nil
}

// gminLadder is tried in order at every timestep before the step is
// halved and retried.
var gminLadder = []float64{1e-12, 1e-11, 1e-10, 1e-9, 1e-8, 1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2}

func (tr *Transient) Execute() error {
	if tr.Circuit == nil {
		return fmt.Errorf("transient: circuit not set")
	}

	for tr.time < tr.stopTime {
		nextTime := tr.time + tr.timeStep
		if nextTime > tr.stopTime {
			nextTime = tr.stopTime
			tr.timeStep = nextTime - tr.time
		}

		solved := false
		for _, gmin := range gminLadder {
			if err := tr.doNRiter(nextTime, gmin, tr.convergence.maxIter); err == nil {
				solved = true
				break
			}
		}

		if !solved {
			if tr.timeStep > tr.minStep {
				tr.timeStep /= 2
				continue
			}
			return fmt.Errorf("transient: failed to converge at t=%g", tr.time)
		}

		tr.Circuit.CommitTimestep(tr.Circuit.Matrix.Solution())
		tr.time = nextTime
		if tr.time >= tr.startTime {
			tr.storeTimeResult(tr.time, tr.Circuit.Solution())
		}

		if tr.time < tr.stopTime && tr.timeStep < tr.maxStep {
			tr.timeStep *= 1.1
			if tr.timeStep > tr.maxStep {
				tr.timeStep = tr.maxStep
			}
		}
	}
	return nil
}

// doNRiter runs one Newton-Raphson solve at t=stepTime, the *new* time
// this step advances to: every time-dependent source stamp (sinusoidal,
// pulse) must see t+h before the solve, not the step's starting time.
func (tr *Transient) doNRiter(stepTime, gmin float64, maxIter int) error {
	ckt := tr.Circuit
	mat := ckt.Matrix
	status := &device.Status{Time: stepTime, TimeStep: tr.timeStep, Mode: device.TransientAnalysis, Temp: 300.15, Gmin: gmin}

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
		if iter > 0 && tr.CheckConvergence(oldSolution, solution) {
			return nil
		}
		if oldSolution == nil {
			oldSolution = make([]float64, len(solution))
		}
		copy(oldSolution, solution)
	}
	return fmt.Errorf("failed to converge in %d iterations", maxIter)
}
