package analysis

import (
	"fmt"
	"math"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// ACAnalysis solves the small-signal complex MNA system at a grid of
// angular frequencies (rad/s). Setup runs a DC operating point first,
// but diodes contribute nothing to the complex system (they are treated
// as open), so the AC result does not depend on that operating point.
// The sweep and its stored abscissa are both omega, not Hz, matching
// how the netlist's "ac" command specifies its range.
type ACAnalysis struct {
	*BaseAnalysis
	Circuit *circuit.Circuit
	op      *OperatingPoint

	startOmega, stopOmega float64
	numPoints             int
	sweepType             string // "DEC", "OCT", "LIN"
	omegas                []float64
}

func NewAC(omegaStart, omegaStop float64, nPoints int, sweepType string) *ACAnalysis {
	return &ACAnalysis{
		BaseAnalysis: NewBaseAnalysis(),
		op:           NewOP(),
		startOmega:   omegaStart,
		stopOmega:    omegaStop,
		numPoints:    nPoints,
		sweepType:    sweepType,
	}
}

func (ac *ACAnalysis) Setup(ckt *circuit.Circuit) error {
	ac.Circuit = ckt
	if err := ac.op.Setup(ckt); err != nil {
		return fmt.Errorf("operating point setup error: %w", err)
	}
	if err := ac.op.Execute(); err != nil {
		return fmt.Errorf("operating point analysis error: %w", err)
	}
	ac.Circuit.UpdateNonlinearVoltages(ac.Circuit.Matrix.Solution())
	ac.generateOmegaPoints()
	return nil
}

func (ac *ACAnalysis) generateOmegaPoints() {
	ac.omegas = make([]float64, ac.numPoints)
	if ac.numPoints == 1 {
		ac.omegas[0] = ac.startOmega
		return
	}
	switch ac.sweepType {
	case "DEC":
		logStart, logStop := math.Log10(ac.startOmega), math.Log10(ac.stopOmega)
		step := (logStop - logStart) / float64(ac.numPoints-1)
		for i := 0; i < ac.numPoints; i++ {
			ac.omegas[i] = math.Pow(10, logStart+float64(i)*step)
		}
	case "OCT":
		logStart, logStop := math.Log2(ac.startOmega), math.Log2(ac.stopOmega)
		step := (logStop - logStart) / float64(ac.numPoints-1)
		for i := 0; i < ac.numPoints; i++ {
			ac.omegas[i] = math.Pow(2, logStart+float64(i)*step)
		}
	default: // LIN
		step := (ac.stopOmega - ac.startOmega) / float64(ac.numPoints-1)
		for i := 0; i < ac.numPoints; i++ {
			ac.omegas[i] = ac.startOmega + float64(i)*step
		}
	}
}

func (ac *ACAnalysis) Execute() error {
	if ac.Circuit == nil {
		return fmt.Errorf("ac analysis: circuit not set")
	}

	for _, omega := range ac.omegas {
		status := &device.Status{Omega: omega, Mode: device.ACAnalysis, Temp: 300.15}
		mat := ac.Circuit.ACMatrix
		mat.Clear()

		if err := ac.Circuit.Stamp(status); err != nil {
			return fmt.Errorf("ac analysis: stamping error at omega=%g: %w", omega, err)
		}
		if err := mat.Solve(); err != nil {
			return fmt.Errorf("ac analysis: matrix solve error at omega=%g: %w", omega, err)
		}

		solution := make(map[string]complex128)
		for _, e := range ac.Circuit.Elements() {
			if e.IntroducesExtraVariable() {
				real, imag := mat.GetComplexSolution(e.ExtraRow())
				solution[fmt.Sprintf("I(%s)", e.Name)] = complex(real, imag)
			}
		}
		for row := 1; row <= ac.Circuit.NumNodes(); row++ {
			real, imag := mat.GetComplexSolution(row)
			label := ac.Circuit.NodeLabel(row)
			solution[fmt.Sprintf("V(%s)", label)] = complex(real, imag)
		}

		ac.storeACResult(omega, solution)
	}
	return nil
}
