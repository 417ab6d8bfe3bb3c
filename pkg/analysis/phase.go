package analysis

import (
	"fmt"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// PhaseSweep holds omega fixed at omega0 and sweeps one voltage source's
// phase from phiStart to phiStop (degrees) in Points steps, recording
// the magnitude response at every node/branch. The source is driven at
// unit magnitude for the duration of the sweep and restored after.
type PhaseSweep struct {
	*BaseAnalysis
	Circuit *circuit.Circuit
	op      *OperatingPoint

	sourceName                string
	omega0, phiStart, phiStop float64
	points                    int
}

// NewPhaseSweep builds a sweep over the named voltage source, held at a
// fixed angular frequency omega0 (rad/s). An empty source name defers
// to the circuit's sole VoltageSource element.
func NewPhaseSweep(source string, omega0, phiStart, phiStop float64, points int) *PhaseSweep {
	return &PhaseSweep{
		BaseAnalysis: NewBaseAnalysis(),
		op:           NewOP(),
		sourceName:   source,
		omega0:       omega0,
		phiStart:     phiStart,
		phiStop:      phiStop,
		points:       points,
	}
}

func (ps *PhaseSweep) Setup(ckt *circuit.Circuit) error {
	ps.Circuit = ckt

	if ps.sourceName == "" {
		var found string
		count := 0
		for _, e := range ckt.Elements() {
			if e.Kind == device.VoltageSource {
				found = e.Name
				count++
			}
		}
		if count != 1 {
			return fmt.Errorf("phase sweep: no source named and circuit has %d voltage sources, need exactly 1", count)
		}
		ps.sourceName = found
	}

	e, ok := ckt.Element(ps.sourceName)
	if !ok || e.Kind != device.VoltageSource {
		return fmt.Errorf("phase sweep: source %q is not a voltage source in this circuit", ps.sourceName)
	}

	if err := ps.op.Setup(ckt); err != nil {
		return fmt.Errorf("operating point setup error: %w", err)
	}
	if err := ps.op.Execute(); err != nil {
		return fmt.Errorf("operating point analysis error: %w", err)
	}
	ps.Circuit.UpdateNonlinearVoltages(ps.Circuit.Matrix.Solution())
	return nil
}

func (ps *PhaseSweep) Execute() error {
	if ps.Circuit == nil {
		return fmt.Errorf("phase sweep: circuit not set")
	}
	source, _ := ps.Circuit.Element(ps.sourceName)
	origMag, origPhase := source.ACMag, source.ACPhase
	defer func() {
		source.ACMag, source.ACPhase = origMag, origPhase
	}()
	source.ACMag = 1

	n := ps.points
	if n < 1 {
		n = 1
	}
	step := 0.0
	if n > 1 {
		step = (ps.phiStop - ps.phiStart) / float64(n-1)
	}

	status := &device.Status{Omega: ps.omega0, Mode: device.ACAnalysis, Temp: 300.15}
	mat := ps.Circuit.ACMatrix

	for i := 0; i < n; i++ {
		phi := ps.phiStart + float64(i)*step
		source.ACPhase = phi

		mat.Clear()
		if err := ps.Circuit.Stamp(status); err != nil {
			return fmt.Errorf("phase sweep: stamping error at phi=%g: %w", phi, err)
		}
		if err := mat.Solve(); err != nil {
			return fmt.Errorf("phase sweep: matrix solve error at phi=%g: %w", phi, err)
		}

		solution := make(map[string]complex128)
		for _, e := range ps.Circuit.Elements() {
			if e.IntroducesExtraVariable() {
				real, imag := mat.GetComplexSolution(e.ExtraRow())
				solution[fmt.Sprintf("I(%s)", e.Name)] = complex(-real, -imag)
			}
		}
		for row := 1; row <= ps.Circuit.NumNodes(); row++ {
			real, imag := mat.GetComplexSolution(row)
			label := ps.Circuit.NodeLabel(row)
			solution[fmt.Sprintf("V(%s)", label)] = complex(real, imag)
		}

		ps.storePhaseResult(phi, solution)
	}
	return nil
}
