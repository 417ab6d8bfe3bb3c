package device

import (
	"fmt"

	"github.com/circuitsim/mnaspice/pkg/matrix"
)

// Stamp dispatches to the per-Kind algebra in passive.go, source.go,
// diode.go, and controlled.go. One switch here replaces the dozen
// concrete Stamp methods a polymorphic Device interface would need.
func (e *Element) Stamp(m matrix.DeviceMatrix, status *Status) error {
	switch e.Kind {
	case Resistor:
		return e.stampResistor(m, status)
	case Capacitor:
		return e.stampCapacitor(m, status)
	case Inductor:
		return e.stampInductor(m, status)
	case VoltageSource:
		return e.stampVoltageSource(m, status)
	case CurrentSource:
		return e.stampCurrentSource(m, status)
	case SinusoidalSource:
		return e.stampSinusoidalSource(m, status)
	case PulseSource:
		return e.stampPulseSource(m, status)
	case Diode:
		return e.stampDiode(m, status)
	case VCCS:
		return e.stampVCCS(m, status)
	case VCVS:
		return e.stampVCVS(m, status)
	case CCCS:
		return e.stampCCCS(m, status)
	case CCVS:
		return e.stampCCVS(m, status)
	default:
		return fmt.Errorf("device: element %s has unknown kind %v", e.Name, e.Kind)
	}
}

// CommitTimestep records the solved state each time-dependent element
// needs for the next backward-Euler step. Called once per accepted
// transient point; a no-op for every kind but C and L.
func (e *Element) CommitTimestep(solution []float64) {
	switch e.Kind {
	case Capacitor:
		var v1, v2 float64
		if e.N1 != 0 {
			v1 = solution[e.N1]
		}
		if e.N2 != 0 {
			v2 = solution[e.N2]
		}
		e.commitCapacitorVoltage(v1, v2)
	case Inductor:
		e.commitInductorCurrent(solution[e.extraRow])
	}
}
