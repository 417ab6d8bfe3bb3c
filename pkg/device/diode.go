package device

import (
	"math"

	"github.com/circuitsim/mnaspice/internal/consts"
	"github.com/circuitsim/mnaspice/pkg/matrix"
)

// VdMax bounds the per-Newton-iteration terminal-voltage estimate so a
// bad initial guess can't blow up exp() before the iteration converges.
const VdMax = 0.85

// thermalVoltage returns kT/q at the given temperature in Kelvin.
func thermalVoltage(temp float64) float64 {
	if temp <= 0 {
		temp = consts.KELVIN + 27.0
	}
	return consts.BOLTZMANN * temp / consts.CHARGE
}

// diodeCurrent evaluates the large-signal model: exponential forward
// conduction, reverse leakage at -Is, and for model "Z" a zener region
// that clamps reverse current to the Geq=1S / Ieq=Vz line below -Vz.
func (e *Element) diodeCurrent(vd, vt float64) float64 {
	if e.DiodeModel == "Z" && vd < -e.Vz {
		return (1.0)*(vd+e.Vz) - e.Is
	}
	if vd >= -5*vt {
		arg := vd / (e.N * vt)
		if arg > 40 {
			arg = 40
		}
		return e.Is * (math.Exp(arg) - 1)
	}
	return -e.Is
}

func (e *Element) diodeConductance(vd, id, vt float64) float64 {
	if e.DiodeModel == "Z" && vd < -e.Vz {
		return 1.0
	}
	if vd >= -5*vt {
		return (id + e.Is) / (e.N * vt)
	}
	return e.Is / vt
}

// stampDiode linearizes the diode about the current Newton estimate vd
// (clamped to VdMax) and stamps the companion conductance/current source.
func (e *Element) stampDiode(m matrix.DeviceMatrix, status *Status) error {
	if status.Mode == ACAnalysis {
		return e.stampDiodeAC(m, status)
	}

	n1, n2 := e.N1, e.N2
	vt := thermalVoltage(status.Temp)

	vd := e.vd
	if vd > VdMax {
		vd = VdMax
	}
	if vd < -VdMax*20 {
		vd = -VdMax * 20
	}

	id := e.diodeCurrent(vd, vt)
	gd := e.diodeConductance(vd, id, vt)
	ieq := id - gd*vd

	if n1 != 0 {
		m.AddElement(n1, n1, gd)
		if n2 != 0 {
			m.AddElement(n1, n2, -gd)
		}
		m.AddRHS(n1, -ieq)
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -gd)
		}
		m.AddElement(n2, n2, gd)
		m.AddRHS(n2, ieq)
	}
	return nil
}

// stampDiodeAC contributes nothing: nonlinear elements are treated as
// open circuits in the small-signal AC system, rather than linearized
// around the operating point found by a prior OP solve.
func (e *Element) stampDiodeAC(m matrix.DeviceMatrix, status *Status) error {
	return nil
}

// UpdateDiodeVoltage is called after each Newton iteration's solve with
// the present solution vector, and refreshes vd for the next linearization.
func (e *Element) UpdateDiodeVoltage(solution []float64) {
	if e.Kind != Diode {
		return
	}
	var v1, v2 float64
	if e.N1 != 0 {
		v1 = solution[e.N1]
	}
	if e.N2 != 0 {
		v2 = solution[e.N2]
	}
	e.vd = v1 - v2
}
