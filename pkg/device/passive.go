package device

import (
	"github.com/circuitsim/mnaspice/pkg/matrix"
	"github.com/circuitsim/mnaspice/pkg/util"
)

// stampResistor contributes 1/R to the diagonal and -1/R off-diagonal of
// both endpoints, in real (OP/transient/DC sweep) or complex (AC) form.
func (e *Element) stampResistor(m matrix.DeviceMatrix, status *Status) error {
	n1, n2 := e.N1, e.N2
	g := 1.0 / e.Value

	if status.Mode == ACAnalysis {
		stampConductanceComplex(m, n1, n2, g, 0)
		return nil
	}
	stampConductance(m, n1, n2, g)
	return nil
}

// stampCapacitor uses jωC in AC, a gmin regularizer at the operating
// point (a capacitor is an open circuit at DC and would otherwise leave
// a floating node), and the backward-Euler companion model Geq=C/h,
// Ieq=Geq*v_prev in transient.
func (e *Element) stampCapacitor(m matrix.DeviceMatrix, status *Status) error {
	n1, n2 := e.N1, e.N2

	switch status.Mode {
	case ACAnalysis:
		stampConductanceComplex(m, n1, n2, 0, status.Omega*e.Value)

	case OperatingPointAnalysis, DCSweepAnalysis:
		gmin := status.Gmin
		if gmin < 1e-12 {
			gmin = 1e-12
		}
		stampConductance(m, n1, n2, gmin)

	case TransientAnalysis:
		geq := e.Value * util.GetIntegratorCoeffs(util.BackwardEulerMethod, status.TimeStep)
		ieq := geq * e.prevVoltage
		stampConductance(m, n1, n2, geq)
		if n1 != 0 {
			m.AddRHS(n1, ieq)
		}
		if n2 != 0 {
			m.AddRHS(n2, -ieq)
		}
	}
	return nil
}

// stampInductor introduces its own branch-current row: KCL rows get ±1
// in the branch column, and the branch row enforces v1-v2 = L*di/dt via
// the backward-Euler companion Geq=L/h (AC uses jωL directly, no extra
// row needed there since the branch equation is linear in frequency too,
// but we reuse the same MNA formulation for consistency across modes).
func (e *Element) stampInductor(m matrix.DeviceMatrix, status *Status) error {
	n1, n2 := e.N1, e.N2
	b := e.extraRow

	if status.Mode == ACAnalysis {
		if n1 != 0 {
			m.AddComplexElement(n1, b, 1, 0)
			m.AddComplexElement(b, n1, 1, 0)
		}
		if n2 != 0 {
			m.AddComplexElement(n2, b, -1, 0)
			m.AddComplexElement(b, n2, -1, 0)
		}
		m.AddComplexElement(b, b, 0, -status.Omega*e.Value)
		return nil
	}

	if n1 != 0 {
		m.AddElement(n1, b, 1)
		m.AddElement(b, n1, 1)
	}
	if n2 != 0 {
		m.AddElement(n2, b, -1)
		m.AddElement(b, n2, -1)
	}

	switch status.Mode {
	case OperatingPointAnalysis, DCSweepAnalysis:
		// At DC an inductor is a short: v1-v2=0, enforced by the ±1
		// stamps above with no resistive term on the branch row.
	case TransientAnalysis:
		req := e.Value * util.GetIntegratorCoeffs(util.BackwardEulerMethod, status.TimeStep)
		m.AddElement(b, b, -req)
		m.AddRHS(b, -req*e.prevCurrent)
	}
	return nil
}

// stampConductance adds the standard ±g four-stamp pattern for a
// two-terminal linear element between n1 and n2, skipping ground rows.
func stampConductance(m matrix.DeviceMatrix, n1, n2 int, g float64) {
	if n1 != 0 {
		m.AddElement(n1, n1, g)
		if n2 != 0 {
			m.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		m.AddElement(n2, n2, g)
		if n1 != 0 {
			m.AddElement(n2, n1, -g)
		}
	}
}

func stampConductanceComplex(m matrix.DeviceMatrix, n1, n2 int, real, imag float64) {
	if n1 != 0 {
		m.AddComplexElement(n1, n1, real, imag)
		if n2 != 0 {
			m.AddComplexElement(n1, n2, -real, -imag)
		}
	}
	if n2 != 0 {
		m.AddComplexElement(n2, n2, real, imag)
		if n1 != 0 {
			m.AddComplexElement(n2, n1, -real, -imag)
		}
	}
}

// commitInductorCurrent records the branch current solved this timestep
// as the previous current for the next backward-Euler step. Called by
// Element.CommitTimestep after a transient point converges.
func (e *Element) commitInductorCurrent(branchCurrent float64) {
	e.prevCurrent = branchCurrent
}

// commitCapacitorVoltage records the terminal voltage solved this
// timestep as the previous voltage for the next backward-Euler step.
func (e *Element) commitCapacitorVoltage(v1, v2 float64) {
	e.prevVoltage = v1 - v2
}
