package device

import (
	"math"

	"github.com/circuitsim/mnaspice/pkg/matrix"
)

// stampVoltageSource enforces v(n1)-v(n2)=Value through the element's own
// extra-variable row, the classic MNA branch-current formulation.
func (e *Element) stampVoltageSource(m matrix.DeviceMatrix, status *Status) error {
	if status.Mode == ACAnalysis {
		return e.stampSourceAC(m, e.N1, e.N2)
	}
	stampBranchRow(m, e.N1, e.N2, e.extraRow)
	m.AddRHS(e.extraRow, e.Value)
	return nil
}

// stampSinusoidalSource behaves like a DC voltage source for layout
// purposes but drives its branch row with Voff+Vamp*sin(2*pi*f*t+phase).
func (e *Element) stampSinusoidalSource(m matrix.DeviceMatrix, status *Status) error {
	if status.Mode == ACAnalysis {
		return e.stampSourceAC(m, e.N1, e.N2)
	}
	stampBranchRow(m, e.N1, e.N2, e.extraRow)
	m.AddRHS(e.extraRow, e.sinusoidValue(status.Time))
	return nil
}

func (e *Element) sinusoidValue(t float64) float64 {
	phaseRad := e.Phase * math.Pi / 180.0
	return e.Value + e.Amp*math.Sin(2*math.Pi*e.Freq*t+phaseRad)
}

// stampPulseSource drives its branch row with the piecewise delay/rise
// /width/fall/period waveform. In AC it stamps its branch row with its
// ACMag phasor, which is zero unless the netlist sets one, so by default
// it acts as a 0 V source (a short) with no excitation.
func (e *Element) stampPulseSource(m matrix.DeviceMatrix, status *Status) error {
	if status.Mode == ACAnalysis {
		return e.stampSourceAC(m, e.N1, e.N2)
	}
	stampBranchRow(m, e.N1, e.N2, e.extraRow)
	m.AddRHS(e.extraRow, e.pulseValue(status.Time))
	return nil
}

func (e *Element) pulseValue(t float64) float64 {
	if t < e.Td {
		return e.V1
	}
	t -= e.Td
	if e.Per > 0 {
		t = math.Mod(t, e.Per)
	}
	if t < e.Tr {
		if e.Tr == 0 {
			return e.V2
		}
		return e.V1 + (e.V2-e.V1)*t/e.Tr
	}
	if t < e.Tr+e.Pw {
		return e.V2
	}
	fallStart := e.Tr + e.Pw
	if t < fallStart+e.Tf {
		if e.Tf == 0 {
			return e.V1
		}
		return e.V2 - (e.V2-e.V1)*(t-fallStart)/e.Tf
	}
	return e.V1
}

// stampBranchRow is the shared ±1 KCL/branch stamp every V-type source
// (V, sinusoidal, pulse, VCVS, CCVS) contributes for its extra variable.
func stampBranchRow(m matrix.DeviceMatrix, n1, n2, branchRow int) {
	if n1 != 0 {
		m.AddElement(n1, branchRow, 1)
		m.AddElement(branchRow, n1, 1)
	}
	if n2 != 0 {
		m.AddElement(n2, branchRow, -1)
		m.AddElement(branchRow, n2, -1)
	}
}

// stampSourceAC drives the branch row with a unit (or netlist-specified)
// phasor for the AC sweep, independent of the time-domain waveform.
func (e *Element) stampSourceAC(m matrix.DeviceMatrix, n1, n2 int) error {
	branchRow := e.extraRow
	stampBranchRowComplex(m, n1, n2, branchRow)

	phaseRad := e.ACPhase * math.Pi / 180.0
	real := e.ACMag * math.Cos(phaseRad)
	imag := e.ACMag * math.Sin(phaseRad)
	m.AddComplexRHS(branchRow, real, imag)
	return nil
}

func stampBranchRowComplex(m matrix.DeviceMatrix, n1, n2, branchRow int) {
	if n1 != 0 {
		m.AddComplexElement(n1, branchRow, 1, 0)
		m.AddComplexElement(branchRow, n1, 1, 0)
	}
	if n2 != 0 {
		m.AddComplexElement(n2, branchRow, -1, 0)
		m.AddComplexElement(branchRow, n2, -1, 0)
	}
}

// stampCurrentSource injects Value amps from n2 to n1 (KCL: current flows
// into n1, out of n2); AC uses the ACMag/ACPhase phasor, which defaults
// to zero for a plain current source unless the netlist overrides it.
func (e *Element) stampCurrentSource(m matrix.DeviceMatrix, status *Status) error {
	n1, n2 := e.N1, e.N2

	if status.Mode == ACAnalysis {
		phaseRad := e.ACPhase * math.Pi / 180.0
		real := e.ACMag * math.Cos(phaseRad)
		imag := e.ACMag * math.Sin(phaseRad)
		if n1 != 0 {
			m.AddComplexRHS(n1, real, imag)
		}
		if n2 != 0 {
			m.AddComplexRHS(n2, -real, -imag)
		}
		return nil
	}

	if n1 != 0 {
		m.AddRHS(n1, e.Value)
	}
	if n2 != 0 {
		m.AddRHS(n2, -e.Value)
	}
	return nil
}
