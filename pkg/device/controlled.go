package device

import "github.com/circuitsim/mnaspice/pkg/matrix"

// stampVCCS stamps a voltage-controlled current source: current g*(v(ctrl1)
// -v(ctrl2)) flows from n1 to n2. No extra variable is introduced; the
// gain couples directly into the controlling nodes' columns.
func (e *Element) stampVCCS(m matrix.DeviceMatrix, status *Status) error {
	n1, n2, c1, c2 := e.N1, e.N2, e.Ctrl1, e.Ctrl2
	g := e.Value

	stampCoupled := func(add func(i, j int, v float64)) {
		if n1 != 0 {
			if c1 != 0 {
				add(n1, c1, g)
			}
			if c2 != 0 {
				add(n1, c2, -g)
			}
		}
		if n2 != 0 {
			if c1 != 0 {
				add(n2, c1, -g)
			}
			if c2 != 0 {
				add(n2, c2, g)
			}
		}
	}

	if status.Mode == ACAnalysis {
		stampCoupled(func(i, j int, v float64) { m.AddComplexElement(i, j, v, 0) })
		return nil
	}
	stampCoupled(m.AddElement)
	return nil
}

// stampVCVS stamps a voltage-controlled voltage source: v(n1)-v(n2) =
// gain*(v(ctrl1)-v(ctrl2)), enforced through this element's own extra
// variable row.
func (e *Element) stampVCVS(m matrix.DeviceMatrix, status *Status) error {
	n1, n2, c1, c2, b := e.N1, e.N2, e.Ctrl1, e.Ctrl2, e.extraRow
	g := e.Value

	if status.Mode == ACAnalysis {
		stampBranchRowComplex(m, n1, n2, b)
		if c1 != 0 {
			m.AddComplexElement(b, c1, -g, 0)
		}
		if c2 != 0 {
			m.AddComplexElement(b, c2, g, 0)
		}
		return nil
	}

	stampBranchRow(m, n1, n2, b)
	if c1 != 0 {
		m.AddElement(b, c1, -g)
	}
	if c2 != 0 {
		m.AddElement(b, c2, g)
	}
	return nil
}

// stampCCCS stamps a current-controlled current source: current gain*i_ctrl
// flows from n1 to n2, where i_ctrl is the controller's own extra-variable
// (branch-current) unknown, resolved to an absolute row at layout time.
func (e *Element) stampCCCS(m matrix.DeviceMatrix, status *Status) error {
	n1, n2, ctrl := e.N1, e.N2, e.ctrlRow
	g := e.Value

	if status.Mode == ACAnalysis {
		if n1 != 0 {
			m.AddComplexElement(n1, ctrl, g, 0)
		}
		if n2 != 0 {
			m.AddComplexElement(n2, ctrl, -g, 0)
		}
		return nil
	}
	if n1 != 0 {
		m.AddElement(n1, ctrl, g)
	}
	if n2 != 0 {
		m.AddElement(n2, ctrl, -g)
	}
	return nil
}

// stampCCVS stamps a current-controlled voltage source: v(n1)-v(n2) =
// gain*i_ctrl, enforced through this element's own extra variable row.
func (e *Element) stampCCVS(m matrix.DeviceMatrix, status *Status) error {
	n1, n2, ctrl, b := e.N1, e.N2, e.ctrlRow, e.extraRow
	g := e.Value

	if status.Mode == ACAnalysis {
		stampBranchRowComplex(m, n1, n2, b)
		m.AddComplexElement(b, ctrl, -g, 0)
		return nil
	}
	stampBranchRow(m, n1, n2, b)
	m.AddElement(b, ctrl, -g)
	return nil
}
