// Package device implements the MNA stamping algebra for every element
// kind the simulator understands. Rather than one Go type per kind behind
// a polymorphic interface, every element is a single Element value tagged
// by Kind; Stamp switches on the tag. This keeps the whole per-element
// algebra table reviewable (one file per family) and avoids virtual
// dispatch in the hot assemble loop.
package device

import "github.com/circuitsim/mnaspice/pkg/registry"

// Kind tags the twelve element families the engine understands.
type Kind int

const (
	Resistor Kind = iota
	Capacitor
	Inductor
	VoltageSource
	CurrentSource
	Diode
	VCCS
	VCVS
	CCCS
	CCVS
	SinusoidalSource
	PulseSource
)

func (k Kind) String() string {
	switch k {
	case Resistor:
		return "R"
	case Capacitor:
		return "C"
	case Inductor:
		return "L"
	case VoltageSource:
		return "V"
	case CurrentSource:
		return "I"
	case Diode:
		return "D"
	case VCCS:
		return "G"
	case VCVS:
		return "E"
	case CCCS:
		return "F"
	case CCVS:
		return "H"
	case SinusoidalSource:
		return "SIN"
	case PulseSource:
		return "PULSE"
	default:
		return "?"
	}
}

// AnalysisMode selects which arm of Stamp runs and which companion model
// (if any) an element uses.
type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	TransientAnalysis
	ACAnalysis
	DCSweepAnalysis
)

// Status carries the per-assemble context every stamp needs: the present
// time, the step used by companion models, Newton-Raphson's gmin
// regularizer, and ambient temperature.
type Status struct {
	Time     float64
	TimeStep float64
	Gmin     float64
	Mode     AnalysisMode
	Temp     float64
	Omega    float64 // rad/s; reactive stamps use this directly
}

// Element is a single circuit element: one of the twelve Kind tags, with
// all kind-specific parameters as plain fields (unused ones are zero for
// kinds that don't need them).
type Element struct {
	Name string
	Kind Kind

	// Endpoint / controlling node ids, rewritten to union-find
	// representatives by CanonicalizeEndpoints, then to absolute matrix
	// rows by the assembler's layout pass (0 always means ground and is
	// skipped by every stamp).
	N1, N2   int
	Ctrl1    int    // VCCS/VCVS controlling node +
	Ctrl2    int    // VCCS/VCVS controlling node -
	CtrlName string // CCCS/CCVS: name of the controlling element, as written
	ctrlRow  int    // resolved absolute row of the controller's own extra variable

	// Primary numeric parameter: resistance, capacitance, inductance, DC
	// source value, or controlled-source gain (g, mu, f, r as appropriate).
	Value float64

	// Diode model selection and parameters.
	DiodeModel string // "D" (normal) or "Z" (zener)
	Is         float64
	N          float64 // emission coefficient
	Vz         float64 // zener voltage, model "Z" only

	// Sinusoidal source parameters: Value is Voff, Amp is the amplitude.
	Amp   float64
	Freq  float64
	Phase float64 // degrees

	// Pulse source parameters.
	V1, V2, Td, Tr, Tf, Pw, Per float64

	// AC small-signal excitation (independent sources only). Defaults to a
	// unit phasor for DC and sinusoidal voltage sources and zero for pulse
	// and current sources; either can be overridden from the netlist.
	ACMag   float64
	ACPhase float64 // degrees

	// Extra-variable bookkeeping, assigned by the assembler's layout pass.
	hasExtraVar bool
	extraIndex  int // -1 until laid out
	extraRow    int // absolute row: numNodes + extraIndex + 1

	// Companion-model / Newton state threaded across timesteps and NR
	// iterations. This is the only state an Element carries between calls.
	prevVoltage float64 // capacitor previous terminal voltage
	prevCurrent float64 // inductor previous branch current
	vd          float64 // diode present Newton estimate of terminal voltage
}

// IntroducesExtraVariable reports whether this element owns a row/column
// in the extra-variable block (V, L, VCVS, CCVS, Sinusoidal, Pulse).
func (e *Element) IntroducesExtraVariable() bool { return e.hasExtraVar }

// IsNonlinear reports whether Stamp needs the previous Newton iterate
// (only the diode, in this element set).
func (e *Element) IsNonlinear() bool { return e.Kind == Diode }

// RequiresControllerResolution reports whether this element names another
// element by string that the assembler must resolve to a row at layout
// time (CCCS, CCVS).
func (e *Element) RequiresControllerResolution() bool {
	return e.Kind == CCCS || e.Kind == CCVS
}

// ExtraVariableIndex returns the 0-based index within the extra-variable
// block, or -1 if this element introduces none or hasn't been laid out.
func (e *Element) ExtraVariableIndex() int {
	if !e.hasExtraVar {
		return -1
	}
	return e.extraIndex
}

// ExtraRow returns the absolute matrix row of this element's extra
// variable, or 0 if it has none.
func (e *Element) ExtraRow() int {
	if !e.hasExtraVar {
		return 0
	}
	return e.extraRow
}

// SetExtraVariableIndex is called by the assembler's layout pass.
func (e *Element) SetExtraVariableIndex(idx, numNodes int) {
	e.extraIndex = idx
	e.extraRow = numNodes + idx + 1 // 1-based matrix rows
}

// SetControllerRow records the absolute row of a CCCS/CCVS controller's
// own extra variable, resolved by name during layout.
func (e *Element) SetControllerRow(row int) { e.ctrlRow = row }

// NewResistor builds a resistor; the caller validates value > 0.
func NewResistor(name string, value float64) *Element {
	return &Element{Name: name, Kind: Resistor, Value: value, extraIndex: -1}
}

func NewCapacitor(name string, value float64) *Element {
	return &Element{Name: name, Kind: Capacitor, Value: value, extraIndex: -1}
}

func NewInductor(name string, value float64) *Element {
	return &Element{Name: name, Kind: Inductor, Value: value, hasExtraVar: true, extraIndex: -1}
}

func NewVoltageSourceDC(name string, value float64) *Element {
	return &Element{Name: name, Kind: VoltageSource, Value: value, hasExtraVar: true, extraIndex: -1, ACMag: 1}
}

func NewCurrentSourceDC(name string, value float64) *Element {
	return &Element{Name: name, Kind: CurrentSource, Value: value, extraIndex: -1}
}

func NewSinusoidalSource(name string, voff, vamp, freq, phase float64) *Element {
	return &Element{
		Name: name, Kind: SinusoidalSource, Value: voff, Amp: vamp, Freq: freq, Phase: phase,
		hasExtraVar: true, extraIndex: -1, ACMag: 1,
	}
}

func NewPulseSource(name string, v1, v2, td, tr, tf, pw, per float64) *Element {
	return &Element{
		Name: name, Kind: PulseSource, V1: v1, V2: v2, Td: td, Tr: tr, Tf: tf, Pw: pw, Per: per,
		hasExtraVar: true, extraIndex: -1,
	}
}

func NewDiode(name, model string) *Element {
	return &Element{Name: name, Kind: Diode, DiodeModel: model, Is: 1e-14, N: 1.0, Vz: 5.1, extraIndex: -1}
}

func NewVCCS(name string, gain float64) *Element {
	return &Element{Name: name, Kind: VCCS, Value: gain, extraIndex: -1}
}

func NewVCVS(name string, gain float64) *Element {
	return &Element{Name: name, Kind: VCVS, Value: gain, hasExtraVar: true, extraIndex: -1}
}

func NewCCCS(name, ctrlName string, gain float64) *Element {
	return &Element{Name: name, Kind: CCCS, Value: gain, CtrlName: ctrlName, extraIndex: -1}
}

func NewCCVS(name, ctrlName string, gain float64) *Element {
	return &Element{Name: name, Kind: CCVS, Value: gain, CtrlName: ctrlName, hasExtraVar: true, extraIndex: -1}
}

// CanonicalizeEndpoints rewrites node ids to their union-find
// representatives. Called once per element by Circuit.Finalize,
// before layout assigns absolute rows.
func (e *Element) CanonicalizeEndpoints(reg *registry.NodeRegistry) {
	e.N1 = reg.Canonical(e.N1)
	e.N2 = reg.Canonical(e.N2)
	if e.Kind == VCCS || e.Kind == VCVS {
		e.Ctrl1 = reg.Canonical(e.Ctrl1)
		e.Ctrl2 = reg.Canonical(e.Ctrl2)
	}
}
