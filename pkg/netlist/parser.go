// Package netlist turns the simulator's line-oriented command language
// into circuit.Circuit mutations and analysis directives. Each line is
// one command: add/delete/connect/label (and "add gnd") build the topology, op/
// print/ac/phase request an analysis run. Numeric fields accept the
// usual engineering suffixes (k, meg, m, u, n, p, f, g, h, t), case-insensitively.
package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

var unitMap = map[string]float64{
	"t":   1e12,
	"g":   1e9,
	"meg": 1e6,
	"k":   1e3,
	"h":   1e2,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

var valuePattern = regexp.MustCompile(`(?i)^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[tgkmunpfh])?$`)

// ParseValue converts a netlist numeric token ("4.7k", "100n", "1e-9")
// to its float64 value.
func ParseValue(tok string) (float64, error) {
	m := valuePattern.FindStringSubmatch(strings.TrimSpace(tok))
	if m == nil {
		return 0, fmt.Errorf("invalid value %q", tok)
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	if m[2] != "" {
		num *= unitMap[strings.ToLower(m[2])]
	}
	return num, nil
}

// TranSpec requests a transient run: print TRAN tstep tstop tmax.
type TranSpec struct {
	TStep, TStop, TMax float64
}

// DCSpec requests a DC sweep: print DC source start stop increment.
type DCSpec struct {
	Source                 string
	Start, Stop, Increment float64
}

// ACSpec requests an AC sweep: ac lin|dec|oct omega_start omega_stop N.
// The sweep and its abscissa are angular frequency (rad/s), not Hz.
type ACSpec struct {
	Sweep                 string // "LIN", "DEC", "OCT"
	OmegaStart, OmegaStop float64
	Points                int
}

// PhaseSpec requests a phase sweep: phase omega0 phiStart phiStop N.
// omega0 is angular frequency (rad/s), matching ACSpec.
type PhaseSpec struct {
	Source                    string
	Omega0, PhiStart, PhiStop float64
	Points                    int
}

// Program is the result of parsing a command script: every add/delete/
// connect/label has already been applied to Circuit, and at most one
// analysis directive of each kind was requested.
type Program struct {
	Circuit *circuit.Circuit
	Title   string

	RunOP bool
	Tran  *TranSpec
	DC    *DCSpec
	AC    *ACSpec
	Phase *PhaseSpec
}

// Parse reads a command script and applies it to a fresh circuit.
func Parse(input string) (*Program, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	prog := &Program{Circuit: circuit.New("")}

	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			if strings.HasPrefix(line, "*") {
				prog.Title = strings.TrimSpace(strings.TrimPrefix(line, "*"))
				continue
			}
		}
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		cmd := strings.ToLower(fields[0])

		var err error
		switch cmd {
		case "add":
			err = applyAdd(prog.Circuit, fields[1:])
		case "delete":
			if len(fields) < 2 {
				err = fmt.Errorf("delete: missing element name")
			} else {
				err = prog.Circuit.Delete(fields[1])
			}
		case "connect":
			if len(fields) < 3 {
				err = fmt.Errorf("connect: need two node names")
			} else {
				err = prog.Circuit.Connect(fields[1], fields[2])
			}
		case "label":
			if len(fields) < 3 {
				err = fmt.Errorf("label: need a label and a node reference")
			} else {
				err = prog.Circuit.Label(fields[1], fields[2])
			}
		case "op":
			prog.RunOP = true
		case "print":
			err = applyPrint(prog, fields[1:])
		case "ac":
			prog.AC, err = parseAC(fields[1:])
		case "phase":
			prog.Phase, err = parsePhase(fields[1:])
		default:
			err = fmt.Errorf("unrecognized command %q", fields[0])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return prog, nil
}

func applyPrint(prog *Program, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("print: missing analysis kind")
	}
	switch strings.ToUpper(fields[0]) {
	case "TRAN":
		spec, err := parseTran(fields[1:])
		if err != nil {
			return err
		}
		prog.Tran = spec
	case "DC":
		spec, err := parseDC(fields[1:])
		if err != nil {
			return err
		}
		prog.DC = spec
	default:
		return fmt.Errorf("print: unsupported analysis kind %q", fields[0])
	}
	return nil
}

// parseTran reads "print TRAN <tstep> <tstop> <tmax> [V(n)|I(e) ...]".
// The trailing output-variable list is accepted but ignored: this
// driver always reports every node voltage and branch current.
func parseTran(fields []string) (*TranSpec, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("print tran: need tstep, tstop, and tmax")
	}
	tstep, err := ParseValue(fields[0])
	if err != nil {
		return nil, fmt.Errorf("print tran: tstep: %w", err)
	}
	tstop, err := ParseValue(fields[1])
	if err != nil {
		return nil, fmt.Errorf("print tran: tstop: %w", err)
	}
	tmax, err := ParseValue(fields[2])
	if err != nil {
		return nil, fmt.Errorf("print tran: tmax: %w", err)
	}
	return &TranSpec{TStep: tstep, TStop: tstop, TMax: tmax}, nil
}

func parseDC(fields []string) (*DCSpec, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("print dc: need source, start, stop, increment")
	}
	spec := &DCSpec{Source: fields[0]}
	var err error
	if spec.Start, err = ParseValue(fields[1]); err != nil {
		return nil, fmt.Errorf("print dc: start: %w", err)
	}
	if spec.Stop, err = ParseValue(fields[2]); err != nil {
		return nil, fmt.Errorf("print dc: stop: %w", err)
	}
	if spec.Increment, err = ParseValue(fields[3]); err != nil {
		return nil, fmt.Errorf("print dc: increment: %w", err)
	}
	return spec, nil
}

// parseAC reads "ac {lin|dec|oct} <omega_start> <omega_stop> <N>".
func parseAC(fields []string) (*ACSpec, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("ac: need sweep type, omega_start, omega_stop, N")
	}
	sweep := strings.ToUpper(fields[0])
	if sweep != "LIN" && sweep != "DEC" && sweep != "OCT" {
		return nil, fmt.Errorf("ac: unknown sweep type %q", fields[0])
	}
	omegaStart, err := ParseValue(fields[1])
	if err != nil {
		return nil, fmt.Errorf("ac: omega_start: %w", err)
	}
	omegaStop, err := ParseValue(fields[2])
	if err != nil {
		return nil, fmt.Errorf("ac: omega_stop: %w", err)
	}
	points, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("ac: N: %w", err)
	}
	return &ACSpec{Sweep: sweep, OmegaStart: omegaStart, OmegaStop: omegaStop, Points: points}, nil
}

// parsePhase reads "phase [source] <omega0> <phiStart> <phiStop> <N>".
// The source name is optional; when omitted the engine uses the
// circuit's sole independent voltage source.
func parsePhase(fields []string) (*PhaseSpec, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("phase: need omega0, phiStart, phiStop, N")
	}
	spec := &PhaseSpec{}
	rest := fields
	if _, err := ParseValue(fields[0]); err != nil {
		spec.Source = fields[0]
		rest = fields[1:]
	}
	if len(rest) < 4 {
		return nil, fmt.Errorf("phase: need omega0, phiStart, phiStop, N")
	}
	var err error
	if spec.Omega0, err = ParseValue(rest[0]); err != nil {
		return nil, fmt.Errorf("phase: omega0: %w", err)
	}
	if spec.PhiStart, err = ParseValue(rest[1]); err != nil {
		return nil, fmt.Errorf("phase: phiStart: %w", err)
	}
	if spec.PhiStop, err = ParseValue(rest[2]); err != nil {
		return nil, fmt.Errorf("phase: phiStop: %w", err)
	}
	if spec.Points, err = strconv.Atoi(rest[3]); err != nil {
		return nil, fmt.Errorf("phase: N: %w", err)
	}
	return spec, nil
}

// applyAdd dispatches "add <type> ..." to the element-specific builder
// and inserts the result into the circuit.
func applyAdd(c *circuit.Circuit, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("add: missing element type")
	}
	if strings.ToLower(fields[0]) == "gnd" {
		if len(fields) < 2 {
			return fmt.Errorf("add gnd: need a node")
		}
		return c.Connect("0", fields[1])
	}

	if len(fields) < 4 {
		return fmt.Errorf("add: need at least type, name, and two nodes")
	}
	kind := strings.ToLower(fields[0])
	name := fields[1]
	n1, n2 := fields[2], fields[3]
	rest := fields[4:]

	switch kind {
	case "s":
		vals, _, err := parseFloatList(rest, 3)
		if err != nil {
			return fmt.Errorf("add %s: sinusoid: %w", name, err)
		}
		phase := 0.0
		if len(rest) > 3 {
			if phase, err = ParseValue(rest[3]); err != nil {
				return fmt.Errorf("add %s: phase: %w", name, err)
			}
		}
		return c.Add(device.NewSinusoidalSource(name, vals[0], vals[1], vals[2], phase), n1, n2)

	case "r":
		v, err := requireValue(rest, "resistor value")
		if err != nil {
			return err
		}
		return c.Add(device.NewResistor(name, v), n1, n2)

	case "c":
		v, err := requireValue(rest, "capacitor value")
		if err != nil {
			return err
		}
		return c.Add(device.NewCapacitor(name, v), n1, n2)

	case "l":
		v, err := requireValue(rest, "inductor value")
		if err != nil {
			return err
		}
		return c.Add(device.NewInductor(name, v), n1, n2)

	case "d":
		model := "D"
		if len(rest) > 0 {
			model = strings.ToUpper(rest[0])
		}
		return c.Add(device.NewDiode(name, model), n1, n2)

	case "v":
		return addSource(c, name, n1, n2, rest, true)

	case "i":
		return addSource(c, name, n1, n2, rest, false)

	case "vccs", "g":
		if len(rest) < 3 {
			return fmt.Errorf("add vccs: need ctrl1, ctrl2, gain")
		}
		gain, err := ParseValue(rest[2])
		if err != nil {
			return fmt.Errorf("add vccs: gain: %w", err)
		}
		return c.AddControlled(device.NewVCCS(name, gain), n1, n2, rest[0], rest[1])

	case "vcvs", "e":
		if len(rest) < 3 {
			return fmt.Errorf("add vcvs: need ctrl1, ctrl2, gain")
		}
		gain, err := ParseValue(rest[2])
		if err != nil {
			return fmt.Errorf("add vcvs: gain: %w", err)
		}
		return c.AddControlled(device.NewVCVS(name, gain), n1, n2, rest[0], rest[1])

	case "cccs", "f":
		if len(rest) < 2 {
			return fmt.Errorf("add cccs: need controller name and gain")
		}
		gain, err := ParseValue(rest[1])
		if err != nil {
			return fmt.Errorf("add cccs: gain: %w", err)
		}
		return c.Add(device.NewCCCS(name, rest[0], gain), n1, n2)

	case "ccvs", "h":
		if len(rest) < 2 {
			return fmt.Errorf("add ccvs: need controller name and gain")
		}
		gain, err := ParseValue(rest[1])
		if err != nil {
			return fmt.Errorf("add ccvs: gain: %w", err)
		}
		return c.Add(device.NewCCVS(name, rest[0], gain), n1, n2)

	default:
		return fmt.Errorf("add: unknown element type %q", fields[0])
	}
}

func requireValue(rest []string, what string) (float64, error) {
	if len(rest) < 1 {
		return 0, fmt.Errorf("add: missing %s", what)
	}
	return ParseValue(rest[0])
}

// addSource handles both "add v"/"add i" with DC, SIN, or PULSE payloads
// and an optional trailing "ac <mag> [phase]" clause.
func addSource(c *circuit.Circuit, name, n1, n2 string, rest []string, isVoltage bool) error {
	if len(rest) == 0 {
		return fmt.Errorf("add %s: missing source spec", name)
	}

	var elem *device.Element
	consumed := 0

	switch strings.ToLower(rest[0]) {
	case "dc", "":
		v, err := requireValue(rest[1:], "DC value")
		if err != nil {
			return err
		}
		consumed = 2
		if isVoltage {
			elem = device.NewVoltageSourceDC(name, v)
		} else {
			elem = device.NewCurrentSourceDC(name, v)
		}

	case "sin":
		vals, n, err := parseFloatList(rest[1:], 4)
		if err != nil {
			return fmt.Errorf("add %s sin: %w", name, err)
		}
		consumed = 1 + n
		if !isVoltage {
			return fmt.Errorf("add %s: sinusoidal current sources are not supported", name)
		}
		elem = device.NewSinusoidalSource(name, vals[0], vals[1], vals[2], vals[3])

	case "pulse":
		vals, n, err := parseFloatList(rest[1:], 7)
		if err != nil {
			return fmt.Errorf("add %s pulse: %w", name, err)
		}
		consumed = 1 + n
		if !isVoltage {
			return fmt.Errorf("add %s: pulse current sources are not supported", name)
		}
		elem = device.NewPulseSource(name, vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6])

	default:
		v, err := ParseValue(rest[0])
		if err != nil {
			return fmt.Errorf("add %s: unsupported source spec %q", name, rest[0])
		}
		consumed = 1
		if isVoltage {
			elem = device.NewVoltageSourceDC(name, v)
		} else {
			elem = device.NewCurrentSourceDC(name, v)
		}
	}

	if consumed < len(rest) && strings.ToLower(rest[consumed]) == "ac" {
		acFields := rest[consumed+1:]
		if len(acFields) == 0 {
			return fmt.Errorf("add %s: ac clause needs a magnitude", name)
		}
		mag, err := ParseValue(acFields[0])
		if err != nil {
			return fmt.Errorf("add %s: ac magnitude: %w", name, err)
		}
		elem.ACMag = mag
		if len(acFields) > 1 {
			phase, err := ParseValue(acFields[1])
			if err != nil {
				return fmt.Errorf("add %s: ac phase: %w", name, err)
			}
			elem.ACPhase = phase
		}
	}

	return c.Add(elem, n1, n2)
}

// parseFloatList parses the first n positional float fields, returning
// how many it used (always n); fewer than n fields is an error.
func parseFloatList(fields []string, n int) ([]float64, int, error) {
	out := make([]float64, n)
	used := 0
	for i := 0; i < n && i < len(fields); i++ {
		v, err := ParseValue(fields[i])
		if err != nil {
			return nil, 0, fmt.Errorf("field %d: %w", i, err)
		}
		out[i] = v
		used = i + 1
	}
	if used < n {
		return nil, 0, fmt.Errorf("expected %d fields, got %d", n, used)
	}
	return out, used, nil
}
