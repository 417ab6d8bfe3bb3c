package analysis

import (
	"math"
	"testing"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// RC low-pass corner: with R=1k and C=1uF, omega_c=1/RC=1000 rad/s. At
// that frequency the magnitude response is -3dB (1/sqrt(2) of the
// input) and the phase lags by 45 degrees. The ac sweep and its stored
// abscissa are both omega, so the corner sits at exactly 1000 on axis.
func TestACRCLowPassAtCorner(t *testing.T) {
	c := circuit.New("rc-ac")
	v1 := device.NewVoltageSourceDC("V1", 0)
	mustAdd(t, c, v1, "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "in", "n2")
	mustAdd(t, c, device.NewCapacitor("C1", 1e-6), "n2", "0")

	const omegaCorner = 1000.0
	ac := NewAC(omegaCorner, omegaCorner, 1, "LIN")
	if err := ac.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := ac.Execute(); err != nil {
		t.Fatal(err)
	}

	results := ac.GetResults()
	if w := results["OMEGA"][0]; w != omegaCorner {
		t.Fatalf("OMEGA[0] = %g, want %g", w, omegaCorner)
	}
	mag := results["V(n2)_MAG"][0]
	phase := results["V(n2)_PHASE"][0]

	if want := 1 / math.Sqrt2; math.Abs(mag-want) > 0.01*want {
		t.Errorf("|V(n2)| at corner = %g, want ~%g", mag, want)
	}
	if math.Abs(phase-(-45)) > 1.0 {
		t.Errorf("phase(V(n2)) at corner = %g, want ~-45", phase)
	}
}

func TestACRCLowPassDecSweepSpansCorner(t *testing.T) {
	c := circuit.New("rc-ac-sweep")
	mustAdd(t, c, device.NewVoltageSourceDC("V1", 0), "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "in", "n2")
	mustAdd(t, c, device.NewCapacitor("C1", 1e-6), "n2", "0")

	ac := NewAC(10, 100e3, 61, "DEC")
	if err := ac.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := ac.Execute(); err != nil {
		t.Fatal(err)
	}

	results := ac.GetResults()
	omegas := results["OMEGA"]
	mag := results["V(n2)_MAG"]
	if len(omegas) != 61 {
		t.Fatalf("expected 61 points, got %d", len(omegas))
	}
	if mag[0] <= mag[len(mag)-1] {
		t.Errorf("expected magnitude to roll off from low to high omega: mag[0]=%g mag[last]=%g", mag[0], mag[len(mag)-1])
	}
}
