package analysis

import (
	"math"
	"testing"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// Diode clamp: V1 -- R1 -- n2 -->|-- 0. For V1 <= 0 the diode is reverse
// biased and draws no current, so V(n2) tracks V1 exactly. For V1 well
// above the thermal voltage the diode clamps n2 to its forward drop.
func TestDCSweepDiodeClamp(t *testing.T) {
	c := circuit.New("clamp")
	mustAdd(t, c, device.NewVoltageSourceDC("V1", 0), "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "in", "n2")
	mustAdd(t, c, device.NewDiode("D1", "D"), "n2", "0")

	sweep := NewDCSweep("V1", -5, 5, 0.5)
	if err := sweep.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := sweep.Execute(); err != nil {
		t.Fatal(err)
	}

	results := sweep.GetResults()
	sweepVals := results["SWEEP"]
	vn2 := results["V(n2)"]

	for i, v1 := range sweepVals {
		if v1 <= 0 {
			if math.Abs(vn2[i]-v1) > 1e-3 {
				t.Errorf("at V1=%g: V(n2)=%g, want ~%g (diode off)", v1, vn2[i], v1)
			}
		}
	}

	last := vn2[len(vn2)-1]
	if last < 0.6 || last > 0.75 {
		t.Errorf("at V1=%g: V(n2)=%g, want in [0.6,0.75] (diode forward drop)", sweepVals[len(sweepVals)-1], last)
	}
}
