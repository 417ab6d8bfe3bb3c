package analysis

import (
	"testing"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// A phase sweep at a fixed angular frequency over a purely resistive divider
// should leave the magnitude response flat across every phase point,
// since phase shifts in a linear resistive network don't change gain.
func TestPhaseSweepResistiveDividerFlat(t *testing.T) {
	c := circuit.New("phase-divider")
	mustAdd(t, c, device.NewVoltageSourceDC("V1", 1.0), "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "in", "n2")
	mustAdd(t, c, device.NewResistor("R2", 1000), "n2", "0")

	ps := NewPhaseSweep("V1", 1000, -90, 90, 5)
	if err := ps.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := ps.Execute(); err != nil {
		t.Fatal(err)
	}

	results := ps.GetResults()
	phis := results["PHI"]
	mag := results["V(n2)_MAG"]
	if len(phis) != 5 {
		t.Fatalf("expected 5 points, got %d", len(phis))
	}
	for i, m := range mag {
		if diff := m - mag[0]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("magnitude at phi=%g = %g, want flat at %g", phis[i], m, mag[0])
		}
	}
}

func TestPhaseSweepDefaultsToSoleVoltageSource(t *testing.T) {
	c := circuit.New("phase-default")
	mustAdd(t, c, device.NewVoltageSourceDC("V1", 1.0), "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "in", "0")

	ps := NewPhaseSweep("", 1000, 0, 0, 1)
	if err := ps.Setup(c); err != nil {
		t.Fatal(err)
	}
}
