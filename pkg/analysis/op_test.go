package analysis

import (
	"math"
	"testing"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// Resistive divider: V1=10V into R1=1k then R2=1k to ground should read
// V(n2)=5.0 and draw 5mA from V1.
func TestOperatingPointResistiveDivider(t *testing.T) {
	c := circuit.New("divider")
	mustAdd(t, c, device.NewVoltageSourceDC("V1", 10), "n1", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "n1", "n2")
	mustAdd(t, c, device.NewResistor("R2", 1000), "n2", "0")

	op := NewOP()
	if err := op.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := op.Execute(); err != nil {
		t.Fatal(err)
	}

	results := op.GetResults()
	if v := results["V(n2)"][0]; math.Abs(v-5.0) > 1e-6 {
		t.Errorf("V(n2) = %v, want 5.0", v)
	}
	if i := results["I(V1)"][0]; math.Abs(i-(-0.005)) > 1e-6 {
		t.Errorf("I(V1) = %v, want -0.005", i)
	}
}

func mustAdd(t *testing.T, c *circuit.Circuit, e *device.Element, n1, n2 string) {
	t.Helper()
	if err := c.Add(e, n1, n2); err != nil {
		t.Fatalf("add %s: %v", e.Name, err)
	}
}
