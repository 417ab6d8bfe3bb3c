package circuit

import (
	"math"
	"testing"

	"github.com/circuitsim/mnaspice/pkg/device"
)

func TestResistiveDividerDC(t *testing.T) {
	c := New("divider")
	if err := c.Add(device.NewVoltageSourceDC("V1", 10), "in", "0"); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(device.NewResistor("R1", 1000), "in", "mid"); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(device.NewResistor("R2", 1000), "mid", "0"); err != nil {
		t.Fatal(err)
	}

	status := &device.Status{Mode: device.OperatingPointAnalysis}
	if err := c.Stamp(status); err != nil {
		t.Fatal(err)
	}
	if err := c.Matrix.Solve(); err != nil {
		t.Fatal(err)
	}

	v := c.NodeVoltage("mid")
	if math.Abs(v-5.0) > 1e-6 {
		t.Errorf("V(mid) = %v, want 5.0", v)
	}
}

func TestGroundAliasesShareRow(t *testing.T) {
	c := New("gndtest")
	if err := c.Add(device.NewResistor("R1", 100), "n1", "gnd"); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	if c.NumNodes() != 1 {
		t.Errorf("numNodes = %d, want 1 (gnd/GND/0 must collapse to row 0)", c.NumNodes())
	}
}

func TestConnectMergesNodes(t *testing.T) {
	c := New("shorted")
	if err := c.Add(device.NewVoltageSourceDC("V1", 5), "a", "0"); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(device.NewResistor("R1", 50), "b", "0"); err != nil {
		t.Fatal(err)
	}
	if err := c.Connect("a", "b"); err != nil {
		t.Fatal(err)
	}

	status := &device.Status{Mode: device.OperatingPointAnalysis}
	if err := c.Stamp(status); err != nil {
		t.Fatal(err)
	}
	if err := c.Matrix.Solve(); err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.NodeVoltage("a")-c.NodeVoltage("b")) > 1e-9 {
		t.Errorf("shorted nodes should read the same voltage")
	}
}

func TestFloatingNodeDetected(t *testing.T) {
	c := New("floating")
	if err := c.Add(device.NewResistor("R1", 100), "a", "b"); err != nil {
		t.Fatal(err)
	}
	if !c.IsFloating() {
		t.Errorf("a 2-node island with no path to ground should be reported floating")
	}
}

func TestDeleteRemovesElement(t *testing.T) {
	c := New("del")
	_ = c.Add(device.NewResistor("R1", 100), "a", "0")
	_ = c.Add(device.NewResistor("R2", 200), "a", "0")
	if err := c.Delete("R1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Element("R1"); ok {
		t.Errorf("R1 should no longer exist")
	}
	if len(c.Elements()) != 1 {
		t.Errorf("expected 1 remaining element, got %d", len(c.Elements()))
	}
}

func TestCCVSControllerResolution(t *testing.T) {
	c := New("ccvs")
	_ = c.Add(device.NewVoltageSourceDC("Vsense", 0), "sense", "0")
	h := device.NewCCVS("H1", "Vsense", 2.0)
	if err := c.Add(h, "out", "0"); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
}

func TestCCVSUnknownControllerErrors(t *testing.T) {
	c := New("ccvs-bad")
	h := device.NewCCVS("H1", "Vghost", 2.0)
	if err := c.Add(h, "out", "0"); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(); err == nil {
		t.Errorf("expected an error resolving a nonexistent controller")
	}
}
