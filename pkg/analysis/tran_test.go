package analysis

import (
	"math"
	"testing"

	"github.com/circuitsim/mnaspice/pkg/circuit"
	"github.com/circuitsim/mnaspice/pkg/device"
)

// RC charging into a 1V step: tau = R*C = 1k*1u = 1ms. At t=tau the node
// should be at 1-e^-1 (~63.2%) of the source and at 5*tau it should have
// essentially saturated.
func TestTransientRCCharging(t *testing.T) {
	c := circuit.New("rc")
	mustAdd(t, c, device.NewVoltageSourceDC("V1", 1.0), "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "in", "n2")
	mustAdd(t, c, device.NewCapacitor("C1", 1e-6), "n2", "0")

	tr := NewTransient(0, 5e-3, 1e-6, 1e-6, true)
	if err := tr.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := tr.Execute(); err != nil {
		t.Fatal(err)
	}

	results := tr.GetResults()
	v := valueNear(t, results, 1e-3)
	if want := 1 - math.Exp(-1); math.Abs(v-want) > 0.01*want {
		t.Errorf("V(n2) at t=tau: got %g, want ~%g", v, want)
	}

	v5 := valueNear(t, results, 5e-3)
	if want := 1.0; math.Abs(v5-want) > 0.01 {
		t.Errorf("V(n2) at t=5*tau: got %g, want ~%g", v5, want)
	}
}

// Series RLC (R=10, L=1mH, C=1uF) driven by a step is underdamped: its
// natural frequency omega0=1/sqrt(LC)~=31.6krad/s gives a ringing period
// near 199us, and R well below the critical 2*sqrt(L/C)~=63.2 ohms means
// the response overshoots its final value before settling.
func TestTransientSeriesRLCRinging(t *testing.T) {
	c := circuit.New("rlc")
	mustAdd(t, c, device.NewVoltageSourceDC("V1", 1.0), "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 10), "in", "n2")
	mustAdd(t, c, device.NewInductor("L1", 1e-3), "n2", "n3")
	mustAdd(t, c, device.NewCapacitor("C1", 1e-6), "n3", "0")

	tr := NewTransient(0, 1e-3, 1e-7, 1e-7, true)
	if err := tr.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := tr.Execute(); err != nil {
		t.Fatal(err)
	}

	results := tr.GetResults()
	times := results["TIME"]
	vc := results["V(n3)"]

	maxV := 0.0
	for _, v := range vc {
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= 1.0 {
		t.Errorf("expected overshoot above final value 1.0, got max %g", maxV)
	}

	final := vc[len(vc)-1]
	if math.Abs(final-1.0) > 0.05 {
		t.Errorf("expected settling near 1.0 by t=%g, got %g", times[len(times)-1], final)
	}
}

// A pulse source driving an RC low-pass reaches a periodic steady state
// whose ripple stays well under the drive's own swing once many periods
// have elapsed, with period equal to the pulse's own 20us period.
func TestTransientPulseIntoRC(t *testing.T) {
	c := circuit.New("pulse-rc")
	mustAdd(t, c, device.NewPulseSource("V1", 0, 5, 0, 1e-7, 1e-7, 9e-6, 2e-5), "in", "0")
	mustAdd(t, c, device.NewResistor("R1", 1000), "in", "n2")
	mustAdd(t, c, device.NewCapacitor("C1", 1e-7), "n2", "0")

	tr := NewTransient(0, 5e-4, 2e-7, 2e-7, false)
	if err := tr.Setup(c); err != nil {
		t.Fatal(err)
	}
	if err := tr.Execute(); err != nil {
		t.Fatal(err)
	}

	results := tr.GetResults()
	times := results["TIME"]
	vn2 := results["V(n2)"]

	var minV, maxV float64
	started := false
	for i, t := range times {
		if t < 4.8e-4 {
			continue
		}
		if !started {
			minV, maxV = vn2[i], vn2[i]
			started = true
			continue
		}
		if vn2[i] < minV {
			minV = vn2[i]
		}
		if vn2[i] > maxV {
			maxV = vn2[i]
		}
	}
	if maxV-minV >= 1.0 {
		t.Errorf("expected peak-to-peak ripple under 1V in steady state, got %g", maxV-minV)
	}
}

func valueNear(t *testing.T, results map[string][]float64, target float64) float64 {
	t.Helper()
	times := results["TIME"]
	best := 0
	bestDiff := math.Inf(1)
	for i, tv := range times {
		diff := math.Abs(tv - target)
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return results["V(n2)"][best]
}
