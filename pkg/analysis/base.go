// Package analysis implements the three sweep engines (operating point,
// transient, AC) and the DC source sweep, all built on pkg/circuit's
// Newton-Raphson-ready Stamp/Solve primitives.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/circuitsim/mnaspice/pkg/circuit"
)

// Analysis is the common shape of every engine: bind a circuit, run it,
// and hand back the recorded traces.
type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

// convergence bundles the Newton-Raphson tolerances every engine shares.
type convergence struct {
	maxIter int
	abstol  float64
	reltol  float64
	gmin    float64
}

func defaultConvergence() convergence {
	return convergence{maxIter: 100, abstol: 1e-12, reltol: 1e-6, gmin: 1e-12}
}

// BaseAnalysis accumulates named result traces ("TIME", "V(out)",
// "OMEGA", "V(out)_MAG", ...) and the convergence ladder used to reach
// each recorded point.
type BaseAnalysis struct {
	results     map[string][]float64
	convergence convergence
}

func NewBaseAnalysis() *BaseAnalysis {
	return &BaseAnalysis{results: make(map[string][]float64), convergence: defaultConvergence()}
}

// CheckConvergence reports whether every unknown moved no more than
// reltol*max(|x_old|, |x_new|) + abstol between two solves.
func (a *BaseAnalysis) CheckConvergence(oldSol, newSol []float64) bool {
	if len(oldSol) != len(newSol) {
		return false
	}
	for i := range oldSol {
		diff := math.Abs(newSol[i] - oldSol[i])
		tol := a.convergence.reltol*math.Max(math.Abs(newSol[i]), math.Abs(oldSol[i])) + a.convergence.abstol
		if diff > tol {
			return false
		}
	}
	return true
}

func (a *BaseAnalysis) storeTimeResult(time float64, solution map[string]float64) {
	if times := a.results["TIME"]; len(times) > 0 && times[len(times)-1] == time {
		return
	}
	a.results["TIME"] = append(a.results["TIME"], time)
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

// storeACResult records one AC sweep point keyed by angular frequency
// (rad/s), matching the "ac" command's omega abscissa.
func (a *BaseAnalysis) storeACResult(omega float64, solution map[string]complex128) {
	a.results["OMEGA"] = append(a.results["OMEGA"], omega)
	for name, value := range solution {
		a.results[name+"_MAG"] = append(a.results[name+"_MAG"], cmplx.Abs(value))
		a.results[name+"_PHASE"] = append(a.results[name+"_PHASE"], cmplx.Phase(value)*180.0/math.Pi)
	}
}

func (a *BaseAnalysis) storeSweepResult(sweepVal float64, solution map[string]float64) {
	a.results["SWEEP"] = append(a.results["SWEEP"], sweepVal)
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 { return a.results }

// storePhaseResult records one phase-sweep point: phi (degrees) on the
// abscissa, magnitude only for every output (PhaseSweep is a
// magnitude-vs-phase plot, not a phasor trace).
func (a *BaseAnalysis) storePhaseResult(phiDeg float64, solution map[string]complex128) {
	a.results["PHI"] = append(a.results["PHI"], phiDeg)
	for name, value := range solution {
		a.results[name+"_MAG"] = append(a.results[name+"_MAG"], cmplx.Abs(value))
	}
}
