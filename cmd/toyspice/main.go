// Command toyspice runs a netlist command script through the MNA
// engine and prints whichever analyses the script requested.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/circuitsim/mnaspice/pkg/analysis"
	"github.com/circuitsim/mnaspice/pkg/netlist"
	"github.com/circuitsim/mnaspice/pkg/util"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: toyspice <script file>")
	}

	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("reading script: %v", err)
	}

	prog, err := netlist.Parse(string(content))
	if err != nil {
		log.Fatalf("parsing script: %v", err)
	}
	if prog.Title != "" {
		fmt.Printf("=== %s ===\n\n", prog.Title)
	}

	ran := false
	if prog.RunOP {
		ran = true
		runAnalysis("Operating Point", analysis.NewOP(), prog)
	}
	if prog.Tran != nil {
		ran = true
		t := prog.Tran
		runAnalysis("Transient", analysis.NewTransient(0, t.TStop, t.TStep, t.TMax, false), prog)
	}
	if prog.DC != nil {
		ran = true
		d := prog.DC
		runAnalysis("DC Sweep", analysis.NewDCSweep(d.Source, d.Start, d.Stop, d.Increment), prog)
	}
	if prog.AC != nil {
		ran = true
		a := prog.AC
		runAnalysis("AC Sweep", analysis.NewAC(a.OmegaStart, a.OmegaStop, a.Points, a.Sweep), prog)
	}
	if prog.Phase != nil {
		ran = true
		p := prog.Phase
		runAnalysis("Phase Sweep", analysis.NewPhaseSweep(p.Source, p.Omega0, p.PhiStart, p.PhiStop, p.Points), prog)
	}

	if !ran {
		log.Fatal("script requested no analysis (op/print/ac/phase)")
	}
}

func runAnalysis(label string, a analysis.Analysis, prog *netlist.Program) {
	fmt.Printf("--- %s ---\n", label)
	if err := a.Setup(prog.Circuit); err != nil {
		log.Fatalf("%s setup failed: %v", label, err)
	}
	if err := a.Execute(); err != nil {
		log.Fatalf("%s failed: %v", label, err)
	}
	printResults(a.GetResults())
	fmt.Println()
}

func sortedNamesWithPrefix(results map[string][]float64, prefix string) []string {
	var names []string
	for name := range results {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func printResults(results map[string][]float64) {
	switch {
	case results["OMEGA"] != nil:
		printACResults(results)
	case results["PHI"] != nil:
		printPhaseResults(results)
	case results["SWEEP"] != nil:
		printSweepResults(results)
	case len(results["TIME"]) > 1:
		printTransientResults(results)
	default:
		printOperatingPointResults(results)
	}
}

func printOperatingPointResults(results map[string][]float64) {
	for _, name := range sortedNamesWithPrefix(results, "V(") {
		fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "V"))
	}
	for _, name := range sortedNamesWithPrefix(results, "I(") {
		fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "A"))
	}
}

func printTransientResults(results map[string][]float64) {
	times := results["TIME"]
	voltageNames := sortedNamesWithPrefix(results, "V(")
	currentNames := sortedNamesWithPrefix(results, "I(")

	for i, t := range times {
		fmt.Printf("%9s  ", util.FormatValueFactor(t, "s"))
		for _, name := range voltageNames {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name][i], "V"))
		}
		for _, name := range currentNames {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name][i], "A"))
		}
		fmt.Println()
	}
}

func printSweepResults(results map[string][]float64) {
	sweep := results["SWEEP"]
	voltageNames := sortedNamesWithPrefix(results, "V(")
	currentNames := sortedNamesWithPrefix(results, "I(")

	for i, v := range sweep {
		fmt.Printf("sweep=%-9s  ", util.FormatValueFactor(v, "V"))
		for _, name := range voltageNames {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name][i], "V"))
		}
		for _, name := range currentNames {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name][i], "A"))
		}
		fmt.Println()
	}
}

func printACResults(results map[string][]float64) {
	omegas := results["OMEGA"]

	var bases []string
	for name := range results {
		if strings.HasSuffix(name, "_MAG") {
			base := strings.TrimSuffix(name, "_MAG")
			if strings.HasPrefix(base, "V(") || strings.HasPrefix(base, "I(") {
				bases = append(bases, base)
			}
		}
	}
	sort.Strings(bases)

	for i, w := range omegas {
		fmt.Printf("%-13s", util.FormatAngularFrequency(w))
		for _, base := range bases {
			fmt.Print(formatPhasor(results, base, i))
		}
		fmt.Println()
	}
}

func formatPhasor(results map[string][]float64, base string, i int) string {
	mag, hasMag := results[base+"_MAG"]
	phase, hasPhase := results[base+"_PHASE"]
	if !hasMag || !hasPhase {
		return ""
	}
	return fmt.Sprintf("%s ", util.FormatMagnitudePhase(base, mag[i], phase[i]))
}

func printPhaseResults(results map[string][]float64) {
	phis := results["PHI"]
	var names []string
	for name := range results {
		if strings.HasSuffix(name, "_MAG") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for i, phi := range phis {
		fmt.Printf("phi=%7.2fdeg  ", phi)
		for _, name := range names {
			fmt.Printf("%s=%s  ", strings.TrimSuffix(name, "_MAG"), util.FormatMagnitude(results[name][i]))
		}
		fmt.Println()
	}
}
