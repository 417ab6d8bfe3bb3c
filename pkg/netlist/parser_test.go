package netlist

import "testing"

func TestParseValueSuffixes(t *testing.T) {
	cases := map[string]float64{
		"1k": 1000, "4.7K": 4700, "10m": 0.01, "1u": 1e-6,
		"100n": 1e-7, "2.2p": 2.2e-12, "1meg": 1e6, "1MEG": 1e6, "5": 5,
		"100h": 1e4, "1g": 1e9, "1t": 1e12,
	}
	for in, want := range cases {
		got, err := ParseValue(in)
		if err != nil {
			t.Fatalf("ParseValue(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseValue(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseSimpleDivider(t *testing.T) {
	script := `* divider
add v V1 in 0 dc 10
add r R1 in mid 1k
add r R2 mid 0 1k
op
`
	prog, err := Parse(script)
	if err != nil {
		t.Fatal(err)
	}
	if prog.Title != "divider" {
		t.Errorf("title = %q", prog.Title)
	}
	if !prog.RunOP {
		t.Errorf("expected op to be requested")
	}
	if len(prog.Circuit.Elements()) != 3 {
		t.Errorf("expected 3 elements, got %d", len(prog.Circuit.Elements()))
	}
}

func TestParseTranDirective(t *testing.T) {
	script := `add v V1 in 0 dc 5
add c C1 in 0 1u
add r R1 in 0 1k
print tran 1u 1m 10u
`
	prog, err := Parse(script)
	if err != nil {
		t.Fatal(err)
	}
	if prog.Tran == nil {
		t.Fatal("expected a transient directive")
	}
	if prog.Tran.TStep != 1e-6 || prog.Tran.TStop != 1e-3 || prog.Tran.TMax != 1e-5 {
		t.Errorf("tran = %+v", prog.Tran)
	}
}

func TestParseACDirective(t *testing.T) {
	script := `add v V1 in 0 dc 0 ac 1
add r R1 in out 1k
add c C1 out 0 1u
ac dec 10 100k 61
`
	prog, err := Parse(script)
	if err != nil {
		t.Fatal(err)
	}
	if prog.AC == nil || prog.AC.Sweep != "DEC" || prog.AC.Points != 61 || prog.AC.OmegaStart != 10 || prog.AC.OmegaStop != 100e3 {
		t.Errorf("ac = %+v", prog.AC)
	}
}

func TestParseGndAliasesNode(t *testing.T) {
	script := `add r R1 a b 1k
add gnd b
`
	prog, err := Parse(script)
	if err != nil {
		t.Fatal(err)
	}
	if prog.Circuit.IsFloating() {
		t.Error("expected b to be grounded, leaving the circuit connected")
	}
}

func TestParsePhaseDirective(t *testing.T) {
	script := `add v V1 in 0 dc 0 ac 1
add r R1 in 0 1k
phase 1k -90 90 5
`
	prog, err := Parse(script)
	if err != nil {
		t.Fatal(err)
	}
	if prog.Phase == nil || prog.Phase.Points != 5 || prog.Phase.Omega0 != 1000 {
		t.Errorf("phase = %+v", prog.Phase)
	}
	if prog.Phase.Source != "" {
		t.Errorf("expected no explicit source, got %q", prog.Phase.Source)
	}
}

func TestDeleteAndConnect(t *testing.T) {
	script := `add r R1 a 0 1k
add r R2 b 0 1k
delete R2
connect a b
`
	prog, err := Parse(script)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Circuit.Elements()) != 1 {
		t.Errorf("expected 1 element after delete, got %d", len(prog.Circuit.Elements()))
	}
}

func TestUnknownCommandErrors(t *testing.T) {
	if _, err := Parse("frobnicate 1 2 3\n"); err == nil {
		t.Error("expected an error for an unrecognized command")
	}
}
