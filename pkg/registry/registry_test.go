package registry

import "testing"

func TestGroundAliases(t *testing.T) {
	r := New()
	for _, tok := range []string{"0", "gnd", "GND"} {
		id, err := r.ResolveId(tok)
		if err != nil {
			t.Fatalf("ResolveId(%q): %v", tok, err)
		}
		if id != 0 {
			t.Errorf("ResolveId(%q) = %d, want 0", tok, id)
		}
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	r := New()
	id, _ := r.ResolveId("n1")
	if got := r.Canonical(r.Canonical(id)); got != r.Canonical(id) {
		t.Errorf("canonical(canonical(u)) = %d, want %d", got, r.Canonical(id))
	}
	if r.Canonical(0) != 0 {
		t.Errorf("canonical(0) = %d, want 0", r.Canonical(0))
	}
}

func TestConnectIdempotent(t *testing.T) {
	r := New()
	a, _ := r.ResolveId("a")
	b, _ := r.ResolveId("b")

	c1, err := r.Connect("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := r.Connect("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Errorf("connect not idempotent: %d != %d", c1, c2)
	}
	if r.Canonical(a) != r.Canonical(b) {
		t.Errorf("a and b not in the same class")
	}
}

func TestGroundWinsUnion(t *testing.T) {
	r := New()
	n1, _ := r.ResolveId("n1")
	if _, err := r.Connect("n1", "0"); err != nil {
		t.Fatal(err)
	}
	if r.Canonical(n1) != 0 {
		t.Errorf("shorting to ground should canonicalize to 0, got %d", r.Canonical(n1))
	}
}

func TestLabelNodeMergesExisting(t *testing.T) {
	r := New()
	id, _ := r.ResolveId("vout")
	canon, err := r.LabelNode("vout", id+100)
	if err != nil {
		t.Fatal(err)
	}
	if r.Canonical(id) != r.Canonical(canon) {
		t.Errorf("relabeling an existing label should unite classes")
	}
}

func TestNumericTokenMaterializesSingleton(t *testing.T) {
	r := New()
	id, err := r.ResolveId("5")
	if err != nil {
		t.Fatal(err)
	}
	if id != 5 {
		t.Errorf("numeric token should resolve to its own integer value, got %d", id)
	}
	if r.Canonical(5) != 5 {
		t.Errorf("unseen numeric token should be its own class root")
	}
}

func TestEmptyLabelFails(t *testing.T) {
	r := New()
	if _, err := r.ResolveId(""); err == nil {
		t.Error("expected error for empty label")
	}
}

func TestRebuildLabelTableAfterMerges(t *testing.T) {
	r := New()
	_, _ = r.ResolveId("a")
	_, _ = r.ResolveId("b")
	_, _ = r.Connect("a", "b")
	r.RebuildLabelTable()

	idA, _ := r.ResolveId("a")
	idB, _ := r.ResolveId("b")
	if idA != idB {
		t.Errorf("after rebuild, aliased labels should resolve to the same id")
	}
}
