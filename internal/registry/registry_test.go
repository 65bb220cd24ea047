package registry

import "testing"

type fakeEntry struct {
	name string
	kind string
	deps []string
}

func (f fakeEntry) Name() string         { return f.name }
func (f fakeEntry) Kind() string         { return f.kind }
func (f fakeEntry) Dependencies() []string { return f.deps }

func TestLoadOrderRespectsDependencies(t *testing.T) {
	r := New()
	must := func(e Entry) {
		t.Helper()
		if err := r.Register(e); err != nil {
			t.Fatalf("register %s: %v", e.Name(), err)
		}
	}
	must(fakeEntry{name: "base", kind: "k"})
	must(fakeEntry{name: "mid", kind: "k", deps: []string{"base"}})
	must(fakeEntry{name: "top", kind: "k", deps: []string{"mid", "base"}})

	order, err := r.LoadOrder()
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	if pos["base"] > pos["mid"] || pos["mid"] > pos["top"] {
		t.Fatalf("dependency order violated: %v", order)
	}
}

func TestRegisterRejectsUnknownDependency(t *testing.T) {
	r := New()
	if err := r.Register(fakeEntry{name: "a", kind: "k", deps: []string{"missing"}}); err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := New()
	if err := r.Register(fakeEntry{name: "a", kind: "k"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(fakeEntry{name: "a", kind: "k"}); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestListFiltersByKind(t *testing.T) {
	r := New()
	_ = r.Register(fakeEntry{name: "a", kind: "x"})
	_ = r.Register(fakeEntry{name: "b", kind: "y"})
	got := r.List("x")
	if len(got) != 1 || got[0].Name() != "a" {
		t.Fatalf("expected only entry a for kind x, got %v", got)
	}
}
