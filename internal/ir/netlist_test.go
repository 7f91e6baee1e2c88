package ir

import (
	"testing"

	"strobe/internal/source"
)

func TestScopePath(t *testing.T) {
	n := NewNetlist("t")
	child := n.NewScope(n.TopScope, "u_sub")
	grand := n.NewScope(child, "u_leaf")

	if got := n.ScopePath(n.TopScope); got != "TOP" {
		t.Fatalf("ScopePath(top) = %q", got)
	}
	if got := n.ScopePath(grand); got != "TOP.u_sub.u_leaf" {
		t.Fatalf("ScopePath(grand) = %q", got)
	}
}

func TestNewVarDuplicatePanics(t *testing.T) {
	n := NewNetlist("t")
	sp := source.Span{}
	n.NewVar(sp, n.TopScope, "clk", 1, VarInput)
	mustPanic(t, "duplicate var name", func() { n.NewVar(sp, n.TopScope, "clk", 1, 0) })
}

func TestLookupVarWalksParents(t *testing.T) {
	n := NewNetlist("t")
	sp := source.Span{}
	child := n.NewScope(n.TopScope, "u_sub")

	top := n.NewVar(sp, n.TopScope, "clk", 1, VarInput)
	inner := n.NewVar(sp, child, "q", 8, 0)

	if got, ok := n.LookupVar(child, "q"); !ok || got != inner {
		t.Fatalf("LookupVar(child, q) = %d, %v", got, ok)
	}
	if got, ok := n.LookupVar(child, "clk"); !ok || got != top {
		t.Fatalf("LookupVar(child, clk) = %d, %v", got, ok)
	}
	if _, ok := n.LookupVar(child, "nope"); ok {
		t.Fatal("LookupVar(child, nope) found something")
	}
	// Shadowing: child declaration wins over parent.
	shadow := n.NewVar(sp, child, "clk", 1, 0)
	if got, _ := n.LookupVar(child, "clk"); got != shadow {
		t.Fatalf("LookupVar(child, clk) after shadow = %d, want %d", got, shadow)
	}
}

func TestCreateTempUniques(t *testing.T) {
	n := NewNetlist("t")
	sp := source.Span{}

	a := n.CreateTemp(sp, n.TopScope, "__iter_act", 32)
	b := n.CreateTemp(sp, n.TopScope, "__iter_act", 32)

	va, vb := n.Var(a), n.Var(b)
	if va.Name == vb.Name {
		t.Fatalf("temps share name %q", va.Name)
	}
	if va.Name != "__iter_act__0" || vb.Name != "__iter_act__1" {
		t.Fatalf("temp names = %q, %q", va.Name, vb.Name)
	}
}

func TestNewFuncDuplicatePanics(t *testing.T) {
	n := NewNetlist("t")
	sp := source.Span{}
	f := n.NewFunc(sp, "_eval", n.TopScope)
	if id, ok := n.FuncByName("_eval"); !ok || id != f.ID {
		t.Fatalf("FuncByName = %d, %v", id, ok)
	}
	if f.Body == nil {
		t.Fatal("NewFunc must allocate an empty body")
	}
	mustPanic(t, "duplicate func name", func() { n.NewFunc(sp, "_eval", n.TopScope) })
}

func TestFindSenTreeSharesStructural(t *testing.T) {
	n := NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, VarInput)

	item := func() SenItem {
		return SenItem{Kind: SenPosedge, Signal: n.Arena.VarRefE(sp, clk)}
	}
	id := n.NewSenTree(sp, item())

	if got, ok := n.FindSenTree([]SenItem{item()}); !ok || got != id {
		t.Fatalf("FindSenTree = %d, %v, want %d", got, ok, id)
	}
	other := SenItem{Kind: SenNegedge, Signal: n.Arena.VarRefE(sp, clk)}
	if _, ok := n.FindSenTree([]SenItem{other}); ok {
		t.Fatal("FindSenTree(negedge) matched unexpectedly")
	}
}
