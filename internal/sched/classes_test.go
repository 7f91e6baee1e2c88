package sched

import (
	"testing"

	"strobe/internal/ir"
	"strobe/internal/source"
)

func TestGatherClassesBuckets(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	d := n.NewVar(sp, n.TopScope, "d", 1, ir.VarInput)
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	out := n.NewVar(sp, n.TopScope, "out", 1, ir.VarOutput)

	senClk := posedgeOf(n, clk)
	senStatic := n.NewSenTree(sp, ir.SenItem{Kind: ir.SenStatic})
	senInitial := n.NewSenTree(sp, ir.SenItem{Kind: ir.SenInitial})
	senFinal := n.NewSenTree(sp, ir.SenItem{Kind: ir.SenFinal})
	senHybrid := n.NewSenTree(sp, ir.SenItem{Kind: ir.SenHybrid, Signal: a.VarRefE(sp, q)})

	addAssignBlock(n, "st", ir.LogicStatic, senStatic, q, d)
	addAssignBlock(n, "init", ir.LogicInitial, senInitial, q, d)
	addAssignBlock(n, "fin", ir.LogicFinal, senFinal, out, q)
	addAssignBlock(n, "comb", ir.LogicAlways, comboSen(n), out, q)
	addAssignBlock(n, "post", ir.LogicPostponed, comboSen(n), out, q)
	addAssignBlock(n, "ff", ir.LogicAlways, senClk, q, d)
	addAssignBlock(n, "obs", ir.LogicObserved, senClk, out, q)
	addAssignBlock(n, "react", ir.LogicReactive, senClk, out, q)
	addAssignBlock(n, "hyb", ir.LogicAlways, senHybrid, out, q)

	// Empty bodies are dropped.
	n.AddBlock(&ir.LogicBlock{Name: "empty", Scope: n.TopScope, Kind: ir.LogicAlways, Sen: senClk, Body: a.NewBlock()})

	classes := GatherClasses(n)
	checks := []struct {
		name string
		lbs  LogicByScope
		want int
	}{
		{"static", classes.Static, 1},
		{"initial", classes.Initial, 1},
		{"final", classes.Final, 1},
		{"comb", classes.Comb, 1},
		{"postponed", classes.Postponed, 1},
		{"clocked", classes.Clocked, 1},
		{"observed", classes.Observed, 1},
		{"reactive", classes.Reactive, 1},
		{"hybrid", classes.Hybrid, 1},
	}
	for _, c := range checks {
		if len(c.lbs) != c.want {
			t.Errorf("class %s has %d blocks, want %d", c.name, len(c.lbs), c.want)
		}
	}
}

func TestGatherClassesRejectsMixedOneShot(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	d := n.NewVar(sp, n.TopScope, "d", 1, 0)
	sen := n.NewSenTree(sp, ir.SenItem{Kind: ir.SenInitial}, ir.SenItem{Kind: ir.SenCombo})
	addAssignBlock(n, "bad", ir.LogicInitial, sen, q, d)
	mustPanic(t, "initial with extra terms", func() { GatherClasses(n) })
}

func TestSenTreesUsedByOrderAndDedup(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	rst := n.NewVar(sp, n.TopScope, "rst", 1, ir.VarInput)
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	d := n.NewVar(sp, n.TopScope, "d", 1, 0)

	senClk := posedgeOf(n, clk)
	senRst := posedgeOf(n, rst)

	first := LogicByScope{
		addAssignBlock(n, "a", ir.LogicAlways, senClk, q, d),
		addAssignBlock(n, "b", ir.LogicAlways, comboSen(n), q, d),
	}
	second := LogicByScope{
		addAssignBlock(n, "c", ir.LogicAlways, senRst, q, d),
		addAssignBlock(n, "d", ir.LogicAlways, senClk, q, d),
	}

	got := senTreesUsedBy(n, first, second)
	want := []ir.SenTreeID{senClk, senRst}
	if len(got) != len(want) {
		t.Fatalf("got %d trees, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tree[%d] = @%d, want @%d", i, got[i], want[i])
		}
	}
}

func TestRemapSensitivities(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	d := n.NewVar(sp, n.TopScope, "d", 1, 0)
	senClk := posedgeOf(n, clk)
	senComb := comboSen(n)

	ff := addAssignBlock(n, "ff", ir.LogicAlways, senClk, q, d)
	comb := addAssignBlock(n, "comb", ir.LogicAlways, senComb, q, d)

	vec := n.NewVar(sp, n.TopScope, "__VactTriggered", 1, ir.VarTrigVec)
	m := newTrigMap(vec)
	m.add(senClk, createTriggerSenTree(n, vec, 0), 0)

	remapSensitivities(n, LogicByScope{ff, comb}, m)
	mapped, _ := m.Remap(senClk)
	if ff.Sen != mapped {
		t.Fatal("clocked block must point at the bit-test tree")
	}
	if comb.Sen != senComb {
		t.Fatal("combinational blocks keep their condition")
	}

	rst := n.NewVar(sp, n.TopScope, "rst", 1, ir.VarInput)
	missing := addAssignBlock(n, "miss", ir.LogicAlways, posedgeOf(n, rst), q, d)
	mustPanic(t, "sensitivity missing from map", func() {
		remapSensitivities(n, LogicByScope{missing}, m)
	})
}

func TestLogicByScopeClone(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	d := n.NewVar(sp, n.TopScope, "d", 1, 0)
	orig := addAssignBlock(n, "comb", ir.LogicAlways, comboSen(n), q, d)

	lbs := LogicByScope{orig}
	clone := lbs.Clone(n)
	if len(clone) != 1 || clone[0] == orig || clone[0].Body == orig.Body {
		t.Fatal("clone must copy the block and its body")
	}
	// Consuming the clone leaves the original intact.
	clone[0].Body.TakeAll()
	if orig.Body.Empty() {
		t.Fatal("consuming the clone drained the original body")
	}
	if lbs.NodeCount() != 2 {
		t.Fatalf("node count = %d, want assign + operand", lbs.NodeCount())
	}
}
