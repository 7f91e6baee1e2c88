package sched

import (
	"testing"

	"strobe/internal/ir"
	"strobe/internal/source"
)

// addProcess registers a suspendable process block with the given body.
func addProcess(n *ir.Netlist, name string, fill func(b *ir.Block)) *ir.LogicBlock {
	sp := source.Span{}
	body := n.Arena.NewBlock()
	fill(body)
	blk := &ir.LogicBlock{
		Name:        name,
		Scope:       n.TopScope,
		Kind:        ir.LogicInitial,
		Sen:         n.NewSenTree(sp, ir.SenItem{Kind: ir.SenInitial}),
		Body:        body,
		Span:        sp,
		Suspendable: true,
	}
	n.AddBlock(blk)
	return blk
}

func TestPrepareTimingResumeActives(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena
	x := n.NewVar(sp, n.TopScope, "x", 1, 0)
	y := n.NewVar(sp, n.TopScope, "y", 1, 0)
	trig := n.NewSchedVar(sp, n.TopScope, "trig", ir.SchedTrigger)
	dyn := n.NewSchedVar(sp, n.TopScope, "dyn", ir.SchedDynamic)

	senX := changedOf(n, x)
	senY := changedOf(n, y)

	// Two processes awaiting the same condition share one resume active.
	addProcess(n, "p0", func(b *ir.Block) {
		b.Append(a.Await(sp, trig, senX))
	})
	addProcess(n, "p1", func(b *ir.Block) {
		b.Append(a.Await(sp, trig, senX))
		b.Append(a.Await(sp, dyn, senY))
	})

	kit := prepareTiming(n)
	if kit.Empty() {
		t.Fatal("kit must not be empty")
	}
	if len(kit.lbs) != 2 {
		t.Fatalf("got %d resume actives, want one per distinct condition", len(kit.lbs))
	}
	for _, b := range kit.lbs {
		stmts := b.Body.Stmts()
		if len(stmts) != 1 {
			t.Fatalf("resume active %q has %d statements", b.Name, len(stmts))
		}
		call := stmts[0].Data.(ir.ExprStmtData).Expr.Data.(ir.MethodCallData)
		if call.Method != ir.MethodResume {
			t.Fatalf("resume active holds %s", call.Method)
		}
	}
	if kit.lbs[0].Sen != senX || kit.lbs[1].Sen != senY {
		t.Fatal("resume actives must keep encounter order")
	}

	// Only the dynamic scheduler contributes a post update.
	if len(kit.postUpdates) != 1 {
		t.Fatalf("got %d post updates, want 1", len(kit.postUpdates))
	}
	post := kit.postUpdates[0].Data.(ir.ExprStmtData).Expr.Data.(ir.MethodCallData)
	if post.Recv != dyn || post.Method != ir.MethodDoPostUpdates {
		t.Fatalf("post update = %s on %q", post.Method, n.Var(post.Recv).Name)
	}
}

func TestPrepareTimingExternalDomains(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena
	x := n.NewVar(sp, n.TopScope, "x", 1, 0)
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	r := n.NewVar(sp, n.TopScope, "r", 1, 0)
	s := n.NewVar(sp, n.TopScope, "s", 1, 0)
	trig := n.NewSchedVar(sp, n.TopScope, "trig", ir.SchedTrigger)
	senX := changedOf(n, x)

	// A suspendable process writing q after an await.
	addProcess(n, "p0", func(b *ir.Block) {
		b.Append(a.Await(sp, trig, senX))
		b.Append(a.Assign(sp, q, a.ConstBool(sp, true)))
	})

	// A plain block whose fork branch awaits and writes r; writes outside
	// the fork stay ordinary.
	body := a.NewBlock()
	body.Append(a.Assign(sp, s, a.ConstBool(sp, true)))
	brBody := a.NewBlock()
	brBody.Append(a.Await(sp, trig, senX))
	brBody.Append(a.Assign(sp, r, a.ConstBool(sp, true)))
	body.Append(a.Fork(sp, ir.JoinNone, ir.ForkBranch{Name: "br0", Body: brBody}))
	n.AddBlock(&ir.LogicBlock{
		Name: "plain", Scope: n.TopScope, Kind: ir.LogicAlways,
		Sen: comboSen(n), Body: body, Span: sp,
	})

	kit := prepareTiming(n)

	if !n.Var(q).Flags.Has(ir.VarWrittenBySuspendable) {
		t.Fatal("q is written by a suspendable process")
	}
	if !n.Var(r).Flags.Has(ir.VarWrittenBySuspendable) {
		t.Fatal("r is written inside a fork branch")
	}
	if n.Var(s).Flags.Has(ir.VarWrittenBySuspendable) {
		t.Fatal("s is written by plain logic")
	}

	domains, ok := kit.externalDomains.Get(q)
	if !ok || len(domains) != 1 || domains[0] != senX {
		t.Fatalf("domains(q) = %v, want the process await condition", domains)
	}
	if _, ok := kit.externalDomains.Get(s); ok {
		t.Fatal("plain writes must not get external domains")
	}

	// Scheduler handles never count as data writes.
	ev := n.NewSchedVar(sp, n.TopScope, "ev", ir.SchedEvent)
	addProcess(n, "p1", func(b *ir.Block) {
		b.Append(a.Await(sp, trig, senX))
		b.Append(a.Assign(sp, ev, a.ConstBool(sp, true)))
	})
	kit = prepareTiming(n)
	if _, ok := kit.externalDomains.Get(ev); ok {
		t.Fatal("scheduler handles are not data writes")
	}
}

func TestTimingKitRemapDomains(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena
	x := n.NewVar(sp, n.TopScope, "x", 1, 0)
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	trig := n.NewSchedVar(sp, n.TopScope, "trig", ir.SchedTrigger)
	senX := changedOf(n, x)

	addProcess(n, "p0", func(b *ir.Block) {
		b.Append(a.Await(sp, trig, senX))
		b.Append(a.Assign(sp, q, a.ConstBool(sp, true)))
	})
	kit := prepareTiming(n)

	vec := n.NewVar(sp, n.TopScope, "__VactTriggered", 1, ir.VarTrigVec)
	m := newTrigMap(vec)

	mustPanic(t, "domain missing from map", func() { kit.RemapDomains(n, m) })

	m.add(senX, createTriggerSenTree(n, vec, 0), 0)
	mapped, _ := m.Remap(senX)
	domains := kit.RemapDomains(n, m)
	if got := domains[q]; len(got) != 1 || got[0] != mapped {
		t.Fatalf("domains[q] = %v, want the bit-test tree", got)
	}
}

func TestTimingKitResumeAndCommit(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena
	x := n.NewVar(sp, n.TopScope, "x", 1, 0)
	y := n.NewVar(sp, n.TopScope, "y", 1, 0)
	trig := n.NewSchedVar(sp, n.TopScope, "trig", ir.SchedTrigger)
	dly := n.NewSchedVar(sp, n.TopScope, "dly", ir.SchedDelay)
	senX := changedOf(n, x)
	senY := changedOf(n, y)

	addProcess(n, "p0", func(b *ir.Block) {
		b.Append(a.Await(sp, trig, senX))
	})
	addProcess(n, "p1", func(b *ir.Block) {
		b.Append(a.Await(sp, dly, senY))
	})
	kit := prepareTiming(n)

	vec := n.NewVar(sp, n.TopScope, "__VactTriggered", 2, ir.VarTrigVec)
	m := newTrigMap(vec)
	m.add(senX, createTriggerSenTree(n, vec, 0), 0)
	m.add(senY, createTriggerSenTree(n, vec, 1), 1)
	remapSensitivities(n, kit.lbs, m)

	// Commit reads the actives, resume consumes them; commit goes first.
	commit := kit.createCommit(n)
	if commit == nil || commit.Name != "_timing_commit" {
		t.Fatal("trigger schedulers need a commit procedure")
	}
	cstmts := commit.Body.Stmts()
	if len(cstmts) != 1 {
		t.Fatalf("commit guards %d schedulers, want only the trigger one", len(cstmts))
	}
	cguard := cstmts[0].Data.(ir.IfData)
	if neg, ok := cguard.Cond.Data.(ir.UnaryData); !ok || neg.Op != ir.OpNot {
		t.Fatal("commit must run when the condition did NOT fire")
	}
	ccall := cguard.Then.Stmts()[0].Data.(ir.ExprStmtData).Expr.Data.(ir.MethodCallData)
	if ccall.Recv != trig || ccall.Method != ir.MethodCommit {
		t.Fatalf("commit call = %s on %q", ccall.Method, n.Var(ccall.Recv).Name)
	}

	resume := kit.createResume(n)
	if resume == nil || resume.Name != "_timing_resume" {
		t.Fatal("resume procedure missing")
	}
	rstmts := resume.Body.Stmts()
	if len(rstmts) != 2 {
		t.Fatalf("resume guards %d conditions, want 2", len(rstmts))
	}
	for i, want := range []ir.VarID{trig, dly} {
		guard := rstmts[i].Data.(ir.IfData)
		call := guard.Then.Stmts()[0].Data.(ir.ExprStmtData).Expr.Data.(ir.MethodCallData)
		if call.Recv != want || call.Method != ir.MethodResume {
			t.Fatalf("resume[%d] = %s on %q", i, call.Method, n.Var(call.Recv).Name)
		}
	}

	// Both build exactly once.
	if kit.createResume(n) != resume || kit.createCommit(n) != commit {
		t.Fatal("resume and commit must be built once and reused")
	}
}

func TestTimingKitCommitOnlyForTriggerSchedulers(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena
	y := n.NewVar(sp, n.TopScope, "y", 1, 0)
	dly := n.NewSchedVar(sp, n.TopScope, "dly", ir.SchedDelay)
	senY := changedOf(n, y)

	addProcess(n, "p0", func(b *ir.Block) {
		b.Append(a.Await(sp, dly, senY))
	})
	kit := prepareTiming(n)

	vec := n.NewVar(sp, n.TopScope, "__VactTriggered", 1, ir.VarTrigVec)
	m := newTrigMap(vec)
	m.add(senY, createTriggerSenTree(n, vec, 0), 0)
	remapSensitivities(n, kit.lbs, m)

	if kit.createCommit(n) != nil {
		t.Fatal("delay schedulers never commit")
	}
}

func TestTimingKitEmptyDesign(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	q := n.NewVar(sp, n.TopScope, "q", 1, 0)
	d := n.NewVar(sp, n.TopScope, "d", 1, 0)
	addAssignBlock(n, "comb", ir.LogicAlways, comboSen(n), q, d)

	kit := prepareTiming(n)
	if !kit.Empty() {
		t.Fatal("design without suspension points must yield an empty kit")
	}
	if kit.createResume(n) != nil {
		t.Fatal("no resume procedure without suspension points")
	}
	if kit.createCommit(n) != nil {
		t.Fatal("no commit procedure without suspension points")
	}
}
