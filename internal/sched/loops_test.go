package sched

import (
	"testing"

	"strobe/internal/ir"
	"strobe/internal/source"
)

func TestBuildLoopShape(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena

	stmts := buildLoop(n, "x", func(cont ir.VarID, body *ir.Block) {
		if n.Var(cont).Name != "__VxContinue" {
			t.Fatalf("continue flag = %q", n.Var(cont).Name)
		}
		body.Append(a.Comment(sp, "work"))
	})

	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want seed + while", len(stmts))
	}
	seed, ok := stmts[0].Data.(ir.AssignData)
	if !ok || seed.Rhs.Data.(ir.ConstData).Value != 1 {
		t.Fatal("loop must arm the continue flag first")
	}
	loop, ok := stmts[1].Data.(ir.WhileData)
	if !ok {
		t.Fatalf("stmts[1] is %s, want while", stmts[1].Kind)
	}
	cond, ok := loop.Cond.Data.(ir.VarRefData)
	if !ok || cond.Var != seed.Lhs {
		t.Fatal("while must spin on the continue flag")
	}
	body := loop.Body.Stmts()
	reset, ok := body[0].Data.(ir.AssignData)
	if !ok || reset.Lhs != seed.Lhs || reset.Rhs.Data.(ir.ConstData).Value != 0 {
		t.Fatal("loop body must drop the continue flag before the work")
	}
	if body[1].Kind != ir.StmtComment {
		t.Fatal("builder statements must follow the flag reset")
	}
}

func TestMakeEvalLoopShape(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	a := n.Arena
	vec := n.NewVar(sp, n.TopScope, "__VactTriggered", 2, ir.VarTrigVec)
	dump := makeSubFunc(n, "_dump_triggers__act", true)

	cfg := DefaultConfig()
	cfg.ConvergeLimit = 7
	loop := makeEvalLoop(n, cfg, "act", "Active", vec, dump,
		func() []*ir.Stmt { return []*ir.Stmt{a.Comment(sp, "compute")} },
		func() []*ir.Stmt { return []*ir.Stmt{a.Comment(sp, "body")} })

	if n.Var(loop.counter).Name != "__VactIterCount" {
		t.Fatalf("counter = %q", n.Var(loop.counter).Name)
	}
	if len(loop.stmts) != 3 {
		t.Fatalf("got %d statements, want counter seed + flag seed + while", len(loop.stmts))
	}
	zero, ok := loop.stmts[0].Data.(ir.AssignData)
	if !ok || zero.Lhs != loop.counter || zero.Rhs.Data.(ir.ConstData).Value != 0 {
		t.Fatal("counter must start at zero")
	}

	body := firstWhile(t, loop.stmts)
	if body[1].Kind != ir.StmtComment {
		t.Fatal("trigger computation must run every pass, before the any() guard")
	}

	then := anyGuardThen(t, body)
	// Rearm, limit check, counter bump, region body.
	if len(then) != 4 {
		t.Fatalf("guard branch has %d statements, want 4", len(then))
	}
	rearm, ok := then[0].Data.(ir.AssignData)
	if !ok || rearm.Rhs.Data.(ir.ConstData).Value != 1 {
		t.Fatal("guard branch must rearm the continue flag first")
	}
	limit, ok := then[1].Data.(ir.IfData)
	if !ok || !limit.Unlikely {
		t.Fatal("limit check must be an unlikely branch")
	}
	over := limit.Cond.Data.(ir.BinaryData)
	if over.Op != ir.OpGt || over.Rhs.Data.(ir.ConstData).Value != 7 {
		t.Fatal("limit check must compare the counter against the configured bound")
	}
	fail := limit.Then.Stmts()
	if !hasCall(n, fail, dump.Name) {
		t.Fatal("exceeding the limit must dump the trigger state")
	}
	last := fail[len(fail)-1]
	msg, ok := last.Data.(ir.FatalData)
	if !ok || msg.Msg != "Active region did not converge." {
		t.Fatalf("fatal message = %v", last.Data)
	}
	bump, ok := then[2].Data.(ir.AssignData)
	if !ok || bump.Lhs != loop.counter {
		t.Fatal("counter bump must follow the limit check")
	}
	if then[3].Kind != ir.StmtComment {
		t.Fatal("region body must close the guard branch")
	}
}

func TestMakeEvalLoopRejectsPlainVariable(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	v := n.NewVar(sp, n.TopScope, "x", 2, 0)
	dump := makeSubFunc(n, "_dump_triggers__act", true)
	mustPanic(t, "loop over non-vector", func() {
		makeEvalLoop(n, DefaultConfig(), "act", "Active", v, dump,
			func() []*ir.Stmt { return nil },
			func() []*ir.Stmt { return nil })
	})
}
