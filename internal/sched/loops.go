package sched

import (
	"fmt"

	"strobe/internal/ir"
	"strobe/internal/source"
)

// buildLoop emits the reusable bounded-loop skeleton:
//
//	__V<tag>Continue = 1
//	while (__V<tag>Continue) {
//	    __V<tag>Continue = 0
//	    <build fills the rest>
//	}
//
// and returns the statements. build receives the continue flag and the loop
// body to append to.
func buildLoop(n *ir.Netlist, tag string, build func(cont ir.VarID, body *ir.Block)) []*ir.Stmt {
	a := n.Arena
	span := source.Span{}
	cont := n.NewVar(span, n.TopScope, "__V"+tag+"Continue", 1, 0)
	body := a.NewBlock()
	body.Append(a.Assign(span, cont, a.ConstBool(span, false)))
	build(cont, body)
	return []*ir.Stmt{
		a.Assign(span, cont, a.ConstBool(span, true)),
		a.While(span, a.VarRefE(span, cont), body),
	}
}

// evalLoop is the result of makeEvalLoop: the iteration counter (regions
// with a first-iteration trigger wire it into their compute procedure) and
// the loop statements.
type evalLoop struct {
	counter ir.VarID
	stmts   []*ir.Stmt
}

// makeEvalLoop wraps a region in a convergence loop. Each pass recomputes
// the region's triggers; the body runs only when at least one bit fired,
// and passing the configured iteration limit dumps the trigger state and
// aborts:
//
//	__V<tag>IterCount = 0
//	<buildLoop> {
//	    <computeTriggers()>
//	    if (vec.any()) {
//	        __V<tag>Continue = 1
//	        if (__V<tag>IterCount > limit) { _dump_triggers__<tag>(); fatal }
//	        __V<tag>IterCount = __V<tag>IterCount + 1
//	        <makeBody()>
//	    }
//	}
func makeEvalLoop(
	n *ir.Netlist,
	cfg Config,
	tag, label string,
	vec ir.VarID,
	dump *ir.Func,
	computeTriggers func() []*ir.Stmt,
	makeBody func() []*ir.Stmt,
) evalLoop {
	if !n.Var(vec).Flags.Has(ir.VarTrigVec) {
		panic(fmt.Sprintf("sched: %q is not a trigger vector", n.Var(vec).Name))
	}
	a := n.Arena
	span := source.Span{}

	counter := n.NewVar(span, n.TopScope, "__V"+tag+"IterCount", 32, 0)

	stmts := []*ir.Stmt{a.Assign(span, counter, a.Const(span, 0, 32))}
	stmts = append(stmts, buildLoop(n, tag, func(cont ir.VarID, body *ir.Block) {
		body.AppendAll(computeTriggers())

		then := a.NewBlock()
		then.Append(a.Assign(span, cont, a.ConstBool(span, true)))

		fail := a.NewBlock()
		fail.Append(a.CallProc(span, dump.ID))
		fail.Append(a.Fatal(span, label+" region did not converge."))
		over := a.Binary(span, ir.OpGt, a.VarRefE(span, counter), a.Const(span, uint64(cfg.ConvergeLimit), 32))
		then.Append(a.IfUnlikely(span, over, fail, nil))

		bump := a.Binary(span, ir.OpAdd, a.VarRefE(span, counter), a.Const(span, 1, 32))
		then.Append(a.Assign(span, counter, bump))

		then.AppendAll(makeBody())

		body.Append(a.If(span, a.TrigAny(span, vec), then, nil))
	})...)

	return evalLoop{counter: counter, stmts: stmts}
}
