package sched

import (
	"fmt"

	"strobe/internal/diag"
	"strobe/internal/ir"
)

// OrderRequest is the input handed to an ordering engine for one region
// family. Logic bodies are consumed (moved into the produced procedure);
// TrigToSen lets an engine recover the original sensitivity behind a
// trigger-bit one; ExtraDomains names additional remapped sensitivities
// under which a variable must count as externally written.
type OrderRequest struct {
	Tag          string
	Logic        []LogicByScope
	TrigToSen    map[ir.SenTreeID]ir.SenTreeID
	Parallel     bool
	Slow         bool
	ExtraDomains func(v ir.VarID) []ir.SenTreeID
}

// OrderFunc produces the `_eval_<tag>` procedure for a region family.
type OrderFunc func(n *ir.Netlist, req OrderRequest) *ir.Func

// BreakCyclesFunc splits combinational logic participating in feedback
// cycles off as hybrid logic (explicit change triggers). It receives the
// full combinational class and returns the remaining combinational blocks
// and the hybrid ones.
type BreakCyclesFunc func(n *ir.Netlist, comb LogicByScope) (LogicByScope, LogicByScope)

// PartitionFunc distributes clocked and combinational logic over the
// pre/act/nba regions.
type PartitionFunc func(n *ir.Netlist, clocked, comb, hybrid LogicByScope) LogicRegions

// ReplicateFunc clones combinational logic into the additional regions
// whose writes it must observe.
type ReplicateFunc func(n *ir.Netlist, regions *LogicRegions) LogicReplicas

// Deps bundles the collaborator seams of the scheduling pass. Zero fields
// fall back to the built-in defaults.
type Deps struct {
	BreakCycles BreakCyclesFunc
	Partition   PartitionFunc
	Replicate   ReplicateFunc
	Order       OrderFunc
	SenExpr     SenExprBuilder
	Reporter    diag.Reporter
}

func (d *Deps) fill(n *ir.Netlist) {
	if d.BreakCycles == nil {
		d.BreakCycles = defaultBreakCycles
	}
	if d.Partition == nil {
		d.Partition = defaultPartition
	}
	if d.Replicate == nil {
		d.Replicate = defaultReplicate
	}
	if d.Order == nil {
		d.Order = defaultOrder
	}
	if d.SenExpr == nil {
		d.SenExpr = NewSenExprBuilder(n)
	}
}

// defaultBreakCycles keeps all combinational logic as-is. Designs carrying
// genuine combinational cycles must mark them hybrid up front or install a
// real cycle breaker.
func defaultBreakCycles(_ *ir.Netlist, comb LogicByScope) (LogicByScope, LogicByScope) {
	return comb, nil
}

// defaultPartition sends clocked logic that writes any clock (a signal some
// sensitivity references) to the act region and all other clocked logic to
// nba; combinational and hybrid logic settles in act. Explicit region hints
// win over the write analysis.
func defaultPartition(n *ir.Netlist, clocked, comb, hybrid LogicByScope) LogicRegions {
	clocks := ir.NewSideTable[ir.VarID, struct{}]()
	for _, t := range n.SenTrees() {
		for i := range t.Items {
			sig := t.Items[i].Signal
			if sig == nil {
				continue
			}
			ir.WalkExprs(sig, func(e *ir.Expr) {
				if d, ok := e.Data.(ir.VarRefData); ok {
					clocks.Set(d.Var, struct{}{})
				}
			})
		}
	}

	var out LogicRegions
	for _, b := range clocked {
		switch b.Hint {
		case ir.HintPre:
			out.Pre.Add(b)
			continue
		case ir.HintAct:
			out.Act.Add(b)
			continue
		case ir.HintNba:
			out.Nba.Add(b)
			continue
		}
		writesClock := false
		ir.ForEachAssigned(b.Body, func(v ir.VarID) {
			if clocks.Has(v) {
				writesClock = true
			}
		})
		if writesClock {
			out.Act.Add(b)
		} else {
			out.Nba.Add(b)
		}
	}
	for _, b := range comb {
		out.Act.Add(b)
	}
	for _, b := range hybrid {
		out.Act.Add(b)
	}
	return out
}

// defaultReplicate clones combinational logic reading primary inputs into
// the input-combinational region, and combinational logic reading anything
// the nba region writes into the nba region, so every reader sees settled
// values.
func defaultReplicate(n *ir.Netlist, regions *LogicRegions) LogicReplicas {
	nbaWrites := ir.NewSideTable[ir.VarID, struct{}]()
	for _, b := range regions.Nba {
		ir.ForEachAssigned(b.Body, func(v ir.VarID) {
			nbaWrites.Set(v, struct{}{})
		})
	}

	clone := func(b *ir.LogicBlock) *ir.LogicBlock {
		copied := *b
		copied.Body = ir.CloneBlock(n.Arena, b.Body)
		return &copied
	}

	var out LogicReplicas
	for _, b := range regions.Act {
		if n.SenTree(b.Sen).Kind() != ir.SenKindComb {
			continue
		}
		readsInput, readsNba := false, false
		ir.WalkStmts(b.Body, func(s *ir.Stmt) {
			ir.StmtExprs(s, func(e *ir.Expr) {
				d, ok := e.Data.(ir.VarRefData)
				if !ok {
					return
				}
				if n.Var(d.Var).Flags.Has(ir.VarInput) {
					readsInput = true
				}
				if nbaWrites.Has(d.Var) {
					readsNba = true
				}
			})
		})
		if readsInput {
			out.Ico.Add(clone(b))
		}
		if readsNba {
			out.Nba.Add(clone(b))
		}
	}
	return out
}

// defaultOrder serializes logic in encounter order into `_eval_<tag>`.
// Trigger-mapped blocks run guarded by their bit tests; combinational
// blocks run unguarded on every pass of the region loop, which is correct
// for idempotent logic and what keeps convergence observable. Suspendable
// bodies become coroutine procedures invoked under the same guard.
func defaultOrder(n *ir.Netlist, req OrderRequest) *ir.Func {
	a := n.Arena
	funcp := makeSubFunc(n, "_eval_"+req.Tag, req.Slow)
	seq := 0
	for _, lbs := range req.Logic {
		for _, b := range lbs {
			guard := senGuardExpr(n, b.Sen)
			var stmts []*ir.Stmt
			if b.Suspendable {
				co := n.NewFunc(b.Span, fmt.Sprintf("%s__co__%d", funcp.Name, seq), b.Scope)
				seq++
				co.Coroutine = true
				co.Body.AppendAll(b.Body.TakeAll())
				stmts = []*ir.Stmt{a.CallProc(b.Span, co.ID)}
			} else {
				stmts = b.Body.TakeAll()
			}
			if guard == nil {
				funcp.Body.AppendAll(stmts)
				continue
			}
			then := a.NewBlock()
			then.AppendAll(stmts)
			funcp.Body.Append(a.If(b.Span, guard, then, nil))
		}
	}
	return funcp
}

// senGuardExpr builds the run condition for a block whose sensitivity was
// remapped onto trigger bits: the OR of its bit tests. Combinational
// sensitivities return nil (no guard). Anything else here is a pass bug.
func senGuardExpr(n *ir.Netlist, sen ir.SenTreeID) *ir.Expr {
	t := n.SenTree(sen)
	if t.HasCombo() {
		return nil
	}
	a := n.Arena
	var guard *ir.Expr
	for i := range t.Items {
		item := &t.Items[i]
		if item.Kind != ir.SenTrue {
			panic(fmt.Sprintf("sched: unmapped %s sensitivity @%d reached ordering", item.Kind, sen))
		}
		test := ir.CloneExpr(a, item.Signal)
		if guard == nil {
			guard = test
		} else {
			guard = a.Binary(t.Span, ir.OpOr, guard, test)
		}
	}
	return guard
}
