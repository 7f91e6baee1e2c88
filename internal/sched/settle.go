package sched

import (
	"strobe/internal/ir"
)

// createSettle builds `_eval_settle`: a convergence loop running all
// combinational and hybrid logic until quiescent, executed once at
// initialization to establish consistent values before the first `_eval`.
// The logic is cloned because ordering consumes bodies and the same blocks
// are ordered again for the act region.
func createSettle(n *ir.Netlist, cfg Config, deps *Deps, initFunc *ir.Func, classes *LogicClasses) (*ir.Func, *TriggerKit) {
	a := n.Arena
	funcp := makeTopFunc(n, "_eval_settle", true)

	comb := classes.Comb.Clone(n)
	hybrid := classes.Hybrid.Clone(n)

	// An empty shell keeps the entry point present for small designs.
	if comb.Empty() && hybrid.Empty() {
		return funcp, nil
	}

	var extras ExtraTriggers
	firstIteration := extras.Allocate("first iteration")

	senTrees := senTreesUsedBy(n, comb, hybrid)
	kit := createTriggers(n, cfg, initFunc, deps.SenExpr, senTrees, "stl", &extras, true)

	// Combinational blocks carry no clocked condition, so only the hybrid
	// ones get remapped onto trigger bits.
	remapSensitivities(n, hybrid, kit.Map)

	trigToSen := make(map[ir.SenTreeID]ir.SenTreeID)
	kit.Map.Invert(trigToSen)

	inputChanged := createTriggerSenTree(n, kit.Vec, firstIteration)

	stlFunc := deps.Order(n, OrderRequest{
		Tag:       "stl",
		Logic:     []LogicByScope{comb, hybrid},
		TrigToSen: trigToSen,
		Slow:      true,
		ExtraDomains: func(ir.VarID) []ir.SenTreeID {
			// Everything counts as changed on the first pass.
			return []ir.SenTreeID{inputChanged}
		},
	})
	splitCheck(n, stlFunc, cfg.SplitThreshold)

	loop := makeEvalLoop(n, cfg, "stl", "Settle", kit.Vec, kit.Dump,
		func() []*ir.Stmt {
			return []*ir.Stmt{a.CallProc(stlFunc.Span, kit.Compute.ID)}
		},
		func() []*ir.Stmt {
			return []*ir.Stmt{a.CallProc(stlFunc.Span, stlFunc.ID)}
		})

	kit.AddFirstIterTrigger(n, loop.counter, firstIteration)

	funcp.Body.AppendAll(loop.stmts)
	return funcp, kit
}
