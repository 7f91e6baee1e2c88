package sched

import (
	"strobe/internal/ir"
)

// createInputCombLoop builds the 'ico' region: a convergence loop over the
// combinational logic replicated for top-level inputs, run at the start of
// every `_eval` so input changes settle before clocked logic samples them.
// Returns the loop statements (nil when no logic reads inputs) and the
// trigger kit.
func createInputCombLoop(n *ir.Netlist, cfg Config, deps *Deps, initFunc *ir.Func, logic LogicByScope) ([]*ir.Stmt, *TriggerKit) {
	if logic.Empty() {
		return nil, nil
	}
	a := n.Arena

	dpiVar := n.DpiExportTrigger

	var extras ExtraTriggers
	firstIteration := extras.Allocate("first iteration")
	var dpiIndex uint32
	if dpiVar.IsValid() {
		dpiIndex = extras.Allocate("DPI export trigger")
	}

	senTrees := senTreesUsedBy(n, logic)
	kit := createTriggers(n, cfg, initFunc, deps.SenExpr, senTrees, "ico", &extras, false)

	if dpiVar.IsValid() {
		kit.AddDpiExportTrigger(n, dpiVar, dpiIndex)
	}

	remapSensitivities(n, logic, kit.Map)

	trigToSen := make(map[ir.SenTreeID]ir.SenTreeID)
	kit.Map.Invert(trigToSen)

	inputChanged := createTriggerSenTree(n, kit.Vec, firstIteration)
	var dpiExportTriggered ir.SenTreeID
	if dpiVar.IsValid() {
		dpiExportTriggered = createTriggerSenTree(n, kit.Vec, dpiIndex)
	}

	icoFunc := deps.Order(n, OrderRequest{
		Tag:       "ico",
		Logic:     []LogicByScope{logic},
		TrigToSen: trigToSen,
		ExtraDomains: func(v ir.VarID) []ir.SenTreeID {
			var out []ir.SenTreeID
			flags := n.Var(v).Flags
			if flags.Has(ir.VarInput) {
				out = append(out, inputChanged)
			}
			if dpiVar.IsValid() && flags.Has(ir.VarUsedByDPI) {
				out = append(out, dpiExportTriggered)
			}
			return out
		},
	})
	splitCheck(n, icoFunc, cfg.SplitThreshold)

	loop := makeEvalLoop(n, cfg, "ico", "Input combinational", kit.Vec, kit.Dump,
		func() []*ir.Stmt {
			return []*ir.Stmt{a.CallProc(icoFunc.Span, kit.Compute.ID)}
		},
		func() []*ir.Stmt {
			return []*ir.Stmt{a.CallProc(icoFunc.Span, icoFunc.ID)}
		})

	kit.AddFirstIterTrigger(n, loop.counter, firstIteration)

	return loop.stmts, kit
}
