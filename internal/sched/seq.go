package sched

import (
	"fmt"
	"strings"

	"strobe/internal/ir"
	"strobe/internal/source"
)

func makeSubFunc(n *ir.Netlist, name string, slow bool) *ir.Func {
	f := n.NewFunc(source.Span{}, name, n.TopScope)
	f.Slow = slow
	return f
}

func makeTopFunc(n *ir.Netlist, name string, slow bool) *ir.Func {
	f := makeSubFunc(n, name, slow)
	f.Entry = true
	return f
}

func scopeSuffix(n *ir.Netlist, scope ir.ScopeID) string {
	return strings.ReplaceAll(n.ScopePath(scope), ".", "__")
}

// orderSequentially emits the given logic in source order into funcp, one
// sub-procedure per scope. Suspendable bodies become coroutine procedures;
// an always-style suspendable loops forever, re-suspending at its awaits.
func orderSequentially(n *ir.Netlist, funcp *ir.Func, lbs LogicByScope) {
	a := n.Arena
	subFuncs := ir.NewSideTable[ir.ScopeID, *ir.Func]()
	counters := ir.NewSideTable[ir.ScopeID, uint32]()

	newSub := func(scope ir.ScopeID, name string) *ir.Func {
		sub := n.NewFunc(source.Span{}, name, scope)
		sub.Slow = funcp.Slow
		funcp.Body.Append(a.CallProc(source.Span{}, sub.ID))
		return sub
	}

	for _, b := range lbs {
		scope := b.Scope
		base := funcp.Name + "__" + scopeSuffix(n, scope)
		sub, ok := subFuncs.Get(scope)
		if !ok {
			sub = newSub(scope, base)
			subFuncs.Set(scope, sub)
		}
		if b.Suspendable {
			// The body suspends and resumes at runtime, so neither the
			// coroutine nor its caller may count as init-only.
			funcp.Slow = false
			seq := counters.GetOr(scope, 0)
			counters.Set(scope, seq+1)
			co := newSub(scope, fmt.Sprintf("%s__%d", base, seq))
			co.Coroutine = true
			if b.Kind == ir.LogicAlways {
				co.Slow = false
				body := a.NewBlock()
				body.AppendAll(b.Body.TakeAll())
				co.Body.Append(a.While(b.Span, a.ConstBool(b.Span, true), body))
			} else {
				co.Body.AppendAll(b.Body.TakeAll())
			}
		} else {
			sub.Body.AppendAll(b.Body.TakeAll())
		}
	}
}

func createStatic(n *ir.Netlist, cfg Config, classes *LogicClasses) *ir.Func {
	funcp := makeTopFunc(n, "_eval_static", true)
	orderSequentially(n, funcp, classes.Static)
	splitCheck(n, funcp, cfg.SplitThreshold)
	return funcp
}

func createInitial(n *ir.Netlist, classes *LogicClasses) *ir.Func {
	funcp := makeTopFunc(n, "_eval_initial", true)
	orderSequentially(n, funcp, classes.Initial)
	// Not split yet: trigger kits still add their init statements.
	return funcp
}

func createPostponed(n *ir.Netlist, cfg Config, classes *LogicClasses) *ir.Func {
	if classes.Postponed.Empty() {
		return nil
	}
	funcp := makeTopFunc(n, "_eval_postponed", true)
	orderSequentially(n, funcp, classes.Postponed)
	splitCheck(n, funcp, cfg.SplitThreshold)
	return funcp
}

func createFinal(n *ir.Netlist, cfg Config, classes *LogicClasses) *ir.Func {
	funcp := makeTopFunc(n, "_eval_final", true)
	orderSequentially(n, funcp, classes.Final)
	splitCheck(n, funcp, cfg.SplitThreshold)
	return funcp
}
