package sched

import (
	"strobe/internal/ir"
	"strobe/internal/source"
)

// EvalKit is one region's contribution to `_eval`: its trigger vector, the
// trigger computation procedure (act only; the other regions latch act's
// bits), the dump procedure, and the ordered region body.
type EvalKit struct {
	Vec     ir.VarID
	Compute *ir.Func
	Dump    *ir.Func
	Func    *ir.Func
}

func trigClearStmt(n *ir.Netlist, span source.Span, vec ir.VarID) *ir.Stmt {
	a := n.Arena
	return a.ExprStmt(a.MethodCall(span, vec, ir.MethodClear))
}

func trigLatchStmt(n *ir.Netlist, span source.Span, to, from ir.VarID) *ir.Stmt {
	a := n.Arena
	return a.ExprStmt(a.MethodCall(span, to, ir.MethodThisOr, a.VarRefE(span, from)))
}

func trigAndNotStmt(n *ir.Netlist, span source.Span, lhs, aVec, bVec ir.VarID) *ir.Stmt {
	a := n.Arena
	call := a.MethodCall(span, lhs, ir.MethodAndNot, a.VarRefE(span, aVec), a.VarRefE(span, bVec))
	return a.ExprStmt(call)
}

// createEval assembles the top-level `_eval` procedure. The regions nest:
// each outer region's trigger step clears its own vector and runs the whole
// inner loop, and each inner body latches its fired bits into the next
// outer vector, so an outer region runs once per inner convergence with the
// union of everything that fired inside.
func createEval(
	n *ir.Netlist,
	cfg Config,
	icoLoop []*ir.Stmt,
	actKit EvalKit,
	preVec ir.VarID,
	nbaKit EvalKit,
	obsKit EvalKit,
	reactKit EvalKit,
	postponed *ir.Func,
	timing *TimingKit,
) *ir.Func {
	a := n.Arena
	span := source.Span{}

	funcp := makeTopFunc(n, "_eval", false)
	n.Eval = funcp.ID

	funcp.Body.AppendAll(icoLoop)

	actLoop := makeEvalLoop(n, cfg, "act", "Active", actKit.Vec, actKit.Dump,
		func() []*ir.Stmt {
			stmts := []*ir.Stmt{a.CallProc(span, actKit.Compute.ID)}
			// Commit trigger awaits from the previous iteration.
			if commit := timing.createCommit(n); commit != nil {
				stmts = append(stmts, a.CallProc(span, commit.ID))
			}
			return stmts
		},
		func() []*ir.Stmt {
			// Pre fires for bits active this pass but not yet latched: act
			// AND NOT nba.
			stmts := []*ir.Stmt{trigAndNotStmt(n, span, preVec, actKit.Vec, nbaKit.Vec)}
			stmts = append(stmts, trigLatchStmt(n, span, nbaKit.Vec, actKit.Vec))
			if resume := timing.createResume(n); resume != nil {
				stmts = append(stmts, a.CallProc(span, resume.ID))
			}
			stmts = append(stmts, a.CallProc(span, actKit.Func.ID))
			return stmts
		})

	topLoop := makeEvalLoop(n, cfg, "nba", "NBA", nbaKit.Vec, nbaKit.Dump,
		func() []*ir.Stmt {
			stmts := []*ir.Stmt{trigClearStmt(n, span, nbaKit.Vec)}
			return append(stmts, actLoop.stmts...)
		},
		func() []*ir.Stmt {
			stmts := []*ir.Stmt{a.CallProc(span, nbaKit.Func.ID)}
			next := obsKit.Vec
			if !next.IsValid() {
				next = reactKit.Vec
			}
			if next.IsValid() {
				stmts = append(stmts, trigLatchStmt(n, span, next, nbaKit.Vec))
			}
			return stmts
		})

	if obsKit.Func != nil {
		topLoop = makeEvalLoop(n, cfg, "obs", "Observed", obsKit.Vec, obsKit.Dump,
			func() []*ir.Stmt {
				stmts := []*ir.Stmt{trigClearStmt(n, span, obsKit.Vec)}
				return append(stmts, topLoop.stmts...)
			},
			func() []*ir.Stmt {
				stmts := []*ir.Stmt{a.CallProc(span, obsKit.Func.ID)}
				if reactKit.Vec.IsValid() {
					stmts = append(stmts, trigLatchStmt(n, span, reactKit.Vec, obsKit.Vec))
				}
				return stmts
			})
	}

	if reactKit.Func != nil {
		topLoop = makeEvalLoop(n, cfg, "react", "Reactive", reactKit.Vec, reactKit.Dump,
			func() []*ir.Stmt {
				stmts := []*ir.Stmt{trigClearStmt(n, span, reactKit.Vec)}
				return append(stmts, topLoop.stmts...)
			},
			func() []*ir.Stmt {
				return []*ir.Stmt{a.CallProc(span, reactKit.Func.ID)}
			})
	}

	funcp.Body.AppendAll(topLoop.stmts)

	if postponed != nil {
		funcp.Body.Append(a.CallProc(span, postponed.ID))
	}
	return funcp
}
