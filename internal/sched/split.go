package sched

import (
	"fmt"

	"strobe/internal/ir"
)

// splitCheck spills an oversized procedure body into numbered sub-procedures
// called in sequence, keeping statement order. Statements are never split
// below top level, so one statement larger than the threshold still lands in
// a sub-procedure of its own. A threshold of zero disables splitting.
func splitCheck(n *ir.Netlist, funcp *ir.Func, threshold uint64) {
	if threshold == 0 || funcp == nil || funcp.Body.Empty() {
		return
	}
	if ir.CountNodes(funcp.Body) < threshold {
		return
	}

	a := n.Arena
	stmts := funcp.Body.TakeAll()
	var sub *ir.Func
	var subSize uint64
	num := 0
	for _, s := range stmts {
		size := ir.StmtNodeCount(s)
		if sub == nil || subSize+size > threshold {
			sub = n.NewFunc(funcp.Span, fmt.Sprintf("%s__%d", funcp.Name, num), funcp.Scope)
			sub.Slow = funcp.Slow
			funcp.Body.Append(a.CallProc(funcp.Span, sub.ID))
			subSize = 0
			num++
		}
		sub.Body.Append(s)
		subSize += size
	}
}
