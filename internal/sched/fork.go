package sched

import (
	"fmt"
	"strings"

	"strobe/internal/diag"
	"strobe/internal/ir"
	"strobe/internal/source"
)

// transformForks splits every fork branch containing a suspension point
// into its own coroutine procedure and replaces the fork with direct calls
// (the parent must not suspend when a child does; join synchronization, when
// wanted, is explicit logic in the branch bodies). Branches without awaits
// are inlined. Runs after scheduling so it also covers the generated
// coroutines; newly created procedures are scanned too, which handles forks
// nested inside forks.
func transformForks(n *ir.Netlist, r diag.Reporter) {
	for i := 0; i < len(n.Funcs()); i++ {
		transformForksInFunc(n, r, n.Funcs()[i])
	}
}

type forkSite struct {
	block *ir.Block
	stmt  *ir.Stmt
}

func transformForksInFunc(n *ir.Netlist, r diag.Reporter, f *ir.Func) {
	var sites []forkSite
	var scan func(b *ir.Block)
	scan = func(b *ir.Block) {
		for _, s := range b.Stmts() {
			if _, ok := s.Data.(ir.ForkData); ok {
				// Forks inside the branches move out with them and are
				// picked up when their new procedure is scanned.
				sites = append(sites, forkSite{block: b, stmt: s})
				continue
			}
			for _, nested := range ir.NestedBlocks(s) {
				scan(nested)
			}
		}
	}
	scan(f.Body)

	for _, site := range sites {
		d := site.stmt.Data.(ir.ForkData)
		var repl []*ir.Stmt
		for bi := range d.Branches {
			br := &d.Branches[bi]
			if ir.HasAwait(br.Body) {
				repl = append(repl, extractForkBranch(n, r, f, br, d.Join))
			} else {
				repl = append(repl, br.Body.TakeAll()...)
			}
		}
		site.block.Replace(site.stmt, repl...)
	}
}

// extractForkBranch moves one awaiting branch into a coroutine procedure and
// returns the call replacing it. References to the parent's locals are
// turned into arguments: fork synchronization handles and intra-statement
// temporaries pass by value, everything else by reference — which is only
// legal when the parent waits for the branch (join), since otherwise the
// local may die while the branch still runs.
func extractForkBranch(n *ir.Netlist, r diag.Reporter, parent *ir.Func, br *ir.ForkBranch, join ir.JoinKind) *ir.Stmt {
	a := n.Arena
	if br.Name == "" {
		panic("sched: fork branch needs a name")
	}
	var span source.Span
	if stmts := br.Body.Stmts(); len(stmts) > 0 {
		span = stmts[0].Span
	}

	scope := n.NewScope(parent.Scope, br.Name)
	co := n.NewFunc(span, n.Names.Get(br.Name), scope)
	co.Coroutine = true
	co.Slow = parent.Slow
	co.Body.AppendAll(br.Body.TakeAll())

	remap := ir.NewSideTable[ir.VarID, ir.VarID]()
	escaped := ir.NewSideTable[ir.VarID, struct{}]()
	var callArgs []*ir.Expr

	capture := func(v ir.VarID, at *ir.Stmt) (ir.VarID, bool) {
		if mapped, ok := remap.Get(v); ok {
			return mapped, true
		}
		src := n.Var(v)
		byValue := src.Flags.Has(ir.VarForkSync) || strings.HasPrefix(src.Name, "__Vintra")
		if !byValue {
			if !src.Flags.Has(ir.VarFuncLocal) {
				return v, false // outlives the process, access directly
			}
			if br.Scope.IsValid() && src.Scope == br.Scope {
				return v, false // declared inside this branch
			}
			if join != ir.JoinAll {
				if escaped.SetOnce(v, struct{}{}) {
					diag.ReportError(r, diag.SchForkEscape, at.Span,
						fmt.Sprintf("variable %q local to a forking process accessed in a fork..%s branch", src.Name, join)).
						WithNote(src.Span, "declared here").
						Emit()
				}
				return v, false
			}
		}
		arg := n.NewVar(src.Span, scope, src.Name, src.Width, src.Flags|ir.VarFuncLocal)
		n.Var(arg).Sched = src.Sched
		co.Args = append(co.Args, ir.Arg{Var: arg, ByRef: !byValue})
		callArgs = append(callArgs, a.VarRefE(at.Span, v))
		remap.Set(v, arg)
		return arg, true
	}

	ir.WalkStmts(co.Body, func(s *ir.Stmt) {
		switch d := s.Data.(type) {
		case ir.AssignData:
			if mapped, ok := capture(d.Lhs, s); ok {
				d.Lhs = mapped
				s.Data = d
			}
		case ir.AwaitData:
			if mapped, ok := capture(d.Scheduler, s); ok {
				d.Scheduler = mapped
				s.Data = d
			}
		}
		ir.StmtExprs(s, func(e *ir.Expr) {
			switch d := e.Data.(type) {
			case ir.VarRefData:
				if mapped, ok := capture(d.Var, s); ok {
					e.Data = ir.VarRefData{Var: mapped}
				}
			case ir.MethodCallData:
				if mapped, ok := capture(d.Recv, s); ok {
					d.Recv = mapped
					e.Data = d
				}
			}
		})
	})

	return a.CallProc(span, co.ID, callArgs...)
}
