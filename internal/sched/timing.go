package sched

import (
	"fmt"

	"strobe/internal/ir"
	"strobe/internal/source"
)

// TimingKit carries everything suspendable processes contribute to the
// evaluation loop: one resume active per distinct await sensitivity, post
// update calls for dynamic schedulers, and the sensitivity domains under
// which variables written by suspendable code must count as externally
// written. The resume and commit procedures are built on first use.
type TimingKit struct {
	lbs         LogicByScope
	postUpdates []*ir.Stmt

	externalDomains *ir.SideTable[ir.VarID, []ir.SenTreeID]
	domainVars      []ir.VarID // key order for deterministic remapping

	resumeFunc *ir.Func
	commitFunc *ir.Func
}

// Empty reports whether the design has no suspension points at all.
func (k *TimingKit) Empty() bool {
	return k.lbs.Empty() && len(k.postUpdates) == 0 && len(k.domainVars) == 0
}

// RemapDomains rewrites the external domains through the trigger map of the
// act region. Every domain must have been assigned a bit; a miss means the
// act trigger kit was built without the timing sensitivities.
func (k *TimingKit) RemapDomains(n *ir.Netlist, m *TrigMap) map[ir.VarID][]ir.SenTreeID {
	out := make(map[ir.VarID][]ir.SenTreeID, len(k.domainVars))
	for _, v := range k.domainVars {
		domains, _ := k.externalDomains.Get(v)
		remapped := make([]ir.SenTreeID, 0, len(domains))
		for _, sen := range domains {
			mapped, ok := m.Remap(sen)
			if !ok {
				panic(fmt.Sprintf("sched: timing domain @%d missing from trigger map", sen))
			}
			remapped = append(remapped, mapped)
		}
		out[v] = remapped
	}
	return out
}

// createResume builds `_timing_resume` on first call: for every suspension
// sensitivity, resume the scheduler when its (remapped) condition fired
// this pass. Returns nil when the design never suspends.
func (k *TimingKit) createResume(n *ir.Netlist) *ir.Func {
	if k.resumeFunc == nil {
		if k.lbs.Empty() {
			return nil
		}
		a := n.Arena
		k.resumeFunc = makeSubFunc(n, "_timing_resume", false)
		for _, b := range k.lbs {
			guard := senGuardExpr(n, b.Sen)
			if guard == nil {
				panic(fmt.Sprintf("sched: resume active @%d has no trigger guard", b.Sen))
			}
			then := a.NewBlock()
			then.AppendAll(b.Body.TakeAll())
			k.resumeFunc.Body.Append(a.If(b.Span, guard, then, nil))
		}
	}
	return k.resumeFunc
}

// createCommit builds `_timing_commit` on first call: trigger schedulers
// whose condition did NOT fire this pass commit their uncommitted waiters,
// so a process that started waiting during this pass cannot react to the
// very trigger occurrence that preceded its wait. Other scheduler kinds
// need no commit; returns nil when no trigger schedulers exist.
func (k *TimingKit) createCommit(n *ir.Netlist) *ir.Func {
	if k.commitFunc == nil {
		a := n.Arena
		for _, b := range k.lbs {
			kind := n.Var(k.schedulerOf(n, b)).Sched
			if !kind.IsScheduler() {
				panic(fmt.Sprintf("sched: resume active %q targets a non-scheduler", b.Name))
			}
			if kind != ir.SchedTrigger {
				continue
			}
			if k.commitFunc == nil {
				k.commitFunc = makeSubFunc(n, "_timing_commit", false)
			}
			guard := senGuardExpr(n, b.Sen)
			if guard == nil {
				panic(fmt.Sprintf("sched: commit active @%d has no trigger guard", b.Sen))
			}
			sched := k.schedulerOf(n, b)
			commit := a.MethodCall(b.Span, sched, ir.MethodCommit)
			then := a.NewBlock()
			then.Append(a.ExprStmt(commit))
			notFired := a.Unary(b.Span, ir.OpNot, guard)
			k.commitFunc.Body.Append(a.If(b.Span, notFired, then, nil))
		}
		if k.commitFunc == nil {
			return nil
		}
	}
	return k.commitFunc
}

// schedulerOf recovers the scheduler variable from a resume active, whose
// body is the single resume() call.
func (k *TimingKit) schedulerOf(n *ir.Netlist, b *ir.LogicBlock) ir.VarID {
	stmts := b.Body.Stmts()
	if len(stmts) != 1 {
		panic(fmt.Sprintf("sched: resume active %q should hold exactly the resume call", b.Name))
	}
	d, ok := stmts[0].Data.(ir.ExprStmtData)
	if !ok {
		panic(fmt.Sprintf("sched: resume active %q holds a non-call statement", b.Name))
	}
	call, ok := d.Expr.Data.(ir.MethodCallData)
	if !ok || call.Method != ir.MethodResume {
		panic(fmt.Sprintf("sched: resume active %q holds a non-resume call", b.Name))
	}
	return call.Recv
}

// prepareTiming scans every process for suspension points. Each distinct
// await sensitivity yields one resume active; dynamic schedulers also get a
// doPostUpdates call appended to the act trigger computation. Variables
// written by a suspendable process, or inside a fork of any process, are
// flagged and recorded with the process's await sensitivities as external
// domains, because their writes happen outside the statically ordered flow.
func prepareTiming(n *ir.Netlist) *TimingKit {
	kit := &TimingKit{externalDomains: ir.NewSideTable[ir.VarID, []ir.SenTreeID]()}
	a := n.Arena
	seenSen := ir.NewSideTable[ir.SenTreeID, struct{}]()

	addResumeActive := func(span source.Span, scheduler ir.VarID, sen ir.SenTreeID) {
		body := a.NewBlock()
		body.Append(a.ExprStmt(a.MethodCall(span, scheduler, ir.MethodResume)))
		block := &ir.LogicBlock{
			Name:  "_timing",
			Scope: n.TopScope,
			Kind:  ir.LogicAlways,
			Sen:   sen,
			Body:  body,
			Span:  span,
		}
		kit.lbs.Add(block)
		if n.Var(scheduler).Sched == ir.SchedDynamic {
			post := a.MethodCall(span, scheduler, ir.MethodDoPostUpdates)
			kit.postUpdates = append(kit.postUpdates, a.ExprStmt(post))
		}
	}

	for _, b := range n.Blocks {
		if b.Body == nil {
			continue
		}
		var processDomains []ir.SenTreeID
		var written []ir.VarID
		writtenSeen := ir.NewSideTable[ir.VarID, struct{}]()

		noteWrite := func(v ir.VarID) {
			if n.Var(v).Sched.IsScheduler() {
				return
			}
			if writtenSeen.SetOnce(v, struct{}{}) {
				written = append(written, v)
			}
		}

		var walk func(blk *ir.Block, gather bool)
		walk = func(blk *ir.Block, gather bool) {
			for _, s := range blk.Stmts() {
				switch d := s.Data.(type) {
				case ir.AwaitData:
					if d.Sen.IsValid() {
						if seenSen.SetOnce(d.Sen, struct{}{}) {
							addResumeActive(s.Span, d.Scheduler, d.Sen)
						}
						processDomains = append(processDomains, d.Sen)
					}
				case ir.ForkData:
					for _, br := range d.Branches {
						walk(br.Body, true)
					}
					continue
				}
				if gather {
					if d, ok := s.Data.(ir.AssignData); ok {
						noteWrite(d.Lhs)
					}
				}
				for _, nested := range ir.NestedBlocks(s) {
					walk(nested, gather)
				}
			}
		}
		walk(b.Body, b.Suspendable)

		for _, v := range written {
			n.Var(v).Flags |= ir.VarWrittenBySuspendable
			existing, had := kit.externalDomains.Get(v)
			if !had {
				kit.domainVars = append(kit.domainVars, v)
			}
			kit.externalDomains.Set(v, appendNewSens(existing, processDomains))
		}
	}
	return kit
}

// appendNewSens merges src into dst keeping first-seen order.
func appendNewSens(dst, src []ir.SenTreeID) []ir.SenTreeID {
	for _, sen := range src {
		dup := false
		for _, have := range dst {
			if have == sen {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, sen)
		}
	}
	return dst
}
