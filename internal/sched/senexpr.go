package sched

import (
	"fmt"

	"strobe/internal/ir"
	"strobe/internal/source"
)

// SenExpr is the result of building one sensitivity condition: a boolean
// expression that is true when the condition fires this pass, plus whether
// the first evaluation must count as active.
type SenExpr struct {
	Expr        *ir.Expr
	FiresAtInit bool
}

// SenExprBuilder turns sensitivity conditions into trigger expressions.
// Builders accumulate supporting statements as they go: one-time state
// initialization (sampled after the initial procedures ran), per-pass
// pre-updates prepended to the trigger compute procedure, and post-updates
// appended to it. Take* methods hand the accumulated statements over and
// reset the builder for the next trigger kit.
type SenExprBuilder interface {
	Build(t *ir.SenTree) SenExpr
	TakeInits() []*ir.Stmt
	TakePreUpdates() []*ir.Stmt
	TakePostUpdates() []*ir.Stmt
}

// prevValueBuilder is the default SenExprBuilder. It detects edges and
// changes against a previous-value shadow variable per distinct signal:
//
//	posedge  s:  s & ~prev & 1
//	negedge  s: ~s &  prev & 1
//	bothedge s: (s ^ prev) & 1
//	changed  s:  s != prev
//
// One builder serves every trigger kit, so there is a single set of shadow
// variables. Shadows are seeded once after initialization (startup values
// never count as edges); each kit whose compute procedure tests a shadow
// gets its own refresh statement for it.
type prevValueBuilder struct {
	n     *ir.Netlist
	prevs []prevEntry

	inits     []*ir.Stmt
	posts     []*ir.Stmt
	refreshed map[ir.VarID]bool
}

type prevEntry struct {
	sig  *ir.Expr
	prev ir.VarID
}

// NewSenExprBuilder returns the default previous-value builder.
func NewSenExprBuilder(n *ir.Netlist) SenExprBuilder {
	return &prevValueBuilder{n: n, refreshed: make(map[ir.VarID]bool)}
}

func (b *prevValueBuilder) Build(t *ir.SenTree) SenExpr {
	a := b.n.Arena
	var expr *ir.Expr
	fires := false
	for i := range t.Items {
		item := &t.Items[i]
		one := b.itemExpr(t.Span, item)
		if expr == nil {
			expr = one
		} else {
			expr = a.Binary(t.Span, ir.OpOr, expr, one)
		}
		if item.Kind == ir.SenChanged || item.Kind == ir.SenHybrid {
			fires = true
		}
	}
	if expr == nil {
		panic(fmt.Sprintf("sched: no trigger expression for sensitivity @%d (%s)", t.ID, t.Kind()))
	}
	return SenExpr{Expr: expr, FiresAtInit: fires}
}

func (b *prevValueBuilder) itemExpr(span source.Span, item *ir.SenItem) *ir.Expr {
	a := b.n.Arena
	switch item.Kind {
	case ir.SenTrue:
		return ir.CloneExpr(a, item.Signal)
	case ir.SenPosedge:
		sig, prev := b.signalAndPrev(span, item.Signal)
		edge := a.Binary(span, ir.OpAnd, sig, a.Unary(span, ir.OpBitNot, prev))
		return a.Binary(span, ir.OpAnd, edge, a.Const(span, 1, 64))
	case ir.SenNegedge:
		sig, prev := b.signalAndPrev(span, item.Signal)
		edge := a.Binary(span, ir.OpAnd, a.Unary(span, ir.OpBitNot, sig), prev)
		return a.Binary(span, ir.OpAnd, edge, a.Const(span, 1, 64))
	case ir.SenBothedge:
		sig, prev := b.signalAndPrev(span, item.Signal)
		edge := a.Binary(span, ir.OpXor, sig, prev)
		return a.Binary(span, ir.OpAnd, edge, a.Const(span, 1, 64))
	case ir.SenChanged, ir.SenHybrid:
		sig, prev := b.signalAndPrev(span, item.Signal)
		return a.Binary(span, ir.OpNe, sig, prev)
	default:
		panic(fmt.Sprintf("sched: cannot build a trigger expression for %s sensitivity", item.Kind))
	}
}

// signalAndPrev returns a fresh read of the signal and of its shadow,
// allocating the shadow on first sight of a structurally equal signal.
func (b *prevValueBuilder) signalAndPrev(span source.Span, sig *ir.Expr) (*ir.Expr, *ir.Expr) {
	a := b.n.Arena
	prev := ir.NoVarID
	for _, e := range b.prevs {
		if ir.ExprSame(e.sig, sig) {
			prev = e.prev
			break
		}
	}
	if !prev.IsValid() {
		prev = b.n.NewVar(span, b.n.TopScope, b.n.Names.Get(prevName(b.n, sig)), b.exprWidth(sig), 0)
		b.prevs = append(b.prevs, prevEntry{sig: sig, prev: prev})
		b.inits = append(b.inits, a.Assign(span, prev, ir.CloneExpr(a, sig)))
	}
	if !b.refreshed[prev] {
		b.refreshed[prev] = true
		b.posts = append(b.posts, a.Assign(span, prev, ir.CloneExpr(a, sig)))
	}
	return ir.CloneExpr(a, sig), a.VarRefE(span, prev)
}

func (b *prevValueBuilder) exprWidth(e *ir.Expr) uint32 {
	if d, ok := e.Data.(ir.VarRefData); ok {
		return b.n.Var(d.Var).Width
	}
	return 64
}

func prevName(n *ir.Netlist, sig *ir.Expr) string {
	if d, ok := sig.Data.(ir.VarRefData); ok {
		return "__Vtrigprev__" + n.Var(d.Var).Name
	}
	return "__Vtrigprev__expr"
}

func (b *prevValueBuilder) TakeInits() []*ir.Stmt {
	out := b.inits
	b.inits = nil
	return out
}

func (b *prevValueBuilder) TakePreUpdates() []*ir.Stmt { return nil }

func (b *prevValueBuilder) TakePostUpdates() []*ir.Stmt {
	out := b.posts
	b.posts = nil
	b.refreshed = make(map[ir.VarID]bool)
	return out
}
