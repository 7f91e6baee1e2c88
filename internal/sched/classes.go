package sched

import (
	"fmt"

	"strobe/internal/ir"
)

// LogicByScope is an ordered bag of logic blocks. Blocks keep their bodies
// until consumed by ordering; each body is consumed exactly once.
type LogicByScope []*ir.LogicBlock

// Add appends a block.
func (lbs *LogicByScope) Add(b *ir.LogicBlock) {
	*lbs = append(*lbs, b)
}

// Empty reports whether the bag holds no blocks.
func (lbs LogicByScope) Empty() bool { return len(lbs) == 0 }

// Clone deep-copies every block body. Ordering is destructive, so phases
// that need the same logic twice (settle) work on a clone.
func (lbs LogicByScope) Clone(n *ir.Netlist) LogicByScope {
	if len(lbs) == 0 {
		return nil
	}
	out := make(LogicByScope, 0, len(lbs))
	for _, b := range lbs {
		copied := *b
		copied.Body = ir.CloneBlock(n.Arena, b.Body)
		out = append(out, &copied)
	}
	return out
}

// NodeCount sums the size of all block bodies in node-count units.
func (lbs LogicByScope) NodeCount() uint64 {
	var total uint64
	for _, b := range lbs {
		total += ir.CountNodes(b.Body)
	}
	return total
}

// LogicClasses buckets all logic in the design by what triggers its
// execution. Hybrid starts empty; BreakCycles moves combinational blocks
// participating in feedback cycles there.
type LogicClasses struct {
	Static  LogicByScope
	Initial LogicByScope
	Final   LogicByScope

	Comb    LogicByScope
	Clocked LogicByScope
	Hybrid  LogicByScope

	Postponed LogicByScope
	Observed  LogicByScope
	Reactive  LogicByScope
}

// LogicRegions is the partition of clocked and combinational logic into
// the pre/act/nba regions.
type LogicRegions struct {
	Pre LogicByScope
	Act LogicByScope
	Nba LogicByScope
}

// LogicReplicas holds combinational logic replicated into additional
// regions so every reader sees settled values.
type LogicReplicas struct {
	Ico LogicByScope
	Act LogicByScope
	Nba LogicByScope
}

// GatherClasses buckets every logic block in the design. Blocks with empty
// bodies are dropped.
func GatherClasses(n *ir.Netlist) LogicClasses {
	var out LogicClasses
	for _, b := range n.Blocks {
		if b.Body == nil || b.Body.Empty() {
			continue
		}
		t := n.SenTree(b.Sen)
		switch t.Kind() {
		case ir.SenKindStatic:
			assertSingleTerm(t, "static initializer")
			out.Static.Add(b)
		case ir.SenKindInitial:
			assertSingleTerm(t, "'initial' logic")
			out.Initial.Add(b)
		case ir.SenKindFinal:
			assertSingleTerm(t, "'final' logic")
			out.Final.Add(b)
		case ir.SenKindComb:
			assertSingleTerm(t, "combinational logic")
			if b.Kind == ir.LogicPostponed {
				out.Postponed.Add(b)
			} else {
				out.Comb.Add(b)
			}
		case ir.SenKindHybrid:
			out.Hybrid.Add(b)
		default:
			switch b.Kind {
			case ir.LogicObserved:
				out.Observed.Add(b)
			case ir.LogicReactive:
				out.Reactive.Add(b)
			default:
				out.Clocked.Add(b)
			}
		}
	}
	return out
}

func assertSingleTerm(t *ir.SenTree, what string) {
	if len(t.Items) > 1 {
		panic(fmt.Sprintf("sched: %s with additional sensitivities (sen @%d)", what, t.ID))
	}
}

// senTreesUsedBy returns the distinct clocked/hybrid sensitivities of the
// given logic, in encounter order. Bit assignment stability depends on
// this order.
func senTreesUsedBy(n *ir.Netlist, lbss ...LogicByScope) []ir.SenTreeID {
	seen := ir.NewSideTable[ir.SenTreeID, struct{}]()
	var out []ir.SenTreeID
	for _, lbs := range lbss {
		for _, b := range lbs {
			t := n.SenTree(b.Sen)
			if !seen.SetOnce(t.ID, struct{}{}) {
				continue
			}
			if t.HasClocked() || t.HasHybrid() {
				out = append(out, t.ID)
			}
		}
	}
	return out
}

// remapSensitivities rewrites every clocked/hybrid sensitivity through the
// trigger map. Combinational blocks keep their condition.
func remapSensitivities(n *ir.Netlist, lbs LogicByScope, m *TrigMap) {
	for _, b := range lbs {
		t := n.SenTree(b.Sen)
		if !t.HasClocked() && !t.HasHybrid() {
			continue
		}
		mapped, ok := m.Remap(b.Sen)
		if !ok {
			panic(fmt.Sprintf("sched: sensitivity @%d missing from trigger map", b.Sen))
		}
		b.Sen = mapped
	}
}
