package sched

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"strobe/internal/ir"
	"strobe/internal/source"
)

// u32 converts a non-negative count; anything out of range is a pass bug.
func u32(v int) uint32 {
	out, err := safecast.Conv[uint32](v)
	if err != nil {
		panic(fmt.Sprintf("sched: %v", err))
	}
	return out
}

// ExtraTriggers allocates synthetic trigger bits (first iteration, DPI
// export). Synthetic bits always occupy the lowest indices, ahead of every
// sensitivity-derived bit.
type ExtraTriggers struct {
	descriptions []string
}

// Allocate reserves the next synthetic bit and returns its index.
func (x *ExtraTriggers) Allocate(description string) uint32 {
	index := u32(len(x.descriptions))
	x.descriptions = append(x.descriptions, description)
	return index
}

// Size returns the number of synthetic bits.
func (x *ExtraTriggers) Size() uint32 {
	return u32(len(x.descriptions))
}

// Description returns the human-readable description of one synthetic bit.
func (x *ExtraTriggers) Description(index uint32) string {
	return x.descriptions[index]
}

// TrigMap records how original sensitivities were remapped onto bits of one
// trigger vector: for each original tree, the assigned bit index and the
// single-item replacement tree testing that bit.
type TrigMap struct {
	Vec ir.VarID

	order  []ir.SenTreeID
	mapped map[ir.SenTreeID]ir.SenTreeID
	index  map[ir.SenTreeID]uint32
}

func newTrigMap(vec ir.VarID) *TrigMap {
	return &TrigMap{
		Vec:    vec,
		mapped: make(map[ir.SenTreeID]ir.SenTreeID),
		index:  make(map[ir.SenTreeID]uint32),
	}
}

func (m *TrigMap) add(orig, mapped ir.SenTreeID, index uint32) {
	m.order = append(m.order, orig)
	m.mapped[orig] = mapped
	m.index[orig] = index
}

// Remap returns the bit-test replacement for an original sensitivity.
func (m *TrigMap) Remap(orig ir.SenTreeID) (ir.SenTreeID, bool) {
	mapped, ok := m.mapped[orig]
	return mapped, ok
}

// Index returns the bit index assigned to an original sensitivity.
func (m *TrigMap) Index(orig ir.SenTreeID) (uint32, bool) {
	i, ok := m.index[orig]
	return i, ok
}

// Invert accumulates the mapped-to-original relation into inv, for handing
// ordering engines a way back from trigger sensitivities to source ones.
func (m *TrigMap) Invert(inv map[ir.SenTreeID]ir.SenTreeID) {
	for _, orig := range m.order {
		inv[m.mapped[orig]] = orig
	}
}

// CloneWithVec builds a map with identical bit assignments whose replacement
// trees test another vector. Regions sharing the act bit layout (pre, nba,
// obs, react) read their own latched copies this way.
func (m *TrigMap) CloneWithVec(n *ir.Netlist, vec ir.VarID) *TrigMap {
	out := newTrigMap(vec)
	for _, orig := range m.order {
		index := m.index[orig]
		out.add(orig, createTriggerSenTree(n, vec, index), index)
	}
	return out
}

// createTriggerSenTree registers a single-item sensitivity firing when the
// given bit of the vector is set.
func createTriggerSenTree(n *ir.Netlist, vec ir.VarID, index uint32) ir.SenTreeID {
	span := n.Var(vec).Span
	return n.NewSenTree(span, ir.SenItem{
		Kind:   ir.SenTrue,
		Signal: n.Arena.BitTest(span, vec, index),
	})
}

// TriggerKit is everything createTriggers produces for one region family:
// the vector, the compute and dump procedures, the sensitivity remapping,
// and per-bit descriptions in index order.
type TriggerKit struct {
	Vec     ir.VarID
	Compute *ir.Func
	Dump    *ir.Func
	Map     *TrigMap
	Descs   []string
}

// AddFirstIterTrigger makes the given synthetic bit fire exactly when the
// loop counter is still zero.
func (k *TriggerKit) AddFirstIterTrigger(n *ir.Netlist, counter ir.VarID, index uint32) {
	a := n.Arena
	span := n.Var(counter).Span
	cond := a.Binary(span, ir.OpEq, a.VarRefE(span, counter), a.Const(span, 0, 32))
	k.Compute.Body.Prepend(setTrigStmt(n, k.Vec, index, cond))
}

// AddDpiExportTrigger makes the given synthetic bit mirror the DPI export
// flag, clearing the flag in the same pass.
func (k *TriggerKit) AddDpiExportTrigger(n *ir.Netlist, dpiVar ir.VarID, index uint32) {
	a := n.Arena
	span := n.Var(dpiVar).Span
	k.Compute.Body.Prepend(a.Assign(span, dpiVar, a.Const(span, 0, 1)))
	k.Compute.Body.Prepend(setTrigStmt(n, k.Vec, index, a.VarRefE(span, dpiVar)))
}

func setTrigStmt(n *ir.Netlist, vec ir.VarID, index uint32, val *ir.Expr) *ir.Stmt {
	a := n.Arena
	span := n.Var(vec).Span
	call := a.MethodCall(span, vec, ir.MethodSet, a.Const(span, uint64(index), 32), val)
	return a.ExprStmt(call)
}

func ensureDebugEnable(n *ir.Netlist) ir.VarID {
	if !n.DebugEnable.IsValid() {
		n.DebugEnable = n.NewVar(source.Span{}, n.TopScope, "__Vm_debug_on", 1, 0)
	}
	return n.DebugEnable
}

// debugDumpCall builds `if (__Vm_debug_on) _dump_triggers__<tag>();` with an
// unlikely branch.
func debugDumpCall(n *ir.Netlist, dump *ir.Func) *ir.Stmt {
	a := n.Arena
	dbg := ensureDebugEnable(n)
	span := dump.Span
	then := a.NewBlock()
	then.Append(a.CallProc(span, dump.ID))
	return a.IfUnlikely(span, a.VarRefE(span, dbg), then, nil)
}

// createTriggers builds the trigger vector and kit for one region family.
// Bit numbering: synthetic bits first, then one bit per sensitivity in the
// given encounter order. The compute procedure re-evaluates every bit from
// scratch each call; the dump procedure prints active bits and is built
// bodyless under the identifier-protection policy.
func createTriggers(
	n *ir.Netlist,
	cfg Config,
	initFunc *ir.Func,
	senb SenExprBuilder,
	senTrees []ir.SenTreeID,
	tag string,
	extras *ExtraTriggers,
	slow bool,
) *TriggerKit {
	a := n.Arena
	span := source.Span{}

	nTriggers := extras.Size() + u32(len(senTrees))
	vec := n.NewVar(span, n.TopScope, "__V"+tag+"Triggered", nTriggers, ir.VarTrigVec)

	compute := makeSubFunc(n, "_eval_triggers__"+tag, slow)
	dump := makeSubFunc(n, "_dump_triggers__"+tag, true)

	kit := &TriggerKit{Vec: vec, Compute: compute, Dump: dump, Map: newTrigMap(vec)}

	addDump := func(index uint32, text string) {
		kit.Descs = append(kit.Descs, text)
		if cfg.ProtectIds {
			return
		}
		msg := fmt.Sprintf("'%s' region trigger index %d is active", tag, index)
		if text != "" {
			msg += ": " + text
		}
		then := a.NewBlock()
		then.Append(a.DebugPrint(span, msg))
		dump.Body.Append(a.If(span, a.BitTest(span, vec, index), then, nil))
	}

	if !cfg.ProtectIds {
		quiet := a.NewBlock()
		quiet.Append(a.DebugPrint(span, "No triggers active"))
		dump.Body.Append(a.If(span, a.Unary(span, ir.OpNot, a.TrigAny(span, vec)), quiet, nil))
	}

	for i := uint32(0); i < extras.Size(); i++ {
		addDump(i, fmt.Sprintf("Internal '%s' trigger - %s", tag, extras.Description(i)))
	}

	triggerNumber := extras.Size()
	var initialTrigs []*ir.Stmt
	for _, id := range senTrees {
		t := n.SenTree(id)
		if !t.HasClocked() && !t.HasHybrid() {
			panic(fmt.Sprintf("sched: cannot create trigger expression for non-clocked sensitivity @%d", id))
		}

		kit.Map.add(id, createTriggerSenTree(n, vec, triggerNumber), triggerNumber)

		se := senb.Build(t)
		compute.Body.Append(setTrigStmt(n, vec, triggerNumber, se.Expr))
		if se.FiresAtInit || cfg.XInitialEdge {
			initialTrigs = append(initialTrigs, setTrigStmt(n, vec, triggerNumber, a.ConstBool(span, true)))
		}

		addDump(triggerNumber, ir.SenText(n, t))
		triggerNumber++
	}

	initFunc.Body.AppendAll(senb.TakeInits())
	compute.Body.AppendAll(senb.TakePostUpdates())
	pres := senb.TakePreUpdates()
	for i := len(pres) - 1; i >= 0; i-- {
		compute.Body.Prepend(pres[i])
	}

	// Sensitivities whose first evaluation counts as active get their bits
	// forced once, guarded by a did-init flag.
	if len(initialTrigs) > 0 {
		didInit := n.NewVar(span, n.TopScope, "__V"+tag+"DidInit", 1, 0)
		then := a.NewBlock()
		then.Append(a.Assign(span, didInit, a.ConstBool(span, true)))
		then.AppendAll(initialTrigs)
		cond := a.Unary(span, ir.OpNot, a.VarRefE(span, didInit))
		compute.Body.Append(a.IfUnlikely(span, cond, then, nil))
	}

	compute.Body.Append(debugDumpCall(n, dump))

	return kit
}

// cloneDumpForVec copies a dump procedure for a region that shares the act
// bit layout, retargeting vector reads and renaming the region tag in the
// printed text.
func cloneDumpForVec(n *ir.Netlist, dump *ir.Func, fromTag, toTag string, fromVec, toVec ir.VarID) *ir.Func {
	out := makeSubFunc(n, "_dump_triggers__"+toTag, true)
	out.Body = ir.CloneBlock(n.Arena, dump.Body)
	retargetVec(out.Body, fromVec, toVec)
	from := "'" + fromTag + "'"
	to := "'" + toTag + "'"
	ir.WalkStmts(out.Body, func(s *ir.Stmt) {
		if d, ok := s.Data.(ir.DebugPrintData); ok {
			s.Data = ir.DebugPrintData{Text: strings.Replace(d.Text, from, to, 1)}
		}
	})
	return out
}

// retargetVec rewrites every read of one trigger vector in the block to
// another vector, covering both method receivers and direct reads.
func retargetVec(b *ir.Block, from, to ir.VarID) {
	ir.WalkStmts(b, func(s *ir.Stmt) {
		ir.StmtExprs(s, func(e *ir.Expr) {
			switch d := e.Data.(type) {
			case ir.VarRefData:
				if d.Var == from {
					e.Data = ir.VarRefData{Var: to}
				}
			case ir.MethodCallData:
				if d.Recv == from {
					d.Recv = to
					e.Data = d
				}
			}
		})
	})
}
