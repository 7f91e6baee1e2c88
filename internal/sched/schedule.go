package sched

import (
	"fmt"

	"strobe/internal/ir"
	"strobe/internal/source"
)

// DefaultConvergeLimit bounds convergence loop iterations when the config
// does not say otherwise.
const DefaultConvergeLimit = 100

// Config carries the code generation policies of the scheduling pass.
type Config struct {
	// ConvergeLimit is the iteration bound of every convergence loop; the
	// generated code dumps its trigger state and aborts past it. Zero means
	// DefaultConvergeLimit.
	ConvergeLimit uint32
	// SplitThreshold spills procedures above this node count into numbered
	// sub-procedures. Zero disables splitting.
	SplitThreshold uint64
	// ProtectIds keeps design identifiers out of generated debug code.
	ProtectIds bool
	// XInitialEdge makes edge sensitivities count the first evaluation as
	// an edge, like change sensitivities always do.
	XInitialEdge bool
	// Parallel asks the ordering engine for a parallel NBA procedure.
	Parallel bool
	// Stats enables measurement collection on the Result.
	Stats bool
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{ConvergeLimit: DefaultConvergeLimit}
}

// RegionTriggers describes one region family's trigger table: the vector
// variable and the description of each bit in index order. Regions latched
// from the act vector share its bit layout.
type RegionTriggers struct {
	Tag   string
	Vec   ir.VarID
	Descs []string
}

// Result reports what scheduling produced. Eval and EvalNBA are also set on
// the netlist itself.
type Result struct {
	Eval     ir.FuncID
	EvalNBA  ir.FuncID
	Triggers []RegionTriggers
	Stats    *Stats // nil unless Config.Stats
}

// Schedule transforms the event-driven netlist into statically scheduled
// procedures: `_eval_static`, `_eval_initial`, `_eval_settle`, `_eval_final`
// entry points plus a single `_eval` reproducing Active/NBA/Observed/
// Reactive/Postponed semantics through trigger vectors and convergence
// loops, with no runtime event queue. Recoverable design problems go to
// deps.Reporter; violated collaborator contracts panic.
func Schedule(n *ir.Netlist, deps Deps, cfg Config) (*Result, error) {
	if n == nil || !n.TopScope.IsValid() {
		return nil, fmt.Errorf("sched: netlist has no top scope")
	}
	if n.Eval.IsValid() {
		return nil, fmt.Errorf("sched: netlist %q is already scheduled", n.Name)
	}
	if cfg.ConvergeLimit == 0 {
		cfg.ConvergeLimit = DefaultConvergeLimit
	}
	deps.fill(n)
	rec := newStatsRecorder(cfg.Stats)
	span := source.Span{}

	// Suspension points first: resume actives, post updates, and external
	// domains for everything written by suspendable code.
	timing := prepareTiming(n)

	classes := GatherClasses(n)
	rec.addSize("size of class: static", classes.Static)
	rec.addSize("size of class: initial", classes.Initial)
	rec.addSize("size of class: final", classes.Final)
	rec.stage("gather")

	createStatic(n, cfg, &classes)
	initFunc := createInitial(n, &classes)
	createFinal(n, cfg, &classes)
	rec.stage("static-initial-final")

	classes.Comb, classes.Hybrid = deps.BreakCycles(n, classes.Comb)
	rec.addSize("size of class: clocked", classes.Clocked)
	rec.addSize("size of class: combinational", classes.Comb)
	rec.addSize("size of class: hybrid", classes.Hybrid)
	rec.stage("break-cycles")

	// One builder for the whole pass: one set of previous-value shadows
	// serves every trigger computation.
	_, stlKit := createSettle(n, cfg, &deps, initFunc, &classes)
	rec.stage("settle")

	regions := deps.Partition(n, classes.Clocked, classes.Comb, classes.Hybrid)
	rec.addSize("size of region: Active Pre", regions.Pre)
	rec.addSize("size of region: Active", regions.Act)
	rec.addSize("size of region: NBA", regions.Nba)
	rec.stage("partition")

	replicas := deps.Replicate(n, &regions)
	rec.addSize("size of replicated logic: Input", replicas.Ico)
	rec.addSize("size of replicated logic: Active", replicas.Act)
	rec.addSize("size of replicated logic: NBA", replicas.Nba)
	rec.stage("replicate")

	icoLoop, icoKit := createInputCombLoop(n, cfg, &deps, initFunc, replicas.Ico)
	rec.stage("create-ico")

	dpiVar := n.DpiExportTrigger
	var extras ExtraTriggers
	var dpiIndex uint32
	if dpiVar.IsValid() {
		dpiIndex = extras.Allocate("DPI export trigger")
	}

	senTrees := senTreesUsedBy(n,
		regions.Pre, regions.Act, regions.Nba,
		classes.Observed, classes.Reactive, timing.lbs)
	actTrig := createTriggers(n, cfg, initFunc, deps.SenExpr, senTrees, "act", &extras, false)

	// Dynamic schedulers re-evaluate their conditions right after the
	// triggers are computed.
	actTrig.Compute.Body.AppendAll(timing.postUpdates)

	if dpiVar.IsValid() {
		actTrig.AddDpiExportTrigger(n, dpiVar, dpiIndex)
	}

	// Pre shares act's bit layout over its own vector: act AND NOT nba.
	preVec := n.CreateTempLike(span, n.TopScope, "__VpreTriggered", actTrig.Vec)
	preMap := actTrig.Map.CloneWithVec(n, preVec)
	rec.stage("create-triggers")

	remapSensitivities(n, regions.Pre, preMap)
	remapSensitivities(n, regions.Act, actTrig.Map)
	remapSensitivities(n, replicas.Act, actTrig.Map)
	remapSensitivities(n, timing.lbs, actTrig.Map)
	actTimingDomains := timing.RemapDomains(n, actTrig.Map)

	trigToSenAct := make(map[ir.SenTreeID]ir.SenTreeID)
	preMap.Invert(trigToSenAct)
	actTrig.Map.Invert(trigToSenAct)

	var dpiTriggeredAct ir.SenTreeID
	if dpiVar.IsValid() {
		dpiTriggeredAct = createTriggerSenTree(n, actTrig.Vec, dpiIndex)
	}

	actFunc := deps.Order(n, OrderRequest{
		Tag:       "act",
		Logic:     []LogicByScope{regions.Pre, regions.Act, replicas.Act},
		TrigToSen: trigToSenAct,
		ExtraDomains: func(v ir.VarID) []ir.SenTreeID {
			out := append([]ir.SenTreeID(nil), actTimingDomains[v]...)
			if dpiVar.IsValid() && n.Var(v).Flags.Has(ir.VarUsedByDPI) {
				out = append(out, dpiTriggeredAct)
			}
			return out
		},
	})
	splitCheck(n, actFunc, cfg.SplitThreshold)
	rec.stage("create-act")

	actKit := EvalKit{Vec: actTrig.Vec, Compute: actTrig.Compute, Dump: actTrig.Dump, Func: actFunc}

	// order builds a region sharing act's bit layout: its own latched
	// vector, remapped copies of the act sensitivities, and a retargeted
	// clone of the act dump.
	order := func(name string, logic []LogicByScope) EvalKit {
		vec := n.CreateTempLike(span, n.TopScope, "__V"+name+"Triggered", actTrig.Vec)
		m := actTrig.Map.CloneWithVec(n, vec)
		for _, lbs := range logic {
			remapSensitivities(n, lbs, m)
		}
		trigToSen := make(map[ir.SenTreeID]ir.SenTreeID)
		m.Invert(trigToSen)
		var dpiTriggered ir.SenTreeID
		if dpiVar.IsValid() {
			dpiTriggered = createTriggerSenTree(n, vec, dpiIndex)
		}
		timingDomains := timing.RemapDomains(n, m)
		funcp := deps.Order(n, OrderRequest{
			Tag:       name,
			Logic:     logic,
			TrigToSen: trigToSen,
			Parallel:  name == "nba" && cfg.Parallel,
			ExtraDomains: func(v ir.VarID) []ir.SenTreeID {
				out := append([]ir.SenTreeID(nil), timingDomains[v]...)
				if dpiVar.IsValid() && n.Var(v).Flags.Has(ir.VarUsedByDPI) {
					out = append(out, dpiTriggered)
				}
				return out
			},
		})
		dump := cloneDumpForVec(n, actTrig.Dump, "act", name, actTrig.Vec, vec)
		return EvalKit{Vec: vec, Dump: dump, Func: funcp}
	}

	nbaKit := order("nba", []LogicByScope{regions.Nba, replicas.Nba})
	splitCheck(n, nbaKit.Func, cfg.SplitThreshold)
	n.EvalNBA = nbaKit.Func.ID
	rec.stage("create-nba")

	orderIfNonEmpty := func(name string, lbs LogicByScope) EvalKit {
		if lbs.Empty() {
			return EvalKit{}
		}
		kit := order(name, []LogicByScope{lbs})
		rec.stage("create-" + name)
		return kit
	}
	obsKit := orderIfNonEmpty("obs", classes.Observed)
	reactKit := orderIfNonEmpty("react", classes.Reactive)

	postponed := createPostponed(n, cfg, &classes)

	createEval(n, cfg, icoLoop, actKit, preVec, nbaKit, obsKit, reactKit, postponed, timing)

	transformForks(n, deps.Reporter)

	// The trigger kits appended their init statements; now the size is
	// final.
	splitCheck(n, initFunc, cfg.SplitThreshold)

	// Downstream passes must use the ico/act synthetic bits instead.
	n.DpiExportTrigger = ir.NoVarID

	rec.finish(len(n.Funcs()), len(n.Vars()))

	res := &Result{Eval: n.Eval, EvalNBA: n.EvalNBA, Stats: rec.stats}
	if stlKit != nil {
		res.Triggers = append(res.Triggers, RegionTriggers{Tag: "stl", Vec: stlKit.Vec, Descs: stlKit.Descs})
	}
	if icoKit != nil {
		res.Triggers = append(res.Triggers, RegionTriggers{Tag: "ico", Vec: icoKit.Vec, Descs: icoKit.Descs})
	}
	res.Triggers = append(res.Triggers, RegionTriggers{Tag: "act", Vec: actTrig.Vec, Descs: actTrig.Descs})
	res.Triggers = append(res.Triggers, RegionTriggers{Tag: "nba", Vec: nbaKit.Vec, Descs: actTrig.Descs})
	if obsKit.Vec.IsValid() {
		res.Triggers = append(res.Triggers, RegionTriggers{Tag: "obs", Vec: obsKit.Vec, Descs: actTrig.Descs})
	}
	if reactKit.Vec.IsValid() {
		res.Triggers = append(res.Triggers, RegionTriggers{Tag: "react", Vec: reactKit.Vec, Descs: actTrig.Descs})
	}
	return res, nil
}
