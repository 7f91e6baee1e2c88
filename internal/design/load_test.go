package design

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"strobe/internal/diag"
	"strobe/internal/ir"
	"strobe/internal/sched"
	"strobe/internal/source"
)

const pipelineYAML = `
name: pipeline
dpi_export: true
signals:
  - {name: clk, width: 1, input: true}
  - {name: d, width: 8, input: true}
  - {name: q1, width: 8}
  - {name: q2, width: 8}
  - {name: out, width: 8, output: true}
  - {name: phase, width: 4}
schedulers:
  - {name: tick, kind: delay}
  - {name: bus_free, kind: trigger}
watch: [q2, out]
blocks:
  - name: ff1
    kind: always
    sens: [{edge: posedge, signal: clk}]
    body:
      - {set: q1, to: {var: d}}
  - name: ff2
    kind: always
    hint: nba
    sens: [{edge: posedge, signal: clk}]
    body:
      - {set: q2, to: {var: q1}}
  - name: mix
    kind: always
    sens: [{combo: true}]
    body:
      - set: out
        to: {op: xor, args: [{var: q2}, {var: d}]}
  - name: monitor
    kind: observed
    sens: [{edge: posedge, signal: clk}]
    body:
      - {print: clock rose}
  - name: checker
    kind: postponed
    body:
      - if: {op: gt, args: [{var: phase}, {const: 9, width: 4}]}
        then:
          - {fatal: phase overflow}
  - name: boot
    kind: initial
    body:
      - {set: phase, to: {const: 1, width: 4}}
  - name: stim
    kind: initial
    suspendable: true
    locals:
      - {name: step, width: 4}
    body:
      - {set: step, to: {const: 0, width: 4}}
      - while: {op: lt, args: [{var: step}, {const: 3}]}
        do:
          - {await: tick, delay: {const: 5}}
          - {set: step, to: {op: add, args: [{var: step}, {const: 1, width: 4}]}}
      - {await: tick, delay: {const: 5}}
      - fork:
          join: any
          branches:
            - name: watchdog
              body:
                - {await: tick, delay: {const: 100}}
                - {fatal: stimulus timed out}
            - name: worker
              body:
                - {await: bus_free, when: [{edge: changed, signal: q2}]}
                - {set: phase, to: {const: 2, width: 4}}
      - {note: stimulus done}
  - name: pulse
    kind: always
    suspendable: true
    body:
      - {await: tick, delay: {const: 10}}
      - {set: phase, to: {op: add, args: [{var: phase}, {const: 1, width: 4}]}}
  - name: bye
    kind: final
    body:
      - {print: goodbye}
`

func buildDoc(t *testing.T, src string) (*ir.Netlist, *diag.Bag, error) {
	t.Helper()
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bag := diag.NewBag(64)
	n, berr := Build(doc, diag.BagReporter{Bag: bag}, source.Span{})
	return n, bag, berr
}

func findVar(t *testing.T, n *ir.Netlist, name string) *ir.Var {
	t.Helper()
	id, ok := n.LookupVar(n.TopScope, name)
	if !ok {
		t.Fatalf("variable %q not found", name)
	}
	return n.Var(id)
}

func hasFunc(n *ir.Netlist, name string) bool {
	_, ok := n.FuncByName(name)
	return ok
}

func TestBuildPipeline(t *testing.T) {
	n, bag, err := buildDoc(t, pipelineYAML)
	if err != nil {
		t.Fatalf("Build: %v / %v", err, bag.Items())
	}
	if n.Name != "pipeline" {
		t.Fatalf("netlist name = %q", n.Name)
	}

	clk := findVar(t, n, "clk")
	if clk.Width != 1 || !clk.Flags.Has(ir.VarInput) {
		t.Fatalf("clk = width %d flags %b", clk.Width, clk.Flags)
	}
	if out := findVar(t, n, "out"); !out.Flags.Has(ir.VarOutput) {
		t.Fatal("out must be an output")
	}
	if step := findVar(t, n, "step"); !step.Flags.Has(ir.VarFuncLocal) {
		t.Fatal("step must be a process local")
	}
	if tick := findVar(t, n, "tick"); tick.Sched != ir.SchedDelay {
		t.Fatalf("tick kind = %s", tick.Sched)
	}
	if bf := findVar(t, n, "bus_free"); bf.Sched != ir.SchedTrigger {
		t.Fatalf("bus_free kind = %s", bf.Sched)
	}
	if !n.DpiExportTrigger.IsValid() || n.Var(n.DpiExportTrigger).Name != "__Vdpi_export_trigger" {
		t.Fatal("dpi_export must allocate the trigger flag")
	}

	if len(n.Blocks) != 9 {
		t.Fatalf("got %d blocks, want 9", len(n.Blocks))
	}
	ff1, ff2, monitor := n.Blocks[0], n.Blocks[1], n.Blocks[3]
	if ff1.Sen != ff2.Sen || ff1.Sen != monitor.Sen {
		t.Fatal("identical edge conditions must share one sensitivity tree")
	}
	if ff2.Hint != ir.HintNba {
		t.Fatalf("ff2 hint = %s", ff2.Hint)
	}
	if got := n.SenTree(n.Blocks[2].Sen).Kind(); got != ir.SenKindComb {
		t.Fatalf("mix sen kind = %s", got)
	}
	if got := n.SenTree(n.Blocks[4].Sen).Kind(); got != ir.SenKindComb {
		t.Fatalf("checker sen kind = %s", got)
	}

	// A suspendable process without sens runs once from start.
	stim, pulse := n.Blocks[6], n.Blocks[7]
	if !stim.Suspendable || n.SenTree(stim.Sen).Kind() != ir.SenKindInitial {
		t.Fatal("stim must be a suspendable process with implied initial start")
	}
	if n.SenTree(pulse.Sen).Kind() != ir.SenKindInitial {
		t.Fatal("pulse must start like a process")
	}

	// Every delay wait on one scheduler shares a single wake condition.
	stmts := stim.Body.Stmts()
	if len(stmts) != 5 {
		t.Fatalf("stim body has %d statements", len(stmts))
	}
	loop := stmts[1].Data.(ir.WhileData)
	await1 := loop.Body.Stmts()[0].Data.(ir.AwaitData)
	await2 := stmts[2].Data.(ir.AwaitData)
	pulseAwait := pulse.Body.Stmts()[0].Data.(ir.AwaitData)
	if await1.Sen != await2.Sen || await1.Sen != pulseAwait.Sen {
		t.Fatal("delay waits on one scheduler must share the wake condition")
	}
	if await1.Delay == nil || await2.Delay == nil {
		t.Fatal("delay waits must carry their amount")
	}

	forkData := stmts[3].Data.(ir.ForkData)
	if forkData.Join != ir.JoinAny || len(forkData.Branches) != 2 {
		t.Fatalf("fork = %s over %d branches", forkData.Join, len(forkData.Branches))
	}
	if forkData.Branches[0].Name != "watchdog" {
		t.Fatalf("branch name = %q", forkData.Branches[0].Name)
	}
	workerAwait := forkData.Branches[1].Body.Stmts()[0].Data.(ir.AwaitData)
	if workerAwait.Delay != nil {
		t.Fatal("condition waits carry no amount")
	}
	if items := n.SenTree(workerAwait.Sen).Items; len(items) != 1 || items[0].Kind != ir.SenChanged {
		t.Fatalf("worker wake condition = %v", items)
	}
}

func TestBuiltNetlistSchedules(t *testing.T) {
	n, _, err := buildDoc(t, pipelineYAML)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bag := diag.NewBag(64)
	res, err := sched.Schedule(n, sched.Deps{Reporter: diag.BagReporter{Bag: bag}}, sched.DefaultConfig())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("schedule diagnostics: %v", bag.Items())
	}
	if !res.Eval.IsValid() {
		t.Fatal("no eval entry point")
	}
	for _, name := range []string{"_eval", "_timing_resume", "_timing_commit", "watchdog__0", "worker__0"} {
		if !hasFunc(n, name) {
			t.Errorf("procedure %q missing", name)
		}
	}
}

func TestParseRejectsUnknownAndMalformed(t *testing.T) {
	if _, err := Parse([]byte("name: t\nsignal: []\n")); err == nil {
		t.Fatal("typoed field must be rejected")
	}
	if _, err := Parse([]byte("name: [")); err == nil {
		t.Fatal("malformed YAML must be rejected")
	}
}

func TestParseNormalizesIdentifiers(t *testing.T) {
	// The signal is declared in decomposed form and referenced composed;
	// both must land on the same identifier.
	src := "name: t\n" +
		"signals: [{name: \"éclair\", width: 1}]\n" +
		"blocks: [{name: b, kind: initial, body: [{set: \"éclair\", to: {const: 1, width: 1}}]}]\n"
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Signals[0].Name != "éclair" {
		t.Fatalf("signal name = %q, want composed form", doc.Signals[0].Name)
	}
	bag := diag.NewBag(8)
	if _, err := Build(doc, diag.BagReporter{Bag: bag}, source.Span{}); err != nil {
		t.Fatalf("Build: %v / %v", err, bag.Items())
	}
}

func TestBuildDiagnostics(t *testing.T) {
	const header = "name: t\nsignals: [{name: x, width: 1}]\n"
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing design name", "signals: [{name: x, width: 1}]\n", diag.DsgMissingTop},
		{"zero width", "name: t\nsignals: [{name: x}]\n", diag.DsgBadWidth},
		{"width over 64", "name: t\nsignals: [{name: x, width: 65}]\n", diag.DsgBadWidth},
		{"duplicate signal", "name: t\nsignals: [{name: x, width: 1}, {name: x, width: 2}]\n", diag.DsgDuplicateSignal},
		{"local collides with signal", header +
			"blocks: [{name: b, kind: initial, locals: [{name: x, width: 1}], body: [{print: hi}]}]\n", diag.DsgDuplicateSignal},
		{"unknown assign target", header +
			"blocks: [{name: b, kind: initial, body: [{set: ghost, to: {const: 1}}]}]\n", diag.DsgUnknownSignal},
		{"unknown watch entry", header + "watch: [ghost]\nblocks: []\n", diag.DsgUnknownSignal},
		{"bad scheduler kind", header + "schedulers: [{name: s, kind: mutex}]\n", diag.DsgBadSchedulerKind},
		{"delay wait on trigger scheduler", header +
			"schedulers: [{name: s, kind: trigger}]\n" +
			"blocks: [{name: b, kind: initial, suspendable: true, body: [{await: s, delay: {const: 1}}]}]\n", diag.DsgBadSchedulerKind},
		{"await names a signal", header +
			"blocks: [{name: b, kind: initial, suspendable: true, body: [{await: x, delay: {const: 1}}]}]\n", diag.DsgBadSchedulerKind},
		{"await unknown scheduler", header +
			"blocks: [{name: b, kind: initial, suspendable: true, body: [{await: ghost, delay: {const: 1}}]}]\n", diag.DsgUnknownProcess},
		{"unknown edge", header +
			"blocks: [{name: b, kind: always, sens: [{edge: risefall, signal: x}], body: [{print: hi}]}]\n", diag.DsgBadEdge},
		{"combo on observed", header +
			"blocks: [{name: b, kind: observed, sens: [{combo: true}], body: [{print: hi}]}]\n", diag.DsgBadEdge},
		{"unknown block kind", header +
			"blocks: [{name: b, kind: forever, body: [{print: hi}]}]\n", diag.DsgBadProcess},
		{"suspendable final", header +
			"blocks: [{name: b, kind: final, suspendable: true, body: [{print: hi}]}]\n", diag.DsgBadProcess},
		{"sens on initial", header +
			"blocks: [{name: b, kind: initial, sens: [{edge: posedge, signal: x}], body: [{print: hi}]}]\n", diag.DsgBadProcess},
		{"await outside suspendable", header +
			"schedulers: [{name: s, kind: delay}]\n" +
			"blocks: [{name: b, kind: always, sens: [{edge: posedge, signal: x}], body: [{await: s, delay: {const: 1}}]}]\n", diag.DsgBadProcess},
		{"always without sens", header +
			"blocks: [{name: b, kind: always, body: [{print: hi}]}]\n", diag.DsgEmptySensitivity},
		{"hint on observed", header +
			"blocks: [{name: b, kind: observed, hint: nba, sens: [{edge: posedge, signal: x}], body: [{print: hi}]}]\n", diag.DsgBadRegion},
		{"unknown hint", header +
			"blocks: [{name: b, kind: always, hint: fast, sens: [{edge: posedge, signal: x}], body: [{print: hi}]}]\n", diag.DsgBadRegion},
		{"two statement ops", header +
			"blocks: [{name: b, kind: initial, body: [{set: x, to: {const: 1}, print: hi}]}]\n", diag.DsgBadOp},
		{"unknown op", header +
			"blocks: [{name: b, kind: initial, body: [{set: x, to: {op: mul, args: [{var: x}, {var: x}]}}]}]\n", diag.DsgBadOp},
		{"binary op arity", header +
			"blocks: [{name: b, kind: initial, body: [{set: x, to: {op: xor, args: [{var: x}]}}]}]\n", diag.DsgBadOp},
		{"expression with two forms", header +
			"blocks: [{name: b, kind: initial, body: [{set: x, to: {var: x, const: 1}}]}]\n", diag.DsgBadValue},
		{"set without to", header +
			"blocks: [{name: b, kind: initial, body: [{set: x}]}]\n", diag.DsgBadValue},
		{"assign to scheduler", header +
			"schedulers: [{name: s, kind: event}]\n" +
			"blocks: [{name: b, kind: initial, body: [{set: s, to: {const: 1}}]}]\n", diag.DsgBadValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bag, err := buildDoc(t, tc.src)
			if err == nil {
				t.Fatal("Build must fail")
			}
			for _, d := range bag.Items() {
				if d.Code == tc.code {
					return
				}
			}
			t.Fatalf("no %d diagnostic; got %v", tc.code, bag.Items())
		})
	}
}

func TestLoadNetlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	bag := diag.NewBag(64)
	n, doc, err := LoadNetlist(fs, path, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("LoadNetlist: %v / %v", err, bag.Items())
	}
	if n == nil || doc == nil || doc.Name != "pipeline" {
		t.Fatal("netlist or document missing")
	}
	if len(doc.Watch) != 2 {
		t.Fatalf("watch = %v", doc.Watch)
	}

	bad := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(bad, []byte("name: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadNetlist(fs, bad, diag.BagReporter{Bag: bag}); err == nil {
		t.Fatal("broken file must fail")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.DsgParseError {
			found = true
		}
	}
	if !found {
		t.Fatal("parse failure must be reported")
	}

	if _, _, err := LoadNetlist(fs, filepath.Join(dir, "missing.yaml"), diag.BagReporter{Bag: bag}); err == nil {
		t.Fatal("missing file must fail")
	}
}

func TestBuildErrorSummary(t *testing.T) {
	_, _, err := buildDoc(t, "name: t\nsignals: [{name: x, width: 1}, {name: x, width: 1}]\n")
	if err == nil || !strings.Contains(err.Error(), "problem") {
		t.Fatalf("err = %v", err)
	}
}
