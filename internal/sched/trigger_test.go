package sched

import (
	"strings"
	"testing"

	"strobe/internal/ir"
	"strobe/internal/source"
)

func TestCreateTriggersBitLayout(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	rst := n.NewVar(sp, n.TopScope, "rst", 1, ir.VarInput)
	senClk := posedgeOf(n, clk)
	senRst := n.NewSenTree(sp, ir.SenItem{Kind: ir.SenNegedge, Signal: n.Arena.VarRefE(sp, rst)})

	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	if got := extras.Allocate("first iteration"); got != 0 {
		t.Fatalf("first synthetic bit = %d, want 0", got)
	}

	kit := createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{senClk, senRst}, "act", &extras, false)

	vec := n.Var(kit.Vec)
	if vec.Name != "__VactTriggered" {
		t.Fatalf("vector name = %q", vec.Name)
	}
	if !vec.Flags.Has(ir.VarTrigVec) {
		t.Fatal("vector must carry the trigger-vector flag")
	}
	if vec.Width != 3 {
		t.Fatalf("vector width = %d, want 3 (1 synthetic + 2 sensitivities)", vec.Width)
	}

	// Synthetic bits first, then sensitivities in encounter order.
	if idx, ok := kit.Map.Index(senClk); !ok || idx != 1 {
		t.Fatalf("index(senClk) = %d/%v, want 1", idx, ok)
	}
	if idx, ok := kit.Map.Index(senRst); !ok || idx != 2 {
		t.Fatalf("index(senRst) = %d/%v, want 2", idx, ok)
	}

	mapped, ok := kit.Map.Remap(senClk)
	if !ok {
		t.Fatal("senClk missing from map")
	}
	mt := n.SenTree(mapped)
	if len(mt.Items) != 1 || mt.Items[0].Kind != ir.SenTrue {
		t.Fatalf("remapped tree must be a single bit test, got %s", ir.SenText(n, mt))
	}

	want := []string{
		"Internal 'act' trigger - first iteration",
		"(posedge clk)",
		"(negedge rst)",
	}
	if len(kit.Descs) != len(want) {
		t.Fatalf("got %d descriptions, want %d", len(kit.Descs), len(want))
	}
	for i := range want {
		if kit.Descs[i] != want[i] {
			t.Errorf("desc[%d] = %q, want %q", i, kit.Descs[i], want[i])
		}
	}
}

func TestCreateTriggersComputeShape(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	rst := n.NewVar(sp, n.TopScope, "rst", 1, ir.VarInput)
	senClk := posedgeOf(n, clk)
	senRst := posedgeOf(n, rst)

	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	kit := createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{senClk, senRst}, "act", &extras, false)

	// set(0, ...), set(1, ...), two shadow refreshes, then the guarded
	// dump call.
	stmts := kit.Compute.Body.Stmts()
	if len(stmts) != 5 {
		t.Fatalf("compute has %d statements, want 5", len(stmts))
	}
	for i := 0; i < 2; i++ {
		d, ok := stmts[i].Data.(ir.ExprStmtData)
		if !ok {
			t.Fatalf("compute[%d] is %s, want a set call", i, stmts[i].Kind)
		}
		call := d.Expr.Data.(ir.MethodCallData)
		if call.Recv != kit.Vec || call.Method != ir.MethodSet {
			t.Fatalf("compute[%d] = %s on wrong receiver", i, call.Method)
		}
		idx := call.Args[0].Data.(ir.ConstData)
		if idx.Value != uint64(i) {
			t.Fatalf("compute[%d] sets bit %d, want %d", i, idx.Value, i)
		}
	}
	for i := 2; i < 4; i++ {
		if _, ok := stmts[i].Data.(ir.AssignData); !ok {
			t.Fatalf("compute[%d] is %s, want a shadow refresh", i, stmts[i].Kind)
		}
	}
	last, ok := stmts[4].Data.(ir.IfData)
	if !ok || !last.Unlikely {
		t.Fatal("compute must end with the unlikely dump guard")
	}
	if !hasCall(n, last.Then.Stmts(), kit.Dump.Name) {
		t.Fatal("dump guard must call the dump procedure")
	}

	// Shadow seeds land in the initialization procedure.
	if got := len(initFunc.Body.Stmts()); got != 2 {
		t.Fatalf("init got %d shadow seeds, want 2", got)
	}
}

func TestCreateTriggersFirstEvalPolicy(t *testing.T) {
	hasDidInit := func(n *ir.Netlist, tag string) bool {
		_, ok := n.LookupVar(n.TopScope, "__V"+tag+"DidInit")
		return ok
	}

	// Edge sensitivities do not fire at init by default.
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{posedgeOf(n, clk)}, "act", &extras, false)
	if hasDidInit(n, "act") {
		t.Fatal("plain posedge must not get a did-init guard")
	}

	// Change sensitivities always do.
	n = ir.NewNetlist("t")
	x := n.NewVar(sp, n.TopScope, "x", 8, 0)
	initFunc = makeTopFunc(n, "_eval_initial", true)
	extras = ExtraTriggers{}
	kit := createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{changedOf(n, x)}, "act", &extras, false)
	if !hasDidInit(n, "act") {
		t.Fatal("changed sensitivity must get a did-init guard")
	}
	stmts := kit.Compute.Body.Stmts()
	guard, ok := stmts[len(stmts)-2].Data.(ir.IfData)
	if !ok || !guard.Unlikely {
		t.Fatal("did-init guard must sit just before the dump call")
	}
	then := guard.Then.Stmts()
	if len(then) != 2 {
		t.Fatalf("did-init branch has %d statements, want flag set + bit force", len(then))
	}
	if _, ok := then[0].Data.(ir.AssignData); !ok {
		t.Fatal("did-init branch must set the flag first")
	}

	// The edge policy extends the first-evaluation rule to edges.
	n = ir.NewNetlist("t")
	clk = n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	initFunc = makeTopFunc(n, "_eval_initial", true)
	extras = ExtraTriggers{}
	cfg := DefaultConfig()
	cfg.XInitialEdge = true
	createTriggers(n, cfg, initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{posedgeOf(n, clk)}, "act", &extras, false)
	if !hasDidInit(n, "act") {
		t.Fatal("posedge under the initial-edge policy must get a did-init guard")
	}
}

func TestCreateTriggersDumpText(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	extras.Allocate("first iteration")
	kit := createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{posedgeOf(n, clk)}, "ico", &extras, false)

	var texts []string
	ir.WalkStmts(kit.Dump.Body, func(s *ir.Stmt) {
		if d, ok := s.Data.(ir.DebugPrintData); ok {
			texts = append(texts, d.Text)
		}
	})
	want := []string{
		"No triggers active",
		"'ico' region trigger index 0 is active: Internal 'ico' trigger - first iteration",
		"'ico' region trigger index 1 is active: (posedge clk)",
	}
	if len(texts) != len(want) {
		t.Fatalf("dump prints %d messages, want %d", len(texts), len(want))
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("dump[%d] = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestCreateTriggersProtectIds(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	cfg := DefaultConfig()
	cfg.ProtectIds = true
	kit := createTriggers(n, cfg, initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{posedgeOf(n, clk)}, "act", &extras, false)

	if !kit.Dump.Body.Empty() {
		t.Fatal("protected dump must stay bodyless")
	}
	// Descriptions still feed the trigger table.
	if len(kit.Descs) != 1 || kit.Descs[0] != "(posedge clk)" {
		t.Fatalf("descs = %q", kit.Descs)
	}
}

func TestCreateTriggersRejectsComb(t *testing.T) {
	n := ir.NewNetlist("t")
	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	sen := comboSen(n)
	mustPanic(t, "comb sensitivity", func() {
		createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
			[]ir.SenTreeID{sen}, "act", &extras, false)
	})
}

func TestTriggerKitSyntheticComputePrepends(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	first := extras.Allocate("first iteration")
	dpiIdx := extras.Allocate("DPI export trigger")
	kit := createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{posedgeOf(n, clk)}, "ico", &extras, false)

	counter := n.NewVar(sp, n.TopScope, "__VicoIterCount", 32, 0)
	dpiVar := n.NewVar(sp, n.TopScope, "__Vdpi_trigger", 1, 0)
	kit.AddFirstIterTrigger(n, counter, first)
	kit.AddDpiExportTrigger(n, dpiVar, dpiIdx)

	stmts := kit.Compute.Body.Stmts()

	// DPI prepends last, so it runs first: read the flag into its bit,
	// then clear the flag, then the first-iteration bit.
	set0 := stmts[0].Data.(ir.ExprStmtData).Expr.Data.(ir.MethodCallData)
	if set0.Method != ir.MethodSet || set0.Args[0].Data.(ir.ConstData).Value != uint64(dpiIdx) {
		t.Fatalf("compute[0] must set the DPI bit, got %s", set0.Method)
	}
	if ref, ok := set0.Args[1].Data.(ir.VarRefData); !ok || ref.Var != dpiVar {
		t.Fatal("DPI bit must mirror the export flag")
	}
	reset, ok := stmts[1].Data.(ir.AssignData)
	if !ok || reset.Lhs != dpiVar {
		t.Fatal("compute[1] must clear the DPI export flag")
	}
	set2 := stmts[2].Data.(ir.ExprStmtData).Expr.Data.(ir.MethodCallData)
	if set2.Method != ir.MethodSet || set2.Args[0].Data.(ir.ConstData).Value != uint64(first) {
		t.Fatal("compute[2] must set the first-iteration bit")
	}
	cond, ok := set2.Args[1].Data.(ir.BinaryData)
	if !ok || cond.Op != ir.OpEq {
		t.Fatal("first-iteration bit must test counter == 0")
	}
}

func TestTrigMapCloneWithVec(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	senClk := posedgeOf(n, clk)
	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	extras.Allocate("first iteration")
	kit := createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{senClk}, "act", &extras, false)

	other := n.CreateTempLike(sp, n.TopScope, "__VnbaTriggered", kit.Vec)
	clone := kit.Map.CloneWithVec(n, other)

	idx, ok := clone.Index(senClk)
	if !ok || idx != 1 {
		t.Fatalf("clone index = %d/%v, want 1", idx, ok)
	}
	mapped, _ := clone.Remap(senClk)
	readsOther := false
	ir.WalkExprs(n.SenTree(mapped).Items[0].Signal, func(e *ir.Expr) {
		if d, ok := e.Data.(ir.MethodCallData); ok && d.Recv == other {
			readsOther = true
		}
	})
	if !readsOther {
		t.Fatal("cloned bit test must read the new vector")
	}

	inv := make(map[ir.SenTreeID]ir.SenTreeID)
	clone.Invert(inv)
	if inv[mapped] != senClk {
		t.Fatal("inverted map must recover the original sensitivity")
	}
}

func TestCloneDumpForVec(t *testing.T) {
	n := ir.NewNetlist("t")
	sp := source.Span{}
	clk := n.NewVar(sp, n.TopScope, "clk", 1, ir.VarInput)
	initFunc := makeTopFunc(n, "_eval_initial", true)
	var extras ExtraTriggers
	kit := createTriggers(n, DefaultConfig(), initFunc, NewSenExprBuilder(n),
		[]ir.SenTreeID{posedgeOf(n, clk)}, "act", &extras, false)

	other := n.CreateTempLike(sp, n.TopScope, "__VnbaTriggered", kit.Vec)
	clone := cloneDumpForVec(n, kit.Dump, "act", "nba", kit.Vec, other)

	if clone.Name != "_dump_triggers__nba" {
		t.Fatalf("clone name = %q", clone.Name)
	}
	ir.WalkStmts(clone.Body, func(s *ir.Stmt) {
		if d, ok := s.Data.(ir.DebugPrintData); ok {
			if strings.Contains(d.Text, "'act'") {
				t.Fatalf("dump text still names the act region: %q", d.Text)
			}
		}
		ir.StmtExprs(s, func(e *ir.Expr) {
			if d, ok := e.Data.(ir.MethodCallData); ok && d.Recv == kit.Vec {
				t.Fatal("clone still reads the act vector")
			}
		})
	})
	// The source dump is untouched.
	stillAct := false
	ir.WalkStmts(kit.Dump.Body, func(s *ir.Stmt) {
		if d, ok := s.Data.(ir.DebugPrintData); ok && strings.Contains(d.Text, "'act'") {
			stillAct = true
		}
	})
	if !stillAct {
		t.Fatal("cloning must not rewrite the source dump")
	}
}
