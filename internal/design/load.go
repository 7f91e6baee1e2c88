package design

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"strobe/internal/diag"
	"strobe/internal/ir"
	"strobe/internal/source"
)

// Name of the flag variable allocated for designs that declare DPI exports.
const dpiExportTriggerName = "__Vdpi_export_trigger"

// Parse strictly decodes design YAML: unknown fields are rejected so typos
// surface instead of silently dropping logic. Identifiers are normalized
// to NFC so references match declarations regardless of the encoder's
// composition form.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("design: parse: %w", err)
	}
	doc.normalize()
	return &doc, nil
}

// Load reads and strictly decodes a design YAML file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("design: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadNetlist reads a design file through the file set, decodes it, and
// lowers it onto a fresh netlist. Problems carry the file's span and go to
// r; the returned error summarizes them.
func LoadNetlist(fs *source.FileSet, path string, r diag.Reporter) (*ir.Netlist, *Document, error) {
	id, err := fs.Load(path)
	if err != nil {
		diag.ReportError(r, diag.IOLoadFileError, source.Span{}, fmt.Sprintf("cannot read design file %s: %v", path, err)).Emit()
		return nil, nil, fmt.Errorf("design: read %s: %w", path, err)
	}
	file := fs.Get(id)
	span := source.Span{File: id, Start: 0, End: uint32(len(file.Content))}
	doc, err := Parse(file.Content)
	if err != nil {
		diag.ReportError(r, diag.DsgParseError, span, err.Error()).Emit()
		return nil, nil, err
	}
	n, err := Build(doc, r, span)
	if err != nil {
		return nil, doc, err
	}
	return n, doc, nil
}

// normalize rewrites every identifier to NFC. Free text (print, fatal,
// note) is left alone.
func (d *Document) normalize() {
	nfc := func(s *string) {
		if *s != "" && !norm.NFC.IsNormalString(*s) {
			*s = norm.NFC.String(*s)
		}
	}
	nfc(&d.Name)
	for i := range d.Signals {
		nfc(&d.Signals[i].Name)
	}
	for i := range d.Schedulers {
		nfc(&d.Schedulers[i].Name)
	}
	for i := range d.Watch {
		nfc(&d.Watch[i])
	}
	for i := range d.Blocks {
		blk := &d.Blocks[i]
		nfc(&blk.Name)
		for j := range blk.Sens {
			nfc(&blk.Sens[j].Signal)
		}
		for j := range blk.Locals {
			nfc(&blk.Locals[j].Name)
		}
		normalizeStmts(blk.Body, nfc)
	}
}

func normalizeStmts(list []*StmtNode, nfc func(*string)) {
	for _, s := range list {
		if s == nil {
			continue
		}
		nfc(&s.Set)
		nfc(&s.Await)
		normalizeExpr(s.To, nfc)
		normalizeExpr(s.If, nfc)
		normalizeExpr(s.While, nfc)
		normalizeExpr(s.Delay, nfc)
		for i := range s.When {
			nfc(&s.When[i].Signal)
		}
		normalizeStmts(s.Then, nfc)
		normalizeStmts(s.Else, nfc)
		normalizeStmts(s.Do, nfc)
		if s.Fork != nil {
			for i := range s.Fork.Branches {
				nfc(&s.Fork.Branches[i].Name)
				normalizeStmts(s.Fork.Branches[i].Body, nfc)
			}
		}
	}
}

func normalizeExpr(e *ExprNode, nfc func(*string)) {
	if e == nil {
		return
	}
	nfc(&e.Var)
	for _, arg := range e.Args {
		normalizeExpr(arg, nfc)
	}
}

// Build validates the document and lowers it onto a fresh netlist. Every
// problem is reported to r with the given span; the error summarizes how
// many there were. The returned netlist is unscheduled.
func Build(doc *Document, r diag.Reporter, span source.Span) (*ir.Netlist, error) {
	b := &builder{r: r, span: span}
	if doc.Name == "" {
		b.errorf(diag.DsgMissingTop, "design name is required")
		return nil, b.summary("design")
	}

	b.n = ir.NewNetlist(doc.Name)
	b.declared = make(map[string]string)
	top := b.n.TopScope

	for i := range doc.Signals {
		sig := &doc.Signals[i]
		path := fmt.Sprintf("signals[%d]", i)
		if sig.Name == "" {
			b.errorf(diag.DsgBadValue, "%s: name is required", path)
			continue
		}
		if !b.checkWidth(path, sig.Width) || !b.declare(path, sig.Name, "a signal") {
			continue
		}
		var flags ir.VarFlags
		if sig.Input {
			flags |= ir.VarInput
		}
		if sig.Output {
			flags |= ir.VarOutput
		}
		if sig.Dpi {
			flags |= ir.VarUsedByDPI
		}
		b.n.NewVar(span, top, sig.Name, sig.Width, flags)
	}

	for i := range doc.Schedulers {
		sc := &doc.Schedulers[i]
		path := fmt.Sprintf("schedulers[%d]", i)
		if sc.Name == "" {
			b.errorf(diag.DsgBadValue, "%s: name is required", path)
			continue
		}
		kind, ok := schedKind(sc.Kind)
		if !ok {
			b.errorf(diag.DsgBadSchedulerKind, "%s: unknown scheduler kind %q", path, sc.Kind)
			continue
		}
		if !b.declare(path, sc.Name, "a scheduler") {
			continue
		}
		b.n.NewSchedVar(span, top, sc.Name, kind)
	}

	if doc.DpiExport && b.declare("dpi_export", dpiExportTriggerName, "the DPI export trigger") {
		b.n.DpiExportTrigger = b.n.NewVar(span, top, dpiExportTriggerName, 1, 0)
	}

	// Locals are declared before bodies so forward references between
	// blocks resolve; the design arrives flattened into one scope.
	for i := range doc.Blocks {
		blk := &doc.Blocks[i]
		for j := range blk.Locals {
			lv := &blk.Locals[j]
			path := fmt.Sprintf("blocks[%d].locals[%d]", i, j)
			if lv.Name == "" {
				b.errorf(diag.DsgBadValue, "%s: name is required", path)
				continue
			}
			if !b.checkWidth(path, lv.Width) || !b.declare(path, lv.Name, "a local") {
				continue
			}
			flags := ir.VarFuncLocal
			if lv.Sync {
				flags |= ir.VarForkSync
			}
			b.n.NewVar(span, top, lv.Name, lv.Width, flags)
		}
	}

	for i, name := range doc.Watch {
		b.dataVar(fmt.Sprintf("watch[%d]", i), name)
	}

	for i := range doc.Blocks {
		b.block(i, &doc.Blocks[i])
	}

	if b.errs > 0 {
		return nil, b.summary(doc.Name)
	}
	return b.n, nil
}

type builder struct {
	n        *ir.Netlist
	r        diag.Reporter
	span     source.Span
	declared map[string]string
	errs     int
}

func (b *builder) errorf(code diag.Code, format string, args ...any) {
	diag.ReportError(b.r, code, b.span, fmt.Sprintf(format, args...)).Emit()
	b.errs++
}

func (b *builder) summary(name string) error {
	return fmt.Errorf("design: %d problem(s) in %q", b.errs, name)
}

func (b *builder) declare(path, name, what string) bool {
	if prev, dup := b.declared[name]; dup {
		b.errorf(diag.DsgDuplicateSignal, "%s: %q is already declared as %s", path, name, prev)
		return false
	}
	b.declared[name] = what
	return true
}

func (b *builder) checkWidth(path string, width uint32) bool {
	if width == 0 || width > 64 {
		b.errorf(diag.DsgBadWidth, "%s: width must be 1..64, got %d", path, width)
		return false
	}
	return true
}

// dataVar resolves a signal or local reference.
func (b *builder) dataVar(path, name string) (ir.VarID, bool) {
	id, ok := b.n.LookupVar(b.n.TopScope, name)
	if !ok {
		b.errorf(diag.DsgUnknownSignal, "%s: unknown signal %q", path, name)
		return ir.NoVarID, false
	}
	if b.n.Var(id).Sched.IsScheduler() {
		b.errorf(diag.DsgBadValue, "%s: %q is a scheduler, not a signal", path, name)
		return ir.NoVarID, false
	}
	return id, true
}

// schedulerVar resolves a scheduler reference.
func (b *builder) schedulerVar(path, name string) (*ir.Var, bool) {
	id, ok := b.n.LookupVar(b.n.TopScope, name)
	if !ok {
		b.errorf(diag.DsgUnknownProcess, "%s: unknown scheduler %q", path, name)
		return nil, false
	}
	v := b.n.Var(id)
	if !v.Sched.IsScheduler() {
		b.errorf(diag.DsgBadSchedulerKind, "%s: %q is a signal, not a scheduler", path, name)
		return nil, false
	}
	return v, true
}

func schedKind(s string) (ir.SchedKind, bool) {
	switch s {
	case SchedulerDelay:
		return ir.SchedDelay, true
	case SchedulerEvent:
		return ir.SchedEvent, true
	case SchedulerTrigger:
		return ir.SchedTrigger, true
	case SchedulerDynamic:
		return ir.SchedDynamic, true
	default:
		return ir.SchedNone, false
	}
}

func logicKind(s string) (ir.LogicKind, bool) {
	switch s {
	case BlockAlways:
		return ir.LogicAlways, true
	case BlockObserved:
		return ir.LogicObserved, true
	case BlockReactive:
		return ir.LogicReactive, true
	case BlockPostponed:
		return ir.LogicPostponed, true
	case BlockInitial:
		return ir.LogicInitial, true
	case BlockStatic:
		return ir.LogicStatic, true
	case BlockFinal:
		return ir.LogicFinal, true
	default:
		return 0, false
	}
}

func edgeKind(s string) (ir.SenItemKind, bool) {
	switch s {
	case EdgePosedge:
		return ir.SenPosedge, true
	case EdgeNegedge:
		return ir.SenNegedge, true
	case EdgeBothedge:
		return ir.SenBothedge, true
	case EdgeChanged:
		return ir.SenChanged, true
	case EdgeHybrid:
		return ir.SenHybrid, true
	default:
		return 0, false
	}
}

func (b *builder) block(i int, blk *Block) {
	if blk.Name == "" {
		b.errorf(diag.DsgBadProcess, "blocks[%d]: name is required", i)
		return
	}
	path := fmt.Sprintf("blocks[%d] (%s)", i, blk.Name)
	kind, ok := logicKind(blk.Kind)
	if !ok {
		b.errorf(diag.DsgBadProcess, "%s: unknown block kind %q", path, blk.Kind)
		return
	}

	hint := ir.HintNone
	if blk.Hint != "" {
		if kind != ir.LogicAlways {
			b.errorf(diag.DsgBadRegion, "%s: region hints apply to always blocks only", path)
		} else {
			switch blk.Hint {
			case HintPre:
				hint = ir.HintPre
			case HintAct:
				hint = ir.HintAct
			case HintNba:
				hint = ir.HintNba
			default:
				b.errorf(diag.DsgBadRegion, "%s: unknown region hint %q", path, blk.Hint)
			}
		}
	}

	if blk.Suspendable && kind != ir.LogicAlways && kind != ir.LogicInitial {
		b.errorf(diag.DsgBadProcess, "%s: only always and initial blocks may suspend", path)
		return
	}

	sen, ok := b.blockSen(path, kind, blk)
	if !ok {
		return
	}

	if len(blk.Body) == 0 {
		b.errorf(diag.DsgBadProcess, "%s: body is required", path)
		return
	}
	procedural := kind == ir.LogicAlways || kind == ir.LogicInitial
	body := b.stmts(path+".body", blk.Body, blk.Suspendable, procedural)

	b.n.AddBlock(&ir.LogicBlock{
		Name:        blk.Name,
		Scope:       b.n.TopScope,
		Kind:        kind,
		Sen:         sen,
		Body:        body,
		Span:        b.span,
		Suspendable: blk.Suspendable,
		Hint:        hint,
	})
}

// blockSen lowers a block's sensitivity list, applying the implied
// sensitivities of the slot-named kinds.
func (b *builder) blockSen(path string, kind ir.LogicKind, blk *Block) (ir.SenTreeID, bool) {
	switch kind {
	case ir.LogicStatic, ir.LogicInitial, ir.LogicFinal, ir.LogicPostponed:
		if len(blk.Sens) > 0 {
			b.errorf(diag.DsgBadProcess, "%s: %s blocks carry an implied sensitivity; sens must be empty", path, blk.Kind)
			return ir.NoSenTreeID, false
		}
		var k ir.SenItemKind
		switch kind {
		case ir.LogicStatic:
			k = ir.SenStatic
		case ir.LogicInitial:
			k = ir.SenInitial
		case ir.LogicFinal:
			k = ir.SenFinal
		default:
			// Postponed logic runs once per evaluation, after everything
			// settled: level sensitivity.
			k = ir.SenCombo
		}
		return b.senTree([]ir.SenItem{{Kind: k}}), true
	}

	if len(blk.Sens) == 0 {
		if blk.Suspendable {
			// A suspendable always with no sensitivity is a process:
			// started once, looping forever around its awaits.
			return b.senTree([]ir.SenItem{{Kind: ir.SenInitial}}), true
		}
		b.errorf(diag.DsgEmptySensitivity, "%s: sens is required", path)
		return ir.NoSenTreeID, false
	}

	edgesOnly := kind == ir.LogicObserved || kind == ir.LogicReactive || blk.Suspendable
	items, ok := b.senItems(path, "sens", blk.Sens, !edgesOnly)
	if !ok {
		return ir.NoSenTreeID, false
	}
	return b.senTree(items), true
}

// senItems lowers sensitivity terms. Combo terms are rejected where the
// block class needs real edges.
func (b *builder) senItems(path, field string, terms []SenTerm, allowCombo bool) ([]ir.SenItem, bool) {
	items := make([]ir.SenItem, 0, len(terms))
	ok := true
	for i, term := range terms {
		tpath := fmt.Sprintf("%s.%s[%d]", path, field, i)
		switch {
		case term.Combo && term.Edge != "":
			b.errorf(diag.DsgBadEdge, "%s: edge and combo are mutually exclusive", tpath)
			ok = false
		case term.Combo:
			if term.Signal != "" {
				b.errorf(diag.DsgBadEdge, "%s: combo takes no signal", tpath)
				ok = false
				continue
			}
			if !allowCombo {
				b.errorf(diag.DsgBadEdge, "%s: combo is not allowed here; use an edge term", tpath)
				ok = false
				continue
			}
			items = append(items, ir.SenItem{Kind: ir.SenCombo})
		case term.Edge != "":
			kind, known := edgeKind(term.Edge)
			if !known {
				b.errorf(diag.DsgBadEdge, "%s: unknown edge %q", tpath, term.Edge)
				ok = false
				continue
			}
			if term.Signal == "" {
				b.errorf(diag.DsgBadEdge, "%s: %s requires a signal", tpath, term.Edge)
				ok = false
				continue
			}
			id, found := b.dataVar(tpath, term.Signal)
			if !found {
				ok = false
				continue
			}
			items = append(items, ir.SenItem{Kind: kind, Signal: b.n.Arena.VarRefE(b.span, id)})
		default:
			b.errorf(diag.DsgBadEdge, "%s: edge or combo is required", tpath)
			ok = false
		}
	}
	return items, ok && len(items) > 0
}

// senTree interns a sensitivity: structurally equal conditions share one
// tree, so blocks watching the same edge share one trigger bit.
func (b *builder) senTree(items []ir.SenItem) ir.SenTreeID {
	if id, ok := b.n.FindSenTree(items); ok {
		return id
	}
	return b.n.NewSenTree(b.span, items...)
}

func (b *builder) stmts(path string, list []*StmtNode, suspendOK, forkOK bool) *ir.Block {
	body := b.n.Arena.NewBlock()
	for i, s := range list {
		if st := b.stmt(fmt.Sprintf("%s[%d]", path, i), s, suspendOK, forkOK); st != nil {
			body.Append(st)
		}
	}
	return body
}

func (b *builder) stmt(path string, s *StmtNode, suspendOK, forkOK bool) *ir.Stmt {
	if s == nil {
		b.errorf(diag.DsgBadValue, "%s: statement is required", path)
		return nil
	}
	a := b.n.Arena

	ops := 0
	for _, set := range []bool{
		s.Set != "", s.If != nil, s.While != nil, s.Await != "",
		s.Fork != nil, s.Print != "", s.Fatal != "", s.Note != "",
	} {
		if set {
			ops++
		}
	}
	if ops != 1 {
		b.errorf(diag.DsgBadOp, "%s: exactly one of set, if, while, await, fork, print, fatal, note is required", path)
		return nil
	}
	if s.To != nil && s.Set == "" {
		b.errorf(diag.DsgBadValue, "%s: to requires set", path)
		return nil
	}
	if (len(s.Then) > 0 || len(s.Else) > 0) && s.If == nil {
		b.errorf(diag.DsgBadValue, "%s: then/else require if", path)
		return nil
	}
	if len(s.Do) > 0 && s.While == nil {
		b.errorf(diag.DsgBadValue, "%s: do requires while", path)
		return nil
	}
	if (s.Delay != nil || len(s.When) > 0) && s.Await == "" {
		b.errorf(diag.DsgBadValue, "%s: delay/when require await", path)
		return nil
	}

	switch {
	case s.Set != "":
		if s.To == nil {
			b.errorf(diag.DsgBadValue, "%s: to is required", path)
			return nil
		}
		lhs, ok := b.dataVar(path+".set", s.Set)
		rhs := b.expr(path+".to", s.To)
		if !ok || rhs == nil {
			return nil
		}
		return a.Assign(b.span, lhs, rhs)

	case s.If != nil:
		cond := b.expr(path+".if", s.If)
		if len(s.Then) == 0 {
			b.errorf(diag.DsgBadValue, "%s: then is required", path)
			return nil
		}
		then := b.stmts(path+".then", s.Then, suspendOK, forkOK)
		var els *ir.Block
		if len(s.Else) > 0 {
			els = b.stmts(path+".else", s.Else, suspendOK, forkOK)
		}
		if cond == nil {
			return nil
		}
		return a.If(b.span, cond, then, els)

	case s.While != nil:
		cond := b.expr(path+".while", s.While)
		if len(s.Do) == 0 {
			b.errorf(diag.DsgBadValue, "%s: do is required", path)
			return nil
		}
		do := b.stmts(path+".do", s.Do, suspendOK, forkOK)
		if cond == nil {
			return nil
		}
		return a.While(b.span, cond, do)

	case s.Await != "":
		return b.await(path, s, suspendOK)

	case s.Fork != nil:
		return b.fork(path, s.Fork, forkOK)

	case s.Print != "":
		return a.DebugPrint(b.span, s.Print)

	case s.Fatal != "":
		return a.Fatal(b.span, s.Fatal)

	default:
		return a.Comment(b.span, s.Note)
	}
}

func (b *builder) await(path string, s *StmtNode, suspendOK bool) *ir.Stmt {
	if !suspendOK {
		b.errorf(diag.DsgBadProcess, "%s: await requires a suspendable block", path)
		return nil
	}
	sv, ok := b.schedulerVar(path+".await", s.Await)
	if !ok {
		return nil
	}
	a := b.n.Arena
	switch {
	case s.Delay != nil && len(s.When) > 0:
		b.errorf(diag.DsgBadValue, "%s: delay and when are mutually exclusive", path)
		return nil
	case s.Delay != nil:
		if sv.Sched != ir.SchedDelay {
			b.errorf(diag.DsgBadSchedulerKind, "%s: delay needs a delay scheduler; %q is %s", path, sv.Name, sv.Sched)
			return nil
		}
		amount := b.expr(path+".delay", s.Delay)
		if amount == nil {
			return nil
		}
		wake := a.MethodCall(b.span, sv.ID, ir.MethodAwaitingCurrentTime)
		sen := b.senTree([]ir.SenItem{{Kind: ir.SenTrue, Signal: wake}})
		return a.AwaitDelay(b.span, sv.ID, sen, amount)
	case len(s.When) > 0:
		if sv.Sched == ir.SchedDelay {
			b.errorf(diag.DsgBadSchedulerKind, "%s: when needs an event, trigger, or dynamic scheduler; %q is %s", path, sv.Name, sv.Sched)
			return nil
		}
		items, ok := b.senItems(path, "when", s.When, false)
		if !ok {
			return nil
		}
		return a.Await(b.span, sv.ID, b.senTree(items))
	default:
		b.errorf(diag.DsgBadValue, "%s: await needs delay or when", path)
		return nil
	}
}

func (b *builder) fork(path string, f *ForkNode, forkOK bool) *ir.Stmt {
	if !forkOK {
		b.errorf(diag.DsgBadProcess, "%s: fork is only allowed in always and initial blocks", path)
		return nil
	}
	join := ir.JoinAll
	switch f.Join {
	case JoinAll, "":
	case JoinAny:
		join = ir.JoinAny
	case JoinNone:
		join = ir.JoinNone
	default:
		b.errorf(diag.DsgBadProcess, "%s: unknown join %q", path, f.Join)
		return nil
	}
	if len(f.Branches) == 0 {
		b.errorf(diag.DsgBadProcess, "%s: branches are required", path)
		return nil
	}
	branches := make([]ir.ForkBranch, 0, len(f.Branches))
	ok := true
	for i := range f.Branches {
		br := &f.Branches[i]
		bpath := fmt.Sprintf("%s.branches[%d]", path, i)
		if br.Name == "" {
			b.errorf(diag.DsgBadProcess, "%s: name is required", bpath)
			ok = false
			continue
		}
		if len(br.Body) == 0 {
			b.errorf(diag.DsgBadProcess, "%s: body is required", bpath)
			ok = false
			continue
		}
		// Branches run as their own coroutines when they await, so awaits
		// and nested forks are always legal inside.
		branches = append(branches, ir.ForkBranch{
			Name: br.Name,
			Body: b.stmts(bpath+".body", br.Body, true, true),
		})
	}
	if !ok {
		return nil
	}
	return b.n.Arena.Fork(b.span, join, branches...)
}

func (b *builder) expr(path string, e *ExprNode) *ir.Expr {
	if e == nil {
		b.errorf(diag.DsgBadValue, "%s: expression is required", path)
		return nil
	}
	a := b.n.Arena

	set := 0
	if e.Var != "" {
		set++
	}
	if e.Const != nil {
		set++
	}
	if e.Op != "" {
		set++
	}
	if set != 1 {
		b.errorf(diag.DsgBadValue, "%s: exactly one of var, const, op is required", path)
		return nil
	}

	switch {
	case e.Var != "":
		if e.Width != 0 || len(e.Args) > 0 {
			b.errorf(diag.DsgBadValue, "%s: width/args do not apply to var", path)
			return nil
		}
		id, ok := b.dataVar(path, e.Var)
		if !ok {
			return nil
		}
		return a.VarRefE(b.span, id)

	case e.Const != nil:
		if len(e.Args) > 0 {
			b.errorf(diag.DsgBadValue, "%s: args do not apply to const", path)
			return nil
		}
		width := e.Width
		if width == 0 {
			width = 64
		} else if width > 64 {
			b.errorf(diag.DsgBadWidth, "%s: width must be 1..64, got %d", path, width)
			return nil
		}
		return a.Const(b.span, *e.Const, width)

	default:
		if e.Width != 0 {
			b.errorf(diag.DsgBadValue, "%s: width does not apply to op", path)
			return nil
		}
		return b.opExpr(path, e)
	}
}

func (b *builder) opExpr(path string, e *ExprNode) *ir.Expr {
	a := b.n.Arena
	arg := func(i int) *ir.Expr {
		return b.expr(fmt.Sprintf("%s.args[%d]", path, i), e.Args[i])
	}

	if e.Op == OpNot || e.Op == OpBitNot {
		if len(e.Args) != 1 {
			b.errorf(diag.DsgBadOp, "%s: %s takes 1 argument, got %d", path, e.Op, len(e.Args))
			return nil
		}
		operand := arg(0)
		if operand == nil {
			return nil
		}
		op := ir.OpNot
		if e.Op == OpBitNot {
			op = ir.OpBitNot
		}
		return a.Unary(b.span, op, operand)
	}

	var op ir.BinaryOp
	switch e.Op {
	case OpAnd:
		op = ir.OpAnd
	case OpOr:
		op = ir.OpOr
	case OpXor:
		op = ir.OpXor
	case OpEq:
		op = ir.OpEq
	case OpNe:
		op = ir.OpNe
	case OpLt:
		op = ir.OpLt
	case OpGt:
		op = ir.OpGt
	case OpAdd:
		op = ir.OpAdd
	case OpShl:
		op = ir.OpShl
	case OpShr:
		op = ir.OpShr
	default:
		b.errorf(diag.DsgBadOp, "%s: unknown op %q", path, e.Op)
		return nil
	}
	if len(e.Args) != 2 {
		b.errorf(diag.DsgBadOp, "%s: %s takes 2 arguments, got %d", path, e.Op, len(e.Args))
		return nil
	}
	lhs, rhs := arg(0), arg(1)
	if lhs == nil || rhs == nil {
		return nil
	}
	return a.Binary(b.span, op, lhs, rhs)
}
