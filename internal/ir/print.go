package ir

import (
	"fmt"
	"io"
	"strings"
)

// Printer dumps netlist IR to a deterministic text form, used by golden
// tests and the CLI --dump flag.
type Printer struct {
	w       io.Writer
	netlist *Netlist
	indent  int
}

// NewPrinter creates a printer for the netlist.
func NewPrinter(w io.Writer, n *Netlist) *Printer {
	return &Printer{w: w, netlist: n}
}

// Dump writes the whole netlist to w.
func Dump(w io.Writer, n *Netlist) {
	NewPrinter(w, n).PrintNetlist()
}

// DumpString renders the whole netlist to a string.
func DumpString(n *Netlist) string {
	var sb strings.Builder
	Dump(&sb, n)
	return sb.String()
}

// SenText renders a sensitivity tree in source-like form, used by trigger
// dump descriptions and diagnostics.
func SenText(n *Netlist, t *SenTree) string {
	p := &Printer{netlist: n}
	return p.senTreeText(t)
}

// PrintNetlist prints variables, sensitivities, logic blocks, and
// generated procedures.
func (p *Printer) PrintNetlist() {
	p.printf("netlist %s\n", p.netlist.Name)

	for _, v := range p.netlist.Vars() {
		p.printf("  var %s.%s: width=%d", p.netlist.ScopePath(v.Scope), v.Name, v.Width)
		if flags := varFlagText(v); flags != "" {
			p.printf(" [%s]", flags)
		}
		if v.Sched.IsScheduler() {
			p.printf(" sched=%s", v.Sched)
		}
		p.printf("\n")
	}

	for _, t := range p.netlist.SenTrees() {
		p.printf("  sen @%d %s\n", t.ID, p.senTreeText(t))
	}

	for _, b := range p.netlist.Blocks {
		p.printBlockHeader(b)
		p.indent = 2
		p.printBlock(b.Body)
		p.indent = 0
	}

	for _, f := range p.netlist.Funcs() {
		p.printf("\n")
		p.PrintFunc(f)
	}
}

func (p *Printer) printBlockHeader(b *LogicBlock) {
	p.printf("  block %s kind=%s", b.Name, b.Kind)
	if b.Sen.IsValid() {
		p.printf(" sen=@%d", b.Sen)
	}
	if b.Suspendable {
		p.printf(" suspendable")
	}
	if b.Hint != HintNone {
		p.printf(" hint=%s", b.Hint)
	}
	p.printf("\n")
}

// PrintFunc prints one generated procedure.
func (p *Printer) PrintFunc(f *Func) {
	p.printf("proc %s", f.Name)
	if len(f.Args) > 0 {
		parts := make([]string, len(f.Args))
		for i, arg := range f.Args {
			mode := "val"
			if arg.ByRef {
				mode = "ref"
			}
			parts[i] = fmt.Sprintf("%s %s", mode, p.varName(arg.Var))
		}
		p.printf("(%s)", strings.Join(parts, ", "))
	}
	var marks []string
	if f.Entry {
		marks = append(marks, "entry")
	}
	if f.Slow {
		marks = append(marks, "slow")
	}
	if f.Coroutine {
		marks = append(marks, "coroutine")
	}
	if len(marks) > 0 {
		p.printf(" [%s]", strings.Join(marks, " "))
	}
	p.printf("\n")
	p.indent = 1
	p.printBlock(f.Body)
	p.indent = 0
}

func (p *Printer) printBlock(b *Block) {
	if b == nil {
		return
	}
	for _, s := range b.stmts {
		p.printStmt(s)
	}
}

func (p *Printer) printStmt(s *Stmt) {
	switch d := s.Data.(type) {
	case AssignData:
		p.printf("%s%s = %s\n", p.pad(), p.varName(d.Lhs), p.exprText(d.Rhs))
	case IfData:
		marker := ""
		if d.Unlikely {
			marker = " (unlikely)"
		}
		p.printf("%sif %s%s {\n", p.pad(), p.exprText(d.Cond), marker)
		p.indent++
		p.printBlock(d.Then)
		p.indent--
		if d.Else != nil {
			p.printf("%s} else {\n", p.pad())
			p.indent++
			p.printBlock(d.Else)
			p.indent--
		}
		p.printf("%s}\n", p.pad())
	case WhileData:
		p.printf("%swhile %s {\n", p.pad(), p.exprText(d.Cond))
		p.indent++
		p.printBlock(d.Body)
		p.indent--
		p.printf("%s}\n", p.pad())
	case CommentData:
		p.printf("%s// %s\n", p.pad(), d.Text)
	case CallProcData:
		args := make([]string, len(d.Args))
		for i, arg := range d.Args {
			args[i] = p.exprText(arg)
		}
		p.printf("%scall %s(%s)\n", p.pad(), p.netlist.Func(d.Proc).Name, strings.Join(args, ", "))
	case ExprStmtData:
		p.printf("%s%s\n", p.pad(), p.exprText(d.Expr))
	case DebugPrintData:
		p.printf("%sdebug %q\n", p.pad(), d.Text)
	case FatalData:
		p.printf("%sfatal %q\n", p.pad(), d.Msg)
	case ForkData:
		p.printf("%sfork %s {\n", p.pad(), d.Join)
		p.indent++
		for _, br := range d.Branches {
			p.printf("%sbranch %s {\n", p.pad(), br.Name)
			p.indent++
			p.printBlock(br.Body)
			p.indent--
			p.printf("%s}\n", p.pad())
		}
		p.indent--
		p.printf("%s}\n", p.pad())
	case AwaitData:
		if d.Delay != nil {
			p.printf("%sawait %s delay=%s sen=@%d\n", p.pad(), p.varName(d.Scheduler), p.exprText(d.Delay), d.Sen)
		} else {
			p.printf("%sawait %s sen=@%d\n", p.pad(), p.varName(d.Scheduler), d.Sen)
		}
	default:
		p.printf("%s<unknown %s>\n", p.pad(), s.Kind)
	}
}

func (p *Printer) exprText(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch d := e.Data.(type) {
	case ConstData:
		return fmt.Sprintf("%d", d.Value)
	case VarRefData:
		return p.varName(d.Var)
	case UnaryData:
		return fmt.Sprintf("%s%s", d.Op, p.exprText(d.Operand))
	case BinaryData:
		return fmt.Sprintf("(%s %s %s)", p.exprText(d.Lhs), d.Op, p.exprText(d.Rhs))
	case MethodCallData:
		args := make([]string, len(d.Args))
		for i, arg := range d.Args {
			args[i] = p.exprText(arg)
		}
		return fmt.Sprintf("%s.%s(%s)", p.varName(d.Recv), d.Method, strings.Join(args, ", "))
	default:
		return "<unknown>"
	}
}

func (p *Printer) senTreeText(t *SenTree) string {
	parts := make([]string, len(t.Items))
	for i, item := range t.Items {
		if item.Signal != nil {
			parts[i] = fmt.Sprintf("%s %s", item.Kind, p.exprText(item.Signal))
		} else {
			parts[i] = item.Kind.String()
		}
	}
	return "(" + strings.Join(parts, " or ") + ")"
}

func (p *Printer) varName(id VarID) string {
	if !id.IsValid() {
		return "<novar>"
	}
	return p.netlist.Var(id).Name
}

func (p *Printer) pad() string {
	return strings.Repeat("  ", p.indent)
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func varFlagText(v *Var) string {
	var parts []string
	if v.Flags.Has(VarInput) {
		parts = append(parts, "input")
	}
	if v.Flags.Has(VarOutput) {
		parts = append(parts, "output")
	}
	if v.Flags.Has(VarFuncLocal) {
		parts = append(parts, "local")
	}
	if v.Flags.Has(VarForkSync) {
		parts = append(parts, "forksync")
	}
	if v.Flags.Has(VarWrittenBySuspendable) {
		parts = append(parts, "suspwrite")
	}
	if v.Flags.Has(VarUsedByDPI) {
		parts = append(parts, "dpi")
	}
	if v.Flags.Has(VarTrigVec) {
		parts = append(parts, "trigvec")
	}
	return strings.Join(parts, " ")
}
