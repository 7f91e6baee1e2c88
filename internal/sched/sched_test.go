package sched

import (
	"testing"

	"strobe/internal/ir"
	"strobe/internal/source"
)

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}

func posedgeOf(n *ir.Netlist, v ir.VarID) ir.SenTreeID {
	sp := source.Span{}
	return n.NewSenTree(sp, ir.SenItem{Kind: ir.SenPosedge, Signal: n.Arena.VarRefE(sp, v)})
}

func changedOf(n *ir.Netlist, v ir.VarID) ir.SenTreeID {
	sp := source.Span{}
	return n.NewSenTree(sp, ir.SenItem{Kind: ir.SenChanged, Signal: n.Arena.VarRefE(sp, v)})
}

func comboSen(n *ir.Netlist) ir.SenTreeID {
	return n.NewSenTree(source.Span{}, ir.SenItem{Kind: ir.SenCombo})
}

// addAssignBlock registers a logic block whose body is `dst = src`.
func addAssignBlock(n *ir.Netlist, name string, kind ir.LogicKind, sen ir.SenTreeID, dst, src ir.VarID) *ir.LogicBlock {
	sp := source.Span{}
	a := n.Arena
	body := a.NewBlock()
	body.Append(a.Assign(sp, dst, a.VarRefE(sp, src)))
	b := &ir.LogicBlock{Name: name, Scope: n.TopScope, Kind: kind, Sen: sen, Body: body, Span: sp}
	n.AddBlock(b)
	return b
}

func getFunc(t *testing.T, n *ir.Netlist, name string) *ir.Func {
	t.Helper()
	id, ok := n.FuncByName(name)
	if !ok {
		t.Fatalf("procedure %q not generated", name)
	}
	return n.Func(id)
}

func hasFunc(n *ir.Netlist, name string) bool {
	_, ok := n.FuncByName(name)
	return ok
}

// callNames lists the callees of the top-level CallProc statements.
func callNames(n *ir.Netlist, stmts []*ir.Stmt) []string {
	var out []string
	for _, s := range stmts {
		if d, ok := s.Data.(ir.CallProcData); ok {
			out = append(out, n.Func(d.Proc).Name)
		}
	}
	return out
}

func hasCall(n *ir.Netlist, stmts []*ir.Stmt, name string) bool {
	for _, got := range callNames(n, stmts) {
		if got == name {
			return true
		}
	}
	return false
}

// firstWhile returns the body of the first While statement.
func firstWhile(t *testing.T, stmts []*ir.Stmt) []*ir.Stmt {
	t.Helper()
	for _, s := range stmts {
		if d, ok := s.Data.(ir.WhileData); ok {
			return d.Body.Stmts()
		}
	}
	t.Fatal("no while statement found")
	return nil
}

// anyGuardThen returns the then-branch of the `if (vec.any())` statement
// closing a convergence loop body.
func anyGuardThen(t *testing.T, stmts []*ir.Stmt) []*ir.Stmt {
	t.Helper()
	for _, s := range stmts {
		d, ok := s.Data.(ir.IfData)
		if !ok {
			continue
		}
		call, ok := d.Cond.Data.(ir.MethodCallData)
		if !ok || call.Method != ir.MethodAny {
			continue
		}
		return d.Then.Stmts()
	}
	t.Fatal("no if(any()) guard found")
	return nil
}

// methodCalled reports whether any statement is an expression statement
// invoking the given method on the given receiver.
func methodCalled(stmts []*ir.Stmt, recv ir.VarID, method ir.Method) bool {
	for _, s := range stmts {
		d, ok := s.Data.(ir.ExprStmtData)
		if !ok {
			continue
		}
		call, ok := d.Expr.Data.(ir.MethodCallData)
		if !ok {
			continue
		}
		if call.Recv == recv && call.Method == method {
			return true
		}
	}
	return false
}

func lookupVar(t *testing.T, n *ir.Netlist, name string) ir.VarID {
	t.Helper()
	id, ok := n.LookupVar(n.TopScope, name)
	if !ok {
		t.Fatalf("variable %q not created", name)
	}
	return id
}
