package ir

import "fmt"

// CloneExpr deep-copies an expression tree. Clones get fresh NodeIDs.
func CloneExpr(a *Arena, e *Expr) *Expr {
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case ConstData:
		return a.newExpr(e.Kind, e.Span, d)
	case VarRefData:
		return a.newExpr(e.Kind, e.Span, d)
	case UnaryData:
		return a.newExpr(e.Kind, e.Span, UnaryData{
			Op:      d.Op,
			Operand: CloneExpr(a, d.Operand),
		})
	case BinaryData:
		return a.newExpr(e.Kind, e.Span, BinaryData{
			Op:  d.Op,
			Lhs: CloneExpr(a, d.Lhs),
			Rhs: CloneExpr(a, d.Rhs),
		})
	case MethodCallData:
		args := make([]*Expr, len(d.Args))
		for i, arg := range d.Args {
			args[i] = CloneExpr(a, arg)
		}
		return a.newExpr(e.Kind, e.Span, MethodCallData{
			Recv:   d.Recv,
			Method: d.Method,
			Args:   args,
		})
	default:
		panic(fmt.Sprintf("ir: clone of unknown expression kind %s", e.Kind))
	}
}

// CloneStmt deep-copies a statement subtree. The clone is unowned and
// carries fresh NodeIDs throughout.
func CloneStmt(a *Arena, s *Stmt) *Stmt {
	switch d := s.Data.(type) {
	case AssignData:
		return a.newStmt(s.Kind, s.Span, AssignData{
			Lhs: d.Lhs,
			Rhs: CloneExpr(a, d.Rhs),
		})
	case IfData:
		return a.newStmt(s.Kind, s.Span, IfData{
			Cond:     CloneExpr(a, d.Cond),
			Then:     CloneBlock(a, d.Then),
			Else:     CloneBlock(a, d.Else),
			Unlikely: d.Unlikely,
		})
	case WhileData:
		return a.newStmt(s.Kind, s.Span, WhileData{
			Cond: CloneExpr(a, d.Cond),
			Body: CloneBlock(a, d.Body),
		})
	case CommentData:
		return a.newStmt(s.Kind, s.Span, d)
	case CallProcData:
		args := make([]*Expr, len(d.Args))
		for i, arg := range d.Args {
			args[i] = CloneExpr(a, arg)
		}
		return a.newStmt(s.Kind, s.Span, CallProcData{Proc: d.Proc, Args: args})
	case ExprStmtData:
		return a.newStmt(s.Kind, s.Span, ExprStmtData{Expr: CloneExpr(a, d.Expr)})
	case DebugPrintData:
		return a.newStmt(s.Kind, s.Span, d)
	case FatalData:
		return a.newStmt(s.Kind, s.Span, d)
	case ForkData:
		branches := make([]ForkBranch, len(d.Branches))
		for i, br := range d.Branches {
			branches[i] = ForkBranch{Name: br.Name, Scope: br.Scope, Body: CloneBlock(a, br.Body)}
		}
		return a.newStmt(s.Kind, s.Span, ForkData{Join: d.Join, Branches: branches})
	case AwaitData:
		return a.newStmt(s.Kind, s.Span, AwaitData{
			Scheduler: d.Scheduler,
			Sen:       d.Sen,
			Delay:     CloneExpr(a, d.Delay),
		})
	default:
		panic(fmt.Sprintf("ir: clone of unknown statement kind %s", s.Kind))
	}
}

// CloneBlock deep-copies a block and everything it owns.
func CloneBlock(a *Arena, b *Block) *Block {
	if b == nil {
		return nil
	}
	out := a.NewBlock()
	for _, s := range b.stmts {
		out.Append(CloneStmt(a, s))
	}
	return out
}
