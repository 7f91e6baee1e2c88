package ir

import (
	"strobe/internal/source"
)

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtAssign represents `lhs = rhs` on a variable.
	StmtAssign StmtKind = iota
	// StmtIf represents a conditional with optional else branch.
	StmtIf
	// StmtWhile represents a bounded loop.
	StmtWhile
	// StmtComment represents a codegen comment preserved in dumps.
	StmtComment
	// StmtCallProc represents a call to a generated procedure.
	StmtCallProc
	// StmtExpr represents an expression evaluated for effect
	// (trigger-vector and scheduler method calls).
	StmtExpr
	// StmtDebugPrint represents debug/dump output.
	StmtDebugPrint
	// StmtFatal aborts evaluation with a message.
	StmtFatal
	// StmtFork represents a parallel group of branches.
	StmtFork
	// StmtAwait suspends the enclosing process on a scheduler object.
	StmtAwait
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtAssign:
		return "Assign"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtComment:
		return "Comment"
	case StmtCallProc:
		return "CallProc"
	case StmtExpr:
		return "Expr"
	case StmtDebugPrint:
		return "DebugPrint"
	case StmtFatal:
		return "Fatal"
	case StmtFork:
		return "Fork"
	case StmtAwait:
		return "Await"
	default:
		return "Unknown"
	}
}

// Stmt represents a statement node. Statements are owned by at most one
// Block at a time; the owner pointer is maintained by Block operations.
type Stmt struct {
	Kind StmtKind
	ID   NodeID
	Span source.Span
	Data StmtData

	owner   *Block
	dropped bool
}

// Owned reports whether the statement currently sits in a block.
func (s *Stmt) Owned() bool { return s.owner != nil }

// Dropped reports whether the statement has been poisoned by Block.Drop.
func (s *Stmt) Dropped() bool { return s.dropped }

// StmtData is the interface for statement-specific payloads.
type StmtData interface {
	stmtData()
}

// AssignData holds data for StmtAssign.
type AssignData struct {
	Lhs VarID
	Rhs *Expr
}

func (AssignData) stmtData() {}

// IfData holds data for StmtIf.
type IfData struct {
	Cond *Expr
	Then *Block
	Else *Block // nil if no else branch
	// Unlikely marks the then-branch as a cold path (fatal checks).
	Unlikely bool
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body *Block
}

func (WhileData) stmtData() {}

// CommentData holds data for StmtComment.
type CommentData struct {
	Text string
}

func (CommentData) stmtData() {}

// CallProcData holds data for StmtCallProc. Arguments line up with the
// callee's declared args; by-ref args must be variable references.
type CallProcData struct {
	Proc FuncID
	Args []*Expr
}

func (CallProcData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// DebugPrintData holds data for StmtDebugPrint.
type DebugPrintData struct {
	Text string
}

func (DebugPrintData) stmtData() {}

// FatalData holds data for StmtFatal.
type FatalData struct {
	Msg string
}

func (FatalData) stmtData() {}

// JoinKind distinguishes fork join semantics.
type JoinKind uint8

const (
	// JoinAll waits for every branch (fork..join).
	JoinAll JoinKind = iota
	// JoinAny waits for the first branch to finish.
	JoinAny
	// JoinNone does not wait at all.
	JoinNone
)

func (k JoinKind) String() string {
	switch k {
	case JoinAll:
		return "join"
	case JoinAny:
		return "join_any"
	case JoinNone:
		return "join_none"
	default:
		return "?"
	}
}

// ForkBranch is one parallel branch of a fork. Scope, when valid, holds the
// variables declared inside the branch itself; references to those never
// need capture routing when the branch is split into its own procedure.
type ForkBranch struct {
	Name  string
	Scope ScopeID
	Body  *Block
}

// ForkData holds data for StmtFork.
type ForkData struct {
	Join     JoinKind
	Branches []ForkBranch
}

func (ForkData) stmtData() {}

// AwaitData holds data for StmtAwait. Scheduler names the waited-on object;
// Sen is the resume sensitivity the scheduler fires on. Delay carries the
// wait amount for delay schedulers and is nil for every other kind.
type AwaitData struct {
	Scheduler VarID
	Sen       SenTreeID
	Delay     *Expr
}

func (AwaitData) stmtData() {}

// Statement constructors.

func (a *Arena) Assign(span source.Span, lhs VarID, rhs *Expr) *Stmt {
	return a.newStmt(StmtAssign, span, AssignData{Lhs: lhs, Rhs: rhs})
}

func (a *Arena) If(span source.Span, cond *Expr, then, els *Block) *Stmt {
	return a.newStmt(StmtIf, span, IfData{Cond: cond, Then: then, Else: els})
}

// IfUnlikely builds an If whose then-branch is a cold path.
func (a *Arena) IfUnlikely(span source.Span, cond *Expr, then, els *Block) *Stmt {
	return a.newStmt(StmtIf, span, IfData{Cond: cond, Then: then, Else: els, Unlikely: true})
}

func (a *Arena) While(span source.Span, cond *Expr, body *Block) *Stmt {
	return a.newStmt(StmtWhile, span, WhileData{Cond: cond, Body: body})
}

func (a *Arena) Comment(span source.Span, text string) *Stmt {
	return a.newStmt(StmtComment, span, CommentData{Text: text})
}

func (a *Arena) CallProc(span source.Span, proc FuncID, args ...*Expr) *Stmt {
	return a.newStmt(StmtCallProc, span, CallProcData{Proc: proc, Args: args})
}

func (a *Arena) ExprStmt(expr *Expr) *Stmt {
	return a.newStmt(StmtExpr, expr.Span, ExprStmtData{Expr: expr})
}

func (a *Arena) DebugPrint(span source.Span, text string) *Stmt {
	return a.newStmt(StmtDebugPrint, span, DebugPrintData{Text: text})
}

func (a *Arena) Fatal(span source.Span, msg string) *Stmt {
	return a.newStmt(StmtFatal, span, FatalData{Msg: msg})
}

func (a *Arena) Fork(span source.Span, join JoinKind, branches ...ForkBranch) *Stmt {
	return a.newStmt(StmtFork, span, ForkData{Join: join, Branches: branches})
}

func (a *Arena) Await(span source.Span, scheduler VarID, sen SenTreeID) *Stmt {
	return a.newStmt(StmtAwait, span, AwaitData{Scheduler: scheduler, Sen: sen})
}

// AwaitDelay builds an await on a delay scheduler with an explicit amount.
func (a *Arena) AwaitDelay(span source.Span, scheduler VarID, sen SenTreeID, amount *Expr) *Stmt {
	return a.newStmt(StmtAwait, span, AwaitData{Scheduler: scheduler, Sen: sen, Delay: amount})
}
