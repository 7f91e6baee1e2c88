package ir

import (
	"strobe/internal/source"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprConst represents an unsigned integer constant.
	ExprConst ExprKind = iota
	// ExprVarRef represents a variable read.
	ExprVarRef
	// ExprUnary represents unary operators.
	ExprUnary
	// ExprBinary represents binary operators.
	ExprBinary
	// ExprMethodCall represents an operation on a trigger vector or
	// scheduler object (word/any/set/clear/thisOr/andNot/resume/commit/...).
	ExprMethodCall
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprConst:
		return "Const"
	case ExprVarRef:
		return "VarRef"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprMethodCall:
		return "MethodCall"
	default:
		return "Unknown"
	}
}

// Expr represents an expression node.
type Expr struct {
	Kind ExprKind
	ID   NodeID
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific payloads.
type ExprData interface {
	exprData()
}

// ConstData holds data for ExprConst.
type ConstData struct {
	Value uint64
	Width uint32 // bit width; 1 for flags, up to 64
}

func (ConstData) exprData() {}

// VarRefData holds data for ExprVarRef.
type VarRefData struct {
	Var VarID
}

func (VarRefData) exprData() {}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	// OpNot is logical negation (result 0/1).
	OpNot UnaryOp = iota
	// OpBitNot is bitwise complement within the operand width.
	OpBitNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpBitNot:
		return "~"
	default:
		return "?"
	}
}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	OpAnd BinaryOp = iota // bitwise &
	OpOr                  // bitwise |
	OpXor                 // bitwise ^
	OpEq
	OpNe
	OpLt
	OpGt
	OpAdd
	OpShl
	OpShr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpAdd:
		return "+"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	default:
		return "?"
	}
}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op  BinaryOp
	Lhs *Expr
	Rhs *Expr
}

func (BinaryData) exprData() {}

// Method names an operation on a trigger vector or scheduler object.
type Method string

const (
	// Trigger-vector methods.
	MethodWord   Method = "word"   // word(i): read the i-th 64-bit word
	MethodAny    Method = "any"    // any(): true when any bit is set
	MethodSet    Method = "set"    // set(i, expr): assign one bit
	MethodClear  Method = "clear"  // clear(): zero the whole vector
	MethodThisOr Method = "thisOr" // thisOr(other): this |= other
	MethodAndNot Method = "andNot" // andNot(a, b): this = a & ~b

	// Scheduler-object methods.
	MethodResume        Method = "resume"
	MethodCommit        Method = "commit"
	MethodDoPostUpdates Method = "doPostUpdates"
	// MethodAwaitingCurrentTime queries a delay scheduler for a wake due
	// at the current model time. Legal inside sensitivity conditions.
	MethodAwaitingCurrentTime Method = "awaitingCurrentTime"
)

// MethodCallData holds data for ExprMethodCall. The receiver is always a
// variable: a trigger vector or a scheduler object.
type MethodCallData struct {
	Recv   VarID
	Method Method
	Args   []*Expr
}

func (MethodCallData) exprData() {}

// Expression constructors. Every node is allocated through the arena so
// allocation counts and NodeIDs stay consistent.

func (a *Arena) Const(span source.Span, value uint64, width uint32) *Expr {
	return a.newExpr(ExprConst, span, ConstData{Value: value, Width: width})
}

// ConstBool is shorthand for a 1-bit constant.
func (a *Arena) ConstBool(span source.Span, v bool) *Expr {
	var value uint64
	if v {
		value = 1
	}
	return a.Const(span, value, 1)
}

func (a *Arena) VarRefE(span source.Span, v VarID) *Expr {
	return a.newExpr(ExprVarRef, span, VarRefData{Var: v})
}

func (a *Arena) Unary(span source.Span, op UnaryOp, operand *Expr) *Expr {
	return a.newExpr(ExprUnary, span, UnaryData{Op: op, Operand: operand})
}

func (a *Arena) Binary(span source.Span, op BinaryOp, lhs, rhs *Expr) *Expr {
	return a.newExpr(ExprBinary, span, BinaryData{Op: op, Lhs: lhs, Rhs: rhs})
}

func (a *Arena) MethodCall(span source.Span, recv VarID, method Method, args ...*Expr) *Expr {
	return a.newExpr(ExprMethodCall, span, MethodCallData{Recv: recv, Method: method, Args: args})
}

// TrigWord builds vec.word(i).
func (a *Arena) TrigWord(span source.Span, vec VarID, wordIndex uint32) *Expr {
	return a.MethodCall(span, vec, MethodWord, a.Const(span, uint64(wordIndex), 32))
}

// TrigAny builds vec.any().
func (a *Arena) TrigAny(span source.Span, vec VarID) *Expr {
	return a.MethodCall(span, vec, MethodAny)
}

// BitTest builds (vec.word(index/64) >> (index%64)) & 1 — the only two-level
// addressing downstream consumers may rely on.
func (a *Arena) BitTest(span source.Span, vec VarID, index uint32) *Expr {
	word := a.TrigWord(span, vec, index/64)
	shifted := a.Binary(span, OpShr, word, a.Const(span, uint64(index%64), 32))
	return a.Binary(span, OpAnd, shifted, a.Const(span, 1, 64))
}
