package ir

import (
	"strobe/internal/source"
)

// Arg is one declared argument of a generated procedure.
type Arg struct {
	Var   VarID
	ByRef bool
}

// Func is a generated procedure.
type Func struct {
	ID   FuncID
	Name string
	// Scope the procedure was generated for; NoScopeID for top-level
	// orchestration procedures.
	Scope ScopeID
	// Slow marks one-shot code (static/initial/final/settle) that the
	// backend may keep out of the hot path.
	Slow bool
	// Entry marks procedures retained as netlist entry points.
	Entry bool
	// Coroutine marks resumable procedures (suspendable process bodies and
	// await-containing fork branches).
	Coroutine bool
	Args      []Arg
	Body      *Block
	Span      source.Span
}
