// Package ir provides the pointer-graph intermediate representation the
// scheduler consumes (netlist, logic blocks, sensitivities) and produces
// (evaluation procedures).
//
// All nodes are created through an Arena, which assigns stable NodeIDs and
// counts allocations. Statements live in Block containers that enforce
// single ownership at runtime: appending an already-owned statement panics,
// Take/TakeAll detach, Drop poisons a detached subtree so accidental reuse
// panics. Passes annotate nodes through side tables (see SideTable) keyed
// by ID, never through fields on the nodes themselves.
package ir

// NodeID identifies a statement or expression node.
type NodeID uint32

// VarID identifies a variable (signal, temporary, or scheduler object).
type VarID uint32

// ScopeID identifies a scope in the design hierarchy.
type ScopeID uint32

// FuncID identifies a generated procedure.
type FuncID uint32

// SenTreeID identifies a sensitivity condition.
type SenTreeID uint32

// Invalid ID constants (zero is sentinel).
const (
	NoNodeID    NodeID    = 0
	NoVarID     VarID     = 0
	NoScopeID   ScopeID   = 0
	NoFuncID    FuncID    = 0
	NoSenTreeID SenTreeID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id NodeID) IsValid() bool    { return id != NoNodeID }
func (id VarID) IsValid() bool     { return id != NoVarID }
func (id ScopeID) IsValid() bool   { return id != NoScopeID }
func (id FuncID) IsValid() bool    { return id != NoFuncID }
func (id SenTreeID) IsValid() bool { return id != NoSenTreeID }
