package ir

import (
	"strobe/internal/source"
)

// VarFlags encodes variable roles as a bitmask.
type VarFlags uint16

const (
	// VarInput marks a primary input.
	VarInput VarFlags = 1 << iota
	// VarOutput marks a primary output.
	VarOutput
	// VarFuncLocal marks a variable declared inside a process body.
	VarFuncLocal
	// VarForkSync marks a fork synchronization handle.
	VarForkSync
	// VarWrittenBySuspendable marks a variable written inside a suspendable
	// process; such writes need external sensitivity domains for ordering.
	VarWrittenBySuspendable
	// VarUsedByDPI marks a variable written by exported DPI calls.
	VarUsedByDPI
	// VarTrigVec marks a trigger vector.
	VarTrigVec
)

// Has reports whether all given flags are set.
func (f VarFlags) Has(flags VarFlags) bool {
	return f&flags == flags
}

// SchedKind distinguishes scheduler-object variables.
type SchedKind uint8

const (
	// SchedNone: an ordinary data variable.
	SchedNone SchedKind = iota
	// SchedDelay: a delay scheduler (#-style waits).
	SchedDelay
	// SchedEvent: a named-event scheduler.
	SchedEvent
	// SchedTrigger: a trigger scheduler; the only kind needing commit
	// calls when its condition did not fire.
	SchedTrigger
	// SchedDynamic: a dynamic condition scheduler; the only kind needing
	// post updates after trigger evaluation.
	SchedDynamic
)

func (k SchedKind) String() string {
	switch k {
	case SchedNone:
		return "none"
	case SchedDelay:
		return "delay"
	case SchedEvent:
		return "event"
	case SchedTrigger:
		return "trigger"
	case SchedDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// IsScheduler reports whether the kind names a scheduler object.
func (k SchedKind) IsScheduler() bool { return k != SchedNone }

// Var is a signal, generated temporary, process local, or scheduler object.
type Var struct {
	ID    VarID
	Name  string
	Scope ScopeID
	Width uint32 // bit width; trigger vectors may exceed 64
	Flags VarFlags
	Sched SchedKind
	Span  source.Span
}

// Scope is a named node of the design hierarchy.
type Scope struct {
	ID     ScopeID
	Name   string
	Parent ScopeID // NoScopeID for the top scope

	vars map[string]VarID
}
