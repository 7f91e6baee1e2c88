package ir

import (
	"fmt"

	"strobe/internal/source"
)

// LogicKind enumerates logic block classes. For LogicAlways the sensitivity
// tree decides comb/clocked/hybrid; the other kinds name their region
// directly.
type LogicKind uint8

const (
	LogicAlways LogicKind = iota
	LogicObserved
	LogicReactive
	LogicPostponed
	LogicInitial
	LogicStatic
	LogicFinal
)

func (k LogicKind) String() string {
	switch k {
	case LogicAlways:
		return "always"
	case LogicObserved:
		return "observed"
	case LogicReactive:
		return "reactive"
	case LogicPostponed:
		return "postponed"
	case LogicInitial:
		return "initial"
	case LogicStatic:
		return "static"
	case LogicFinal:
		return "final"
	default:
		return "unknown"
	}
}

// RegionHint is an optional partition hint carried by a clocked block.
type RegionHint uint8

const (
	HintNone RegionHint = iota
	HintPre
	HintAct
	HintNba
)

func (h RegionHint) String() string {
	switch h {
	case HintPre:
		return "pre"
	case HintAct:
		return "act"
	case HintNba:
		return "nba"
	default:
		return "none"
	}
}

// LogicBlock is a scope-qualified statement sequence guarded by one
// sensitivity condition. It is owned by its originating scope until
// consumed by ordering; consumed exactly once.
type LogicBlock struct {
	Name        string
	Scope       ScopeID
	Kind        LogicKind
	Sen         SenTreeID
	Body        *Block
	Span        source.Span
	Suspendable bool
	Hint        RegionHint
}

// Netlist is the root of the IR: the design hierarchy, variables, logic
// blocks, sensitivity registry, and — after scheduling — the generated
// procedures and entry points.
type Netlist struct {
	Arena *Arena
	Name  string

	TopScope ScopeID
	Blocks   []*LogicBlock

	// Entry points filled in by scheduling.
	Eval    FuncID
	EvalNBA FuncID

	// DpiExportTrigger is the flag variable set by exported DPI writes;
	// NoVarID when the design declares none.
	DpiExportTrigger VarID
	// DebugEnable guards trigger-dump calls in generated code.
	DebugEnable VarID

	// Names hands out unique generated names (fork procedures, split
	// spill procedures, temporaries).
	Names *UniqueNames

	scopes     []*Scope
	vars       []*Var
	funcs      []*Func
	senTrees   []*SenTree
	funcByName map[string]FuncID
}

// NewNetlist creates a netlist with a top scope named after the design.
func NewNetlist(name string) *Netlist {
	n := &Netlist{
		Arena:      NewArena(),
		Name:       name,
		Names:      NewUniqueNames(),
		funcByName: make(map[string]FuncID),
	}
	n.TopScope = n.NewScope(NoScopeID, "TOP")
	return n
}

// NewScope allocates a scope under parent.
func (n *Netlist) NewScope(parent ScopeID, name string) ScopeID {
	id := ScopeID(len(n.scopes) + 1)
	n.scopes = append(n.scopes, &Scope{
		ID:     id,
		Name:   name,
		Parent: parent,
		vars:   make(map[string]VarID),
	})
	return id
}

// Scope returns the scope for the given ID.
func (n *Netlist) Scope(id ScopeID) *Scope {
	return n.scopes[id-1]
}

// Scopes returns all scopes in allocation order.
func (n *Netlist) Scopes() []*Scope {
	return n.scopes
}

// ScopePath returns the dotted hierarchy path of a scope.
func (n *Netlist) ScopePath(id ScopeID) string {
	sc := n.Scope(id)
	if !sc.Parent.IsValid() {
		return sc.Name
	}
	return n.ScopePath(sc.Parent) + "." + sc.Name
}

// NewVar allocates a variable in scope. Names must be unique per scope;
// a duplicate is a caller bug and panics.
func (n *Netlist) NewVar(span source.Span, scope ScopeID, name string, width uint32, flags VarFlags) VarID {
	sc := n.Scope(scope)
	if _, exists := sc.vars[name]; exists {
		panic(fmt.Sprintf("ir: duplicate variable %q in scope %q", name, sc.Name))
	}
	id := VarID(len(n.vars) + 1)
	n.vars = append(n.vars, &Var{
		ID:    id,
		Name:  name,
		Scope: scope,
		Width: width,
		Flags: flags,
		Span:  span,
	})
	sc.vars[name] = id
	return id
}

// NewSchedVar allocates a scheduler-object variable.
func (n *Netlist) NewSchedVar(span source.Span, scope ScopeID, name string, kind SchedKind) VarID {
	id := n.NewVar(span, scope, name, 0, 0)
	n.vars[id-1].Sched = kind
	return id
}

// Var returns the variable for the given ID.
func (n *Netlist) Var(id VarID) *Var {
	return n.vars[id-1]
}

// Vars returns all variables in allocation order.
func (n *Netlist) Vars() []*Var {
	return n.vars
}

// LookupVar finds a variable by name, walking scope parents.
func (n *Netlist) LookupVar(scope ScopeID, name string) (VarID, bool) {
	for scope.IsValid() {
		sc := n.Scope(scope)
		if id, ok := sc.vars[name]; ok {
			return id, true
		}
		scope = sc.Parent
	}
	return NoVarID, false
}

// CreateTemp allocates a scope variable with a unique generated name.
// Temporaries persist across evaluation calls (previous-value state,
// iteration counters); they are not function locals.
func (n *Netlist) CreateTemp(span source.Span, scope ScopeID, base string, width uint32) VarID {
	return n.NewVar(span, scope, n.Names.Get(base), width, 0)
}

// CreateTempLike allocates a variable with the same width, flags and
// scheduler kind as an existing one. Used for the per-region trigger
// vectors, which must mirror the act vector exactly.
func (n *Netlist) CreateTempLike(span source.Span, scope ScopeID, name string, like VarID) VarID {
	src := n.Var(like)
	id := n.NewVar(span, scope, name, src.Width, src.Flags)
	n.Var(id).Sched = src.Sched
	return id
}

// NewFunc allocates a generated procedure with an empty body. The caller
// fills Slow/Entry/Coroutine/Args afterwards.
func (n *Netlist) NewFunc(span source.Span, name string, scope ScopeID) *Func {
	if _, exists := n.funcByName[name]; exists {
		panic(fmt.Sprintf("ir: duplicate procedure %q", name))
	}
	id := FuncID(len(n.funcs) + 1)
	f := &Func{
		ID:    id,
		Name:  name,
		Scope: scope,
		Body:  n.Arena.NewBlock(),
		Span:  span,
	}
	n.funcs = append(n.funcs, f)
	n.funcByName[name] = id
	return f
}

// Func returns the procedure for the given ID.
func (n *Netlist) Func(id FuncID) *Func {
	return n.funcs[id-1]
}

// Funcs returns all procedures in allocation order.
func (n *Netlist) Funcs() []*Func {
	return n.funcs
}

// FuncByName finds a procedure by generated name.
func (n *Netlist) FuncByName(name string) (FuncID, bool) {
	id, ok := n.funcByName[name]
	return id, ok
}

// NewSenTree registers a sensitivity condition.
func (n *Netlist) NewSenTree(span source.Span, items ...SenItem) SenTreeID {
	id := SenTreeID(len(n.senTrees) + 1)
	n.senTrees = append(n.senTrees, &SenTree{ID: id, Span: span, Items: items})
	return id
}

// SenTree returns the condition for the given ID.
func (n *Netlist) SenTree(id SenTreeID) *SenTree {
	return n.senTrees[id-1]
}

// SenTrees returns all conditions in allocation order.
func (n *Netlist) SenTrees() []*SenTree {
	return n.senTrees
}

// FindSenTree returns a structurally equal registered condition, if any.
// Loaders use it to share one tree among blocks with identical
// sensitivities; scheduling itself never merges by structure.
func (n *Netlist) FindSenTree(items []SenItem) (SenTreeID, bool) {
	probe := &SenTree{Items: items}
	for _, t := range n.senTrees {
		if t.Same(probe) {
			return t.ID, true
		}
	}
	return NoSenTreeID, false
}

// AddBlock appends a logic block to the netlist.
func (n *Netlist) AddBlock(b *LogicBlock) {
	n.Blocks = append(n.Blocks, b)
}
