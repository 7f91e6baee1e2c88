package design

// Document is the flattened design model exchanged with the front end:
// one scope, explicit signals and scheduler objects, and logic blocks with
// structured statement trees. It is the YAML surface for hand-written
// designs and the msgpack payload for generated ones.
type Document struct {
	// Name identifies the design; it becomes the netlist top scope name.
	Name string `yaml:"name"`

	// Signals declares every data variable of the flattened design.
	Signals []Signal `yaml:"signals"`

	// Schedulers declares the scheduler objects suspendable processes
	// await on.
	Schedulers []Scheduler `yaml:"schedulers,omitempty"`

	// Watch lists signals the simulator prints after each step. Entries
	// must name declared signals.
	Watch []string `yaml:"watch,omitempty"`

	// DpiExport declares that exported DPI calls may write signals; the
	// build allocates the trigger flag the scheduler folds into every
	// region's trigger vector.
	DpiExport bool `yaml:"dpi_export,omitempty"`

	// Blocks holds the design's logic in declaration order. Declaration
	// order is execution order within a region.
	Blocks []Block `yaml:"blocks"`
}

// Signal declares one data variable.
type Signal struct {
	// Name is the signal identifier, unique across signals, schedulers,
	// and block locals.
	Name string `yaml:"name"`

	// Width is the bit width, 1 to 64.
	Width uint32 `yaml:"width"`

	// Input marks a primary input: written from outside between
	// evaluations, never by design logic replicated for inputs.
	Input bool `yaml:"input,omitempty"`

	// Output marks a primary output.
	Output bool `yaml:"output,omitempty"`

	// Dpi marks a signal written by exported DPI calls.
	Dpi bool `yaml:"dpi,omitempty"`
}

// Scheduler kinds. Delay schedulers serve `await`+`delay`; the other three
// serve `await`+`when`.
const (
	SchedulerDelay   = "delay"
	SchedulerEvent   = "event"
	SchedulerTrigger = "trigger"
	SchedulerDynamic = "dynamic"
)

// Scheduler declares one scheduler object.
type Scheduler struct {
	// Name is the scheduler identifier.
	Name string `yaml:"name"`

	// Kind is one of delay, event, trigger, dynamic.
	Kind string `yaml:"kind"`
}

// Block kinds. An `always` block's region follows its sensitivity; the
// other kinds name their execution slot directly.
const (
	BlockAlways    = "always"
	BlockObserved  = "observed"
	BlockReactive  = "reactive"
	BlockPostponed = "postponed"
	BlockInitial   = "initial"
	BlockStatic    = "static"
	BlockFinal     = "final"
)

// Region hints for always blocks.
const (
	HintPre = "pre"
	HintAct = "act"
	HintNba = "nba"
)

// Block is one logic block.
type Block struct {
	// Name identifies the block in diagnostics and fork procedure names.
	Name string `yaml:"name"`

	// Kind is one of always, observed, reactive, postponed, initial,
	// static, final.
	Kind string `yaml:"kind"`

	// Hint optionally pins an always block to the pre, act, or nba region
	// instead of the default partition.
	Hint string `yaml:"hint,omitempty"`

	// Suspendable marks a process that may await. Only always and initial
	// blocks may suspend; a suspendable always with no sens entry runs as
	// a process started once and looping forever.
	Suspendable bool `yaml:"suspendable,omitempty"`

	// Sens lists the sensitivity terms. Required for non-suspendable
	// always blocks and for observed/reactive blocks; forbidden for
	// postponed, initial, static, and final blocks, which carry implied
	// sensitivities.
	Sens []SenTerm `yaml:"sens,omitempty"`

	// Locals declares process-local variables visible to this block's
	// body and captured by its fork branches.
	Locals []Local `yaml:"locals,omitempty"`

	// Body is the statement list.
	Body []*StmtNode `yaml:"body"`
}

// Edge names for sensitivity terms and await conditions.
const (
	EdgePosedge  = "posedge"
	EdgeNegedge  = "negedge"
	EdgeBothedge = "bothedge"
	EdgeChanged  = "changed"
	EdgeHybrid   = "hybrid"
)

// SenTerm is one sensitivity term: either an edge over a signal or the
// signal-free combo kind.
type SenTerm struct {
	// Edge is one of posedge, negedge, bothedge, changed, hybrid.
	// Requires Signal.
	Edge string `yaml:"edge,omitempty"`

	// Signal names the watched signal for an edge term.
	Signal string `yaml:"signal,omitempty"`

	// Combo marks level sensitivity: the block re-evaluates whenever any
	// of its inputs may have changed. Mutually exclusive with Edge.
	Combo bool `yaml:"combo,omitempty"`
}

// Local declares a process-local variable.
type Local struct {
	// Name is the local identifier, unique across the whole design.
	Name string `yaml:"name"`

	// Width is the bit width, 1 to 64.
	Width uint32 `yaml:"width"`

	// Sync marks a fork synchronization handle; fork branches capture
	// sync locals by value.
	Sync bool `yaml:"sync,omitempty"`
}

// StmtNode is one structured statement. Exactly one operation field group
// must be set: set/to, if/then/else, while/do, await/delay|when, fork,
// print, fatal, or note.
type StmtNode struct {
	// Set names the assigned signal or local; To is the value.
	Set string    `yaml:"set,omitempty"`
	To  *ExprNode `yaml:"to,omitempty"`

	// If executes Then when the condition is non-zero, else Else.
	If   *ExprNode   `yaml:"if,omitempty"`
	Then []*StmtNode `yaml:"then,omitempty"`
	Else []*StmtNode `yaml:"else,omitempty"`

	// While executes Do as long as the condition is non-zero.
	While *ExprNode   `yaml:"while,omitempty"`
	Do    []*StmtNode `yaml:"do,omitempty"`

	// Await names a scheduler and suspends on it. Exactly one of Delay
	// (delay schedulers: wake after the given amount of model time) and
	// When (event/trigger/dynamic schedulers: wake when a term fires)
	// must be given.
	Await string    `yaml:"await,omitempty"`
	Delay *ExprNode `yaml:"delay,omitempty"`
	When  []SenTerm `yaml:"when,omitempty"`

	// Fork spawns branches.
	Fork *ForkNode `yaml:"fork,omitempty"`

	// Print emits a debug line when debug output is enabled.
	Print string `yaml:"print,omitempty"`

	// Fatal aborts evaluation with the given message.
	Fatal string `yaml:"fatal,omitempty"`

	// Note attaches a comment to the generated code.
	Note string `yaml:"note,omitempty"`
}

// Join policies for forks.
const (
	JoinAll  = "all"
	JoinAny  = "any"
	JoinNone = "none"
)

// ForkNode spawns branches and applies the join policy. Branches that
// await run as their own coroutines; branch-local state referenced from a
// branch is only passed by reference under join "all".
type ForkNode struct {
	// Join is one of all, any, none.
	Join string `yaml:"join"`

	// Branches holds the spawned statement lists.
	Branches []ForkBranchNode `yaml:"branches"`
}

// ForkBranchNode is one fork branch.
type ForkBranchNode struct {
	// Name seeds the generated coroutine name.
	Name string `yaml:"name"`

	// Body is the branch statement list.
	Body []*StmtNode `yaml:"body"`
}

// Operator names for ExprNode.Op. not and bitnot take one argument, the
// rest take two.
const (
	OpAnd    = "and"
	OpOr     = "or"
	OpXor    = "xor"
	OpEq     = "eq"
	OpNe     = "ne"
	OpLt     = "lt"
	OpGt     = "gt"
	OpAdd    = "add"
	OpShl    = "shl"
	OpShr    = "shr"
	OpNot    = "not"
	OpBitNot = "bitnot"
)

// ExprNode is one structured expression: exactly one of Var, Const, or
// Op/Args must be set.
type ExprNode struct {
	// Var reads a signal or local.
	Var string `yaml:"var,omitempty"`

	// Const is an unsigned literal. Width bounds the value; it defaults
	// to 64 (no masking).
	Const *uint64 `yaml:"const,omitempty"`
	Width uint32  `yaml:"width,omitempty"`

	// Op applies an operator to Args.
	Op   string      `yaml:"op,omitempty"`
	Args []*ExprNode `yaml:"args,omitempty"`
}
