// Package sim interprets the procedures the scheduling pass generates, so a
// scheduled netlist can actually run: trigger-vector and scheduler-object
// method calls get their run-time semantics, suspendable procedures become
// cooperatively scheduled tasks, and fatal statements surface as errors
// carrying the trigger dump emitted on the way out.
package sim

import (
	"fmt"

	"strobe/internal/ir"
)

// Machine interprets generated procedures over a netlist. It is logically
// single-threaded: coroutine tasks run on their own goroutines, but control
// moves between them through strict handoffs, never concurrently.
type Machine struct {
	n      *ir.Netlist
	store  *Store
	scheds map[ir.VarID]*schedState
	tasks  []*task
	now    uint64
	debug  []string
	mark   int
	dead   bool
}

// NewMachine builds an interpreter over a netlist.
func NewMachine(n *ir.Netlist) *Machine {
	return &Machine{
		n:      n,
		store:  NewStore(n),
		scheds: make(map[ir.VarID]*schedState),
	}
}

// Store exposes the value state, for stimulus and inspection.
func (m *Machine) Store() *Store { return m.store }

// Now returns the current model time.
func (m *Machine) Now() uint64 { return m.now }

// SetNow moves the model time; delay waits compare against it.
func (m *Machine) SetNow(t uint64) { m.now = t }

// ReadVar reads a variable's global cell.
func (m *Machine) ReadVar(v ir.VarID) uint64 { return m.store.Get(v) }

// WriteVar writes a variable's global cell, masked to its width.
func (m *Machine) WriteVar(v ir.VarID, val uint64) { m.store.Set(v, val) }

// TakeDebug returns the captured debug output and clears the buffer.
func (m *Machine) TakeDebug() []string {
	out := m.debug
	m.debug = nil
	m.mark = 0
	return out
}

// FatalError reports a fatal statement reached during evaluation. Dump
// carries the debug lines emitted since the entry call began, which on a
// convergence failure is the trigger dump.
type FatalError struct {
	Msg  string
	Dump []string
}

func (e *FatalError) Error() string {
	if len(e.Dump) == 0 {
		return "sim: fatal: " + e.Msg
	}
	return fmt.Sprintf("sim: fatal: %s (%d dump lines)", e.Msg, len(e.Dump))
}

// Call runs a generated procedure to completion. After a returned error the
// machine's state is unspecified; only Shutdown is safe.
func (m *Machine) Call(id ir.FuncID) error {
	if m.dead {
		return fmt.Errorf("sim: machine is shut down")
	}
	f := m.n.Func(id)
	m.mark = len(m.debug)
	return m.execBlock(nil, nil, f.Body)
}

// CallByName runs a procedure looked up by generated name.
func (m *Machine) CallByName(name string) error {
	id, ok := m.n.FuncByName(name)
	if !ok {
		return fmt.Errorf("sim: netlist %q has no procedure %q", m.n.Name, name)
	}
	return m.Call(id)
}

func (m *Machine) execBlock(t *task, fr *frame, b *ir.Block) error {
	for _, s := range b.Stmts() {
		if err := m.execStmt(t, fr, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) execStmt(t *task, fr *frame, s *ir.Stmt) error {
	switch d := s.Data.(type) {
	case ir.AssignData:
		val, err := m.eval(fr, d.Rhs)
		if err != nil {
			return err
		}
		m.writeVar(fr, d.Lhs, val)
	case ir.IfData:
		cond, err := m.eval(fr, d.Cond)
		if err != nil {
			return err
		}
		if cond != 0 {
			return m.execBlock(t, fr, d.Then)
		}
		if d.Else != nil {
			return m.execBlock(t, fr, d.Else)
		}
	case ir.WhileData:
		for {
			cond, err := m.eval(fr, d.Cond)
			if err != nil {
				return err
			}
			if cond == 0 {
				return nil
			}
			if err := m.execBlock(t, fr, d.Body); err != nil {
				return err
			}
		}
	case ir.CommentData:
	case ir.CallProcData:
		return m.callProc(t, fr, d)
	case ir.ExprStmtData:
		_, err := m.eval(fr, d.Expr)
		return err
	case ir.DebugPrintData:
		m.debug = append(m.debug, d.Text)
	case ir.FatalData:
		return &FatalError{Msg: d.Msg, Dump: append([]string(nil), m.debug[m.mark:]...)}
	case ir.AwaitData:
		if t == nil {
			panic("sim: await outside a coroutine")
		}
		return m.parkOn(t, fr, d)
	case ir.ForkData:
		panic("sim: fork statement survived scheduling")
	default:
		panic(fmt.Sprintf("sim: unhandled %s statement", s.Kind))
	}
	return nil
}

// callProc invokes a procedure: coroutines spawn a task that runs to its
// first suspension point, everything else executes inline. Arguments bind
// into a fresh frame; a by-ref argument, and any argument naming a scheduler
// object, aliases the caller's variable, while other by-value arguments
// snapshot it.
func (m *Machine) callProc(t *task, fr *frame, d ir.CallProcData) error {
	callee := m.n.Func(d.Proc)
	if len(callee.Args) != len(d.Args) {
		panic(fmt.Sprintf("sim: call of %q with %d args, want %d",
			callee.Name, len(d.Args), len(callee.Args)))
	}
	var inner *frame
	if len(callee.Args) > 0 {
		inner = newFrame()
		for i, arg := range callee.Args {
			if ref, ok := d.Args[i].Data.(ir.VarRefData); ok {
				target := fr.resolve(ref.Var)
				if arg.ByRef || m.n.Var(target).Sched.IsScheduler() {
					inner.alias[arg.Var] = target
					continue
				}
			} else if arg.ByRef {
				panic(fmt.Sprintf("sim: by-ref argument %d of %q is not a variable reference",
					i, callee.Name))
			}
			val, err := m.eval(fr, d.Args[i])
			if err != nil {
				return err
			}
			inner.local[arg.Var] = val & m.store.mask(arg.Var)
		}
	}
	if callee.Coroutine {
		body := callee.Body
		return m.spawn(callee.Name, inner, func(ct *task, cfr *frame) error {
			return m.execBlock(ct, cfr, body)
		})
	}
	return m.execBlock(t, inner, callee.Body)
}

func (m *Machine) readVar(fr *frame, v ir.VarID) uint64 {
	if fr != nil {
		if val, ok := fr.local[v]; ok {
			return val
		}
	}
	return m.store.Get(fr.resolve(v))
}

func (m *Machine) writeVar(fr *frame, v ir.VarID, val uint64) {
	if fr != nil {
		if _, ok := fr.local[v]; ok {
			fr.local[v] = val & m.store.mask(v)
			return
		}
	}
	m.store.Set(fr.resolve(v), val)
}

func (m *Machine) eval(fr *frame, e *ir.Expr) (uint64, error) {
	switch d := e.Data.(type) {
	case ir.ConstData:
		return d.Value, nil
	case ir.VarRefData:
		if m.n.Var(fr.resolve(d.Var)).Sched.IsScheduler() {
			panic(fmt.Sprintf("sim: value read of scheduler object %q", m.n.Var(d.Var).Name))
		}
		return m.readVar(fr, d.Var), nil
	case ir.UnaryData:
		x, err := m.eval(fr, d.Operand)
		if err != nil {
			return 0, err
		}
		switch d.Op {
		case ir.OpNot:
			return b2u(x == 0), nil
		case ir.OpBitNot:
			return ^x, nil
		default:
			panic(fmt.Sprintf("sim: unhandled unary %s", d.Op))
		}
	case ir.BinaryData:
		lhs, err := m.eval(fr, d.Lhs)
		if err != nil {
			return 0, err
		}
		rhs, err := m.eval(fr, d.Rhs)
		if err != nil {
			return 0, err
		}
		switch d.Op {
		case ir.OpAnd:
			return lhs & rhs, nil
		case ir.OpOr:
			return lhs | rhs, nil
		case ir.OpXor:
			return lhs ^ rhs, nil
		case ir.OpEq:
			return b2u(lhs == rhs), nil
		case ir.OpNe:
			return b2u(lhs != rhs), nil
		case ir.OpLt:
			return b2u(lhs < rhs), nil
		case ir.OpGt:
			return b2u(lhs > rhs), nil
		case ir.OpAdd:
			return lhs + rhs, nil
		case ir.OpShl:
			return lhs << rhs, nil
		case ir.OpShr:
			return lhs >> rhs, nil
		default:
			panic(fmt.Sprintf("sim: unhandled binary %s", d.Op))
		}
	case ir.MethodCallData:
		return m.evalMethod(fr, d)
	default:
		panic(fmt.Sprintf("sim: unhandled %s expression", e.Kind))
	}
}

func (m *Machine) evalMethod(fr *frame, d ir.MethodCallData) (uint64, error) {
	recv := fr.resolve(d.Recv)
	rv := m.n.Var(recv)
	if rv.Flags.Has(ir.VarTrigVec) {
		return m.evalVecMethod(fr, recv, d)
	}
	if !rv.Sched.IsScheduler() {
		panic(fmt.Sprintf("sim: method %q on plain variable %q", d.Method, rv.Name))
	}
	switch d.Method {
	case ir.MethodResume:
		return 0, m.resumeSched(recv)
	case ir.MethodCommit:
		m.commitSched(recv)
	case ir.MethodDoPostUpdates:
		m.postUpdatesOn(recv)
	case ir.MethodAwaitingCurrentTime:
		return b2u(m.awaitingCurrentTime(recv)), nil
	default:
		panic(fmt.Sprintf("sim: unhandled scheduler method %q", d.Method))
	}
	return 0, nil
}

func (m *Machine) evalVecMethod(fr *frame, recv ir.VarID, d ir.MethodCallData) (uint64, error) {
	switch d.Method {
	case ir.MethodWord:
		if len(d.Args) != 1 {
			panic("sim: word() takes one argument")
		}
		idx, err := m.eval(fr, d.Args[0])
		if err != nil {
			return 0, err
		}
		return m.store.Word(recv, idx), nil
	case ir.MethodAny:
		return b2u(m.store.Any(recv)), nil
	case ir.MethodSet:
		if len(d.Args) != 2 {
			panic("sim: set() takes an index and a value")
		}
		idx, err := m.eval(fr, d.Args[0])
		if err != nil {
			return 0, err
		}
		val, err := m.eval(fr, d.Args[1])
		if err != nil {
			return 0, err
		}
		m.store.SetBit(recv, idx, val&1 != 0)
	case ir.MethodClear:
		m.store.Clear(recv)
	case ir.MethodThisOr:
		if len(d.Args) != 1 {
			panic("sim: thisOr() takes one vector")
		}
		m.store.ThisOr(recv, m.vecArg(fr, d.Args[0]))
	case ir.MethodAndNot:
		if len(d.Args) != 2 {
			panic("sim: andNot() takes two vectors")
		}
		m.store.AndNot(recv, m.vecArg(fr, d.Args[0]), m.vecArg(fr, d.Args[1]))
	default:
		panic(fmt.Sprintf("sim: unhandled trigger-vector method %q", d.Method))
	}
	return 0, nil
}

// vecArg resolves a method argument that must name another trigger vector.
func (m *Machine) vecArg(fr *frame, e *ir.Expr) ir.VarID {
	ref, ok := e.Data.(ir.VarRefData)
	if !ok {
		panic("sim: vector operand must be a variable reference")
	}
	return fr.resolve(ref.Var)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
