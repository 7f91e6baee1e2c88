package sim

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"strobe/internal/ir"
)

// evaluation entry points scheduling may generate; absent ones are skipped.
const (
	funcStatic = "_eval_static"
	funcInit   = "_eval_initial"
	funcSettle = "_eval_settle"
	funcFinal  = "_eval_final"
)

// Model drives a scheduled netlist the way a generated simulator harness
// would: one-shot initialization, repeated evaluation passes, time advance
// for delay waits, teardown.
type Model struct {
	n    *ir.Netlist
	mach *Machine
}

// New wraps a scheduled netlist. Scheduling must have run already; an
// unscheduled netlist has no entry points to interpret.
func New(n *ir.Netlist) (*Model, error) {
	if n == nil || !n.Eval.IsValid() {
		return nil, fmt.Errorf("sim: netlist is not scheduled")
	}
	return &Model{n: n, mach: NewMachine(n)}, nil
}

// Machine exposes the underlying interpreter for stimulus and inspection.
func (m *Model) Machine() *Machine { return m.mach }

// Init runs the one-shot entry points: static and initial logic, then the
// settle pass when the design has combinational logic.
func (m *Model) Init() error {
	log.Debugf("sim: %s: init", m.n.Name)
	for _, name := range []string{funcStatic, funcInit, funcSettle} {
		if err := m.callOptional(name); err != nil {
			return err
		}
	}
	return nil
}

// Eval runs one full evaluation pass.
func (m *Model) Eval() error {
	return m.mach.Call(m.n.Eval)
}

// Step writes a top-scope variable and evaluates, the usual stimulus
// pattern.
func (m *Model) Step(name string, val uint64) error {
	if err := m.SetVar(name, val); err != nil {
		return err
	}
	return m.Eval()
}

// Tick drives one full cycle on the named clock: rising edge, evaluate,
// falling edge, evaluate.
func (m *Model) Tick(clock string) error {
	if err := m.Step(clock, 1); err != nil {
		return err
	}
	return m.Step(clock, 0)
}

// AdvanceTime moves model time to the earliest pending delay wake and
// reports it; ok is false when nothing is waiting.
func (m *Model) AdvanceTime() (uint64, bool) {
	due, ok := m.mach.NextWake()
	if !ok {
		return m.mach.Now(), false
	}
	m.mach.SetNow(due)
	return due, true
}

// Time returns the current model time.
func (m *Model) Time() uint64 { return m.mach.Now() }

// Final runs teardown logic.
func (m *Model) Final() error {
	log.Debugf("sim: %s: final", m.n.Name)
	return m.callOptional(funcFinal)
}

// Close releases parked coroutines; the model is unusable afterwards.
func (m *Model) Close() { m.mach.Shutdown() }

// SetVar writes a top-scope variable by name.
func (m *Model) SetVar(name string, val uint64) error {
	id, ok := m.n.LookupVar(m.n.TopScope, name)
	if !ok {
		return fmt.Errorf("sim: design %q has no variable %q", m.n.Name, name)
	}
	m.mach.WriteVar(id, val)
	return nil
}

// GetVar reads a top-scope variable by name.
func (m *Model) GetVar(name string) (uint64, error) {
	id, ok := m.n.LookupVar(m.n.TopScope, name)
	if !ok {
		return 0, fmt.Errorf("sim: design %q has no variable %q", m.n.Name, name)
	}
	return m.mach.ReadVar(id), nil
}

// SetDebug toggles the generated trigger dumps.
func (m *Model) SetDebug(on bool) {
	if !m.n.DebugEnable.IsValid() {
		return
	}
	m.mach.WriteVar(m.n.DebugEnable, b2u(on))
}

// TakeDebug drains the captured dump output.
func (m *Model) TakeDebug() []string { return m.mach.TakeDebug() }

func (m *Model) callOptional(name string) error {
	id, ok := m.n.FuncByName(name)
	if !ok {
		return nil
	}
	return m.mach.Call(id)
}
