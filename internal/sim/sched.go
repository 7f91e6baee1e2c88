package sim

import (
	"fmt"

	"strobe/internal/ir"
)

// schedState is the run-time state behind one scheduler-object variable.
// Delay schedulers keep waiters with absolute due times. Trigger schedulers
// split waiters into an uncommitted list (parked since the last commit
// boundary) and a ready list (eligible for the next resume), so a process
// cannot react to the trigger occurrence that preceded its wait. Event and
// dynamic schedulers keep a single wait queue.
type schedState struct {
	kind ir.SchedKind

	waiting []delayWaiter
	queue   []*task

	uncommitted []*task
	ready       []*task

	postUpdates uint64
}

type delayWaiter struct {
	t   *task
	due uint64
}

// schedOf returns the state behind a scheduler variable, creating it on
// first use. A non-scheduler variable here is a caller bug.
func (m *Machine) schedOf(v ir.VarID) *schedState {
	if st, ok := m.scheds[v]; ok {
		return st
	}
	kind := m.n.Var(v).Sched
	if !kind.IsScheduler() {
		panic(fmt.Sprintf("sim: variable %q is not a scheduler object", m.n.Var(v).Name))
	}
	st := &schedState{kind: kind}
	m.scheds[v] = st
	return st
}

// parkOn suspends the current task on a scheduler according to its kind,
// then hands control back to the stepper.
func (m *Machine) parkOn(t *task, fr *frame, d ir.AwaitData) error {
	st := m.schedOf(fr.resolve(d.Scheduler))
	switch st.kind {
	case ir.SchedDelay:
		if d.Delay == nil {
			panic(fmt.Sprintf("sim: task %q delay await without an amount", t.name))
		}
		amount, err := m.eval(fr, d.Delay)
		if err != nil {
			return err
		}
		st.waiting = append(st.waiting, delayWaiter{t: t, due: m.now + amount})
	case ir.SchedTrigger:
		st.uncommitted = append(st.uncommitted, t)
	case ir.SchedEvent, ir.SchedDynamic:
		st.queue = append(st.queue, t)
	}
	return t.park()
}

// resumeSched wakes the waiters a resume() call makes eligible, running each
// to its next suspension point in park order. The eligible set is snapshotted
// first, so a task parking again during the wake is not re-woken by the same
// call. Trigger schedulers wake only committed waiters and promote the
// uncommitted ones afterwards.
func (m *Machine) resumeSched(v ir.VarID) error {
	st := m.schedOf(v)
	switch st.kind {
	case ir.SchedDelay:
		var due []*task
		rest := st.waiting[:0]
		for _, w := range st.waiting {
			if w.due <= m.now {
				due = append(due, w.t)
			} else {
				rest = append(rest, w)
			}
		}
		st.waiting = rest
		return m.stepAll(due)
	case ir.SchedTrigger:
		ready := st.ready
		st.ready = nil
		if err := m.stepAll(ready); err != nil {
			return err
		}
		st.ready = append(st.ready, st.uncommitted...)
		st.uncommitted = nil
		return nil
	default:
		queue := st.queue
		st.queue = nil
		return m.stepAll(queue)
	}
}

// commitSched promotes a trigger scheduler's uncommitted waiters; generated
// code calls it on iterations where the trigger condition did not fire.
func (m *Machine) commitSched(v ir.VarID) {
	st := m.schedOf(v)
	if st.kind != ir.SchedTrigger {
		panic(fmt.Sprintf("sim: commit on %s scheduler %q", st.kind, m.n.Var(v).Name))
	}
	st.ready = append(st.ready, st.uncommitted...)
	st.uncommitted = nil
}

// postUpdatesOn records a dynamic scheduler's post-update hook. The
// interpreter has no pending named-event state to apply, so the call only
// counts.
func (m *Machine) postUpdatesOn(v ir.VarID) {
	st := m.schedOf(v)
	if st.kind != ir.SchedDynamic {
		panic(fmt.Sprintf("sim: doPostUpdates on %s scheduler %q", st.kind, m.n.Var(v).Name))
	}
	st.postUpdates++
}

// awaitingCurrentTime reports whether a delay scheduler has a wake due at
// the current model time.
func (m *Machine) awaitingCurrentTime(v ir.VarID) bool {
	st := m.schedOf(v)
	if st.kind != ir.SchedDelay {
		panic(fmt.Sprintf("sim: awaitingCurrentTime on %s scheduler %q", st.kind, m.n.Var(v).Name))
	}
	for _, w := range st.waiting {
		if w.due <= m.now {
			return true
		}
	}
	return false
}

// NextWake returns the earliest pending delay wake time across every delay
// scheduler, if any wait is pending.
func (m *Machine) NextWake() (uint64, bool) {
	var best uint64
	found := false
	for _, st := range m.scheds {
		if st.kind != ir.SchedDelay {
			continue
		}
		for _, w := range st.waiting {
			if !found || w.due < best {
				best, found = w.due, true
			}
		}
	}
	return best, found
}
