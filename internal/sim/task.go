package sim

import "errors"

// A task is one live coroutine activation: a suspendable process body or an
// awaiting fork branch. Each task runs on its own goroutine, but control is
// handed off strictly through the resume/yield channel pair, so exactly one
// goroutine executes at any moment and wake order is the order waiters
// parked in.
type task struct {
	name   string
	resume chan struct{}
	yield  chan yieldInfo
	done   bool
}

// yieldInfo reports why a task handed control back.
type yieldInfo struct {
	done bool
	err  error
}

// errShutdown unwinds a parked task when the machine is shut down.
var errShutdown = errors.New("sim: machine shut down")

// park hands control back to the stepper and blocks until the next step.
// A closed resume channel means the machine released the task instead.
func (t *task) park() error {
	t.yield <- yieldInfo{}
	if _, ok := <-t.resume; !ok {
		return errShutdown
	}
	return nil
}

// spawn starts a coroutine procedure and runs it up to its first suspension
// point before returning to the caller.
func (m *Machine) spawn(name string, fr *frame, body func(*task, *frame) error) error {
	t := &task{
		name:   name,
		resume: make(chan struct{}),
		yield:  make(chan yieldInfo),
	}
	m.tasks = append(m.tasks, t)
	go func() {
		if _, ok := <-t.resume; !ok {
			t.yield <- yieldInfo{done: true, err: errShutdown}
			return
		}
		err := body(t, fr)
		t.yield <- yieldInfo{done: true, err: err}
	}()
	return m.step(t)
}

// step transfers control to a task until it parks again or finishes.
func (m *Machine) step(t *task) error {
	if t.done {
		return nil
	}
	t.resume <- struct{}{}
	y := <-t.yield
	if y.done {
		t.done = true
	}
	if errors.Is(y.err, errShutdown) {
		return nil
	}
	return y.err
}

func (m *Machine) stepAll(ts []*task) error {
	for _, t := range ts {
		if err := m.step(t); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown releases every parked task so its goroutine can exit. The
// machine is unusable afterwards; only call it with no evaluation in
// flight, when every live task sits parked at an await.
func (m *Machine) Shutdown() {
	if m.dead {
		return
	}
	m.dead = true
	for _, t := range m.tasks {
		if t.done {
			continue
		}
		close(t.resume)
		<-t.yield
		t.done = true
	}
}
