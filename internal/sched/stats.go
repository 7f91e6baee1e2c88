package sched

import (
	log "github.com/sirupsen/logrus"
)

// SizeStat is one named node-count measurement.
type SizeStat struct {
	Name  string
	Nodes uint64
}

// Stats holds the measurements collected during scheduling. Sizes are in
// IR node-count units and appear in collection order.
type Stats struct {
	Sizes []SizeStat
	Funcs int
	Vars  int
}

// statsRecorder mirrors measurements to the debug log. A nil stats field
// makes every method a no-op.
type statsRecorder struct {
	stats *Stats
}

func newStatsRecorder(enabled bool) *statsRecorder {
	r := &statsRecorder{}
	if enabled {
		r.stats = &Stats{}
	}
	return r
}

// addSize must run before the measured logic is consumed by ordering;
// consumed bodies count as empty.
func (r *statsRecorder) addSize(name string, lbss ...LogicByScope) {
	if r.stats == nil {
		return
	}
	var total uint64
	for _, lbs := range lbss {
		total += lbs.NodeCount()
	}
	r.stats.Sizes = append(r.stats.Sizes, SizeStat{Name: name, Nodes: total})
	log.Debugf("sched: %s: %d nodes", name, total)
}

func (r *statsRecorder) stage(name string) {
	if r.stats == nil {
		return
	}
	log.Debugf("sched: stage %s done", name)
}

func (r *statsRecorder) finish(funcs, vars int) {
	if r.stats == nil {
		return
	}
	r.stats.Funcs = funcs
	r.stats.Vars = vars
	log.Debugf("sched: generated %d procedures over %d variables", funcs, vars)
}
