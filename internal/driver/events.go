package driver

import "time"

// Stage describes a high-level pipeline phase of one design build.
type Stage string

const (
	// StageLoad covers reading and decoding the design file.
	StageLoad Stage = "load"
	// StageSchedule covers netlist building and scheduling.
	StageSchedule Stage = "schedule"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the design is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is currently running.
	StatusWorking Status = "working"
	// StatusCached indicates the schedule summary was reused from cache.
	StatusCached Status = "cached"
	// StatusDone indicates the design built successfully.
	StatusDone Status = "done"
	// StatusError indicates the design failed.
	StatusError Status = "error"
)

// Event reports progress for one design file.
type Event struct {
	Path    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must tolerate
// concurrent OnEvent calls when used with BuildDir.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, path string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Path: path, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

func emitQueued(sink ProgressSink, paths []string) {
	if sink == nil {
		return
	}
	for _, path := range paths {
		sink.OnEvent(Event{Path: path, Stage: StageLoad, Status: StatusQueued})
	}
}
