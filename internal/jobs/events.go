package jobs

// EventKind describes what happened to a job.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventFinished  EventKind = "finished"
	EventFailed    EventKind = "failed"
	EventCancelled EventKind = "cancelled"
	// EventBatchDone is sent once every job of a batch ended. Target is
	// empty and Status holds the overall status.
	EventBatchDone EventKind = "batch-done"
)

// Event reports progress for one job.
type Event struct {
	JobID   string
	Target  string
	Kind    EventKind
	Unit    string
	Percent int
	Status  Status
}

// ProgressSink consumes job events. OnEvent is never called while the
// manager holds its lock.
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

// percent returns done/total as a percentage clamped to 100.
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return min(100, done*100/total)
}
