package driver

// EventKind discriminates the phases reported through Pipeline.Events,
// grounded on the progress callbacks pipeline.rs drives through pb_doing/
// pb_done (there backed by a pbr::ProgressBar; here a plain channel so the
// caller can feed its own bubbletea model instead).
type EventKind int

const (
	EventDoing EventKind = iota
	EventDone
	EventSkipped
	EventFailed
)

// Event is one progress notification for a single module passing through
// one stage of the build.
type Event struct {
	Kind   EventKind
	Stage  string // "comp": the driver reports one stage per module
	Module string
}

// emit sends ev on p.Events without blocking the build when nobody is
// listening — a nil or full channel must never stall compilation.
func (p *Pipeline) emit(ev Event) {
	if p.Events == nil {
		return
	}
	select {
	case p.Events <- ev:
	default:
	}
}
