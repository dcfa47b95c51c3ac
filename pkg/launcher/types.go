package launcher

import "time"

// EventKind identifies what a session event carries.
type EventKind int

const (
	EventOutput EventKind = iota
	EventError
	EventExit
)

func (k EventKind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventError:
		return "error"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Event is one notification from a captured session. Data is set for output
// and error events, ExitCode only for the exit event.
type Event struct {
	Kind     EventKind
	Data     string
	ExitCode int
}

// State is the lifecycle state of a captured session.
type State int

const (
	StateRunning State = iota
	StateExited
)

func (s State) String() string {
	if s == StateExited {
		return "exited"
	}
	return "running"
}

// ProcessHandle describes a detached process.
type ProcessHandle struct {
	PID       int
	Path      string
	Args      []string
	StartedAt time.Time
}

// Handler receives the events of a session. Chunks are not aligned to
// lines; a consumer that needs lines must reassemble them.
type Handler interface {
	OnOutput(chunk string)
	OnError(chunk string)
	OnExit(code int)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Output func(chunk string)
	Error  func(chunk string)
	Exit   func(code int)
}

func (h HandlerFuncs) OnOutput(chunk string) {
	if h.Output != nil {
		h.Output(chunk)
	}
}

func (h HandlerFuncs) OnError(chunk string) {
	if h.Error != nil {
		h.Error(chunk)
	}
}

func (h HandlerFuncs) OnExit(code int) {
	if h.Exit != nil {
		h.Exit(code)
	}
}

// Dispatch hands ev to the matching Handler method.
func Dispatch(h Handler, ev Event) {
	switch ev.Kind {
	case EventOutput:
		h.OnOutput(ev.Data)
	case EventError:
		h.OnError(ev.Data)
	case EventExit:
		h.OnExit(ev.ExitCode)
	}
}
