package lifecycle

import (
	"fmt"
	"time"

	"github.com/turtacn/verboten/internal/appstate"
	"github.com/turtacn/verboten/pkg/consts"
)

// HostState is the service state as the service manager sees it.
type HostState int

const (
	StartPending HostState = iota + 1
	Running
	StopPending
	Stopped
)

func (s HostState) String() string {
	switch s {
	case StartPending:
		return "start-pending"
	case Running:
		return "running"
	case StopPending:
		return "stop-pending"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Accepts is the set of controls the service currently accepts.
type Accepts uint32

const (
	AcceptNone Accepts = 0
	AcceptStop Accepts = 1
)

// Status is one report to the service manager.
type Status struct {
	State      HostState
	Accepts    Accepts
	CheckPoint uint32
	WaitHint   time.Duration
}

func (s Status) String() string {
	switch s.State {
	case StartPending, StopPending:
		return fmt.Sprintf("%s(cp=%d)", s.State, s.CheckPoint)
	default:
		return s.State.String()
	}
}

// Reporter delivers status reports to the service manager. An error means
// the service can no longer stay in good standing and is fatal.
type Reporter interface {
	Report(Status) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Status) error

func (f ReporterFunc) Report(s Status) error { return f(s) }

// StatusFor maps a lifecycle event to the report the host expects.
func StatusFor(e appstate.Event) Status {
	switch e.Kind {
	case appstate.KindStarting:
		return Status{State: StartPending, CheckPoint: e.Checkpoint, WaitHint: consts.StartPendingWaitHint}
	case appstate.KindStarted:
		return Status{State: Running, Accepts: AcceptStop}
	case appstate.KindStopping:
		return Status{State: StopPending, CheckPoint: e.Checkpoint, WaitHint: consts.StopPendingWaitHint}
	default:
		return Status{State: Stopped}
	}
}

// Personal.AI order the ending
