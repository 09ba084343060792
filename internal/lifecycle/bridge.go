package lifecycle

import (
	"fmt"
	"strings"

	"github.com/turtacn/verboten/internal/termsig"
	"github.com/turtacn/verboten/pkg/logger"
)

// Control is a request delivered by the service manager.
type Control int

const (
	ControlStop Control = iota + 1
	ControlPause
	ControlContinue
	ControlInterrogate
	ControlShutdown
	ControlOther
)

var controlNames = map[Control]string{
	ControlStop:        "stop",
	ControlPause:       "pause",
	ControlContinue:    "continue",
	ControlInterrogate: "interrogate",
	ControlShutdown:    "shutdown",
	ControlOther:       "other",
}

func (c Control) String() string {
	if n, ok := controlNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseControl maps a control name to a Control.
func ParseControl(s string) (Control, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for c, n := range controlNames {
		if n == want && c != ControlOther {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown control %q", s)
}

// Ack is the synchronous answer to a Control.
type Ack int

const (
	AckAccepted Ack = iota
	AckNotImplemented
)

func (a Ack) String() string {
	if a == AckAccepted {
		return "accepted"
	}
	return "not-implemented"
}

// ControlHandler handles controls. Implementations must return quickly:
// they run on a goroutine owned by the host.
type ControlHandler interface {
	HandleControl(Control) Ack
}

// Bridge turns host controls into the termination request.
type Bridge struct {
	term *termsig.Sender
	log  logger.Logger
}

// NewBridge creates a Bridge signaling on term.
func NewBridge(term *termsig.Sender, log logger.Logger) *Bridge {
	return &Bridge{term: term, log: log}
}

// Close tells the worker that no further controls will arrive. A stop that
// is already pending is still honored; otherwise the worker stops as if the
// control source broke.
func (b *Bridge) Close() {
	b.term.Close()
}

func (b *Bridge) HandleControl(c Control) Ack {
	switch c {
	case ControlInterrogate:
		// The host only wants the current status; nothing to do here.
		return AckAccepted
	case ControlStop:
		b.log.Debug("svc signal received: stop")
		if err := b.term.Signal(); err != nil {
			b.log.Debug("stop after worker finished", "err", err)
		}
		return AckAccepted
	default:
		b.log.Debug("svc signal not implemented", "control", c.String())
		return AckNotImplemented
	}
}

// Personal.AI order the ending
