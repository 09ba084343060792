// Package appstate carries lifecycle events from the supervisor worker to the
// loop that reports them to the service manager.
package appstate

import (
	"fmt"

	verrors "github.com/turtacn/verboten/pkg/errors"
	"github.com/turtacn/verboten/pkg/logger"
)

// Kind tags a lifecycle Event.
type Kind int

const (
	KindStarting Kind = iota + 1
	KindStarted
	KindStopping
	KindStopped
)

func (k Kind) String() string {
	switch k {
	case KindStarting:
		return "Starting"
	case KindStarted:
		return "Started"
	case KindStopping:
		return "Stopping"
	case KindStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Event is one lifecycle state reported by the worker. Checkpoint is only
// meaningful for Starting and Stopping.
type Event struct {
	Kind       Kind
	Checkpoint uint32
}

func Starting(checkpoint uint32) Event { return Event{Kind: KindStarting, Checkpoint: checkpoint} }
func Started() Event                   { return Event{Kind: KindStarted} }
func Stopping(checkpoint uint32) Event { return Event{Kind: KindStopping, Checkpoint: checkpoint} }
func Stopped() Event                   { return Event{Kind: KindStopped} }

func (e Event) String() string {
	switch e.Kind {
	case KindStarting, KindStopping:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Checkpoint)
	default:
		return e.Kind.String()
	}
}

// Backlog is the channel buffer and the most events one run may emit.
// The worker emits at most five (Starting x2, Started, Stopping, Stopped).
// Emit refuses non-terminal events once only the slot for Stopped is left,
// so a send never blocks even when nobody receives.
const Backlog = 8

// Sender is the producing end. It must be used from a single goroutine.
type Sender struct {
	ch     chan<- Event
	last   Kind
	sent   int
	closed bool
	log    logger.Logger
}

// Receiver is the consuming end. It must be used from a single goroutine.
type Receiver struct {
	ch <-chan Event
}

// Channel creates a connected Sender/Receiver pair.
func Channel(log logger.Logger) (*Sender, *Receiver) {
	ch := make(chan Event, Backlog)
	return &Sender{ch: ch, log: log}, &Receiver{ch: ch}
}

func (s *Sender) Starting(checkpoint uint32) { s.Emit(Starting(checkpoint)) }
func (s *Sender) Started()                   { s.Emit(Started()) }
func (s *Sender) Stopping(checkpoint uint32) { s.Emit(Stopping(checkpoint)) }
func (s *Sender) Stopped()                   { s.Emit(Stopped()) }

// Last returns the kind of the most recently emitted event, or 0.
func (s *Sender) Last() Kind { return s.last }

// Emit sends e in order without blocking. Events must follow
// Starting* Started? Stopping* Stopped, and at most Backlog-1 events may
// precede Stopped; anything else is a programming error and panics.
func (s *Sender) Emit(e Event) {
	if s.closed {
		panic(fmt.Sprintf("appstate: %s emitted on closed channel", e))
	}
	if !allowed(s.last, e.Kind) {
		panic(fmt.Sprintf("appstate: %s emitted after %s", e, s.last))
	}
	if e.Kind != KindStopped && s.sent >= Backlog-1 {
		panic(fmt.Sprintf("appstate: %s exceeds the %d event backlog", e, Backlog))
	}
	s.log.Debug("sending app state", "event", e.String())
	s.ch <- e
	s.sent++
	s.last = e.Kind
}

// Close releases the channel. Closing before Stopped makes the receiver panic.
func (s *Sender) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func allowed(last, next Kind) bool {
	switch {
	case last == KindStopped:
		return false
	case next == KindStarted && last == KindStarted:
		return false
	default:
		return next >= last
	}
}

// Recv blocks for the next event. A channel that ends without delivering
// Stopped violates the worker contract; Recv panics with a coded error.
func (r *Receiver) Recv() Event {
	e, ok := <-r.ch
	if !ok {
		panic(verrors.New(verrors.ErrCodeChannelClosed, "appstate.Recv", "status channel closed before Stopped", nil))
	}
	return e
}

// Personal.AI order the ending
