// Package termsig carries the single termination request from the control
// side of a service to the supervisor worker.
//
// The receiver polls with a bounded wait so it gets a chance to do periodic
// work between polls. Once a request is delivered it stays pending until
// consumed; there is no way to take it back.
package termsig

import (
	"sync/atomic"
	"time"

	verrors "github.com/turtacn/verboten/pkg/errors"
)

// Reason is the outcome of one Wait.
type Reason int

const (
	// Timeout means no request arrived within the tick.
	Timeout Reason = iota
	// Signaled means a termination request was received.
	Signaled
	// Broken means the sender went away without signaling.
	Broken
)

func (r Reason) String() string {
	switch r {
	case Timeout:
		return "timeout"
	case Signaled:
		return "signaled"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// ErrReceiverGone is returned by Signal when the worker already stopped
// listening. Callers may log and ignore it.
var ErrReceiverGone = verrors.New(verrors.ErrCodeChannelClosed, "termsig.Signal", "receiver is gone", nil)

type pipe struct {
	req          chan struct{}
	senderGone   chan struct{}
	receiverGone chan struct{}
	senderDone   atomic.Bool
	receiverDone atomic.Bool
}

// Sender is the control side of the channel.
type Sender struct{ p *pipe }

// Receiver is the worker side of the channel.
type Receiver struct{ p *pipe }

// Channel creates a connected Sender/Receiver pair.
func Channel() (*Sender, *Receiver) {
	p := &pipe{
		req:          make(chan struct{}, 1),
		senderGone:   make(chan struct{}),
		receiverGone: make(chan struct{}),
	}
	return &Sender{p: p}, &Receiver{p: p}
}

// Signal delivers the termination request. It never blocks; a request that
// is already pending absorbs further calls.
func (s *Sender) Signal() error {
	select {
	case <-s.p.receiverGone:
		return ErrReceiverGone
	default:
	}
	select {
	case s.p.req <- struct{}{}:
	default:
	}
	return nil
}

// Close marks the sender as gone. A pending request is still delivered;
// otherwise the receiver observes Broken.
func (s *Sender) Close() {
	if s.p.senderDone.CompareAndSwap(false, true) {
		close(s.p.senderGone)
	}
}

// Wait blocks for at most tick and reports why it returned.
func (r *Receiver) Wait(tick time.Duration) Reason {
	timer := time.NewTimer(tick)
	defer timer.Stop()

	select {
	case <-r.p.req:
		return Signaled
	case <-r.p.senderGone:
		// A request sent before Close wins over the broken pipe.
		select {
		case <-r.p.req:
			return Signaled
		default:
			return Broken
		}
	case <-timer.C:
		return Timeout
	}
}

// Close tells the sender nobody is listening any more.
func (r *Receiver) Close() {
	if r.p.receiverDone.CompareAndSwap(false, true) {
		close(r.p.receiverGone)
	}
}

// Personal.AI order the ending
