//go:build windows

package host

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"

	"github.com/turtacn/verboten/internal/lifecycle"
	"github.com/turtacn/verboten/pkg/consts"
	verrors "github.com/turtacn/verboten/pkg/errors"
)

// Event log ids.
const (
	eventStarted uint32 = 1
	eventStopped uint32 = 2
	eventFailed  uint32 = 3
)

// IsService reports whether the process was started by a service manager.
func IsService() (bool, error) {
	return svc.IsWindowsService()
}

// RunService hands the process over to the service control manager and
// returns once the service stopped.
func RunService(name string, opts Options) error {
	h := &handler{name: name, opts: opts}
	if elog, err := eventlog.Open(name); err == nil {
		defer elog.Close()
		h.elog = elog
	}
	if err := svc.Run(name, h); err != nil {
		return verrors.New(verrors.ErrCodeHostReportFailed, "host.RunService", "service dispatcher", err)
	}
	return h.err
}

type handler struct {
	name string
	opts Options
	elog *eventlog.Log
	err  error
}

func (h *handler) Execute(_ []string, req <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	// The run reports its own progress; this only covers the time until
	// the worker is up.
	changes <- toSvcStatus(lifecycle.Status{State: lifecycle.StartPending, WaitHint: consts.StartPendingWaitHint})

	r := newRun(h.opts)
	rep := &scmReporter{ConsoleReporter: NewConsoleReporter(r.log, r.metrics), changes: changes}
	bridge := r.svc.Bridge()
	h.event(eventStarted, fmt.Sprintf("%s supervising %s", h.name, h.opts.Settings.Child.CommandLine()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return r.svc.Run(rep)
	})
	r.serveMetrics(gctx, g, rep.Last)

loop:
	for {
		select {
		case <-gctx.Done():
			break loop
		case c := <-req:
			ctl := controlFor(c.Cmd)
			ack := bridge.HandleControl(ctl)
			r.log.Debug("Service control", "control", ctl.String(), "ack", ack.String())
			if c.Cmd == svc.Interrogate {
				changes <- c.CurrentStatus
			}
		}
	}

	// A failed side server ends the loop early; the run must still stop.
	// The service manager no longer delivers controls to this run.
	bridge.HandleControl(lifecycle.ControlStop)
	bridge.Close()
	if err := g.Wait(); err != nil {
		h.err = err
		h.event(eventFailed, err.Error())
		return true, uint32(verrors.CodeOf(err))
	}
	h.event(eventStopped, h.name+" stopped")
	return false, 0
}

func (h *handler) event(id uint32, msg string) {
	if h.elog == nil {
		return
	}
	if id == eventFailed {
		_ = h.elog.Error(id, msg)
		return
	}
	_ = h.elog.Info(id, msg)
}

// scmReporter forwards status reports to the service control manager.
// Stopped is left to the dispatcher, which reports it once Execute returns.
type scmReporter struct {
	*ConsoleReporter
	changes chan<- svc.Status
}

func (s *scmReporter) Report(st lifecycle.Status) error {
	if err := s.ConsoleReporter.Report(st); err != nil {
		return err
	}
	if st.State == lifecycle.Stopped {
		return nil
	}
	s.changes <- toSvcStatus(st)
	return nil
}

func toSvcStatus(st lifecycle.Status) svc.Status {
	out := svc.Status{
		CheckPoint: st.CheckPoint,
		WaitHint:   uint32(st.WaitHint.Milliseconds()),
	}
	switch st.State {
	case lifecycle.StartPending:
		out.State = svc.StartPending
	case lifecycle.Running:
		out.State = svc.Running
	case lifecycle.StopPending:
		out.State = svc.StopPending
	default:
		out.State = svc.Stopped
	}
	if st.Accepts&lifecycle.AcceptStop != 0 {
		out.Accepts = svc.AcceptStop
	}
	return out
}

func controlFor(c svc.Cmd) lifecycle.Control {
	switch c {
	case svc.Stop:
		return lifecycle.ControlStop
	case svc.Pause:
		return lifecycle.ControlPause
	case svc.Continue:
		return lifecycle.ControlContinue
	case svc.Interrogate:
		return lifecycle.ControlInterrogate
	case svc.Shutdown:
		return lifecycle.ControlShutdown
	default:
		return lifecycle.ControlOther
	}
}

// Personal.AI order the ending
