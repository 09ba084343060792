// Package lifecycle drives one supervision run on behalf of a service
// manager: it starts the worker, turns its lifecycle events into host status
// reports and exposes the control bridge the host uses to stop it.
package lifecycle

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/verboten/internal/appstate"
	"github.com/turtacn/verboten/internal/supervisor"
	"github.com/turtacn/verboten/internal/termsig"
	"github.com/turtacn/verboten/pkg/consts"
	verrors "github.com/turtacn/verboten/pkg/errors"
	"github.com/turtacn/verboten/pkg/logger"
)

// Options configures a Service.
type Options struct {
	Config   supervisor.Config
	Spawner  supervisor.Spawner
	Tick     time.Duration
	Observer supervisor.Observer
	Log      logger.Logger
}

// Service is a single supervision run.
type Service struct {
	opts   Options
	log    logger.Logger
	bridge *Bridge
	term   *termsig.Receiver
	events *appstate.Sender
	status *appstate.Receiver
	ran    atomic.Bool
}

// New creates a Service. Hand Bridge() to the control source before Run.
func New(opts Options) *Service {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Spawner == nil {
		opts.Spawner = supervisor.NewExecSpawner(opts.Config, opts.Log)
	}

	tx, rx := termsig.Channel()
	etx, erx := appstate.Channel(opts.Log)
	return &Service{
		opts:   opts,
		log:    opts.Log,
		bridge: NewBridge(tx, opts.Log),
		term:   rx,
		events: etx,
		status: erx,
	}
}

// Bridge returns the control handler that requests termination of this run.
func (s *Service) Bridge() *Bridge { return s.bridge }

// Run supervises the child and reports every lifecycle event to reporter,
// returning once Stopped was reported and the worker has finished.
// A failed report aborts the run with ErrCodeHostReportFailed.
func (s *Service) Run(reporter Reporter) error {
	if !s.ran.CompareAndSwap(false, true) {
		return verrors.New(verrors.ErrCodeUnknown, "lifecycle.Run", "service already ran", nil)
	}

	log := s.log.With("run", uuid.NewString())
	log.Info("starting service", "exec", s.opts.Config.Executable)

	worker := supervisor.NewWorker(s.opts.Config, s.opts.Spawner, s.events, s.term, supervisor.WorkerOptions{
		Tick:     s.opts.Tick,
		Observer: s.opts.Observer,
		Log:      log.With("component", "worker"),
	})

	joined := make(chan error, 1)
	log.Debug("launching worker")
	go func() { joined <- worker.Run() }()

	for {
		ev := s.status.Recv()
		st := StatusFor(ev)
		log.Debug("setting service status", "event", ev.String(), "status", st.String())

		if err := reporter.Report(st); err != nil {
			log.Error("unable to report service status", "status", st.String(), "err", err)
			// Do not leave the child behind when the host is gone.
			_ = s.bridge.term.Signal()
			s.awaitWorker(log, joined)
			return verrors.New(verrors.ErrCodeHostReportFailed, "lifecycle.Run", "report "+st.String(), err)
		}
		if ev.Kind == appstate.KindStopped {
			break
		}
	}

	log.Debug("waiting for worker to finish")
	if err := <-joined; err != nil {
		log.Warn("worker finished with an error", "err", err)
	} else {
		log.Debug("worker finished cleanly")
	}

	log.Info("service terminated")
	return nil
}

// awaitWorker gives a signaled worker the time it needs to notice the
// request and kill the child: one tick, the stop grace and the reap timeout.
func (s *Service) awaitWorker(log logger.Logger, joined <-chan error) {
	tick := s.opts.Tick
	if tick <= 0 {
		tick = consts.DefaultPollTick
	}
	bound := tick + s.opts.Config.StopGrace + consts.DefaultReapTimeout

	select {
	case err := <-joined:
		log.Debug("worker finished after report failure", "err", err)
	case <-time.After(bound):
		log.Warn("worker still running after report failure", "waited", bound)
	}
}

// Personal.AI order the ending
