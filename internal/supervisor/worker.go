package supervisor

import (
	"errors"
	"fmt"
	"time"

	"github.com/turtacn/verboten/internal/appstate"
	"github.com/turtacn/verboten/internal/termsig"
	"github.com/turtacn/verboten/pkg/consts"
	verrors "github.com/turtacn/verboten/pkg/errors"
	"github.com/turtacn/verboten/pkg/fsm"
	"github.com/turtacn/verboten/pkg/logger"
)

// Observer receives worker progress, typically to feed metrics.
type Observer interface {
	WorkerState(state consts.WorkerState)
	ChildStarted(pid int)
	// ChildAlive is called after each liveness poll that found the child running.
	ChildAlive(pid int)
	ChildStopped(outcome consts.StopOutcome)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) WorkerState(consts.WorkerState)  {}
func (NopObserver) ChildStarted(int)                {}
func (NopObserver) ChildAlive(int)                  {}
func (NopObserver) ChildStopped(consts.StopOutcome) {}

const (
	evBegin       fsm.Event = "begin"
	evSpawned     fsm.Event = "spawned"
	evSpawnFailed fsm.Event = "spawn_failed"
	evStop        fsm.Event = "stop"
	evFinish      fsm.Event = "finish"
)

// WorkerOptions tunes a Worker. Zero values select the defaults.
type WorkerOptions struct {
	Tick     time.Duration
	Observer Observer
	Log      logger.Logger
}

// Worker owns the supervised child for exactly one run. It reports its
// progress on the status channel and watches the termination channel.
type Worker struct {
	cfg      Config
	spawner  Spawner
	events   *appstate.Sender
	term     *termsig.Receiver
	tick     time.Duration
	observer Observer
	log      logger.Logger
	fsm      *fsm.StateMachine

	proc          Process
	killRequested bool
	childGone     bool
}

// NewWorker wires a worker to its channels.
func NewWorker(cfg Config, spawner Spawner, events *appstate.Sender, term *termsig.Receiver, opts WorkerOptions) *Worker {
	w := &Worker{
		cfg:      cfg,
		spawner:  spawner,
		events:   events,
		term:     term,
		tick:     opts.Tick,
		observer: opts.Observer,
		log:      opts.Log,
		fsm:      fsm.New(fsm.State(consts.StateNotStarted)),
	}
	if w.tick <= 0 {
		w.tick = consts.DefaultPollTick
	}
	if w.observer == nil {
		w.observer = NopObserver{}
	}
	if w.log == nil {
		w.log = logger.Nop()
	}
	w.setupFSM()
	return w
}

func (w *Worker) setupFSM() {
	st := func(s consts.WorkerState) fsm.State { return fsm.State(s) }

	w.fsm.AddTransition(st(consts.StateNotStarted), st(consts.StateSpawning), evBegin, w.onBegin)
	w.fsm.AddTransition(st(consts.StateSpawning), st(consts.StateRunning), evSpawned, w.onSpawned)
	w.fsm.AddTransition(st(consts.StateSpawning), st(consts.StateDone), evSpawnFailed, w.onStopping)
	w.fsm.AddTransition(st(consts.StateRunning), st(consts.StateTerminating), evStop, w.onStopping)
	w.fsm.AddTransition(st(consts.StateTerminating), st(consts.StateDone), evFinish, w.onEnter)
}

// State returns the current worker state.
func (w *Worker) State() consts.WorkerState {
	return consts.WorkerState(w.fsm.Current())
}

// Run supervises the child until it exits or termination is requested.
// Stopped is always the last event emitted, whatever happens. The returned
// error only describes the run for logging.
func (w *Worker) Run() (err error) {
	defer w.finish(&err)

	w.log.Debug("worker reporting in")
	w.fire(evBegin)

	args := w.cfg.Args()
	w.events.Starting(consts.CheckpointSpawn)
	w.log.Debug("running child", "exec", w.cfg.Executable, "args", args)

	proc, serr := w.spawner.Spawn(w.cfg.Executable, args)
	if serr != nil {
		w.log.Error("unable to spawn child", "exec", w.cfg.Executable, "err", serr)
		w.childGone = true
		w.observer.ChildStopped(consts.OutcomeSpawnFailed)
		w.fire(evSpawnFailed)
		if verrors.CodeOf(serr) == verrors.ErrCodeUnknown {
			serr = verrors.New(verrors.ErrCodeSpawnFailed, "supervisor.Worker", "spawn failed", serr)
		}
		return serr
	}
	w.proc = proc
	w.observer.ChildStarted(proc.Pid())
	w.fire(evSpawned)

	w.supervise()

	w.fire(evStop)
	if w.killRequested {
		w.terminate()
	}
	w.fire(evFinish)
	return nil
}

// supervise polls the termination channel; every timed-out poll doubles as
// a liveness check on the child.
func (w *Worker) supervise() {
	pid := w.proc.Pid()
	for {
		switch reason := w.term.Wait(w.tick); reason {
		case termsig.Signaled:
			w.log.Debug("kill switch activated")
			w.killRequested = true
			return
		case termsig.Broken:
			w.log.Error("termination channel broken while waiting for kill event")
			w.killRequested = true
			return
		default:
			st, err := w.proc.Poll()
			if err != nil {
				w.log.Warn("liveness poll failed", "err", err)
				w.killRequested = true
				return
			}
			if st.Exited {
				w.log.Info("child exited on its own", "pid", pid, "code", st.Code, "status", st.Status)
				w.childGone = true
				w.observer.ChildStopped(consts.OutcomeSelfExit)
				return
			}
			w.observer.ChildAlive(pid)
		}
	}
}

func (w *Worker) terminate() {
	w.childGone = true
	err := w.proc.Terminate()
	switch {
	case err == nil:
		w.log.Debug("child process killed successfully")
		w.observer.ChildStopped(consts.OutcomeKilled)
	case errors.Is(err, ErrAlreadyExited):
		w.log.Warn("child already dead")
		w.observer.ChildStopped(consts.OutcomeAlreadyExited)
	default:
		w.log.Error("unable to kill child", "err", err)
		w.observer.ChildStopped(consts.OutcomeKillFailed)
	}
}

// finish guarantees the terminal Stopped event, also after a panic.
func (w *Worker) finish(errp *error) {
	if r := recover(); r != nil {
		w.log.Error("worker panicked", "panic", r)
		*errp = verrors.New(verrors.ErrCodeWorkerPanic, "supervisor.Worker", fmt.Sprint(r), nil)
		if w.proc != nil && !w.childGone {
			w.terminate()
		}
		if w.events.Last() < appstate.KindStopping {
			w.events.Stopping(consts.CheckpointStop)
		}
	}
	w.term.Close()
	if w.events.Last() != appstate.KindStopped {
		w.events.Stopped()
	}
	w.events.Close()
	w.log.Debug("worker reporting out")
}

// fire advances the state machine. An event the current state does not
// accept is a bug in the worker and panics; finish turns it into an error.
func (w *Worker) fire(ev fsm.Event) {
	if !w.fsm.Can(ev) {
		w.log.Error("invalid worker transition", "state", w.State(), "event", ev)
		panic(fmt.Sprintf("supervisor: event %s not allowed in state %s", ev, w.State()))
	}
	if err := w.fsm.Fire(ev); err != nil {
		panic(err)
	}
}

func (w *Worker) onEnter(fsm.Event, ...interface{}) error {
	w.observer.WorkerState(w.State())
	return nil
}

func (w *Worker) onBegin(ev fsm.Event, args ...interface{}) error {
	w.events.Starting(consts.CheckpointBegin)
	return w.onEnter(ev, args...)
}

func (w *Worker) onSpawned(ev fsm.Event, args ...interface{}) error {
	w.events.Started()
	return w.onEnter(ev, args...)
}

func (w *Worker) onStopping(ev fsm.Event, args ...interface{}) error {
	w.events.Stopping(consts.CheckpointStop)
	return w.onEnter(ev, args...)
}

// Personal.AI order the ending
