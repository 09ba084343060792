package supervisor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/turtacn/verboten/pkg/consts"
	verrors "github.com/turtacn/verboten/pkg/errors"
	"github.com/turtacn/verboten/pkg/logger"
)

// ErrAlreadyExited is returned by Terminate when the child was gone before
// the kill. Callers treat it as benign.
var ErrAlreadyExited = verrors.New(verrors.ErrCodeAlreadyExited, "supervisor.Terminate", "process already exited", nil)

// ExitState is the result of a liveness poll.
type ExitState struct {
	Exited bool
	Code   int
	Status string
}

// Process is a handle on a spawned child. It is owned by one goroutine.
type Process interface {
	Pid() int
	// Poll reports whether the child has exited. It never blocks.
	Poll() (ExitState, error)
	// Terminate stops the child. It returns ErrAlreadyExited when there was
	// nothing left to stop.
	Terminate() error
}

// Spawner starts child processes.
type Spawner interface {
	Spawn(path string, args []string) (Process, error)
}

// ExecSpawner starts children with os/exec.
type ExecSpawner struct {
	WorkDir     string
	Output      OutputConfig
	StopGrace   time.Duration
	ReapTimeout time.Duration
	Log         logger.Logger
}

// NewExecSpawner creates an ExecSpawner for cfg.
func NewExecSpawner(cfg Config, log logger.Logger) *ExecSpawner {
	return &ExecSpawner{
		WorkDir:     cfg.WorkDir,
		Output:      cfg.Output,
		StopGrace:   cfg.StopGrace,
		ReapTimeout: consts.DefaultReapTimeout,
		Log:         log,
	}
}

// Spawn launches path with args. Output goes to the configured rotating
// files, or is discarded.
func (s *ExecSpawner) Spawn(path string, args []string) (Process, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = s.WorkDir
	configureSysProcAttr(cmd)

	var closers []io.Closer
	stdout, stderr := s.Output.Writers(outputName(path))
	if stdout != nil {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		closers = append(closers, stdout, stderr)
	}

	s.Log.Info("Supervisor: Forking process", "exec", path, "args", args)
	if err := cmd.Start(); err != nil {
		closeAll(closers)
		return nil, verrors.New(verrors.ErrCodeSpawnFailed, "supervisor.Spawn", "unable to start "+path, err)
	}

	p := &execProcess{
		cmd:     cmd,
		done:    make(chan struct{}),
		closers: closers,
		grace:   s.StopGrace,
		reap:    s.ReapTimeout,
		log:     s.Log.With("pid", cmd.Process.Pid),
	}
	if p.reap <= 0 {
		p.reap = consts.DefaultReapTimeout
	}
	go p.wait()
	return p, nil
}

type execProcess struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	closers []io.Closer
	grace   time.Duration
	reap    time.Duration
	log     logger.Logger
}

// wait reaps the child. done is closed only after cmd.ProcessState and
// waitErr are set.
func (p *execProcess) wait() {
	p.waitErr = p.cmd.Wait()
	closeAll(p.closers)
	close(p.done)
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Poll() (ExitState, error) {
	select {
	case <-p.done:
	default:
		return ExitState{}, nil
	}

	ps := p.cmd.ProcessState
	if ps == nil {
		return ExitState{}, verrors.New(verrors.ErrCodePollFailed, "supervisor.Poll", "wait failed", p.waitErr)
	}
	return ExitState{Exited: true, Code: ps.ExitCode(), Status: ps.String()}, nil
}

func (p *execProcess) Terminate() error {
	if p.exited() {
		return ErrAlreadyExited
	}

	if p.grace > 0 && stopSignal != nil {
		if err := p.cmd.Process.Signal(stopSignal); err == nil {
			p.log.Debug("Supervisor: Sent stop signal", "grace", p.grace)
			select {
			case <-p.done:
				return nil
			case <-time.After(p.grace):
				p.log.Warn("Supervisor: Grace period expired")
			}
		} else if errors.Is(err, os.ErrProcessDone) {
			return ErrAlreadyExited
		}
	}

	p.log.Warn("Supervisor: Killing process")
	if err := p.cmd.Process.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return ErrAlreadyExited
		}
		return verrors.New(verrors.ErrCodeTerminateFailed, "supervisor.Terminate", "kill failed", err)
	}

	select {
	case <-p.done:
	case <-time.After(p.reap):
		p.log.Warn("Supervisor: Killed process not reaped in time", "timeout", p.reap)
	}
	return nil
}

func (p *execProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func outputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func closeAll(cs []io.Closer) {
	for _, c := range cs {
		_ = c.Close()
	}
}

// Personal.AI order the ending
