package lifecycle

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/turtacn/verboten/internal/supervisor"
	"github.com/turtacn/verboten/pkg/consts"
	verrors "github.com/turtacn/verboten/pkg/errors"
	"github.com/turtacn/verboten/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testTick = 5 * time.Millisecond

type fakeProcess struct {
	exitOnFirstPoll bool
	terminated      atomic.Int32
}

func (p *fakeProcess) Pid() int { return 7 }

func (p *fakeProcess) Poll() (supervisor.ExitState, error) {
	return supervisor.ExitState{Exited: p.exitOnFirstPoll}, nil
}

func (p *fakeProcess) Terminate() error {
	p.terminated.Add(1)
	return nil
}

type fakeSpawner struct {
	proc *fakeProcess
	err  error
}

func (s *fakeSpawner) Spawn(string, []string) (supervisor.Process, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.proc, nil
}

// recorder is a host double. It can stop the service as soon as it sees the
// running state, the way a service manager would on user request.
type recorder struct {
	svc       *Service
	stopOnRun bool
	failAt    int
	statuses  []Status
	stopAcks  []Ack
}

func (r *recorder) Report(s Status) error {
	r.statuses = append(r.statuses, s)
	if r.failAt > 0 && len(r.statuses) == r.failAt {
		return errors.New("service manager connection lost")
	}
	if s.State == Running && r.stopOnRun {
		r.stopAcks = append(r.stopAcks, r.svc.Bridge().HandleControl(ControlStop))
	}
	return nil
}

func (r *recorder) names() []string {
	out := make([]string, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, s.String())
	}
	return out
}

// hangingProcess blocks in Terminate until released.
type hangingProcess struct {
	release chan struct{}
}

func (p *hangingProcess) Pid() int { return 8 }

func (p *hangingProcess) Poll() (supervisor.ExitState, error) { return supervisor.ExitState{}, nil }

func (p *hangingProcess) Terminate() error {
	<-p.release
	return nil
}

type hangingSpawner struct {
	proc *hangingProcess
}

func (s *hangingSpawner) Spawn(string, []string) (supervisor.Process, error) { return s.proc, nil }

func newService(sp supervisor.Spawner) *Service {
	return New(Options{
		Config:  supervisor.Config{Executable: `C:\msvsmon\msvsmon.exe`},
		Spawner: sp,
		Tick:    testTick,
		Log:     logger.Nop(),
	})
}

func TestService_StopScenario(t *testing.T) {
	proc := &fakeProcess{}
	svc := newService(&fakeSpawner{proc: proc})
	rec := &recorder{svc: svc, stopOnRun: true}

	require.NoError(t, svc.Run(rec))

	assert.Equal(t, []string{
		"start-pending(cp=1)", "start-pending(cp=2)", "running", "stop-pending(cp=0)", "stopped",
	}, rec.names())
	assert.Equal(t, []Ack{AckAccepted}, rec.stopAcks)
	assert.EqualValues(t, 1, proc.terminated.Load())

	running := rec.statuses[2]
	assert.Equal(t, AcceptStop, running.Accepts)
	for _, s := range []Status{rec.statuses[0], rec.statuses[3], rec.statuses[4]} {
		assert.Equal(t, AcceptNone, s.Accepts, "status %s", s)
	}
}

func TestService_ChildSelfExit(t *testing.T) {
	proc := &fakeProcess{exitOnFirstPoll: true}
	svc := newService(&fakeSpawner{proc: proc})
	rec := &recorder{svc: svc}

	require.NoError(t, svc.Run(rec))

	assert.Equal(t, []string{
		"start-pending(cp=1)", "start-pending(cp=2)", "running", "stop-pending(cp=0)", "stopped",
	}, rec.names())
	assert.Zero(t, proc.terminated.Load())
}

func TestService_SpawnFailureStillStops(t *testing.T) {
	svc := newService(&fakeSpawner{err: errors.New("no such file")})
	rec := &recorder{svc: svc}

	require.NoError(t, svc.Run(rec))

	assert.Equal(t, []string{
		"start-pending(cp=1)", "start-pending(cp=2)", "stop-pending(cp=0)", "stopped",
	}, rec.names())
}

func TestService_StopBeforeRunIsLevelTriggered(t *testing.T) {
	proc := &fakeProcess{}
	svc := newService(&fakeSpawner{proc: proc})
	assert.Equal(t, AckAccepted, svc.Bridge().HandleControl(ControlStop))

	rec := &recorder{svc: svc}
	require.NoError(t, svc.Run(rec))

	assert.Equal(t, "stopped", rec.names()[len(rec.statuses)-1])
	assert.EqualValues(t, 1, proc.terminated.Load())
}

func TestService_ReportFailureIsFatal(t *testing.T) {
	proc := &fakeProcess{}
	svc := newService(&fakeSpawner{proc: proc})
	rec := &recorder{svc: svc, failAt: 3}

	err := svc.Run(rec)
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.ErrCodeHostReportFailed))
	assert.Len(t, rec.statuses, 3)

	// Run returns only after the worker killed the child.
	assert.EqualValues(t, 1, proc.terminated.Load())
}

func TestService_ReportFailureWaitIsBounded(t *testing.T) {
	proc := &hangingProcess{release: make(chan struct{})}
	defer close(proc.release)
	svc := newService(&hangingSpawner{proc: proc})
	rec := &recorder{svc: svc, failAt: 3}

	start := time.Now()
	err := svc.Run(rec)
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.ErrCodeHostReportFailed))
	assert.Less(t, time.Since(start), testTick+consts.DefaultReapTimeout+2*time.Second)
}

func TestService_ClosedBridgeStopsRun(t *testing.T) {
	proc := &fakeProcess{}
	svc := newService(&fakeSpawner{proc: proc})
	svc.Bridge().Close()

	rec := &recorder{svc: svc}
	require.NoError(t, svc.Run(rec))

	assert.Equal(t, "stopped", rec.names()[len(rec.statuses)-1])
	assert.EqualValues(t, 1, proc.terminated.Load())
}

func TestService_RunOnlyOnce(t *testing.T) {
	svc := newService(&fakeSpawner{proc: &fakeProcess{exitOnFirstPoll: true}})
	require.NoError(t, svc.Run(&recorder{svc: svc}))

	err := svc.Run(&recorder{svc: svc})
	require.Error(t, err)
}

func TestService_StopAfterRunIsHarmless(t *testing.T) {
	svc := newService(&fakeSpawner{proc: &fakeProcess{exitOnFirstPoll: true}})
	require.NoError(t, svc.Run(&recorder{svc: svc}))

	assert.Equal(t, AckAccepted, svc.Bridge().HandleControl(ControlStop))
}
