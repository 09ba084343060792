package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/verboten/internal/appstate"
	"github.com/turtacn/verboten/pkg/consts"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		event appstate.Event
		want  Status
	}{
		{appstate.Starting(1), Status{State: StartPending, CheckPoint: 1, WaitHint: consts.StartPendingWaitHint}},
		{appstate.Starting(2), Status{State: StartPending, CheckPoint: 2, WaitHint: consts.StartPendingWaitHint}},
		{appstate.Started(), Status{State: Running, Accepts: AcceptStop}},
		{appstate.Stopping(0), Status{State: StopPending, CheckPoint: 0, WaitHint: consts.StopPendingWaitHint}},
		{appstate.Stopped(), Status{State: Stopped}},
	}
	for _, tc := range cases {
		t.Run(tc.event.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.event))
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "start-pending(cp=2)", Status{State: StartPending, CheckPoint: 2}.String())
	assert.Equal(t, "running", Status{State: Running}.String())
	assert.Equal(t, "unknown", Status{}.String())
}

func TestReporterFunc(t *testing.T) {
	var got Status
	r := ReporterFunc(func(s Status) error { got = s; return nil })
	assert.NoError(t, r.Report(Status{State: Stopped}))
	assert.Equal(t, Stopped, got.State)
}
