package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/verboten/internal/termsig"
	"github.com/turtacn/verboten/pkg/logger"
)

func TestBridge_StopSignalsTermination(t *testing.T) {
	tx, rx := termsig.Channel()
	b := NewBridge(tx, logger.Nop())

	assert.Equal(t, AckAccepted, b.HandleControl(ControlStop))
	assert.Equal(t, termsig.Signaled, rx.Wait(time.Second))
}

func TestBridge_OtherControlsHaveNoEffect(t *testing.T) {
	tx, rx := termsig.Channel()
	b := NewBridge(tx, logger.Nop())

	assert.Equal(t, AckAccepted, b.HandleControl(ControlInterrogate))
	for _, c := range []Control{ControlPause, ControlContinue, ControlShutdown, ControlOther, Control(99)} {
		assert.Equal(t, AckNotImplemented, b.HandleControl(c), "control %s", c)
	}
	assert.Equal(t, termsig.Timeout, rx.Wait(10*time.Millisecond))
}

func TestBridge_CloseBreaksTermination(t *testing.T) {
	tx, rx := termsig.Channel()
	b := NewBridge(tx, logger.Nop())

	b.Close()
	assert.Equal(t, termsig.Broken, rx.Wait(time.Second))
}

func TestBridge_StopBeforeCloseStillSignals(t *testing.T) {
	tx, rx := termsig.Channel()
	b := NewBridge(tx, logger.Nop())

	assert.Equal(t, AckAccepted, b.HandleControl(ControlStop))
	b.Close()
	assert.Equal(t, termsig.Signaled, rx.Wait(time.Second))
}

func TestBridge_StopAfterReceiverGone(t *testing.T) {
	tx, rx := termsig.Channel()
	rx.Close()
	b := NewBridge(tx, logger.Nop())

	assert.Equal(t, AckAccepted, b.HandleControl(ControlStop))
}

func TestParseControl(t *testing.T) {
	for _, c := range []Control{ControlStop, ControlPause, ControlContinue, ControlInterrogate, ControlShutdown} {
		got, err := ParseControl(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseControl(" STOP ")
	require.NoError(t, err)
	assert.Equal(t, ControlStop, got)

	_, err = ParseControl("other")
	assert.Error(t, err)
	_, err = ParseControl("reboot")
	assert.Error(t, err)
}

func TestAck_String(t *testing.T) {
	assert.Equal(t, "accepted", AckAccepted.String())
	assert.Equal(t, "not-implemented", AckNotImplemented.String())
}
