package termsig

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWait_TimesOutWithoutRequest(t *testing.T) {
	_, rx := Channel()

	start := time.Now()
	reason := rx.Wait(30 * time.Millisecond)

	assert.Equal(t, Timeout, reason)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWait_Signaled(t *testing.T) {
	tx, rx := Channel()
	require.NoError(t, tx.Signal())

	assert.Equal(t, Signaled, rx.Wait(time.Second))
	// The request is consumed once.
	assert.Equal(t, Timeout, rx.Wait(10*time.Millisecond))
}

func TestWait_WakesUpOnSignalFromAnotherGoroutine(t *testing.T) {
	tx, rx := Channel()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = tx.Signal()
	}()

	start := time.Now()
	assert.Equal(t, Signaled, rx.Wait(5*time.Second))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSignal_Idempotent(t *testing.T) {
	tx, rx := Channel()
	require.NoError(t, tx.Signal())
	require.NoError(t, tx.Signal())

	assert.Equal(t, Signaled, rx.Wait(time.Second))
	assert.Equal(t, Timeout, rx.Wait(10*time.Millisecond))
}

func TestSignal_ConcurrentCallersNeverBlock(t *testing.T) {
	tx, rx := Channel()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tx.Signal()
		}()
	}
	wg.Wait()

	assert.Equal(t, Signaled, rx.Wait(time.Second))
}

func TestWait_BrokenWhenSenderClosed(t *testing.T) {
	tx, rx := Channel()
	tx.Close()
	tx.Close()

	assert.Equal(t, Broken, rx.Wait(time.Second))
	assert.Equal(t, Broken, rx.Wait(time.Second))
}

func TestWait_PendingSignalWinsOverClose(t *testing.T) {
	tx, rx := Channel()
	require.NoError(t, tx.Signal())
	tx.Close()

	assert.Equal(t, Signaled, rx.Wait(time.Second))
	assert.Equal(t, Broken, rx.Wait(time.Second))
}

func TestSignal_ReceiverGone(t *testing.T) {
	tx, rx := Channel()
	rx.Close()
	rx.Close()

	assert.ErrorIs(t, tx.Signal(), ErrReceiverGone)
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "timeout", Timeout.String())
	assert.Equal(t, "signaled", Signaled.String())
	assert.Equal(t, "broken", Broken.String())
	assert.Equal(t, "unknown", Reason(42).String())
}
