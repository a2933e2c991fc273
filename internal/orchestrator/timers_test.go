package orchestrator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArmReplacesPendingTimer(t *testing.T) {
	ts := newTimerSet()
	defer ts.Close()

	var first, second atomic.Int32
	ts.Arm(purposeRelock, 50*time.Millisecond, func() { first.Add(1) })
	ts.Arm(purposeRelock, 50*time.Millisecond, func() { second.Add(1) })

	require.Eventually(t, func() bool {
		return second.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, first.Load(), "replaced timer must not fire")
}

func TestCancelConsumesTimer(t *testing.T) {
	ts := newTimerSet()
	defer ts.Close()

	var fired atomic.Int32
	ts.Arm(purposeRelock, 50*time.Millisecond, func() { fired.Add(1) })

	assert.True(t, ts.Cancel(purposeRelock))
	assert.False(t, ts.Cancel(purposeRelock), "second cancel finds nothing pending")

	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestTimersIndependentByPurpose(t *testing.T) {
	ts := newTimerSet()
	defer ts.Close()

	var relock, clear atomic.Int32
	ts.Arm(purposeRelock, 30*time.Millisecond, func() { relock.Add(1) })
	ts.Arm(purposeAlertClear, 30*time.Millisecond, func() { clear.Add(1) })

	require.Eventually(t, func() bool {
		return relock.Load() == 1 && clear.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCloseStopsEverything(t *testing.T) {
	ts := newTimerSet()

	var fired atomic.Int32
	ts.Arm(purposeRelock, 30*time.Millisecond, func() { fired.Add(1) })
	ts.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load(), "no callback fires after Close")
}
