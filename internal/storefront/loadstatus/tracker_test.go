package loadstatus_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/storefront/loadstatus"
)

func TestTrackerTransitions(t *testing.T) {
	t.Parallel()

	tracker := loadstatus.NewTracker()
	require.True(t, tracker.IsIdle())
	require.Equal(t, loadstatus.StatusIdle, tracker.Status())

	tracker.SetLoading()
	require.True(t, tracker.IsLoading())
	require.False(t, tracker.IsIdle())

	tracker.SetError()
	require.True(t, tracker.IsError())
	require.False(t, tracker.IsLoading())

	tracker.SetSuccess()
	require.True(t, tracker.IsSuccess())

	tracker.Reset()
	require.True(t, tracker.IsIdle())
}

func TestTrackerZeroValueIsIdle(t *testing.T) {
	t.Parallel()

	var tracker loadstatus.Tracker
	require.Equal(t, loadstatus.StatusIdle, tracker.Status())
	require.True(t, tracker.UpdatedAt().IsZero())
}

func TestTrackerDoubleSubmitLastWriteWins(t *testing.T) {
	t.Parallel()

	tracker := loadstatus.NewTracker()
	tracker.SetLoading()
	tracker.SetLoading()
	require.True(t, tracker.IsLoading(), "second submit keeps the tracker loading")

	// The first submission resolves, then the second one fails.
	tracker.SetSuccess()
	tracker.SetError()
	require.True(t, tracker.IsError())
}

func TestTrackerConcurrentSetters(t *testing.T) {
	t.Parallel()

	tracker := loadstatus.NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tracker.SetLoading()
			} else {
				tracker.SetSuccess()
			}
			_ = tracker.Status()
		}(i)
	}
	wg.Wait()

	status := tracker.Status()
	require.Contains(t, []loadstatus.Status{loadstatus.StatusLoading, loadstatus.StatusSuccess}, status)
}

func TestRegistryScopesTrackersBySession(t *testing.T) {
	t.Parallel()

	reg := loadstatus.NewRegistry(nil)
	a := reg.For("sess-a", loadstatus.FormLogin)
	b := reg.For("sess-b", loadstatus.FormLogin)
	require.NotSame(t, a, b)
	require.Same(t, a, reg.For("sess-a", "LOGIN"))

	a.SetLoading()
	require.True(t, b.IsIdle())

	got, ok := reg.Lookup("sess-a", loadstatus.FormLogin)
	require.True(t, ok)
	require.True(t, got.IsLoading())

	_, ok = reg.Lookup("sess-a", loadstatus.FormRegister)
	require.False(t, ok)

	reg.Forget("sess-a")
	_, ok = reg.Lookup("sess-a", loadstatus.FormLogin)
	require.False(t, ok)
	require.Equal(t, 1, reg.Len())
}

func TestRegistrySweepDropsIdleSessions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := loadstatus.NewRegistry(clock)

	reg.For("old", loadstatus.FormLogin).SetError()
	now = now.Add(40 * time.Minute)
	reg.For("fresh", loadstatus.FormRegister).SetLoading()

	removed := reg.Sweep(30 * time.Minute)
	require.Equal(t, 1, removed)

	_, ok := reg.Lookup("old", loadstatus.FormLogin)
	require.False(t, ok)
	_, ok = reg.Lookup("fresh", loadstatus.FormRegister)
	require.True(t, ok)

	require.Zero(t, reg.Sweep(0))
}
