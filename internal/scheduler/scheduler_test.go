package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playpark-backend/internal/config"
	"playpark-backend/internal/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingSink) Publish(_ string, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

func testConfig() config.TimerConfig {
	return config.TimerConfig{
		// Far-future cadence so cron never interferes with timer tests.
		TickSchedule:   "0 0 0 1 1 *",
		WarningMinutes: []int32{5, 1},
	}
}

func collectExpirations(t *testing.T, fired <-chan string, n int) []string {
	t.Helper()
	var ids []string
	for len(ids) < n {
		select {
		case id := <-fired:
			ids = append(ids, id)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for expirations, got %v", ids)
		}
	}
	return ids
}

func TestScheduler_FiresInDeadlineOrder(t *testing.T) {
	s := New(testConfig(), &recordingSink{})
	fired := make(chan string, 8)

	now := time.Now()
	s.Schedule("s3", "b", "g", now.Add(90*time.Millisecond))
	s.Schedule("s1", "b", "g", now.Add(10*time.Millisecond))
	s.Schedule("s2", "b", "g", now.Add(50*time.Millisecond))

	s.Start(func(id string) { fired <- id })
	defer s.Stop()

	assert.Equal(t, []string{"s1", "s2", "s3"}, collectExpirations(t, fired, 3))
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_PastDeadlineFiresImmediately(t *testing.T) {
	s := New(testConfig(), &recordingSink{})
	fired := make(chan string, 1)
	s.Start(func(id string) { fired <- id })
	defer s.Stop()

	// Restart rebuild can see sessions whose deadline already passed.
	s.Schedule("s1", "b", "g", time.Now().Add(-time.Minute))

	assert.Equal(t, []string{"s1"}, collectExpirations(t, fired, 1))
}

func TestScheduler_RescheduleReplacesDeadline(t *testing.T) {
	s := New(testConfig(), &recordingSink{})
	fired := make(chan string, 8)
	s.Start(func(id string) { fired <- id })
	defer s.Stop()

	// Extend twice; only the final deadline may fire, exactly once.
	now := time.Now()
	s.Schedule("s1", "b", "g", now.Add(20*time.Millisecond))
	s.Schedule("s1", "b", "g", now.Add(60*time.Millisecond))
	s.Schedule("s1", "b", "g", now.Add(100*time.Millisecond))
	assert.Equal(t, 1, s.Len())

	assert.Equal(t, []string{"s1"}, collectExpirations(t, fired, 1))

	select {
	case id := <-fired:
		t.Fatalf("stale deadline fired for %s", id)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestScheduler_CancelPreventsFiring(t *testing.T) {
	s := New(testConfig(), &recordingSink{})
	fired := make(chan string, 8)
	s.Start(func(id string) { fired <- id })
	defer s.Stop()

	s.Schedule("s1", "b", "g", time.Now().Add(50*time.Millisecond))
	s.Cancel("s1")
	s.Cancel("absent") // no-op

	select {
	case id := <-fired:
		t.Fatalf("cancelled deadline fired for %s", id)
	case <-time.After(150 * time.Millisecond):
	}
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_StopDiscardsWithoutFiring(t *testing.T) {
	s := New(testConfig(), &recordingSink{})
	fired := make(chan string, 8)
	s.Start(func(id string) { fired <- id })

	s.Schedule("s1", "b", "g", time.Now().Add(time.Hour))
	s.Stop()

	select {
	case id := <-fired:
		t.Fatalf("deadline fired during shutdown for %s", id)
	default:
	}
}

func TestScheduler_PanickingCallbackIsIsolated(t *testing.T) {
	s := New(testConfig(), &recordingSink{})
	fired := make(chan string, 8)
	s.Start(func(id string) {
		if id == "bad" {
			panic("boom")
		}
		fired <- id
	})
	defer s.Stop()

	now := time.Now()
	s.Schedule("bad", "b", "g", now.Add(10*time.Millisecond))
	s.Schedule("good", "b", "g", now.Add(40*time.Millisecond))

	assert.Equal(t, []string{"good"}, collectExpirations(t, fired, 1))
}

func TestScheduler_Ticks(t *testing.T) {
	sink := &recordingSink{}
	s := New(testConfig(), sink)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Schedule("s1", "branch-1", "game-1", base.Add(30*time.Minute))
	s.emitTicks()

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTick, events[0].Type)
	assert.Equal(t, "s1", events[0].SessionID)
	assert.Equal(t, "branch-1", events[0].BranchID)
	assert.Equal(t, int32(30), events[0].RemainingMinutes)

	// Partial minutes round up.
	s.now = func() time.Time { return base.Add(10*time.Minute + 30*time.Second) }
	s.emitTicks()
	events = sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, int32(20), events[1].RemainingMinutes)
}

func TestScheduler_WarningsFireOncePerThreshold(t *testing.T) {
	sink := &recordingSink{}
	s := New(testConfig(), sink)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.Schedule("s1", "branch-1", "game-1", base.Add(10*time.Minute))

	// At 5 minutes remaining: tick + 5-minute warning.
	s.now = func() time.Time { return base.Add(5 * time.Minute) }
	s.emitTicks()
	// Next minute: tick only, the 5-minute warning already fired.
	s.now = func() time.Time { return base.Add(6 * time.Minute) }
	s.emitTicks()
	// At 1 minute remaining: tick + 1-minute warning.
	s.now = func() time.Time { return base.Add(9 * time.Minute) }
	s.emitTicks()

	var types []domain.EventType
	var warnings []int32
	for _, e := range sink.all() {
		types = append(types, e.Type)
		if e.Type == domain.EventWarning {
			warnings = append(warnings, e.RemainingMinutes)
		}
	}
	assert.Equal(t, []domain.EventType{
		domain.EventTick, domain.EventWarning,
		domain.EventTick,
		domain.EventTick, domain.EventWarning,
	}, types)
	assert.Equal(t, []int32{5, 1}, warnings)
}

func TestScheduler_ExtensionResetsWarnings(t *testing.T) {
	sink := &recordingSink{}
	s := New(testConfig(), sink)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.Schedule("s1", "branch-1", "game-1", base.Add(5*time.Minute))

	s.emitTicks() // tick + 5-minute warning

	// Extension pushes the deadline out; the replacement entry gets a
	// fresh set of warning thresholds.
	s.Schedule("s1", "branch-1", "game-1", base.Add(35*time.Minute))
	s.now = func() time.Time { return base.Add(31 * time.Minute) }
	s.emitTicks() // 4 minutes remaining again: tick + new 5-minute warning

	var warnings int
	for _, e := range sink.all() {
		if e.Type == domain.EventWarning {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}
