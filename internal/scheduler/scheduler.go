package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"playpark-backend/internal/config"
	"playpark-backend/internal/domain"
	"playpark-backend/internal/logger"
)

// ExpirationScheduler is the single authority for when active sessions
// auto-complete. One min-heap holds the pending deadline per session;
// one coordinator goroutine sleeps until the earliest live deadline and
// fires the expire callback. Mutations wake the coordinator so a new
// earlier deadline is observed immediately, not on the next poll.
//
// It also drives countdown notifications: a cron entry on a fixed
// cadence emits a tick per active session and one-shot warnings at the
// configured remaining-minute thresholds.
type ExpirationScheduler struct {
	mu   sync.Mutex
	heap expiryHeap
	// live maps a session ID to its one current entry. A heap entry
	// whose session no longer maps to it has been replaced or cancelled
	// and is discarded when it surfaces.
	live map[string]*entry

	sink         domain.EventSink
	tickSchedule string
	warnMinutes  []int32

	cron     *cron.Cron
	onExpire func(sessionID string)
	wake     chan struct{}
	quit     chan struct{}
	wg       sync.WaitGroup

	now func() time.Time
}

type entry struct {
	sessionID string
	branchID  string
	gameID    string
	expiresAt time.Time
	warned    map[int32]bool
}

type expiryHeap []*entry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(*entry)) }
func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

func New(cfg config.TimerConfig, sink domain.EventSink) *ExpirationScheduler {
	return &ExpirationScheduler{
		live:         make(map[string]*entry),
		sink:         sink,
		tickSchedule: cfg.TickSchedule,
		warnMinutes:  cfg.WarningMinutes,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
		),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		now:  time.Now,
	}
}

// Start launches the coordinator and the tick cadence. onExpire is
// invoked once per fired deadline, outside the scheduler lock.
func (s *ExpirationScheduler) Start(onExpire func(sessionID string)) {
	s.onExpire = onExpire

	if _, err := s.cron.AddFunc(s.tickSchedule, s.emitTicks); err != nil {
		logger.Error("Failed to register countdown tick job", "schedule", s.tickSchedule, "error", err)
	} else {
		s.cron.Start()
	}

	s.wg.Add(1)
	go s.run()
	logger.Info("Expiration scheduler started", "tick_schedule", s.tickSchedule)
}

// Stop drains the coordinator. Pending entries are discarded, never
// fired.
func (s *ExpirationScheduler) Stop() {
	close(s.quit)
	s.wg.Wait()
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Expiration scheduler stopped")
}

// Schedule inserts or replaces the deadline for sessionID. A replaced
// entry is invalidated before the new one becomes visible, so a
// session never has two live deadlines.
func (s *ExpirationScheduler) Schedule(sessionID, branchID, gameID string, expiresAt time.Time) {
	e := &entry{
		sessionID: sessionID,
		branchID:  branchID,
		gameID:    gameID,
		expiresAt: expiresAt,
		warned:    make(map[int32]bool),
	}

	s.mu.Lock()
	s.live[sessionID] = e
	heap.Push(&s.heap, e)
	s.mu.Unlock()

	s.kick()
}

// Cancel invalidates the deadline for sessionID; no-op if absent.
func (s *ExpirationScheduler) Cancel(sessionID string) {
	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()

	s.kick()
}

// Len returns the number of sessions with a live deadline.
func (s *ExpirationScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *ExpirationScheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *ExpirationScheduler) run() {
	defer s.wg.Done()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	drain := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}

	for {
		s.mu.Lock()
		next := s.peekLocked()
		s.mu.Unlock()

		var fire <-chan time.Time
		if next != nil {
			d := next.expiresAt.Sub(s.now())
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
			fire = timer.C
		}

		select {
		case <-s.quit:
			if fire != nil {
				drain()
			}
			return
		case <-s.wake:
			// The earliest deadline may have changed; re-derive.
			if fire != nil {
				drain()
			}
		case <-fire:
			s.fireDue()
		}
	}
}

// peekLocked discards stale heap heads and returns the earliest live
// entry, or nil. Caller holds the lock.
func (s *ExpirationScheduler) peekLocked() *entry {
	for s.heap.Len() > 0 {
		head := s.heap[0]
		if s.live[head.sessionID] == head {
			return head
		}
		heap.Pop(&s.heap)
	}
	return nil
}

// fireDue pops every live entry whose deadline has passed and invokes
// the expire callback for each. A panicking callback is absorbed: one
// session's failure never takes down the coordinator.
func (s *ExpirationScheduler) fireDue() {
	now := s.now()

	s.mu.Lock()
	var due []*entry
	for {
		head := s.peekLocked()
		if head == nil || head.expiresAt.After(now) {
			break
		}
		heap.Pop(&s.heap)
		delete(s.live, head.sessionID)
		due = append(due, head)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.expireOne(e.sessionID)
	}
}

func (s *ExpirationScheduler) expireOne(sessionID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Expire callback panicked", "session_id", sessionID, "panic", r)
		}
	}()
	s.onExpire(sessionID)
}

// emitTicks publishes a countdown tick for every live session and
// one-shot warnings for newly crossed thresholds. Runs on the cron
// cadence.
func (s *ExpirationScheduler) emitTicks() {
	now := s.now()

	type notice struct {
		e         *entry
		remaining int32
		warnings  []int32
	}

	s.mu.Lock()
	notices := make([]notice, 0, len(s.live))
	for _, e := range s.live {
		d := e.expiresAt.Sub(now)
		if d <= 0 {
			// Deadline already reached; the coordinator fires it.
			continue
		}
		remaining := int32(d / time.Minute)
		if d%time.Minute > 0 {
			remaining++
		}

		n := notice{e: e, remaining: remaining}
		for _, threshold := range s.warnMinutes {
			if remaining <= threshold && !e.warned[threshold] {
				e.warned[threshold] = true
				n.warnings = append(n.warnings, threshold)
			}
		}
		notices = append(notices, n)
	}
	s.mu.Unlock()

	for _, n := range notices {
		s.sink.Publish(n.e.branchID, domain.Event{
			Type:             domain.EventTick,
			SessionID:        n.e.sessionID,
			BranchID:         n.e.branchID,
			GameID:           n.e.gameID,
			At:               now,
			RemainingMinutes: n.remaining,
			ExpiresAt:        n.e.expiresAt,
		})
		for _, threshold := range n.warnings {
			s.sink.Publish(n.e.branchID, domain.Event{
				Type:             domain.EventWarning,
				SessionID:        n.e.sessionID,
				BranchID:         n.e.branchID,
				GameID:           n.e.gameID,
				At:               now,
				RemainingMinutes: threshold,
				ExpiresAt:        n.e.expiresAt,
			})
		}
	}
}
