package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"playpark-backend/internal/domain"
)

// In-memory session store used by the engine tests. Supports forced
// failures so the abort-on-failed-save path can be exercised.
type memSessionRepo struct {
	mu         sync.Mutex
	sessions   map[string]domain.RentalSession
	failCreate bool
	failUpdate bool
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]domain.RentalSession)}
}

func (r *memSessionRepo) Create(_ context.Context, s *domain.RentalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return fmt.Errorf("%w: forced create failure", domain.ErrStoreUnavailable)
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*domain.RentalSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := s
	return &copied, nil
}

func (r *memSessionRepo) Update(_ context.Context, s *domain.RentalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return fmt.Errorf("%w: forced update failure", domain.ErrStoreUnavailable)
	}
	if _, ok := r.sessions[s.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *memSessionRepo) ListActive(_ context.Context) ([]domain.RentalSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RentalSession
	for _, s := range r.sessions {
		if s.Status == domain.SessionStatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) ListByBranch(_ context.Context, branchID, status string, _, _ int32) ([]domain.RentalSession, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RentalSession
	for _, s := range r.sessions {
		if s.BranchID == branchID && (status == "" || string(s.Status) == status) {
			out = append(out, s)
		}
	}
	return out, int32(len(out)), nil
}

type stubGameRepo struct {
	games map[string]*domain.Game
}

func (r *stubGameRepo) GetByID(_ context.Context, id string) (*domain.Game, error) {
	g, ok := r.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return g, nil
}

func (r *stubGameRepo) ListByBranch(_ context.Context, branchID string) ([]domain.Game, error) {
	var out []domain.Game
	for _, g := range r.games {
		if g.BranchID == branchID {
			out = append(out, *g)
		}
	}
	return out, nil
}

type stubBranchRepo struct {
	branches map[string]*domain.Branch
}

func (r *stubBranchRepo) GetByID(_ context.Context, id string) (*domain.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	return b, nil
}

func (r *stubBranchRepo) List(_ context.Context) ([]domain.Branch, error) {
	var out []domain.Branch
	for _, b := range r.branches {
		out = append(out, *b)
	}
	return out, nil
}

// fakeSchedule records schedule/cancel calls; one deadline per session,
// mirroring the real scheduler's replace semantics.
type fakeSchedule struct {
	mu            sync.Mutex
	deadlines     map[string]time.Time
	scheduleCalls int
	cancelled     []string
}

func newFakeSchedule() *fakeSchedule {
	return &fakeSchedule{deadlines: make(map[string]time.Time)}
}

func (f *fakeSchedule) Schedule(sessionID, _, _ string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadlines[sessionID] = expiresAt
	f.scheduleCalls++
}

func (f *fakeSchedule) Cancel(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.deadlines, sessionID)
	f.cancelled = append(f.cancelled, sessionID)
}

func (f *fakeSchedule) deadline(sessionID string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.deadlines[sessionID]
	return t, ok
}

func (f *fakeSchedule) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deadlines)
}

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

func (r *recordingSink) types() []domain.EventType {
	var out []domain.EventType
	for _, e := range r.all() {
		out = append(out, e.Type)
	}
	return out
}

// callOrder records the interleaving of scheduler and sink calls so
// their relative ordering can be asserted.
type callOrder struct {
	mu    sync.Mutex
	calls []string
}

func (c *callOrder) record(label string) {
	c.mu.Lock()
	c.calls = append(c.calls, label)
	c.mu.Unlock()
}

func (c *callOrder) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

type orderedSchedule struct{ order *callOrder }

func (s orderedSchedule) Schedule(_, _, _ string, _ time.Time) { s.order.record("schedule") }
func (s orderedSchedule) Cancel(string)                        { s.order.record("cancel") }

type orderedSink struct{ order *callOrder }

func (s orderedSink) Publish(_ string, e domain.Event) {
	s.order.record("publish " + string(e.Type))
}
