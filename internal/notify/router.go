package notify

import (
	"sync"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/logger"
)

// Router fans lifecycle events out to the listeners currently
// subscribed to a branch. Delivery is best effort: a listener that
// cannot keep up has events dropped, and a listener that unsubscribes
// simply stops receiving. Events are delivered in publish order; the
// hub lock is held across the whole fan-out so no two publishes
// interleave per subscriber.
type Router struct {
	mu     sync.Mutex
	hubs   map[string]map[*Subscriber]struct{}
	buffer int
	nextID uint64
}

// Subscriber is one listener handle for a branch's event stream.
// Events arrive on Events() until Unsubscribe closes it.
type Subscriber struct {
	id       uint64
	branchID string
	ch       chan domain.Event
	closed   bool
}

// Events returns the subscriber's ordered event stream.
func (s *Subscriber) Events() <-chan domain.Event {
	return s.ch
}

// BranchID returns the branch this subscriber listens to.
func (s *Subscriber) BranchID() string {
	return s.branchID
}

func NewRouter(subscriberBuffer int) *Router {
	if subscriberBuffer <= 0 {
		subscriberBuffer = 16
	}
	return &Router{
		hubs:   make(map[string]map[*Subscriber]struct{}),
		buffer: subscriberBuffer,
	}
}

// Subscribe registers a new listener for branchID.
func (r *Router) Subscribe(branchID string) *Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub := &Subscriber{
		id:       r.nextID,
		branchID: branchID,
		ch:       make(chan domain.Event, r.buffer),
	}

	hub, ok := r.hubs[branchID]
	if !ok {
		hub = make(map[*Subscriber]struct{})
		r.hubs[branchID] = hub
	}
	hub[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the listener and closes its event channel.
// Safe to call more than once.
func (r *Router) Unsubscribe(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)

	if hub, ok := r.hubs[sub.branchID]; ok {
		delete(hub, sub)
		if len(hub) == 0 {
			delete(r.hubs, sub.branchID)
		}
	}
}

// Publish delivers event to every current subscriber of branchID.
func (r *Router) Publish(branchID string, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sub := range r.hubs[branchID] {
		select {
		case sub.ch <- event:
		default:
			logger.Debug("Dropping event for slow subscriber",
				"branch_id", branchID, "subscriber_id", sub.id, "event", event.Type)
		}
	}
}

// SubscriberCount returns the number of listeners for a branch.
func (r *Router) SubscriberCount(branchID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hubs[branchID])
}
