package notify

import "playpark-backend/internal/domain"

// Fanout publishes every event to each sink in order.
type Fanout []domain.EventSink

func (f Fanout) Publish(branchID string, event domain.Event) {
	for _, sink := range f {
		sink.Publish(branchID, event)
	}
}
