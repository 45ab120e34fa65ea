package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/notify"
)

// streamRecorder is a flushable ResponseWriter safe to read while the
// stream handler is still writing from its own goroutine.
type streamRecorder struct {
	header http.Header
	mu     sync.Mutex
	buf    bytes.Buffer
	status int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (s *streamRecorder) Header() http.Header { return s.header }

func (s *streamRecorder) WriteHeader(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *streamRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *streamRecorder) Flush() {}

func (s *streamRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestEventsHandler_Stream(t *testing.T) {
	router := notify.NewRouter(8)
	r := mux.NewRouter()
	NewEventsHandler(router).Register(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/v1/branches/branch-1/events", nil).WithContext(ctx)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(rec, req)
		close(done)
	}()

	// The handler subscribes before it blocks on the stream.
	require.Eventually(t, func() bool {
		return router.SubscriberCount("branch-1") == 1
	}, time.Second, 5*time.Millisecond)

	router.Publish("branch-1", domain.Event{Type: domain.EventStarted, SessionID: "s-1", BranchID: "branch-1"})
	router.Publish("branch-2", domain.Event{Type: domain.EventStarted, SessionID: "s-2", BranchID: "branch-2"})
	router.Publish("branch-1", domain.Event{Type: domain.EventWarning, SessionID: "s-1", BranchID: "branch-1", RemainingMinutes: 5})

	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "event: warning")
	}, time.Second, 5*time.Millisecond)

	body := rec.body()
	assert.Contains(t, body, "event: started")
	assert.Contains(t, body, `"session_id":"s-1"`)
	// Events in publish order.
	assert.Less(t, strings.Index(body, "event: started"), strings.Index(body, "event: warning"))
	// Other branches' events never reach this stream.
	assert.NotContains(t, body, "s-2")

	// Client disconnect tears the subscription down.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not exit on client disconnect")
	}
	assert.Equal(t, 0, router.SubscriberCount("branch-1"))
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
