package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-sim/internal/ingest"
	"github.com/example/ride-sim/internal/observability"
	"github.com/example/ride-sim/internal/sim"
)

const (
	writeWait  = 5 * time.Second
	outboxSize = 256
)

// session is one connected watcher. Messages queue in outbox and a single
// writer goroutine sends them.
type session struct {
	conn   *websocket.Conn
	outbox chan ingest.TraceMessage
	done   chan struct{}
	once   sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{conn: conn, outbox: make(chan ingest.TraceMessage, outboxSize), done: make(chan struct{})}
}

// enqueue reports false when the outbox is full.
func (s *session) enqueue(m ingest.TraceMessage) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.outbox <- m:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Hub broadcasts live simulation traces to websocket watchers.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewHub() *Hub { return &Hub{sessions: make(map[string]*session)} }

// Watch registers conn under watcherID, replacing and closing any earlier
// session with the same id, and blocks until the watcher disconnects.
func (h *Hub) Watch(watcherID string, conn *websocket.Conn) {
	s := newSession(conn)
	h.mu.Lock()
	old, replaced := h.sessions[watcherID]
	h.sessions[watcherID] = s
	h.mu.Unlock()
	if replaced {
		old.close()
	} else {
		observability.WatchersConnected.Inc()
	}

	go h.writeLoop(watcherID, s)

	_ = conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(watcherID, s)
			return
		}
	}
}

func (h *Hub) writeLoop(id string, s *session) {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(m); err != nil {
				h.drop(id, s)
				return
			}
		}
	}
}

func (h *Hub) Remove(watcherID string) {
	h.mu.Lock()
	s, ok := h.sessions[watcherID]
	delete(h.sessions, watcherID)
	h.mu.Unlock()
	if ok {
		s.close()
		observability.WatchersConnected.Dec()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast queues m for every watcher without waiting on the network. A
// watcher whose outbox is full is too slow to keep up and is dropped.
func (h *Hub) Broadcast(m ingest.TraceMessage) {
	h.mu.RLock()
	targets := make(map[string]*session, len(h.sessions))
	for id, s := range h.sessions {
		targets[id] = s
	}
	h.mu.RUnlock()

	for id, s := range targets {
		if !s.enqueue(m) {
			observability.TracesDropped.WithLabelValues("websocket").Inc()
			h.drop(id, s)
		}
	}
}

// drop removes id only if it still maps to s.
func (h *Hub) drop(id string, s *session) {
	h.mu.Lock()
	cur, ok := h.sessions[id]
	if ok && cur == s {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	s.close()
	if ok && cur == s {
		observability.WatchersConnected.Dec()
	}
}

func (h *Hub) TraceFor(runID string) sim.Tracer {
	return sim.TracerFunc(func(e sim.Event) {
		h.Broadcast(ingest.TraceMessage{RunID: runID, TraceRecord: sim.RecordOf(e)})
	})
}
