package services

import (
	"sync"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const dispatchQueueSize = 256

// delivery is one ordered outbound event for a session.
type delivery struct {
	target  domain.UserID // empty: broadcast to the whole session
	event   string
	payload any
}

// sessionHandle bundles a session with its viewer set behind a single mutex,
// so that lifecycle transitions, viewer-count updates and chat acceptance for
// one session are serialized while different sessions proceed in parallel.
// Ordered fan-out goes through a per-session dispatch goroutine; the lock is
// never held across socket writes or other I/O.
type sessionHandle struct {
	mu       sync.Mutex
	session  domain.StreamSession
	viewers  map[domain.UserID]*domain.Viewer
	history  []*domain.ChatMessage
	limiters map[domain.UserID]*rate.Limiter

	queue chan delivery
	done  chan struct{}
}

func newSessionHandle(session domain.StreamSession) *sessionHandle {
	return &sessionHandle{
		session:  session,
		viewers:  make(map[domain.UserID]*domain.Viewer),
		limiters: make(map[domain.UserID]*rate.Limiter),
		queue:    make(chan delivery, dispatchQueueSize),
		done:     make(chan struct{}),
	}
}

// snapshot returns a copy of the session under the handle lock.
func (h *sessionHandle) snapshot() domain.StreamSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// enqueue appends a delivery to the ordered queue. Callers hold h.mu, so the
// queue order matches acceptance order. A full queue drops the event rather
// than blocking the session lock.
func (h *sessionHandle) enqueue(d delivery) bool {
	select {
	case h.queue <- d:
		return true
	default:
		return false
	}
}

// run drains the dispatch queue until the handle is closed, delivering each
// event through the sink in acceptance order.
func (h *sessionHandle) run(sessionID domain.SessionID, sink ports.EventSink) {
	for {
		select {
		case d := <-h.queue:
			if d.target != "" {
				sink.SendToUser(sessionID, d.target, d.event, d.payload)
			} else {
				sink.BroadcastToSession(sessionID, d.event, d.payload)
			}
		case <-h.done:
			// Flush what was accepted before close.
			for {
				select {
				case d := <-h.queue:
					if d.target != "" {
						sink.SendToUser(sessionID, d.target, d.event, d.payload)
					} else {
						sink.BroadcastToSession(sessionID, d.event, d.payload)
					}
				default:
					return
				}
			}
		}
	}
}

func (h *sessionHandle) close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// SessionTable is the authoritative in-memory registry of active and
// scheduled sessions. The table lock only guards the map; per-session state
// is guarded by each handle's own mutex.
type SessionTable struct {
	mu      sync.RWMutex
	handles map[domain.SessionID]*sessionHandle
	sink    ports.EventSink
	logger  *zap.SugaredLogger
}

func NewSessionTable(sink ports.EventSink, logger *zap.SugaredLogger) *SessionTable {
	return &SessionTable{
		handles: make(map[domain.SessionID]*sessionHandle),
		sink:    sink,
		logger:  logger,
	}
}

func (t *SessionTable) insert(session domain.StreamSession) *sessionHandle {
	h := newSessionHandle(session)
	t.mu.Lock()
	t.handles[session.ID] = h
	t.mu.Unlock()
	go h.run(session.ID, t.sink)
	return h
}

func (t *SessionTable) get(id domain.SessionID) (*sessionHandle, bool) {
	t.mu.RLock()
	h, ok := t.handles[id]
	t.mu.RUnlock()
	return h, ok
}

// remove drops the handle from the table and stops its dispatcher.
func (t *SessionTable) remove(id domain.SessionID) {
	t.mu.Lock()
	h, ok := t.handles[id]
	delete(t.handles, id)
	t.mu.Unlock()
	if ok {
		h.close()
	}
}

func (t *SessionTable) list() []*sessionHandle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*sessionHandle, 0, len(t.handles))
	for _, h := range t.handles {
		out = append(out, h)
	}
	return out
}
