package www

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"greenbowl/stream"
	"greenbowl/tracker"
)

// trackEvent is the payload pushed to browsers watching an order. It carries
// the full progress snapshot so a page can render from any single event.
type trackEvent struct {
	Snapshot       tracker.Snapshot `json:"snapshot"`
	Phase          string           `json:"phase"`
	ConnectionLost bool             `json:"connectionLost"`
	Error          string           `json:"error,omitempty"`
}

// orderTracker is one live tracking session: a reconciler, its listener and
// the set of browser channels watching it.
type orderTracker struct {
	orderID  string
	session  *tracker.Session
	listener *stream.Listener
	cancel   context.CancelFunc

	mu      sync.Mutex
	clients map[chan trackEvent]bool
	last    trackEvent
	seeded  bool
	done    chan struct{}
}

func (t *orderTracker) broadcast(ev trackEvent) {
	t.mu.Lock()
	t.last = ev
	t.seeded = true
	for ch := range t.clients {
		select {
		case ch <- ev:
		default: // slow client, drop the frame
		}
	}
	t.mu.Unlock()
}

func (t *orderTracker) subscribe() chan trackEvent {
	ch := make(chan trackEvent, 8)
	t.mu.Lock()
	t.clients[ch] = true
	if t.seeded {
		ch <- t.last
	}
	t.mu.Unlock()
	return ch
}

func (t *orderTracker) unsubscribe(ch chan trackEvent) (remaining int) {
	t.mu.Lock()
	delete(t.clients, ch)
	remaining = len(t.clients)
	t.mu.Unlock()
	return remaining
}

// TrackerManager owns one orderTracker per order currently being watched.
// Trackers start when the first browser subscribes and stop when the last
// one disconnects.
type TrackerManager struct {
	mu     sync.Mutex
	active map[string]*orderTracker

	newListener ListenerFactory
}

// ListenerFactory builds the feed listener for one order. The server supplies
// one wired to the configured transport backend.
type ListenerFactory func(orderID string, s *tracker.Session, onChange func(tracker.Snapshot)) *stream.Listener

func NewTrackerManager(newListener ListenerFactory) *TrackerManager {
	return &TrackerManager{
		active:      make(map[string]*orderTracker),
		newListener: newListener,
	}
}

// subscribe attaches a watcher to the order's tracker, starting one if this
// is the first watcher.
func (m *TrackerManager) subscribe(orderID string) (*orderTracker, chan trackEvent) {
	m.mu.Lock()
	t, ok := m.active[orderID]
	if !ok {
		t = m.start(orderID)
		m.active[orderID] = t
	}
	m.mu.Unlock()
	return t, t.subscribe()
}

// unsubscribe detaches a watcher; the last one out stops the tracker.
func (m *TrackerManager) unsubscribe(t *orderTracker, ch chan trackEvent) {
	if t.unsubscribe(ch) > 0 {
		return
	}
	m.mu.Lock()
	if cur, ok := m.active[t.orderID]; ok && cur == t {
		delete(m.active, t.orderID)
	}
	m.mu.Unlock()
	t.listener.Stop()
}

func (m *TrackerManager) start(orderID string) *orderTracker {
	t := &orderTracker{
		orderID: orderID,
		session: tracker.NewSession(orderID),
		clients: make(map[chan trackEvent]bool),
		done:    make(chan struct{}),
	}
	onChange := func(snap tracker.Snapshot) {
		t.broadcast(trackEvent{
			Snapshot:       snap,
			Phase:          t.listener.Phase(),
			ConnectionLost: t.listener.ConnectionLost(),
		})
	}
	t.listener = m.newListener(orderID, t.session, onChange)
	go func() {
		defer close(t.done)
		if err := t.listener.Run(context.Background()); err != nil {
			log.Printf("www: tracker %s: %v", orderID, err)
			t.broadcast(trackEvent{
				Snapshot: t.session.Snapshot(),
				Phase:    t.listener.Phase(),
				Error:    err.Error(),
			})
			return
		}
		// clean exit: push the final state so late subscribers see it
		t.broadcast(trackEvent{
			Snapshot:       t.session.Snapshot(),
			Phase:          t.listener.Phase(),
			ConnectionLost: t.listener.ConnectionLost(),
		})
	}()
	return t
}

// Shutdown stops every active tracker. Used on server exit.
func (m *TrackerManager) Shutdown() {
	m.mu.Lock()
	trackers := make([]*orderTracker, 0, len(m.active))
	for _, t := range m.active {
		trackers = append(trackers, t)
	}
	m.active = make(map[string]*orderTracker)
	m.mu.Unlock()
	for _, t := range trackers {
		t.listener.Stop()
	}
}

func marshalEvent(ev trackEvent) []byte {
	b, _ := json.Marshal(ev)
	return b
}
