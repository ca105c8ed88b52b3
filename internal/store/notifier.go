package store

import (
	"sync"

	"github.com/saicojavc/When-Babe/internal/model"
)

// Notifier fans snapshot notifications out to subscribers.
//
// Each subscriber gets a buffered channel of size 1 holding only the
// LATEST snapshot: if a subscriber is slow, the pending snapshot is
// replaced rather than queued. That matches the delivery model the board
// needs — every notification fully replaces prior state, so an
// intermediate snapshot nobody consumed carries no information.
//
// Broadcast never blocks on a subscriber, so writers are never held up by
// a stuck reader.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan []model.EventRecord
}

// NewNotifier returns an empty Notifier ready for use.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan []model.EventRecord)}
}

// Subscribe registers a new subscriber. The returned cancel function is
// idempotent and must be called when the subscriber is torn down —
// leaking a live subscription keeps the channel (and anything feeding it)
// alive forever.
func (n *Notifier) Subscribe() (<-chan []model.EventRecord, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan []model.EventRecord, 1)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Broadcast delivers the snapshot to every current subscriber, replacing
// any snapshot a subscriber has not yet consumed.
func (n *Notifier) Broadcast(snapshot []model.EventRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		// Drain the stale pending snapshot, if any, then send the new one.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// CloseAll cancels every subscription. Used on store shutdown.
func (n *Notifier) CloseAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
