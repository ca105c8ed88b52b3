// Package projection maintains the in-memory view of the shared event
// tree that the display layer reads.
//
// The projection is deliberately dumb: it subscribes to the store, and on
// every delivered snapshot it sorts the records and swaps the whole slice
// in under a lock. There is no patching, no diffing, no per-record state
// — the snapshot is disposable and fully rebuilt on every notification,
// so readers can never observe a partially-updated list.
package projection

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/saicojavc/When-Babe/internal/dates"
	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/store"
)

// EventList holds the latest sorted snapshot and fans updates out to
// downstream subscribers (the live API stream).
type EventList struct {
	mu      sync.RWMutex
	records []model.EventRecord

	cancel func()
	done   chan struct{}

	notifier *store.Notifier
	logger   *slog.Logger
}

// New subscribes to the store and starts consuming change notifications.
//
// The initial snapshot is fetched synchronously from src so the
// projection is never empty-because-unlucky at startup; after that a
// single goroutine applies notifications one at a time — each snapshot
// fully replaces the previous one before the next is accepted.
//
// Close must be called when the projection's owner is torn down, or the
// store subscription leaks.
func New(ctx context.Context, src store.Store, logger *slog.Logger) *EventList {
	ch, cancel := src.Subscribe()

	p := &EventList{
		cancel:   cancel,
		done:     make(chan struct{}),
		notifier: store.NewNotifier(),
		logger:   logger,
	}

	if records, err := src.ListAll(ctx); err != nil {
		// Keep the (empty) last good snapshot; the next committed write
		// delivers a fresh one. Never propagate errors to the display.
		logger.Error("initial snapshot fetch failed", slog.String("error", err.Error()))
	} else {
		p.apply(records)
	}

	go func() {
		defer close(p.done)
		for records := range ch {
			p.apply(records)
		}
	}()

	return p
}

// Snapshot returns the current sorted list. The returned slice is a copy
// — callers can hold it as long as they like without observing later
// updates mid-read.
func (p *EventList) Snapshot() []model.EventRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]model.EventRecord, len(p.records))
	copy(out, p.records)
	return out
}

// Subscribe registers a downstream consumer of sorted snapshots. The
// channel receives the current snapshot's successors; call Snapshot for
// the current state first. Cancel when done.
func (p *EventList) Subscribe() (<-chan []model.EventRecord, func()) {
	return p.notifier.Subscribe()
}

// Close releases the store subscription and waits for the consumer
// goroutine to finish, then drops all downstream subscribers.
func (p *EventList) Close() {
	p.cancel()
	<-p.done
	p.notifier.CloseAll()
}

// apply sorts a freshly delivered snapshot and swaps it in atomically.
func (p *EventList) apply(records []model.EventRecord) {
	sorted := Sort(records)

	p.mu.Lock()
	p.records = sorted
	p.mu.Unlock()

	p.notifier.Broadcast(sorted)

	p.logger.Debug("event list updated", slog.Int("count", len(sorted)))
}

// Sort orders records by event date, newest first. A record whose date
// does not parse sorts as the minimum possible date — after every real
// date, at the bottom of the list. Ties keep the snapshot's fetch order
// (store key order), which makes the sort fully deterministic.
func Sort(records []model.EventRecord) []model.EventRecord {
	out := make([]model.EventRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		di, _ := dates.ParseISO(out[i].Date) // zero Date on failure = minimum
		dj, _ := dates.ParseISO(out[j].Date)
		return dj.Before(di)
	})
	return out
}
