package store

import (
	"testing"

	"github.com/saicojavc/When-Babe/internal/model"
)

func TestNotifier_Broadcast(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	snapshot := []model.EventRecord{{OwnerID: "o", EventID: "e", Name: "n", Date: "2024-01-01"}}
	n.Broadcast(snapshot)

	got := <-ch
	if len(got) != 1 || got[0].EventID != "e" {
		t.Errorf("received %+v", got)
	}
}

func TestNotifier_SlowSubscriberKeepsOnlyLatest(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	// The subscriber consumes nothing while two snapshots arrive. Only the
	// latest must be pending — an unconsumed intermediate snapshot carries
	// no information, and Broadcast must never block a writer.
	n.Broadcast([]model.EventRecord{{EventID: "old"}})
	n.Broadcast([]model.EventRecord{{EventID: "new"}})

	got := <-ch
	if len(got) != 1 || got[0].EventID != "new" {
		t.Errorf("received %+v, want only the latest snapshot", got)
	}
}

func TestNotifier_CancelClosesChannel(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()

	cancel()
	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}

	// A cancelled subscriber no longer receives broadcasts, and cancel is
	// safe to call twice.
	n.Broadcast([]model.EventRecord{{EventID: "x"}})
	cancel()
}

func TestNotifier_IndependentSubscribers(t *testing.T) {
	n := NewNotifier()
	ch1, cancel1 := n.Subscribe()
	ch2, cancel2 := n.Subscribe()
	defer cancel2()

	cancel1()
	n.Broadcast([]model.EventRecord{{EventID: "only-for-2"}})

	if _, open := <-ch1; open {
		t.Error("cancelled subscriber received a snapshot")
	}
	got := <-ch2
	if len(got) != 1 || got[0].EventID != "only-for-2" {
		t.Errorf("live subscriber received %+v", got)
	}
}
