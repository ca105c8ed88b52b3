// Package store is the client boundary to the shared event tree.
//
// The board's source of truth is a document tree shaped like:
//
//	users/
//	  <ownerId>/
//	    registeredAt: <epoch millis, set once>
//	    eventDetails/
//	      <eventId>/          (store-generated key)
//	        name: <string>
//	        date: <ISO calendar date string>
//
// An earlier schema kept eventDetails as a single {name,date} object
// directly under the owner — one event per owner, no event id. Both shapes
// still exist in live data, so the decode boundary models them as one
// tagged variant (EventTree) and flattening produces a uniform record
// sequence regardless of which variant is encountered. Callers never
// branch on schema.
//
// Every committed write re-reads the whole tree and broadcasts the
// flattened snapshot to subscribers; there is no incremental patching.
// The snapshot is disposable — the tree is the only truth.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/saicojavc/When-Babe/internal/model"
)

// EventFields is the writable payload of one event node.
type EventFields struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// EventTree is the eventDetails subtree of one owner: either a legacy
// single event object or a map of store-generated keys to events.
//
// Exactly one of Single/Multi is set after a successful decode; an owner
// with no events decodes to the zero EventTree.
type EventTree struct {
	Single *EventFields
	Multi  map[string]EventFields
}

// UnmarshalJSON decides which schema revision a subtree is in.
//
// DETECTION RULE: the legacy shape has string leaves directly under
// eventDetails ("name"/"date"); the current shape has one object per
// store key. A subtree whose values are all objects is Multi; one with a
// string-valued "name" or "date" leaf is Single. Empty or null subtrees
// decode to the zero value.
func (t *EventTree) UnmarshalJSON(data []byte) error {
	*t = EventTree{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("store: decoding eventDetails: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	if isLegacySingle(raw) {
		var f EventFields
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("store: decoding legacy event: %w", err)
		}
		t.Single = &f
		return nil
	}

	multi := make(map[string]EventFields, len(raw))
	for key, msg := range raw {
		var f EventFields
		if err := json.Unmarshal(msg, &f); err != nil {
			return fmt.Errorf("store: decoding event %q: %w", key, err)
		}
		multi[key] = f
	}
	t.Multi = multi
	return nil
}

// MarshalJSON writes the subtree back in the shape it is in: a Single
// tree stays a legacy object (in-place edits don't rewrite the schema),
// a Multi tree is the keyed map. New events are only ever written keyed.
func (t EventTree) MarshalJSON() ([]byte, error) {
	if t.Single != nil {
		return json.Marshal(t.Single)
	}
	if t.Multi == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.Multi)
}

func isLegacySingle(raw map[string]json.RawMessage) bool {
	for _, field := range []string{"name", "date"} {
		msg, ok := raw[field]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(msg, &s) == nil {
			return true
		}
	}
	return false
}

// Flatten converts the subtree into uniform records for the given owner.
//
// Multi keys come out in lexicographic order — push keys sort by creation
// time, so this is also creation order, and it keeps every snapshot of
// the same tree byte-for-byte identical. Empty event keys are skipped
// (data hygiene, not an error). A legacy single record carries an empty
// EventID.
func (t EventTree) Flatten(ownerID string) []model.EventRecord {
	if t.Single != nil {
		return []model.EventRecord{{
			OwnerID: ownerID,
			Name:    t.Single.Name,
			Date:    t.Single.Date,
		}}
	}

	keys := make([]string, 0, len(t.Multi))
	for key := range t.Multi {
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]model.EventRecord, 0, len(keys))
	for _, key := range keys {
		f := t.Multi[key]
		records = append(records, model.EventRecord{
			OwnerID: ownerID,
			EventID: key,
			Name:    f.Name,
			Date:    f.Date,
		})
	}
	return records
}

// Store is the event-tree client.
//
// Writes are independent, last-write-wins operations: no retries, no
// rollback, no optimistic local state. A failed write is reported to the
// caller once and the next snapshot simply reflects whatever actually
// happened.
type Store interface {
	// ListAll fetches the full users subtree and flattens it, skipping
	// empty owner and event keys. Order is owner key then event key,
	// lexicographic.
	ListAll(ctx context.Context) ([]model.EventRecord, error)

	// RegisterOwner records a device's first launch. registeredAt is set
	// once; registering a known owner again is a no-op.
	RegisterOwner(ctx context.Context, ownerID string, registeredAt time.Time) error

	// Owner returns the registration record for one device. The
	// registeredAt reported is the stored one, which a repeat
	// registration never moved.
	Owner(ctx context.Context, ownerID string) (model.Device, error)

	// Push creates a new event node under the owner with a fresh
	// store-generated key and returns that key. A legacy single node is
	// migrated to the keyed shape first.
	Push(ctx context.Context, ownerID string, fields EventFields) (string, error)

	// Set overwrites exactly the named node's name/date fields.
	Set(ctx context.Context, ownerID, eventID string, fields EventFields) error

	// Remove deletes the named event node. An empty eventID removes the
	// owner's legacy single node.
	Remove(ctx context.Context, ownerID, eventID string) error

	// Subscribe returns a channel that receives the full flattened
	// snapshot after every committed write, plus a cancel handle that
	// must be called when the subscriber goes away.
	Subscribe() (<-chan []model.EventRecord, func())

	Close() error
}
