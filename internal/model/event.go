// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

// EventRecord is one named arrival-date event on the shared board,
// attributed to the device that created it.
//
// WHY Date string (not time.Time)?
// The date travels through the document tree exactly as it was stored:
// an ISO calendar-date string like "2024-05-03". Stored data can be
// malformed (hand-edited or legacy), and the record must carry it through
// unchanged so the display layer can show the raw value annotated as
// invalid instead of dropping the record. Parsing happens at the edges
// (sorting, grouping, display) via the dates package, never on the record
// itself.
//
// WHY EventID may be empty?
// The tree went through two schema revisions. The current shape keys many
// events per owner by a store-generated id. The legacy shape kept a single
// event object directly under the owner, with no id of its own. A record
// flattened out of a legacy node has EventID == "" — callers treat the
// pair (OwnerID, EventID) as the record's address either way.
type EventRecord struct {
	OwnerID string `json:"ownerId"`
	EventID string `json:"eventId,omitempty"`
	Name    string `json:"name"`
	Date    string `json:"date"` // ISO calendar date as stored; may be malformed
}

// Key returns the record's address within the tree, used for list identity.
func (e EventRecord) Key() string {
	return e.OwnerID + "/" + e.EventID
}
