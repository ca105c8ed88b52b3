// Package model defines the data structures used throughout the application.
package model

import "time"

// Device represents one anonymous install of the app.
//
// There is no user registry: the device id IS the identity. It is a random
// UUID generated on the device at first launch and announced to the board
// once. RegisteredAt is set on that first announcement and never changes —
// re-registering an already-known device is a no-op.
//
// WHY no display name, email, etc.?
// The board is anonymous by design. Everything the rest of the system
// needs to know about a device is "which opaque id owns this event".
type Device struct {
	ID           string    `json:"deviceId"`
	RegisteredAt time.Time `json:"registeredAt"`
}
