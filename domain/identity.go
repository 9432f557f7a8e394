// Package domain contains core concepts of the messaging system.
// This file defines identifiers and the deterministic room naming scheme.
// No runtime, network, or UI logic should be added here.
package domain

import "fmt"

// UserID identifies a registered user across all of their devices.
type UserID int64

// ConversationID identifies a two-party conversation record.
type ConversationID int64

// ConnID identifies a single live connection. A user with several open
// devices owns several ConnIDs at once.
type ConnID string

// RoomID names a broadcast group. Rooms are derived views over membership;
// they are never created or destroyed explicitly.
type RoomID string

// IdentityRoom is the room holding every live connection of one user.
// It is the one way to reach "all of a user's devices".
func IdentityRoom(id UserID) RoomID {
	return RoomID(fmt.Sprintf("user:%d", id))
}

// ConversationRoom is the room holding the connections that explicitly
// joined a conversation's event stream. Membership is not implied by being
// a participant of the underlying conversation record.
func ConversationRoom(id ConversationID) RoomID {
	return RoomID(fmt.Sprintf("conv:%d", id))
}
