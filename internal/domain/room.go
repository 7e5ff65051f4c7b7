// Package domain contains entities without logic, just meta-data.
package domain

// RoomID is an externally supplied, case-sensitive meeting identifier.
// Rooms exist exactly as long as they have at least one peer.
type RoomID string
