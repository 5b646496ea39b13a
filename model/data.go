// Package model contains the domain models shared by the chat core:
// the wire Envelope and its persisted form, the Record.
package model

// ShortID abbreviates a peer identity for display.
// Identities shorter than n are returned unchanged.
func ShortID(id string, n int) string {
	if n <= 0 || len(id) <= n {
		return id
	}
	return id[:n] + "..."
}
