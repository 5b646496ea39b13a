package model

import (
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind is the type tag carried by every Envelope.
type Kind string

const (
	// KindBroadcast is a chat line sent to every subscriber of the topic.
	KindBroadcast Kind = "broadcast"
)

// IsKnown reports whether the kind is one this package acts on.
// Unknown kinds are not errors; they are reserved for future message types
// and are dropped by consumers.
func (k Kind) IsKnown() bool {
	return k == KindBroadcast
}

// Envelope is the unit exchanged over the topic and persisted by the store.
// Envelopes are never mutated after creation.
//
// The JSON field names are the wire format shared with other chat peers
// and must not change.
type Envelope struct {
	Kind              Kind   `json:"type"`           // Message type tag
	Content           string `json:"content"`        // Text payload
	AuthorDisplayName string `json:"username"`       // Sender-chosen label, not an identity
	SentAt            int64  `json:"timestamp"`      // Sender-local time, ms since epoch
	SenderID          string `json:"from,omitempty"` // Peer identity attached by the substrate
}

// NewBroadcast creates a broadcast envelope stamped with the given time.
//
// Parameters:
//   - content: The chat text
//   - displayName: The author's current display name
//   - senderID: The local peer identity
//   - at: Creation time, truncated to milliseconds
func NewBroadcast(content, displayName, senderID string, at time.Time) Envelope {
	return Envelope{
		Kind:              KindBroadcast,
		Content:           content,
		AuthorDisplayName: displayName,
		SentAt:            at.UnixMilli(),
		SenderID:          senderID,
	}
}

// Validate checks the minimum structure every envelope must have to be
// considered an envelope at all. Kind-specific rules are left to consumers.
func (e Envelope) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Kind, validation.Required, validation.Length(1, 64)),
		validation.Field(&e.SentAt, validation.Required, validation.Min(int64(1))),
	)
}

// SentTime returns SentAt as a time.Time in the local zone.
func (e Envelope) SentTime() time.Time {
	return time.UnixMilli(e.SentAt)
}

// WithSender returns a copy of the envelope carrying the given sender id.
func (e Envelope) WithSender(senderID string) Envelope {
	e.SenderID = senderID
	return e
}

// Marshal serializes the envelope to its wire form.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses wire bytes into an Envelope.
// Bytes that are not a JSON object, or that lack a type or a positive
// timestamp, are rejected.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("invalid envelope: %w", err)
	}
	return e, nil
}
