package p2pchat

import (
	"context"

	"github.com/coregx/p2pchat/model"
)

// MessageStore defines the persistence interface for the local message log.
// Records are append-only; the only deletion path is PruneOlderThan.
//
// Implementations must be safe for concurrent use: the command loop and the
// inbound delivery goroutine both call Store. Every operation reports failure
// through its error return and never panics.
type MessageStore interface {
	// Store appends an envelope and returns its storage key.
	// Keys are unique and sort in SentAt order within one store.
	// Fails with ErrCodeStoreWrite.
	Store(ctx context.Context, e model.Envelope) (string, error)

	// Recent returns up to limit of the most recent records, oldest first.
	// On failure it returns an empty slice and an ErrCodeStoreRead error.
	Recent(ctx context.Context, limit int) ([]model.Record, error)

	// Since returns every record with SentAt strictly greater than sentAt
	// (milliseconds since epoch), oldest first.
	Since(ctx context.Context, sentAt int64) ([]model.Record, error)

	// PruneOlderThan deletes every record with SentAt strictly less than
	// sentAt and returns the number removed.
	PruneOlderThan(ctx context.Context, sentAt int64) (int64, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying storage handle. Calling it more than once
	// is a no-op.
	Close() error
}
