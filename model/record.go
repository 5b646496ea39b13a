package model

import "fmt"

// tablePrefix is the default prefix for all tables created by the migrations.
const tablePrefix = "p2pchat_"

// Record is an Envelope as persisted by a message store.
// Records are immutable once written; they are removed only by retention pruning.
//
// The table's auto-increment id column is not mapped; StorageKey is the
// record identity.
//
// StorageKey sorts in the same order as SentAt, with Sequence breaking ties
// between messages stamped in the same millisecond.
type Record struct {
	StorageKey        string `json:"key" db:"storage_key"`              // Chronologically sortable unique key
	Sequence          int64  `json:"-" db:"sequence"`                   // Per-store monotonic counter
	Kind              string `json:"type" db:"kind"`                    // Envelope kind
	Content           string `json:"content" db:"content"`              // Envelope content
	AuthorDisplayName string `json:"username" db:"author_display_name"` // Envelope author label
	SentAt            int64  `json:"timestamp" db:"sent_at"`            // Envelope timestamp (ms)
	SenderID          string `json:"from" db:"sender_id"`               // Envelope sender identity
}

// Columns lists the mapped columns in table order.
var Columns = []string{
	"storage_key", "sequence", "kind", "content", "author_display_name", "sent_at", "sender_id",
}

// TableName returns the database table name for Record.
func (r Record) TableName() string {
	return tablePrefix + "message"
}

// NewRecord builds the row for an envelope under the given sequence number.
func NewRecord(e Envelope, sequence int64) Record {
	return Record{
		StorageKey:        StorageKey(e.SentAt, sequence),
		Sequence:          sequence,
		Kind:              string(e.Kind),
		Content:           e.Content,
		AuthorDisplayName: e.AuthorDisplayName,
		SentAt:            e.SentAt,
		SenderID:          e.SenderID,
	}
}

// Envelope returns the envelope the record was built from.
func (r Record) Envelope() Envelope {
	return Envelope{
		Kind:              Kind(r.Kind),
		Content:           r.Content,
		AuthorDisplayName: r.AuthorDisplayName,
		SentAt:            r.SentAt,
		SenderID:          r.SenderID,
	}
}

// StorageKey formats the key for a record. Both parts are zero padded so that
// lexical order equals numeric order for any non-negative timestamp.
func StorageKey(sentAt, sequence int64) string {
	return fmt.Sprintf("%013d-%020d", sentAt, sequence)
}
